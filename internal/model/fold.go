package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FoldCase lower-cases s without changing its byte length, so an offset
// into the folded string is also an offset into s. Runes whose lower-case
// form has a different UTF-8 width (e.g. U+0130) and invalid bytes are
// kept as-is. It is the single case-insensitive identity for terms.
func FoldCase(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(s[i])
			i++
			continue
		}
		if lr := unicode.ToLower(r); lr != r && utf8.RuneLen(lr) == size {
			b.WriteRune(lr)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
