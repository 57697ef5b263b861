package render

import (
	"fmt"
	"strings"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `&lt;`,
	">", `&gt;`,
)

// EscapeMarkdown escapes characters with inline Markdown meaning
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Markdown renders the segments as a paragraph with annotated spans in
// bold, each followed by a footnote reference; the footnotes follow.
func Markdown(h *Highlighter) string {
	var text, notes strings.Builder

	for i, seg := range h.Segments() {
		content := EscapeMarkdown(seg.Content)
		if !seg.Annotated() {
			text.WriteString(content)
			continue
		}

		n := h.Marker(i)
		fmt.Fprintf(&text, "**%s**[^%d]", content, n)

		a := seg.Annotation
		fmt.Fprintf(&notes, "[^%d]: *%s*", n, a.Severity)
		if a.Suggestion != "" {
			fmt.Fprintf(&notes, ", consider %q", a.Suggestion)
		}
		if a.Explanation != "" {
			fmt.Fprintf(&notes, ". %s", EscapeMarkdown(a.Explanation))
		}
		for _, ref := range a.References {
			fmt.Fprintf(&notes, " [%s](%s)", EscapeMarkdown(ref.Label), ref.URL)
		}
		notes.WriteString("\n")
	}

	if notes.Len() == 0 {
		return text.String() + "\n"
	}
	return text.String() + "\n\n" + notes.String()
}
