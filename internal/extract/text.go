package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var plainExtensions = map[string]bool{".txt": true, ".text": true, ".md": true, ".markdown": true}

var unsupportedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".odt": true, ".rtf": true,
	".pages": true, ".epub": true,
}

var unsupportedMediaTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.oasis.opendocument.text":                                 true,
	"application/rtf":      true,
	"application/zip":      true,
	"application/epub+zip": true,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainExtractor passes text through unchanged apart from a leading BOM
type PlainExtractor struct{}

// NewPlainExtractor creates a new plain text extractor
func NewPlainExtractor() *PlainExtractor {
	return &PlainExtractor{}
}

// Name returns the extractor name
func (e *PlainExtractor) Name() string {
	return "text"
}

// CanHandle matches text/* media types and plain text extensions
func (e *PlainExtractor) CanHandle(name string, mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") || plainExtensions[extension(name)]
}

// Extract returns data as text. Content with NUL bytes is treated as
// binary and rejected; invalid UTF-8 sequences are replaced with U+FFFD.
func (e *PlainExtractor) Extract(data []byte) (Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return Document{}, ErrUnsupportedFormat
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return Document{Text: text, Format: FormatPlain}, nil
}

// UnsupportedExtractor claims binary document formats and rejects them
type UnsupportedExtractor struct{}

// NewUnsupportedExtractor creates a new extractor for unsupported formats
func NewUnsupportedExtractor() *UnsupportedExtractor {
	return &UnsupportedExtractor{}
}

// Name returns the extractor name
func (e *UnsupportedExtractor) Name() string {
	return "unsupported"
}

// CanHandle matches PDF, word processor and archive formats
func (e *UnsupportedExtractor) CanHandle(name string, mediaType string) bool {
	return unsupportedMediaTypes[mediaType] || unsupportedExtensions[extension(name)]
}

// Extract always fails with ErrUnsupportedFormat
func (e *UnsupportedExtractor) Extract(data []byte) (Document, error) {
	return Document{}, ErrUnsupportedFormat
}

// WordCount returns the number of whitespace-separated words in text
func WordCount(text string) int {
	return len(strings.Fields(text))
}
