// Package extract turns raw documents into plain text for analysis.
package extract

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for binary document formats (PDF, DOCX,
// ...) that have no text extractor
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Format identifies how a document's text was obtained
type Format string

const (
	FormatPlain Format = "text"
	FormatHTML  Format = "html"
)

// Document is extracted text ready for analysis
type Document struct {
	Title  string
	Text   string
	Format Format
}

// Extractor converts one family of formats to text
type Extractor interface {
	// Name returns the extractor name
	Name() string

	// CanHandle checks if this extractor can handle a document with the
	// given file name (may be empty) and media type
	CanHandle(name string, mediaType string) bool

	// Extract returns the document's text
	Extract(data []byte) (Document, error)
}

// Registry picks an extractor per document
type Registry struct {
	extractors []Extractor
	fallback   Extractor
}

// NewRegistry creates a registry with the built-in extractors
func NewRegistry() *Registry {
	r := &Registry{}

	r.Register(NewUnsupportedExtractor())
	r.Register(NewHTMLExtractor())

	r.fallback = NewPlainExtractor()
	return r
}

// Register adds an extractor. Extractors are tried in registration order.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Find returns the first extractor that handles name/contentType, or the
// plain text extractor
func (r *Registry) Find(name string, contentType string) Extractor {
	mediaType := MediaType(contentType)
	for _, e := range r.extractors {
		if e.CanHandle(name, mediaType) {
			return e
		}
	}
	return r.fallback
}

// Extract converts data to a Document. When contentType is empty and the
// name has no recognised extension, the type is sniffed from the content.
func (r *Registry) Extract(data []byte, name string, contentType string) (Document, error) {
	if contentType == "" && !knownExtension(name) {
		contentType = http.DetectContentType(data)
	}

	e := r.Find(name, contentType)
	doc, err := e.Extract(data)
	if err != nil {
		return Document{}, fmt.Errorf("%s extractor: %w", e.Name(), err)
	}
	return doc, nil
}

// MediaType returns the lower-cased media type of a Content-Type value,
// without parameters
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func knownExtension(name string) bool {
	ext := extension(name)
	return htmlExtensions[ext] || plainExtensions[ext] || unsupportedExtensions[ext]
}
