package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

var htmlExtensions = map[string]bool{".html": true, ".htm": true, ".xhtml": true}

// elements whose content is never visible
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"template": true, "svg": true, "canvas": true,
}

// elements that start a new line of text
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true, "br": true,
}

// HTMLExtractor extracts visible text from HTML pages
type HTMLExtractor struct{}

// NewHTMLExtractor creates a new HTML extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Name returns the extractor name
func (e *HTMLExtractor) Name() string {
	return "html"
}

// CanHandle matches HTML media types and file extensions
func (e *HTMLExtractor) CanHandle(name string, mediaType string) bool {
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return htmlExtensions[extension(name)]
}

// Extract parses data and returns its title and visible text, one block
// element per line
func (e *HTMLExtractor) Extract(data []byte) (Document, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}

	title, text := visibleText(doc)
	return Document{Title: title, Text: text, Format: FormatHTML}, nil
}

// visibleText walks the tree, skipping non-visible elements
func visibleText(doc *html.Node) (string, string) {
	var buf strings.Builder
	var title string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[n.Data] {
				return
			}
			if n.Data == "title" {
				if title == "" {
					title = tidy(textContent(n))
				}
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			buf.WriteByte('\n')
		}

		if n.Type == html.TextNode {
			buf.WriteString(collapseSpace(n.Data))
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if block {
			buf.WriteByte('\n')
		}
	}

	walk(doc)
	return title, tidy(buf.String())
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(textContent(c))
	}
	return buf.String()
}

// collapseSpace replaces each whitespace run with one space, keeping a
// single leading/trailing space so adjacent inline text stays separated
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}

	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// tidy trims every line, collapses inner spaces and drops empty lines
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
