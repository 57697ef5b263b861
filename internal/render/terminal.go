package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/inclusify/internal/model"
)

// Terminal writes highlighted text for a terminal. Annotated spans are
// followed by a [n] marker that refers to the legend.
type Terminal struct {
	styles *Styles
	color  bool
}

// NewTerminal creates a terminal renderer. With color off, spans are
// wrapped in brackets instead of styled.
func NewTerminal(styles *Styles, color bool) *Terminal {
	if styles == nil {
		styles = NewStyles(nil)
	}
	return &Terminal{styles: styles, color: color}
}

// Render writes the highlighted text followed by its legend
func (t *Terminal) Render(w io.Writer, h *Highlighter) error {
	if _, err := io.WriteString(w, t.Text(h)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	legend := t.Legend(h)
	if legend == "" {
		return nil
	}
	_, err := io.WriteString(w, "\n"+legend)
	return err
}

// Text renders the segments inline
func (t *Terminal) Text(h *Highlighter) string {
	var b strings.Builder
	for i, seg := range h.Segments() {
		if !seg.Annotated() {
			b.WriteString(seg.Content)
			continue
		}

		marker := fmt.Sprintf("[%d]", h.Marker(i))
		if t.color {
			b.WriteString(t.styles.Span(seg.Annotation.Severity).Render(seg.Content))
			b.WriteString(t.styles.Muted.Render(marker))
		} else {
			b.WriteString("[" + seg.Content + "]")
			b.WriteString(marker)
		}
	}
	return b.String()
}

// Legend lists each marker with its severity, suggestion and explanation
func (t *Terminal) Legend(h *Highlighter) string {
	var b strings.Builder
	segments := h.Segments()
	for n, idx := range h.Annotated() {
		a := segments[idx].Annotation

		badge := string(a.Severity)
		if t.color {
			badge = t.styles.Badge(a.Severity)
		}

		fmt.Fprintf(&b, "[%d] %s %q", n+1, badge, segments[idx].Content)
		if a.Suggestion != "" {
			fmt.Fprintf(&b, " -> %s", a.Suggestion)
		}
		b.WriteString("\n")
		if a.Explanation != "" {
			fmt.Fprintf(&b, "    %s\n", a.Explanation)
		}
	}
	return b.String()
}

// Summary renders per-severity counts on one line
func (t *Terminal) Summary(c model.Counts) string {
	parts := make([]string, 0, len(model.Severities()))
	for _, sev := range model.Severities() {
		label := string(sev)
		if t.color {
			label = t.styles.Span(sev).Underline(false).Render(label)
		}
		parts = append(parts, fmt.Sprintf("%s: %d", label, c.Get(sev)))
	}
	return strings.Join(parts, "  ")
}
