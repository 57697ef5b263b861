// Package render draws analyzed text with its flagged spans highlighted,
// for terminals and Markdown.
package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/inclusify/internal/model"
)

// Theme defines the colour palette for highlighted output.
type Theme struct {
	// Outdated, Biased, Offensive and Incorrect colour their severity.
	Outdated  lipgloss.Color
	Biased    lipgloss.Color
	Offensive lipgloss.Color
	Incorrect lipgloss.Color

	// Muted is for markers and secondary text.
	Muted lipgloss.Color

	// Title is the heading colour.
	Title lipgloss.Color
}

// DefaultTheme returns the default severity palette.
func DefaultTheme() *Theme {
	return &Theme{
		Outdated:  lipgloss.Color("#0EA5E9"), // Sky
		Biased:    lipgloss.Color("#F59E0B"), // Amber
		Offensive: lipgloss.Color("#F43F5E"), // Rose
		Incorrect: lipgloss.Color("#DC2626"), // Red
		Muted:     lipgloss.Color("#6C7086"),
		Title:     lipgloss.Color("#7C3AED"),
	}
}

// Color returns the colour for a severity
func (t *Theme) Color(s model.Severity) lipgloss.Color {
	switch s {
	case model.SeverityOutdated:
		return t.Outdated
	case model.SeverityBiased:
		return t.Biased
	case model.SeverityOffensive:
		return t.Offensive
	case model.SeverityIncorrect:
		return t.Incorrect
	default:
		return t.Muted
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for headers.
	Title lipgloss.Style

	// Muted style for markers and legends.
	Muted lipgloss.Style

	spans  map[model.Severity]lipgloss.Style
	badges map[model.Severity]lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	s := &Styles{
		theme:  theme,
		Title:  lipgloss.NewStyle().Bold(true).Foreground(theme.Title),
		Muted:  lipgloss.NewStyle().Foreground(theme.Muted),
		spans:  make(map[model.Severity]lipgloss.Style),
		badges: make(map[model.Severity]lipgloss.Style),
	}

	for _, sev := range model.Severities() {
		c := theme.Color(sev)
		span := lipgloss.NewStyle().Foreground(c).Underline(true)
		if sev == model.SeverityOffensive {
			span = span.Bold(true)
		}
		s.spans[sev] = span
		s.badges[sev] = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(c).
			Padding(0, 1)
	}

	return s
}

// Theme returns the theme the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Span returns the style for highlighted text of severity sev
func (s *Styles) Span(sev model.Severity) lipgloss.Style {
	if st, ok := s.spans[sev]; ok {
		return st
	}
	return s.Muted
}

// Badge renders the severity label as a coloured badge
func (s *Styles) Badge(sev model.Severity) string {
	st, ok := s.badges[sev]
	if !ok {
		st = s.Muted
	}
	return st.Render(string(sev))
}
