// Package styles provides reusable lipgloss styles for the report and the image viewer.
package styles

import (
	"github.com/Dicklesworthstone/diveboard/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

// Styles contains the styled lipgloss renderers.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Dimmed   lipgloss.Style
	Label    lipgloss.Style

	BadgePass  lipgloss.Style
	BadgeFail  lipgloss.Style
	BadgeTimer lipgloss.Style

	Frame lipgloss.Style
}

// New creates styles from the current theme using the default renderer.
func New() *Styles {
	return FromTheme(lipgloss.DefaultRenderer(), theme.Current)
}

// FromTheme creates styles bound to renderer r.
func FromTheme(r *lipgloss.Renderer, t *theme.Theme) *Styles {
	s := &Styles{}

	s.Title = r.NewStyle().
		Foreground(t.Mauve).
		Bold(true)

	s.Subtitle = r.NewStyle().
		Foreground(t.Subtext).
		Italic(true)

	s.Dimmed = r.NewStyle().
		Foreground(t.Subtext)

	s.Label = r.NewStyle().
		Foreground(t.Text).
		Bold(true)

	badgeBase := r.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(t.Base)

	s.BadgePass = badgeBase.Background(t.Green)
	s.BadgeFail = badgeBase.Background(t.Red)
	s.BadgeTimer = badgeBase.Background(t.Blue)

	s.Frame = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Surface)

	return s
}

// OutcomeBadge returns the badge style for a PASS/FAIL tag or a timer.
func (s *Styles) OutcomeBadge(outcome string) lipgloss.Style {
	switch outcome {
	case "PASS", "pass":
		return s.BadgePass
	case "FAIL", "fail":
		return s.BadgeFail
	default:
		return s.BadgeTimer
	}
}
