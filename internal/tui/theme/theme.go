// Package theme provides the Catppuccin palettes used by the report and the image viewer.
package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines a color scheme.
type Theme struct {
	Mauve  lipgloss.Color // Titles
	Blue   lipgloss.Color // Timers
	Green  lipgloss.Color // PASS
	Yellow lipgloss.Color // Warnings
	Red    lipgloss.Color // FAIL

	Text    lipgloss.Color
	Subtext lipgloss.Color
	Surface lipgloss.Color
	Base    lipgloss.Color

	Name   string
	IsDark bool
}

// FlavorName represents a Catppuccin flavor.
type FlavorName string

const (
	FlavorMocha FlavorName = "mocha"
	FlavorLatte FlavorName = "latte"
)

// Current holds the active theme.
var Current = Mocha()

// Mocha returns the Catppuccin Mocha theme (dark).
func Mocha() *Theme {
	return &Theme{
		Name:    "Catppuccin Mocha",
		IsDark:  true,
		Mauve:   lipgloss.Color("#cba6f7"),
		Blue:    lipgloss.Color("#89b4fa"),
		Green:   lipgloss.Color("#a6e3a1"),
		Yellow:  lipgloss.Color("#f9e2af"),
		Red:     lipgloss.Color("#f38ba8"),
		Text:    lipgloss.Color("#cdd6f4"),
		Subtext: lipgloss.Color("#a6adc8"),
		Surface: lipgloss.Color("#313244"),
		Base:    lipgloss.Color("#1e1e2e"),
	}
}

// Latte returns the Catppuccin Latte theme (light).
func Latte() *Theme {
	return &Theme{
		Name:    "Catppuccin Latte",
		IsDark:  false,
		Mauve:   lipgloss.Color("#8839ef"),
		Blue:    lipgloss.Color("#1e66f5"),
		Green:   lipgloss.Color("#40a02b"),
		Yellow:  lipgloss.Color("#df8e1d"),
		Red:     lipgloss.Color("#d20f39"),
		Text:    lipgloss.Color("#4c4f69"),
		Subtext: lipgloss.Color("#6c6f85"),
		Surface: lipgloss.Color("#ccd0da"),
		Base:    lipgloss.Color("#eff1f5"),
	}
}

// SetTheme sets the current theme by flavor name. Unknown names select Mocha.
func SetTheme(flavor FlavorName) {
	switch flavor {
	case FlavorLatte:
		Current = Latte()
	default:
		Current = Mocha()
	}
}

// OutcomeColor returns the color for a PASS/FAIL tag or a timer.
func (t *Theme) OutcomeColor(outcome string) lipgloss.Color {
	switch outcome {
	case "PASS", "pass":
		return t.Green
	case "FAIL", "fail":
		return t.Red
	case "timing", "TIMING":
		return t.Blue
	default:
		return t.Text
	}
}

// OutcomeIcon returns the icon for a PASS/FAIL tag or a timer.
func OutcomeIcon(outcome string) string {
	switch outcome {
	case "PASS", "pass":
		return "✓"
	case "FAIL", "fail":
		return "✗"
	case "timing", "TIMING":
		return "⏱"
	default:
		return "•"
	}
}
