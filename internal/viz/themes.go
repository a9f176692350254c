package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/backdrop/internal/palette"
)

// Theme colors the CLI chrome after an effect palette.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
}

const (
	mutedColor = lipgloss.Color("#666688")
	textColor  = lipgloss.Color("#e5e7eb")
)

// ThemeFor derives a CLI theme from a palette's first three colors.
func ThemeFor(p palette.Palette) Theme {
	t := Theme{Name: p.Name, Muted: mutedColor, Text: textColor}
	pick := func(i int) lipgloss.Color {
		if len(p.Colors) == 0 {
			return textColor
		}
		return lipgloss.Color(p.Colors[i%len(p.Colors)].Hex())
	}
	t.Primary, t.Secondary, t.Accent = pick(0), pick(1), pick(2)
	return t
}

// GetTheme returns the theme for a palette name, falling back to the
// default palette like palette.Resolve.
func GetTheme(name string) Theme {
	return ThemeFor(palette.Resolve(name))
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	return palette.Names()
}
