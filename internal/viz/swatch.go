package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/backdrop/internal/palette"
)

// Swatch renders one palette as a row of colored blocks with its name.
func Swatch(p palette.Palette, bg lipgloss.Color) string {
	var s strings.Builder
	name := lipgloss.NewStyle().Width(12).Bold(true).Foreground(ThemeFor(p).Primary)
	s.WriteString(name.Render(p.Name))

	for _, c := range p.Colors {
		block := lipgloss.NewStyle().
			Background(lipgloss.Color(c.Hex())).
			Foreground(bg).
			Padding(0, 1)
		s.WriteString(block.Render(c.Hex()))
		s.WriteString(" ")
	}
	if p.Hidden {
		s.WriteString(StatusHidden.Render("(effect hidden)"))
	}
	return strings.TrimRight(s.String(), " ")
}

// Swatches renders every palette known to r, marking current.
func Swatches(r *palette.Resolver, current string, bg lipgloss.Color) string {
	var s strings.Builder
	for _, name := range r.Names() {
		marker := "  "
		if name == current {
			marker = StatusRunning.Render("> ")
		}
		fmt.Fprintf(&s, "%s%s\n", marker, Swatch(r.Resolve(name), bg))
	}
	return s.String()
}
