// Package palette maps theme identifiers to the translucent colors used
// by the background blobs.
//
// Resolution is pure and total: unknown identifiers fall back to the
// [DefaultTheme] palette. A palette marked Hidden asks the host to show
// no effect at all (the light theme).
package palette

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultTheme is returned for any identifier the resolver does not know.
const DefaultTheme = "terminal"

// BaseAlpha is the alpha of every built-in color token.
const BaseAlpha = 0.3

// Color is a straight-alpha color token. A is in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, c.A)
}

// WithAlpha returns c with its alpha replaced, clamped to [0, 1].
func (c Color) WithAlpha(a float64) Color {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	c.A = a
	return c
}

// Hex returns the #rrggbb form of the color, dropping alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type Palette struct {
	Name   string
	Colors []Color
	Hidden bool
}

func (p Palette) clone() Palette {
	c := make([]Color, len(p.Colors))
	copy(c, p.Colors)
	p.Colors = c
	return p
}

func rgba(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: BaseAlpha} }

var builtin = map[string]Palette{
	"terminal": {
		Name:   "terminal",
		Colors: []Color{rgba(16, 185, 129), rgba(6, 182, 212), rgba(20, 184, 166), rgba(13, 148, 136)},
	},
	"amber": {
		Name:   "amber",
		Colors: []Color{rgba(251, 191, 36), rgba(245, 158, 11), rgba(217, 119, 6), rgba(180, 83, 9)},
	},
	"carbon": {
		Name:   "carbon",
		Colors: []Color{rgba(148, 163, 184), rgba(100, 116, 139), rgba(71, 85, 105), rgba(51, 65, 85)},
	},
	"light": {
		Name:   "light",
		Colors: []Color{rgba(203, 213, 225), rgba(226, 232, 240), rgba(186, 230, 253), rgba(167, 243, 208)},
		Hidden: true,
	},
}

// Resolver resolves theme identifiers against the built-in palettes and
// any custom palettes it was created with. It is read-only after
// construction.
type Resolver struct {
	palettes map[string]Palette
}

var defaultResolver = NewResolver(nil)

// NewResolver returns a resolver over the built-in palettes plus custom.
// Custom palettes override built-ins of the same name.
func NewResolver(custom map[string]Palette) *Resolver {
	r := &Resolver{palettes: make(map[string]Palette, len(builtin)+len(custom))}
	for name, p := range builtin {
		r.palettes[name] = p
	}
	for name, p := range custom {
		key := normalize(name)
		if key == "" || len(p.Colors) == 0 {
			continue
		}
		p = p.clone()
		p.Name = key
		r.palettes[key] = p
	}
	return r
}

// Resolve returns the palette for themeID, or the default palette when
// themeID is unknown.
func (r *Resolver) Resolve(themeID string) Palette {
	if r == nil {
		return defaultResolver.Resolve(themeID)
	}
	if p, ok := r.palettes[normalize(themeID)]; ok {
		return p.clone()
	}
	return r.palettes[DefaultTheme].clone()
}

// Known reports whether themeID names a palette.
func (r *Resolver) Known(themeID string) bool {
	if r == nil {
		r = defaultResolver
	}
	_, ok := r.palettes[normalize(themeID)]
	return ok
}

// Names returns the known theme identifiers in sorted order.
func (r *Resolver) Names() []string {
	if r == nil {
		r = defaultResolver
	}
	names := make([]string, 0, len(r.palettes))
	for name := range r.palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve resolves themeID against the built-in palettes.
func Resolve(themeID string) Palette {
	return defaultResolver.Resolve(themeID)
}

// Names lists the built-in theme identifiers.
func Names() []string {
	return defaultResolver.Names()
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ParseHex parses #RRGGBB or #RRGGBBAA. Without an alpha byte the color
// gets BaseAlpha.
func ParseHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	alpha := BaseAlpha
	switch len(s) {
	case 7:
	case 9:
		var a uint8
		if _, err := fmt.Sscanf(s[7:], "%02x", &a); err != nil {
			return Color{}, fmt.Errorf("palette: bad alpha in %q: %w", s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	default:
		return Color{}, fmt.Errorf("palette: %q is not #RRGGBB or #RRGGBBAA", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("palette: %w", err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}

// FromHex builds a palette from hex color strings.
func FromHex(name string, hexes []string) (Palette, error) {
	if len(hexes) == 0 {
		return Palette{}, fmt.Errorf("palette %q: no colors", name)
	}
	p := Palette{Name: normalize(name), Colors: make([]Color, 0, len(hexes))}
	for _, h := range hexes {
		c, err := ParseHex(h)
		if err != nil {
			return Palette{}, fmt.Errorf("palette %q: %w", name, err)
		}
		p.Colors = append(p.Colors, c)
	}
	return p, nil
}
