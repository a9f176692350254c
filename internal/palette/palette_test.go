package palette

import (
	"math"
	"reflect"
	"testing"
)

func TestResolveKnownThemes(t *testing.T) {
	tests := []struct {
		theme  string
		first  Color
		hidden bool
	}{
		{"terminal", rgba(16, 185, 129), false},
		{"amber", rgba(251, 191, 36), false},
		{"carbon", rgba(148, 163, 184), false},
		{"light", rgba(203, 213, 225), true},
		{"  Amber ", rgba(251, 191, 36), false},
	}

	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			p := Resolve(tt.theme)
			if len(p.Colors) != 4 {
				t.Fatalf("expected 4 colors, got %d", len(p.Colors))
			}
			if p.Colors[0] != tt.first {
				t.Errorf("first color = %v, want %v", p.Colors[0], tt.first)
			}
			if p.Hidden != tt.hidden {
				t.Errorf("hidden = %v, want %v", p.Hidden, tt.hidden)
			}
		})
	}
}

func TestResolveUnknownFallsBackToDefault(t *testing.T) {
	want := Resolve(DefaultTheme)
	for _, id := range []string{"", "solarized", "TERMINAL2"} {
		got := Resolve(id)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Resolve(%q) = %+v, want default %+v", id, got, want)
		}
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	p := Resolve("amber")
	p.Colors[0] = Color{}

	again := Resolve("amber")
	if again.Colors[0] != rgba(251, 191, 36) {
		t.Error("mutating a resolved palette changed the table")
	}
}

func TestBuiltinAlpha(t *testing.T) {
	for _, name := range Names() {
		for _, c := range Resolve(name).Colors {
			if c.A != BaseAlpha {
				t.Errorf("%s: alpha %v, want %v", name, c.A, BaseAlpha)
			}
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#10b981", Color{R: 16, G: 185, B: 129, A: BaseAlpha}, false},
		{"10b981", Color{R: 16, G: 185, B: 129, A: BaseAlpha}, false},
		{"#ff000080", Color{R: 255, A: 128.0 / 255}, false},
		{"#fff", Color{}, true},
		{"#zzzzzz", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.R != tt.want.R || got.G != tt.want.G || got.B != tt.want.B {
				t.Errorf("rgb = %v, want %v", got, tt.want)
			}
			if math.Abs(got.A-tt.want.A) > 1e-9 {
				t.Errorf("alpha = %v, want %v", got.A, tt.want.A)
			}
		})
	}
}

func TestResolverCustomPalettes(t *testing.T) {
	ocean, err := FromHex("Ocean", []string{"#0ea5e9", "#0284c7"})
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(map[string]Palette{"Ocean": ocean, "empty": {}})

	if !r.Known("ocean") {
		t.Fatal("custom palette not registered")
	}
	if r.Known("empty") {
		t.Error("palette without colors should be ignored")
	}
	got := r.Resolve("OCEAN")
	if got.Name != "ocean" || len(got.Colors) != 2 {
		t.Errorf("unexpected palette %+v", got)
	}
	if !reflect.DeepEqual(r.Resolve("nope"), Resolve(DefaultTheme)) {
		t.Error("custom resolver should still fall back to the default")
	}
}

func TestFromHexErrors(t *testing.T) {
	if _, err := FromHex("x", nil); err == nil {
		t.Error("expected error for empty color list")
	}
	if _, err := FromHex("x", []string{"#123456", "bad"}); err == nil {
		t.Error("expected error for bad color")
	}
}

func TestColorString(t *testing.T) {
	if got := rgba(16, 185, 129).String(); got != "rgba(16, 185, 129, 0.3)" {
		t.Errorf("String() = %q", got)
	}
	if got := rgba(16, 185, 129).Hex(); got != "#10b981" {
		t.Errorf("Hex() = %q", got)
	}
}
