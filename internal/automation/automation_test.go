package automation

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const scenarioYAML = `name: tour
description: every palette once
steps:
  - frame: 60
    theme: carbon
  - frame: 0
    theme: amber
  - frame: 30
    width: 640
    height: 360
  - frame: 90
    reduced_motion: true
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Name != "tour" || len(s.Steps) != 4 {
		t.Fatalf("got %+v", s)
	}
	if s.Steps[3].ReducedMotion == nil || !*s.Steps[3].ReducedMotion {
		t.Error("reduced_motion not parsed")
	}
}

func TestLoadScenarioInvalid(t *testing.T) {
	tests := map[string]string{
		"negative frame": "steps:\n  - frame: -1\n    theme: amber\n",
		"half a size":    "steps:\n  - frame: 1\n    width: 100\n",
		"empty step":     "steps:\n  - frame: 3\n",
		"bad yaml":       "steps: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadScenario(writeScenario(t, body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestPlayerAdvance(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	var log []string
	p := NewPlayer(s, Hooks{
		SetTheme: func(theme string) { log = append(log, "theme "+theme) },
		Resize:   func(w, h int) { log = append(log, "resize") },
		SetReducedMotion: func(on bool) {
			if on {
				log = append(log, "motion on")
			}
		},
	})

	if n := p.Advance(0); n != 1 {
		t.Errorf("Advance(0) applied %d steps, want 1", n)
	}
	if n := p.Advance(10); n != 0 {
		t.Errorf("Advance(10) applied %d steps, want 0", n)
	}
	p.Advance(75)
	if p.Done() {
		t.Error("done before the last step")
	}
	p.Advance(1000)
	if !p.Done() {
		t.Error("not done after the last frame")
	}

	want := []string{"theme amber", "resize", "theme carbon", "motion on"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("applied %v, want %v", log, want)
	}
}

func TestPlayerNilScenarioAndHooks(t *testing.T) {
	p := NewPlayer(nil, Hooks{})
	if !p.Done() || p.Advance(5) != 0 {
		t.Error("nil scenario should be done immediately")
	}

	s := &Scenario{Steps: []Step{{Frame: 5, Theme: "carbon"}, {Frame: 0, Theme: "amber", Width: 10, Height: 10}}}
	p = NewPlayer(s, Hooks{})
	if p.Advance(0) != 1 {
		t.Error("step with nil hooks should still count")
	}
	if s.Steps[0].Frame != 5 {
		t.Error("NewPlayer reordered the scenario's steps")
	}
}
