// Package automation scripts viewport, theme and reduced-motion changes
// at given frames of a headless run.
package automation

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of host changes.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step applies its set fields once the run reaches Frame, counted in
// loop ticks from the start of the run.
type Step struct {
	Frame         int    `yaml:"frame"`
	Theme         string `yaml:"theme,omitempty"`
	Width         int    `yaml:"width,omitempty"`
	Height        int    `yaml:"height,omitempty"`
	ReducedMotion *bool  `yaml:"reduced_motion,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	for i, st := range s.Steps {
		switch {
		case st.Frame < 0:
			return fmt.Errorf("step %d: negative frame %d", i+1, st.Frame)
		case (st.Width == 0) != (st.Height == 0):
			return fmt.Errorf("step %d: width and height must be set together", i+1)
		case st.Width < 0 || st.Height < 0:
			return fmt.Errorf("step %d: negative size %dx%d", i+1, st.Width, st.Height)
		case st.Theme == "" && st.Width == 0 && st.ReducedMotion == nil:
			return fmt.Errorf("step %d: nothing to change", i+1)
		}
	}
	return nil
}

// Hooks are the host operations a step can trigger. Nil hooks are
// skipped.
type Hooks struct {
	SetTheme         func(theme string)
	Resize           func(w, h int)
	SetReducedMotion func(on bool)
}

// Player walks a scenario's steps in frame order.
type Player struct {
	steps []Step
	next  int
	hooks Hooks
}

func NewPlayer(s *Scenario, hooks Hooks) *Player {
	var steps []Step
	if s != nil {
		steps = append(steps, s.Steps...)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Frame < steps[j].Frame })
	return &Player{steps: steps, hooks: hooks}
}

// Advance applies every step due at or before frame and returns how many
// were applied.
func (p *Player) Advance(frame int) int {
	n := 0
	for p.next < len(p.steps) && p.steps[p.next].Frame <= frame {
		p.apply(p.steps[p.next])
		p.next++
		n++
	}
	return n
}

// Done reports whether every step has been applied.
func (p *Player) Done() bool { return p.next >= len(p.steps) }

func (p *Player) apply(st Step) {
	if st.Width > 0 && p.hooks.Resize != nil {
		p.hooks.Resize(st.Width, st.Height)
	}
	if st.Theme != "" && p.hooks.SetTheme != nil {
		p.hooks.SetTheme(st.Theme)
	}
	if st.ReducedMotion != nil && p.hooks.SetReducedMotion != nil {
		p.hooks.SetReducedMotion(*st.ReducedMotion)
	}
}
