// Package player tracks the mutable state of one play session.
package player

import (
	"sort"

	"github.com/jask/echoes/internal/story"
)

// DefaultName is used when the player leaves the name prompt empty.
const DefaultName = "Dr. Alex Riven"

// State is the record mutated by choice effects and by the engine.
// A State belongs to exactly one session.
type State struct {
	Name             string
	Morality         int
	Inventory        []string
	SignalAmplified  bool
	StationDestroyed bool
	Turns            int  // choices taken so far
	Exited           bool // session ended before reaching a terminal scene

	visited map[string]struct{}
}

// New returns a fresh state. An empty name falls back to DefaultName.
func New(name string) *State {
	if name == "" {
		name = DefaultName
	}
	return &State{Name: name, visited: make(map[string]struct{})}
}

// Apply performs a single effect. Effects are expected to be validated by the
// graph loader; an unknown kind is ignored.
func (s *State) Apply(e story.Effect) {
	switch e.Kind {
	case story.EffectAppendItem:
		s.Inventory = append(s.Inventory, e.Item)
	case story.EffectAdjustMorality:
		s.Morality += e.Delta
	case story.EffectSetEnding:
		s.StationDestroyed = e.Ending == story.EndingSever
		s.SignalAmplified = e.Ending == story.EndingAmplify
	}
}

// ApplyAll performs effects in order.
func (s *State) ApplyAll(effects []story.Effect) {
	for _, e := range effects {
		s.Apply(e)
	}
}

// MarkVisited adds a scene to the visited set. Repeat visits are no-ops.
func (s *State) MarkVisited(id string) {
	if s.visited == nil {
		s.visited = make(map[string]struct{})
	}
	s.visited[id] = struct{}{}
}

// HasVisited reports whether the scene has been rendered this session.
func (s *State) HasVisited(id string) bool {
	_, ok := s.visited[id]
	return ok
}

// Visited returns the visited scene ids, sorted.
func (s *State) Visited() []string {
	out := make([]string, 0, len(s.visited))
	for id := range s.visited {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Ending returns the outcome chosen at the bypass junction, if any.
func (s *State) Ending() story.Ending {
	switch {
	case s.StationDestroyed:
		return story.EndingSever
	case s.SignalAmplified:
		return story.EndingAmplify
	default:
		return story.EndingNone
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.Inventory = append([]string(nil), s.Inventory...)
	c.visited = make(map[string]struct{}, len(s.visited))
	for id := range s.visited {
		c.visited[id] = struct{}{}
	}
	return &c
}
