package story

import (
	"errors"
	"fmt"

	"github.com/agnivade/levenshtein"
)

// Validate checks that the start scene and every choice target exist, that all
// effects are well formed and that a terminal scene is reachable from the start.
// Every defect found is reported in the joined error.
func (g *Graph) Validate() error {
	var errs []error

	if g.start == "" {
		errs = append(errs, fmt.Errorf("%w: start scene not set", ErrMalformed))
	} else if _, ok := g.scenes[g.start]; !ok {
		errs = append(errs, g.missing("start", g.start))
	}
	if len(g.scenes) == 0 {
		errs = append(errs, fmt.Errorf("%w: no scenes", ErrMalformed))
	}

	for _, id := range g.IDs() {
		s := g.scenes[id]
		if s.Title == "" {
			errs = append(errs, fmt.Errorf("%w: scene %s has no title", ErrMalformed, id))
		}
		for i, c := range s.Choices {
			where := fmt.Sprintf("%s choice %d", id, i+1)
			if c.Text == "" {
				errs = append(errs, fmt.Errorf("%w: %s has no text", ErrMalformed, where))
			}
			if _, ok := g.scenes[c.Next]; !ok {
				errs = append(errs, g.missing(where, c.Next))
			}
			for _, e := range c.Effects {
				if err := e.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", where, err))
				}
			}
		}
	}

	// Reachability is only meaningful once every edge resolves.
	if len(errs) == 0 && !g.TerminalReachable(g.start) {
		errs = append(errs, fmt.Errorf("%w from %s", ErrNoTerminal, g.start))
	}
	return errors.Join(errs...)
}

func (g *Graph) missing(where, id string) error {
	if s := g.suggest(id); s != "" {
		return fmt.Errorf("%s: %w: %q (did you mean %q?)", where, ErrSceneNotFound, id, s)
	}
	return fmt.Errorf("%s: %w: %q", where, ErrSceneNotFound, id)
}

// suggest returns the closest known scene id, or "" if nothing is close enough.
func (g *Graph) suggest(id string) string {
	best, bestDist := "", -1
	for _, cand := range g.IDs() {
		d := levenshtein.ComputeDistance(id, cand)
		if bestDist < 0 || d < bestDist {
			best, bestDist = cand, d
		}
	}
	limit := len(id) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

// Reachable returns the ids reachable from the given scene (including it),
// in breadth-first order.
func (g *Graph) Reachable(from string) []string {
	if _, ok := g.scenes[from]; !ok {
		return nil
	}
	seen := map[string]bool{from: true}
	queue := []string{from}
	var order []string
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)
		for _, c := range g.scenes[curr].Choices {
			if _, ok := g.scenes[c.Next]; !ok || seen[c.Next] {
				continue
			}
			seen[c.Next] = true
			queue = append(queue, c.Next)
		}
	}
	return order
}

// TerminalReachable reports whether some terminal scene can be reached from the
// given scene by following choices.
func (g *Graph) TerminalReachable(from string) bool {
	for _, id := range g.Reachable(from) {
		if g.scenes[id].Terminal() {
			return true
		}
	}
	return false
}
