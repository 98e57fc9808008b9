// Package story holds the scene graph: an immutable table of scenes keyed by id,
// each with narrative text and an ordered list of choices.
//
// Graphs are authored as TOML documents (see echoes.toml for the bundled story)
// and validated once when loaded. After that they are only read.
package story

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed echoes.toml
var bundled string

var (
	// ErrSceneNotFound is returned when a scene id is not part of the graph.
	ErrSceneNotFound = errors.New("story: scene not found")
	// ErrInvalidEffect is returned for malformed choice effects.
	ErrInvalidEffect = errors.New("story: invalid effect")
	// ErrNoTerminal is returned when no ending can be reached from the start scene.
	ErrNoTerminal = errors.New("story: no terminal scene reachable")
	// ErrMalformed is returned for structural problems in a story document.
	ErrMalformed = errors.New("story: malformed document")
)

// Scene is a node in the graph. A scene without choices is terminal.
type Scene struct {
	ID          string   `toml:"-"`
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Choices     []Choice `toml:"choices"`
}

// Terminal reports whether reaching this scene ends the session.
func (s Scene) Terminal() bool { return len(s.Choices) == 0 }

// Choice is a labelled edge to another scene with the effects applied when taken.
type Choice struct {
	Text    string   `toml:"text"`
	Next    string   `toml:"next"`
	Effects []Effect `toml:"effects"`
}

// Graph maps scene ids to scenes.
type Graph struct {
	title  string
	start  string
	scenes map[string]Scene
}

type document struct {
	Title  string           `toml:"title"`
	Start  string           `toml:"start"`
	Scenes map[string]Scene `toml:"scenes"`
}

// New builds a graph from scenes without validating it.
// Load and Default validate; New is for callers that assemble graphs in code.
func New(title, start string, scenes ...Scene) *Graph {
	g := &Graph{title: title, start: start, scenes: make(map[string]Scene, len(scenes))}
	for _, s := range scenes {
		g.scenes[s.ID] = s
	}
	return g
}

// Load decodes a TOML story document and validates the resulting graph.
func Load(r io.Reader) (*Graph, error) {
	var doc document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrMalformed, strings.Join(keys, ", "))
	}

	g := &Graph{title: doc.Title, start: doc.Start, scenes: make(map[string]Scene, len(doc.Scenes))}
	for id, s := range doc.Scenes {
		s.ID = id
		g.scenes[id] = s
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadFile reads and validates a story document from disk.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open story: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the bundled "Echoes of the Signal" story.
func Default() (*Graph, error) {
	return Load(strings.NewReader(bundled))
}

// Title returns the story title.
func (g *Graph) Title() string { return g.title }

// Start returns the entry scene id.
func (g *Graph) Start() string { return g.start }

// Len returns the number of scenes.
func (g *Graph) Len() int { return len(g.scenes) }

// Lookup returns the scene with the given id.
func (g *Graph) Lookup(id string) (Scene, error) {
	s, ok := g.scenes[id]
	if !ok {
		return Scene{}, fmt.Errorf("%w: %q", ErrSceneNotFound, id)
	}
	return s, nil
}

// IDs returns all scene ids in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.scenes))
	for id := range g.scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Terminals returns the ids of scenes without choices, sorted.
func (g *Graph) Terminals() []string {
	var out []string
	for _, id := range g.IDs() {
		if g.scenes[id].Terminal() {
			out = append(out, id)
		}
	}
	return out
}
