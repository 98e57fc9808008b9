package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/echoes/internal/engine"
	"github.com/jask/echoes/internal/story"
)

// App is the full-screen front end. It drives an engine.Session through its
// step API: Enter on every scene change, Select on every choice.
type App struct {
	session     *engine.Session
	defaultName string
	pace        time.Duration

	state    appState
	name     textinput.Model
	scene    story.Scene
	body     []rune
	revealed int
	seq      int // bumps on every scene change so stale ticks are dropped
	cursor   int
	input    string
	width    int
	err      error
	outcome  engine.Outcome
}

type appState string

const (
	viewName  appState = "name"
	viewScene appState = "scene"
	viewEnd   appState = "end"
)

type typeTickMsg struct{ seq int }

// New returns an App for the session. pace is the per-character reveal delay;
// zero shows each scene at once.
func New(session *engine.Session, defaultName string, pace time.Duration) *App {
	in := textinput.New()
	in.Placeholder = defaultName
	in.CharLimit = 64
	in.Focus()
	return &App{
		session:     session,
		defaultName: defaultName,
		pace:        pace,
		state:       viewName,
		name:        in,
	}
}

// Outcome reports how the session ended. It is meaningful once the program has exited.
func (a *App) Outcome() engine.Outcome { return a.outcome }

// Err returns the error that ended the session, if any.
func (a *App) Err() error { return a.err }

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		return a, nil
	case typeTickMsg:
		if m.seq != a.seq || a.revealed >= len(a.body) {
			return a, nil
		}
		a.revealed++
		if a.revealed < len(a.body) {
			return a, a.tick()
		}
		return a, nil
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, a.leave()
		}
		switch a.state {
		case viewName:
			return a.handleNameKey(m)
		case viewScene:
			return a.handleSceneKey(m)
		case viewEnd:
			return a, tea.Quit
		}
	}
	return a, nil
}

func (a *App) handleNameKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.String() == "enter" {
		if name := strings.TrimSpace(a.name.Value()); name != "" {
			a.session.State.Name = name
		} else {
			a.session.State.Name = a.defaultName
		}
		a.name.Blur()
		return a, a.enter(a.session.Graph.Start())
	}
	var cmd tea.Cmd
	a.name, cmd = a.name.Update(m)
	return a, cmd
}

func (a *App) handleSceneKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.revealed < len(a.body) {
		a.revealed = len(a.body)
		return a, nil
	}
	if a.scene.Terminal() {
		a.finish(true)
		return a, nil
	}

	count := len(a.scene.Choices)
	key := m.String()
	switch {
	case engine.IsQuitCommand(key):
		return a, a.leave()
	case key == "up" || key == "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case key == "down" || key == "j":
		if a.cursor < count-1 {
			a.cursor++
		}
	case key == "backspace":
		if a.input != "" {
			a.input = a.input[:len(a.input)-1]
		}
	case key == "enter":
		raw := a.input
		a.input = ""
		if raw == "" {
			return a, a.choose(a.cursor)
		}
		if idx, ok := engine.ParseChoice(raw, count); ok {
			return a, a.choose(idx)
		}
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		a.input += key
		// a single digit is unambiguous when there are fewer than ten choices
		if count < 10 {
			raw := a.input
			a.input = ""
			if idx, ok := engine.ParseChoice(raw, count); ok {
				return a, a.choose(idx)
			}
		}
	}
	return a, nil
}

func (a *App) choose(idx int) tea.Cmd {
	next, err := a.session.Select(a.scene, idx)
	if err != nil {
		a.err = err
		a.finish(false)
		return nil
	}
	return a.enter(next)
}

func (a *App) enter(id string) tea.Cmd {
	scene, err := a.session.Enter(id)
	if err != nil {
		a.err = err
		a.outcome.LastScene = id
		a.finish(false)
		return nil
	}
	a.state = viewScene
	a.scene = scene
	a.body = []rune(scene.Description)
	a.cursor = 0
	a.input = ""
	a.seq++
	a.outcome.LastScene = id
	if a.pace <= 0 {
		a.revealed = len(a.body)
		return nil
	}
	a.revealed = 0
	return a.tick()
}

func (a *App) tick() tea.Cmd {
	seq := a.seq
	return tea.Tick(a.pace, func(time.Time) tea.Msg { return typeTickMsg{seq: seq} })
}

// leave ends the session early.
func (a *App) leave() tea.Cmd {
	if a.state != viewEnd {
		a.session.State.Exited = true
		a.finish(false)
	}
	return tea.Quit
}

func (a *App) finish(completed bool) {
	a.state = viewEnd
	a.outcome.Completed = completed
	a.outcome.State = a.session.State.Clone()
}
