// Package engine drives a play session across a story graph: it renders the
// current scene, collects a validated choice, applies the choice's effects and
// moves to the next scene until a terminal scene is reached.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jask/echoes/internal/player"
	"github.com/jask/echoes/internal/story"
)

// Terminal is returned in place of a scene id once the session has ended.
const Terminal = ""

const (
	sceneMissingText = "ERROR: Scene not found. Exiting game."
	choicePrompt     = "\nYour choice: "
	closingText      = "\nGame session terminated. Goodbye.\n"
)

var (
	// ErrInputClosed is returned when the input source is exhausted or the
	// context is cancelled while waiting for a choice.
	ErrInputClosed = errors.New("engine: input closed")
	// ErrQuit is returned when the player asks to leave at the choice prompt.
	ErrQuit = errors.New("engine: player quit")
	// ErrChoiceOutOfRange is returned by Select for an index outside the scene's choices.
	ErrChoiceOutOfRange = errors.New("engine: choice out of range")
)

// Output receives rendered text. pace is the delay to leave between
// characters; zero means write at once. Text is written exactly as given.
type Output interface {
	Print(text string, pace time.Duration) error
}

// Input yields one line at a time. It returns io.EOF once no more input is available.
type Input interface {
	ReadLine(ctx context.Context) (string, error)
}

// Screen clears visible history between scenes.
type Screen interface {
	Clear() error
}

// Pacing holds per-character delays for each kind of text.
type Pacing struct {
	Title  time.Duration
	Body   time.Duration
	Choice time.Duration
}

// DefaultPacing is the classic console typewriter speed.
var DefaultPacing = Pacing{
	Title:  10 * time.Millisecond,
	Body:   20 * time.Millisecond,
	Choice: 10 * time.Millisecond,
}

// Session is one run from the start scene to a terminal scene or early exit.
// Screen and Log are optional.
type Session struct {
	Graph  *story.Graph
	State  *player.State
	Out    Output
	In     Input
	Screen Screen
	Pacing Pacing
	Log    *zap.Logger
}

// Outcome summarises a finished session.
type Outcome struct {
	LastScene string
	Completed bool // a terminal scene was reached
	State     *player.State
}

// Enter looks up a scene and marks it visited.
func (s *Session) Enter(id string) (story.Scene, error) {
	scene, err := s.Graph.Lookup(id)
	if err != nil {
		return story.Scene{}, err
	}
	s.State.MarkVisited(id)
	s.logger().Debug("enter scene", zap.String("scene", id), zap.Int("choices", len(scene.Choices)))
	return scene, nil
}

// Select applies the effects of the choice at the zero-based index and returns
// the id of the scene it leads to.
func (s *Session) Select(scene story.Scene, index int) (string, error) {
	if index < 0 || index >= len(scene.Choices) {
		return Terminal, fmt.Errorf("%w: %d of %d in %s", ErrChoiceOutOfRange, index+1, len(scene.Choices), scene.ID)
	}
	c := scene.Choices[index]
	s.State.ApplyAll(c.Effects)
	s.State.Turns++
	s.logger().Debug("choice taken",
		zap.String("scene", scene.ID),
		zap.Int("choice", index+1),
		zap.String("next", c.Next),
		zap.Stringers("effects", c.Effects),
	)
	return c.Next, nil
}

// RenderAndAdvance renders one scene and, unless it is terminal, blocks until
// the player picks a valid choice. It returns the next scene id, or Terminal
// when the scene has no choices. An unknown scene id is reported on the output
// and returned as an error wrapping story.ErrSceneNotFound.
// A cancelled context ends the session before anything is rendered.
func (s *Session) RenderAndAdvance(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		s.State.Exited = true
		return Terminal, fmt.Errorf("%w: %v", ErrInputClosed, err)
	}
	if s.Screen != nil {
		if err := s.Screen.Clear(); err != nil {
			s.logger().Warn("clear screen", zap.Error(err))
		}
	}

	scene, err := s.Enter(id)
	if err != nil {
		if perr := s.line(sceneMissingText, s.Pacing.Body); perr != nil {
			return Terminal, errors.Join(err, perr)
		}
		return Terminal, err
	}

	if err := s.line(fmt.Sprintf("=== %s ===\n", scene.Title), s.Pacing.Title); err != nil {
		return Terminal, err
	}
	if err := s.line(scene.Description, s.Pacing.Body); err != nil {
		return Terminal, err
	}
	if scene.Terminal() {
		return Terminal, nil
	}

	for i, c := range scene.Choices {
		if err := s.line(fmt.Sprintf("[%d] %s", i+1, c.Text), s.Pacing.Choice); err != nil {
			return Terminal, err
		}
	}

	index, err := s.readChoice(ctx, len(scene.Choices))
	if err != nil {
		if errors.Is(err, ErrInputClosed) || errors.Is(err, ErrQuit) {
			s.State.Exited = true
		}
		return Terminal, err
	}
	return s.Select(scene, index)
}

// Run plays from the graph's start scene until a terminal scene is reached,
// then renders the closing message. Closed input and quitting end the session
// without an error; an unknown scene ends it with one.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	id := s.Graph.Start()
	log := s.logger()
	log.Info("session started", zap.String("player", s.State.Name), zap.String("scene", id))

	var runErr error
	out := Outcome{LastScene: id}
	for {
		next, err := s.RenderAndAdvance(ctx, id)
		if err != nil {
			if errors.Is(err, ErrInputClosed) || errors.Is(err, ErrQuit) {
				log.Info("session left early", zap.String("scene", id), zap.Error(err))
			} else {
				log.Error("session aborted", zap.String("scene", id), zap.Error(err))
				runErr = err
			}
			break
		}
		if next == Terminal {
			out.Completed = true
			break
		}
		id = next
		out.LastScene = id
	}

	pace := s.Pacing.Body
	if ctx.Err() != nil {
		pace = 0
	}
	if err := s.line(closingText, pace); err != nil && runErr == nil {
		runErr = err
	}
	out.State = s.State.Clone()
	log.Info("session finished",
		zap.Bool("completed", out.Completed),
		zap.Bool("exited", s.State.Exited),
		zap.String("ending", string(s.State.Ending())),
		zap.Int("turns", s.State.Turns),
	)
	return out, runErr
}

func (s *Session) readChoice(ctx context.Context, count int) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInputClosed, err)
		}
		if err := s.Out.Print(choicePrompt, 0); err != nil {
			return 0, err
		}
		raw, err := s.In.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return 0, fmt.Errorf("%w: %v", ErrInputClosed, err)
			}
			return 0, fmt.Errorf("read choice: %w", err)
		}
		if IsQuitCommand(raw) {
			return 0, ErrQuit
		}
		if index, ok := ParseChoice(raw, count); ok {
			return index, nil
		}
		s.logger().Debug("choice rejected", zap.String("input", raw), zap.Int("choices", count))
	}
}

// line writes text followed by a newline.
func (s *Session) line(text string, pace time.Duration) error {
	if err := s.Out.Print(text, pace); err != nil {
		return err
	}
	return s.Out.Print("\n", 0)
}

func (s *Session) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
