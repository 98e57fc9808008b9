package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jask/echoes/internal/player"
	"github.com/jask/echoes/internal/story"
)

type scriptInput struct {
	lines []string
	reads int
}

func (s *scriptInput) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	s.reads++
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type bufOutput struct {
	strings.Builder
	paces []time.Duration
}

func (b *bufOutput) Print(text string, pace time.Duration) error {
	b.paces = append(b.paces, pace)
	_, err := b.WriteString(text)
	return err
}

type countScreen struct{ clears int }

func (c *countScreen) Clear() error {
	c.clears++
	return nil
}

func newSession(t *testing.T, lines ...string) (*Session, *bufOutput) {
	t.Helper()
	g, err := story.Default()
	require.NoError(t, err)
	out := &bufOutput{}
	return &Session{
		Graph: g,
		State: player.New(""),
		Out:   out,
		In:    &scriptInput{lines: lines},
	}, out
}

func TestParseChoice(t *testing.T) {
	t.Parallel()

	for k := 1; k <= 3; k++ {
		for n := 1; n <= k; n++ {
			idx, ok := ParseChoice(strings.Repeat(" ", n)+string(rune('0'+n))+"\n", k)
			require.True(t, ok)
			require.Equal(t, n-1, idx)
		}
		for _, bad := range []string{"0", string(rune('0' + k + 1)), "abc", "", "-1", "1.0", "1 2"} {
			_, ok := ParseChoice(bad, k)
			require.False(t, ok, "input %q with %d choices", bad, k)
		}
	}
}

func TestIsQuitCommand(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"q", "Q", " quit ", "EXIT"} {
		require.True(t, IsQuitCommand(in), in)
	}
	for _, in := range []string{"", "1", "quitting", "x"} {
		require.False(t, IsQuitCommand(in), in)
	}
}

func TestRenderAndAdvanceCollectsSupplies(t *testing.T) {
	t.Parallel()

	s, out := newSession(t, "1")
	next, err := s.RenderAndAdvance(context.Background(), "SEARCH_CRATES")
	require.NoError(t, err)
	require.Equal(t, "RESTORE_POWER", next)
	require.Equal(t, []string{"Medkit", "Handheld Scanner"}, s.State.Inventory)
	require.True(t, s.State.HasVisited("SEARCH_CRATES"))
	require.Equal(t, 1, s.State.Turns)

	text := out.String()
	require.Contains(t, text, "=== Searching Crates ===\n")
	require.Contains(t, text, "[1] ")
	require.Contains(t, text, "\nYour choice: ")
}

func TestRenderAndAdvanceRetriesInvalidInput(t *testing.T) {
	t.Parallel()

	s, out := newSession(t, "0", "abc", "3", "2")
	next, err := s.RenderAndAdvance(context.Background(), "BAY_INTRO")
	require.NoError(t, err)
	require.Equal(t, "SEARCH_CRATES", next)
	require.Equal(t, 4, strings.Count(out.String(), "Your choice: "))
	require.Equal(t, 1, s.State.Turns)
}

func TestShutdownBypassBranches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input     string
		next      string
		destroyed bool
		amplified bool
	}{
		{"1", "ENDING_SEVER", true, false},
		{"2", "ENDING_AMPLIFY", false, true},
	}
	for _, tc := range cases {
		s, _ := newSession(t, tc.input)
		s.State.Inventory = []string{"ElanLogs"}
		s.State.Morality = 2
		before := s.State.Clone()

		next, err := s.RenderAndAdvance(context.Background(), "SHUTDOWN_BYPASS")
		require.NoError(t, err)
		require.Equal(t, tc.next, next)
		require.Equal(t, tc.destroyed, s.State.StationDestroyed)
		require.Equal(t, tc.amplified, s.State.SignalAmplified)

		require.Equal(t, before.Inventory, s.State.Inventory)
		require.Equal(t, before.Morality, s.State.Morality)
		require.Equal(t, before.Name, s.State.Name)
		require.Equal(t, before.Turns+1, s.State.Turns)
	}
}

func TestRevisitReappliesEffects(t *testing.T) {
	t.Parallel()

	s, _ := newSession(t, "1", "1", "1")
	ctx := context.Background()

	id := "CREW_QUARTERS_1"
	var seen []int
	for _, want := range []string{"DORM_ROOM_1", "CREW_QUARTERS_1", "DORM_ROOM_1"} {
		next, err := s.RenderAndAdvance(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, next)
		seen = append(seen, len(s.State.Visited()))
		id = next
	}
	// DORM_ROOM_1 -> CREW_QUARTERS_1 again
	s.In = &scriptInput{lines: []string{"1"}}
	next, err := s.RenderAndAdvance(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "CREW_QUARTERS_1", next)

	require.Equal(t, []string{"CREW_QUARTERS_1", "DORM_ROOM_1"}, s.State.Visited())
	require.Equal(t, []int{1, 2, 2}, seen)
	require.Equal(t, []string{"Crew Photo", "Crew Photo"}, s.State.Inventory)
	require.Equal(t, 2, s.State.Morality)
}

func TestRenderAndAdvanceInputClosed(t *testing.T) {
	t.Parallel()

	s, _ := newSession(t)
	next, err := s.RenderAndAdvance(context.Background(), "INTRO")
	require.ErrorIs(t, err, ErrInputClosed)
	require.Equal(t, Terminal, next)
	require.True(t, s.State.Exited)
	require.Zero(t, s.State.Turns)
}

func TestRenderAndAdvanceCancelled(t *testing.T) {
	t.Parallel()

	s, out := newSession(t, "1")
	screen := &countScreen{}
	s.Screen = screen
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.RenderAndAdvance(ctx, "INTRO")
	require.ErrorIs(t, err, ErrInputClosed)
	require.True(t, s.State.Exited)
	require.Empty(t, out.String())
	require.Zero(t, screen.clears)
	require.False(t, s.State.HasVisited("INTRO"))
}

func TestRunCancelledRendersOnlyClosing(t *testing.T) {
	t.Parallel()

	s, out := newSession(t, "1")
	s.Pacing = DefaultPacing
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx)
	require.NoError(t, err)
	require.False(t, res.Completed)
	require.True(t, res.State.Exited)
	require.Empty(t, res.State.Visited())
	require.Equal(t, "\nGame session terminated. Goodbye.\n\n", out.String())
	for _, p := range out.paces {
		require.Zero(t, p)
	}
	require.Zero(t, s.In.(*scriptInput).reads)
}

func TestSelectLogsEffects(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	s, _ := newSession(t)
	s.Log = zap.New(core)

	scene, err := s.Enter("SEARCH_CRATES")
	require.NoError(t, err)
	_, err = s.Select(scene, 0)
	require.NoError(t, err)

	taken := logs.FilterMessage("choice taken").All()
	require.Len(t, taken, 1)
	require.Equal(t,
		[]interface{}{"append_item(Medkit)", "append_item(Handheld Scanner)"},
		taken[0].ContextMap()["effects"])
}

func TestRenderAndAdvanceUnknownScene(t *testing.T) {
	t.Parallel()

	s, out := newSession(t)
	next, err := s.RenderAndAdvance(context.Background(), "VOID")
	require.ErrorIs(t, err, story.ErrSceneNotFound)
	require.Equal(t, Terminal, next)
	require.Equal(t, "ERROR: Scene not found. Exiting game.\n", out.String())
	require.False(t, s.State.HasVisited("VOID"))
}

func TestRenderAndAdvanceTerminalScene(t *testing.T) {
	t.Parallel()

	s, out := newSession(t, "1")
	screen := &countScreen{}
	s.Screen = screen
	next, err := s.RenderAndAdvance(context.Background(), "GAME_DONE")
	require.NoError(t, err)
	require.Equal(t, Terminal, next)
	require.Equal(t, 1, screen.clears)
	require.NotContains(t, out.String(), "Your choice")
	require.Zero(t, s.In.(*scriptInput).reads)
}

func TestRenderAndAdvancePacing(t *testing.T) {
	t.Parallel()

	s, out := newSession(t)
	s.Pacing = DefaultPacing
	_, err := s.RenderAndAdvance(context.Background(), "GAME_DONE")
	require.NoError(t, err)
	// title, newline, description, newline
	require.Equal(t, []time.Duration{10 * time.Millisecond, 0, 20 * time.Millisecond, 0}, out.paces)
}

func TestRunToSeverEnding(t *testing.T) {
	t.Parallel()

	s, out := newSession(t, "1", "2", "1", "1", "1", "1", "1", "1", "1", "1")
	s.State.Name = "Sam"

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Equal(t, "GAME_DONE", res.LastScene)
	require.Equal(t, story.EndingSever, res.State.Ending())
	require.False(t, res.State.Exited)
	require.Equal(t, 10, res.State.Turns)
	require.Equal(t, []string{"Medkit", "Handheld Scanner"}, res.State.Inventory)
	require.True(t, res.State.HasVisited("GAME_DONE"))
	require.True(t, strings.HasSuffix(out.String(), "\nGame session terminated. Goodbye.\n\n"))

	// the outcome holds a snapshot
	s.State.Morality = 99
	require.Zero(t, res.State.Morality)
}

func TestRunQuit(t *testing.T) {
	t.Parallel()

	s, out := newSession(t, "1", "quit")
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Completed)
	require.Equal(t, "BAY_INTRO", res.LastScene)
	require.True(t, res.State.Exited)
	require.Contains(t, out.String(), "Game session terminated. Goodbye.")
}

func TestRunStopsOnUnknownScene(t *testing.T) {
	t.Parallel()

	g := story.New("broken", "A",
		story.Scene{ID: "A", Title: "A", Choices: []story.Choice{{Text: "go", Next: "MISSING"}}},
	)
	out := &bufOutput{}
	s := &Session{Graph: g, State: player.New(""), Out: out, In: &scriptInput{lines: []string{"1"}}}

	res, err := s.Run(context.Background())
	require.ErrorIs(t, err, story.ErrSceneNotFound)
	require.False(t, res.Completed)
	require.Equal(t, "MISSING", res.LastScene)
	require.Contains(t, out.String(), "ERROR: Scene not found. Exiting game.")
	require.Contains(t, out.String(), "Game session terminated. Goodbye.")
}

func TestSelectOutOfRange(t *testing.T) {
	t.Parallel()

	s, _ := newSession(t)
	scene, err := s.Enter("INTRO")
	require.NoError(t, err)
	_, err = s.Select(scene, 1)
	require.ErrorIs(t, err, ErrChoiceOutOfRange)
	_, err = s.Select(scene, -1)
	require.True(t, errors.Is(err, ErrChoiceOutOfRange))
	require.Zero(t, s.State.Turns)
}
