package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jask/echoes/internal/database/repository"
	"github.com/jask/echoes/internal/engine"
	"github.com/jask/echoes/internal/story"
)

// PromptName greets the player and asks for a name. Empty input, or input that
// ends before a line is read, keeps def.
func PromptName(ctx context.Context, out engine.Output, in engine.Input, title, def string, pace time.Duration) (string, error) {
	if err := out.Print(fmt.Sprintf("Welcome to the extended version of '%s'!\n\n", title), pace); err != nil {
		return def, err
	}
	if err := out.Print(fmt.Sprintf("Enter your name (or leave as %s): ", def), 0); err != nil {
		return def, err
	}
	line, err := in.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return def, nil
		}
		return def, err
	}
	if name := strings.TrimSpace(line); name != "" {
		return name, nil
	}
	return def, nil
}

// Farewell renders the last line printed before the process exits.
func Farewell(out engine.Output, pace time.Duration) error {
	return out.Print("Thank you for playing. Exiting now...\n", pace)
}

// EndingTally renders how often each ending has been reached across sessions.
// Nothing is written when counts is empty.
func EndingTally(out engine.Output, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Endings reached so far:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-10s %d\n", endingLabel(name), counts[name])
	}
	return out.Print(b.String(), 0)
}

// RecentSessions renders a short list of earlier sessions, newest first.
// Nothing is written when rows is empty.
func RecentSessions(out engine.Output, rows []repository.Playthrough) error {
	if len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("Recent sessions:\n")
	for _, p := range rows {
		fmt.Fprintf(&b, "  %s  %-10s %-16s %d choices\n",
			p.FinishedAt.Local().Format("2006-01-02 15:04"), endingLabel(p.Ending), p.PlayerName, p.Turns)
	}
	return out.Print(b.String(), 0)
}

func endingLabel(name string) string {
	switch story.Ending(name) {
	case story.EndingSever:
		return "Severed"
	case story.EndingAmplify:
		return "Amplified"
	case story.EndingNone:
		return "Unfinished"
	default:
		return name
	}
}
