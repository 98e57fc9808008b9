// Package console adapts a plain terminal to the engine: paced text output,
// line input and screen clearing.
package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// Typewriter writes text one character at a time. Once Done is closed the
// rest of any text is written at once.
type Typewriter struct {
	W     io.Writer
	Sleep func(time.Duration)
	Done  <-chan struct{}
}

// NewTypewriter returns a Typewriter that sleeps in real time.
func NewTypewriter(w io.Writer) *Typewriter {
	return &Typewriter{W: w, Sleep: time.Sleep}
}

// Print writes text, pausing pace between characters. A non-positive pace
// writes the whole string at once.
func (t *Typewriter) Print(text string, pace time.Duration) error {
	if pace <= 0 || t.Sleep == nil || t.stopped() {
		_, err := io.WriteString(t.W, text)
		return err
	}
	for i, r := range text {
		if t.stopped() {
			_, err := io.WriteString(t.W, text[i:])
			return err
		}
		if _, err := io.WriteString(t.W, string(r)); err != nil {
			return err
		}
		t.Sleep(pace)
	}
	return nil
}

func (t *Typewriter) stopped() bool {
	if t.Done == nil {
		return false
	}
	select {
	case <-t.Done:
		return true
	default:
		return false
	}
}

// LineReader reads newline-terminated lines. Reads happen on a background
// goroutine so a blocked read does not hold up context cancellation. A line
// read after a cancelled ReadLine is kept for the next call.
type LineReader struct {
	r     *bufio.Reader
	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r), lines: make(chan lineResult, 1)}
}

// ReadLine returns the next line without its line ending. A final line with
// no trailing newline is returned as a line; after that io.EOF is returned.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.once.Do(func() { go l.pump() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

func (l *LineReader) pump() {
	defer close(l.lines)
	for {
		line, err := l.r.ReadString('\n')
		if line != "" {
			l.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
		}
		if err != nil {
			if err != io.EOF {
				l.lines <- lineResult{err: err}
			}
			return
		}
	}
}

// ANSIScreen clears the terminal with ANSI control sequences.
type ANSIScreen struct {
	W       io.Writer
	Enabled bool
}

// Clear erases the screen and homes the cursor. Disabled screens do nothing.
func (s *ANSIScreen) Clear() error {
	if !s.Enabled {
		return nil
	}
	_, err := io.WriteString(s.W, ansi.EraseEntireScreen+ansi.CursorHomePosition)
	return err
}
