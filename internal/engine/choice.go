package engine

import (
	"strconv"
	"strings"
)

// ParseChoice interprets a line typed at the choice prompt. It accepts a
// base-10 integer in [1, count] and returns the zero-based index.
func ParseChoice(input string, count int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}

// IsQuitCommand reports whether the input asks to leave the game.
func IsQuitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}
