package repository

import "time"

// Playthrough represents a finished session row.
type Playthrough struct {
	ID         string
	PlayerName string
	Ending     string // "", "sever" or "amplify"
	Completed  bool   // reached a terminal scene
	Exited     bool   // left before reaching one
	Morality   int
	Turns      int
	LastScene  string
	Inventory  []string
	Visited    []string
	StartedAt  time.Time
	FinishedAt time.Time
}
