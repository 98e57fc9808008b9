package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PlaythroughRepo handles play history.
type PlaythroughRepo struct {
	db *sql.DB
}

func NewPlaythroughRepo(db *sql.DB) *PlaythroughRepo { return &PlaythroughRepo{db: db} }

func (r *PlaythroughRepo) Record(ctx context.Context, p Playthrough) error {
	inv, err := json.Marshal(nonNil(p.Inventory))
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	visited, err := json.Marshal(nonNil(p.Visited))
	if err != nil {
		return fmt.Errorf("encode visited: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO playthroughs(id, player_name, ending, completed, exited, morality, turns, last_scene, inventory, visited, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, p.ID, p.PlayerName, p.Ending, p.Completed, p.Exited, p.Morality, p.Turns, p.LastScene,
		string(inv), string(visited), p.StartedAt, p.FinishedAt)
	return err
}

// Recent returns the most recently finished sessions, newest first.
func (r *PlaythroughRepo) Recent(ctx context.Context, limit int) ([]Playthrough, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, player_name, ending, completed, exited, morality, turns, last_scene, inventory, visited, started_at, finished_at
	FROM playthroughs
	ORDER BY finished_at DESC, rowid DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Playthrough
	for rows.Next() {
		var p Playthrough
		var inv, visited string
		if err := rows.Scan(&p.ID, &p.PlayerName, &p.Ending, &p.Completed, &p.Exited, &p.Morality, &p.Turns,
			&p.LastScene, &inv, &visited, &p.StartedAt, &p.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(inv), &p.Inventory); err != nil {
			return nil, fmt.Errorf("decode inventory of %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(visited), &p.Visited); err != nil {
			return nil, fmt.Errorf("decode visited of %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// EndingCounts returns how many completed sessions reached each ending.
func (r *PlaythroughRepo) EndingCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT ending, COUNT(*) FROM playthroughs
	WHERE completed = 1
	GROUP BY ending`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var ending string
		var n int
		if err := rows.Scan(&ending, &n); err != nil {
			return nil, err
		}
		out[ending] = n
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
