package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jask/echoes/internal/database"
	"github.com/jask/echoes/internal/database/repository"
	"github.com/jask/echoes/internal/engine"
)

// HistoryService records finished sessions and summarises past endings.
// A nil *HistoryService is valid and records nothing, so callers need not
// special-case a disabled or unavailable history database.
type HistoryService struct {
	Playthroughs *repository.PlaythroughRepo
	Now          func() time.Time
}

// Record stores the outcome of one session.
func (h *HistoryService) Record(ctx context.Context, startedAt time.Time, out engine.Outcome) error {
	if h == nil || h.Playthroughs == nil || out.State == nil {
		return nil
	}
	st := out.State
	return h.Playthroughs.Record(ctx, repository.Playthrough{
		ID:         uuid.NewString(),
		PlayerName: st.Name,
		Ending:     string(st.Ending()),
		Completed:  out.Completed,
		Exited:     st.Exited,
		Morality:   st.Morality,
		Turns:      st.Turns,
		LastScene:  out.LastScene,
		Inventory:  st.Inventory,
		Visited:    st.Visited(),
		StartedAt:  startedAt.UTC(),
		FinishedAt: h.now(),
	})
}

// Tally returns completed-session counts per ending.
func (h *HistoryService) Tally(ctx context.Context) (map[string]int, error) {
	if h == nil || h.Playthroughs == nil {
		return nil, nil
	}
	return h.Playthroughs.EndingCounts(ctx)
}

// Recent returns up to limit sessions, newest first.
func (h *HistoryService) Recent(ctx context.Context, limit int) ([]repository.Playthrough, error) {
	if h == nil || h.Playthroughs == nil {
		return nil, nil
	}
	return h.Playthroughs.Recent(ctx, limit)
}

func (h *HistoryService) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return database.Now()
}
