package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jask/echoes/internal/config"
	"github.com/jask/echoes/internal/console"
	"github.com/jask/echoes/internal/database"
	"github.com/jask/echoes/internal/database/repository"
	"github.com/jask/echoes/internal/engine"
	"github.com/jask/echoes/internal/logging"
	"github.com/jask/echoes/internal/player"
	"github.com/jask/echoes/internal/service"
	"github.com/jask/echoes/internal/story"
	"github.com/jask/echoes/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// release the signal after the first interrupt so a second one kills the process
	context.AfterFunc(ctx, stop)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{Path: cfg.Log.Path, Level: cfg.Log.Level})
	if err != nil {
		log.Printf("warn: logging disabled: %v", err)
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	if created, err := config.EnsureFile(); err != nil {
		logger.Warn("write default config", zap.Error(err))
	} else if created {
		logger.Info("wrote default config", zap.String("path", config.Path()))
	}

	graph, err := loadStory(cfg.Story.Path)
	if err != nil {
		logger.Error("story failed validation", zap.Error(err))
		log.Fatalf("story: %v", err)
	}

	history, closeHistory := openHistory(cfg.History, logger)
	defer closeHistory()

	out := console.NewTypewriter(os.Stdout)
	out.Done = ctx.Done()
	state := player.New(cfg.Player.DefaultName)
	session := &engine.Session{
		Graph: graph,
		State: state,
		Out:   out,
		In:    console.NewLineReader(os.Stdin),
		Screen: &console.ANSIScreen{
			W:       os.Stdout,
			Enabled: cfg.UI.ClearScreen && term.IsTerminal(int(os.Stdout.Fd())),
		},
		Pacing: engine.Pacing{
			Title:  cfg.UI.TitleDelay,
			Body:   cfg.UI.BodyDelay,
			Choice: cfg.UI.ChoiceDelay,
		},
		Log: logger,
	}

	started := time.Now()
	var outcome engine.Outcome
	switch cfg.UI.Mode {
	case config.ModeTUI:
		outcome = runTUI(ctx, session, cfg, logger)
	default:
		outcome = runConsole(ctx, session, cfg, logger)
	}

	// the play context may already be cancelled by an interrupt
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := history.Record(recordCtx, started, outcome); err != nil {
		logger.Warn("record playthrough", zap.Error(err))
	}
	if tally, err := history.Tally(recordCtx); err != nil {
		logger.Warn("load ending tally", zap.Error(err))
	} else if err := console.EndingTally(out, tally); err != nil {
		logger.Warn("render ending tally", zap.Error(err))
	}
	if rows, err := history.Recent(recordCtx, 3); err != nil {
		logger.Warn("load recent sessions", zap.Error(err))
	} else if err := console.RecentSessions(out, rows); err != nil {
		logger.Warn("render recent sessions", zap.Error(err))
	}
	_ = console.Farewell(out, cfg.UI.IntroDelay)
}

func runConsole(ctx context.Context, s *engine.Session, cfg config.Config, logger *zap.Logger) engine.Outcome {
	if err := s.Screen.Clear(); err != nil {
		logger.Warn("clear screen", zap.Error(err))
	}
	name, err := console.PromptName(ctx, s.Out, s.In, s.Graph.Title(), cfg.Player.DefaultName, cfg.UI.IntroDelay)
	if err != nil {
		logger.Warn("name prompt", zap.Error(err))
		if ctx.Err() != nil {
			s.State.Exited = true
			return engine.Outcome{State: s.State.Clone()}
		}
	}
	s.State.Name = name

	outcome, err := s.Run(ctx)
	if err != nil {
		logger.Error("session ended with error", zap.Error(err))
	}
	return outcome
}

func runTUI(ctx context.Context, s *engine.Session, cfg config.Config, logger *zap.Logger) engine.Outcome {
	app := tui.New(s, cfg.Player.DefaultName, cfg.UI.BodyDelay)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		logger.Warn("tui stopped", zap.Error(err))
	}
	if err := app.Err(); err != nil {
		logger.Error("session ended with error", zap.Error(err))
	}

	outcome := app.Outcome()
	if outcome.State == nil {
		// interrupted before the app could finish the session
		s.State.Exited = true
		outcome.State = s.State.Clone()
	}
	fmt.Println("\nGame session terminated. Goodbye.")
	return outcome
}

func loadStory(path string) (*story.Graph, error) {
	if path == "" {
		return story.Default()
	}
	return story.LoadFile(path)
}

func openHistory(cfg config.HistoryConfig, logger *zap.Logger) (*service.HistoryService, func()) {
	noop := func() {}
	if !cfg.Enabled || cfg.Path == "" {
		return nil, noop
	}
	if err := database.RunMigrations(cfg.Path); err != nil {
		logger.Warn("history disabled", zap.Error(err))
		return nil, noop
	}
	db, err := database.Open(cfg.Path)
	if err != nil {
		logger.Warn("history disabled", zap.Error(err))
		return nil, noop
	}
	return &service.HistoryService{Playthroughs: repository.NewPlaythroughRepo(db)}, func() { _ = db.Close() }
}
