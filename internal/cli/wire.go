package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ytpilot/ytpilot/internal/config"
	"github.com/ytpilot/ytpilot/internal/engine"
	"github.com/ytpilot/ytpilot/internal/history"
	"github.com/ytpilot/ytpilot/internal/manifest"
	"github.com/ytpilot/ytpilot/internal/plugin"
	"github.com/ytpilot/ytpilot/internal/session"
)

// buildSession assembles the engine, manifest store and hooks for one run.
// The returned cleanup closes the history database.
func buildSession(cfg config.Config) (*session.Session, func(), error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating output directory: %w", err)
	}

	eng := engine.New(cfg.OutputDir, cfg.Template, cfg.Quality, cfg.Retries,
		cfg.Timeout, cfg.CaptionLangs, log)
	store := manifest.Load(cfg.OutputDir, log)
	sessionID := uuid.NewString()

	cleanup := func() {}
	var hooks []session.Hook
	if db, err := openHistory(cfg.HistoryPath); err != nil {
		log.Warn().Err(err).Msg("history database unavailable, catalog disabled")
	} else {
		hooks = append(hooks, &plugin.HistoryHook{DB: db, SessionID: sessionID, Log: log})
		cleanup = func() { db.Close() }
	}
	hooks = append(hooks, &plugin.TagHook{Log: log})

	sess := &session.Session{
		ID:       sessionID,
		Store:    store,
		Expander: eng,
		Worker:   buildWorker(eng, cfg),
		Hooks:    hooks,
		Log:      log,
	}
	return sess, cleanup, nil
}

func openHistory(path string) (*history.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return history.Open(path)
}

// buildWorker chains the download with the best-effort caption fetch.
func buildWorker(eng *engine.Engine, cfg config.Config) session.Worker {
	return func(ctx context.Context, item *session.VideoItem) session.Outcome {
		out := eng.Download(ctx, item)
		if out.Status == session.StatusSuccess && cfg.Captions {
			out.Captions = eng.FetchCaptions(ctx, item, cfg.CaptionsAuto)
		}
		return out
	}
}

func confirmTarget(url string) bool {
	fmt.Fprintf(os.Stderr, "Download target %q? [Y/n]: ", url)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

func sessionOptions(cfg config.Config) (session.Options, error) {
	spec, err := cfg.FilterSpec()
	if err != nil {
		return session.Options{}, configError{err: err}
	}
	return session.Options{
		Filter:      spec,
		Force:       cfg.EffectiveForce(),
		Quality:     cfg.Quality,
		AudioOnly:   cfg.AudioOnly,
		Concurrency: cfg.Jobs,
		Interactive: cfg.Interactive,
		Confirm:     confirmTarget,
	}, nil
}
