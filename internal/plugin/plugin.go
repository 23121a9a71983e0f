// Package plugin holds the built-in session hooks: post-download audio
// tagging and the cross-session history catalog.
package plugin

import (
	"github.com/rs/zerolog"

	"github.com/ytpilot/ytpilot/internal/history"
	"github.com/ytpilot/ytpilot/internal/session"
)

// HistoryHook records every successful download in the SQLite catalog.
type HistoryHook struct {
	DB        *history.DB
	SessionID string
	Log       zerolog.Logger
}

func (h *HistoryHook) Name() string { return "history" }

func (h *HistoryHook) OnItemDone(item *session.VideoItem, outcome session.Outcome) error {
	if outcome.Status != session.StatusSuccess {
		return nil
	}
	_, err := h.DB.Insert(history.Record{
		SessionID:   h.SessionID,
		VideoID:     item.ID,
		Title:       item.Title,
		Quality:     outcome.Quality,
		AudioOnly:   item.AudioOnly,
		Fallback:    outcome.Fallback,
		Retries:     outcome.Retries,
		FilePath:    outcome.OutputPath,
		SizeBytes:   outcome.Bytes,
		TargetURL:   item.TargetURL,
		CompletedAt: outcome.FinishedAt,
	})
	return err
}

func (h *HistoryHook) OnSessionEnd(result *session.Result) error {
	h.Log.Debug().Str("session", result.SessionID).Int("success", result.Success).
		Msg("history hook finished")
	return nil
}
