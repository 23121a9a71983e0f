// Package report writes the per-session report.json consumed by automation.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ytpilot/ytpilot/internal/session"
)

const (
	// Filename is written into the output directory after every run.
	Filename = "report.json"

	// SchemaVersion tracks the report shape for downstream consumers.
	SchemaVersion = "1.1.0"
)

type videoSummary struct {
	VideoID  string                 `json:"videoId"`
	Title    string                 `json:"title"`
	Index    int                    `json:"index"`
	Status   string                 `json:"status"`
	Quality  string                 `json:"quality,omitempty"`
	Fallback bool                   `json:"fallback"`
	Retries  int                    `json:"retries"`
	Bytes    int64                  `json:"bytes,omitempty"`
	Filepath string                 `json:"filepath,omitempty"`
	Captions []session.CaptionTrack `json:"captions,omitempty"`
}

type failure struct {
	VideoID string `json:"videoId"`
	Reason  string `json:"reason"`
}

type fallback struct {
	VideoID string `json:"videoId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type targetFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Report is the full session record, schema-versioned so consumers can detect
// shape changes.
type Report struct {
	SchemaVersion string          `json:"schemaVersion"`
	SessionID     string          `json:"sessionId"`
	Started       time.Time       `json:"started"`
	Ended         time.Time       `json:"ended"`
	Summary       session.Summary `json:"summary"`
	Skipped       int             `json:"skipped"`
	Cancelled     int             `json:"cancelled"`
	Failures      []failure       `json:"failures"`
	Fallbacks     []fallback      `json:"fallbacks"`
	TargetErrors  []targetFailure `json:"targetErrors,omitempty"`
	Videos        []videoSummary  `json:"videos"`
}

// Build folds a finished session result into a report.
func Build(result *session.Result) Report {
	r := Report{
		SchemaVersion: SchemaVersion,
		SessionID:     result.SessionID,
		Started:       result.StartedAt,
		Ended:         result.EndedAt,
		Summary:       result.Summary(),
		Skipped:       result.Skipped,
		Cancelled:     result.Cancelled,
		Failures:      []failure{},
		Fallbacks:     []fallback{},
	}
	for _, te := range result.TargetErrors {
		r.TargetErrors = append(r.TargetErrors, targetFailure{URL: te.URL, Reason: te.Err.Error()})
	}
	for _, res := range result.Items {
		item := res.Item
		r.Videos = append(r.Videos, videoSummary{
			VideoID:  item.ID,
			Title:    item.Title,
			Index:    item.Index,
			Status:   item.Status,
			Quality:  item.SelectedQuality,
			Fallback: item.FallbackApplied,
			Retries:  item.Retries,
			Bytes:    item.Bytes,
			Filepath: item.OutputPath,
			Captions: item.Captions,
		})
		if item.Status == session.StatusFailed {
			reason := item.FailReason
			if reason == "" {
				reason = "unknown"
			}
			r.Failures = append(r.Failures, failure{VideoID: item.ID, Reason: reason})
		}
		if item.FallbackApplied {
			r.Fallbacks = append(r.Fallbacks, fallback{
				VideoID: item.ID,
				From:    item.PreferredQuality,
				To:      item.SelectedQuality,
			})
		}
	}
	return r
}

// Write saves the report into dir and returns its path.
func Write(result *session.Result, dir string) (string, error) {
	r := Build(result)
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	raw = append(raw, '\n')
	path := filepath.Join(dir, Filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
