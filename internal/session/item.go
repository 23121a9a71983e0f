package session

import "time"

// Status values an item moves through during a run.
const (
	StatusPending   = "pending"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusCancelled = "cancelled"
)

// CaptionTrack describes one caption file written next to a download.
type CaptionTrack struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Kind     string `json:"kind"` // manual | auto
	Format   string `json:"format"`
	Path     string `json:"path"`
}

// VideoItem is one unit of work inside a target. The ID is immutable once the
// item is created; workers fill in the result fields on completion.
type VideoItem struct {
	ID               string
	Title            string
	Index            int // 1-based ordinal within the target enumeration
	TargetURL        string
	PreferredQuality string
	SelectedQuality  string
	AudioOnly        bool
	FallbackApplied  bool
	Retries          int

	Status     string
	FailReason string
	OutputPath string
	Bytes      int64
	Captions   []CaptionTrack
}

// Outcome is the dispatcher-visible result for a single item.
type Outcome struct {
	Status     string
	OutputPath string
	Quality    string
	Fallback   bool
	Retries    int
	Bytes      int64
	Err        error
	FinishedAt time.Time
	Captions   []CaptionTrack
}

// ItemResult pairs an item with its outcome. The dispatcher emits these in
// completion order; callers needing display order re-sort by Item.Index.
type ItemResult struct {
	Item    *VideoItem
	Outcome Outcome
}
