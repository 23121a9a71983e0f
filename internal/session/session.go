// Package session implements the planning, resume, dispatch and aggregation
// pipeline around the external download engine.
package session

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ytpilot/ytpilot/internal/manifest"
)

// ItemDescriptor is the raw shape a target expands to before it becomes a
// VideoItem.
type ItemDescriptor struct {
	ID    string
	Title string
	Index int
}

// TargetExpander enumerates the items behind a target URL. A playlist yields
// its entries in order; a single video yields one descriptor.
type TargetExpander interface {
	Expand(ctx context.Context, url string) ([]ItemDescriptor, error)
}

// Hook is a capability invoked synchronously after outcomes are recorded.
// A failing hook is logged and isolated; it never aborts the session.
type Hook interface {
	Name() string
	OnItemDone(item *VideoItem, outcome Outcome) error
	OnSessionEnd(result *Result) error
}

// Event feeds live progress to an observer such as the TUI.
type Event struct {
	Type    string // "target", "item_start", "item_done", "item_skip"
	Target  string
	Total   int
	Item    *VideoItem
	Outcome *Outcome
}

// Options carries the user-facing knobs for one session.
type Options struct {
	Filter      FilterSpec
	Force       bool
	Quality     string
	AudioOnly   bool
	Concurrency int
	Interactive bool
	Confirm     func(url string) bool // used only when Interactive is set
}

// PlannedItem is one row of a dry-run plan.
type PlannedItem struct {
	Item *VideoItem
	Skip bool
}

// TargetError records a target that failed to expand. The target contributes
// zero items; other targets proceed.
type TargetError struct {
	URL string
	Err error
}

// Result aggregates a finished session. Skips count toward TotalVideos but
// not toward Failed; cancelled items are reported separately and count toward
// neither.
type Result struct {
	SessionID    string
	StartedAt    time.Time
	EndedAt      time.Time
	Targets      int
	TotalVideos  int
	Success      int
	Failed       int
	Skipped      int
	Cancelled    int
	Fallbacks    int
	Items        []ItemResult
	TargetErrors []TargetError
}

// Summary is the machine-readable rollup emitted for automation consumers.
type Summary struct {
	Targets     int `json:"targets"`
	TotalVideos int `json:"totalVideos"`
	Success     int `json:"success"`
	Failed      int `json:"failed"`
}

// Summary returns the stable rollup shape.
func (r *Result) Summary() Summary {
	return Summary{
		Targets:     r.Targets,
		TotalVideos: r.TotalVideos,
		Success:     r.Success,
		Failed:      r.Failed,
	}
}

// Plan is what a dry-run produces: the exact item list a run would act on,
// with skip decisions already applied, and no engine download calls made.
type Plan struct {
	Targets      int
	Items        []PlannedItem
	TargetErrors []TargetError
}

// ToDo returns the items a run would actually submit to the dispatcher.
func (p *Plan) ToDo() []*VideoItem {
	out := make([]*VideoItem, 0, len(p.Items))
	for _, pi := range p.Items {
		if !pi.Skip {
			out = append(out, pi.Item)
		}
	}
	return out
}

// SkippedCount reports how many planned items resume will skip.
func (p *Plan) SkippedCount() int {
	n := 0
	for _, pi := range p.Items {
		if pi.Skip {
			n++
		}
	}
	return n
}

// Session wires the core pipeline together. Collaborators are injected so
// tests can run without touching the network.
type Session struct {
	ID       string
	Store    *manifest.Store
	Expander TargetExpander
	Worker   Worker
	Hooks    []Hook
	Notify   func(Event)
	Log      zerolog.Logger
}

func (s *Session) notify(ev Event) {
	if s.Notify != nil {
		s.Notify(ev)
	}
}

// Plan expands every target, applies the filter spec and marks resume skips.
// Expansion failures demote the target to zero items and are surfaced in the
// plan rather than aborting the other targets.
func (s *Session) Plan(ctx context.Context, targets []string, opts Options) (*Plan, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{Targets: len(targets)}
	for _, url := range targets {
		if opts.Interactive && opts.Confirm != nil && !opts.Confirm(url) {
			s.Log.Info().Str("target", url).Msg("target declined, skipping")
			continue
		}

		descs, err := s.Expander.Expand(ctx, url)
		if err != nil {
			s.Log.Warn().Err(err).Str("target", url).Msg("target expansion failed")
			plan.TargetErrors = append(plan.TargetErrors, TargetError{URL: url, Err: err})
			continue
		}
		s.Store.SetPlaylist(url)
		s.notify(Event{Type: "target", Target: url, Total: len(descs)})

		items := make([]*VideoItem, 0, len(descs))
		for i, d := range descs {
			index := d.Index
			if index == 0 {
				index = i + 1
			}
			items = append(items, &VideoItem{
				ID:               d.ID,
				Title:            d.Title,
				Index:            index,
				TargetURL:        url,
				PreferredQuality: opts.Quality,
				AudioOnly:        opts.AudioOnly,
				Status:           StatusPending,
			})
		}

		filtered, err := Evaluate(items, opts.Filter)
		if err != nil {
			return nil, err
		}

		for _, item := range filtered {
			entry, found := s.Store.Get(item.ID)
			skip := ShouldProcess(item, entry, found, opts.Force) == SkipAlreadyDone
			if skip {
				item.Status = StatusSkipped
				item.OutputPath = entry.Path
				item.SelectedQuality = entry.Quality
			}
			plan.Items = append(plan.Items, PlannedItem{Item: item, Skip: skip})
		}
	}
	return plan, nil
}

// Execute runs the planned items with bounded concurrency, records each
// attempted outcome in the manifest, fires hooks and folds everything into a
// Result. Item and target failures never propagate as errors; only invalid
// configuration does.
func (s *Session) Execute(ctx context.Context, plan *Plan, opts Options) (*Result, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	result := &Result{
		SessionID: s.ID,
		StartedAt: time.Now().UTC(),
		Targets:   plan.Targets,
		Skipped:   plan.SkippedCount(),
	}
	result.TargetErrors = plan.TargetErrors

	for _, pi := range plan.Items {
		if pi.Skip {
			s.notify(Event{Type: "item_skip", Item: pi.Item})
		}
	}

	todo := plan.ToDo()
	results, err := Dispatch(ctx, todo, s.wrapWorker(), opts.Concurrency)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		s.applyOutcome(res)
		result.Items = append(result.Items, res)
		switch res.Outcome.Status {
		case StatusSuccess:
			result.Success++
		case StatusFailed:
			result.Failed++
		case StatusCancelled:
			result.Cancelled++
			continue
		}
		if res.Outcome.Fallback {
			result.Fallbacks++
		}
		s.record(res)
		s.fireItemHooks(res)
	}

	// Skips count toward the total; cancelled items count toward neither.
	result.TotalVideos = result.Success + result.Failed + result.Skipped
	result.EndedAt = time.Now().UTC()

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Item.Index < result.Items[j].Item.Index
	})

	for _, h := range s.Hooks {
		if err := h.OnSessionEnd(result); err != nil {
			s.Log.Error().Err(err).Str("hook", h.Name()).Msg("session hook failed")
		}
	}
	return result, nil
}

func (s *Session) wrapWorker() Worker {
	return func(ctx context.Context, item *VideoItem) Outcome {
		s.notify(Event{Type: "item_start", Item: item})
		out := s.Worker(ctx, item)
		s.notify(Event{Type: "item_done", Item: item, Outcome: &out})
		return out
	}
}

func (s *Session) applyOutcome(res ItemResult) {
	item, out := res.Item, res.Outcome
	item.Status = out.Status
	item.OutputPath = out.OutputPath
	item.SelectedQuality = out.Quality
	item.FallbackApplied = out.Fallback
	item.Retries = out.Retries
	item.Bytes = out.Bytes
	item.Captions = out.Captions
	if out.Err != nil {
		item.FailReason = out.Err.Error()
	}
}

func (s *Session) record(res ItemResult) {
	entry := manifest.Entry{
		Status:   res.Outcome.Status,
		Path:     res.Outcome.OutputPath,
		Quality:  res.Outcome.Quality,
		Fallback: res.Outcome.Fallback,
		Retries:  res.Outcome.Retries,
	}
	if res.Outcome.Err != nil {
		entry.Error = res.Outcome.Err.Error()
	}
	if err := s.Store.Record(res.Item.ID, entry); err != nil {
		s.Log.Error().Err(err).Str("video", res.Item.ID).
			Msg("manifest write failed, resume state may be stale")
	}
}

func (s *Session) fireItemHooks(res ItemResult) {
	for _, h := range s.Hooks {
		if err := h.OnItemDone(res.Item, res.Outcome); err != nil {
			s.Log.Error().Err(err).Str("hook", h.Name()).Str("video", res.Item.ID).
				Msg("item hook failed")
		}
	}
}
