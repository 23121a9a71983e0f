package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange reports an index range whose end precedes its start.
var ErrInvalidRange = errors.New("index range end before start")

// FilterSpec narrows a target's item list. Substrings are OR-combined and
// case-insensitive; Start/End are an inclusive 1-based range over the item's
// original ordinal within its target. Zero means the bound is open.
type FilterSpec struct {
	Substrings []string
	Start      int
	End        int
}

// ParseIndexRange parses a "start:end" spec where either side may be empty.
func ParseIndexRange(spec string) (int, int, error) {
	if spec == "" {
		return 0, 0, nil
	}
	if !strings.Contains(spec, ":") {
		return 0, 0, fmt.Errorf("index range %q must contain a colon", spec)
	}
	startS, endS, _ := strings.Cut(spec, ":")
	start, end := 0, 0
	var err error
	if startS != "" {
		if start, err = strconv.Atoi(startS); err != nil {
			return 0, 0, fmt.Errorf("index range start %q: %w", startS, err)
		}
	}
	if endS != "" {
		if end, err = strconv.Atoi(endS); err != nil {
			return 0, 0, fmt.Errorf("index range end %q: %w", endS, err)
		}
	}
	if start > 0 && end > 0 && end < start {
		return 0, 0, fmt.Errorf("index range %q: %w", spec, ErrInvalidRange)
	}
	return start, end, nil
}

// Validate rejects a spec with both bounds set and end < start.
func (f FilterSpec) Validate() error {
	if f.Start > 0 && f.End > 0 && f.End < f.Start {
		return fmt.Errorf("range [%d,%d]: %w", f.Start, f.End, ErrInvalidRange)
	}
	return nil
}

func (f FilterSpec) empty() bool {
	return len(f.Substrings) == 0 && f.Start == 0 && f.End == 0
}

// Evaluate returns the ordered sublist of items matching the spec. Inputs are
// not mutated. An empty substring list passes every title; a Start beyond the
// last index yields an empty result.
func Evaluate(items []*VideoItem, spec FilterSpec) ([]*VideoItem, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.empty() {
		return items, nil
	}

	terms := make([]string, 0, len(spec.Substrings))
	for _, s := range spec.Substrings {
		if strings.TrimSpace(s) != "" {
			terms = append(terms, strings.ToLower(s))
		}
	}

	out := make([]*VideoItem, 0, len(items))
	for _, item := range items {
		if spec.Start > 0 && item.Index < spec.Start {
			continue
		}
		// End is inclusive, friendlier than half-open slicing.
		if spec.End > 0 && item.Index > spec.End {
			continue
		}
		if len(terms) > 0 && !matchesAny(item.Title, terms) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func matchesAny(title string, terms []string) bool {
	lower := strings.ToLower(title)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
