package session

import (
	"os"

	"github.com/ytpilot/ytpilot/internal/manifest"
)

// Decision is the resume policy's verdict for one item.
type Decision int

const (
	Process Decision = iota
	SkipAlreadyDone
)

// ShouldProcess decides whether an item needs work. Force always processes.
// A recorded success only skips when the output file is still on disk, so a
// deleted download gets fetched again even though the manifest says success.
func ShouldProcess(item *VideoItem, entry manifest.Entry, found, force bool) Decision {
	if force {
		return Process
	}
	if !found || entry.Status != StatusSuccess {
		return Process
	}
	if entry.Path == "" {
		return Process
	}
	if _, err := os.Stat(entry.Path); err != nil {
		return Process
	}
	return SkipAlreadyDone
}
