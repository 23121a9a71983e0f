package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ytpilot/ytpilot/internal/manifest"
)

func TestShouldProcess_SkipsRecordedSuccessWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vid42.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	item := &VideoItem{ID: "vid42"}
	entry := manifest.Entry{Status: StatusSuccess, Path: path}

	if got := ShouldProcess(item, entry, true, false); got != SkipAlreadyDone {
		t.Fatalf("expected SkipAlreadyDone, got %v", got)
	}
}

func TestShouldProcess_ForceAlwaysProcesses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vid42.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	item := &VideoItem{ID: "vid42"}
	entry := manifest.Entry{Status: StatusSuccess, Path: path}

	if got := ShouldProcess(item, entry, true, true); got != Process {
		t.Fatalf("expected Process under force, got %v", got)
	}
}

func TestShouldProcess_ProcessesWhenOutputDeleted(t *testing.T) {
	item := &VideoItem{ID: "vid42"}
	entry := manifest.Entry{Status: StatusSuccess, Path: filepath.Join(t.TempDir(), "gone.mp4")}

	if got := ShouldProcess(item, entry, true, false); got != Process {
		t.Fatalf("expected Process when recorded file is missing, got %v", got)
	}
}

func TestShouldProcess_ProcessesFailedAndUnknown(t *testing.T) {
	item := &VideoItem{ID: "vid42"}

	if got := ShouldProcess(item, manifest.Entry{Status: StatusFailed}, true, false); got != Process {
		t.Fatalf("expected Process for failed entry, got %v", got)
	}
	if got := ShouldProcess(item, manifest.Entry{}, false, false); got != Process {
		t.Fatalf("expected Process without history, got %v", got)
	}
}
