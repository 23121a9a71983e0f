package naming

import (
	"strings"
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain title", "plain title"},
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  padded  ", "padded"},
		{"", "untitled"},
		{"...", "untitled"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize_CapsLength(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := Sanitize(long); len(got) != 255 {
		t.Fatalf("expected 255 bytes, got %d", len(got))
	}
}

func TestExpand_DefaultTemplate(t *testing.T) {
	got, unknown := Expand("", Fields{Index: 7, Title: "My Video", Ext: "mp4"})
	if got != "007-My Video.mp4" {
		t.Fatalf("unexpected name %q", got)
	}
	if len(unknown) != 0 {
		t.Fatalf("unexpected unknown tokens %v", unknown)
	}
}

func TestExpand_AllTokens(t *testing.T) {
	fields := Fields{
		Index:     12,
		Title:     "Talk",
		Quality:   "720p",
		ID:        "abc123",
		Ext:       "mp3",
		AudioOnly: true,
		Date:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	got, unknown := Expand("{date}_{index}_{id}_{title}_{quality}_{audio_only}.{ext}", fields)
	want := "2026-03-14_012_abc123_Talk_720p_true.mp3"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if len(unknown) != 0 {
		t.Fatalf("unexpected unknown tokens %v", unknown)
	}
}

func TestExpand_UnknownTokensDropAndReport(t *testing.T) {
	got, unknown := Expand("{title}-{channel}.{ext}", Fields{Title: "clip", Ext: "mp4"})
	if got != "clip-.mp4" {
		t.Fatalf("unknown token should expand to nothing, got %q", got)
	}
	if len(unknown) != 1 || unknown[0] != "channel" {
		t.Fatalf("expected unknown token %q reported, got %v", "channel", unknown)
	}
}

func TestExpand_SanitizesTitle(t *testing.T) {
	got, _ := Expand("{index}-{title}.{ext}", Fields{Index: 1, Title: "a/b:c", Ext: "mp4"})
	if got != "001-a_b_c.mp4" {
		t.Fatalf("unexpected name %q", got)
	}
}
