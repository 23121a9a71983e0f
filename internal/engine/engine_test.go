package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

func progressive(label string, bitrate int) youtube.Format {
	return youtube.Format{
		MimeType:      `video/mp4; codecs="avc1.42001E, mp4a.40.2"`,
		QualityLabel:  label,
		Bitrate:       bitrate,
		AudioChannels: 2,
		Width:         1280,
		Height:        720,
	}
}

func audioFormat(bitrate int) youtube.Format {
	return youtube.Format{
		MimeType:      `audio/mp4; codecs="mp4a.40.2"`,
		Bitrate:       bitrate,
		AudioChannels: 2,
	}
}

func videoOnly(label string) youtube.Format {
	return youtube.Format{
		MimeType:     `video/mp4; codecs="avc1.640028"`,
		QualityLabel: label,
		Bitrate:      5_000_000,
		Width:        1920,
		Height:       1080,
	}
}

func testEngine(quality string) *Engine {
	return New("out", "", quality, 0, time.Minute, nil, zerolog.Nop())
}

func TestQualityLadder(t *testing.T) {
	ladder := qualityLadder("480p")
	if ladder[0] != "480p" {
		t.Fatalf("preferred quality not promoted: %v", ladder)
	}
	if len(ladder) != len(DefaultQualityOrder) {
		t.Fatalf("ladder length %d, want %d", len(ladder), len(DefaultQualityOrder))
	}
	seen := map[string]bool{}
	for _, q := range ladder {
		if seen[q] {
			t.Fatalf("duplicate quality %q in ladder %v", q, ladder)
		}
		seen[q] = true
	}

	if got := qualityLadder(""); len(got) != len(DefaultQualityOrder) || got[0] != DefaultQualityOrder[0] {
		t.Fatalf("empty preference should use the default order, got %v", got)
	}
}

func TestSelectFormat_PreferredQuality(t *testing.T) {
	e := testEngine("720p")
	video := &youtube.Video{Formats: []youtube.Format{
		progressive("360p", 700_000),
		progressive("720p", 2_000_000),
		videoOnly("1080p"),
	}}

	sel, err := e.selectFormat(video, false)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.quality != "720p" || sel.fallback {
		t.Fatalf("expected direct 720p hit, got quality=%q fallback=%v", sel.quality, sel.fallback)
	}
}

func TestSelectFormat_FallsDownTheLadder(t *testing.T) {
	e := testEngine("1080p")
	video := &youtube.Video{Formats: []youtube.Format{
		progressive("360p", 700_000),
		progressive("480p", 1_000_000),
	}}

	sel, err := e.selectFormat(video, false)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.quality != "480p" {
		t.Fatalf("expected 480p from the ladder, got %q", sel.quality)
	}
	if !sel.fallback {
		t.Fatal("expected fallback to be flagged")
	}
}

func TestSelectFormat_IgnoresVideoOnlyStreams(t *testing.T) {
	e := testEngine("1080p")
	video := &youtube.Video{Formats: []youtube.Format{
		videoOnly("1080p"),
		progressive("360p", 700_000),
	}}

	sel, err := e.selectFormat(video, false)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.quality != "360p" || !sel.fallback {
		t.Fatalf("video-only 1080p must not be selected, got quality=%q fallback=%v", sel.quality, sel.fallback)
	}
}

func TestSelectFormat_NoMatchIsError(t *testing.T) {
	e := testEngine("720p")
	video := &youtube.Video{Formats: []youtube.Format{videoOnly("1080p"), audioFormat(128_000)}}

	if _, err := e.selectFormat(video, false); err == nil {
		t.Fatal("expected error when no progressive format matches")
	}
}

func TestSelectFormat_AudioOnlyPicksHighestBitrate(t *testing.T) {
	e := testEngine("720p")
	video := &youtube.Video{Formats: []youtube.Format{
		audioFormat(64_000),
		progressive("720p", 2_000_000),
		audioFormat(160_000),
	}}

	sel, err := e.selectFormat(video, true)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.quality != "audio" {
		t.Fatalf("expected audio quality marker, got %q", sel.quality)
	}
	if sel.format.Bitrate != 160_000 {
		t.Fatalf("expected the 160k stream, got %d", sel.format.Bitrate)
	}

	noAudio := &youtube.Video{Formats: []youtube.Format{progressive("720p", 2_000_000)}}
	if _, err := e.selectFormat(noAudio, true); err == nil {
		t.Fatal("expected error when no pure audio stream exists")
	}
}

func TestMimeToExt(t *testing.T) {
	tests := []struct{ in, want string }{
		{`video/mp4; codecs="avc1.42001E"`, "mp4"},
		{"video/webm", "webm"},
		{"audio/mp4", "mp4"},
		{"video/3gpp", "3gp"},
		{"garbage", "bin"},
	}
	for _, tt := range tests {
		if got := mimeToExt(tt.in); got != tt.want {
			t.Fatalf("mimeToExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLooksLikePlaylist(t *testing.T) {
	yes := []string{
		"PLynG8gQD-n8BMplEGyFBRnCOFEe_RH1Vz",
		"https://www.youtube.com/playlist?list=PLynG8gQD-n8BMplEGyFBRnCOFEe_RH1Vz",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLynG8gQD-n8BMplEGyFBRnCOFEe_RH1Vz",
	}
	for _, url := range yes {
		if !looksLikePlaylist(url) {
			t.Fatalf("%q should look like a playlist", url)
		}
	}
	no := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"dQw4w9WgXcQ",
	}
	for _, url := range no {
		if looksLikePlaylist(url) {
			t.Fatalf("%q should not look like a playlist", url)
		}
	}
}

func TestCopyWithContext(t *testing.T) {
	var dst bytes.Buffer
	n, err := copyWithContext(context.Background(), &dst, strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if n != 11 || dst.String() != "hello world" {
		t.Fatalf("copied %d bytes, content %q", n, dst.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := copyWithContext(ctx, &dst, strings.NewReader("more")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSleepWithContext(t *testing.T) {
	if err := sleepWithContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("short sleep: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
