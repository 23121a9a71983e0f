package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/ytpilot/ytpilot/internal/session"
)

// FetchCaptions retrieves caption tracks for an item, best effort. Manual
// tracks are tried first in preferred-language order; auto-generated tracks
// are only considered when no manual track matched and allowAuto is set.
// Failures are logged and yield an empty slice, never an error.
func (e *Engine) FetchCaptions(ctx context.Context, item *session.VideoItem, allowAuto bool) []session.CaptionTrack {
	video, err := e.client.GetVideoContext(ctx, watchURL(item.ID))
	if err != nil {
		e.Log.Debug().Err(err).Str("video", item.ID).Msg("caption metadata fetch failed")
		return nil
	}
	if len(video.CaptionTracks) == 0 {
		return nil
	}

	langs := e.CaptionLangs
	if len(langs) == 0 {
		langs = []string{"en"}
	}

	if track := e.fetchKind(ctx, item, video, langs, false); track != nil {
		return []session.CaptionTrack{*track}
	}
	if allowAuto {
		if track := e.fetchKind(ctx, item, video, langs, true); track != nil {
			return []session.CaptionTrack{*track}
		}
	}
	return nil
}

func (e *Engine) fetchKind(ctx context.Context, item *session.VideoItem, video *youtube.Video, langs []string, auto bool) *session.CaptionTrack {
	for _, lang := range langs {
		for i := range video.CaptionTracks {
			ct := &video.CaptionTracks[i]
			if isAutoTrack(ct) != auto {
				continue
			}
			if !langMatches(ct.LanguageCode, lang) {
				continue
			}
			track, err := e.saveCaption(ctx, item.ID, ct, lang, auto)
			if err != nil {
				e.Log.Debug().Err(err).Str("video", item.ID).Str("lang", lang).Msg("caption fetch failed")
				continue
			}
			return track
		}
	}
	return nil
}

func (e *Engine) saveCaption(ctx context.Context, videoID string, ct *youtube.CaptionTrack, lang string, auto bool) (*session.CaptionTrack, error) {
	url := ct.BaseURL
	if !strings.Contains(url, "fmt=") {
		url += "&fmt=vtt"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching caption track: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption track returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	kind := "manual"
	if auto {
		kind = "auto"
	}
	dir := filepath.Join(e.OutputDir, "captions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating captions directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.%s.vtt", videoID, lang, kind))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("writing caption file: %w", err)
	}

	return &session.CaptionTrack{
		VideoID:  videoID,
		Language: lang,
		Kind:     kind,
		Format:   "vtt",
		Path:     path,
	}, nil
}

func isAutoTrack(ct *youtube.CaptionTrack) bool {
	return ct.Kind == "asr"
}

func langMatches(code, want string) bool {
	code = strings.ToLower(code)
	want = strings.ToLower(want)
	return code == want || strings.HasPrefix(code, want+"-")
}
