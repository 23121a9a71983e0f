package engine

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ytpilot/ytpilot/internal/session"
)

var (
	playlistIDRegex  = regexp.MustCompile(`^[A-Za-z0-9_-]{13,42}$`)
	playlistURLRegex = regexp.MustCompile(`[?&]list=([A-Za-z0-9_-]{13,42})`)
)

func looksLikePlaylist(url string) bool {
	return playlistIDRegex.MatchString(url) || playlistURLRegex.MatchString(url)
}

// Expand enumerates a target URL into ordered item descriptors. A playlist
// yields its entries; anything else is treated as a single video.
func (e *Engine) Expand(ctx context.Context, url string) ([]session.ItemDescriptor, error) {
	if looksLikePlaylist(url) {
		playlist, err := e.client.GetPlaylistContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetching playlist: %w", err)
		}
		descs := make([]session.ItemDescriptor, 0, len(playlist.Videos))
		for i, entry := range playlist.Videos {
			if entry == nil || entry.ID == "" {
				continue
			}
			title := entry.Title
			if title == "" {
				title = entry.ID
			}
			descs = append(descs, session.ItemDescriptor{
				ID:    entry.ID,
				Title: title,
				Index: i + 1,
			})
		}
		return descs, nil
	}

	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching video metadata: %w", err)
	}
	return []session.ItemDescriptor{{ID: video.ID, Title: video.Title, Index: 1}}, nil
}
