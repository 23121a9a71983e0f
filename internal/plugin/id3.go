package plugin

import (
	"path/filepath"
	"strconv"
	"strings"

	id3v2 "github.com/bogem/id3v2/v2"
	"github.com/rs/zerolog"

	"github.com/ytpilot/ytpilot/internal/session"
)

// TagHook embeds ID3v2 tags into successful audio-only downloads. Only .mp3
// output gets tags; other containers are silently left alone.
type TagHook struct {
	Log zerolog.Logger
}

func (t *TagHook) Name() string { return "id3tag" }

func (t *TagHook) OnItemDone(item *session.VideoItem, outcome session.Outcome) error {
	if outcome.Status != session.StatusSuccess || !item.AudioOnly {
		return nil
	}
	if strings.ToLower(filepath.Ext(outcome.OutputPath)) != ".mp3" {
		return nil
	}

	tag, err := id3v2.Open(outcome.OutputPath, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if item.Title != "" {
		tag.SetTitle(item.Title)
	}
	if item.Index > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"),
			tag.DefaultEncoding(), strconv.Itoa(item.Index))
	}
	return tag.Save()
}

func (t *TagHook) OnSessionEnd(*session.Result) error { return nil }
