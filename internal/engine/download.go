package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ytpilot/ytpilot/internal/naming"
	"github.com/ytpilot/ytpilot/internal/session"
)

type selectedFormat struct {
	format   *youtube.Format
	quality  string
	fallback bool
}

// Download fetches one item, picking the preferred quality and walking the
// fallback ladder when it is unavailable. Transient failures are retried with
// a short backoff; the outcome carries whatever happened, success or not.
func (e *Engine) Download(ctx context.Context, item *session.VideoItem) session.Outcome {
	out := session.Outcome{}

	video, err := e.client.GetVideoContext(ctx, watchURL(item.ID))
	if err != nil {
		out.Status = session.StatusFailed
		out.Err = fmt.Errorf("fetching video metadata: %w", err)
		return out
	}

	sel, err := e.selectFormat(video, item.AudioOnly)
	if err != nil {
		out.Status = session.StatusFailed
		out.Err = err
		return out
	}
	out.Quality = sel.quality
	out.Fallback = sel.fallback

	outputPath, unknown := e.outputPath(item, sel)
	for _, tok := range unknown {
		e.Log.Warn().Str("token", tok).Msg("unknown filename token")
	}
	out.OutputPath = outputPath

	attempts := e.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	var written int64
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			out.Retries = attempt
			if err := sleepWithContext(ctx, time.Duration(attempt)*500*time.Millisecond); err != nil {
				out.Status = session.StatusFailed
				out.Err = err
				return out
			}
		}
		written, err = e.fetchToFile(ctx, video, sel.format, outputPath)
		if err == nil {
			break
		}
		e.Log.Debug().Err(err).Str("video", item.ID).Int("attempt", attempt+1).Msg("download attempt failed")
	}
	if err != nil {
		out.Status = session.StatusFailed
		out.Err = fmt.Errorf("download failed: %w", err)
		return out
	}

	out.Status = session.StatusSuccess
	out.Bytes = written
	return out
}

func (e *Engine) outputPath(item *session.VideoItem, sel selectedFormat) (string, []string) {
	name, unknown := naming.Expand(e.Template, naming.Fields{
		Index:     item.Index,
		Title:     item.Title,
		Quality:   sel.quality,
		ID:        item.ID,
		Ext:       mimeToExt(sel.format.MimeType),
		AudioOnly: item.AudioOnly,
	})
	return filepath.Join(e.OutputDir, name), unknown
}

// fetchToFile streams the format into a temp file and renames it into place
// so an interrupted download never leaves a half-written output.
func (e *Engine) fetchToFile(ctx context.Context, video *youtube.Video, format *youtube.Format, outputPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".ytpilot-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	stream, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Close()

	written, err := copyWithContext(ctx, tmp, stream)
	if err != nil {
		cleanup()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming output: %w", err)
	}
	return written, nil
}

// selectFormat prefers progressive (audio+video) formats matching the quality
// ladder. Audio-only picks the highest-bitrate pure audio format.
func (e *Engine) selectFormat(video *youtube.Video, audioOnly bool) (selectedFormat, error) {
	if audioOnly {
		var best *youtube.Format
		for i := range video.Formats {
			f := &video.Formats[i]
			if f.AudioChannels == 0 || f.Width != 0 || f.Height != 0 {
				continue
			}
			if best == nil || bitrateFor(f) > bitrateFor(best) {
				best = f
			}
		}
		if best == nil {
			return selectedFormat{}, errors.New("no audio-only formats available")
		}
		return selectedFormat{format: best, quality: "audio"}, nil
	}

	ladder := e.QualityOrder
	if len(ladder) == 0 {
		ladder = DefaultQualityOrder
	}
	for rank, quality := range ladder {
		var best *youtube.Format
		for i := range video.Formats {
			f := &video.Formats[i]
			if f.AudioChannels == 0 || f.Width == 0 || f.Height == 0 {
				continue
			}
			if f.QualityLabel != quality {
				continue
			}
			if best == nil || bitrateFor(f) > bitrateFor(best) {
				best = f
			}
		}
		if best != nil {
			return selectedFormat{format: best, quality: quality, fallback: rank > 0}, nil
		}
	}
	return selectedFormat{}, errors.New("no progressive formats match the quality ladder")
}

func bitrateFor(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

func mimeToExt(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(mime, "/")
	if len(parts) == 2 {
		switch parts[1] {
		case "3gpp":
			return "3gp"
		default:
			return parts[1]
		}
	}
	return "bin"
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var written int64
	buf := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}
		n, err := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
