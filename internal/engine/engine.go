// Package engine wraps the external media retrieval library behind the small
// surface the session core needs: target expansion, per-item download and
// caption fetch.
package engine

import (
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

// DefaultQualityOrder is the fallback ladder when the preferred quality is
// not available for a video.
var DefaultQualityOrder = []string{"1080p", "720p", "480p", "360p", "240p", "144p"}

// Engine talks to YouTube through kkdai/youtube and writes downloads under
// OutputDir using the configured filename template.
type Engine struct {
	OutputDir    string
	Template     string
	QualityOrder []string
	Retries      int
	Timeout      time.Duration
	CaptionLangs []string
	Log          zerolog.Logger

	client *youtube.Client
	http   *http.Client
}

// New builds an engine. A preferred quality is promoted to the front of the
// ladder; the rest keeps its order for fallback.
func New(outputDir, template, quality string, retries int, timeout time.Duration, captionLangs []string, log zerolog.Logger) *Engine {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Engine{
		OutputDir:    outputDir,
		Template:     template,
		QualityOrder: qualityLadder(quality),
		Retries:      retries,
		Timeout:      timeout,
		CaptionLangs: captionLangs,
		Log:          log,
		client:       &youtube.Client{HTTPClient: httpClient},
		http:         httpClient,
	}
}

func qualityLadder(preferred string) []string {
	if preferred == "" {
		return DefaultQualityOrder
	}
	order := []string{preferred}
	for _, q := range DefaultQualityOrder {
		if q != preferred {
			order = append(order, q)
		}
	}
	return order
}
