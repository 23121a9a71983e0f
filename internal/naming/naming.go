// Package naming expands output filename templates and keeps the results
// filesystem-safe.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultTemplate zero-pads the playlist ordinal so files sort naturally.
const DefaultTemplate = "{index}-{title}.{ext}"

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	tokenPattern = regexp.MustCompile(`\{([a-z_]+)\}`)
)

var knownTokens = map[string]bool{
	"index":      true,
	"title":      true,
	"quality":    true,
	"id":         true,
	"date":       true,
	"audio_only": true,
	"ext":        true,
}

// Fields are the values available to a template.
type Fields struct {
	Index     int
	Title     string
	Quality   string
	ID        string
	Ext       string
	AudioOnly bool
	Date      time.Time
}

// Sanitize strips characters that are invalid in filenames and caps the
// length at 255 bytes. An empty result falls back to "untitled".
func Sanitize(name string) string {
	clean := invalidChars.ReplaceAllString(name, "_")
	clean = strings.TrimSpace(clean)
	if strings.Trim(clean, ".") == "" {
		clean = "untitled"
	}
	if len(clean) > 255 {
		clean = clean[:255]
	}
	return clean
}

// Expand renders the template with the given fields and sanitizes the result.
// Unknown tokens expand to nothing and are returned so the caller can warn.
func Expand(template string, f Fields) (string, []string) {
	if template == "" {
		template = DefaultTemplate
	}
	date := f.Date
	if date.IsZero() {
		date = time.Now()
	}

	var unknown []string
	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		if !knownTokens[m[1]] {
			unknown = append(unknown, m[1])
		}
	}

	replacer := strings.NewReplacer(
		"{index}", fmt.Sprintf("%03d", f.Index),
		"{title}", f.Title,
		"{quality}", f.Quality,
		"{id}", f.ID,
		"{date}", date.Format("2006-01-02"),
		"{audio_only}", fmt.Sprintf("%t", f.AudioOnly),
		"{ext}", f.Ext,
	)
	rendered := replacer.Replace(template)
	for _, tok := range unknown {
		rendered = strings.ReplaceAll(rendered, "{"+tok+"}", "")
	}
	return Sanitize(rendered), unknown
}
