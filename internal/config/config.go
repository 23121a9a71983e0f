// Package config resolves flags, environment and the optional config file
// into one validated settings struct.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ytpilot/ytpilot/internal/session"
)

// Defaults mirrored in the CLI flag definitions.
const (
	DefaultJobs    = 4
	DefaultQuality = "720p"
	DefaultOutput  = "downloads"
	DefaultRetries = 2
	DefaultTimeout = 3 * time.Minute
)

// Config is the validated, fully-resolved configuration for one invocation.
type Config struct {
	OutputDir    string
	Quality      string
	AudioOnly    bool
	Jobs         int
	Filters      []string
	Range        string
	Force        bool
	Resume       bool
	Captions     bool
	CaptionsAuto bool
	CaptionLangs []string
	Template     string
	Interactive  bool
	JSON         bool
	LogLevel     string
	Timeout      time.Duration
	Retries      int
	HistoryPath  string
}

// FromViper pulls settings out of viper after flags/env/file merging.
func FromViper(v *viper.Viper) Config {
	cfg := Config{
		OutputDir:    v.GetString("output"),
		Quality:      v.GetString("quality"),
		AudioOnly:    v.GetBool("audio"),
		Jobs:         v.GetInt("jobs"),
		Filters:      v.GetStringSlice("filter"),
		Range:        v.GetString("range"),
		Force:        v.GetBool("force"),
		Resume:       !v.GetBool("no-resume"),
		Captions:     v.GetBool("captions"),
		CaptionsAuto: v.GetBool("captions-auto"),
		CaptionLangs: v.GetStringSlice("caption-langs"),
		Template:     v.GetString("template"),
		Interactive:  v.GetBool("interactive"),
		JSON:         v.GetBool("json"),
		LogLevel:     v.GetString("log-level"),
		Timeout:      v.GetDuration("timeout"),
		Retries:      v.GetInt("retries"),
		HistoryPath:  v.GetString("history-db"),
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = defaultHistoryPath()
	}
	return cfg
}

// Validate rejects invalid concurrency and index ranges up front, before any
// work starts.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("--jobs: %w (got %d)", session.ErrInvalidConcurrency, c.Jobs)
	}
	if _, _, err := session.ParseIndexRange(c.Range); err != nil {
		return fmt.Errorf("--range: %w", err)
	}
	if c.OutputDir == "" {
		return errors.New("--output must not be empty")
	}
	return nil
}

// FilterSpec builds the evaluator spec from the configured filters and range.
func (c *Config) FilterSpec() (session.FilterSpec, error) {
	start, end, err := session.ParseIndexRange(c.Range)
	if err != nil {
		return session.FilterSpec{}, err
	}
	return session.FilterSpec{Substrings: c.Filters, Start: start, End: end}, nil
}

// EffectiveForce reports whether resume skips are disabled for this run.
func (c *Config) EffectiveForce() bool {
	return c.Force || !c.Resume
}

func defaultHistoryPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "ytpilot-history.db"
	}
	return filepath.Join(base, "ytpilot", "history.db")
}
