// Package cli wires the cobra commands around the session core.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ytpilot/ytpilot/internal/config"
	"github.com/ytpilot/ytpilot/internal/logging"
)

var (
	cfg config.Config
	log zerolog.Logger
)

// configError marks failures that should exit with code 2 (bad invocation,
// caught before any work starts).
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:           "ytpilot",
	Short:         "Batch-download YouTube playlists and videos with resumable sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		loadConfigFile()
		cfg = config.FromViper(viper.GetViper())
		log = logging.New(cfg.LogLevel, os.Stderr)
		if err := cfg.Validate(); err != nil {
			return configError{err: err}
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("output", "o", config.DefaultOutput, "output directory")
	pf.StringP("quality", "q", config.DefaultQuality, "preferred quality (e.g. 1080p, 720p)")
	pf.BoolP("audio", "a", false, "download best available audio only")
	pf.IntP("jobs", "j", config.DefaultJobs, "max parallel downloads")
	pf.StringSliceP("filter", "f", nil, "keep items whose title contains this (repeatable, OR-combined)")
	pf.String("range", "", "inclusive 1-based index range, start:end (either side open)")
	pf.Bool("force", false, "re-download even when the manifest says success")
	pf.Bool("no-resume", false, "ignore manifest history entirely")
	pf.Bool("captions", false, "fetch captions after each successful download")
	pf.Bool("captions-auto", false, "allow auto-generated captions when no manual track matches")
	pf.StringSlice("caption-langs", []string{"en"}, "preferred caption languages, in order")
	pf.String("template", "", "output filename template ({index},{title},{quality},{id},{date},{audio_only},{ext})")
	pf.BoolP("interactive", "i", false, "confirm each target before downloading")
	pf.Bool("json", false, "emit machine-readable JSON output")
	pf.String("log-level", "info", "log level: debug, info, warn, error, quiet")
	pf.Duration("timeout", config.DefaultTimeout, "per-request timeout")
	pf.Int("retries", config.DefaultRetries, "per-item download retry attempts")
	pf.String("history-db", "", "path to the download history database")

	viper.SetEnvPrefix("YTPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadConfigFile() {
	base, err := os.UserConfigDir()
	if err != nil {
		return
	}
	path := filepath.Join(base, "ytpilot", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return
	}
	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: config file %s ignored: %v\n", path, err)
	}
}

// Execute runs the CLI and returns the process exit code: 0 on success, 1
// when any item failed, 2 for configuration errors.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errItemsFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		var ce configError
		if errors.As(err, &ce) {
			return 2
		}
		return 1
	}
	return 0
}

var errItemsFailed = errors.New("one or more items failed")
