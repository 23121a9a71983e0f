package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ytpilot/ytpilot/internal/report"
	"github.com/ytpilot/ytpilot/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run <url>...",
	Short: "Plan and download the given playlists or videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cleanup, err := buildSession(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		opts, err := sessionOptions(cfg)
		if err != nil {
			return err
		}

		// Ctrl-C drains in-flight downloads and drops the rest.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		plan, err := sess.Plan(ctx, args, opts)
		if err != nil {
			return configError{err: err}
		}
		log.Info().Int("targets", plan.Targets).Int("items", len(plan.Items)).
			Int("skipped", plan.SkippedCount()).Msg("session planned")

		result, err := sess.Execute(ctx, plan, opts)
		if err != nil {
			return err
		}

		if path, err := report.Write(result, cfg.OutputDir); err != nil {
			log.Warn().Err(err).Msg("report write failed")
		} else {
			log.Debug().Str("path", path).Msg("report written")
		}

		printResult(result, cfg.JSON)
		if result.Failed > 0 {
			return errItemsFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func printResult(result *session.Result, asJSON bool) {
	if asJSON {
		payload := struct {
			Summary session.Summary `json:"summary"`
		}{Summary: result.Summary()}
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(payload)
		return
	}

	fmt.Printf("targets: %d  videos: %d  success: %d  failed: %d  skipped: %d\n",
		result.Targets, result.TotalVideos, result.Success, result.Failed, result.Skipped)
	if result.Cancelled > 0 {
		fmt.Printf("cancelled: %d\n", result.Cancelled)
	}
	for _, res := range result.Items {
		item := res.Item
		switch item.Status {
		case session.StatusFailed:
			fmt.Printf("  [%03d] FAIL %s: %s\n", item.Index, item.Title, item.FailReason)
		case session.StatusSuccess:
			fmt.Printf("  [%03d] ok   %s -> %s\n", item.Index, item.Title, item.OutputPath)
		}
	}
}
