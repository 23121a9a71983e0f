package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ytpilot/ytpilot/internal/report"
	"github.com/ytpilot/ytpilot/internal/session"
	"github.com/ytpilot/ytpilot/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui <url>...",
	Short: "Download with a live terminal view",
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
		opts.Interactive = false // the TUI replaces per-target prompts

		// The TUI owns the terminal; the session context is cancelled
		// cooperatively from inside it.
		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		result, err := tui.Run(context.Background(), cancel, func(notify func(session.Event)) (*session.Result, error) {
			sess.Notify = notify
			plan, err := sess.Plan(runCtx, args, opts)
			if err != nil {
				return nil, err
			}
			return sess.Execute(runCtx, plan, opts)
		})
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}

		if _, err := report.Write(result, cfg.OutputDir); err != nil {
			log.Warn().Err(err).Msg("report write failed")
		}
		printResult(result, cfg.JSON)
		if result.Failed > 0 {
			return errItemsFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
