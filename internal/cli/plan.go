package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <url>...",
	Short: "Dry-run: show what a run would download, without downloading",
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
		opts.Interactive = false // a dry-run never prompts

		plan, err := sess.Plan(context.Background(), args, opts)
		if err != nil {
			return configError{err: err}
		}

		if cfg.JSON {
			type plannedVideo struct {
				Index   int    `json:"index"`
				VideoID string `json:"videoId"`
				Title   string `json:"title"`
				Quality string `json:"preferredQuality"`
				Skip    bool   `json:"skip"`
			}
			payload := struct {
				Targets int            `json:"targets"`
				Videos  []plannedVideo `json:"videos"`
			}{Targets: plan.Targets, Videos: []plannedVideo{}}
			for _, pi := range plan.Items {
				payload.Videos = append(payload.Videos, plannedVideo{
					Index:   pi.Item.Index,
					VideoID: pi.Item.ID,
					Title:   pi.Item.Title,
					Quality: pi.Item.PreferredQuality,
					Skip:    pi.Skip,
				})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}

		for _, te := range plan.TargetErrors {
			fmt.Printf("target unavailable: %s (%v)\n", te.URL, te.Err)
		}
		for _, pi := range plan.Items {
			mark := "do  "
			if pi.Skip {
				mark = "skip"
			}
			fmt.Printf("  [%03d] %s %s (%s)\n", pi.Item.Index, mark, pi.Item.Title, pi.Item.ID)
		}
		fmt.Printf("planned: %d to download, %d skipped\n",
			len(plan.ToDo()), plan.SkippedCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
