package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ytpilot/ytpilot/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent completed downloads from the local catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.Recent(historyLimit)
		if err != nil {
			return err
		}

		if cfg.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		for _, rec := range records {
			fmt.Printf("%s  %-11s %-8s %s\n",
				rec.CompletedAt.Format("2006-01-02 15:04"), rec.VideoID, rec.Quality, rec.Title)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max records to show")
	rootCmd.AddCommand(historyCmd)
}
