package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crosplan/config"
	"crosplan/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent planning runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 10, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	db, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	recs, err := db.ListPlans(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No planning runs recorded.")
		return nil
	}

	for _, rec := range recs {
		fmt.Printf("%s  %s  %-7s  %-9s  %d package(s), %d update(s)\n",
			rec.StartTime.Format("2006-01-02 15:04:05"), rec.UUID[:8],
			rec.Action, rec.Status, len(rec.Installs), rec.NumUpdates)
		fmt.Printf("  requested: %s\n", strings.Join(rec.Requested, " "))
	}
	return nil
}
