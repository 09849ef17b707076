package cmd

import (
	"fmt"

	"locmirror/internal/logger"
	"locmirror/internal/retention"

	"github.com/spf13/cobra"
)

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete log files older than the retention horizon",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		days := pruneDays
		if !cmd.Flags().Changed("days") {
			days = cfg.RetentionDays
		}

		deleted, failed, err := retention.NewManager(cfg.LogRoot).Prune(days)
		if err != nil {
			return err
		}

		fmt.Printf("pruned %d files, %d failed\n", deleted, failed)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "retention horizon in days (0 disables)")
	rootCmd.AddCommand(pruneCmd)
}
