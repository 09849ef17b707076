package cmd

import (
	"fmt"

	"locmirror/internal/classify"
	"locmirror/internal/model"
	"locmirror/internal/repository"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
	historyStats  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past mirror runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewRunRepository()

		if historyStats {
			stats, err := repo.GetStats()
			if err != nil {
				return err
			}
			fmt.Printf("total: %d  success: %d  warning: %d  error: %d\n",
				stats.Total, stats.Success, stats.Warning, stats.Error)
			return nil
		}

		var runs []model.RunRecord
		var err error
		if historyFailed {
			runs, err = repo.GetFailed()
		} else {
			runs, err = repo.GetRecent(historyN)
		}
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("no runs yet")
			return nil
		}

		for _, r := range runs {
			marker := "✓"
			switch classify.Band(r.Band) {
			case classify.BandWarning:
				marker = "!"
			case classify.BandError:
				marker = "✗"
			}

			line := fmt.Sprintf("%s [%s] loc=%s code=%d band=%s",
				marker,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.LocationCode,
				r.OverallCode,
				r.Band)
			if r.DryRun {
				line += " (dry-run)"
			}
			if r.Aborted {
				line += " aborted: " + r.AbortReason
			}
			fmt.Println(line)
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of runs to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "show only failed runs")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show aggregate run counts")
	rootCmd.AddCommand(historyCmd)
}
