package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"locmirror/internal/classify"
	"locmirror/internal/engine"
	"locmirror/internal/location"
	"locmirror/internal/logger"
	"locmirror/internal/orchestrator"
	"locmirror/internal/preflight"
	"locmirror/internal/report"
	"locmirror/internal/repository"
	"locmirror/internal/retention"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mirrorHost          string
	mirrorDryRun        bool
	mirrorForce         bool
	mirrorLogRoot       string
	mirrorRetentionDays int
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Run the mirror pipeline for this location",
	Long: `Resolves the location from the hostname, validates preconditions,
mirrors the share and profile directories through the copy engine,
classifies the combined outcome, writes a summary, alerts, and prunes
old logs. The process exit code is the classified overall code;
98 and 99 are reserved for preflight aborts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		hostname := mirrorHost
		if hostname == "" {
			var err error
			hostname, err = os.Hostname()
			if err != nil {
				return fmt.Errorf("failed to get hostname: %w", err)
			}
		}

		logRoot := mirrorLogRoot
		if logRoot == "" {
			logRoot = cfg.LogRoot
		}
		if err := os.MkdirAll(logRoot, 0755); err != nil {
			return fmt.Errorf("failed to create log root: %w", err)
		}

		retentionDays := mirrorRetentionDays
		if !cmd.Flags().Changed("retention-days") {
			retentionDays = cfg.RetentionDays
		}

		rules := make([]classify.Rule, 0, len(cfg.SeverityRules))
		for _, r := range cfg.SeverityRules {
			rules = append(rules, classify.Rule{Max: r.Max, Band: classify.Band(r.Band)})
		}
		classifier, err := classify.NewClassifier(rules)
		if err != nil {
			return fmt.Errorf("invalid severity rules: %w", err)
		}

		comps := orchestrator.Components{
			Resolver: location.NewResolver(location.Templates{
				SourceShare:   cfg.SourceShare,
				SourceProfile: cfg.SourceProfile,
				DestShare:     cfg.DestShare,
				DestProfile:   cfg.DestProfile,
			}),
			Validator: preflight.NewValidator(
				preflight.NewExecScanner(cfg.Engine.Binary),
				preflight.NewDiskProbe(),
				cfg.CapacityWarnRatio,
			),
			Runner: engine.NewRunner(
				engine.NewExecEngine(cfg.Engine),
				time.Duration(cfg.Engine.TimeoutMin)*time.Minute,
			),
			Classifier: classifier,
			Summary:    report.NewSummaryWriter(logRoot),
			Alerts:     report.NewDispatcher(cfg.AlertAPIURL, cfg.AlertAPIKey, cfg.AlertResponders),
			Retention:  retention.NewManager(logRoot),
			Store:      repository.NewRunRepository(),
		}

		runID := uuid.NewString()
		logger.Log.Info("starting mirror run",
			zap.String("run_id", runID),
			zap.String("hostname", hostname),
			zap.Bool("dry_run", mirrorDryRun))

		orch := orchestrator.NewOrchestrator(runID, hostname, logRoot, retentionDays,
			orchestrator.Options{DryRun: mirrorDryRun, Force: mirrorForce}, comps)

		code := orch.Run(context.Background())

		logger.Sync()
		os.Exit(code)
		return nil
	},
}

func init() {
	mirrorCmd.Flags().StringVar(&mirrorHost, "host", "", "Override the server hostname (defaults to this machine)")
	mirrorCmd.Flags().BoolVar(&mirrorDryRun, "dry-run", false, "Report what would be mirrored without changing the destination")
	mirrorCmd.Flags().BoolVar(&mirrorForce, "force", false, "Bypass the concurrent-run guard")
	mirrorCmd.Flags().StringVar(&mirrorLogRoot, "log-root", "", "Override the log root directory")
	mirrorCmd.Flags().IntVar(&mirrorRetentionDays, "retention-days", 0, "Override the log retention horizon")
	rootCmd.AddCommand(mirrorCmd)
}
