package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"locmirror/internal/daemon"
	"locmirror/internal/logger"
	"locmirror/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run history over HTTP for fleet monitoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		port := servePort
		if !cmd.Flags().Changed("port") {
			port = cfg.ServePort
		}

		server := daemon.NewServer(repository.NewRunRepository(), port)
		server.Start()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Log.Info("shutting down status server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			logger.Log.Warn("shutdown error", zap.Error(err))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port for the status server")
	rootCmd.AddCommand(serveCmd)
}
