// Command bookmarksummarizer turns recent channel posts into archived summaries.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"BookmarkSummarizer/internal/app"
	"BookmarkSummarizer/internal/config"
	"BookmarkSummarizer/internal/logging"
)

func main() {
	var configPath string
	var dryRun bool

	setup := func(ctx context.Context) (*app.Application, error) {
		cfg := config.Load(configPath)
		logger := logging.New(cfg.Logging.Level)
		application, err := app.New(ctx, cfg, logger, app.Options{DryRun: dryRun})
		if err != nil {
			logger.Error("application setup failed", "error", err)
			return nil, err
		}
		return application, nil
	}

	rootCmd := &cobra.Command{
		Use:           "bookmarksummarizer",
		Short:         "Summarize recent posts into date-partitioned documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			application, err := setup(ctx)
			if err != nil {
				return err
			}
			application.Run(ctx)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: $SUMMARIZER_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "keep documents in memory and log the digest instead of sending it")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on the configured cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			application, err := setup(ctx)
			if err != nil {
				return err
			}
			return application.Serve(ctx)
		},
	}

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
