package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NivBraz/greeting-service/internal/app"
)

func newCountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [sources...]",
		Short: "Count the words of each source through the pipeline",
		Long: "Count fetches every source (http(s) URLs or local files) listed in the\n" +
			"configured sources file, or given as arguments, and prints the counts as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if len(args) > 0 {
				cfg.Sources = args
			} else if err := cfg.LoadSources(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := newPipeline(cfg, log, prometheus.NewRegistry(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			application, err := app.New(cfg, p, log, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			results, runErr := application.Run(ctx)
			if runErr != nil {
				log.Warn("errors occurred during the run", zap.Error(runErr))
			}

			output, err := json.MarshalIndent(results, "", "    ")
			if err != nil {
				return fmt.Errorf("failed to marshal results: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))

			return runErr
		},
	}
	return cmd
}
