package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NivBraz/greeting-service/internal/build"
	"github.com/NivBraz/greeting-service/internal/config"
	"github.com/NivBraz/greeting-service/internal/pipeline"
	"github.com/NivBraz/greeting-service/pkg/logger"
)

const configFlag = "config"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "greeting",
		Short:        "Greeting service with a word count pipeline",
		Version:      fmt.Sprintf("%s (%s)", build.Version, build.Commit),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String(configFlag, config.DefaultConfigPath, "path to the YAML configuration file")

	cmd.AddCommand(newServeCommand(), newCountCommand())
	return cmd
}

// setup loads the configuration and the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *logger.ZapLogger, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}

// newPipeline composes the pipeline from the configured reporters.
func newPipeline(cfg *config.Config, log logger.Logger, reg prometheus.Registerer, console io.Writer) (*pipeline.Pipeline, error) {
	metrics := pipeline.NewMetrics(reg)

	reporter, err := pipeline.NewReporter(cfg.Pipeline.Reporters, console, log, metrics)
	if err != nil {
		return nil, err
	}

	return pipeline.New(reporter,
		pipeline.WithLogger(log.With(zap.String("component", "pipeline"))),
		pipeline.WithMetrics(metrics),
	), nil
}
