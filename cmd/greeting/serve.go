package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NivBraz/greeting-service/internal/config"
	"github.com/NivBraz/greeting-service/internal/pipeline"
	"github.com/NivBraz/greeting-service/internal/server"
	"github.com/NivBraz/greeting-service/internal/telemetry"
	"github.com/NivBraz/greeting-service/pkg/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the greeting endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if cfg.Trace.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx,
			telemetry.WithOTLPEndpoint(cfg.Trace.OTLPEndpoint),
			telemetry.WithServiceName(cfg.Trace.ServiceName),
			telemetry.WithSampler(cfg.Trace.Sampler, cfg.Trace.Ratio),
		)
		if err != nil {
			return err
		}
		log.Info("tracing enabled", zap.String("sampler", cfg.Trace.Sampler), zap.String("endpoint", cfg.Trace.OTLPEndpoint))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := errors.Join(tp.ForceFlush(shutdownCtx), tp.Shutdown(shutdownCtx)); err != nil {
				log.Error("failed to shut down tracer provider", zap.Error(err))
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p, err := newPipeline(cfg, log, reg, os.Stderr)
	if err != nil {
		return err
	}
	dispatcher := pipeline.NewDispatcher(p, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			log.Warn("pipeline did not drain before shutdown", zap.Error(err))
		}
	}()

	if cfg.Metrics.Enabled {
		metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(reg)}
		go func() {
			log.Info("starting prometheus metrics server", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("failed to start prometheus metrics server", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
			log.Info("metrics server shut down.")
		}()
	}

	srv := server.New(cfg.Greeting.Message, dispatcher,
		server.WithLogger(log),
		server.WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		server.WithCORSAllowedOrigins(cfg.Server.CORSAllowedOrigins),
		server.WithTracing(cfg.Trace.Enabled),
		server.WithRegisterer(reg),
	)

	return srv.ListenAndServe(ctx, cfg.Server.Addr, server.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	})
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
