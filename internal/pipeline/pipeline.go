package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NivBraz/greeting-service/internal/telemetry"
	"github.com/NivBraz/greeting-service/pkg/logger"
)

var ErrReporterPanic = errors.New("reporter panicked")

// Pipeline runs a message through Split, Count and a Reporter. It holds no
// per-run state and is safe for concurrent use as long as its Reporter is.
type Pipeline struct {
	reporter Reporter
	logger   logger.Logger
	tracer   trace.Tracer
	metrics  *Metrics
}

type Option func(*Pipeline)

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func New(reporter Reporter, opts ...Option) *Pipeline {
	p := &Pipeline{
		reporter: reporter,
		logger:   logger.NewNoopLogger(),
		tracer:   otel.Tracer("github.com/NivBraz/greeting-service/internal/pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the pipeline once and returns the count that was handed to
// the reporter. Reporter failures are logged, not returned.
func (p *Pipeline) Process(ctx context.Context, message string) int {
	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	defer span.End()

	count := Count(Split(message))
	span.SetAttributes(attribute.Int("pipeline.word_count", count))

	if err := p.report(ctx, count); err != nil {
		telemetry.TraceError(span, err)
		p.metrics.observeReportFailure()
		p.logger.ErrorWithContext(ctx, "failed to report count", zap.Int("count", count), zap.Error(err))
	}

	p.metrics.observeRun()
	return count
}

func (p *Pipeline) report(ctx context.Context, count int) (err error) {
	recovered := panics.Try(func() {
		err = p.reporter.Report(ctx, count)
	})
	if recovered != nil {
		return fmt.Errorf("%w: %w", ErrReporterPanic, recovered.AsError())
	}
	return err
}
