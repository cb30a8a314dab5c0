package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/NivBraz/greeting-service/pkg/logger"
)

// Reporter is the terminal stage of a pipeline run. Errors returned from
// Report are logged by the pipeline and never reach the trigger.
type Reporter interface {
	Report(ctx context.Context, count int) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, count int) error

func (f ReporterFunc) Report(ctx context.Context, count int) error {
	return f(ctx, count)
}

// ConsoleReporter writes "Count: <n>" lines to a writer.
type ConsoleReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (r *ConsoleReporter) Report(_ context.Context, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.w, "Count: %d\n", count)
	return err
}

type LogReporter struct {
	logger logger.Logger
}

func NewLogReporter(l logger.Logger) *LogReporter {
	return &LogReporter{logger: l}
}

func (r *LogReporter) Report(ctx context.Context, count int) error {
	r.logger.InfoWithContext(ctx, "count reported", zap.Int("count", count))
	return nil
}

// MetricsReporter records reported counts in prometheus.
type MetricsReporter struct {
	metrics *Metrics
}

func NewMetricsReporter(m *Metrics) *MetricsReporter {
	return &MetricsReporter{metrics: m}
}

func (r *MetricsReporter) Report(_ context.Context, count int) error {
	r.metrics.wordsReported.Add(float64(count))
	r.metrics.countSize.Observe(float64(count))
	return nil
}

// MultiReporter hands every count to each of its reporters, even when an
// earlier one fails.
type MultiReporter []Reporter

func (m MultiReporter) Report(ctx context.Context, count int) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, count); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewReporter builds the reporter chain named by names ("console", "log",
// "metrics"). A single name yields that reporter unwrapped.
func NewReporter(names []string, w io.Writer, l logger.Logger, m *Metrics) (Reporter, error) {
	var reporters MultiReporter
	for _, name := range names {
		switch name {
		case "console":
			reporters = append(reporters, NewConsoleReporter(w))
		case "log":
			reporters = append(reporters, NewLogReporter(l))
		case "metrics":
			if m == nil {
				return nil, fmt.Errorf("metrics reporter requires metrics")
			}
			reporters = append(reporters, NewMetricsReporter(m))
		default:
			return nil, fmt.Errorf("unknown reporter %q", name)
		}
	}

	switch len(reporters) {
	case 0:
		return nil, fmt.Errorf("at least one reporter is required")
	case 1:
		return reporters[0], nil
	}
	return reporters, nil
}
