package pipeline

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NivBraz/greeting-service/pkg/logger"
)

const (
	dropReasonQueueFull = "queue_full"
	dropReasonClosed    = "closed"
)

// Job is one queued pipeline run.
type Job struct {
	Message string
	// Link points back at the span that dispatched the job, if any.
	Link trace.Link
}

// Dispatcher runs messages through a Pipeline in the background. Callers
// never wait on a run and cannot observe its outcome.
type Dispatcher struct {
	pipeline *Pipeline
	logger   logger.Logger
	metrics  *Metrics

	jobs    chan Job
	workers *pool.Pool
	done    chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewDispatcher starts workers goroutines draining a queue of queueSize jobs.
func NewDispatcher(p *Pipeline, workers, queueSize int) *Dispatcher {
	d := &Dispatcher{
		pipeline: p,
		logger:   p.logger,
		metrics:  p.metrics,
		jobs:     make(chan Job, queueSize),
		workers:  pool.New().WithMaxGoroutines(workers),
		done:     make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		d.workers.Go(d.work)
	}

	return d
}

// Dispatch queues message without blocking. It returns false when the
// message was dropped because the queue is full or the dispatcher is closed.
// ctx is only used to link the run to the caller's span; cancelling it does
// not affect the run.
func (d *Dispatcher) Dispatch(ctx context.Context, message string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.observeDropped(dropReasonClosed)
		d.logger.WarnWithContext(ctx, "dispatcher closed, dropping message")
		return false
	}

	job := Job{Message: message, Link: trace.LinkFromContext(ctx)}
	select {
	case d.jobs <- job:
		d.metrics.observeDispatched()
		return true
	default:
		d.metrics.observeDropped(dropReasonQueueFull)
		d.logger.WarnWithContext(ctx, "pipeline queue full, dropping message", zap.Int("queue_size", cap(d.jobs)))
		return false
	}
}

func (d *Dispatcher) work() {
	for job := range d.jobs {
		d.run(job)
	}
}

func (d *Dispatcher) run(job Job) {
	var opts []trace.SpanStartOption
	if job.Link.SpanContext.IsValid() {
		opts = append(opts, trace.WithLinks(job.Link))
	}
	ctx, span := d.pipeline.tracer.Start(context.Background(), "pipeline.dispatch", opts...)
	defer span.End()

	d.pipeline.Process(ctx, job.Message)
}

// Close stops accepting messages and waits until every queued message has
// been processed or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()

		go func() {
			d.workers.Wait()
			close(d.done)
		}()
	})

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
