package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

func TestDispatcher_ConcurrentRunsAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	d := NewDispatcher(New(rec), 4, 64)

	const n = 50
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(words int) {
			defer wg.Done()
			assert.True(t, d.Dispatch(context.Background(), strings.Repeat("word ", words)))
		}(i)
	}
	wg.Wait()

	require.NoError(t, d.Close(context.Background()))

	got := rec.Counts()
	sort.Ints(got)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	require.Equal(t, want, got)
}

func TestDispatcher_DropsWhenFullOrClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	blocking := ReporterFunc(func(context.Context, int) error {
		started <- struct{}{}
		<-release
		return nil
	})

	metrics := NewMetrics(prometheus.NewRegistry())
	d := NewDispatcher(New(blocking, WithMetrics(metrics)), 1, 1)

	require.True(t, d.Dispatch(context.Background(), "first"))
	<-started
	require.True(t, d.Dispatch(context.Background(), "second"))
	require.False(t, d.Dispatch(context.Background(), "third"))

	close(release)
	require.NoError(t, d.Close(context.Background()))
	require.False(t, d.Dispatch(context.Background(), "late"))

	require.InDelta(t, 2, testutil.ToFloat64(metrics.dispatched), 0)
	require.InDelta(t, 1, testutil.ToFloat64(metrics.dropped.WithLabelValues(dropReasonQueueFull)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(metrics.dropped.WithLabelValues(dropReasonClosed)), 0)
	require.InDelta(t, 2, testutil.ToFloat64(metrics.runs), 0)
}

func TestDispatcher_CloseHonorsContext(t *testing.T) {
	release := make(chan struct{})
	blocking := ReporterFunc(func(context.Context, int) error {
		<-release
		return nil
	})

	d := NewDispatcher(New(blocking), 1, 1)
	require.True(t, d.Dispatch(context.Background(), "stuck"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_CallerCancellationDoesNotStopRun(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(New(rec), 1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, d.Dispatch(ctx, "Hello World!"))
	cancel()

	require.NoError(t, d.Close(context.Background()))
	require.Equal(t, []int{2}, rec.Counts())
}

func TestDispatcher_LinksCallerSpan(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("test")

	d := NewDispatcher(New(&recorder{}, WithTracer(tracer)), 1, 4)

	ctx, parent := tracer.Start(context.Background(), "GET /greeting")
	require.True(t, d.Dispatch(ctx, "Hello World!"))
	parent.End()

	require.NoError(t, d.Close(context.Background()))

	var dispatch sdktrace.ReadOnlySpan
	for _, s := range spans.Ended() {
		if s.Name() == "pipeline.dispatch" {
			dispatch = s
		}
	}
	require.NotNil(t, dispatch)
	require.Len(t, dispatch.Links(), 1)
	require.Equal(t, parent.SpanContext().TraceID(), dispatch.Links()[0].SpanContext.TraceID())
	require.NotEqual(t, parent.SpanContext().TraceID(), dispatch.SpanContext().TraceID())
}
