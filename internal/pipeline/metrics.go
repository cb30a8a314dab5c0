package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "greeting"

// Metrics holds the pipeline's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	wordsReported  prometheus.Counter
	countSize      prometheus.Histogram
	runs           prometheus.Counter
	reportFailures prometheus.Counter
	dispatched     prometheus.Counter
	dropped        *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		wordsReported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_words_reported_total",
			Help:      "The total number of words reported by the metrics reporter.",
		}),
		countSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_word_count",
			Help:      "The word count of each reported message.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_runs_total",
			Help:      "The total number of completed pipeline runs.",
		}),
		reportFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_report_failures_total",
			Help:      "The total number of reports that returned an error or panicked.",
		}),
		dispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_dispatched_total",
			Help:      "The total number of messages accepted by the dispatcher.",
		}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_dropped_total",
			Help:      "The total number of messages the dispatcher did not accept.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) observeRun() {
	if m != nil {
		m.runs.Inc()
	}
}

func (m *Metrics) observeReportFailure() {
	if m != nil {
		m.reportFailures.Inc()
	}
}

func (m *Metrics) observeDispatched() {
	if m != nil {
		m.dispatched.Inc()
	}
}

func (m *Metrics) observeDropped(reason string) {
	if m != nil {
		m.dropped.WithLabelValues(reason).Inc()
	}
}
