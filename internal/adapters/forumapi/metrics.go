package forumapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sunrise/internal/adapters/perf"
)

// Metrics records backend calls and poll ticks to Prometheus and the perf collector.
// A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	pollTicks *prometheus.CounterVec
	collector *perf.Collector
}

// NewMetrics registers the backend metrics with reg. collector may be nil.
// PRE: reg has not already registered these metric names
func NewMetrics(reg prometheus.Registerer, collector *perf.Collector) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Forum backend calls by operation and HTTP status (-1 when no response).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sunrise",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Forum backend call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		pollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "forum",
			Name:      "poll_ticks_total",
			Help:      "Message list refreshes triggered by the poll timer, by outcome.",
		}, []string{"outcome"}),
		collector: collector,
	}
	reg.MustRegister(m.requests, m.duration, m.pollTicks)
	return m
}

func (m *Metrics) observe(op string, status int, start time.Time) {
	if m == nil {
		return
	}
	ms := m.collector.Observe(perf.KindBackend, op, status, start)
	m.requests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(op).Observe(ms / 1000.0)
}

// PollTick counts one poll-driven refresh.
func (m *Metrics) PollTick(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.pollTicks.WithLabelValues(outcome).Inc()
}
