package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	triggerAuto   = "auto"
	triggerManual = "manual"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	polls         *prometheus.CounterVec
	pollDuration  prometheus.Histogram
	interval      *prometheus.GaugeVec
	activeBoards  prometheus.Gauge
	statusUpdates *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderboard",
			Name:      "polls_total",
			Help:      "Order fetches by trigger and result.",
		}, []string{"trigger", "result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orderboard",
			Name:      "poll_duration_seconds",
			Help:      "Latency of order fetches against the backend.",
			Buckets:   prometheus.DefBuckets,
		}),
		interval: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orderboard",
			Name:      "poll_interval_seconds",
			Help:      "Interval chosen for the next automatic poll.",
		}, []string{"venue"}),
		activeBoards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orderboard",
			Name:      "active_boards",
			Help:      "Boards currently mounted.",
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderboard",
			Name:      "status_updates_total",
			Help:      "Admin status transitions by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.polls, m.pollDuration, m.interval, m.activeBoards, m.statusUpdates)
	return m
}

func (m *Metrics) observePoll(trigger string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.polls.WithLabelValues(trigger, result).Inc()
	m.pollDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeInterval(venueID string, d time.Duration) {
	if m == nil {
		return
	}
	m.interval.WithLabelValues(venueID).Set(d.Seconds())
}

func (m *Metrics) boardMounted() {
	if m == nil {
		return
	}
	m.activeBoards.Inc()
}

func (m *Metrics) boardStopped() {
	if m == nil {
		return
	}
	m.activeBoards.Dec()
}

func (m *Metrics) observeStatusUpdate(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.statusUpdates.WithLabelValues(result).Inc()
}
