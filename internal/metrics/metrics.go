// Package metrics provides the scenario engine's optional Prometheus
// collectors, adapted from the service layer's metrics package but scoped
// to reports and action dispatch instead of HTTP/database/blockchain
// concerns.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector the engine touches. All fields are safe to
// use on a nil *Metrics (every method is a nil-receiver no-op), so a host
// embedding the engine in a unit test need not stand up a registry.
type Metrics struct {
	ReportsTotal        *prometheus.CounterVec
	ActionsDispatched   *prometheus.CounterVec
	ActionsTimedOut     *prometheus.CounterVec
	ActionDuration      *prometheus.HistogramVec
	InterlacedInFlight  prometheus.Gauge
	SinkWriteFailures   prometheus.Counter
}

// New creates a Metrics instance registered against the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against a custom
// registerer, so tests can use their own prometheus.Registry per run.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenario_reports_total",
			Help: "Total number of reports raised, by severity.",
		}, []string{"severity", "issue"}),
		ActionsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenario_actions_dispatched_total",
			Help: "Total number of actions dispatched, by action type and outcome.",
		}, []string{"action_type", "outcome"}),
		ActionsTimedOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scenario_actions_timed_out_total",
			Help: "Total number of action timeouts raised, by action type.",
		}, []string{"action_type"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scenario_action_duration_seconds",
			Help:    "Wall-clock duration of completed actions.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		}, []string{"action_type"}),
		InterlacedInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scenario_interlaced_actions_in_flight",
			Help: "Number of interlaced actions awaiting completion.",
		}),
		SinkWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scenario_report_sink_write_failures_total",
			Help: "Total number of report-sink write failures (log file or remote stream).",
		}),
	}

	if registerer != nil {
		for _, c := range []prometheus.Collector{
			m.ReportsTotal, m.ActionsDispatched, m.ActionsTimedOut,
			m.ActionDuration, m.InterlacedInFlight, m.SinkWriteFailures,
		} {
			_ = registerer.Register(c)
		}
	}

	return m
}

func (m *Metrics) ReportRaised(severity, issue string) {
	if m == nil || m.ReportsTotal == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(severity, issue).Inc()
}

func (m *Metrics) ActionDispatched(actionType, outcome string) {
	if m == nil || m.ActionsDispatched == nil {
		return
	}
	m.ActionsDispatched.WithLabelValues(actionType, outcome).Inc()
}

func (m *Metrics) ActionTimedOut(actionType string) {
	if m == nil || m.ActionsTimedOut == nil {
		return
	}
	m.ActionsTimedOut.WithLabelValues(actionType).Inc()
}

func (m *Metrics) ObserveActionDuration(actionType string, seconds float64) {
	if m == nil || m.ActionDuration == nil {
		return
	}
	m.ActionDuration.WithLabelValues(actionType).Observe(seconds)
}

func (m *Metrics) SetInterlacedInFlight(n int) {
	if m == nil || m.InterlacedInFlight == nil {
		return
	}
	m.InterlacedInFlight.Set(float64(n))
}

func (m *Metrics) SinkWriteFailed() {
	if m == nil || m.SinkWriteFailures == nil {
		return
	}
	m.SinkWriteFailures.Inc()
}
