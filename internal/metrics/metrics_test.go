package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistryRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ReportRaised("critical", "scenario::not-ended")
	m.ActionDispatched("seek", "ok")
	m.ActionTimedOut("wait")
	m.ObserveActionDuration("seek", 0.25)
	m.SetInterlacedInFlight(2)
	m.SinkWriteFailed()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var found bool
	for _, f := range families {
		if f.GetName() == "scenario_reports_total" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			require.Equal(t, float64(1), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(t, found, "expected scenario_reports_total to be registered")
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ReportRaised("critical", "x")
	m.ActionDispatched("seek", "ok")
	m.ActionTimedOut("wait")
	m.ObserveActionDuration("seek", 1)
	m.SetInterlacedInFlight(1)
	m.SinkWriteFailed()
}
