package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("inventory:low_stock").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("inventory:low_stock").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("inventory:low_stock", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("inventory:low_stock", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("inventory:low_stock")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.AddLowStock()
	require.NoError(t, m.Track("job").End(nil))
}

func TestAddLowStock(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddLowStock()
	m.AddLowStock()
	require.Equal(t, 2.0, testutil.ToFloat64(m.lowStock))
}
