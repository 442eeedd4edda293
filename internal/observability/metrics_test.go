package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Created.WithLabelValues("running").Inc()
	m.Created.WithLabelValues("cycling").Add(2)
	m.Workouts.Set(3)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Created.WithLabelValues("running")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Created.WithLabelValues("cycling")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.Workouts))

	count, err := testutil.GatherAndCount(reg, "mapty_workouts_created_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestNewMetricsWithoutRegistry(t *testing.T) {
	m := NewMetrics(nil)
	m.Deleted.Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(m.Deleted))
}
