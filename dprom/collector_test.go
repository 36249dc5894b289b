package dprom_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"github.com/uklotzde/discro"
	"github.com/uklotzde/discro/dprom"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.Metric {
	t.Helper()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.Metric, len(mfs))
	for _, mf := range mfs {
		require.Len(t, mf.GetMetric(), 1)
		out[mf.GetName()] = mf.GetMetric()[0]
	}
	return out
}

func TestCollector(t *testing.T) {
	t.Parallel()

	pub, sub := discro.NewObservable(0)
	defer sub.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(dprom.NewCollector(pub.Observe(), dprom.CollectorConfig{
		Subsystem:   "test",
		ConstLabels: prometheus.Labels{"observable": "counter"},
	}))

	m := gather(t, reg)
	require.Equal(t, 1.0, m["discro_test_revision"].GetCounter().GetValue())
	require.Equal(t, 1.0, m["discro_test_subscribers"].GetGauge().GetValue())
	require.Equal(t, 0.0, m["discro_test_closed"].GetGauge().GetValue())

	require.Len(t, m["discro_test_revision"].GetLabel(), 1)
	require.Equal(t, "observable", m["discro_test_revision"].GetLabel()[0].GetName())
	require.Equal(t, "counter", m["discro_test_revision"].GetLabel()[0].GetValue())

	pub.Set(1)
	pub.Set(2)
	other := pub.Subscribe()
	defer other.Close()
	pub.Close()

	m = gather(t, reg)
	require.Equal(t, 3.0, m["discro_test_revision"].GetCounter().GetValue())
	require.Equal(t, 2.0, m["discro_test_subscribers"].GetGauge().GetValue())
	require.Equal(t, 1.0, m["discro_test_closed"].GetGauge().GetValue())
}
