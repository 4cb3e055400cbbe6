package metric

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndUnregister(t *testing.T) {
	reg := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tooling_operations_total",
		Help: "Test counter",
	})
	require.NoError(t, reg.Register("tooling.operations", counter))

	err := reg.Register("tooling.operations", counter)
	require.Error(t, err, "duplicate name must be rejected")

	assert.True(t, reg.Unregister("tooling.operations"))
	assert.False(t, reg.Unregister("tooling.operations"))

	// After unregistering, the name is free again.
	require.NoError(t, reg.Register("tooling.operations", counter))
}

func TestRegistryRejectsPrometheusConflicts(t *testing.T) {
	reg := NewRegistry()

	a := prometheus.NewCounter(prometheus.CounterOpts{Name: "conflict_total", Help: "a"})
	b := prometheus.NewCounter(prometheus.CounterOpts{Name: "conflict_total", Help: "a"})

	require.NoError(t, reg.Register("first", a))
	require.Error(t, reg.Register("second", b))
}

func TestCoreMetricsGather(t *testing.T) {
	reg := NewRegistry()
	m := reg.Core()

	m.RecordMutation("processor", "add")
	m.RecordInvalidation("InvalidOutput")
	m.RecordSortDuration(50 * time.Microsecond)

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["inviwo_network_processors"])
	assert.True(t, names["inviwo_network_mutations_total"])
	assert.True(t, names["inviwo_network_invalidations_total"])
	assert.True(t, names["inviwo_network_sort_duration_seconds"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := NewRegistry()
	reg.Core().RecordMutation("link", "add")

	handler := promhttp.HandlerFor(reg.PrometheusRegistry(), promhttp.HandlerOpts{})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerLifecycle(t *testing.T) {
	s := NewServer("", "", nil)
	require.Error(t, s.Start(), "nil registry must be rejected")

	s = NewServer(":0", "/metrics", NewRegistry())
	require.NoError(t, s.Stop(), "stopping an idle server is a no-op")
}
