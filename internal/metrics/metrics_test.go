package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AlertGenerated("info")
		m.AlertsEvicted(2)
		m.AlertsCleared(3)
		m.GenerationFailed()
		m.EventBroadcast("new-alert")
		m.DeliveryDropped()
		m.SetGeneratorEnabled(true)
		m.SetObservers(4)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCounters(t *testing.T) {
	m := New()
	m.AlertGenerated("error")
	m.AlertGenerated("error")
	m.AlertsEvicted(2)
	m.SetGeneratorEnabled(true)
	m.SetObservers(3)

	body := scrape(t, m)
	assert.Contains(t, body, `smartfactory_alerts_generated_total{severity="error"} 2`)
	assert.Contains(t, body, "smartfactory_alerts_evicted_total 2")
	assert.Contains(t, body, "smartfactory_generator_enabled 1")
	assert.Contains(t, body, "smartfactory_observers 3")

	m.SetGeneratorEnabled(false)
	assert.Contains(t, scrape(t, m), "smartfactory_generator_enabled 0")
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.EventBroadcast("alerts-cleared")

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, `smartfactory_events_broadcast_total{event="alerts-cleared"} 1`), body)
	assert.Contains(t, body, "go_goroutines")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
