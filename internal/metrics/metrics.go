package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing, so components can run without a registry.
type Metrics struct {
	registry *prometheus.Registry

	alertsGenerated    *prometheus.CounterVec
	alertsEvicted      prometheus.Counter
	alertsCleared      prometheus.Counter
	generationFailures prometheus.Counter
	eventsBroadcast    *prometheus.CounterVec
	deliveriesDropped  prometheus.Counter
	generatorEnabled   prometheus.Gauge
	observers          prometheus.Gauge
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		alertsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartfactory_alerts_generated_total",
				Help: "Alerts produced by the generator",
			},
			[]string{"severity"},
		),
		alertsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartfactory_alerts_evicted_total",
			Help: "Alerts removed by the retention cap",
		}),
		alertsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartfactory_alerts_cleared_total",
			Help: "Alerts removed by clear-all",
		}),
		generationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartfactory_generation_failures_total",
			Help: "Generation cycles that failed",
		}),
		eventsBroadcast: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartfactory_events_broadcast_total",
				Help: "Events handed to the websocket hub",
			},
			[]string{"event"},
		),
		deliveriesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartfactory_deliveries_dropped_total",
			Help: "Events dropped because an observer buffer was full",
		}),
		generatorEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartfactory_generator_enabled",
			Help: "1 when the alert generator is running",
		}),
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartfactory_observers",
			Help: "Connected websocket observers",
		}),
	}

	m.registry.MustRegister(
		m.alertsGenerated,
		m.alertsEvicted,
		m.alertsCleared,
		m.generationFailures,
		m.eventsBroadcast,
		m.deliveriesDropped,
		m.generatorEnabled,
		m.observers,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AlertGenerated(severity string) {
	if m == nil {
		return
	}
	m.alertsGenerated.WithLabelValues(severity).Inc()
}

func (m *Metrics) AlertsEvicted(n int) {
	if m == nil {
		return
	}
	m.alertsEvicted.Add(float64(n))
}

func (m *Metrics) AlertsCleared(n int64) {
	if m == nil {
		return
	}
	m.alertsCleared.Add(float64(n))
}

func (m *Metrics) GenerationFailed() {
	if m == nil {
		return
	}
	m.generationFailures.Inc()
}

func (m *Metrics) EventBroadcast(event string) {
	if m == nil {
		return
	}
	m.eventsBroadcast.WithLabelValues(event).Inc()
}

func (m *Metrics) DeliveryDropped() {
	if m == nil {
		return
	}
	m.deliveriesDropped.Inc()
}

func (m *Metrics) SetGeneratorEnabled(on bool) {
	if m == nil {
		return
	}
	if on {
		m.generatorEnabled.Set(1)
	} else {
		m.generatorEnabled.Set(0)
	}
}

func (m *Metrics) SetObservers(n int) {
	if m == nil {
		return
	}
	m.observers.Set(float64(n))
}
