package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geoclaim"

// Metrics - набор коллекторов сервиса на собственном реестре
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	GatewayCalls     *prometheus.CounterVec
	GatewayDuration  *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	CatalogSize      prometheus.Gauge
	MineralRegistry  prometheus.Gauge
	ActiveSessions   prometheus.Gauge
	StaleResults     *prometheus.CounterVec
	SearchTiers      *prometheus.CounterVec
	AuditsProcessed  *prometheus.CounterVec
}

// New создает коллекторы и регистрирует их вместе с runtime-коллекторами
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		GatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_gateway_calls_total",
			Help:      "Generative AI calls by operation, mode and outcome.",
		}, []string{"operation", "mode", "outcome"}),
		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_gateway_call_duration_seconds",
			Help:      "Generative AI call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"operation"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound HTTP requests by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		CatalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_localities",
			Help:      "Localities currently loaded from KML.",
		}),
		MineralRegistry: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mineral_registry_entries",
			Help:      "Entries in the mineral image registry.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Map sessions held in memory.",
		}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_stale_results_total",
			Help:      "Panel results discarded because the selection changed.",
		}, []string{"panel"}),
		SearchTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Global search outcomes by tier.",
		}, []string{"tier"}),
		AuditsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_processed_total",
			Help:      "Asynchronous land status audits by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.GatewayCalls,
		m.GatewayDuration,
		m.UpstreamRequests,
		m.CatalogSize,
		m.MineralRegistry,
		m.ActiveSessions,
		m.StaleResults,
		m.SearchTiers,
		m.AuditsProcessed,
	)

	return m
}

// Registry - реестр для тестов и дополнительных коллекторов
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
