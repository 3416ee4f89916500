package observability

import (
	"fmt"
	"net/http"

	"resumetailor/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

const defaultPrometheusEndpoint = "/metrics"

type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
}

// SetupPrometheusExporter returns an OTel reader backed by a private
// registry, along with the scrape handler for that registry. The registry
// also carries the Go runtime and process collectors. Both results are nil
// when Prometheus is disabled.
func SetupPrometheusExporter(pc PrometheusConfig) (metric.Reader, http.Handler, error) {
	if !pc.Enabled {
		return nil, nil, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reader, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry:          registry,
		EnableOpenMetrics: true,
	})
	return reader, handler, nil
}

// GetPrometheusConfig enables the scrape endpoint at /metrics when no
// config is supplied.
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	pc := PrometheusConfig{Enabled: true, Endpoint: defaultPrometheusEndpoint}
	if cfg == nil {
		return pc
	}
	pc.Enabled = cfg.Observability.Prometheus.Enabled
	if ep := cfg.Observability.Prometheus.Endpoint; ep != "" {
		pc.Endpoint = ep
	}
	return pc
}
