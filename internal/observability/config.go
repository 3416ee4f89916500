package observability

import (
	"resumetailor/internal/config"
)

const defaultServiceName = "resumetailor"

// GetObservabilityConfig derives the manager settings from the app config.
// A nil config yields a disabled manager.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	oc := ObservabilityConfig{
		ServiceName:    defaultServiceName,
		ServiceVersion: version,
		SampleRate:     1.0,
		TracingEnabled: true,
		MetricsEnabled: true,
		Prometheus:     GetPrometheusConfig(cfg),
	}
	if cfg == nil {
		return oc
	}

	o := cfg.Observability
	if o.ServiceName != "" {
		oc.ServiceName = o.ServiceName
	}
	if o.ServiceVersion != "" {
		oc.ServiceVersion = o.ServiceVersion
	}
	oc.Enabled = o.Enabled
	oc.ConsoleOutput = o.ConsoleOutput
	oc.PrettyPrint = o.ConsoleOutput
	oc.TracingEnabled = o.Tracing.Enabled
	oc.MetricsEnabled = o.Metrics.Enabled

	// the tracing-specific rate can only lower the global one
	oc.SampleRate = o.SampleRate
	if r := o.Tracing.SampleRate; r > 0 && r < oc.SampleRate {
		oc.SampleRate = r
	}
	return oc
}
