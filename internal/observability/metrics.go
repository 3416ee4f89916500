package observability

import (
	"context"
	"fmt"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for resumetailor
type Metrics struct {
	// Remote API metrics
	APIRequestDuration metric.Float64Histogram
	APIRequestCount    metric.Int64Counter
	APIErrorCount      metric.Int64Counter
	QuotaRefusals      metric.Int64Counter

	// Session metrics
	SessionsCreated metric.Int64Counter
	SessionReloads  metric.Int64Counter
	EditsReviewed   metric.Int64Counter
	Merges          metric.Int64Counter

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// initCustomMetrics creates all custom metrics for resumetailor
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	if err := om.createAPIMetrics(meter); err != nil {
		return err
	}

	if err := om.createSessionMetrics(meter); err != nil {
		return err
	}

	if err := om.createRateLimitMetrics(meter); err != nil {
		return err
	}

	return nil
}

func (om *ObservabilityManager) createAPIMetrics(meter metric.Meter) error {
	var err error

	om.metrics.APIRequestDuration, err = meter.Float64Histogram(
		"resumetailor_api_request_duration_seconds",
		metric.WithDescription("Time spent on remote API calls, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create API duration metric: %w", err)
	}

	om.metrics.APIRequestCount, err = meter.Int64Counter(
		"resumetailor_api_requests_total",
		metric.WithDescription("Total number of remote API calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create API request count metric: %w", err)
	}

	om.metrics.APIErrorCount, err = meter.Int64Counter(
		"resumetailor_api_errors_total",
		metric.WithDescription("Total number of failed remote API calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create API error count metric: %w", err)
	}

	om.metrics.QuotaRefusals, err = meter.Int64Counter(
		"resumetailor_quota_refusals_total",
		metric.WithDescription("Total number of analyses refused for exhausted quota"),
	)
	if err != nil {
		return fmt.Errorf("failed to create quota refusal metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) createSessionMetrics(meter metric.Meter) error {
	var err error

	om.metrics.SessionsCreated, err = meter.Int64Counter(
		"resumetailor_sessions_created_total",
		metric.WithDescription("Total number of editing sessions created"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sessions created metric: %w", err)
	}

	om.metrics.SessionReloads, err = meter.Int64Counter(
		"resumetailor_session_reloads_total",
		metric.WithDescription("Total number of sessions reloaded after an on-disk change"),
	)
	if err != nil {
		return fmt.Errorf("failed to create session reload metric: %w", err)
	}

	om.metrics.EditsReviewed, err = meter.Int64Counter(
		"resumetailor_edits_reviewed_total",
		metric.WithDescription("Total number of edit review decisions"),
	)
	if err != nil {
		return fmt.Errorf("failed to create edits reviewed metric: %w", err)
	}

	om.metrics.Merges, err = meter.Int64Counter(
		"resumetailor_merges_total",
		metric.WithDescription("Total number of merges into final text"),
	)
	if err != nil {
		return fmt.Errorf("failed to create merges metric: %w", err)
	}

	return nil
}

// createRateLimitMetrics creates rate limiting metrics
func (om *ObservabilityManager) createRateLimitMetrics(meter metric.Meter) error {
	var err error

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"resumetailor_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

func (om *ObservabilityManager) metricsReady() bool {
	return om != nil && om.metrics != nil
}

// RecordAPICall records one remote API call
func (om *ObservabilityManager) RecordAPICall(ctx context.Context, family, endpoint string, duration time.Duration, err error) {
	if !om.metricsReady() {
		return
	}
	custom := config.APIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackQuota: true}
	if om.fullConfig != nil {
		custom = om.fullConfig.Observability.CustomMetrics.APIOperations
	}
	if !custom.Enabled {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("family", family),
		attribute.String("endpoint", endpoint),
		attribute.Bool("success", err == nil),
	}
	m := om.metrics
	m.APIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if custom.TrackDuration {
		m.APIRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err == nil {
		return
	}

	errAttrs := append(attrs, attribute.String("error_type", errorType(err)))
	m.APIErrorCount.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	if errors.IsQuotaExceeded(err) && custom.TrackQuota {
		m.QuotaRefusals.Add(ctx, 1, metric.WithAttributes(attribute.String("family", family)))
	}
}

func errorType(err error) string {
	for _, t := range []errors.ErrorType{
		errors.ErrorTypeQuota, errors.ErrorTypeAuth, errors.ErrorTypeValidation,
		errors.ErrorTypeNetwork, errors.ErrorTypeConflict, errors.ErrorTypeIO,
	} {
		if errors.IsType(err, t) {
			return string(t)
		}
	}
	return "unknown"
}

func (om *ObservabilityManager) sessionMetricsEnabled() bool {
	if !om.metricsReady() {
		return false
	}
	return om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.SessionMetrics.Enabled
}

// RecordSessionCreated counts a new session by its origin (analysis, load)
func (om *ObservabilityManager) RecordSessionCreated(ctx context.Context, origin string) {
	if !om.sessionMetricsEnabled() {
		return
	}
	om.metrics.SessionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("origin", origin)))
}

// RecordSessionReload counts a session refreshed from disk
func (om *ObservabilityManager) RecordSessionReload(ctx context.Context) {
	if !om.sessionMetricsEnabled() {
		return
	}
	om.metrics.SessionReloads.Add(ctx, 1)
}

// RecordEditReviewed counts a review decision or content change
func (om *ObservabilityManager) RecordEditReviewed(ctx context.Context, change string) {
	if !om.sessionMetricsEnabled() {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.SessionMetrics.TrackReviews {
		return
	}
	om.metrics.EditsReviewed.Add(ctx, 1, metric.WithAttributes(attribute.String("change", change)))
}

// RecordMerge counts a merge by purpose (preview, save, generate)
func (om *ObservabilityManager) RecordMerge(ctx context.Context, purpose string) {
	if !om.sessionMetricsEnabled() {
		return
	}
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.SessionMetrics.TrackMerges {
		return
	}
	om.metrics.Merges.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", purpose)))
}

// RecordRateLimitHit counts a request refused by the local rate limiter
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, keyType string) {
	if !om.metricsReady() {
		return
	}
	// Rate limiting is an infrastructure metric
	if om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackRateLimits {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}
