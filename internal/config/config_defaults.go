package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	home := userHomeDir()

	// Remote API
	v.SetDefault("api.baseURL", "http://localhost:8000")
	v.SetDefault("api.timeout", 60*time.Second) // analysis can take a while upstream
	v.SetDefault("api.maxRetries", 2)
	v.SetDefault("api.retryWaitMin", 500*time.Millisecond)
	v.SetDefault("api.retryWaitMax", 5*time.Second)
	v.SetDefault("api.userAgent", "resumetailor")
	v.SetDefault("api.maxUploadSize", 10*1024*1024) // 10MB

	v.SetDefault("api.circuitBreaker.enabled", true)
	v.SetDefault("api.circuitBreaker.maxRequests", 3)
	v.SetDefault("api.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("api.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("api.circuitBreaker.minRequests", 3)
	v.SetDefault("api.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("api.rateLimit.enabled", false)
	v.SetDefault("api.rateLimit.requestsPerSecond", 5.0)
	v.SetDefault("api.rateLimit.burst", 5)

	// Auth
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.tokenFile", filepath.Join(home, ".resumetailor", "token"))
	v.SetDefault("auth.trialLimit", 2)

	// Sessions
	v.SetDefault("session.stateDir", filepath.Join(home, ".resumetailor", "sessions"))
	v.SetDefault("session.pendingTTL", 24*time.Hour)
	v.SetDefault("session.watchDebounce", 300*time.Millisecond)
	v.SetDefault("session.matchCacheSize", 256)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second) // covers a full upstream analysis
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.watchSessions", true)
	v.SetDefault("server.tls.mode", "disabled") // disabled, server
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "yaml", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB for job descriptions

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.authToken", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumetailor")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.apiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.apiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.apiOperations.trackQuota", true)
	v.SetDefault("observability.customMetrics.sessionMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.sessionMetrics.trackReviews", true)
	v.SetDefault("observability.customMetrics.sessionMetrics.trackMerges", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
