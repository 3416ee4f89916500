package config

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Upstream token precedence:
// 1. Vault (if configured)
// 2. Config file value auth.token
// 3. Environment variable RESUMETAILOR_AUTH_TOKEN
// 4. Token file written by `resumetailor login`
type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Session       SessionConfig       `mapstructure:"session"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// APIConfig holds settings for the remote tailoring service
type APIConfig struct {
	BaseURL        string               `mapstructure:"baseURL"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	RetryWaitMin   time.Duration        `mapstructure:"retryWaitMin"`
	RetryWaitMax   time.Duration        `mapstructure:"retryWaitMax"`
	UserAgent      string               `mapstructure:"userAgent"`
	MaxUploadSize  int64                `mapstructure:"maxUploadSize"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	RateLimit      ClientRateLimit      `mapstructure:"rateLimit"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ClientRateLimit throttles outgoing requests
type ClientRateLimit struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
}

// AuthConfig holds credentials for the remote service
type AuthConfig struct {
	Token      string `mapstructure:"token"`
	TokenFile  string `mapstructure:"tokenFile"`
	TrialLimit int    `mapstructure:"trialLimit"`
}

// SessionConfig controls where editing sessions live
type SessionConfig struct {
	StateDir       string        `mapstructure:"stateDir"`
	PendingTTL     time.Duration `mapstructure:"pendingTTL"`
	WatchDebounce  time.Duration `mapstructure:"watchDebounce"`
	MatchCacheSize int           `mapstructure:"matchCacheSize"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys for authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`

	// Reload sessions when their files change on disk
	WatchSessions bool `mapstructure:"watchSessions"`
}

// TLSConfig holds TLS configuration for the local server
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // "disabled" or "server"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)

	// Certificate content, used when loaded from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`

	MinVersion string `mapstructure:"minVersion"` // "1.2" or "1.3"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	APIOperations  APIOperationsMetricsConfig  `mapstructure:"apiOperations"`
	SessionMetrics SessionMetricsConfig        `mapstructure:"sessionMetrics"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// APIOperationsMetricsConfig controls metrics for remote API calls
type APIOperationsMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
	TrackQuota    bool `mapstructure:"trackQuota"`
}

// SessionMetricsConfig controls review and merge metrics
type SessionMetricsConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	TrackReviews bool `mapstructure:"trackReviews"`
	TrackMerges  bool `mapstructure:"trackMerges"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig reads /etc/resumetailor, ~/.resumetailor and the working
// directory for config.yaml, then overlays RESUMETAILOR_* variables.
// The load trace is printed only when the resulting log level is debug.
func LoadConfig() (*Config, error) {
	trace := &loadTrace{}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range configSearchPaths {
		v.AddConfigPath(dir)
	}
	trace.add("config search paths: %s", strings.Join(configSearchPaths, ", "))

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		trace.add("no config file found, using defaults and environment")
	} else {
		configFileUsed = v.ConfigFileUsed()
		trace.add("loaded config file %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.applyFallbacks()
	config.describeSources(trace, configFileUsed)

	if config.App.LogLevel == "debug" {
		trace.flush()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf(format, args...))
		}
	}

	if c.API.BaseURL == "" {
		check(false, "API base URL is required (set %s_API_BASEURL)", envPrefix)
	} else {
		u, err := url.Parse(c.API.BaseURL)
		check(err == nil && u.Scheme != "" && u.Host != "", "invalid API base URL: %s", c.API.BaseURL)
	}
	check(c.API.Timeout > 0, "API timeout must be positive")
	check(c.API.MaxRetries >= 0, "API maxRetries must not be negative")
	threshold := c.API.CircuitBreaker.FailureThreshold
	check(threshold >= 0 && threshold <= 1, "circuit breaker failureThreshold must be between 0 and 1, got %v", threshold)
	check(c.Auth.TrialLimit >= 0, "auth trialLimit must not be negative")
	check(c.Server.Port != "", "server port is required")
	check(slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat), "invalid default format: %s", c.App.DefaultFormat)

	if err := c.ValidateTLSConfig(); err != nil {
		problems = append(problems, fmt.Errorf("TLS configuration error: %w", err))
	}
	return stderrors.Join(problems...)
}
