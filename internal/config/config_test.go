package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			Timeout:        time.Minute,
			MaxRetries:     2,
			CircuitBreaker: CircuitBreakerConfig{FailureThreshold: 0.6},
		},
		Auth:   AuthConfig{TrialLimit: 2},
		Server: ServerConfig{Port: "8080", TLS: TLSConfig{Mode: "disabled"}},
		App: AppConfig{
			DefaultFormat:    "text",
			SupportedFormats: []string{"json", "yaml", "text", "markdown"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedError string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:          "empty base url",
			mutate:        func(c *Config) { c.API.BaseURL = "" },
			expectedError: "API base URL is required (set RESUMETAILOR_API_BASEURL)",
		},
		{
			name:          "relative base url",
			mutate:        func(c *Config) { c.API.BaseURL = "localhost:8000/api" },
			expectedError: "invalid API base URL: localhost:8000/api",
		},
		{
			name:          "zero timeout",
			mutate:        func(c *Config) { c.API.Timeout = 0 },
			expectedError: "API timeout must be positive",
		},
		{
			name:          "negative retries",
			mutate:        func(c *Config) { c.API.MaxRetries = -1 },
			expectedError: "API maxRetries must not be negative",
		},
		{
			name:          "breaker threshold above one",
			mutate:        func(c *Config) { c.API.CircuitBreaker.FailureThreshold = 1.5 },
			expectedError: "circuit breaker failureThreshold must be between 0 and 1, got 1.5",
		},
		{
			name:          "unsupported default format",
			mutate:        func(c *Config) { c.App.DefaultFormat = "xml" },
			expectedError: "invalid default format: xml",
		},
		{
			name:          "missing port",
			mutate:        func(c *Config) { c.Server.Port = "" },
			expectedError: "server port is required",
		},
		{
			name:          "bad tls",
			mutate:        func(c *Config) { c.Server.TLS.Mode = "server" },
			expectedError: "TLS configuration error: TLS certificate is required for server mode (set certFile or certContent)\nTLS key is required for server mode (set keyFile or keyContent)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedError)
		})
	}
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RESUMETAILOR_API_BASEURL", "https://tailor.example.com/")
	t.Setenv("RESUMETAILOR_AUTH_TRIALLIMIT", "5")
	t.Setenv("RESUMETAILOR_SERVER_APIKEYS", "one, two")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://tailor.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Auth.TrialLimit)
	assert.Equal(t, []string{"one", "two"}, cfg.Server.APIKeys)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.PendingTTL)
	assert.Equal(t, "text", cfg.App.DefaultFormat)
	assert.Equal(t, "disabled", cfg.Server.TLS.Mode)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.API.Timeout = 0
	cfg.Server.Port = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API timeout must be positive")
	assert.Contains(t, err.Error(), "server port is required")
}

func TestLoadTraceMasksSecrets(t *testing.T) {
	t.Setenv("RESUMETAILOR_AUTH_TOKEN", "s3cret")
	t.Setenv("RESUMETAILOR_SERVER_PORT", "9090")

	trace := &loadTrace{}
	cfg := validConfig()
	cfg.describeSources(trace, "")

	joined := strings.Join(trace.lines, "\n")
	assert.Contains(t, joined, "RESUMETAILOR_AUTH_TOKEN=***")
	assert.Contains(t, joined, "RESUMETAILOR_SERVER_PORT=9090")
	assert.NotContains(t, joined, "s3cret")
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a ,, b ,"))
	assert.Empty(t, splitAndTrim(""))
}
