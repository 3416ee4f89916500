package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

const envPrefix = "RESUMETAILOR"

var configSearchPaths = []string{"/etc/resumetailor/", "$HOME/.resumetailor", "."}

// traced lists the variables worth echoing in the load trace. Anything
// that looks like a key or token is masked.
var traced = []string{
	"API_BASEURL",
	"AUTH_TOKEN",
	"AUTH_TOKENFILE",
	"SESSION_STATEDIR",
	"SERVER_PORT",
	"SERVER_HOST",
	"SERVER_APIKEYS",
	"APP_LOGLEVEL",
	"VAULT_ENABLED",
}

// loadTrace buffers config loading messages until the log level is known.
type loadTrace struct {
	lines []string
}

func (t *loadTrace) add(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *loadTrace) flush() {
	for _, line := range t.lines {
		log.Printf("[CONFIG] %s", line)
	}
}

func (c *Config) applyFallbacks() {
	// viper splits env lists on commas but leaves the spaces
	c.Server.APIKeys = splitAndTrim(strings.Join(c.Server.APIKeys, ","))
	if len(c.Server.APIKeys) == 0 {
		c.Server.APIKeys = splitAndTrim(os.Getenv(envPrefix + "_SERVER_APIKEYS"))
	}

	if c.Server.TLS.MinVersion == "" && c.Server.TLS.TLSEnabled() {
		c.Server.TLS.MinVersion = "1.2"
	}
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" {
		c.Observability.ConsoleOutput = true
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
}

func serviceInstanceID(service string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "1"
	}
	return service + "-" + host
}

func splitAndTrim(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// describeSources records where the effective settings came from.
func (c *Config) describeSources(t *loadTrace, configFileUsed string) {
	if configFileUsed == "" {
		configFileUsed = "none"
	}
	t.add("config file: %s", configFileUsed)

	for _, suffix := range traced {
		name := envPrefix + "_" + suffix
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if isSensitiveEnv(name) {
			value = "***"
		}
		t.add("env %s=%s", name, value)
	}

	token := "token file " + c.Auth.TokenFile
	if c.Auth.Token != "" {
		token = "inline token"
	}
	t.add("api %s (timeout %s), auth via %s", c.API.BaseURL, c.API.Timeout, token)
	t.add("sessions in %s", c.Session.StateDir)
	t.add("server %s:%s tls=%s, vault=%t, observability=%t",
		c.Server.Host, c.Server.Port, c.Server.TLS.Mode, c.Vault.Enabled, c.Observability.Enabled)
	t.add("log level %s", c.App.LogLevel)
}

func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "key") || strings.HasSuffix(lower, "_token")
}
