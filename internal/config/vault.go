package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumetailor/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KV v2 paths)
type VaultSecrets struct {
	// AuthToken holds the upstream bearer token under key "token"
	AuthToken string `mapstructure:"authToken"`
	// APIKeys holds local server keys under key "keys", comma-separated
	APIKeys string `mapstructure:"apiKeys"`
	// TLSCerts holds PEM content under keys "cert" and "key"
	TLSCerts string `mapstructure:"tlsCerts"`
}

// secretReader is the subset of the Vault logical API used here
type secretReader interface {
	Read(path string) (*api.Secret, error)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	logical secretReader
	logger  *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration.
// It returns nil without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		}
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", config.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{logical: client.Logical(), logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// VaultSecret is one version of a KV v2 secret.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 reads path from a KV v2 engine. path must include the
// "data/" segment.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.logical.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := kvSection(secret.Data, "data", path)
	if err != nil {
		return nil, err
	}
	metadata, err := kvSection(secret.Data, "metadata", path)
	if err != nil {
		return nil, err
	}
	raw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(raw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

func kvSection(body map[string]any, field, path string) (map[string]any, error) {
	section, ok := body[field].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing '%s' field)", path, field)
	}
	return section, nil
}

// parseVersionValue accepts the shapes Vault returns for metadata.version:
// json.Number from the API client, plus plain numbers and strings.
func parseVersionValue(raw any, path string) (int64, error) {
	var text string
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		text = v.String()
	case string:
		text = v
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
	version, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
	}
	return version, nil
}

// GetStringSecret returns a single string field of the secret at path.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	if vc.logger != nil {
		vc.logger.Debug("Read secret from Vault", "path", path, "key", key, "value", maskSecret(s))
	}
	return s, nil
}

// GetStringSliceSecret splits a comma-separated field.
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

func maskSecret(value string) string {
	if len(value) > 8 {
		return value[:4] + "****" + value[len(value)-4:]
	}
	if value == "" {
		return ""
	}
	return "****"
}

// ApplyVaultSecrets overlays the upstream token, server API keys and TLS
// material from Vault onto config. It is a no-op when Vault is disabled.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(client, config, logger)
}

func applySecrets(client *VaultClient, config *Config, logger *errors.Logger) error {
	steps := []struct {
		path  string
		what  string
		apply func(path string) error
	}{
		{config.Vault.Secrets.AuthToken, "auth token", func(path string) error {
			token, err := client.GetStringSecret(path, "token")
			if err == nil && token != "" {
				config.Auth.Token = token
			}
			return err
		}},
		{config.Vault.Secrets.APIKeys, "API keys", func(path string) error {
			keys, err := client.GetStringSliceSecret(path, "keys")
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				if logger != nil {
					logger.Warn("No API keys found in Vault", "path", path)
				}
				return nil
			}
			config.Server.APIKeys = keys
			return nil
		}},
		{config.Vault.Secrets.TLSCerts, "TLS certificates", func(path string) error {
			secret, err := client.GetSecretV2(path)
			if err != nil {
				return err
			}
			tls := &config.Server.TLS
			if cert, _ := secret.Data["cert"].(string); cert != "" {
				tls.CertContent, tls.CertFile = cert, ""
			}
			if key, _ := secret.Data["key"].(string); key != "" {
				tls.KeyContent, tls.KeyFile = key, ""
			}
			return nil
		}},
	}

	for _, step := range steps {
		if step.path == "" {
			continue
		}
		if err := step.apply(step.path); err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", step.what, err)
		}
		if logger != nil {
			logger.Info("Loaded secret from Vault", "secret", step.what, "path", step.path)
		}
	}
	return nil
}
