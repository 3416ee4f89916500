package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"resumetailor/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeLogical serves KV v2 secrets from memory
type fakeLogical struct {
	secrets map[string]map[string]any
	err     error
}

func (f *fakeLogical) Read(path string) (*api.Secret, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.secrets[path]
	if !ok {
		return nil, nil
	}
	return &api.Secret{Data: map[string]any{
		"data":     data,
		"metadata": map[string]any{"version": "3"},
	}}, nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: path})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.EqualError(t, err, "vault token is required when vault is enabled")
	})
}

func TestGetSecrets(t *testing.T) {
	client := &VaultClient{
		logical: &fakeLogical{secrets: map[string]map[string]any{
			"secret/data/keys": {"keys": " key-one , key-two,,"},
			"secret/data/bad":  {"keys": 12},
		}},
		logger: newTestLogger(),
	}

	secret, err := client.GetSecretV2("secret/data/keys")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)

	keys, err := client.GetStringSliceSecret("secret/data/keys", "keys")
	require.NoError(t, err)
	assert.Equal(t, []string{"key-one", "key-two"}, keys)

	_, err = client.GetStringSecret("secret/data/keys", "missing")
	assert.EqualError(t, err, "key 'missing' not found in secret secret/data/keys")

	_, err = client.GetStringSecret("secret/data/bad", "keys")
	assert.Error(t, err)

	_, err = client.GetSecretV2("secret/data/absent")
	assert.EqualError(t, err, "secret not found at path: secret/data/absent")

	var nilClient *VaultClient
	_, err = nilClient.GetSecretV2("x")
	assert.EqualError(t, err, "vault client not initialized")
}

func TestApplySecrets(t *testing.T) {
	client := &VaultClient{
		logical: &fakeLogical{secrets: map[string]map[string]any{
			"secret/data/upstream": {"token": "eyJhbGciOi.upstream"},
			"secret/data/server":   {"keys": "alpha,beta"},
			"secret/data/tls":      {"cert": "CERT-PEM", "key": "KEY-PEM"},
		}},
	}

	cfg := &Config{
		Vault: VaultConfig{Enabled: true, Secrets: VaultSecrets{
			AuthToken: "secret/data/upstream",
			APIKeys:   "secret/data/server",
			TLSCerts:  "secret/data/tls",
		}},
		Server: ServerConfig{TLS: TLSConfig{CertFile: "/tmp/cert.pem"}},
	}

	require.NoError(t, applySecrets(client, cfg, nil))
	assert.Equal(t, "eyJhbGciOi.upstream", cfg.Auth.Token)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, "CERT-PEM", cfg.Server.TLS.CertContent)
	assert.Equal(t, "", cfg.Server.TLS.CertFile)
	assert.Equal(t, "KEY-PEM", cfg.Server.TLS.KeyContent)
}

func TestApplySecretsReadError(t *testing.T) {
	client := &VaultClient{logical: &fakeLogical{err: fmt.Errorf("permission denied")}}
	cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{AuthToken: "secret/data/upstream"}}}

	err := applySecrets(client, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load auth token from vault")
	assert.Empty(t, cfg.Auth.Token)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{Token: "keep"}}
	require.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
	assert.Equal(t, "keep", cfg.Auth.Token)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghuvwxyz"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
