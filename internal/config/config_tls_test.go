package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTLSConfig(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(cert, []byte("CERT"), 0600))
	require.NoError(t, os.WriteFile(key, []byte("KEY"), 0600))

	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr []string
	}{
		{name: "empty mode is disabled", tls: TLSConfig{}},
		{name: "disabled ignores sources", tls: TLSConfig{Mode: "disabled", CertFile: "/missing.pem"}},
		{name: "server with files", tls: TLSConfig{Mode: "server", CertFile: cert, KeyFile: key, MinVersion: "1.3"}},
		{name: "server with content", tls: TLSConfig{Mode: "server", CertContent: "CERT", KeyContent: "KEY"}},
		{
			name:    "server missing key",
			tls:     TLSConfig{Mode: "server", CertFile: cert},
			wantErr: []string{"TLS key is required for server mode (set keyFile or keyContent)"},
		},
		{
			name:    "duplicate cert source",
			tls:     TLSConfig{Mode: "server", CertFile: cert, CertContent: "CERT", KeyFile: key},
			wantErr: []string{"set only one of certFile and certContent"},
		},
		{
			name:    "missing cert file",
			tls:     TLSConfig{Mode: "server", CertFile: filepath.Join(dir, "nope.pem"), KeyContent: "KEY"},
			wantErr: []string{"TLS certificate file"},
		},
		{
			name:    "unknown mode",
			tls:     TLSConfig{Mode: "mutual"},
			wantErr: []string{`invalid TLS mode "mutual"`},
		},
		{
			name:    "all problems reported",
			tls:     TLSConfig{Mode: "server", MinVersion: "1.1"},
			wantErr: []string{"TLS certificate is required", "TLS key is required", `invalid TLS minVersion "1.1"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestTLSEnabled(t *testing.T) {
	assert.True(t, TLSConfig{Mode: TLSModeServer}.TLSEnabled())
	assert.False(t, TLSConfig{}.TLSEnabled())
	assert.False(t, TLSConfig{Mode: TLSModeDisabled}.TLSEnabled())
}
