package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	"resumetailor/internal/config"
)

// configureTLS attaches a TLS config to httpServer in server mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case config.TLSModeServer:
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		return nil
	case config.TLSModeDisabled, "":
		return nil
	default:
		return fmt.Errorf("invalid TLS mode %q", s.TLSConfig.Mode)
	}
}

// buildTLSConfig creates the TLS configuration for server mode
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	certPEM, err := pemSource(s.TLSConfig.CertContent, s.TLSConfig.CertFile)
	if err != nil {
		return nil, fmt.Errorf("server certificate: %w", err)
	}
	keyPEM, err := pemSource(s.TLSConfig.KeyContent, s.TLSConfig.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("server key: %w", err)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server cert/key: %w", err)
	}

	minVersion := uint16(tls.VersionTLS12)
	if s.TLSConfig.MinVersion == "1.3" {
		minVersion = tls.VersionTLS13
	}
	return &tls.Config{
		MinVersion:   minVersion,
		Certificates: []tls.Certificate{cert},
	}, nil
}

// pemSource returns inline PEM (from Vault) or the file's contents
func pemSource(content, file string) ([]byte, error) {
	if content != "" {
		return []byte(content), nil
	}
	if file == "" {
		return nil, fmt.Errorf("neither content nor file is set")
	}
	return os.ReadFile(file)
}
