package config

import (
	stderrors "errors"
	"fmt"
	"os"
)

// TLS modes for the local session server
const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
)

// TLSEnabled reports whether the server should listen with TLS
func (t TLSConfig) TLSEnabled() bool {
	return t.Mode == TLSModeServer
}

// ValidateTLSConfig reports every problem with the server TLS settings at
// once. An empty mode means disabled.
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS
	var problems []error

	switch tls.Mode {
	case "", TLSModeDisabled:
	case TLSModeServer:
		problems = append(problems, tlsSource("certificate", "certFile", "certContent", tls.CertFile, tls.CertContent))
		problems = append(problems, tlsSource("key", "keyFile", "keyContent", tls.KeyFile, tls.KeyContent))
	default:
		problems = append(problems, fmt.Errorf("invalid TLS mode %q (must be %q or %q)", tls.Mode, TLSModeDisabled, TLSModeServer))
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
	default:
		problems = append(problems, fmt.Errorf("invalid TLS minVersion %q (must be \"1.2\" or \"1.3\")", tls.MinVersion))
	}
	return stderrors.Join(problems...)
}

// tlsSource checks that exactly one of a file or inline PEM is given and
// that a given file is present
func tlsSource(what, fileKey, contentKey, file, content string) error {
	switch {
	case file == "" && content == "":
		return fmt.Errorf("TLS %s is required for server mode (set %s or %s)", what, fileKey, contentKey)
	case file != "" && content != "":
		return fmt.Errorf("set only one of %s and %s", fileKey, contentKey)
	case file != "":
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("TLS %s file %s: %w", what, file, err)
		}
	}
	return nil
}
