package common

import (
	"testing"

	"resumetailor/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		supported []string
		wantErr   string
	}{
		{name: "configured and registered", format: "json", supported: []string{"json", "text"}},
		{name: "markdown", format: "markdown", supported: []string{"json", "text", "markdown"}},
		{name: "not configured", format: "yaml", supported: []string{"json", "text"},
			wantErr: "unsupported output format 'yaml'. Supported formats: json, text"},
		{name: "configured but no formatter", format: "xml", supported: []string{"xml", "json"},
			wantErr: "Supported formats: json"},
		{name: "empty list allows registered", format: "yaml"},
		{name: "empty list still needs a formatter", format: "csv", wantErr: "unsupported output format 'csv'"},
		{name: "case sensitive", format: "JSON", supported: []string{"json"}, wantErr: "'JSON'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"text", "json"}, GetSupportedFormats([]string{"text", "json", "text", "pdf"}))
	assert.ElementsMatch(t, []string{"json", "yaml", "text", "markdown"}, GetSupportedFormats(nil))
}
