package common

import (
	"fmt"
	"slices"
	"strings"

	"resumetailor/internal/errors"
	"resumetailor/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and
// the formats a formatter is registered for. An empty configured list
// allows every registered format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	allowed := GetSupportedFormats(supportedFormats)
	if slices.Contains(allowed, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %s", format, strings.Join(allowed, ", ")), nil).
		WithContext("format", format)
}

// GetSupportedFormats returns the configured formats that have a formatter
func GetSupportedFormats(supportedFormats []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		return registered
	}
	formats := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		if slices.Contains(registered, f) && !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats
}
