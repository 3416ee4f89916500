package api

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"resumetailor/internal/errors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Response schemas checked before a payload may enter a session
const (
	SchemaAnalysis    = "analysis"
	SchemaSavedResume = "saved_resume"
)

var (
	schemaOnce  sync.Once
	schemaCache map[string]*gojsonschema.Schema
	schemaErr   error
)

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaCache = make(map[string]*gojsonschema.Schema)
		for _, name := range []string{SchemaAnalysis, SchemaSavedResume} {
			raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
			if err != nil {
				schemaErr = fmt.Errorf("failed to read schema %s: %w", name, err)
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				schemaErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			schemaCache[name] = schema
		}
	})
	return schemaCache, schemaErr
}

// ValidateResponse checks body against the named response schema
func ValidateResponse(name string, body []byte) error {
	schemas, err := loadSchemas()
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeSchemaMismatch, "response schemas unavailable", err)
	}
	schema, ok := schemas[name]
	if !ok {
		return errors.NewInternalError(errors.ErrCodeSchemaMismatch, fmt.Sprintf("unknown schema %q", name), nil)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeSchemaMismatch, "response is not valid JSON", err)
	}
	if result.Valid() {
		return nil
	}

	fields := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fields = append(fields, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return errors.NewValidationError(errors.ErrCodeSchemaMismatch,
		fmt.Sprintf("%s response does not match schema", name), nil).
		WithContext("violations", strings.Join(fields, "; "))
}
