package formatters

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter renders one kind of command result
type Formatter interface {
	Format(data any) (string, error)
}

// kindAny is the fallback kind used when no formatter matches the value's
// concrete type.
const kindAny = "any"

type formatKey struct {
	format string
	kind   string
}

// FormatterRegistry maps (format, kind) pairs to formatters.
type FormatterRegistry struct {
	formatters map[formatKey]Formatter
	formats    map[string]struct{}
}

// NewFormatterRegistry returns a registry with json and yaml for every
// value, and text and markdown for the session views.
func NewFormatterRegistry() *FormatterRegistry {
	r := &FormatterRegistry{
		formatters: make(map[formatKey]Formatter),
		formats:    make(map[string]struct{}),
	}

	r.RegisterFormatter("json", kindAny, &JSONFormatter{})
	r.RegisterFormatter("yaml", kindAny, &YAMLFormatter{})

	views := []struct {
		kind           string
		text, markdown Formatter
	}{
		{"SessionSummary", &SummaryTextFormatter{}, &SummaryMarkdownFormatter{}},
		{"SessionList", &SessionListTextFormatter{}, &SessionListMarkdownFormatter{}},
		{"Rendering", &RenderingTextFormatter{}, &RenderingMarkdownFormatter{}},
		{"Preview", &PreviewTextFormatter{}, &PreviewMarkdownFormatter{}},
		{"UsageInfo", &UsageTextFormatter{}, &UsageTextFormatter{}},
		{"JobDescription", &JobDescriptionTextFormatter{}, &JobDescriptionMarkdownFormatter{}},
	}
	for _, v := range views {
		r.RegisterFormatter("text", v.kind, v.text)
		r.RegisterFormatter("markdown", v.kind, v.markdown)
	}
	return r
}

func (fr *FormatterRegistry) RegisterFormatter(format, kind string, f Formatter) {
	fr.formatters[formatKey{format, kind}] = f
	fr.formats[format] = struct{}{}
}

// Format renders data as format, preferring a kind-specific formatter over
// the generic one.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	kind := kindOf(data)
	for _, k := range []string{kind, kindAny} {
		if f, ok := fr.formatters[formatKey{format, k}]; ok {
			return f.Format(data)
		}
	}
	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, kind)
}

// GetSupportedFormats lists registered format names in sorted order.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	return slices.Sorted(maps.Keys(fr.formats))
}

func kindOf(data any) string {
	switch data.(type) {
	case types.SessionSummary:
		return "SessionSummary"
	case types.SessionList:
		return "SessionList"
	case reconcile.Rendering, []reconcile.Rendering:
		return "Rendering"
	case types.Preview:
		return "Preview"
	case types.UsageInfo:
		return "UsageInfo"
	case types.JobDescription:
		return "JobDescription"
	default:
		return kindAny
	}
}

type JSONFormatter struct{}

func (*JSONFormatter) Format(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// YAMLFormatter emits two-space indented YAML.
type YAMLFormatter struct{}

func (*YAMLFormatter) Format(data any) (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// GlobalRegistry backs every command's output.
var GlobalRegistry = NewFormatterRegistry()
