package formatters

import (
	"strings"
	"testing"

	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFallsBackToGeneric(t *testing.T) {
	r := NewFormatterRegistry()

	out, err := r.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"a": 1`)

	out, err = r.Format(types.UsageInfo{UsageCount: 2, Remaining: 3}, "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "usage_count: 2")

	_, err = r.Format(map[string]int{}, "text")
	assert.Error(t, err)

	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, r.GetSupportedFormats())
}

func TestRenderingText(t *testing.T) {
	section := types.SectionAnalysis{
		SectionName:  "Experience",
		OriginalText: "Built reports weekly.",
		Edits: []types.EditSuggestion{
			{TargetText: "reports", NewContent: "dashboards", Status: types.StatusPending},
			{TargetText: "missing", NewContent: "x", Status: types.StatusPending},
		},
	}

	out, err := NewFormatterRegistry().Format(reconcile.Render(section), "text")
	require.NoError(t, err)
	assert.Contains(t, out, "=== EXPERIENCE (positional) ===")
	assert.Contains(t, out, `Built [#0 pending: "reports" -> "dashboards"] weekly.`)
	assert.Contains(t, out, "edits not found in text: #1")
}

func TestRenderingListPlaceholder(t *testing.T) {
	out, err := NewFormatterRegistry().Format([]reconcile.Rendering{
		reconcile.Render(types.SectionAnalysis{SectionName: "Skills"}),
	}, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## Skills")
	assert.Contains(t, out, "_"+reconcile.NoEditsText+"_")
}

func TestPreviewDiff(t *testing.T) {
	preview := types.Preview{
		Sections: []types.SectionPreview{{
			SectionName: "Summary",
			Original:    "Built reports.",
			Tailored:    "Built dashboards.",
			Applied:     1,
		}},
	}

	text, err := NewFormatterRegistry().Format(preview, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Built dashboards.")
	assert.Contains(t, text, "{+")
	assert.Contains(t, text, "[-")

	md, err := NewFormatterRegistry().Format(preview, "markdown")
	require.NoError(t, err)
	assert.True(t, strings.Contains(md, "~~") && strings.Contains(md, "**"))
}

func TestTextDiffRoundTrip(t *testing.T) {
	diffs := Diff("one two three", "one 2 three")
	original := RenderDiff(diffs, func(s string) string { return s }, func(string) string { return "" })
	tailored := RenderDiff(diffs, func(string) string { return "" }, func(s string) string { return s })
	assert.Equal(t, "one two three", original)
	assert.Equal(t, "one 2 three", tailored)
}

func TestMarkdownWrapKeepsWhitespaceOutside(t *testing.T) {
	assert.Equal(t, " **new** ", markdownWrap("**")(" new "))
	assert.Equal(t, "  ", markdownWrap("**")("  "))
}

func TestSummaryText(t *testing.T) {
	out, err := NewFormatterRegistry().Format(types.SessionSummary{
		ID: "abc", Filename: "cv.pdf", CompanyName: "Acme", JobRole: "Engineer",
		Sections: 2, Edits: 3, Pending: 1, Accepted: 1, Rejected: 1,
	}, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Engineer at Acme")
	assert.Contains(t, out, "3 (1 pending, 1 accepted, 1 rejected)")
}
