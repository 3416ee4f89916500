package reconcile

import (
	"strings"
	"testing"

	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPositional(t *testing.T) {
	section := types.SectionAnalysis{
		SectionName:  "Experience",
		OriginalText: "I led teams and shipped code.",
		Edits: []types.EditSuggestion{
			edit("led teams", "led cross-functional teams"),
			edit("teams and", "teams & also"),
			edit("never appears", "x"),
		},
	}

	r := Render(section)

	assert.Equal(t, ModePositional, r.Mode)
	assert.Equal(t, "Experience", r.SectionName)
	require.Len(t, r.Segments, 3)
	assert.Equal(t, Segment{Kind: SegmentLiteral, Text: "I ", EditIndex: -1}, r.Segments[0])
	assert.Equal(t, SegmentEdit, r.Segments[1].Kind)
	assert.Equal(t, 0, r.Segments[1].EditIndex)
	assert.Equal(t, "led cross-functional teams", r.Segments[1].NewContent)
	assert.Equal(t, Segment{Kind: SegmentLiteral, Text: " and shipped code.", EditIndex: -1}, r.Segments[2])
	assert.Equal(t, []int{1, 2}, r.Unplaced)
}

func TestRenderPositionalCoversText(t *testing.T) {
	section := types.SectionAnalysis{
		OriginalText: "alpha beta gamma",
		Edits: []types.EditSuggestion{
			edit("gamma", "G"),
			edit("alpha", "A"),
		},
	}

	r := Render(section)

	// Reassembling with target text must give back the original.
	var b strings.Builder
	for _, s := range r.Segments {
		switch s.Kind {
		case SegmentLiteral:
			b.WriteString(s.Text)
		case SegmentEdit:
			b.WriteString(s.TargetText)
		}
	}
	assert.Equal(t, section.OriginalText, b.String())
	assert.Empty(t, r.Unplaced)
}

func TestRenderNoEmptyLiterals(t *testing.T) {
	section := types.SectionAnalysis{
		OriginalText: "abcdef",
		Edits:        []types.EditSuggestion{edit("abc", "1"), edit("def", "2")},
	}

	r := Render(section)

	require.Len(t, r.Segments, 2)
	for _, s := range r.Segments {
		assert.Equal(t, SegmentEdit, s.Kind)
	}
}

func TestRenderListMode(t *testing.T) {
	section := types.SectionAnalysis{
		SectionName: "Skills",
		Edits: []types.EditSuggestion{
			edit("never appears", "x"),
			{TargetText: "Go", NewContent: "Go, Rust", Status: types.StatusRejected},
		},
	}

	r := Render(section)

	assert.Equal(t, ModeList, r.Mode)
	require.Len(t, r.Segments, 2)
	assert.Equal(t, SegmentCard, r.Segments[0].Kind)
	assert.Equal(t, "never appears", r.Segments[0].TargetText)
	assert.Equal(t, 1, r.Segments[1].EditIndex)
	assert.Equal(t, types.StatusRejected, r.Segments[1].Status)
}

func TestRenderListPlaceholder(t *testing.T) {
	r := Render(types.SectionAnalysis{SectionName: "Summary"})

	assert.Equal(t, ModeList, r.Mode)
	require.Len(t, r.Segments, 1)
	assert.Equal(t, SegmentPlaceholder, r.Segments[0].Kind)
	assert.Equal(t, NoEditsText, r.Segments[0].Text)
}

func TestRenderPositionalWithoutEdits(t *testing.T) {
	r := Render(types.SectionAnalysis{OriginalText: "Unchanged."})

	require.Len(t, r.Segments, 1)
	assert.Equal(t, "Unchanged.", r.Segments[0].Text)
}
