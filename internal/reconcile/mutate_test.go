package reconcile

import (
	"testing"

	"resumetailor/internal/errors"
	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSections() []types.SectionAnalysis {
	return []types.SectionAnalysis{
		{
			SectionName:  "Experience",
			OriginalText: "Built reports. Led teams.",
			Edits: []types.EditSuggestion{
				edit("reports", "dashboards"),
				edit("Led teams", "Led 4 teams"),
			},
		},
		{
			SectionName:  "Skills",
			OriginalText: "Go, SQL",
			Edits:        []types.EditSuggestion{edit("SQL", "PostgreSQL")},
		},
	}
}

func TestUpdateSuggestionTextIsolation(t *testing.T) {
	sections := twoSections()
	before := twoSections()

	updated, err := UpdateSuggestionText(sections, 0, 0, "interactive dashboards")
	require.NoError(t, err)

	// the input is untouched
	assert.Equal(t, before, sections)

	assert.Equal(t, "interactive dashboards", updated[0].Edits[0].NewContent)
	assert.Equal(t, "reports", updated[0].Edits[0].TargetText)
	assert.Equal(t, types.StatusPending, updated[0].Edits[0].Status)
	assert.Equal(t, sections[0].Edits[1], updated[0].Edits[1])
	assert.Equal(t, sections[1], updated[1])
}

func TestMutationStructuralSharing(t *testing.T) {
	sections := twoSections()

	updated, err := SetSuggestionStatus(sections, 0, 1, types.StatusAccepted)
	require.NoError(t, err)

	assert.NotSame(t, &sections[0], &updated[0], "top-level slice must be new")
	assert.NotSame(t, &sections[0].Edits[0], &updated[0].Edits[0], "mutated section edits must be new")
	assert.Same(t, &sections[1].Edits[0], &updated[1].Edits[0], "untouched sections share edits")
	assert.Equal(t, types.StatusPending, sections[0].Edits[1].Status)
	assert.Equal(t, types.StatusAccepted, updated[0].Edits[1].Status)
}

func TestSetSuggestionStatusTransitions(t *testing.T) {
	statuses := []types.EditStatus{
		types.StatusAccepted, types.StatusRejected, types.StatusPending,
		types.StatusRejected, types.StatusRejected, types.StatusAccepted,
	}

	sections := twoSections()
	for _, status := range statuses {
		var err error
		sections, err = SetSuggestionStatus(sections, 1, 0, status)
		require.NoError(t, err)
		assert.Equal(t, status, sections[1].Edits[0].Status)
	}
}

func TestMutationErrors(t *testing.T) {
	sections := twoSections()

	tests := []struct {
		name    string
		run     func() ([]types.SectionAnalysis, error)
		errCode string
	}{
		{
			name:    "section out of range",
			run:     func() ([]types.SectionAnalysis, error) { return UpdateSuggestionText(sections, 5, 0, "x") },
			errCode: errors.ErrCodeEditNotFound,
		},
		{
			name:    "negative edit index",
			run:     func() ([]types.SectionAnalysis, error) { return UpdateSuggestionText(sections, 0, -1, "x") },
			errCode: errors.ErrCodeEditNotFound,
		},
		{
			name:    "edit out of range",
			run:     func() ([]types.SectionAnalysis, error) { return SetSuggestionStatus(sections, 1, 3, types.StatusAccepted) },
			errCode: errors.ErrCodeEditNotFound,
		},
		{
			name:    "invalid status",
			run:     func() ([]types.SectionAnalysis, error) { return SetSuggestionStatus(sections, 0, 0, "maybe") },
			errCode: errors.ErrCodeInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run()
			require.Error(t, err)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.errCode, appErr.Code)
			assert.Equal(t, sections, got, "failed mutation returns input unchanged")
		})
	}
}

func TestInitAndFillPending(t *testing.T) {
	sections := []types.SectionAnalysis{{
		OriginalText: "x",
		Edits: []types.EditSuggestion{
			{TargetText: "x", Status: types.StatusRejected},
			{TargetText: "x"},
		},
	}}

	filled := FillPending(sections)
	assert.Equal(t, types.StatusRejected, filled[0].Edits[0].Status)
	assert.Equal(t, types.StatusPending, filled[0].Edits[1].Status)

	reset := InitPending(sections)
	assert.Equal(t, types.StatusPending, reset[0].Edits[0].Status)
	assert.Equal(t, types.StatusPending, reset[0].Edits[1].Status)

	assert.Equal(t, types.EditStatus(""), sections[0].Edits[1].Status)
}
