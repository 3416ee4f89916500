package reconcile

import (
	"fmt"
	"slices"

	"resumetailor/internal/errors"
	"resumetailor/internal/types"
)

// UpdateSuggestionText replaces the proposed content of one edit.
// The returned slice is new, as are the touched section's edit list;
// every other section keeps its existing backing arrays.
func UpdateSuggestionText(sections []types.SectionAnalysis, sectionIndex, editIndex int, newValue string) ([]types.SectionAnalysis, error) {
	return replaceEdit(sections, sectionIndex, editIndex, func(edit *types.EditSuggestion) {
		edit.NewContent = newValue
	})
}

// SetSuggestionStatus moves one edit to status. Any transition is allowed,
// including to the current status.
func SetSuggestionStatus(sections []types.SectionAnalysis, sectionIndex, editIndex int, status types.EditStatus) ([]types.SectionAnalysis, error) {
	if !status.Valid() {
		return sections, errors.NewValidationError(errors.ErrCodeInvalidStatus,
			fmt.Sprintf("unknown edit status %q", status), nil)
	}
	return replaceEdit(sections, sectionIndex, editIndex, func(edit *types.EditSuggestion) {
		edit.Status = status
	})
}

// InitPending returns a copy of sections with every edit set to pending
func InitPending(sections []types.SectionAnalysis) []types.SectionAnalysis {
	return mapEdits(sections, func(types.EditStatus) types.EditStatus { return types.StatusPending })
}

// FillPending returns a copy of sections where edits without a status
// become pending. Existing statuses are kept.
func FillPending(sections []types.SectionAnalysis) []types.SectionAnalysis {
	return mapEdits(sections, func(s types.EditStatus) types.EditStatus {
		if s.Valid() {
			return s
		}
		return types.StatusPending
	})
}

func mapEdits(sections []types.SectionAnalysis, status func(types.EditStatus) types.EditStatus) []types.SectionAnalysis {
	out := slices.Clone(sections)
	for i := range out {
		edits := slices.Clone(out[i].Edits)
		for j := range edits {
			edits[j].Status = status(edits[j].Status)
		}
		out[i].Edits = edits
	}
	return out
}

func replaceEdit(sections []types.SectionAnalysis, sectionIndex, editIndex int, apply func(*types.EditSuggestion)) ([]types.SectionAnalysis, error) {
	if sectionIndex < 0 || sectionIndex >= len(sections) {
		return sections, errors.NewValidationError(errors.ErrCodeEditNotFound,
			fmt.Sprintf("section %d out of range (have %d)", sectionIndex, len(sections)), nil)
	}
	section := sections[sectionIndex]
	if editIndex < 0 || editIndex >= len(section.Edits) {
		return sections, errors.NewValidationError(errors.ErrCodeEditNotFound,
			fmt.Sprintf("edit %d out of range in section %d (have %d)", editIndex, sectionIndex, len(section.Edits)), nil)
	}

	edits := slices.Clone(section.Edits)
	apply(&edits[editIndex])
	section.Edits = edits

	out := slices.Clone(sections)
	out[sectionIndex] = section
	return out, nil
}
