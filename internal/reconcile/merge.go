package reconcile

import (
	"strings"

	"resumetailor/internal/types"
)

// SectionSeparator joins section texts into a document
const SectionSeparator = "\n\n"

// MergeSection applies the section's non-rejected edits to its original
// text in edit order. Every occurrence of a target is replaced; edits with
// an empty target are skipped.
func MergeSection(section types.SectionAnalysis) string {
	text, _ := mergeSection(section)
	return text
}

func mergeSection(section types.SectionAnalysis) (string, int) {
	text := section.OriginalText
	applied := 0
	for _, edit := range section.Edits {
		if edit.Status == types.StatusRejected || edit.TargetText == "" {
			continue
		}
		if strings.Contains(text, edit.TargetText) {
			text = strings.ReplaceAll(text, edit.TargetText, edit.NewContent)
			applied++
		}
	}
	return text, applied
}

// MergeDocument merges every section and joins the results
func MergeDocument(sections []types.SectionAnalysis) string {
	parts := make([]string, len(sections))
	for i, section := range sections {
		parts[i] = MergeSection(section)
	}
	return strings.Join(parts, SectionSeparator)
}

// OriginalDocument joins the unedited section texts
func OriginalDocument(sections []types.SectionAnalysis) string {
	parts := make([]string, len(sections))
	for i, section := range sections {
		parts[i] = section.OriginalText
	}
	return strings.Join(parts, SectionSeparator)
}

// BuildPreview computes the original and merged document side by side
func BuildPreview(sections []types.SectionAnalysis) types.Preview {
	p := types.Preview{Sections: make([]types.SectionPreview, len(sections))}
	original := make([]string, len(sections))
	tailored := make([]string, len(sections))
	for i, section := range sections {
		merged, applied := mergeSection(section)
		original[i] = section.OriginalText
		tailored[i] = merged
		p.Sections[i] = types.SectionPreview{
			SectionName: section.SectionName,
			Original:    section.OriginalText,
			Tailored:    merged,
			Applied:     applied,
		}
	}
	p.Original = strings.Join(original, SectionSeparator)
	p.Tailored = strings.Join(tailored, SectionSeparator)
	return p
}

// WithoutRejected returns a copy of sections whose edit lists exclude
// rejected edits
func WithoutRejected(sections []types.SectionAnalysis) []types.SectionAnalysis {
	out := make([]types.SectionAnalysis, len(sections))
	for i, section := range sections {
		kept := make([]types.EditSuggestion, 0, len(section.Edits))
		for _, edit := range section.Edits {
			if edit.Status != types.StatusRejected {
				kept = append(kept, edit)
			}
		}
		section.Edits = kept
		out[i] = section
	}
	return out
}

// StatusCounts tallies edits by status across sections
func StatusCounts(sections []types.SectionAnalysis) map[types.EditStatus]int {
	counts := map[types.EditStatus]int{
		types.StatusPending:  0,
		types.StatusAccepted: 0,
		types.StatusRejected: 0,
	}
	for _, section := range sections {
		for _, edit := range section.Edits {
			counts[edit.Status]++
		}
	}
	return counts
}
