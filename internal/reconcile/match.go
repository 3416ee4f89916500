// Package reconcile aligns edit suggestions with the section text they
// target and derives the display segments and merged text from them.
package reconcile

import (
	"cmp"
	"slices"
	"strings"

	"resumetailor/internal/types"
)

// Match is an edit located in a section's original text.
// Index is the edit's position in the section's edit list, and the
// matched span is the byte range [Pos, End).
type Match struct {
	Index int `json:"edit_index"`
	Pos   int `json:"pos"`
	End   int `json:"end"`
}

// Locate returns the byte offset of the first occurrence of target in
// original, or -1 when target is empty or absent.
func Locate(original, target string) int {
	if target == "" {
		return -1
	}
	return strings.Index(original, target)
}

// MatchEdits resolves each edit's target span and keeps a non-overlapping,
// position-ordered subset. Edits whose target cannot be found are dropped.
// When spans overlap, the one starting first wins; equal starts are
// decided by edit order.
func MatchEdits(original string, edits []types.EditSuggestion) []Match {
	located := make([]Match, 0, len(edits))
	for i, edit := range edits {
		pos := Locate(original, edit.TargetText)
		if pos < 0 {
			continue
		}
		located = append(located, Match{Index: i, Pos: pos, End: pos + len(edit.TargetText)})
	}

	slices.SortStableFunc(located, func(a, b Match) int {
		return cmp.Compare(a.Pos, b.Pos)
	})

	valid := located[:0]
	coverageLimit := 0
	for _, m := range located {
		if m.Pos < coverageLimit {
			continue
		}
		valid = append(valid, m)
		coverageLimit = m.End
	}
	return valid
}

// Unplaced returns the indices of edits that are not part of matches, in
// edit order. These are stale or overlapping suggestions.
func Unplaced(edits []types.EditSuggestion, matches []Match) []int {
	placed := make(map[int]bool, len(matches))
	for _, m := range matches {
		placed[m.Index] = true
	}
	var out []int
	for i := range edits {
		if !placed[i] {
			out = append(out, i)
		}
	}
	return out
}
