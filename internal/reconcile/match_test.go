package reconcile

import (
	"fmt"
	"testing"

	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edit(target, content string) types.EditSuggestion {
	return types.EditSuggestion{TargetText: target, NewContent: content, Status: types.StatusPending}
}

func TestMatchEdits(t *testing.T) {
	tests := []struct {
		name     string
		original string
		edits    []types.EditSuggestion
		expected []Match
	}{
		{
			name:     "overlapping edit is dropped",
			original: "I led teams and shipped code.",
			edits: []types.EditSuggestion{
				edit("led teams", "led cross-functional teams"),
				edit("teams and", "teams & also"),
			},
			expected: []Match{{Index: 0, Pos: 2, End: 11}},
		},
		{
			name:     "stale target excluded",
			original: "Built reports.",
			edits: []types.EditSuggestion{
				edit("never appears", "x"),
				edit("reports", "dashboards"),
			},
			expected: []Match{{Index: 1, Pos: 6, End: 13}},
		},
		{
			name:     "sorted by position regardless of edit order",
			original: "alpha beta gamma",
			edits: []types.EditSuggestion{
				edit("gamma", "G"),
				edit("alpha", "A"),
				edit("beta", "B"),
			},
			expected: []Match{
				{Index: 1, Pos: 0, End: 5},
				{Index: 2, Pos: 6, End: 10},
				{Index: 0, Pos: 11, End: 16},
			},
		},
		{
			name:     "equal start keeps earlier edit",
			original: "shipped code",
			edits: []types.EditSuggestion{
				edit("shipped", "delivered"),
				edit("shipped code", "released software"),
			},
			expected: []Match{{Index: 0, Pos: 0, End: 7}},
		},
		{
			name:     "adjacent spans both accepted",
			original: "abcdef",
			edits: []types.EditSuggestion{
				edit("abc", "1"),
				edit("def", "2"),
			},
			expected: []Match{{Index: 0, Pos: 0, End: 3}, {Index: 1, Pos: 3, End: 6}},
		},
		{
			name:     "empty target is a miss",
			original: "anything",
			edits:    []types.EditSuggestion{edit("", "x")},
			expected: []Match{},
		},
		{
			name:     "empty original matches nothing",
			original: "",
			edits:    []types.EditSuggestion{edit("a", "b")},
			expected: []Match{},
		},
		{
			name:     "first occurrence only",
			original: "data data data",
			edits:    []types.EditSuggestion{edit("data", "info")},
			expected: []Match{{Index: 0, Pos: 0, End: 4}},
		},
		{
			name:     "byte offsets for multibyte text",
			original: "Café manager",
			edits:    []types.EditSuggestion{edit("manager", "lead")},
			expected: []Match{{Index: 0, Pos: 6, End: 13}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEdits(tt.original, tt.edits)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMatchEditsDeterministic(t *testing.T) {
	original := "Led a team of five. Shipped the billing service. Led a migration."
	edits := []types.EditSuggestion{
		edit("Led a", "Headed a"),
		edit("billing service", "billing platform"),
		edit("team of five", "team of 5"),
		edit("Shipped the billing", "Delivered the billing"),
	}

	first := MatchEdits(original, edits)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MatchEdits(original, edits))
	}
}

func TestMatchEditsInvariants(t *testing.T) {
	original := "Designed APIs for payments, built dashboards for ops, mentored juniors, and wrote docs."
	targets := []string{
		"Designed APIs", "APIs for payments", "built dashboards", "dashboards for ops",
		"mentored", "juniors, and", "wrote docs", "docs.", "missing", "for",
	}
	edits := make([]types.EditSuggestion, len(targets))
	for i, target := range targets {
		edits[i] = edit(target, fmt.Sprintf("new-%d", i))
	}

	matches := MatchEdits(original, edits)
	require.NotEmpty(t, matches)

	for i, m := range matches {
		assert.Equal(t, edits[m.Index].TargetText, original[m.Pos:m.End])
		if i == 0 {
			continue
		}
		prev := matches[i-1]
		assert.LessOrEqual(t, prev.Pos, m.Pos, "matches must be ordered by position")
		assert.LessOrEqual(t, prev.End, m.Pos, "spans %v and %v overlap", prev, m)
	}
}

func TestUnplaced(t *testing.T) {
	edits := []types.EditSuggestion{
		edit("led teams", "a"),
		edit("teams and", "b"),
		edit("never appears", "c"),
	}
	matches := MatchEdits("I led teams and shipped code.", edits)
	assert.Equal(t, []int{1, 2}, Unplaced(edits, matches))
}

func BenchmarkMatchEdits(b *testing.B) {
	original := "Designed APIs for payments, built dashboards for ops, mentored juniors, and wrote docs."
	edits := []types.EditSuggestion{
		edit("Designed APIs", "Built APIs"),
		edit("dashboards for ops", "ops dashboards"),
		edit("mentored juniors", "coached engineers"),
		edit("missing text", "x"),
	}
	for b.Loop() {
		_ = MatchEdits(original, edits)
	}
}
