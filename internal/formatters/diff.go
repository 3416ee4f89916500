package formatters

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff computes a semantically cleaned diff from original to tailored
func Diff(original, tailored string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, tailored, false)
	return dmp.DiffCleanupSemantic(diffs)
}

// RenderDiff writes diffs with deleted and inserted runs passed through
// the given decorators
func RenderDiff(diffs []diffmatchpatch.Diff, deleted, inserted func(string) string) string {
	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			b.WriteString(deleted(d.Text))
		case diffmatchpatch.DiffInsert:
			b.WriteString(inserted(d.Text))
		}
	}
	return b.String()
}

// TextDiff marks deletions as [-x-] and insertions as {+x+}
func TextDiff(original, tailored string) string {
	return RenderDiff(Diff(original, tailored),
		func(s string) string { return "[-" + s + "-]" },
		func(s string) string { return "{+" + s + "+}" })
}

// MarkdownDiff strikes deletions through and bolds insertions
func MarkdownDiff(original, tailored string) string {
	return RenderDiff(Diff(original, tailored), markdownWrap("~~"), markdownWrap("**"))
}

// markdownWrap keeps surrounding whitespace outside the emphasis markers,
// which markdown requires
func markdownWrap(marker string) func(string) string {
	return func(s string) string {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return s
		}
		start := strings.Index(s, trimmed)
		return s[:start] + marker + trimmed + marker + s[start+len(trimmed):]
	}
}
