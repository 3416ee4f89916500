package tui

import (
	"fmt"
	"strings"

	"resumetailor/internal/formatters"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"

	"github.com/charmbracelet/lipgloss"
)

// renderSegments draws one section. Positional edits are shown inline:
// the target while pending or rejected, the replacement once accepted.
func renderSegments(r reconcile.Rendering, selected int) string {
	var b strings.Builder
	for _, seg := range r.Segments {
		switch seg.Kind {
		case reconcile.SegmentLiteral:
			b.WriteString(literalStyle.Render(seg.Text))
		case reconcile.SegmentPlaceholder:
			b.WriteString(placeholderStyle.Render(seg.Text))
		case reconcile.SegmentEdit:
			b.WriteString(inlineEdit(seg, seg.EditIndex == selected))
		case reconcile.SegmentCard:
			b.WriteString(editCard(seg, seg.EditIndex == selected))
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusStyle(status types.EditStatus) lipgloss.Style {
	switch status {
	case types.StatusAccepted:
		return acceptedStyle
	case types.StatusRejected:
		return rejectedStyle
	default:
		return pendingTargetStyle
	}
}

func inlineEdit(seg reconcile.Segment, selected bool) string {
	text := seg.TargetText
	if seg.Status == types.StatusAccepted {
		text = seg.NewContent
	}
	style := statusStyle(seg.Status)
	if selected {
		style = style.Inherit(selectedStyle)
	}
	return style.Render(text)
}

func editCard(seg reconcile.Segment, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	head := fmt.Sprintf("%s#%d %s [%s]", marker, seg.EditIndex+1, seg.Action, seg.Status)
	style := statusStyle(seg.Status)
	if selected {
		head = selectedStyle.Render(head)
	}
	var b strings.Builder
	b.WriteString(head)
	if seg.TargetText != "" {
		b.WriteString("\n    ")
		b.WriteString(deletedStyle.Render(seg.TargetText))
	}
	b.WriteString("\n    ")
	b.WriteString(style.Render(seg.NewContent))
	return b.String()
}

// renderDetails describes the selected edit
func renderDetails(edit types.EditSuggestion, index, total int) string {
	rows := []struct{ label, value string }{
		{"Edit", fmt.Sprintf("%d of %d", index+1, total)},
		{"Status", string(edit.Status)},
		{"Action", edit.Action},
		{"Target", edit.TargetText},
		{"New", edit.NewContent},
		{"Why", edit.Rationale},
	}
	var lines []string
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		lines = append(lines, detailLabelStyle.Render(row.label)+row.value)
	}
	return strings.Join(lines, "\n")
}

// renderPreview draws the word diff between original and tailored text
func renderPreview(p types.Preview) string {
	var b strings.Builder
	for i, s := range p.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d applied)", s.SectionName, s.Applied)))
		b.WriteString("\n")
		b.WriteString(formatters.RenderDiff(formatters.Diff(s.Original, s.Tailored),
			func(t string) string { return deletedStyle.Render(t) },
			func(t string) string { return insertedStyle.Render(t) }))
	}
	return b.String()
}
