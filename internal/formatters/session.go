package formatters

import (
	"fmt"
	"strings"
	"time"

	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"
)

// SummaryTextFormatter handles text formatting for a session summary
type SummaryTextFormatter struct{}

func (stf *SummaryTextFormatter) Format(data any) (string, error) {
	s, ok := data.(types.SessionSummary)
	if !ok {
		return "", fmt.Errorf("expected SessionSummary, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== SESSION ===\n")
	output.WriteString(fmt.Sprintf("ID:       %s\n", s.ID))
	output.WriteString(fmt.Sprintf("File:     %s\n", s.Filename))
	if s.CompanyName != "" || s.JobRole != "" {
		output.WriteString(fmt.Sprintf("Job:      %s\n", jobLabel(s.CompanyName, s.JobRole)))
	}
	output.WriteString(fmt.Sprintf("Sections: %d\n", s.Sections))
	output.WriteString(fmt.Sprintf("Edits:    %d (%d pending, %d accepted, %d rejected)\n",
		s.Edits, s.Pending, s.Accepted, s.Rejected))
	if s.SavedResumeID != 0 {
		output.WriteString(fmt.Sprintf("Saved as: #%d\n", s.SavedResumeID))
	}
	output.WriteString(fmt.Sprintf("Updated:  %s\n", s.UpdatedAt.Local().Format(time.DateTime)))
	return output.String(), nil
}

// SummaryMarkdownFormatter handles markdown formatting for a session summary
type SummaryMarkdownFormatter struct{}

func (smf *SummaryMarkdownFormatter) Format(data any) (string, error) {
	s, ok := data.(types.SessionSummary)
	if !ok {
		return "", fmt.Errorf("expected SessionSummary, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# Session `%s`\n\n", s.ID))
	output.WriteString(fmt.Sprintf("- **File:** %s\n", s.Filename))
	if s.CompanyName != "" || s.JobRole != "" {
		output.WriteString(fmt.Sprintf("- **Job:** %s\n", jobLabel(s.CompanyName, s.JobRole)))
	}
	output.WriteString(fmt.Sprintf("- **Sections:** %d\n", s.Sections))
	output.WriteString(fmt.Sprintf("- **Edits:** %d pending, %d accepted, %d rejected\n", s.Pending, s.Accepted, s.Rejected))
	if s.SavedResumeID != 0 {
		output.WriteString(fmt.Sprintf("- **Saved as:** #%d\n", s.SavedResumeID))
	}
	return output.String(), nil
}

func jobLabel(company, role string) string {
	switch {
	case company != "" && role != "":
		return role + " at " + company
	case role != "":
		return role
	default:
		return company
	}
}

// SessionListTextFormatter handles text formatting for session listings
type SessionListTextFormatter struct{}

func (sltf *SessionListTextFormatter) Format(data any) (string, error) {
	list, ok := data.(types.SessionList)
	if !ok {
		return "", fmt.Errorf("expected SessionList, got %T", data)
	}
	if len(list) == 0 {
		return "No sessions.\n", nil
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("%-8s  %-24s  %-28s  %s\n", "ID", "FILE", "JOB", "REVIEW"))
	for _, s := range list {
		output.WriteString(fmt.Sprintf("%-8s  %-24s  %-28s  %d/%d decided\n",
			shortID(s.ID), clip(s.Filename, 24), clip(jobLabel(s.CompanyName, s.JobRole), 28),
			s.Accepted+s.Rejected, s.Edits))
	}
	return output.String(), nil
}

// SessionListMarkdownFormatter handles markdown formatting for session listings
type SessionListMarkdownFormatter struct{}

func (slmf *SessionListMarkdownFormatter) Format(data any) (string, error) {
	list, ok := data.(types.SessionList)
	if !ok {
		return "", fmt.Errorf("expected SessionList, got %T", data)
	}

	var output strings.Builder
	output.WriteString("| ID | File | Job | Pending | Accepted | Rejected |\n")
	output.WriteString("|---|---|---|---|---|---|\n")
	for _, s := range list {
		output.WriteString(fmt.Sprintf("| `%s` | %s | %s | %d | %d | %d |\n",
			shortID(s.ID), s.Filename, jobLabel(s.CompanyName, s.JobRole), s.Pending, s.Accepted, s.Rejected))
	}
	return output.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderings(data any) ([]reconcile.Rendering, error) {
	switch v := data.(type) {
	case reconcile.Rendering:
		return []reconcile.Rendering{v}, nil
	case []reconcile.Rendering:
		return v, nil
	default:
		return nil, fmt.Errorf("expected Rendering, got %T", data)
	}
}

// RenderingTextFormatter prints segments with inline edit markers
type RenderingTextFormatter struct{}

func (rtf *RenderingTextFormatter) Format(data any) (string, error) {
	list, err := renderings(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for i, r := range list {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("=== %s (%s) ===\n", strings.ToUpper(r.SectionName), r.Mode))
		for _, seg := range r.Segments {
			switch seg.Kind {
			case reconcile.SegmentLiteral:
				output.WriteString(seg.Text)
			case reconcile.SegmentEdit:
				output.WriteString(fmt.Sprintf("[#%d %s: %q -> %q]", seg.EditIndex, seg.Status, seg.TargetText, seg.NewContent))
			case reconcile.SegmentCard:
				output.WriteString(fmt.Sprintf("- #%d [%s] %q -> %q\n", seg.EditIndex, seg.Status, seg.TargetText, seg.NewContent))
				if seg.Rationale != "" {
					output.WriteString("    " + seg.Rationale + "\n")
				}
			case reconcile.SegmentPlaceholder:
				output.WriteString(seg.Text + "\n")
			}
		}
		if r.Mode == reconcile.ModePositional {
			output.WriteString("\n")
		}
		if len(r.Unplaced) > 0 {
			output.WriteString(fmt.Sprintf("(edits not found in text: %s)\n", joinInts(r.Unplaced)))
		}
	}
	return output.String(), nil
}

// RenderingMarkdownFormatter shows replaced text struck through next to
// the proposed content
type RenderingMarkdownFormatter struct{}

func (rmf *RenderingMarkdownFormatter) Format(data any) (string, error) {
	list, err := renderings(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for _, r := range list {
		output.WriteString(fmt.Sprintf("## %s\n\n", r.SectionName))
		for _, seg := range r.Segments {
			switch seg.Kind {
			case reconcile.SegmentLiteral:
				output.WriteString(seg.Text)
			case reconcile.SegmentEdit:
				output.WriteString(markdownEdit(seg))
			case reconcile.SegmentCard:
				output.WriteString(fmt.Sprintf("- **#%d** (%s): %s\n", seg.EditIndex, seg.Status, markdownEdit(seg)))
			case reconcile.SegmentPlaceholder:
				output.WriteString("_" + seg.Text + "_\n")
			}
		}
		output.WriteString("\n\n")
	}
	return output.String(), nil
}

func markdownEdit(seg reconcile.Segment) string {
	switch seg.Status {
	case types.StatusRejected:
		return seg.TargetText
	case types.StatusAccepted:
		return "**" + seg.NewContent + "**"
	default:
		return "~~" + seg.TargetText + "~~ **" + seg.NewContent + "**"
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("#%d", v)
	}
	return strings.Join(parts, ", ")
}

// PreviewTextFormatter prints each section's merged text and a word diff
type PreviewTextFormatter struct{}

func (ptf *PreviewTextFormatter) Format(data any) (string, error) {
	p, ok := data.(types.Preview)
	if !ok {
		return "", fmt.Errorf("expected Preview, got %T", data)
	}

	var output strings.Builder
	for _, section := range p.Sections {
		output.WriteString(fmt.Sprintf("=== %s (%d edits applied) ===\n", strings.ToUpper(section.SectionName), section.Applied))
		output.WriteString(section.Tailored)
		output.WriteString("\n")
		if section.Original != section.Tailored && section.Original != "" {
			output.WriteString("--- changes ---\n")
			output.WriteString(TextDiff(section.Original, section.Tailored))
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}
	return output.String(), nil
}

// PreviewMarkdownFormatter renders the tailored document with changes
// highlighted
type PreviewMarkdownFormatter struct{}

func (pmf *PreviewMarkdownFormatter) Format(data any) (string, error) {
	p, ok := data.(types.Preview)
	if !ok {
		return "", fmt.Errorf("expected Preview, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Tailored Resume\n\n")
	for _, section := range p.Sections {
		output.WriteString(fmt.Sprintf("## %s\n\n", section.SectionName))
		if section.Original == "" {
			output.WriteString(section.Tailored)
		} else {
			output.WriteString(MarkdownDiff(section.Original, section.Tailored))
		}
		output.WriteString("\n\n")
	}
	return output.String(), nil
}

// UsageTextFormatter prints the caller's analysis allowance
type UsageTextFormatter struct{}

func (utf *UsageTextFormatter) Format(data any) (string, error) {
	u, ok := data.(types.UsageInfo)
	if !ok {
		return "", fmt.Errorf("expected UsageInfo, got %T", data)
	}
	if u.IsUnlimited {
		return fmt.Sprintf("Analyses used: %d (unlimited)\n", u.UsageCount), nil
	}
	return fmt.Sprintf("Analyses used: %d, remaining: %d\n", u.UsageCount, u.Remaining), nil
}

// JobDescriptionTextFormatter handles text formatting for fetched postings
type JobDescriptionTextFormatter struct{}

func (jtf *JobDescriptionTextFormatter) Format(data any) (string, error) {
	jd, ok := data.(types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected JobDescription, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Company: %s\n", orDash(jd.Company)))
	output.WriteString(fmt.Sprintf("Role:    %s\n\n", orDash(jd.Role)))
	output.WriteString(jd.JobDescription)
	output.WriteString("\n")
	return output.String(), nil
}

// JobDescriptionMarkdownFormatter handles markdown formatting for fetched postings
type JobDescriptionMarkdownFormatter struct{}

func (jmf *JobDescriptionMarkdownFormatter) Format(data any) (string, error) {
	jd, ok := data.(types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected JobDescription, got %T", data)
	}
	return fmt.Sprintf("# %s\n\n**Company:** %s\n\n%s\n", orDash(jd.Role), orDash(jd.Company), jd.JobDescription), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
