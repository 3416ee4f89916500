package reconcile

import "resumetailor/internal/types"

// Mode selects how a section's edits are presented
type Mode string

const (
	// ModePositional inlines edits into the section text
	ModePositional Mode = "positional"
	// ModeList shows every edit as a standalone card
	ModeList Mode = "list"
)

// SegmentKind identifies what a segment carries
type SegmentKind string

const (
	SegmentLiteral     SegmentKind = "literal"
	SegmentEdit        SegmentKind = "edit"
	SegmentCard        SegmentKind = "card"
	SegmentPlaceholder SegmentKind = "placeholder"
)

// NoEditsText is shown in list mode when a section has no edits
const NoEditsText = "No edits suggested."

// Segment is one renderable piece of a section.
// EditIndex is -1 for literal and placeholder segments.
type Segment struct {
	Kind       SegmentKind      `json:"kind" yaml:"kind"`
	Text       string           `json:"text,omitempty" yaml:"text,omitempty"`
	EditIndex  int              `json:"edit_index" yaml:"edit_index"`
	TargetText string           `json:"target_text,omitempty" yaml:"target_text,omitempty"`
	NewContent string           `json:"new_content,omitempty" yaml:"new_content,omitempty"`
	Action     string           `json:"action,omitempty" yaml:"action,omitempty"`
	Rationale  string           `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Status     types.EditStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// Rendering is the segment sequence for one section
type Rendering struct {
	SectionName string    `json:"section_name" yaml:"section_name"`
	Mode        Mode      `json:"mode" yaml:"mode"`
	Segments    []Segment `json:"segments" yaml:"segments"`
	// Unplaced lists edits left out of a positional rendering
	Unplaced []int `json:"unplaced,omitempty" yaml:"unplaced,omitempty"`
}

// Render builds the segments of a section, matching its edits first
func Render(section types.SectionAnalysis) Rendering {
	return RenderMatches(section, MatchEdits(section.OriginalText, section.Edits))
}

// RenderMatches builds the segments of a section from a precomputed match
// set. matches must come from MatchEdits on the same text and targets.
func RenderMatches(section types.SectionAnalysis, matches []Match) Rendering {
	if section.OriginalText == "" {
		return renderList(section)
	}

	r := Rendering{
		SectionName: section.SectionName,
		Mode:        ModePositional,
		Segments:    make([]Segment, 0, 2*len(matches)+1),
		Unplaced:    Unplaced(section.Edits, matches),
	}

	text := section.OriginalText
	lastIndex := 0
	for _, m := range matches {
		if m.Pos > lastIndex {
			r.Segments = append(r.Segments, literal(text[lastIndex:m.Pos]))
		}
		r.Segments = append(r.Segments, editSegment(SegmentEdit, m.Index, section.Edits[m.Index]))
		lastIndex = m.End
	}
	if lastIndex < len(text) {
		r.Segments = append(r.Segments, literal(text[lastIndex:]))
	}
	return r
}

func renderList(section types.SectionAnalysis) Rendering {
	r := Rendering{SectionName: section.SectionName, Mode: ModeList}
	if len(section.Edits) == 0 {
		r.Segments = []Segment{{Kind: SegmentPlaceholder, Text: NoEditsText, EditIndex: -1}}
		return r
	}
	r.Segments = make([]Segment, len(section.Edits))
	for i, edit := range section.Edits {
		r.Segments[i] = editSegment(SegmentCard, i, edit)
	}
	return r
}

func literal(text string) Segment {
	return Segment{Kind: SegmentLiteral, Text: text, EditIndex: -1}
}

func editSegment(kind SegmentKind, index int, edit types.EditSuggestion) Segment {
	return Segment{
		Kind:       kind,
		EditIndex:  index,
		TargetText: edit.TargetText,
		NewContent: edit.NewContent,
		Action:     edit.Action,
		Rationale:  edit.Rationale,
		Status:     edit.Status,
	}
}
