// Package session owns an editing session: the analyzed sections under
// review, their persistence, and the guard that keeps superseded upstream
// responses out.
package session

import (
	"fmt"
	"time"

	"resumetailor/internal/errors"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"

	"github.com/google/uuid"
)

// Placeholder values the analysis service uses for unknown fields
const (
	UnknownCompany = "Unknown Company"
	UnknownRole    = "Unknown Role"
)

// Session is one résumé tailoring in progress
type Session struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	JobDescription string `json:"job_description,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	JobRole        string `json:"job_role,omitempty"`
	InitialScore   *int   `json:"initial_score,omitempty"`
	ProjectedScore *int   `json:"projected_score,omitempty"`

	RoleAnalysis    string `json:"role_analysis,omitempty"`
	Diagnosis       string `json:"diagnosis,omitempty"`
	ProposedTitle   string `json:"proposed_title,omitempty"`
	ProposedSummary string `json:"proposed_summary,omitempty"`

	// SavedResumeID is the remote record id once saved or loaded
	SavedResumeID int64 `json:"saved_resume_id,omitempty"`

	Sections []types.SectionAnalysis `json:"sections"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	guard      Guard
	generation Guard
	cache *reconcile.MatchCache
}

// New creates an empty session for a job description
func New(jobDescription string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             uuid.NewString(),
		JobDescription: jobDescription,
		Sections:       []types.SectionAnalysis{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewFromAnalysis starts a session from a fresh analysis result.
// Every edit starts out pending.
func NewFromAnalysis(result *types.AnalysisResult, jobDescription string) *Session {
	s := New(jobDescription)
	s.applyResult(result)
	return s
}

// Hydrate rebuilds a session from a saved record. Edits without a status
// become pending; stored decisions are kept.
func Hydrate(saved *types.SavedResume) *Session {
	s := New("")
	s.Filename = saved.Filename
	s.InitialScore = saved.InitialScore
	s.ProjectedScore = saved.ProjectedScore
	s.SavedResumeID = saved.ID
	if saved.TailoredSections != nil {
		s.Sections = reconcile.FillPending(saved.TailoredSections)
	}
	return s
}

// UseCache routes segment rendering through a shared match cache
func (s *Session) UseCache(cache *reconcile.MatchCache) {
	s.cache = cache
}

func (s *Session) applyResult(result *types.AnalysisResult) {
	s.Sections = reconcile.InitPending(result.Sections)
	s.Filename = result.Filename
	s.InitialScore = result.InitialScore
	s.ProjectedScore = result.ProjectedScore
	s.CompanyName = knownOrEmpty(result.CompanyName, UnknownCompany)
	s.JobRole = knownOrEmpty(result.JobTitle, UnknownRole)
	s.RoleAnalysis = result.RoleAnalysis
	s.Diagnosis = result.Diagnosis
	s.ProposedTitle = result.ProposedTitle
	s.ProposedSummary = result.ProposedSummary
	s.SavedResumeID = 0
	s.touch()
}

func knownOrEmpty(value, placeholder string) string {
	if value == placeholder {
		return ""
	}
	return value
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// BeginRequest issues a ticket for an upstream call whose result will
// replace session data
func (s *Session) BeginRequest() Ticket {
	return s.guard.Begin()
}

// CheckCurrent fails with a conflict error when ticket has been superseded
func (s *Session) CheckCurrent(ticket Ticket) error {
	if !s.guard.Current(ticket) {
		return errors.NewStaleError("response superseded by a newer request").
			WithContext("session_id", s.ID)
	}
	return nil
}

// BeginGenerate issues a ticket for a document request. It does not
// supersede analyses already in flight.
func (s *Session) BeginGenerate() GenerateTicket {
	return GenerateTicket{
		Analysis: s.guard.Last(),
		Generate: s.generation.Begin(),
	}
}

// CheckGenerate fails with a conflict error when an analysis or another
// document request started after ticket was issued
func (s *Session) CheckGenerate(ticket GenerateTicket) error {
	if !s.guard.Current(ticket.Analysis) || !s.generation.Current(ticket.Generate) {
		return errors.NewStaleError("document superseded by a newer request").
			WithContext("session_id", s.ID)
	}
	return nil
}

// ApplyAnalysis replaces the session's sections with a new analysis, but
// only if ticket is still the newest request. A stale result leaves the
// session untouched.
func (s *Session) ApplyAnalysis(ticket Ticket, result *types.AnalysisResult, jobDescription string) error {
	if err := s.CheckCurrent(ticket); err != nil {
		return err
	}
	s.JobDescription = jobDescription
	s.applyResult(result)
	return nil
}

// UpdateSuggestionText sets the proposed content of one edit
func (s *Session) UpdateSuggestionText(sectionIndex, editIndex int, newValue string) error {
	next, err := reconcile.UpdateSuggestionText(s.Sections, sectionIndex, editIndex, newValue)
	if err != nil {
		return err
	}
	s.Sections = next
	s.touch()
	return nil
}

// SetSuggestionStatus records a review decision for one edit
func (s *Session) SetSuggestionStatus(sectionIndex, editIndex int, status types.EditStatus) error {
	next, err := reconcile.SetSuggestionStatus(s.Sections, sectionIndex, editIndex, status)
	if err != nil {
		return err
	}
	s.Sections = next
	s.touch()
	return nil
}

// SetJobDetails overrides the company and role attached to the session
func (s *Session) SetJobDetails(company, role string) {
	if company != "" {
		s.CompanyName = company
	}
	if role != "" {
		s.JobRole = role
	}
	s.touch()
}

// MarkSaved records the remote id of the saved résumé
func (s *Session) MarkSaved(id int64) {
	s.SavedResumeID = id
	s.touch()
}

// Render returns the segments of one section
func (s *Session) Render(sectionIndex int) (reconcile.Rendering, error) {
	if sectionIndex < 0 || sectionIndex >= len(s.Sections) {
		return reconcile.Rendering{}, errors.NewValidationError(errors.ErrCodeEditNotFound,
			fmt.Sprintf("section %d out of range (have %d)", sectionIndex, len(s.Sections)), nil)
	}
	return s.cache.Render(s.Sections[sectionIndex]), nil
}

// RenderAll returns the segments of every section
func (s *Session) RenderAll() []reconcile.Rendering {
	out := make([]reconcile.Rendering, len(s.Sections))
	for i, section := range s.Sections {
		out[i] = s.cache.Render(section)
	}
	return out
}

// Preview merges the current decisions into final text
func (s *Session) Preview() types.Preview {
	p := reconcile.BuildPreview(s.Sections)
	p.SessionID = s.ID
	return p
}

// TailoredText is the merged document
func (s *Session) TailoredText() string {
	return reconcile.MergeDocument(s.Sections)
}

// SaveRequest builds the payload that persists this session remotely.
// Sections keep their statuses so a later load restores the review.
func (s *Session) SaveRequest() types.SaveRequest {
	req := types.SaveRequest{
		Filename:         s.Filename,
		OriginalText:     reconcile.OriginalDocument(s.Sections),
		TailoredText:     reconcile.MergeDocument(s.Sections),
		TailoredSections: s.Sections,
		CompanyName:      s.CompanyName,
		JobRole:          s.JobRole,
		JobDescription:   s.JobDescription,
	}
	if s.InitialScore != nil {
		req.InitialScore = *s.InitialScore
	}
	if s.ProjectedScore != nil {
		req.ProjectedScore = *s.ProjectedScore
	}
	return req
}

// GenerateRequest builds the document generation payload. Rejected edits
// are left out.
func (s *Session) GenerateRequest() types.GenerateRequest {
	return types.GenerateRequest{
		Filename: s.Filename,
		Sections: reconcile.WithoutRejected(s.Sections),
	}
}

// Summary condenses the session for listings
func (s *Session) Summary() types.SessionSummary {
	counts := reconcile.StatusCounts(s.Sections)
	edits := 0
	for _, section := range s.Sections {
		edits += len(section.Edits)
	}
	return types.SessionSummary{
		ID:            s.ID,
		Filename:      s.Filename,
		CompanyName:   s.CompanyName,
		JobRole:       s.JobRole,
		Sections:      len(s.Sections),
		Edits:         edits,
		Pending:       counts[types.StatusPending],
		Accepted:      counts[types.StatusAccepted],
		Rejected:      counts[types.StatusRejected],
		SavedResumeID: s.SavedResumeID,
		UpdatedAt:     s.UpdatedAt,
	}
}

// replaceData copies persisted fields from other, keeping this session's
// request guard and cache
func (s *Session) replaceData(other *Session) {
	s.ID = other.ID
	s.Filename = other.Filename
	s.JobDescription = other.JobDescription
	s.CompanyName = other.CompanyName
	s.JobRole = other.JobRole
	s.InitialScore = other.InitialScore
	s.ProjectedScore = other.ProjectedScore
	s.RoleAnalysis = other.RoleAnalysis
	s.Diagnosis = other.Diagnosis
	s.ProposedTitle = other.ProposedTitle
	s.ProposedSummary = other.ProposedSummary
	s.SavedResumeID = other.SavedResumeID
	s.Sections = other.Sections
	s.CreatedAt = other.CreatedAt
	s.UpdatedAt = other.UpdatedAt
}

// Snapshot returns a detached copy that is safe to use after the session
// lock is released
func (s *Session) Snapshot() *Session {
	c := &Session{}
	c.replaceData(s)
	return c
}

// FromSnapshot builds a live session from a snapshot. Edits without a
// status become pending.
func FromSnapshot(snap *Session) *Session {
	s := &Session{}
	s.replaceData(snap)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Sections == nil {
		s.Sections = []types.SectionAnalysis{}
	} else {
		s.Sections = reconcile.FillPending(s.Sections)
	}
	return s
}
