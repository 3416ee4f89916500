package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// EditStatus is the review state of a single edit suggestion
type EditStatus string

const (
	StatusPending  EditStatus = "pending"
	StatusAccepted EditStatus = "accepted"
	StatusRejected EditStatus = "rejected"
)

// Valid reports whether s is one of the three review states
func (s EditStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// EditSuggestion is a proposed replacement of TargetText with NewContent
type EditSuggestion struct {
	TargetText string     `json:"target_text" yaml:"target_text"`
	NewContent string     `json:"new_content" yaml:"new_content"`
	Action     string     `json:"action" yaml:"action"`
	Rationale  string     `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Status     EditStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// SectionAnalysis holds one résumé section and the edits suggested for it.
// An empty OriginalText means the section has no positional anchor.
type SectionAnalysis struct {
	SectionName  string           `json:"section_name" yaml:"section_name"`
	OriginalText string           `json:"original_text,omitempty" yaml:"original_text,omitempty"`
	Gaps         []string         `json:"gaps" yaml:"gaps"`
	Suggestions  []string         `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Edits        []EditSuggestion `json:"edits" yaml:"edits"`
}

// AnalysisResult is the response of the remote analysis endpoint
type AnalysisResult struct {
	Sections        []SectionAnalysis `json:"sections"`
	Filename        string            `json:"filename"`
	InitialScore    *int              `json:"initial_score,omitempty"`
	ProjectedScore  *int              `json:"projected_score,omitempty"`
	CompanyName     string            `json:"company_name,omitempty"`
	JobTitle        string            `json:"job_title,omitempty"`
	RoleAnalysis    string            `json:"role_analysis,omitempty"`
	Diagnosis       string            `json:"diagnosis,omitempty"`
	ProposedTitle   string            `json:"proposed_title,omitempty"`
	ProposedSummary string            `json:"proposed_summary,omitempty"`
}

// GenerateRequest asks the remote service to build a document from the accepted edits
type GenerateRequest struct {
	Filename string            `json:"filename" validate:"required"`
	Sections []SectionAnalysis `json:"sections" validate:"required"`
}

// GenerateResult is the response of the generation endpoint.
// A missing DownloadURL is a failure reported through Error.
type GenerateResult struct {
	Message     string `json:"message,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	PDFPath     string `json:"pdf_path,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SaveRequest persists a tailored résumé to the user's profile
type SaveRequest struct {
	Filename         string            `json:"filename" validate:"required"`
	OriginalText     string            `json:"original_text"`
	TailoredText     string            `json:"tailored_text"`
	TailoredSections []SectionAnalysis `json:"tailored_sections" validate:"required"`
	CompanyName      string            `json:"company_name,omitempty"`
	JobRole          string            `json:"job_role,omitempty"`
	JobDescription   string            `json:"job_description,omitempty"`
	InitialScore     int               `json:"initial_score" validate:"gte=0,lte=100"`
	ProjectedScore   int               `json:"projected_score" validate:"gte=0,lte=100"`
}

// SaveResult is the response of the save endpoint
type SaveResult struct {
	Message       string `json:"message,omitempty"`
	ID            int64  `json:"id"`
	ApplicationID *int64 `json:"application_id,omitempty"`
}

// UpdateResult is the response of the saved-résumé update endpoint
type UpdateResult struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// SavedResume is a previously saved record as returned by the load endpoint
type SavedResume struct {
	ID               int64             `json:"id"`
	Filename         string            `json:"filename"`
	OriginalText     string            `json:"original_text"`
	TailoredText     string            `json:"tailored_text"`
	TailoredSections []SectionAnalysis `json:"tailored_sections"`
	CreatedAt        string            `json:"created_at"`
	InitialScore     *int              `json:"initial_score,omitempty"`
	ProjectedScore   *int              `json:"projected_score,omitempty"`
}

// UsageInfo reports how many analyses the caller has left
type UsageInfo struct {
	UsageCount  int  `json:"usage_count" yaml:"usage_count"`
	IsUnlimited bool `json:"is_unlimited" yaml:"is_unlimited"`
	Remaining   int  `json:"remaining" yaml:"remaining"`
}

// JobDescription is the response of the job-description fetch endpoint
type JobDescription struct {
	JobDescription string `json:"job_description" yaml:"job_description"`
	Company        string `json:"company" yaml:"company"`
	Role           string `json:"role" yaml:"role"`
}

// LoginRequest holds credentials for the token endpoint
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// TokenResponse is returned by the login endpoint
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SectionPreview pairs a section's original text with its merged text
type SectionPreview struct {
	SectionName string `json:"section_name" yaml:"section_name"`
	Original    string `json:"original" yaml:"original"`
	Tailored    string `json:"tailored" yaml:"tailored"`
	Applied     int    `json:"applied_edits" yaml:"applied_edits"`
}

// Preview is the side-by-side view of the whole document
type Preview struct {
	SessionID string           `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Original  string           `json:"original" yaml:"original"`
	Tailored  string           `json:"tailored" yaml:"tailored"`
	Sections  []SectionPreview `json:"sections" yaml:"sections"`
}

// SessionSummary is a short listing entry for a persisted session
type SessionSummary struct {
	ID            string    `json:"id" yaml:"id"`
	Filename      string    `json:"filename" yaml:"filename"`
	CompanyName   string    `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	JobRole       string    `json:"job_role,omitempty" yaml:"job_role,omitempty"`
	Sections      int       `json:"sections" yaml:"sections"`
	Edits         int       `json:"edits" yaml:"edits"`
	Pending       int       `json:"pending" yaml:"pending"`
	Accepted      int       `json:"accepted" yaml:"accepted"`
	Rejected      int       `json:"rejected" yaml:"rejected"`
	SavedResumeID int64     `json:"saved_resume_id,omitempty" yaml:"saved_resume_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// SessionList is a collection of session summaries
type SessionList []SessionSummary

// EditPatch changes the content or review status of one edit
type EditPatch struct {
	NewContent *string     `json:"new_content,omitempty"`
	Status     *EditStatus `json:"status,omitempty" validate:"omitempty,oneof=pending accepted rejected"`
}

// Validate validates the GenerateRequest using the validator.
func (r *GenerateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SaveRequest using the validator.
func (r *SaveRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the EditPatch using the validator.
func (p *EditPatch) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}
