package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"resumetailor/internal/errors"
	"resumetailor/internal/types"
)

// DefaultDownloadName is used when the service does not name the generated file
const DefaultDownloadName = "resume.docx"

// CheckUsage returns the caller's analysis usage. The token is sent when
// one is available.
func (c *Client) CheckUsage(ctx context.Context) (*types.UsageInfo, error) {
	var usage types.UsageInfo
	if _, err := c.getJSON(ctx, FamilyLookup, "/api/usage", authOptional, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// Permitted decides whether another analysis may run. Anonymous callers are
// limited to trialLimit analyses; everyone is stopped when no allowance
// remains.
func Permitted(usage *types.UsageInfo, authenticated bool, trialLimit int) error {
	if !authenticated && usage.UsageCount >= trialLimit {
		return errors.NewQuotaError("Free trial limit reached", nil).
			WithContext("usage_count", usage.UsageCount).
			WithContext("trial_limit", trialLimit)
	}
	if !usage.IsUnlimited && usage.Remaining <= 0 {
		return errors.NewQuotaError("Analysis limit reached", nil).
			WithContext("usage_count", usage.UsageCount)
	}
	return nil
}

// CheckAccess fetches usage and refuses with a quota error when another
// analysis is not permitted
func (c *Client) CheckAccess(ctx context.Context, trialLimit int) (*types.UsageInfo, error) {
	usage, err := c.CheckUsage(ctx)
	if err != nil {
		return nil, err
	}
	authenticated := false
	if token, err := c.token(ctx, authOptional); err == nil && token != "" {
		authenticated = true
	}
	return usage, Permitted(usage, authenticated, trialLimit)
}

// FetchJobDescription asks the service to scrape a job posting
func (c *Client) FetchJobDescription(ctx context.Context, postingURL string) (*types.JobDescription, error) {
	u, err := url.Parse(postingURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid job posting URL %q", postingURL), err)
	}

	form := url.Values{"url": {postingURL}}
	resp, err := c.do(ctx, call{
		family:      FamilyLookup,
		method:      http.MethodPost,
		path:        "/fetch-jd",
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		auth:        authOptional,
	})
	if err != nil {
		return nil, err
	}

	var jd types.JobDescription
	if err := decode(resp.body, &jd); err != nil {
		return nil, err
	}
	return &jd, nil
}

// AnalyzeInput is a résumé upload with the job it is tailored to
type AnalyzeInput struct {
	Filename       string
	Resume         []byte
	JobDescription string
}

// Analyze uploads a résumé for analysis. The response is checked against
// the analysis schema before it is returned. Edit statuses are left as
// received; sessions reset them to pending.
func (c *Client) Analyze(ctx context.Context, in AnalyzeInput) (*types.AnalysisResult, error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job description is required", nil)
	}
	if len(in.Resume) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "resume file is empty", nil)
	}
	if c.maxUploadSize > 0 && int64(len(in.Resume)) > c.maxUploadSize {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("resume file exceeds %d bytes", c.maxUploadSize), nil)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("resume", path.Base(in.Filename))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build upload", err)
	}
	if _, err := part.Write(in.Resume); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build upload", err)
	}
	if err := mw.WriteField("job_description", in.JobDescription); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build upload", err)
	}
	if err := mw.Close(); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build upload", err)
	}

	resp, err := c.do(ctx, call{
		family:      FamilyAnalysis,
		method:      http.MethodPost,
		path:        "/analyze",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		auth:        authOptional,
	})
	if err != nil {
		return nil, err
	}

	if err := ValidateResponse(SchemaAnalysis, resp.body); err != nil {
		return nil, err
	}
	var result types.AnalysisResult
	if err := decode(resp.body, &result); err != nil {
		return nil, err
	}
	if result.Filename == "" {
		result.Filename = path.Base(in.Filename)
	}
	return &result, nil
}

// Generate asks the service to build the tailored document. A response
// without a download URL is a failure carrying the service's message.
func (c *Client) Generate(ctx context.Context, req types.GenerateRequest) (*types.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid generation request", err)
	}

	var result types.GenerateResult
	if _, err := c.sendJSON(ctx, FamilyGeneration, http.MethodPost, "/generate", authOptional, req, &result); err != nil {
		return nil, err
	}
	if result.DownloadURL == "" {
		msg := result.Error
		if msg == "" {
			msg = "document generation failed"
		}
		return &result, errors.NewNetworkError(errors.ErrCodeGenerationFailed, msg, nil)
	}
	return &result, nil
}

// DownloadName picks the local file name for a generated document
func DownloadName(result *types.GenerateResult) string {
	if result == nil || result.PDFPath == "" {
		return DefaultDownloadName
	}
	name := path.Base(strings.ReplaceAll(result.PDFPath, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return DefaultDownloadName
	}
	return name
}

// Download fetches a generated document. Relative URLs resolve against
// the service root.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	resp, err := c.do(ctx, call{
		family: FamilyGeneration,
		method: http.MethodGet,
		path:   downloadURL,
		auth:   authOptional,
		accept: "*/*",
	})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// SaveResume stores a tailored résumé in the caller's profile. The service
// creates an application entry only when company and role are both set.
func (c *Client) SaveResume(ctx context.Context, req types.SaveRequest) (*types.SaveResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid save request", err)
	}

	var result types.SaveResult
	if _, err := c.sendJSON(ctx, FamilyPersistence, http.MethodPost, "/api/resume/save", authRequired, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoadResume fetches a saved résumé
func (c *Client) LoadResume(ctx context.Context, id int64) (*types.SavedResume, error) {
	resp, err := c.do(ctx, call{
		family: FamilyPersistence,
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/resume/%d", id),
		auth:   authRequired,
	})
	if err != nil {
		return nil, err
	}
	if err := ValidateResponse(SchemaSavedResume, resp.body); err != nil {
		return nil, err
	}

	var saved types.SavedResume
	if err := decode(resp.body, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateResume re-saves a previously loaded résumé
func (c *Client) UpdateResume(ctx context.Context, id int64, req types.SaveRequest) (*types.UpdateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid update request", err)
	}

	var result types.UpdateResult
	p := fmt.Sprintf("/api/resume/%d", id)
	if _, err := c.sendJSON(ctx, FamilyPersistence, http.MethodPatch, p, authRequired, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid credentials", err)
	}

	var token types.TokenResponse
	if _, err := c.sendJSON(ctx, FamilyLookup, http.MethodPost, "/auth/login", authNone, req, &token); err != nil {
		if errors.IsType(err, errors.ErrorTypeValidation) && !errors.HasCode(err, errors.ErrCodeSchemaMismatch) {
			return nil, errors.NewAuthError(errors.ErrCodeUnauthenticated, "login failed", err)
		}
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.NewValidationError(errors.ErrCodeSchemaMismatch, "login response carried no token", nil)
	}
	return &token, nil
}
