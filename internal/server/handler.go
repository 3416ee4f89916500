package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"resumetailor/internal/api"
	"resumetailor/internal/errors"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/session"
	"resumetailor/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// createSessionRequest is an analysis result plus the job description it
// was produced for
type createSessionRequest struct {
	types.AnalysisResult
	JobDescription string `json:"job_description,omitempty"`
}

// saveSessionRequest optionally supplies the application details
type saveSessionRequest struct {
	CompanyName string `json:"company_name,omitempty"`
	JobRole     string `json:"job_role,omitempty"`
}

// saveSessionResponse reports the remote record a session was saved to
type saveSessionResponse struct {
	Message       string `json:"message,omitempty"`
	ID            int64  `json:"id"`
	ApplicationID *int64 `json:"application_id,omitempty"`
	Updated       bool   `json:"updated"`
}

func pathIndex(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s must be a non-negative integer, got %q", name, raw), err)
	}
	return i, nil
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readJSONBody(r)
	if err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := api.ValidateResponse(api.SchemaAnalysis, body); err != nil {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"body is not an analysis result", err))
		return
	}

	var req createSessionRequest
	if err := parseBody(body, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	sess := session.NewFromAnalysis(&req.AnalysisResult, req.JobDescription)
	if err := s.Sessions.Create(r.Context(), sess); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.Observability.RecordSessionCreated(r.Context(), "server")
	s.Logger.Info("Session created", "session_id", sess.ID, "sections", len(sess.Sections))

	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	var snap *session.Session
	err := s.Sessions.View(r.Context(), r.PathValue("id"), func(sess *session.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// deleteSessionHandler starts over: the session and its file are dropped
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// analyzeHandler forwards an upload upstream. The result replaces the
// session's sections only if no newer analysis was started meanwhile.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeErrorResponse(w, "Invalid upload", err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		writeErrorResponse(w, "Missing resume", "multipart field 'resume' is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		writeErrorResponse(w, "Invalid upload", err.Error(), http.StatusBadRequest)
		return
	}
	jobDescription := r.FormValue("job_description")

	var ticket session.Ticket
	if err := s.Sessions.View(ctx, id, func(sess *session.Session) error {
		ticket = sess.BeginRequest()
		return nil
	}); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	ctx = api.WithToken(ctx, s.upstreamToken(r))
	if _, err := s.Upstream.CheckAccess(ctx, s.TrialLimit); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	result, err := s.Upstream.Analyze(ctx, api.AnalyzeInput{
		Filename:       header.Filename,
		Resume:         data,
		JobDescription: jobDescription,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	var snap *session.Session
	err = s.Sessions.Update(ctx, id, func(sess *session.Session) error {
		if err := sess.ApplyAnalysis(ticket, result, jobDescription); err != nil {
			return err
		}
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.Observability.RecordSessionCreated(ctx, "analysis")
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) segmentsHandler(w http.ResponseWriter, r *http.Request) {
	section, err := pathIndex(r, "section")
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	var rendering reconcile.Rendering
	err = s.Sessions.View(r.Context(), r.PathValue("id"), func(sess *session.Session) error {
		var err error
		rendering, err = sess.Render(section)
		return err
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rendering)
}

// editHandler applies a text change and/or a review decision to one edit
// and returns the section's new segments
func (s *Server) editHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	section, err := pathIndex(r, "section")
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	edit, err := pathIndex(r, "edit")
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	var patch types.EditPatch
	if err := parseJSONRequest(r, &patch); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if err := patch.Validate(); err != nil {
		writeErrorResponse(w, "Invalid edit", err.Error(), http.StatusBadRequest)
		return
	}
	if patch.NewContent == nil && patch.Status == nil {
		writeErrorResponse(w, "Invalid edit", "new_content or status is required", http.StatusBadRequest)
		return
	}

	var rendering reconcile.Rendering
	err = s.Sessions.Update(ctx, r.PathValue("id"), func(sess *session.Session) error {
		// Both changes target the same edit, so the first fails exactly
		// when the second would
		if patch.NewContent != nil {
			if err := sess.UpdateSuggestionText(section, edit, *patch.NewContent); err != nil {
				return err
			}
		}
		if patch.Status != nil {
			if err := sess.SetSuggestionStatus(section, edit, *patch.Status); err != nil {
				return err
			}
		}
		var err error
		rendering, err = sess.Render(section)
		return err
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	if patch.NewContent != nil {
		s.Observability.RecordEditReviewed(ctx, "content")
	}
	if patch.Status != nil {
		s.Observability.RecordEditReviewed(ctx, string(*patch.Status))
	}
	writeJSON(w, http.StatusOK, rendering)
}

func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request) {
	var preview types.Preview
	err := s.Sessions.View(r.Context(), r.PathValue("id"), func(sess *session.Session) error {
		preview = sess.Preview()
		return nil
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.Observability.RecordMerge(r.Context(), "preview")
	writeJSON(w, http.StatusOK, preview)
}

// generateHandler requests a document built from the non-rejected edits.
// A result that arrives after a newer analysis is discarded.
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var (
		ticket session.GenerateTicket
		req    types.GenerateRequest
	)
	if err := s.Sessions.View(ctx, id, func(sess *session.Session) error {
		ticket = sess.BeginGenerate()
		req = sess.GenerateRequest()
		return nil
	}); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.Observability.RecordMerge(ctx, "generate")

	result, err := s.Upstream.Generate(api.WithToken(ctx, s.upstreamToken(r)), req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	if err := s.Sessions.View(ctx, id, func(sess *session.Session) error {
		return sess.CheckGenerate(ticket)
	}); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// saveHandler stores the session upstream with the caller's token. A
// session that came from a saved record updates that record.
func (s *Server) saveHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var details saveSessionRequest
	if r.ContentLength > 0 {
		if err := parseJSONRequest(r, &details); err != nil {
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
	}

	token := s.upstreamToken(r)
	if token == "" {
		s.writeAppError(w, r, errors.NewAuthError(errors.ErrCodeUnauthenticated,
			"Log in to save your résumé; stash the session to keep your edits", nil))
		return
	}
	ctx = api.WithToken(ctx, token)

	var (
		req     types.SaveRequest
		savedID int64
	)
	update := func(sess *session.Session) error {
		if details.CompanyName != "" || details.JobRole != "" {
			sess.SetJobDetails(details.CompanyName, details.JobRole)
		}
		req = sess.SaveRequest()
		savedID = sess.SavedResumeID
		return nil
	}
	if err := s.Sessions.Update(ctx, id, update); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeAppError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "session cannot be saved", err))
		return
	}
	s.Observability.RecordMerge(ctx, "save")

	var resp saveSessionResponse
	if savedID != 0 {
		result, err := s.Upstream.UpdateResume(ctx, savedID, req)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		resp = saveSessionResponse{Message: result.Message, ID: result.ID, Updated: true}
	} else {
		result, err := s.Upstream.SaveResume(ctx, req)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		resp = saveSessionResponse{Message: result.Message, ID: result.ID, ApplicationID: result.ApplicationID}
	}

	if err := s.Sessions.Update(ctx, id, func(sess *session.Session) error {
		sess.MarkSaved(resp.ID)
		return nil
	}); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("resume.id", resp.ID))
	writeJSON(w, http.StatusOK, resp)
}

// stashHandler keeps the session aside until the caller has logged in
func (s *Server) stashHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	err := s.Sessions.View(ctx, id, func(sess *session.Session) error {
		return s.Pending.Stash(ctx, sess)
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"session_id": id, "status": "stashed"})
}

// restoreHandler brings a stashed session back. It succeeds once per stash.
func (s *Server) restoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	restored, err := s.Pending.Restore(ctx, r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	snap, err := s.Sessions.Put(ctx, restored)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
