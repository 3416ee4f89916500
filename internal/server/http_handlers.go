package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"resumetailor/internal/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// healthHandler reports liveness and whether the upstream breakers are closed
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumetailor",
		"version": s.Version,
	}

	if s.Upstream != nil {
		response["upstream"] = s.Upstream.GetStats()
		if !s.Upstream.IsHealthy() {
			// Local sessions still work; only forwarding is affected
			response["status"] = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumetailor",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"watch_sessions":         s.WatchSessions,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.Sessions != nil {
		response["sessions"] = s.Sessions.GetStats()
	}
	if s.Upstream != nil {
		response["circuit_breakers"] = s.Upstream.GetStats()
	}

	writeJSON(w, http.StatusOK, response)
}

// traced runs a handler inside a span named after the operation
func (s *Server) traced(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.Observability.Tracer("resumetailor.server").Start(r.Context(), name)
		defer span.End()
		if id := r.PathValue("id"); id != "" {
			span.SetAttributes(attribute.String("session.id", id))
		}

		rw := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
		if rw.statusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	body, err := readJSONBody(r)
	if err != nil {
		return err
	}
	return parseBody(body, v)
}

// readJSONBody returns the raw body of a JSON request
func readJSONBody(r *http.Request) ([]byte, error) {
	if r.Header.Get("Content-Type") != "application/json" {
		return nil, fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()
	return body, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// writeAppError maps a failure to its status code and error body
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "endpoint", r.URL.Path)
	} else {
		s.Logger.Debug("Request refused", "endpoint", r.URL.Path, "status", status, "error", err.Error())
	}
	writeErrorResponse(w, kind, errors.Notify(err).Message, status)
}

func classify(err error) (int, string) {
	switch {
	case errors.IsQuotaExceeded(err):
		return http.StatusForbidden, errors.StatusLimitReached
	case errors.IsStale(err):
		return http.StatusConflict, errors.StatusSuperseded
	case errors.HasCode(err, errors.ErrCodeSessionNotFound),
		errors.HasCode(err, errors.ErrCodeEditNotFound),
		errors.HasCode(err, errors.ErrCodePendingStateNotFound):
		return http.StatusNotFound, "not_found"
	case errors.HasCode(err, errors.ErrCodeSchemaMismatch):
		return http.StatusBadGateway, "upstream_failed"
	case errors.IsType(err, errors.ErrorTypeAuth):
		return http.StatusUnauthorized, errors.StatusUnauthenticated
	case errors.IsType(err, errors.ErrorTypeValidation):
		return http.StatusBadRequest, "invalid_request"
	case errors.IsType(err, errors.ErrorTypeNetwork):
		return http.StatusBadGateway, "upstream_failed"
	default:
		return http.StatusInternalServerError, errors.StatusError
	}
}

func parseBody(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
