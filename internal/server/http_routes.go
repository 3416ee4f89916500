package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type middleware func(http.HandlerFunc) http.HandlerFunc

// chain wraps h so that mws run in the order given.
func chain(h http.HandlerFunc, mws ...middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	if h := s.Observability.PrometheusHandler(); h != nil {
		endpoint := s.Observability.PrometheusEndpoint()
		if endpoint == "" {
			endpoint = "/metrics"
		}
		mux.Handle("GET "+endpoint, h)
	}

	sessionRoutes := []struct {
		pattern string
		span    string
		handler http.HandlerFunc
	}{
		{"POST /api/sessions", "api.session.create", s.createSessionHandler},
		{"GET /api/sessions/{id}", "api.session.get", s.getSessionHandler},
		{"DELETE /api/sessions/{id}", "api.session.delete", s.deleteSessionHandler},
		{"POST /api/sessions/{id}/analyze", "api.session.analyze", s.analyzeHandler},
		{"GET /api/sessions/{id}/sections/{section}/segments", "api.session.segments", s.segmentsHandler},
		{"PATCH /api/sessions/{id}/sections/{section}/edits/{edit}", "api.session.edit", s.editHandler},
		{"GET /api/sessions/{id}/preview", "api.session.preview", s.previewHandler},
		{"POST /api/sessions/{id}/generate", "api.session.generate", s.generateHandler},
		{"POST /api/sessions/{id}/save", "api.session.save", s.saveHandler},
		{"POST /api/sessions/{id}/stash", "api.session.stash", s.stashHandler},
		{"POST /api/sessions/{id}/restore", "api.session.restore", s.restoreHandler},
	}

	common := []middleware{s.rateLimitMiddleware(), s.authMiddleware, s.limitBody}
	for _, route := range sessionRoutes {
		mux.HandleFunc(route.pattern, chain(s.traced(route.span, route.handler), common...))
	}
	return mux
}

// authMiddleware requires one of the configured API keys, given as
// X-API-Key or a bearer token. With no keys configured every request passes.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.apiKeys) == 0 {
			next(w, r)
			return
		}

		key := requestAPIKey(r)
		switch {
		case key == "":
			s.Logger.Info("Rejected request without API key", "endpoint", r.URL.Path, "client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
		case !s.validAPIKey(key):
			s.Logger.Info("Rejected invalid API key", "endpoint", r.URL.Path, "client_ip", r.RemoteAddr, "api_key_prefix", maskAPIKey(key))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
		default:
			next(w, r)
		}
	}
}

func (s *Server) validAPIKey(key string) bool {
	match := 0
	for k := range s.apiKeys {
		match |= subtle.ConstantTimeCompare([]byte(k), []byte(key))
	}
	return match == 1
}

func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// upstreamToken is the caller's token for the remote service. A bearer
// token that stands in for the local API key is not forwarded.
func (s *Server) upstreamToken(r *http.Request) string {
	if len(s.apiKeys) > 0 && r.Header.Get("X-API-Key") == "" {
		return ""
	}
	return bearerToken(r)
}

func (s *Server) limitBody(next http.HandlerFunc) http.HandlerFunc {
	if s.MaxRequestSize <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		next(w, r)
	}
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "****"
}
