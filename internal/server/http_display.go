package server

import (
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
)

type endpointInfo struct {
	method, path, description string
}

var sessionEndpoints = []endpointInfo{
	{"POST", "/api/sessions", "Create a session from an analysis"},
	{"GET", "/api/sessions/{id}", "Session snapshot"},
	{"DELETE", "/api/sessions/{id}", "Start over"},
	{"POST", "/api/sessions/{id}/analyze", "Upload and analyze a resume"},
	{"GET", "/api/sessions/{id}/sections/{s}/segments", "Section segments"},
	{"PATCH", "/api/sessions/{id}/sections/{s}/edits/{e}", "Change an edit"},
	{"GET", "/api/sessions/{id}/preview", "Original vs tailored text"},
	{"POST", "/api/sessions/{id}/generate", "Generate the document"},
	{"POST", "/api/sessions/{id}/save", "Save to your profile"},
	{"POST", "/api/sessions/{id}/stash", "Keep edits while logging in"},
	{"POST", "/api/sessions/{id}/restore", "Bring stashed edits back (once)"},
}

// displayServerInfo prints the listen address and the effective settings
func (s *Server) displayServerInfo(w io.Writer, httpServer *http.Server) {
	scheme := "http"
	if httpServer.TLSConfig != nil {
		scheme = "https"
	}
	fmt.Fprintf(w, "Starting server on %s://%s\n", scheme, httpServer.Addr)

	s.displayEndpoints(w)
	s.displaySettings(w)
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints(w io.Writer) {
	fmt.Fprintln(w, "Available endpoints:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  GET\t/health\tHealth check\n")
	fmt.Fprintf(tw, "  GET\t/stats\tServer statistics\n")
	if s.Observability.PrometheusHandler() != nil {
		fmt.Fprintf(tw, "  GET\t%s\tPrometheus metrics\n", s.Observability.PrometheusEndpoint())
	}
	for _, e := range sessionEndpoints {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.method, e.path, e.description)
	}
	_ = tw.Flush()
}

// displaySettings shows auth, size limit, rate limit and watch settings
func (s *Server) displaySettings(w io.Writer) {
	if len(s.apiKeys) > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", len(s.apiKeys))
		fmt.Fprintln(w, "Include 'X-API-Key: <your-key>' header in requests to /api/sessions")
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
		fmt.Fprintln(w, "WARNING: API endpoints are publicly accessible!")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %.1f MB\n", float64(s.MaxRequestSize)/(1<<20))
	} else {
		fmt.Fprintln(w, "WARNING: No request size limits configured!")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d, by api key: %t, by ip: %t)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
	} else {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
	}

	if s.WatchSessions {
		fmt.Fprintf(w, "Session watching: ENABLED (%s)\n", s.SessionDir)
	}
}
