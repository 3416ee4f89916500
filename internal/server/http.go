package server

import (
	"context"
	"time"

	"resumetailor/internal/api"
	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/observability"
	"resumetailor/internal/session"
	"resumetailor/internal/types"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Upstream is the part of the remote API the server forwards to
type Upstream interface {
	CheckAccess(ctx context.Context, trialLimit int) (*types.UsageInfo, error)
	Analyze(ctx context.Context, in api.AnalyzeInput) (*types.AnalysisResult, error)
	Generate(ctx context.Context, req types.GenerateRequest) (*types.GenerateResult, error)
	SaveResume(ctx context.Context, req types.SaveRequest) (*types.SaveResult, error)
	UpdateResume(ctx context.Context, id int64, req types.SaveRequest) (*types.UpdateResult, error)
	GetStats() map[string]any
	IsHealthy() bool
}

// PendingStore keeps sessions waiting for a login
type PendingStore interface {
	Stash(ctx context.Context, s *session.Session) error
	Restore(ctx context.Context, id string) (*session.Session, error)
}

// ServerConfig is the listener, limits and watch settings of the server.
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
	// anonymous analyses allowed before an upload is refused
	TrialLimit    int
	SessionDir    string
	WatchSessions bool
	WatchDebounce time.Duration
}

// Dependencies are the collaborators the handlers work with
type Dependencies struct {
	Sessions      *session.Manager
	Pending       PendingStore
	Upstream      Upstream
	Observability *observability.ObservabilityManager
}

// Server serves the session API on top of a session manager and the
// remote tailoring service.
type Server struct {
	ServerConfig
	Dependencies

	RateLimiter *RateLimiter
	Logger      *errors.Logger

	apiKeys map[string]bool
}

// NewServerConfig derives the server settings from the application config.
// Requests may carry a full upload plus a megabyte of form overhead.
func NewServerConfig(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.API.MaxUploadSize + 1<<20,
		RateLimit:      &cfg.Server.RateLimit,
		TrialLimit:     cfg.Auth.TrialLimit,
		SessionDir:     cfg.Session.StateDir,
		WatchSessions:  cfg.Server.WatchSessions,
		WatchDebounce:  cfg.Session.WatchDebounce,
	}
}

func NewServer(cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	s := &Server{
		ServerConfig: cfg,
		Dependencies: deps,
		Logger:       logger,
		apiKeys:      make(map[string]bool, len(cfg.APIKeys)),
	}
	for _, key := range cfg.APIKeys {
		if key != "" {
			s.apiKeys[key] = true
		}
	}
	if rl := cfg.RateLimit; rl != nil && rl.Enabled {
		s.RateLimiter = NewRateLimiter(rl.RequestsPerMin, rl.BurstCapacity, logger)
	}
	return s
}
