package cli

import (
	"context"
	"fmt"
	"time"

	"resumetailor/internal/api"
	"resumetailor/internal/config"
	"resumetailor/internal/observability"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/server"
	"resumetailor/internal/session"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local session server",
	Long: `Start an HTTP server that exposes review sessions as a JSON API, for
editors and scripts that drive the review without the terminal UI.

Available endpoints:
- POST   /api/sessions: Create a session from an analysis result
- GET    /api/sessions/{id}: Session snapshot
- DELETE /api/sessions/{id}: Discard a session
- POST   /api/sessions/{id}/analyze: Upload a résumé for analysis
- GET    /api/sessions/{id}/sections/{s}/segments: Edit placement
- PATCH  /api/sessions/{id}/sections/{s}/edits/{e}: Change an edit
- GET    /api/sessions/{id}/preview: Original and tailored text
- POST   /api/sessions/{id}/generate: Generate the document
- POST   /api/sessions/{id}/save: Save to the caller's profile
- POST   /api/sessions/{id}/stash, /restore: Keep edits across a login
- GET    /health: Health check endpoint
- GET    /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

type serveOptions struct {
	Port     string
	Host     string
	TLSMode  string
	CertFile string
	KeyFile  string
	Watch    bool
}

var serveConfig serveOptions

func init() {
	serveCmd.Flags().StringVarP(&serveConfig.Port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveConfig.Host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveConfig.TLSMode, "tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().StringVar(&serveConfig.CertFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveConfig.KeyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().BoolVar(&serveConfig.Watch, "watch-sessions", false, "Reload sessions edited by other commands")
}

// applyServeFlags copies explicitly set flags over the loaded config
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, opts serveOptions) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = opts.Port
	}
	if flags.Changed("host") {
		cfg.Server.Host = opts.Host
	}
	if flags.Changed("tls-mode") {
		cfg.Server.TLS.Mode = opts.TLSMode
	}
	if flags.Changed("cert-file") {
		cfg.Server.TLS.CertFile = opts.CertFile
	}
	if flags.Changed("key-file") {
		cfg.Server.TLS.KeyFile = opts.KeyFile
	}
	if flags.Changed("watch-sessions") {
		cfg.Server.WatchSessions = opts.Watch
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	cfg := *e.cfg
	applyServeFlags(cmd, &cfg, serveConfig)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(&cfg, Version), &cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			e.logger.LogError(err, "Failed to shut down observability")
		}
	}()

	client, err := api.NewClient(&cfg.API, e.tokens, e.logger, api.WithRecorder(om))
	if err != nil {
		return err
	}
	cache := reconcile.NewMatchCache(cfg.Session.MatchCacheSize)
	deps := server.Dependencies{
		Sessions:      session.NewManager(e.store, cache, e.logger),
		Pending:       e.store,
		Upstream:      client,
		Observability: om,
	}
	return server.NewServer(server.NewServerConfig(&cfg, Version), deps, e.logger).Start(cmd.Context())
}
