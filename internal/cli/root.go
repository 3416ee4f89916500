package cli

import (
	"context"
	"fmt"

	"resumetailor/internal/api"
	"resumetailor/internal/auth"
	"resumetailor/internal/common"
	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/session"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumetailor",
	Short: "Tailor a résumé to a job description and review the suggested edits",
	Long: `Resumetailor uploads a résumé and a job description to the tailoring
service, then lets you review the suggested edits section by section.
Accepted edits are merged into the tailored text that is saved to your
profile or generated into a downloadable document.

Sessions are kept on disk, so a review can be picked up by any command
or by the local session server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with config and logger attached to ctx
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "config not found in context", nil)
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger, nil
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "logger not found in context", nil)
}

// env bundles what most commands need
type env struct {
	cfg    *config.Config
	logger *errors.Logger
	tokens *auth.TokenStore
	store  *session.FileStore
	files  *common.FileProcessor
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	store, err := session.NewFileStore(cfg.Session.StateDir, cfg.Session.PendingTTL, logger)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		tokens: auth.NewTokenStore(cfg.Auth.TokenFile, cfg.Auth.Token),
		store:  store,
		files:  common.NewFileProcessor(logger),
	}, nil
}

func (e *env) client(opts ...api.Option) (*api.Client, error) {
	return api.NewClient(&e.cfg.API, e.tokens, e.logger, opts...)
}

// loadSession resolves an id or unique id prefix and loads that session
func (e *env) loadSession(ctx context.Context, ref string) (*session.Session, error) {
	id, err := e.store.Resolve(ref)
	if err != nil {
		return nil, err
	}
	s, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.UseCache(reconcile.NewMatchCache(e.cfg.Session.MatchCacheSize))
	return s, nil
}

// outputFlags registers --output and --format on cmd
func outputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, yaml, text, or markdown")

	// Add completion for format flag
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// validateFormat applies the default format and checks it is supported
func validateFormat(cc *common.CommandConfig) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if cc.OutputFormat == "" {
			cc.OutputFormat = cfg.App.DefaultFormat
		}
		cc.Writer = cmd.OutOrStdout()
		// Validate format against supported formats
		return common.ValidateOutputFormat(cc.OutputFormat, cfg.App.SupportedFormats)
	}
}

// notify prints the user-facing form of a failure to stderr
func notify(cmd *cobra.Command, err error) {
	n := errors.Notify(err)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", n.Status, n.Message)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(fetchJDCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(serveCmd)
}
