package cli

import (
	"context"
	"fmt"
	"strconv"

	"resumetailor/internal/common"
	"resumetailor/internal/errors"
	"resumetailor/internal/session"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var loadCmd = &cobra.Command{
	Use:   "load [resume-id]",
	Short: "Start a session from a saved résumé",
	Long: `Fetch a résumé saved to your profile and start a new session from its
sections. Review decisions stored with the résumé are kept; saving the new
session updates the same record.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateFormat(&loadConfig),
	RunE:    runLoad,
}

var loadConfig common.CommandConfig

func init() {
	outputFlags(loadCmd, &loadConfig)
}

func runLoad(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid résumé id %q", args[0]), err)
	}
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	client, err := e.client()
	if err != nil {
		return err
	}

	operation := func(ctx context.Context) (types.SessionSummary, error) {
		var (
			saved *types.SavedResume
			usage *types.UsageInfo
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			saved, err = client.LoadResume(gctx, id)
			return err
		})
		g.Go(func() error {
			// Usage is informational here; a failure does not stop the load
			u, err := client.CheckUsage(gctx)
			if err != nil {
				e.logger.Debug("Usage lookup failed", "error", err)
				return nil
			}
			usage = u
			return nil
		})
		if err := g.Wait(); err != nil {
			return types.SessionSummary{}, err
		}

		s := session.Hydrate(saved)
		if err := e.store.Save(ctx, s); err != nil {
			return types.SessionSummary{}, err
		}
		if usage != nil && !usage.IsUnlimited {
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyses remaining: %d\n", usage.Remaining)
		}
		return s.Summary(), nil
	}
	logDetails := func(cfg common.CommandConfig) {
		e.logger.Info("Loading saved résumé", "resume_id", id)
	}
	return common.RunCommand(cmd.Context(), e.logger, loadConfig, operation, logDetails)
}
