package cli

import (
	"context"

	"resumetailor/internal/common"
	"resumetailor/internal/errors"
	"resumetailor/internal/tui"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review [session]",
	Short: "Review suggested edits interactively",
	Long: `Open the review screen for a session. Each section shows its original
text with the suggested edits inline; accept, reject or rewrite them and
preview the merged result. Changes are written back when you quit.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateFormat(&reviewConfig),
	RunE:    runReview,
}

var reviewConfig common.CommandConfig

func init() {
	outputFlags(reviewCmd, &reviewConfig)
}

func runReview(cmd *cobra.Command, args []string) error {
	if !common.IsInteractive() {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"review needs a terminal; use edit and preview in scripts", nil)
	}
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	operation := func(ctx context.Context) (types.SessionSummary, error) {
		s, err := e.loadSession(ctx, args[0])
		if err != nil {
			return types.SessionSummary{}, err
		}
		dirty, err := tui.Run(ctx, s)
		if err != nil {
			return types.SessionSummary{}, errors.NewInternalError(errors.ErrCodeInvalidRequest, "review failed", err)
		}
		if dirty {
			if err := e.store.Save(ctx, s); err != nil {
				return types.SessionSummary{}, err
			}
			e.logger.Info("Session updated", "session_id", s.ID)
		}
		return s.Summary(), nil
	}
	return common.RunCommand(cmd.Context(), e.logger, reviewConfig, operation, nil)
}
