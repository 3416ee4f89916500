package cli

import (
	"context"

	"resumetailor/internal/common"
	"resumetailor/internal/errors"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [session]",
	Short: "Change the status or text of one suggested edit",
	Long: `Change one edit without the review screen. Edits are addressed by
section index and by the edit's position in that section's list, both
starting at 0 as printed by segments.

Examples:
  resumetailor edit 3f2a --section 1 --edit 0 --status accepted
  resumetailor edit 3f2a --section 1 --edit 2 --text "Led a team of five"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateFormat(&editConfig.CommandConfig),
	RunE:    runEdit,
}

type editOptions struct {
	common.CommandConfig
	Section int
	Edit    int
	Status  string
	Text    string
}

var editConfig editOptions

func init() {
	editCmd.Flags().IntVar(&editConfig.Section, "section", -1, "Section index")
	editCmd.Flags().IntVar(&editConfig.Edit, "edit", -1, "Edit index within the section")
	editCmd.Flags().StringVar(&editConfig.Status, "status", "", "New status: pending, accepted, or rejected")
	editCmd.Flags().StringVar(&editConfig.Text, "text", "", "Replacement text for the edit")
	_ = editCmd.MarkFlagRequired("section")
	_ = editCmd.MarkFlagRequired("edit")
	editCmd.MarkFlagsOneRequired("status", "text")
	_ = editCmd.RegisterFlagCompletionFunc("status", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(types.StatusPending), string(types.StatusAccepted), string(types.StatusRejected)}, cobra.ShellCompDirectiveNoFileComp
	})
	outputFlags(editCmd, &editConfig.CommandConfig)
}

// editPatch turns the flags into a validated patch
func editPatch(cmd *cobra.Command, opts editOptions) (types.EditPatch, error) {
	var patch types.EditPatch
	if cmd.Flags().Changed("text") {
		text := opts.Text
		patch.NewContent = &text
	}
	if opts.Status != "" {
		status := types.EditStatus(opts.Status)
		patch.Status = &status
	}
	if err := patch.Validate(); err != nil {
		return patch, errors.NewValidationError(errors.ErrCodeInvalidStatus, "invalid edit change", err)
	}
	return patch, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	patch, err := editPatch(cmd, editConfig)
	if err != nil {
		return err
	}

	operation := func(ctx context.Context) (reconcile.Rendering, error) {
		s, err := e.loadSession(ctx, args[0])
		if err != nil {
			return reconcile.Rendering{}, err
		}
		if patch.NewContent != nil {
			if err := s.UpdateSuggestionText(editConfig.Section, editConfig.Edit, *patch.NewContent); err != nil {
				return reconcile.Rendering{}, err
			}
		}
		if patch.Status != nil {
			if err := s.SetSuggestionStatus(editConfig.Section, editConfig.Edit, *patch.Status); err != nil {
				return reconcile.Rendering{}, err
			}
		}
		if err := e.store.Save(ctx, s); err != nil {
			return reconcile.Rendering{}, err
		}
		return s.Render(editConfig.Section)
	}
	logDetails := func(cfg common.CommandConfig) {
		e.logger.Debug("Editing suggestion", "session", args[0],
			"section", editConfig.Section, "edit", editConfig.Edit, "status", editConfig.Status)
	}
	return common.RunCommand(cmd.Context(), e.logger, editConfig.CommandConfig, operation, logDetails)
}
