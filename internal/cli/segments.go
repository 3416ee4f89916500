package cli

import (
	"context"

	"resumetailor/internal/common"
	"resumetailor/internal/reconcile"

	"github.com/spf13/cobra"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments [session]",
	Short: "Show how suggested edits line up with the original text",
	Long: `Print each section as a sequence of literal text and edit spans.
Edits whose target text is missing from the section, or that overlap an
earlier edit, are listed as unplaced. Sections without original text are
shown as a plain list of edits.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateFormat(&segmentsConfig.CommandConfig),
	RunE:    runSegments,
}

type segmentsOptions struct {
	common.CommandConfig
	Section int
}

var segmentsConfig segmentsOptions

func init() {
	segmentsCmd.Flags().IntVar(&segmentsConfig.Section, "section", -1, "Only show this section (default: all)")
	outputFlags(segmentsCmd, &segmentsConfig.CommandConfig)
}

func runSegments(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	operation := func(ctx context.Context) ([]reconcile.Rendering, error) {
		s, err := e.loadSession(ctx, args[0])
		if err != nil {
			return nil, err
		}
		if segmentsConfig.Section < 0 {
			return s.RenderAll(), nil
		}
		r, err := s.Render(segmentsConfig.Section)
		if err != nil {
			return nil, err
		}
		return []reconcile.Rendering{r}, nil
	}
	return common.RunCommand(cmd.Context(), e.logger, segmentsConfig.CommandConfig, operation, nil)
}
