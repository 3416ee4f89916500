package cli

import (
	"context"
	"fmt"

	"resumetailor/internal/api"
	"resumetailor/internal/common"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show how many analyses you have left",
	Long: `Show the analysis usage recorded by the tailoring service and whether
another analysis is currently permitted. Anonymous use is limited to a
free trial; log in to continue past it.`,
	Args:    cobra.NoArgs,
	PreRunE: validateFormat(&usageConfig),
	RunE:    runUsage,
}

var usageConfig common.CommandConfig

func init() {
	outputFlags(usageCmd, &usageConfig)
}

func runUsage(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	client, err := e.client()
	if err != nil {
		return err
	}

	var usage *types.UsageInfo
	operation := func(ctx context.Context) (types.UsageInfo, error) {
		u, err := client.CheckUsage(ctx)
		if err != nil {
			return types.UsageInfo{}, err
		}
		usage = u
		return *u, nil
	}
	logDetails := func(cfg common.CommandConfig) {
		e.logger.Debug("Checking usage", "base_url", client.BaseURL(), "authenticated", e.tokens.IsAuthenticated())
	}
	if err := common.RunCommand(cmd.Context(), e.logger, usageConfig, operation, logDetails); err != nil {
		return err
	}

	if err := api.Permitted(usage, e.tokens.IsAuthenticated(), e.cfg.Auth.TrialLimit); err != nil {
		notify(cmd, err)
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Analysis permitted")
	return nil
}
