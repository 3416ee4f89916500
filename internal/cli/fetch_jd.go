package cli

import (
	"context"

	"resumetailor/internal/common"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
)

var fetchJDCmd = &cobra.Command{
	Use:   "fetch-jd [url]",
	Short: "Fetch a job description from a posting URL",
	Long: `Ask the tailoring service to scrape a job posting. The description is
printed along with the company and role the service extracted, so it can
be saved to a file and passed to analyze with --jd.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateFormat(&fetchJDConfig),
	RunE:    runFetchJD,
}

var fetchJDConfig common.CommandConfig

func init() {
	outputFlags(fetchJDCmd, &fetchJDConfig)
}

func runFetchJD(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	client, err := e.client()
	if err != nil {
		return err
	}

	operation := func(ctx context.Context) (types.JobDescription, error) {
		jd, err := client.FetchJobDescription(ctx, args[0])
		if err != nil {
			return types.JobDescription{}, err
		}
		return *jd, nil
	}
	logDetails := func(cfg common.CommandConfig) {
		e.logger.Info("Fetching job description", "url", args[0])
	}
	return common.RunCommand(cmd.Context(), e.logger, fetchJDConfig, operation, logDetails)
}
