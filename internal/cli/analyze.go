package cli

import (
	"context"
	"path/filepath"

	"resumetailor/internal/api"
	"resumetailor/internal/common"
	"resumetailor/internal/session"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a résumé against a job description",
	Long: `Upload a résumé and a job description to the tailoring service and
start a review session from the suggested edits.

The job description comes from a file (--jd) or is fetched from a posting
URL (--jd-url). Analyses are metered: anonymous use stops at the free trial
limit, and the command refuses before uploading when no allowance remains.

The session is written to the state directory; its id is printed with the
summary and is accepted by review, edit, preview, save and download.`,
	Args:    cobra.NoArgs,
	PreRunE: validateFormat(&analyzeConfig.CommandConfig),
	RunE:    runAnalyze,
}

type analyzeOptions struct {
	common.CommandConfig
	ResumeFile string
	JDFile     string
	JDURL      string
}

var analyzeConfig analyzeOptions

func init() {
	analyzeCmd.Flags().StringVar(&analyzeConfig.ResumeFile, "resume", "", "Résumé file (.pdf or .docx)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.JDFile, "jd", "", "Job description text file")
	analyzeCmd.Flags().StringVar(&analyzeConfig.JDURL, "jd-url", "", "Job posting URL to fetch the description from")
	_ = analyzeCmd.MarkFlagRequired("resume")
	analyzeCmd.MarkFlagsMutuallyExclusive("jd", "jd-url")
	analyzeCmd.MarkFlagsOneRequired("jd", "jd-url")
	outputFlags(analyzeCmd, &analyzeConfig.CommandConfig)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	client, err := e.client()
	if err != nil {
		return err
	}

	operation := func(ctx context.Context) (types.SessionSummary, error) {
		resume, err := e.files.ReadResume(analyzeConfig.ResumeFile, e.cfg.API.MaxUploadSize)
		if err != nil {
			return types.SessionSummary{}, err
		}

		var jobDescription, company, role string
		if analyzeConfig.JDURL != "" {
			jd, err := client.FetchJobDescription(ctx, analyzeConfig.JDURL)
			if err != nil {
				return types.SessionSummary{}, err
			}
			jobDescription, company, role = jd.JobDescription, jd.Company, jd.Role
		} else {
			jobDescription, err = e.files.ReadFile(analyzeConfig.JDFile)
			if err != nil {
				return types.SessionSummary{}, err
			}
		}

		if _, err := client.CheckAccess(ctx, e.cfg.Auth.TrialLimit); err != nil {
			return types.SessionSummary{}, err
		}

		result, err := client.Analyze(ctx, api.AnalyzeInput{
			Filename:       filepath.Base(analyzeConfig.ResumeFile),
			Resume:         resume,
			JobDescription: jobDescription,
		})
		if err != nil {
			return types.SessionSummary{}, err
		}

		s := session.NewFromAnalysis(result, jobDescription)
		if s.CompanyName == "" && s.JobRole == "" {
			s.SetJobDetails(company, role)
		}
		if err := e.store.Save(ctx, s); err != nil {
			return types.SessionSummary{}, err
		}
		e.logger.Info("Session created", "session_id", s.ID, "sections", len(s.Sections))
		return s.Summary(), nil
	}

	logDetails := func(cfg common.CommandConfig) {
		e.logger.Info("Starting analysis",
			"resume", analyzeConfig.ResumeFile,
			"jd_file", analyzeConfig.JDFile,
			"jd_url", analyzeConfig.JDURL,
			"format", cfg.OutputFormat)
	}

	return common.RunCommand(cmd.Context(), e.logger, analyzeConfig.CommandConfig, operation, logDetails)
}
