package cli

import (
	"fmt"

	"resumetailor/internal/api"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [session]",
	Short: "Generate and download the tailored document",
	Long: `Ask the tailoring service to build a document from the session and
download it. Rejected edits are left out; pending and accepted edits are
applied.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var downloadDir string

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "output-dir", "o", ".", "Directory to write the document to")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	client, err := e.client()
	if err != nil {
		return err
	}
	s, err := e.loadSession(ctx, args[0])
	if err != nil {
		return err
	}

	e.logger.Info("Generating document", "session_id", s.ID, "filename", s.Filename)
	result, err := client.Generate(ctx, s.GenerateRequest())
	if err != nil {
		return err
	}
	data, err := client.Download(ctx, result.DownloadURL)
	if err != nil {
		return err
	}
	path, err := e.files.WriteBinary(downloadDir, api.DownloadName(result), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s (%d bytes)\n", path, len(data))
	return nil
}
