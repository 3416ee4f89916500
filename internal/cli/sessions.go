package cli

import (
	"context"
	"fmt"

	"resumetailor/internal/common"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage review sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List review sessions, most recent first",
	Args:    cobra.NoArgs,
	PreRunE: validateFormat(&sessionsListConfig),
	RunE:    runSessionsList,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:     "delete [session]",
	Aliases: []string{"rm"},
	Short:   "Delete a review session",
	Args:    cobra.ExactArgs(1),
	RunE:    runSessionsDelete,
}

var (
	sessionsListConfig common.CommandConfig
	sessionsDeleteYes  bool
)

func init() {
	outputFlags(sessionsListCmd, &sessionsListConfig)
	sessionsDeleteCmd.Flags().BoolVarP(&sessionsDeleteYes, "yes", "y", false, "Delete without asking for confirmation")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	operation := func(ctx context.Context) (types.SessionList, error) {
		sessions, err := e.store.List(ctx)
		if err != nil {
			return nil, err
		}
		list := make(types.SessionList, 0, len(sessions))
		for _, s := range sessions {
			list = append(list, s.Summary())
		}
		return list, nil
	}
	return common.RunCommand(cmd.Context(), e.logger, sessionsListConfig, operation, nil)
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	id, err := e.store.Resolve(args[0])
	if err != nil {
		return err
	}
	if !sessionsDeleteYes && common.IsInteractive() {
		ok, err := common.Confirm(ctx, fmt.Sprintf("Delete session %s?", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
			return nil
		}
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
	return nil
}
