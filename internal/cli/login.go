package cli

import (
	"fmt"

	"resumetailor/internal/common"
	"resumetailor/internal/errors"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the tailoring service",
	Long: `Log in and store the access token for later commands. Missing
credentials are asked for on a terminal.

With --resume, a session set aside by save is restored and saved. A set
aside session can be restored only once.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		if err := e.tokens.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

type loginOptions struct {
	Email    string
	Password string
	Resume   string
}

var loginConfig loginOptions

func init() {
	loginCmd.Flags().StringVar(&loginConfig.Email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginConfig.Password, "password", "", "Account password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginConfig.Resume, "resume", "", "Session id to restore and save after logging in")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	email, password := loginConfig.Email, loginConfig.Password
	if email == "" || password == "" {
		if !common.IsInteractive() {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"--email and --password are required without a terminal", nil)
		}
		if err := common.PromptCredentials(ctx, &email, &password); err != nil {
			return err
		}
	}

	client, err := e.client()
	if err != nil {
		return err
	}
	token, err := client.Login(ctx, types.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := e.tokens.Save(token.AccessToken); err != nil {
		return err
	}
	e.logger.Info("Logged in", "token_file", e.tokens.Path())
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)

	if loginConfig.Resume == "" {
		return nil
	}
	s, err := e.store.Restore(ctx, loginConfig.Resume)
	if err != nil {
		return err
	}
	s.UseCache(reconcile.NewMatchCache(e.cfg.Session.MatchCacheSize))
	// Keep the restored edits even if the save below fails
	if err := e.store.Save(ctx, s); err != nil {
		return err
	}
	return saveSession(ctx, cmd.OutOrStdout(), e, client, s)
}
