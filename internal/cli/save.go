package cli

import (
	"context"
	"fmt"
	"io"

	"resumetailor/internal/api"
	"resumetailor/internal/common"
	"resumetailor/internal/errors"
	"resumetailor/internal/session"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save [session]",
	Short: "Save the tailored résumé to your profile",
	Long: `Save the session's tailored text and sections to your profile. A
company and role, when known, link the résumé to a tracked application;
on a terminal you are asked for them if the analysis did not find them.

A session that was loaded from a saved résumé, or saved before, updates
that record instead of creating a new one.

When you are not logged in the session is set aside and the command tells
you how to log in and finish saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

type saveOptions struct {
	Company string
	Role    string
}

var saveConfig saveOptions

func init() {
	saveCmd.Flags().StringVar(&saveConfig.Company, "company", "", "Company the résumé is for")
	saveCmd.Flags().StringVar(&saveConfig.Role, "role", "", "Role the résumé is for")
}

func runSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	s, err := e.loadSession(ctx, args[0])
	if err != nil {
		return err
	}

	if !e.tokens.IsAuthenticated() {
		s.SetJobDetails(saveConfig.Company, saveConfig.Role)
		if err := e.store.Stash(ctx, s); err != nil {
			return err
		}
		e.logger.Info("Session stashed pending login", "session_id", s.ID)
		fmt.Fprintf(cmd.OutOrStdout(),
			"You need to log in to save. Your edits are kept; run:\n  resumetailor login --resume %s\n", s.ID)
		return nil
	}

	client, err := e.client()
	if err != nil {
		return err
	}
	company, role := saveConfig.Company, saveConfig.Role
	if company == "" {
		company = s.CompanyName
	}
	if role == "" {
		role = s.JobRole
	}
	if common.IsInteractive() {
		if err := common.PromptJobDetails(ctx, &company, &role); err != nil {
			return err
		}
	}
	s.SetJobDetails(company, role)
	return saveSession(ctx, cmd.OutOrStdout(), e, client, s)
}

// saveSession sends the session upstream and records the remote id
func saveSession(ctx context.Context, w io.Writer, e *env, client *api.Client, s *session.Session) error {
	req := s.SaveRequest()
	if err := req.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "session cannot be saved", err)
	}

	if s.SavedResumeID != 0 {
		result, err := client.UpdateResume(ctx, s.SavedResumeID, req)
		if err != nil {
			return err
		}
		s.MarkSaved(result.ID)
		fmt.Fprintf(w, "Updated résumé #%d\n", result.ID)
	} else {
		result, err := client.SaveResume(ctx, req)
		if err != nil {
			return err
		}
		s.MarkSaved(result.ID)
		if result.ApplicationID != nil {
			fmt.Fprintf(w, "Saved résumé #%d to application #%d\n", result.ID, *result.ApplicationID)
		} else {
			fmt.Fprintf(w, "Saved résumé #%d\n", result.ID)
		}
	}

	if err := e.store.Save(ctx, s); err != nil {
		return err
	}
	e.logger.Info("Session saved upstream", "session_id", s.ID, "resume_id", s.SavedResumeID)
	return nil
}
