package common

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are both terminals
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// PromptJobDetails asks for the company and role when either is missing.
// Both may be left blank; the résumé is then saved without an application.
func PromptJobDetails(ctx context.Context, company, role *string) error {
	if *company != "" && *role != "" {
		return nil
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Job details").
				Description("Company and role link the saved résumé to an application."),
			huh.NewInput().Title("Company").Value(company),
			huh.NewInput().Title("Role").Value(role),
		),
	)
	return form.RunWithContext(ctx)
}

// PromptCredentials asks for whatever part of the login is missing
func PromptCredentials(ctx context.Context, email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(email).Validate(notBlank("email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(notBlank("password")))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx)
}

// Confirm asks a yes/no question
func Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Value(&ok),
	)).RunWithContext(ctx)
	return ok, err
}
