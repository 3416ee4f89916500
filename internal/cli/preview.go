package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"resumetailor/internal/common"
	"resumetailor/internal/formatters"
	"resumetailor/internal/session"
	"resumetailor/internal/types"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var previewCmd = &cobra.Command{
	Use:   "preview [session]",
	Short: "Compare the original résumé with the tailored text",
	Long: `Print the original and tailored text of every section. The tailored
text applies every edit that has not been rejected, so pending edits are
shown as they would be saved.

With --watch the preview is printed again whenever the session changes,
for example while another terminal runs review or edit. With --render the
markdown preview is styled for the terminal.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateFormat(&previewConfig.CommandConfig),
	RunE:    runPreview,
}

type previewOptions struct {
	common.CommandConfig
	Watch  bool
	Render bool
}

var previewConfig previewOptions

func init() {
	previewCmd.Flags().BoolVarP(&previewConfig.Watch, "watch", "w", false, "Print again whenever the session changes")
	previewCmd.Flags().BoolVar(&previewConfig.Render, "render", false, "Render the markdown preview for the terminal")
	outputFlags(previewCmd, &previewConfig.CommandConfig)
}

func runPreview(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	id, err := e.store.Resolve(args[0])
	if err != nil {
		return err
	}

	show := func(ctx context.Context) error {
		operation := func(ctx context.Context) (types.Preview, error) {
			s, err := e.loadSession(ctx, id)
			if err != nil {
				return types.Preview{}, err
			}
			return s.Preview(), nil
		}
		if previewConfig.Render {
			preview, err := operation(ctx)
			if err != nil {
				return err
			}
			return writeRendered(cmd.OutOrStdout(), e, preview)
		}
		return common.RunCommand(ctx, e.logger, previewConfig.CommandConfig, operation, nil)
	}

	if err := show(cmd.Context()); err != nil {
		return err
	}
	if !previewConfig.Watch {
		return nil
	}

	changed := make(chan struct{}, 1)
	watcher := session.NewWatcher(e.store.Dir(), e.cfg.Session.WatchDebounce, func(changedID string) {
		if changedID != id {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	}, e.logger)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return watcher.Run(ctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
				if err := show(ctx); err != nil {
					e.logger.LogError(err, "Failed to refresh preview", "session_id", id)
				}
			}
		}
	})
	return g.Wait()
}

// writeRendered styles the markdown preview with glamour
func writeRendered(w io.Writer, e *env, preview types.Preview) error {
	md, err := formatters.GlobalRegistry.Format(preview, "markdown")
	if err != nil {
		return err
	}
	width := 100
	if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 20 {
		width = cols - 2
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	if previewConfig.OutputFile != "" {
		return e.files.WriteFile(previewConfig.OutputFile, out)
	}
	_, err = fmt.Fprint(w, out)
	return err
}
