package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/session"
	"resumetailor/internal/types"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	cfg   *config.Config
	store *session.FileStore
}

func newCLIEnv(t *testing.T, upstream http.Handler) *cliEnv {
	t.Helper()
	if upstream == nil {
		upstream = http.NotFoundHandler()
	}
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		API: config.APIConfig{
			BaseURL:       srv.URL,
			Timeout:       5 * time.Second,
			UserAgent:     "resumetailor-test",
			MaxUploadSize: 1 << 20,
		},
		Auth: config.AuthConfig{
			TokenFile:  filepath.Join(dir, "token"),
			TrialLimit: 3,
		},
		Session: config.SessionConfig{
			StateDir:       filepath.Join(dir, "sessions"),
			PendingTTL:     time.Hour,
			MatchCacheSize: 16,
		},
		App: config.AppConfig{
			LogLevel:         "error",
			DefaultFormat:    "text",
			SupportedFormats: []string{"json", "yaml", "text", "markdown"},
		},
	}
	store, err := session.NewFileStore(cfg.Session.StateDir, time.Hour, nil)
	require.NoError(t, err)
	return &cliEnv{cfg: cfg, store: store}
}

// resetFlags clears flag values left over from earlier invocations
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	analyzeConfig = analyzeOptions{}
	editConfig = editOptions{}
	segmentsConfig = segmentsOptions{}
	previewConfig = previewOptions{}
	sessionsListConfig.OutputFormat = ""

	logger, err := errors.New("error")
	require.NoError(t, err)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err = Execute(context.Background(), e.cfg, logger)
	return out.String(), err
}

func (e *cliEnv) seed(t *testing.T) *session.Session {
	t.Helper()
	s := session.NewFromAnalysis(&types.AnalysisResult{
		Filename:    "resume.pdf",
		CompanyName: "Acme",
		JobTitle:    "Engineer",
		Sections: []types.SectionAnalysis{{
			SectionName:  "Experience",
			OriginalText: "Built tools. Led teams.",
			Edits: []types.EditSuggestion{
				{TargetText: "Built tools.", NewContent: "Built dashboards.", Action: "rewrite"},
				{TargetText: "Missing text", NewContent: "Never placed", Action: "rewrite"},
			},
		}},
	}, "Go engineer")
	require.NoError(t, e.store.Save(context.Background(), s))
	return s
}

func TestSessionsListAndDelete(t *testing.T) {
	env := newCLIEnv(t, nil)
	s := env.seed(t)

	out, err := env.run(t, "sessions", "list", "--format", "json")
	require.NoError(t, err)
	var list types.SessionList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)
	assert.Equal(t, 2, list[0].Pending)

	out, err = env.run(t, "sessions", "delete", s.ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, s.ID)

	_, err = env.store.Load(context.Background(), s.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func TestEditPersistsChanges(t *testing.T) {
	env := newCLIEnv(t, nil)
	s := env.seed(t)

	_, err := env.run(t, "edit", s.ID, "--section", "0", "--edit", "0", "--status", "rejected")
	require.NoError(t, err)
	_, err = env.run(t, "edit", s.ID, "--section", "0", "--edit", "1", "--text", "Still unplaced")
	require.NoError(t, err)

	loaded, err := env.store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	edits := loaded.Sections[0].Edits
	assert.Equal(t, types.StatusRejected, edits[0].Status)
	assert.Equal(t, "Still unplaced", edits[1].NewContent)
	assert.Equal(t, types.StatusPending, edits[1].Status)
}

func TestEditRejectsBadInput(t *testing.T) {
	env := newCLIEnv(t, nil)
	s := env.seed(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown status", []string{"--section", "0", "--edit", "0", "--status", "maybe"}, errors.ErrCodeInvalidStatus},
		{"edit out of range", []string{"--section", "0", "--edit", "9", "--status", "accepted"}, errors.ErrCodeEditNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, append([]string{"edit", s.ID}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestPreviewSkipsRejectedEdits(t *testing.T) {
	env := newCLIEnv(t, nil)
	s := env.seed(t)

	out, err := env.run(t, "preview", s.ID, "--format", "json")
	require.NoError(t, err)
	var preview types.Preview
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	assert.Contains(t, preview.Tailored, "Built dashboards.")

	_, err = env.run(t, "edit", s.ID, "--section", "0", "--edit", "0", "--status", "rejected")
	require.NoError(t, err)
	out, err = env.run(t, "preview", s.ID, "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	assert.Contains(t, preview.Tailored, "Built tools.")
}

func TestSaveWithoutLoginStashes(t *testing.T) {
	env := newCLIEnv(t, nil)
	s := env.seed(t)

	out, err := env.run(t, "save", s.ID, "--company", "Initech", "--role", "Analyst")
	require.NoError(t, err)
	assert.Contains(t, out, "login --resume "+s.ID)
	assert.True(t, env.store.HasPending(s.ID))

	stashed, err := env.store.Restore(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Initech", stashed.CompanyName)
	assert.Equal(t, "Analyst", stashed.JobRole)
}

func TestLoginResumesSaveOnce(t *testing.T) {
	var saves int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"opaque-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("POST /api/resume/save", func(w http.ResponseWriter, r *http.Request) {
		saves++
		assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"saved","id":42,"application_id":7}`))
	})
	env := newCLIEnv(t, mux)
	s := env.seed(t)
	require.NoError(t, env.store.Stash(context.Background(), s))

	out, err := env.run(t, "login", "--email", "ada@example.com", "--password", "secret", "--resume", s.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved résumé #42 to application #7")
	assert.Equal(t, 1, saves)

	loaded, err := env.store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), loaded.SavedResumeID)

	_, err = env.run(t, "login", "--email", "ada@example.com", "--password", "secret", "--resume", s.ID)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodePendingStateNotFound))
	assert.Equal(t, 1, saves)
}

func TestApplyServeFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "serve"}
	var opts serveOptions
	cmd.Flags().StringVar(&opts.Port, "port", "", "")
	cmd.Flags().StringVar(&opts.Host, "host", "", "")
	cmd.Flags().StringVar(&opts.TLSMode, "tls-mode", "", "")
	cmd.Flags().StringVar(&opts.CertFile, "cert-file", "", "")
	cmd.Flags().StringVar(&opts.KeyFile, "key-file", "", "")
	cmd.Flags().BoolVar(&opts.Watch, "watch-sessions", false, "")
	require.NoError(t, cmd.Flags().Set("port", "9090"))
	require.NoError(t, cmd.Flags().Set("watch-sessions", "true"))

	cfg := &config.Config{Server: config.ServerConfig{Host: "localhost", Port: "8080"}}
	applyServeFlags(cmd, cfg, opts)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.True(t, cfg.Server.WatchSessions)
}

func TestVersionShort(t *testing.T) {
	env := newCLIEnv(t, nil)

	out, err := env.run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "resumetailor "+Version)
}
