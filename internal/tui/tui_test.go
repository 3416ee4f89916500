package tui

import (
	"strings"
	"testing"

	"resumetailor/internal/session"
	"resumetailor/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *session.Session {
	return session.NewFromAnalysis(&types.AnalysisResult{
		Filename: "cv.pdf",
		Sections: []types.SectionAnalysis{
			{
				SectionName:  "Experience",
				OriginalText: "Built reports. Led teams.",
				Edits: []types.EditSuggestion{
					{TargetText: "reports", NewContent: "dashboards", Action: "replace"},
					{TargetText: "Led teams", NewContent: "Led 4 teams", Action: "replace", Rationale: "quantify"},
				},
			},
			{
				SectionName: "Skills",
				Edits:       []types.EditSuggestion{{NewContent: "Add PostgreSQL", Action: "add"}},
			},
		},
	}, "")
}

func setupModel(t *testing.T) Model {
	t.Helper()
	m := New(testSession())
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return newM.(Model)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		newM, _ := m.Update(msg)
		m = newM.(Model)
	}
	return m
}

func TestAcceptAdvances(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, "a")
	assert.Equal(t, types.StatusAccepted, m.sess.Sections[0].Edits[0].Status)
	assert.Equal(t, 1, m.edit)
	assert.True(t, m.Dirty())

	m = press(t, m, "r")
	assert.Equal(t, types.StatusRejected, m.sess.Sections[0].Edits[1].Status)
	assert.Equal(t, 1, m.edit, "stays on the last edit")

	m = press(t, m, "u")
	assert.Equal(t, types.StatusPending, m.sess.Sections[0].Edits[1].Status)
}

func TestSectionNavigation(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, "j", "tab")
	assert.Equal(t, 1, m.section)
	assert.Equal(t, 0, m.edit)

	m = press(t, m, "n")
	assert.Equal(t, 1, m.section, "stays on the last section")

	m = press(t, m, "N", "k")
	assert.Equal(t, 0, m.section)
	assert.Equal(t, 0, m.edit)
}

func TestEditReplacementText(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, "e")
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "dashboards", m.editor.Value())

	m.editor.SetValue("live dashboards")
	m = press(t, m, "ctrl+s")
	assert.Equal(t, modeReview, m.mode)
	assert.Equal(t, "live dashboards", m.sess.Sections[0].Edits[0].NewContent)
	assert.True(t, m.Dirty())
}

func TestEditCancelKeepsText(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, "e")
	m.editor.SetValue("something else")
	m = press(t, m, "esc")

	assert.Equal(t, modeReview, m.mode)
	assert.Equal(t, "dashboards", m.sess.Sections[0].Edits[0].NewContent)
	assert.False(t, m.Dirty())
}

func TestKeysInEditorAreText(t *testing.T) {
	m := setupModel(t)

	m = press(t, m, "e", "a", "q")
	assert.Equal(t, modeEdit, m.mode)
	assert.Equal(t, types.StatusPending, m.sess.Sections[0].Edits[0].Status)
}

func TestPreviewShowsMergedText(t *testing.T) {
	m := setupModel(t)
	m = press(t, m, "a", "p")

	require.Equal(t, modePreview, m.mode)
	view := m.View()
	assert.Contains(t, view, "dashboard")
	assert.Contains(t, view, "Experience (1 applied)")

	m = press(t, m, "p")
	assert.Equal(t, modeReview, m.mode)
}

func TestViewRenders(t *testing.T) {
	m := setupModel(t)
	view := m.View()

	assert.Contains(t, view, "Experience")
	assert.Contains(t, view, "Skills")
	assert.Contains(t, view, "1 of 2")
	assert.Contains(t, view, "3 pending")

	m = press(t, m, "tab")
	assert.True(t, strings.Contains(m.View(), "Add PostgreSQL"))
}

func TestQuit(t *testing.T) {
	m := setupModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestEmptySession(t *testing.T) {
	m := New(session.New(""))
	m = press(t, m, "a", "e", "j")
	assert.False(t, m.Dirty())
	assert.Contains(t, m.View(), "no sections")
}
