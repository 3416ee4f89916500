// Package tui implements the interactive review of a tailoring session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"resumetailor/internal/session"
	"resumetailor/internal/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type mode int

const (
	modeReview mode = iota
	modeEdit
	modePreview
)

// Model is the Bubble Tea model for reviewing one session.
// Every decision goes through the session mutation API.
type Model struct {
	sess *session.Session

	section int
	edit    int
	mode    mode

	editor  textarea.Model
	preview viewport.Model
	help    help.Model

	width  int
	height int

	dirty bool
	err   error
}

// New creates a review model positioned on the first edit
func New(s *session.Session) Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Placeholder = "Replacement text"

	return Model{
		sess:    s,
		editor:  ta,
		preview: viewport.New(80, 20),
		help:    help.New(),
	}
}

// Dirty reports whether any edit was changed
func (m Model) Dirty() bool {
	return m.dirty
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.help.Width = size.Width
		m.editor.SetWidth(max(size.Width-4, 10))
		m.editor.SetHeight(max(size.Height/3, 3))
		m.preview.Width = size.Width
		m.preview.Height = max(size.Height-2, 1)
		return m, nil
	}

	switch m.mode {
	case modeEdit:
		return m.updateEditor(msg)
	case modePreview:
		return m.updatePreview(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.err = nil

	switch {
	case key.Matches(keyMsg, keys.Quit):
		return m, tea.Quit

	case key.Matches(keyMsg, keys.Down):
		if m.edit < m.editCount()-1 {
			m.edit++
		}

	case key.Matches(keyMsg, keys.Up):
		if m.edit > 0 {
			m.edit--
		}

	case key.Matches(keyMsg, keys.NextSection):
		if m.section < len(m.sess.Sections)-1 {
			m.section++
			m.edit = 0
		}

	case key.Matches(keyMsg, keys.PrevSection):
		if m.section > 0 {
			m.section--
			m.edit = 0
		}

	case key.Matches(keyMsg, keys.Accept):
		m.setStatus(types.StatusAccepted, true)

	case key.Matches(keyMsg, keys.Reject):
		m.setStatus(types.StatusRejected, true)

	case key.Matches(keyMsg, keys.Reset):
		m.setStatus(types.StatusPending, false)

	case key.Matches(keyMsg, keys.Edit):
		if e, ok := m.current(); ok {
			m.mode = modeEdit
			m.editor.SetValue(e.NewContent)
			return m, m.editor.Focus()
		}

	case key.Matches(keyMsg, keys.Preview):
		m.mode = modePreview
		m.preview.SetContent(renderPreview(m.sess.Preview()))
		m.preview.GotoTop()

	case key.Matches(keyMsg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m Model) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, editorKeys.Cancel):
			m.editor.Blur()
			m.mode = modeReview
			return m, nil

		case key.Matches(keyMsg, editorKeys.Save):
			text := strings.TrimSpace(m.editor.Value())
			if err := m.sess.UpdateSuggestionText(m.section, m.edit, text); err != nil {
				m.err = err
			} else {
				m.dirty = true
			}
			m.editor.Blur()
			m.mode = modeReview
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.Quit):
			return m, tea.Quit
		case key.Matches(keyMsg, keys.Preview), key.Matches(keyMsg, editorKeys.Cancel):
			m.mode = modeReview
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

// setStatus records a decision and optionally moves to the next edit
func (m *Model) setStatus(status types.EditStatus, advance bool) {
	if _, ok := m.current(); !ok {
		return
	}
	if err := m.sess.SetSuggestionStatus(m.section, m.edit, status); err != nil {
		m.err = err
		return
	}
	m.dirty = true
	if advance && m.edit < m.editCount()-1 {
		m.edit++
	}
}

func (m Model) editCount() int {
	if m.section >= len(m.sess.Sections) {
		return 0
	}
	return len(m.sess.Sections[m.section].Edits)
}

func (m Model) current() (types.EditSuggestion, bool) {
	if m.edit >= m.editCount() {
		return types.EditSuggestion{}, false
	}
	return m.sess.Sections[m.section].Edits[m.edit], true
}

// View implements tea.Model.
func (m Model) View() string {
	if len(m.sess.Sections) == 0 {
		return "This session has no sections.\n"
	}
	if m.mode == modePreview {
		return lipgloss.JoinVertical(lipgloss.Left, m.preview.View(), m.statusBar())
	}

	parts := []string{m.renderTabs()}

	r, err := m.sess.Render(m.section)
	if err != nil {
		parts = append(parts, errorStyle.Render(err.Error()))
	} else {
		body := bodyStyle
		if m.width > 0 {
			body = body.Width(m.width - 2)
		}
		parts = append(parts, body.Render(renderSegments(r, m.edit)))
	}

	if e, ok := m.current(); ok {
		parts = append(parts, renderDetails(e, m.edit, m.editCount()))
	}
	if m.mode == modeEdit {
		parts = append(parts, m.editor.View(),
			m.help.ShortHelpView([]key.Binding{editorKeys.Save, editorKeys.Cancel}))
	} else {
		parts = append(parts, m.help.View(keys))
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	}
	parts = append(parts, m.statusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.sess.Sections))
	for i, s := range m.sess.Sections {
		style := sectionTabStyle
		if i == m.section {
			style = sectionTabActiveStyle
		}
		tabs[i] = style.Render(s.SectionName)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) statusBar() string {
	sum := m.sess.Summary()
	left := fmt.Sprintf(" %s  Section %d/%d", m.sess.Filename, m.section+1, len(m.sess.Sections))
	right := fmt.Sprintf("%d pending  %d accepted  %d rejected ", sum.Pending, sum.Accepted, sum.Rejected)
	if m.mode == modePreview {
		right = "p/esc back " + right
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return statusBarStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// Run shows the review UI until the user quits. It reports whether the
// session was changed.
func Run(ctx context.Context, s *session.Session) (bool, error) {
	p := tea.NewProgram(New(s), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(Model).Dirty(), nil
}
