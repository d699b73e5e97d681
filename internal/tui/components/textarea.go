package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morrisclay/cds-console/internal/tui"
)

// TextareaModel is a multi-line text input component.
type TextareaModel struct {
	textarea  textarea.Model
	title     string
	prompt    string
	help      HelpModel
	keys      TextareaKeyMap
	done      bool
	cancelled bool
	value     string
	charLimit int
}

// NewTextarea creates a new multi-line text input.
func NewTextarea(title, prompt, placeholder string) TextareaModel {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.CharLimit = 1000
	ta.SetWidth(60)
	ta.SetHeight(6)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(tui.ColorMuted)
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(tui.ColorPrimary)
	ta.FocusedStyle.Base = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tui.ColorPrimary).
		Padding(0, 1)

	keys := DefaultTextareaKeyMap()
	return TextareaModel{
		textarea:  ta,
		title:     title,
		prompt:    prompt,
		help:      NewHelp(keys),
		keys:      keys,
		charLimit: 1000,
	}
}

// WithValue pre-fills the textarea.
func (m TextareaModel) WithValue(v string) TextareaModel {
	m.textarea.SetValue(v)
	return m
}

// Init implements tea.Model.
func (m TextareaModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m TextareaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.textarea.SetWidth(min(msg.Width-8, 100))
		m.help.SetWidth(msg.Width)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Submit):
			m.value = m.textarea.Value()
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel), msg.String() == "ctrl+c":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m TextareaModel) View() string {
	if m.done {
		return ""
	}

	var s strings.Builder
	if m.title != "" {
		s.WriteString(tui.TitleStyle.Render(m.title))
		s.WriteString("\n\n")
	}
	if m.prompt != "" {
		s.WriteString(m.prompt)
		s.WriteString("\n\n")
	}

	s.WriteString(m.textarea.View())
	s.WriteString("\n")

	count := len(m.textarea.Value())
	countStyle := tui.MutedStyle
	switch {
	case count >= m.charLimit:
		countStyle = tui.ErrorStyle
	case count > m.charLimit*9/10:
		countStyle = tui.WarningStyle
	}
	s.WriteString(countStyle.Render(fmt.Sprintf("%d/%d", count, m.charLimit)))
	s.WriteString("\n")
	s.WriteString(tui.HelpStyle.Render(m.help.View()))

	return s.String()
}

// Value returns the submitted text.
func (m TextareaModel) Value() string {
	return m.value
}

// Cancelled returns whether input was cancelled.
func (m TextareaModel) Cancelled() bool {
	return m.cancelled
}

// RunTextarea runs a textarea pre-filled with initial. ok is false when the
// user cancelled.
func RunTextarea(title, prompt, initial string) (value string, ok bool, err error) {
	m := NewTextarea(title, prompt, "").WithValue(initial)
	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", false, err
	}

	tm, isTextarea := finalModel.(TextareaModel)
	if !isTextarea || tm.Cancelled() {
		return "", false, nil
	}
	return tm.Value(), true, nil
}
