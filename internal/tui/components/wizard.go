package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morrisclay/cds-console/internal/tui"
)

// WizardStep represents a step in the wizard.
type WizardStep interface {
	Title() string
	View() string
	Update(msg tea.Msg) (WizardStep, tea.Cmd)
	Init() tea.Cmd
	IsComplete() bool
	// Reopen makes a completed step editable again when the user goes back.
	Reopen()
	Value() any
}

// WizardModel is a multi-step wizard component.
type WizardModel struct {
	title       string
	steps       []WizardStep
	currentStep int
	done        bool
	cancelled   bool
}

// NewWizard creates a new multi-step wizard.
func NewWizard(title string, steps []WizardStep) WizardModel {
	return WizardModel{
		title: title,
		steps: steps,
	}
}

// Init implements tea.Model.
func (m WizardModel) Init() tea.Cmd {
	if len(m.steps) > 0 {
		return m.steps[0].Init()
	}
	return nil
}

// Update implements tea.Model.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))):
			m.cancelled = true
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			if m.currentStep > 0 {
				m.currentStep--
				m.steps[m.currentStep].Reopen()
				return m, m.steps[m.currentStep].Init()
			}
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	if m.currentStep >= len(m.steps) {
		return m, nil
	}

	step, cmd := m.steps[m.currentStep].Update(msg)
	m.steps[m.currentStep] = step
	if !step.IsComplete() {
		return m, cmd
	}
	if m.currentStep < len(m.steps)-1 {
		m.currentStep++
		return m, m.steps[m.currentStep].Init()
	}
	m.done = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m WizardModel) View() string {
	if m.done || len(m.steps) == 0 {
		return ""
	}

	var s strings.Builder
	s.WriteString(tui.TitleStyle.Render(m.title))
	s.WriteString("\n")
	s.WriteString(tui.MutedStyle.Render(strings.Repeat("━", 32)))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Step %d of %d: %s\n\n",
		m.currentStep+1,
		len(m.steps),
		m.steps[m.currentStep].Title()))

	s.WriteString(m.steps[m.currentStep].View())
	s.WriteString("\n\n")

	helpText := "↑↓ navigate  enter select"
	if m.currentStep > 0 {
		helpText += "  esc back"
	} else {
		helpText += "  esc cancel"
	}
	s.WriteString(tui.HelpStyle.Render(helpText))

	return tui.BoxStyle.Render(s.String())
}

// Cancelled returns whether the wizard was cancelled.
func (m WizardModel) Cancelled() bool {
	return m.cancelled
}

// Values returns all step values.
func (m WizardModel) Values() []any {
	values := make([]any, len(m.steps))
	for i, s := range m.steps {
		values[i] = s.Value()
	}
	return values
}

// RunWizard runs the steps and returns their values in order. ok is false
// when the user cancelled.
func RunWizard(title string, steps []WizardStep) (values []any, ok bool, err error) {
	finalModel, err := tea.NewProgram(NewWizard(title, steps)).Run()
	if err != nil {
		return nil, false, err
	}
	wm, isWizard := finalModel.(WizardModel)
	if !isWizard || wm.Cancelled() {
		return nil, false, nil
	}
	return wm.Values(), true, nil
}

// --- Text Input Step ---

// TextInputStep is a wizard step with a text input.
type TextInputStep struct {
	title      string
	prompt     string
	input      textinput.Model
	allowEmpty bool
	complete   bool
	value      string
}

// NewTextInputStep creates a new text input step.
func NewTextInputStep(title, prompt, placeholder string) *TextInputStep {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.PromptStyle = tui.PromptStyle
	ti.TextStyle = lipgloss.NewStyle()

	return &TextInputStep{
		title:  title,
		prompt: prompt,
		input:  ti,
	}
}

// Optional lets the step complete with an empty value.
func (s *TextInputStep) Optional() *TextInputStep {
	s.allowEmpty = true
	return s
}

// Title implements WizardStep.
func (s *TextInputStep) Title() string { return s.title }

// Init implements WizardStep.
func (s *TextInputStep) Init() tea.Cmd {
	s.input.Focus()
	return textinput.Blink
}

// Update implements WizardStep.
func (s *TextInputStep) Update(msg tea.Msg) (WizardStep, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if s.allowEmpty || strings.TrimSpace(s.input.Value()) != "" {
			s.complete = true
			s.value = strings.TrimSpace(s.input.Value())
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// View implements WizardStep.
func (s *TextInputStep) View() string {
	return s.prompt + "\n\n" + s.input.View()
}

// IsComplete implements WizardStep.
func (s *TextInputStep) IsComplete() bool { return s.complete }

// Reopen implements WizardStep.
func (s *TextInputStep) Reopen() { s.complete = false }

// Value implements WizardStep.
func (s *TextInputStep) Value() any { return s.value }

// --- Item Select Step ---

// ItemSelectStep is a wizard step choosing one of items; its value is the
// value of the chosen item.
type ItemSelectStep struct {
	title    string
	prompt   string
	items    []SearchListItem
	selected int
	complete bool
}

// NewItemSelectStep creates a new item selection step.
func NewItemSelectStep(title, prompt string, items []SearchListItem) *ItemSelectStep {
	return &ItemSelectStep{
		title:  title,
		prompt: prompt,
		items:  items,
	}
}

// Title implements WizardStep.
func (s *ItemSelectStep) Title() string { return s.title }

// Init implements WizardStep.
func (s *ItemSelectStep) Init() tea.Cmd { return nil }

// Update implements WizardStep.
func (s *ItemSelectStep) Update(msg tea.Msg) (WizardStep, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.items)-1 {
				s.selected++
			}
		case "enter":
			s.complete = len(s.items) > 0
		}
	}
	return s, nil
}

// View implements WizardStep.
func (s *ItemSelectStep) View() string {
	var b strings.Builder
	b.WriteString(s.prompt)
	b.WriteString("\n\n")

	for i, item := range s.items {
		if i == s.selected {
			b.WriteString(tui.SelectedStyle.Render("> "+item.Title()) + "\n")
			if item.Description() != "" {
				b.WriteString(tui.MutedStyle.Render("  "+item.Description()) + "\n")
			}
		} else {
			b.WriteString(tui.MutedStyle.Render("  "+item.Title()) + "\n")
		}
	}

	return b.String()
}

// IsComplete implements WizardStep.
func (s *ItemSelectStep) IsComplete() bool { return s.complete }

// Reopen implements WizardStep.
func (s *ItemSelectStep) Reopen() { s.complete = false }

// Value implements WizardStep.
func (s *ItemSelectStep) Value() any {
	if s.selected >= 0 && s.selected < len(s.items) {
		return s.items[s.selected].Value()
	}
	return nil
}
