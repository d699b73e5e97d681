package components

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morrisclay/cds-console/internal/tui"
)

// LoadingModel is a loading spinner component.
type LoadingModel struct {
	spinner   spinner.Model
	message   string
	done      bool
	cancelled bool
}

// LoadingDoneMsg is sent when loading completes.
type LoadingDoneMsg struct{}

// NewLoading creates a new loading spinner.
func NewLoading(message string) LoadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = tui.SpinnerStyle
	return LoadingModel{
		spinner: s,
		message: message,
	}
}

// Init implements tea.Model.
func (m LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m LoadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		}

	case LoadingDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m LoadingModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.spinner.View() + " " + m.message
}

// Cancelled reports whether the user stopped waiting.
func (m LoadingModel) Cancelled() bool {
	return m.cancelled
}

// RunWithLoading runs fn while a spinner shows message on stderr. Leaving the
// spinner cancels the context given to fn.
func RunWithLoading[T any](ctx context.Context, message string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result T
	var err error
	done := make(chan struct{})

	p := tea.NewProgram(NewLoading(message), tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	go func() {
		defer close(done)
		result, err = fn(ctx)
		p.Send(LoadingDoneMsg{})
	}()

	final, runErr := p.Run()
	if m, ok := final.(LoadingModel); ok && m.Cancelled() {
		cancel()
	}
	<-done

	if err == nil && runErr != nil && ctx.Err() == nil {
		err = runErr
	}
	return result, err
}
