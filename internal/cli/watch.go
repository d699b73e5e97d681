package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/event"
	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/session"
	"github.com/morrisclay/cds-console/internal/tui"
	"github.com/morrisclay/cds-console/internal/tui/components"
)

const maxWatchEvents = 500

var errSessionEnded = errors.New("session ended")

func newWatchCmd() *cobra.Command {
	var transport string
	var warningsOnly bool

	cmd := &cobra.Command{
		Use:   "watch [KEY...]",
		Short: "Follow server events in real time",
		Long: `Follow the events pushed by the server: project, application, pipeline
and environment changes, warnings and broadcasts. Give project keys to only
show their events.

Changes made by other users mark the projects as externally modified, and
the next update of such a project asks before overwriting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if transport == "" {
				transport = config.GetEventTransport()
			}
			dial, err := event.NewDialer(transport, console.client, console.interceptor)
			if err != nil {
				return err
			}

			listener := event.NewListener(dial, event.Targets{
				Projects:   console.projects,
				Warnings:   console.warnings,
				Broadcasts: console.broadcasts,
				Username:   func() string { return console.session.Current().Username() },
			}, console.logger)

			ctx, stop := context.WithCancelCause(cmd.Context())
			defer stop(nil)
			console.followSession(ctx, stop)

			filter := newEventFilter(args, warningsOnly)
			if isInteractive() && console.format == formatTable && console.out == os.Stdout {
				return runWatchTUI(ctx, listener, filter, transport)
			}
			return runWatchLines(ctx, listener, filter)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "", "Push channel transport (sse, websocket; default from config)")
	cmd.Flags().BoolVarP(&warningsOnly, "warnings", "w", false, "Only show warning events")
	return cmd
}

// followSession stops ctx when the session ends, including when another
// process logs out from the same host.
func (a *app) followSession(ctx context.Context, stop context.CancelCauseFunc) {
	if fs, ok := a.storage.(*config.FileStorage); ok {
		if err := fs.Watch(ctx, a.session.Reload); err != nil {
			a.logger.Debug().Err(err).Msg("credential file not watched")
		}
	}
	cancel := a.session.Subscribe(func(c *session.Context) {
		if !c.IsAuthenticated() {
			stop(errSessionEnded)
		}
	})
	context.AfterFunc(ctx, cancel)
}

// eventFilter selects the events shown.
type eventFilter struct {
	projects     map[string]bool
	warningsOnly bool
}

func newEventFilter(keys []string, warningsOnly bool) eventFilter {
	f := eventFilter{warningsOnly: warningsOnly}
	if len(keys) > 0 {
		f.projects = make(map[string]bool, len(keys))
		for _, k := range keys {
			f.projects[k] = true
		}
	}
	return f
}

func (f eventFilter) match(e model.Event) bool {
	if f.warningsOnly && !e.IsWarning() {
		return false
	}
	// Broadcasts without a project concern everyone.
	if f.projects != nil && !(e.ProjectKey == "" && e.IsBroadcast()) && !f.projects[e.ProjectKey] {
		return false
	}
	return true
}

// runWatchLines writes one JSON event per line until ctx ends.
func runWatchLines(ctx context.Context, l *event.Listener, filter eventFilter) error {
	enc := json.NewEncoder(console.out)
	cancel := l.Subscribe(func(e model.Event) {
		if filter.match(e) {
			enc.Encode(e)
		}
	})
	defer cancel()

	err := l.Run(ctx)
	return watchResult(ctx, err)
}

func watchResult(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, errSessionEnded) || errors.Is(err, event.ErrUnauthorized) {
		return errLoginRequired
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// eventSummary describes an event in one line.
func eventSummary(e model.Event) string {
	var parts []string
	if e.ProjectKey != "" {
		ref := e.ProjectKey
		switch {
		case e.ApplicationName != "":
			ref = formatChildRef(e.ProjectKey, e.ApplicationName)
		case e.PipelineName != "":
			ref = formatChildRef(e.ProjectKey, e.PipelineName)
		case e.EnvironmentName != "":
			ref += " env " + e.EnvironmentName
		}
		parts = append(parts, ref)
	}
	if e.Username != "" {
		parts = append(parts, "by "+e.Username)
	}
	return strings.Join(parts, " ")
}

// eventLabel is the short upper-case name of an event type.
func eventLabel(t string) string {
	return strings.ToUpper(strings.TrimPrefix(t, "sdk.Event"))
}

// --- TUI ---

type watchEvent struct {
	Time     time.Time
	Event    model.Event
	External bool
}

type eventMsg struct {
	e        model.Event
	external bool
}
type connectionMsg bool
type listenerDoneMsg struct{ err error }

type watchModel struct {
	transport  string
	filter     eventFilter
	keys       tui.KeyMap
	help       components.HelpModel
	viewport   viewport.Model
	ready      bool
	width      int
	connected  bool
	paused     bool
	events     []watchEvent
	eventCount int
	pending    int
	err        error
}

func newWatchModel(filter eventFilter, transport string) watchModel {
	keys := tui.DefaultKeyMap()
	return watchModel{
		transport: transport,
		filter:    filter,
		keys:      keys,
		help:      components.NewHelp(keys),
	}
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.SetWidth(msg.Width)
		headerHeight, footerHeight := 3, 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if !m.paused {
				m.pending = 0
				m.updateViewport()
			}
			return m, nil
		case key.Matches(msg, m.keys.Warnings):
			m.filter.warningsOnly = !m.filter.warningsOnly
			m.updateViewport()
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.events = nil
			m.updateViewport()
			return m, nil
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help, _ = m.help.Update(msg)
			return m, nil
		}

	case eventMsg:
		m.events = append(m.events, watchEvent{Time: time.Now(), Event: msg.e, External: msg.external})
		if len(m.events) > maxWatchEvents {
			m.events = m.events[len(m.events)-maxWatchEvents:]
		}
		m.eventCount++
		if m.paused {
			m.pending++
		} else {
			m.updateViewport()
		}
		return m, nil

	case connectionMsg:
		m.connected = bool(msg)
		if m.connected {
			m.err = nil
		}
		return m, nil

	case listenerDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *watchModel) updateViewport() {
	if !m.ready {
		return
	}

	var lines []string
	for _, we := range m.events {
		e := we.Event
		if !m.filter.match(e) {
			continue
		}

		typeStyle := tui.LabelStyle
		switch {
		case e.IsWarning():
			typeStyle = typeStyle.Foreground(tui.ColorWarning)
		case e.IsBroadcast():
			typeStyle = typeStyle.Foreground(tui.ColorSecondary)
		case strings.HasSuffix(e.Type, "Delete"):
			typeStyle = typeStyle.Foreground(tui.ColorError)
		case strings.HasSuffix(e.Type, "Add"):
			typeStyle = typeStyle.Foreground(tui.ColorSuccess)
		}

		line := fmt.Sprintf("%s %s %s",
			tui.MutedStyle.Render(we.Time.Format("15:04:05")),
			typeStyle.Render(eventLabel(e.Type)),
			eventSummary(e))
		if we.External {
			line += " " + tui.WarningStyle.Render("(external change)")
		}
		lines = append(lines, line)
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m watchModel) View() string {
	var s strings.Builder

	s.WriteString(tui.TitleStyle.UnsetMarginBottom().Render("Events on " + console.host))
	s.WriteString("  ")
	switch {
	case m.connected:
		s.WriteString(tui.ConnectedStyle.Render("● Connected (" + m.transport + ")"))
	case m.err != nil:
		s.WriteString(tui.DisconnectedStyle.Render("● " + m.err.Error()))
	default:
		s.WriteString(tui.MutedStyle.Render("○ Connecting..."))
	}
	s.WriteString(fmt.Sprintf("  %d events", m.eventCount))
	if m.paused {
		s.WriteString(tui.WarningStyle.Render(fmt.Sprintf("  paused (%d new)", m.pending)))
	}
	if m.filter.warningsOnly {
		s.WriteString(tui.MutedStyle.Render("  warnings only"))
	}
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", m.width))
	s.WriteString("\n")

	if m.ready {
		s.WriteString(m.viewport.View())
	}

	s.WriteString("\n")
	s.WriteString(m.help.View())
	return s.String()
}

func runWatchTUI(ctx context.Context, l *event.Listener, filter eventFilter, transport string) error {
	p := tea.NewProgram(newWatchModel(filter, transport), tea.WithAltScreen(), tea.WithContext(ctx))

	runCtx, stopListener := context.WithCancel(ctx)
	defer stopListener()

	// Send blocks until the program runs, so subscriptions are made here
	// rather than before Run.
	go func() {
		ownUser := console.session.Current().Username()
		cancelEvents := l.Subscribe(func(e model.Event) {
			external := e.IsProjectChange() && e.Username != "" && e.Username != ownUser
			p.Send(eventMsg{e: e, external: external})
		})
		defer cancelEvents()
		cancelState := l.SubscribeState(func(connected bool) {
			p.Send(connectionMsg(connected))
		})
		defer cancelState()

		err := l.Run(runCtx)
		if runCtx.Err() == nil {
			p.Send(listenerDoneMsg{err: err})
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	if err != nil {
		return err
	}
	return watchResult(ctx, nil)
}
