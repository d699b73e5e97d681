package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/tui"
)

// --- Login Command ---

func newLoginCmd() *cobra.Command {
	var username, token, redirect string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a local account or a session token",
		Long: `Sign in with a local account or a session token.

Without flags on a terminal, an interactive form asks for the username and
password. Use --token to sign in with an existing session token, or
--username with --password-stdin in scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A rejected password is not an expired session.
			console.interceptor.OnUnauthorized = nil
			ctx := cmd.Context()

			var user *model.User
			var err error
			switch {
			case token != "":
				if token == "-" {
					token = readLine()
				}
				user, err = loginWithToken(ctx, token)
			case username != "" || !isInputInteractive():
				if username == "" {
					return fmt.Errorf("--username required in non-interactive mode")
				}
				if !passwordStdin {
					return fmt.Errorf("--password-stdin required with --username")
				}
				user, err = loginWithPassword(ctx, username, readLine())
			default:
				user, err = runLoginTUI(ctx)
			}
			if err != nil {
				return err
			}
			if user == nil {
				return nil
			}

			success(fmt.Sprintf("Logged in as %s on %s", user.Username, console.host))
			if redirect != "" && redirect != guard.LoginRoute {
				info("Continue with: cdsconsole " + commandLine(redirect))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&token, "token", "", "Session token (- reads it from stdin)")
	cmd.Flags().StringVar(&redirect, "redirect", "", "Location to continue with after signing in")

	return withLevel(cmd, guard.Public)
}

func readLine() string {
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// loginWithPassword signs in with a local consumer. Consumers that do not
// issue a session token keep authenticating with Basic credentials.
func loginWithPassword(ctx context.Context, username, password string) (*model.User, error) {
	if password == "" {
		return nil, fmt.Errorf("password required")
	}
	resp, err := console.client.SignIn(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if resp.User == nil {
		resp.User = &model.User{Username: username}
	}

	id := model.Identity{User: resp.User, Consumer: resp.Consumer, Session: resp.Session}
	if resp.Token != "" {
		err = console.session.Login(id, resp.Token, true)
	} else {
		err = console.session.Login(id, password, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}
	return resp.User, nil
}

// loginWithToken resolves the identity behind token and stores it.
func loginWithToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("session token required")
	}
	if err := console.loginFromToken(ctx, token, console.interceptor.Messages); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return console.session.Current().User, nil
}

// loginModel is the TUI model for the login command.
type loginModel struct {
	ctx        context.Context
	username   textinput.Model
	password   textinput.Model
	spinner    spinner.Model
	focusIndex int
	state      string // "input", "loading", "done", "error", "cancelled"
	user       *model.User
	err        error
}

func newLoginModel(ctx context.Context) loginModel {
	u := textinput.New()
	u.Placeholder = "username"
	u.CharLimit = 128
	u.Width = 30
	u.PromptStyle = tui.PromptStyle
	u.Focus()

	p := textinput.New()
	p.Placeholder = "password"
	p.CharLimit = 256
	p.Width = 30
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'
	p.PromptStyle = tui.PromptStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = tui.SpinnerStyle

	return loginModel{
		ctx:      ctx,
		username: u,
		password: p,
		spinner:  s,
		state:    "input",
	}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

type loginResultMsg struct {
	user *model.User
	err  error
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.state = "cancelled"
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			if m.state == "input" {
				m.focusIndex = (m.focusIndex + 1) % 2
				m.updateFocus()
			}
			return m, nil
		case "enter":
			if m.state != "input" {
				return m, nil
			}
			if m.focusIndex == 0 && m.username.Value() != "" {
				m.focusIndex = 1
				m.updateFocus()
				return m, nil
			}
			if m.username.Value() != "" && m.password.Value() != "" {
				m.state = "loading"
				username, password := m.username.Value(), m.password.Value()
				ctx := m.ctx
				return m, tea.Batch(
					m.spinner.Tick,
					func() tea.Msg {
						user, err := loginWithPassword(ctx, username, password)
						return loginResultMsg{user: user, err: err}
					},
				)
			}
		}

	case loginResultMsg:
		if msg.err != nil {
			m.state = "error"
			m.err = msg.err
		} else {
			m.state = "done"
			m.user = msg.user
		}
		return m, tea.Quit

	case spinner.TickMsg:
		if m.state == "loading" {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	if m.state == "input" {
		var cmd tea.Cmd
		if m.focusIndex == 0 {
			m.username, cmd = m.username.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *loginModel) updateFocus() {
	if m.focusIndex == 0 {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.username.Blur()
		m.password.Focus()
	}
}

func (m loginModel) View() string {
	switch m.state {
	case "input":
		return fmt.Sprintf(
			"%s\n\n%s\n%s\n\n%s\n%s\n\n%s",
			tui.TitleStyle.Render("Sign in to "+console.host),
			tui.LabelStyle.Render("Username"),
			m.username.View(),
			tui.LabelStyle.Render("Password"),
			m.password.View(),
			tui.HelpStyle.Render("tab next field • enter submit • esc cancel"),
		)
	case "loading":
		return m.spinner.View() + " Signing in..."
	case "error":
		return tui.ErrorStyle.Render("✗") + " Sign in failed\n"
	}
	return ""
}

func runLoginTUI(ctx context.Context) (*model.User, error) {
	p := tea.NewProgram(newLoginModel(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	lm, ok := finalModel.(loginModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	return lm.user, lm.err
}

// --- Logout Command ---

func newLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !console.session.IsAuthenticated() {
				info("Not logged in")
				return nil
			}

			// The local session ends even when the server cannot be told.
			console.interceptor.OnUnauthorized = nil
			if console.session.SessionToken() != "" {
				if err := console.client.SignOut(cmd.Context()); err != nil {
					console.logger.Debug().Err(err).Msg("server-side signout failed")
				}
			}

			if err := console.session.Logout(); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}

			success(fmt.Sprintf("Logged out from %s", console.host))
			return nil
		},
	}
	return withLevel(cmd, guard.Public)
}

// --- Whoami Command ---

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user behind the current credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := console.client.Me(cmd.Context())
			if err != nil {
				return err
			}

			pairs := [][2]string{
				{"Username", me.User.Username},
				{"Fullname", me.User.Fullname},
				{"Email", me.User.Email},
				{"Ring", me.User.Ring},
			}
			if me.Consumer != nil {
				pairs = append(pairs, [2]string{"Consumer", me.Consumer.Name + " (" + me.Consumer.Type + ")"})
			}
			pairs = append(pairs, [2]string{"Host", console.client.Host()})
			return outputOne(me, pairs)
		},
	}
}

// --- Status Command ---

type statusInfo struct {
	Host          string          `json:"host"`
	Authenticated bool            `json:"authenticated"`
	User          string          `json:"user,omitempty"`
	Ring          string          `json:"ring,omitempty"`
	Admin         bool            `json:"admin"`
	MFA           bool            `json:"mfa"`
	SessionToken  bool            `json:"session_token"`
	ExpireAt      string          `json:"expire_at,omitempty"`
	Expired       bool            `json:"expired"`
	Consumer      *statusConsumer `json:"consumer,omitempty"`
}

type statusConsumer struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	SupportMFA bool   `json:"support_mfa"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show login status from saved credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := console.session
			st := statusInfo{Host: console.host, Authenticated: s.IsAuthenticated()}
			if c := s.Current(); c.IsAuthenticated() {
				st.User = c.Username()
				st.Ring = c.User.Ring
				st.Admin = c.IsAdmin()
				st.MFA = c.IsMFAPresent()
				st.SessionToken = c.Token != ""
				st.Expired = s.Expired()
				if c.Session != nil && !c.Session.ExpireAt.IsZero() {
					st.ExpireAt = formatTime(c.Session.ExpireAt)
				}
				if c.Consumer != nil {
					st.Consumer = &statusConsumer{Name: c.Consumer.Name, Type: c.Consumer.Type, SupportMFA: c.Consumer.SupportMFA}
				}
			}

			if !st.Authenticated {
				return outputOne(st, [][2]string{{"Host", st.Host}, {"Status", "Not logged in"}})
			}
			status := "Logged in"
			if st.Expired {
				status = "Session expired"
			}
			pairs := [][2]string{
				{"Host", st.Host},
				{"Status", status},
				{"Username", st.User},
				{"Ring", st.Ring},
				{"Admin", yesNo(st.Admin)},
				{"MFA", yesNo(st.MFA)},
			}
			if st.ExpireAt != "" {
				pairs = append(pairs, [2]string{"Expires", st.ExpireAt})
			}
			return outputOne(st, pairs)
		},
	}
	return withLevel(cmd, guard.Public)
}
