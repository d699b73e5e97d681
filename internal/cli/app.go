package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/api"
	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/internal/logging"
	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/notify"
	"github.com/morrisclay/cds-console/internal/session"
	"github.com/morrisclay/cds-console/internal/store"
)

// app holds everything a command needs. It is built once per invocation,
// before the command runs.
type app struct {
	host   string
	format string
	lang   string
	out    io.Writer
	logger zerolog.Logger

	storage     config.Storage
	session     *session.Store
	notifier    notify.Notifier
	nav         *guard.Recorder
	guard       *guard.Guard
	interceptor *api.Interceptor
	client      *api.Client

	projects     *store.ProjectStore
	applications *store.ApplicationStore
	pipelines    *store.PipelineStore
	groups       *store.GroupStore
	actions      *store.ActionStore
	broadcasts   *store.BroadcastStore
	workerModels *store.WorkerModelStore
	requirements *store.RequirementStore
	tokens       *store.TokenStore
	warnings     *store.WarningStore
}

// appOptions are the inputs of newApp, taken from flags and configuration.
type appOptions struct {
	host      string
	format    string
	logLevel  string
	logFormat string
	lang      string
	out       io.Writer
	errOut    io.Writer
	// storage overrides the durable storage; nil selects the file storage
	// of host, or memory storage when a session token is in the environment.
	storage config.Storage
	// envToken is a session token provided through the environment.
	envToken string
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.Default()
	}
	if opts.host == "" {
		opts.host = config.GetHost()
	}
	if opts.format == "" {
		opts.format = cfg.OutputFormat
	}
	if opts.logLevel == "" {
		opts.logLevel = cfg.LogLevel
	}
	if opts.lang == "" {
		opts.lang = cfg.Language
	}
	if opts.out == nil {
		opts.out = os.Stdout
	}
	if opts.errOut == nil {
		opts.errOut = os.Stderr
	}

	a := &app{
		host:   opts.host,
		format: opts.format,
		lang:   opts.lang,
		out:    opts.out,
	}

	switch opts.logFormat {
	case "json":
		a.logger = logging.NewJSONLogger(opts.errOut, opts.logLevel)
	case "", "text":
		a.logger = logging.NewLogger(opts.logLevel)
	default:
		return nil, fmt.Errorf("log format must be 'text' or 'json', got %q", opts.logFormat)
	}

	a.notifier = notify.NewConsole(opts.errOut, a.logger)
	messages := notify.MessagesFor(a.lang)

	a.storage = opts.storage
	if a.storage == nil {
		if opts.envToken != "" {
			a.storage = config.NewMemoryStorage(nil)
		} else {
			a.storage = config.NewFileStorage(a.host)
		}
	}
	a.session = session.New(a.storage, session.WithLogger(a.logger))

	if opts.envToken != "" && !a.session.IsAuthenticated() {
		if err := a.loginFromToken(ctx, opts.envToken, messages); err != nil {
			return nil, err
		}
	}

	a.nav = &guard.Recorder{}
	a.guard = guard.New(a.session, a.nav, guard.WithLogger(a.logger))

	a.interceptor = api.NewInterceptor(a.session, a.notifier)
	a.interceptor.Messages = messages
	a.interceptor.Logger = a.logger
	a.interceptor.OnUnauthorized = a.guard.Unauthorized
	a.client = api.NewClient(a.host, api.WithInterceptor(a.interceptor))

	a.projects = store.NewProjectStore(a.client, a.logger)
	a.applications = store.NewApplicationStore(a.client, a.projects)
	a.pipelines = store.NewPipelineStore(a.client, a.projects)
	a.groups = store.NewGroupStore(a.client)
	a.actions = store.NewActionStore(a.client)
	a.broadcasts = store.NewBroadcastStore(a.client)
	a.workerModels = store.NewWorkerModelStore(a.client)
	a.requirements = store.NewRequirementStore(a.client)
	a.tokens = store.NewTokenStore(a.client)
	a.warnings = store.NewWarningStore(a.client, a.logger)

	return a, nil
}

// loginFromToken resolves the identity behind a session token and logs it
// in. The token is checked once, without the session interceptor hooks.
func (a *app) loginFromToken(ctx context.Context, token string, messages notify.Messages) error {
	i := api.NewInterceptor(staticToken(token), a.notifier)
	i.Messages = messages
	i.Logger = a.logger
	me, err := api.NewClient(a.host, api.WithInterceptor(i)).Me(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", config.EnvSessionToken, err)
	}
	id := model.Identity{User: me.User, Consumer: me.Consumer, Session: me.Session}
	return a.session.Login(id, token, true)
}

type staticToken string

func (t staticToken) SessionToken() string                     { return string(t) }
func (t staticToken) BasicCredentials() (string, string, bool) { return "", "", false }

// Route levels are declared on commands with this annotation; commands
// inherit the level of their closest annotated ancestor.
const levelAnnotation = "cdsconsole/level"

func withLevel(cmd *cobra.Command, level guard.Level) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	cmd.Annotations[levelAnnotation] = level.String()
	return cmd
}

func levelOf(cmd *cobra.Command) guard.Level {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Annotations[levelAnnotation] {
		case "public":
			return guard.Public
		case "authenticated":
			return guard.Authenticated
		case "admin":
			return guard.Admin
		}
	}
	return guard.Authenticated
}

// location is the route of an invocation: "project show PRJ" is
// "/project/show/PRJ".
func location(cmd *cobra.Command, args []string) string {
	parts := strings.Fields(cmd.CommandPath())
	if len(parts) > 0 {
		parts = parts[1:]
	}
	for _, arg := range args {
		parts = append(parts, url.PathEscape(arg))
	}
	return "/" + strings.Join(parts, "/")
}

// commandLine turns a location back into the arguments of the command.
func commandLine(loc string) string {
	var parts []string
	for _, p := range strings.Split(strings.Trim(loc, "/"), "/") {
		if s, err := url.PathUnescape(p); err == nil {
			p = s
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// errLoginRequired is returned when the guard redirected to the login route.
var errLoginRequired = errors.New("login required")

// enter runs the guard for the invocation.
func (a *app) enter(cmd *cobra.Command, args []string) error {
	if a.guard.Enter(levelOf(cmd), location(cmd, args)) {
		return nil
	}
	if levelOf(cmd) == guard.Admin && a.session.IsAuthenticated() {
		return fmt.Errorf("%s requires administrative rights", cmd.CommandPath())
	}
	return errLoginRequired
}

// loginHint describes the last redirection to the login route, if any.
func (a *app) loginHint() (string, bool) {
	n, ok := a.nav.Last()
	if !ok || n.Route != guard.LoginRoute {
		return "", false
	}
	hint := "Sign in with: cdsconsole login"
	if r := n.Query.Get(guard.RedirectParam); r != "" {
		hint += " --redirect " + r
	}
	return hint, true
}
