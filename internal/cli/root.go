// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/api"
	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/pkg/version"
)

// console is the application of the running invocation.
var console *app

// Global flags.
var flags struct {
	host      string
	output    string
	logLevel  string
	logFormat string
	lang      string
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdsconsole",
		Short: "CDS console - manage projects, pipelines and workers from the terminal",
		Long: `cdsconsole is a terminal console for a CDS CI/CD server.
It browses and edits projects, applications, pipelines, groups, actions and
worker models, and follows changes made by other users as they happen.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if console == nil {
				a, err := newApp(cmd.Context(), appOptions{
					host:      flags.host,
					format:    flags.output,
					logLevel:  flags.logLevel,
					logFormat: flags.logFormat,
					lang:      flags.lang,
					out:       cmd.OutOrStdout(),
					errOut:    cmd.ErrOrStderr(),
					envToken:  os.Getenv(config.EnvSessionToken),
				})
				if err != nil {
					return err
				}
				console = a
			}
			return console.enter(cmd, args)
		},
	}
	withLevel(cmd, guard.Authenticated)

	// Disable default completion command
	cmd.CompletionOptions.DisableDefaultCmd = true

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.host, "host", "H", "", "API host (default: $"+config.EnvHost+" or config)")
	pf.StringVarP(&flags.output, "output", "o", "", "Output format (table, json, yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&flags.lang, "lang", "", "Notification language (en, fr)")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newProjectCmd())
	cmd.AddCommand(newApplicationCmd())
	cmd.AddCommand(newPipelineCmd())
	cmd.AddCommand(newGroupCmd())
	cmd.AddCommand(newActionCmd())
	cmd.AddCommand(newBroadcastCmd())
	cmd.AddCommand(newRequirementCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newWorkerModelCmd())
	cmd.AddCommand(newWarningCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, newRootCmd(), os.Args[1:], os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes root with args and reports the error, if any, on errOut.
func run(ctx context.Context, root *cobra.Command, args []string, errOut io.Writer) error {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	report(errOut, err)
	return err
}

func report(w io.Writer, err error) {
	var apiErr *api.APIError
	// The interceptor already told the user about failed requests.
	if !errors.As(err, &apiErr) && !errors.Is(err, errLoginRequired) && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(w, "✗ %v\n", err)
	}
	if console != nil {
		if hint, ok := console.loginHint(); ok {
			fmt.Fprintf(w, "→ %s\n", hint)
		}
	}
}

// helper functions for output

func success(msg string) {
	fmt.Fprintf(console.out, "✓ %s\n", msg)
}

func warn(msg string) {
	fmt.Fprintf(console.out, "! %s\n", msg)
}

func info(msg string) {
	fmt.Fprintf(console.out, "→ %s\n", msg)
}
