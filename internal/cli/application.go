package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/model"
)

func newApplicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "application",
		Aliases: []string{"app"},
		Short:   "Manage applications (KEY/name)",
	}

	cmd.AddCommand(newApplicationListCmd())
	cmd.AddCommand(newApplicationShowCmd())
	cmd.AddCommand(newApplicationUpdateCmd())
	cmd.AddCommand(newApplicationDeleteCmd())
	cmd.AddCommand(newApplicationResyncCmd())

	return cmd
}

func newApplicationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <KEY>",
		Short: "List the applications of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseProjectKey(args[0])
			if err != nil {
				return err
			}
			nav, err := console.projects.NavProjects(cmd.Context())
			if err != nil {
				return err
			}
			var names []string
			found := false
			for _, p := range nav {
				if p.Key == key {
					names, found = p.ApplicationNames, true
				}
			}
			if !found {
				return fmt.Errorf("project %s not found", key)
			}

			ui := console.warnings.UI(key)
			rows := make([][]string, len(names))
			for i, n := range names {
				rows[i] = []string{n, strconv.Itoa(len(ui.Applications[n].Actions))}
			}
			selected, err := outputList("Applications of "+key, names, []string{"NAME", "WARNINGS"}, rows)
			if err != nil || selected == nil {
				return err
			}
			return showApplication(cmd.Context(), key, selected[0])
		},
	}
}

func newApplicationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <KEY/name>",
		Short: "Show an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			return showApplication(cmd.Context(), ref.Project, ref.Name)
		},
	}
}

func showApplication(ctx context.Context, project, name string) error {
	app, err := console.applications.Get(ctx, project, name)
	if err != nil {
		return err
	}
	if console.format != formatTable {
		return outputOne(app, nil)
	}

	writeFields(console.out, [][2]string{
		{"Application", formatChildRef(app.ProjectKey, app.Name)},
		{"Description", app.Description},
		{"Repository", app.RepositoryFullname},
		{"Repositories manager", app.VCSServer},
		{"Modified", formatTime(app.LastModified)},
	})
	if len(app.Variables) > 0 {
		fmt.Fprintln(console.out)
		writeTable(console.out, []string{"VARIABLE", "TYPE", "VALUE"}, variableRows(app.Variables))
	}
	return nil
}

func newApplicationUpdateCmd() *cobra.Command {
	var name, description string
	var force bool

	cmd := &cobra.Command{
		Use:   "update <KEY/name>",
		Short: "Rename an application or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			app, err := console.applications.Get(cmd.Context(), ref.Project, ref.Name)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				app.Name = name
			}
			if cmd.Flags().Changed("description") {
				app.Description = description
			}

			var updated model.Application
			err = withOverwrite(cmd.Context(), ref.Project, force, func(ctx context.Context) error {
				var err error
				updated, err = console.applications.Update(ctx, ref.Project, ref.Name, app)
				return err
			})
			if err != nil || updated.Name == "" {
				return err
			}
			success(fmt.Sprintf("Updated application %s", formatChildRef(ref.Project, updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	return cmd
}

func newApplicationDeleteCmd() *cobra.Command {
	var yes, force bool

	cmd := &cobra.Command{
		Use:   "delete <KEY/name>",
		Short: "Delete an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmDelete("application "+args[0], yes)
			if err != nil || !ok {
				return err
			}

			deleted := false
			err = withOverwrite(cmd.Context(), ref.Project, force, func(ctx context.Context) error {
				err := console.applications.Delete(ctx, ref.Project, ref.Name)
				deleted = err == nil
				return err
			})
			if err != nil || !deleted {
				return err
			}
			success(fmt.Sprintf("Deleted application %s", args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	return cmd
}

func newApplicationResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync <KEY/name>",
		Short: "Reload an application from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			if _, err := console.applications.Resync(cmd.Context(), ref.Project, ref.Name); err != nil {
				return err
			}
			success(fmt.Sprintf("Reloaded %s", args[0]))
			return nil
		},
	}
}
