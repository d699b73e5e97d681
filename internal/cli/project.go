package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/store"
	"github.com/morrisclay/cds-console/internal/tui/components"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "prj"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	cmd.AddCommand(newProjectFavoriteCmd())
	cmd.AddCommand(newProjectResyncCmd())
	cmd.AddCommand(newVariableCmd())
	cmd.AddCommand(newEnvironmentCmd())
	cmd.AddCommand(newProjectGroupCmd())
	cmd.AddCommand(newRepoManagerCmd())

	return cmd
}

func newProjectListCmd() *cobra.Command {
	var favorites bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			nav, err := console.projects.NavProjects(cmd.Context())
			if err != nil {
				return err
			}

			if favorites {
				var favs []model.NavProject
				for _, p := range nav {
					if p.Favorite {
						favs = append(favs, p)
					}
				}
				nav = favs
			}

			if len(nav) == 0 && console.format == formatTable {
				info("No projects found")
				return nil
			}

			headers := []string{"KEY", "NAME", "APPLICATIONS", "PIPELINES", "FAVORITE"}
			rows := make([][]string, len(nav))
			for i, p := range nav {
				fav := ""
				if p.Favorite {
					fav = "★"
				}
				rows[i] = []string{p.Key, truncate(p.Name, 40), strconv.Itoa(len(p.ApplicationNames)), strconv.Itoa(len(p.PipelineNames)), fav}
			}

			selected, err := outputList("Projects", nav, headers, rows)
			if err != nil || selected == nil {
				return err
			}
			return showProject(cmd.Context(), selected[0], store.FieldApplications|store.FieldPipelines)
		},
	}

	cmd.Flags().BoolVar(&favorites, "favorites", false, "Only list favorite projects")
	return cmd
}

func newProjectShowCmd() *cobra.Command {
	var fieldsFlag string

	cmd := &cobra.Command{
		Use:   "show [KEY]",
		Short: "Show a project",
		Long: `Show a project. Without KEY on a terminal, pick the project from a
searchable list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			var err error
			if len(args) == 0 {
				key, err = pickProject(cmd.Context())
				if err != nil || key == "" {
					return err
				}
			} else if key, err = parseProjectKey(args[0]); err != nil {
				return err
			}
			fields, ok := store.ParseFields(fieldsFlag)
			if !ok {
				return fmt.Errorf("invalid --fields %q", fieldsFlag)
			}
			return showProject(cmd.Context(), key, fields)
		},
	}

	cmd.Flags().StringVar(&fieldsFlag, "fields", "variables,environments,applications,pipelines,groups",
		"Sub-collections to load (variables, environments, applications, pipelines, groups, repositories_managers, all)")
	return cmd
}

// pickProject lets the user choose a project of the navigation list. An
// empty key means the choice was cancelled.
func pickProject(ctx context.Context) (string, error) {
	if !isInputInteractive() || !isInteractive() {
		return "", fmt.Errorf("project key required in non-interactive mode")
	}
	nav, err := console.projects.NavProjects(ctx)
	if err != nil {
		return "", err
	}
	if len(nav) == 0 {
		info("No projects found")
		return "", nil
	}
	items := make([]components.SearchListItem, len(nav))
	for i, p := range nav {
		items[i] = components.NewSearchListItem(p.Key, p.Name, p.Key).WithFavorite(p.Favorite)
	}
	selected, err := components.RunSearchList("Projects", items)
	if err != nil || selected == nil {
		return "", err
	}
	return selected.Value().(string), nil
}

func showProject(ctx context.Context, key string, fields store.Fields) error {
	p, err := withSpinner(ctx, "Loading "+key+"...", func(ctx context.Context) (model.Project, error) {
		return console.projects.GetProject(ctx, key, fields)
	})
	if err != nil {
		return err
	}
	// Warnings are informative; a failure to load them does not fail the view.
	if _, err := console.warnings.Warnings(ctx, key); err != nil {
		console.logger.Debug().Err(err).Str("project", key).Msg("warnings unavailable")
	}
	ui := console.warnings.UI(key)

	if console.format != formatTable {
		return outputOne(p, nil)
	}

	pairs := [][2]string{
		{"Key", p.Key},
		{"Name", p.Name},
		{"Description", p.Description},
		{"Modified", formatTime(p.LastModified)},
		{"Favorite", yesNo(p.Favorite)},
		{"Warnings", strconv.Itoa(ui.Count())},
	}
	if fields.Has(store.FieldApplications) {
		pairs = append(pairs, [2]string{"Applications", joinNames(p.ApplicationNames)})
	}
	if fields.Has(store.FieldPipelines) {
		pairs = append(pairs, [2]string{"Pipelines", joinNames(p.PipelineNames)})
	}
	if fields.Has(store.FieldEnvironments) {
		names := make([]string, len(p.Environments))
		for i, e := range p.Environments {
			names[i] = e.Name
		}
		pairs = append(pairs, [2]string{"Environments", strings.Join(names, ", ")})
	}
	if fields.Has(store.FieldGroups) {
		groups := make([]string, len(p.Groups))
		for i, g := range p.Groups {
			groups[i] = g.Group.Name + " (" + permissionName(g.Permission) + ")"
		}
		pairs = append(pairs, [2]string{"Groups", strings.Join(groups, ", ")})
	}
	if fields.Has(store.FieldRepositoriesManagers) {
		names := make([]string, len(p.VCSServers))
		for i, v := range p.VCSServers {
			names[i] = v.Name
		}
		pairs = append(pairs, [2]string{"Repositories managers", strings.Join(names, ", ")})
	}
	writeFields(console.out, pairs)

	if fields.Has(store.FieldVariables) && len(p.Variables) > 0 {
		fmt.Fprintln(console.out)
		writeTable(console.out, []string{"VARIABLE", "TYPE", "VALUE"}, variableRows(p.Variables))
	}
	return nil
}

func joinNames(items []model.IDName) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return strings.Join(names, ", ")
}

func variableRows(vars []model.Variable) [][]string {
	rows := make([][]string, len(vars))
	for i, v := range vars {
		value := v.Value
		if v.Type == "password" {
			value = "********"
		}
		rows[i] = []string{v.Name, v.Type, truncate(value, 60)}
	}
	return rows
}

func newProjectCreateCmd() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "create <KEY>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseProjectKey(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = key
			}

			p, err := console.projects.CreateProject(cmd.Context(), model.Project{Key: key, Name: name, Description: description})
			if err != nil {
				return err
			}

			if console.format != formatTable {
				return outputOne(p, nil)
			}
			success(fmt.Sprintf("Created project %s", p.Key))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: the key)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	return cmd
}

func newProjectUpdateCmd() *cobra.Command {
	var name, description string
	var force bool

	cmd := &cobra.Command{
		Use:   "update <KEY>",
		Short: "Update the name or description of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseProjectKey(args[0])
			if err != nil {
				return err
			}
			cur, err := console.projects.GetProject(cmd.Context(), key, 0)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				cur.Name = name
			}
			if cmd.Flags().Changed("description") {
				cur.Description = description
			}

			var updated model.Project
			err = withOverwrite(cmd.Context(), key, force, func(ctx context.Context) error {
				var err error
				updated, err = console.projects.UpdateProject(ctx, model.Project{Key: key, Name: cur.Name, Description: cur.Description})
				return err
			})
			if err != nil || updated.Key == "" {
				return err
			}
			success(fmt.Sprintf("Updated project %s", updated.Key))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	var yes, force bool

	cmd := &cobra.Command{
		Use:   "delete <KEY>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseProjectKey(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmDelete("project "+key, yes)
			if err != nil || !ok {
				return err
			}

			deleted := false
			err = withOverwrite(cmd.Context(), key, force, func(ctx context.Context) error {
				err := console.projects.DeleteProject(ctx, key)
				deleted = err == nil
				return err
			})
			if err != nil || !deleted {
				return err
			}
			success(fmt.Sprintf("Deleted project %s", key))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	return cmd
}

func newProjectFavoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <KEY>",
		Short: "Add or remove a project from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseProjectKey(args[0])
			if err != nil {
				return err
			}
			fav, err := console.projects.ToggleFavorite(cmd.Context(), key)
			if err != nil {
				return err
			}
			if fav {
				success(fmt.Sprintf("%s added to favorites", key))
			} else {
				success(fmt.Sprintf("%s removed from favorites", key))
			}
			return nil
		},
	}
}

func newProjectResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync <KEY>",
		Short: "Reload a project from the server, discarding the cached copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseProjectKey(args[0])
			if err != nil {
				return err
			}
			p, err := withSpinner(cmd.Context(), "Reloading "+key+"...", func(ctx context.Context) (model.Project, error) {
				return console.projects.Resync(ctx, key)
			})
			if err != nil {
				return err
			}
			success(fmt.Sprintf("Reloaded %s (%s)", p.Key, formatTime(p.LastModified)))
			return nil
		},
	}
}

// --- Variables ---

func newVariableCmd() *cobra.Command {
	var typ string
	var force, yes bool

	cmd := &cobra.Command{
		Use:     "variable",
		Aliases: []string{"var"},
		Short:   "Manage project variables",
	}

	list := &cobra.Command{
		Use:   "list <KEY>",
		Short: "List project variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := console.projects.GetProject(cmd.Context(), args[0], store.FieldVariables)
			if err != nil {
				return err
			}
			return output(p.Variables, []string{"NAME", "TYPE", "VALUE"}, variableRows(p.Variables))
		},
	}

	add := &cobra.Command{
		Use:   "add <KEY> <name=value>",
		Short: "Add a project variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVariable(args[1], typ)
			if err != nil {
				return err
			}
			return projectMutation(cmd, args[0], force, "Added variable "+v.Name, func(ctx context.Context) (model.Project, error) {
				return console.projects.AddVariable(ctx, args[0], v)
			})
		},
	}
	add.Flags().StringVarP(&typ, "type", "t", "string", "Variable type (string, text, password, key...)")

	update := &cobra.Command{
		Use:   "update <KEY> <old-name> <name=value>",
		Short: "Update a project variable",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVariable(args[2], typ)
			if err != nil {
				return err
			}
			return projectMutation(cmd, args[0], force, "Updated variable "+v.Name, func(ctx context.Context) (model.Project, error) {
				return console.projects.UpdateVariable(ctx, args[0], args[1], v)
			})
		},
	}
	update.Flags().StringVarP(&typ, "type", "t", "string", "Variable type")

	del := &cobra.Command{
		Use:   "delete <KEY> <name>",
		Short: "Delete a project variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmDelete("variable "+args[1], yes)
			if err != nil || !ok {
				return err
			}
			return projectMutation(cmd, args[0], force, "Deleted variable "+args[1], func(ctx context.Context) (model.Project, error) {
				return console.projects.DeleteVariable(ctx, args[0], args[1])
			})
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	for _, c := range []*cobra.Command{add, update, del} {
		c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	}
	cmd.AddCommand(list, add, update, del)
	return cmd
}

// projectMutation runs a project mutation through withOverwrite and reports
// the result.
func projectMutation(cmd *cobra.Command, key string, force bool, done string, mutate func(ctx context.Context) (model.Project, error)) error {
	key, err := parseProjectKey(key)
	if err != nil {
		return err
	}
	var p model.Project
	applied := false
	err = withOverwrite(cmd.Context(), key, force, func(ctx context.Context) error {
		var err error
		p, err = mutate(ctx)
		applied = err == nil
		return err
	})
	if err != nil || !applied {
		return err
	}
	if console.format != formatTable {
		return outputOne(p, nil)
	}
	success(done)
	return nil
}

// --- Environments ---

func newEnvironmentCmd() *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:     "env",
		Aliases: []string{"environment"},
		Short:   "Manage project environments",
	}

	list := &cobra.Command{
		Use:   "list <KEY>",
		Short: "List environments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := console.projects.GetProject(cmd.Context(), args[0], store.FieldEnvironments)
			if err != nil {
				return err
			}
			ui := console.warnings.UI(p.Key)
			rows := make([][]string, len(p.Environments))
			for i, e := range p.Environments {
				rows[i] = []string{e.Name, strconv.Itoa(len(e.Variables)), strconv.Itoa(len(ui.Environments[e.Name])), formatUnix(e.LastModified)}
			}
			return output(p.Environments, []string{"NAME", "VARIABLES", "WARNINGS", "MODIFIED"}, rows)
		},
	}

	add := &cobra.Command{
		Use:   "add <KEY> <name>",
		Short: "Add an environment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return projectMutation(cmd, args[0], force, "Added environment "+args[1], func(ctx context.Context) (model.Project, error) {
				return console.projects.AddEnvironment(ctx, args[0], model.Environment{Name: args[1]})
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <KEY> <name> <new-name>",
		Short: "Rename an environment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return projectMutation(cmd, args[0], force, "Renamed environment to "+args[2], func(ctx context.Context) (model.Project, error) {
				p, err := console.projects.GetProject(ctx, args[0], store.FieldEnvironments)
				if err != nil {
					return model.Project{}, err
				}
				env := model.Environment{Name: args[2]}
				for _, e := range p.Environments {
					if e.Name == args[1] {
						env = e
						env.Name = args[2]
					}
				}
				return console.projects.UpdateEnvironment(ctx, args[0], args[1], env)
			})
		},
	}

	clone := &cobra.Command{
		Use:   "clone <KEY> <name> <clone-name>",
		Short: "Clone an environment and its variables",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return projectMutation(cmd, args[0], force, fmt.Sprintf("Cloned %s into %s", args[1], args[2]), func(ctx context.Context) (model.Project, error) {
				return console.projects.CloneEnvironment(ctx, args[0], args[1], args[2])
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <KEY> <name>",
		Short: "Delete an environment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmDelete("environment "+args[1], yes)
			if err != nil || !ok {
				return err
			}
			return projectMutation(cmd, args[0], force, "Deleted environment "+args[1], func(ctx context.Context) (model.Project, error) {
				return console.projects.DeleteEnvironment(ctx, args[0], args[1])
			})
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	for _, c := range []*cobra.Command{add, rename, clone, del} {
		c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	}
	cmd.AddCommand(list, add, rename, clone, del)
	return cmd
}

// --- Group permissions ---

func newProjectGroupCmd() *cobra.Command {
	var permission string
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Manage the groups allowed on a project",
	}

	list := &cobra.Command{
		Use:   "list <KEY>",
		Short: "List group permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := console.projects.GetProject(cmd.Context(), args[0], store.FieldGroups)
			if err != nil {
				return err
			}
			rows := make([][]string, len(p.Groups))
			for i, g := range p.Groups {
				rows[i] = []string{g.Group.Name, permissionName(g.Permission)}
			}
			return output(p.Groups, []string{"GROUP", "PERMISSION"}, rows)
		},
	}

	grant := func(use, short, done string, call func(ctx context.Context, key string, gp model.GroupPermission) (model.Project, error)) *cobra.Command {
		c := &cobra.Command{
			Use:   use + " <KEY> <group>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				perm, err := parsePermission(permission)
				if err != nil {
					return err
				}
				gp := model.GroupPermission{Group: model.Group{Name: args[1]}, Permission: perm}
				return projectMutation(cmd, args[0], force, fmt.Sprintf("%s %s (%s)", done, args[1], permissionName(perm)), func(ctx context.Context) (model.Project, error) {
					return call(ctx, args[0], gp)
				})
			},
		}
		c.Flags().StringVarP(&permission, "permission", "p", "read", "Permission (read, execute, write)")
		return c
	}
	add := grant("add", "Grant a group access to a project", "Granted", func(ctx context.Context, key string, gp model.GroupPermission) (model.Project, error) {
		return console.projects.AddGroupPermission(ctx, key, gp)
	})
	update := grant("update", "Change the permission of a group", "Updated", func(ctx context.Context, key string, gp model.GroupPermission) (model.Project, error) {
		return console.projects.UpdateGroupPermission(ctx, key, gp)
	})

	del := &cobra.Command{
		Use:   "delete <KEY> <group>",
		Short: "Revoke the access of a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmDelete("permission of "+args[1], yes)
			if err != nil || !ok {
				return err
			}
			return projectMutation(cmd, args[0], force, "Revoked "+args[1], func(ctx context.Context) (model.Project, error) {
				return console.projects.DeleteGroupPermission(ctx, args[0], args[1])
			})
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	for _, c := range []*cobra.Command{add, update, del} {
		c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	}
	cmd.AddCommand(list, add, update, del)
	return cmd
}

// --- Repositories managers ---

func newRepoManagerCmd() *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "repo-manager",
		Short: "Manage the repositories managers linked to a project",
	}

	list := &cobra.Command{
		Use:   "list <KEY>",
		Short: "List linked repositories managers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := console.projects.GetProject(cmd.Context(), args[0], store.FieldRepositoriesManagers)
			if err != nil {
				return err
			}
			rows := make([][]string, len(p.VCSServers))
			for i, v := range p.VCSServers {
				rows[i] = []string{v.Name, v.Username}
			}
			return output(p.VCSServers, []string{"NAME", "USERNAME"}, rows)
		},
	}

	disconnect := &cobra.Command{
		Use:   "disconnect <KEY> <name>",
		Short: "Unlink a repositories manager",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !isInputInteractive() {
					return fmt.Errorf("refusing to disconnect %s without --yes", args[1])
				}
				ok, err := components.RunConfirm("Disconnect "+args[1], "Applications using this repositories manager lose their repository.", true)
				if err != nil || !ok {
					return err
				}
			}
			return projectMutation(cmd, args[0], force, "Disconnected "+args[1], func(ctx context.Context) (model.Project, error) {
				return console.projects.DisconnectRepositoryManager(ctx, args[0], args[1])
			})
		},
	}
	disconnect.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	disconnect.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")

	cmd.AddCommand(list, disconnect)
	return cmd
}
