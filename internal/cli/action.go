package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/internal/model"
)

func newActionCmd() *cobra.Command {
	var file string
	var yes bool

	cmd := &cobra.Command{
		Use:     "action",
		Aliases: []string{"actions"},
		Short:   "Manage reusable actions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := console.actions.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(actions))
			for i, a := range actions {
				rows[i] = []string{a.Name, a.Type, yesNo(a.Enabled), truncate(a.Description, 50)}
			}
			selected, err := outputList("Actions", actions, []string{"NAME", "TYPE", "ENABLED", "DESCRIPTION"}, rows)
			if err != nil || selected == nil {
				return err
			}
			return showAction(cmd, selected[0])
		},
	}

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an action with its requirements and parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showAction(cmd, args[0])
		},
	}

	create := withLevel(&cobra.Command{
		Use:   "create -f <file>",
		Short: "Create an action from a YAML or JSON definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			var a model.Action
			if err := decodeFile(file, &a); err != nil {
				return err
			}
			created, err := console.actions.Create(cmd.Context(), a)
			if err != nil {
				return err
			}
			success(fmt.Sprintf("Created action %s", created.Name))
			return nil
		},
	}, guard.Admin)

	update := withLevel(&cobra.Command{
		Use:   "update <name> -f <file>",
		Short: "Replace an action with a YAML or JSON definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var a model.Action
			if err := decodeFile(file, &a); err != nil {
				return err
			}
			if a.Name == "" {
				a.Name = args[0]
			}
			updated, err := console.actions.Update(cmd.Context(), args[0], a)
			if err != nil {
				return err
			}
			success(fmt.Sprintf("Updated action %s", updated.Name))
			return nil
		},
	}, guard.Admin)

	for _, c := range []*cobra.Command{create, update} {
		c.Flags().StringVarP(&file, "file", "f", "", "Definition file (- for stdin)")
		_ = c.MarkFlagRequired("file")
	}

	del := withLevel(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmDelete("action "+args[0], yes)
			if err != nil || !ok {
				return err
			}
			if err := console.actions.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(fmt.Sprintf("Deleted action %s", args[0]))
			return nil
		},
	}, guard.Admin)
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	cmd.AddCommand(list, show, create, update, del)
	return cmd
}

func showAction(cmd *cobra.Command, name string) error {
	a, err := console.actions.Get(cmd.Context(), name)
	if err != nil {
		return err
	}
	if console.format != formatTable {
		return outputOne(a, nil)
	}

	reqs := make([]string, len(a.Requirements))
	for i, r := range a.Requirements {
		reqs[i] = r.Type + ":" + r.Value
	}
	writeFields(console.out, [][2]string{
		{"Name", a.Name},
		{"Type", a.Type},
		{"Description", a.Description},
		{"Enabled", yesNo(a.Enabled)},
		{"Deprecated", yesNo(a.Deprecated)},
		{"Requirements", strings.Join(reqs, ", ")},
	})
	if len(a.Parameters) > 0 {
		fmt.Fprintln(console.out)
		rows := make([][]string, len(a.Parameters))
		for i, p := range a.Parameters {
			rows[i] = []string{p.Name, p.Type, truncate(p.Value, 30), truncate(p.Description, 50)}
		}
		writeTable(console.out, []string{"PARAMETER", "TYPE", "DEFAULT", "DESCRIPTION"}, rows)
	}
	return nil
}

func newRequirementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requirement",
		Short: "Worker requirements",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "types",
		Short: "List the requirement types known to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := console.requirements.Types(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(types))
			for i, t := range types {
				rows[i] = []string{t}
			}
			return output(types, []string{"TYPE"}, rows)
		},
	})
	return cmd
}
