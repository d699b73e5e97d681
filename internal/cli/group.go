package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/model"
)

func newGroupCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "group",
		Aliases: []string{"groups"},
		Short:   "Manage groups",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := console.groups.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(groups))
			for i, g := range groups {
				rows[i] = []string{g.Name, strconv.Itoa(len(g.Admins)), strconv.Itoa(len(g.Members))}
			}
			selected, err := outputList("Groups", groups, []string{"NAME", "ADMINS", "MEMBERS"}, rows)
			if err != nil || selected == nil {
				return err
			}
			return showGroup(cmd, selected[0])
		},
	}

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a group with its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showGroup(cmd, args[0])
		},
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := console.groups.Create(cmd.Context(), model.Group{Name: args[0]})
			if err != nil {
				return err
			}
			success(fmt.Sprintf("Created group %s", g.Name))
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := console.groups.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			g.Name = args[1]
			if _, err := console.groups.Update(cmd.Context(), args[0], g); err != nil {
				return err
			}
			success(fmt.Sprintf("Renamed group %s to %s", args[0], args[1]))
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirmDelete("group "+args[0], yes)
			if err != nil || !ok {
				return err
			}
			if err := console.groups.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(fmt.Sprintf("Deleted group %s", args[0]))
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	cmd.AddCommand(list, show, create, rename, del)
	return cmd
}

func showGroup(cmd *cobra.Command, name string) error {
	g, err := console.groups.Get(cmd.Context(), name)
	if err != nil {
		return err
	}

	usernames := func(users []model.User) string {
		names := make([]string, len(users))
		for i, u := range users {
			names[i] = u.Username
		}
		return strings.Join(names, ", ")
	}
	return outputOne(g, [][2]string{
		{"Name", g.Name},
		{"Admins", usernames(g.Admins)},
		{"Members", usernames(g.Members)},
	})
}
