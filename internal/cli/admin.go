package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/internal/tui/components"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Server administration",
	}
	cmd.AddCommand(newMigrationCmd())
	return withLevel(cmd, guard.Admin)
}

func newMigrationCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "migration",
		Short: "Follow and control server data migrations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrations, err := console.client.ListMigrations(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(migrations))
			for i, m := range migrations {
				rows[i] = []string{strconv.FormatInt(m.ID, 10), m.Name, m.Status, m.Release, truncate(m.Progress, 30), truncate(m.Error, 40)}
			}
			return output(migrations, []string{"ID", "NAME", "STATUS", "RELEASE", "PROGRESS", "ERROR"}, rows)
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				if !isInputInteractive() {
					return fmt.Errorf("refusing to cancel migration %d without --yes", id)
				}
				ok, err := components.RunConfirm(fmt.Sprintf("Cancel migration %d", id), "The migration stops and is marked as cancelled.", true)
				if err != nil || !ok {
					return err
				}
			}
			if err := console.client.CancelMigration(cmd.Context(), id); err != nil {
				return err
			}
			success(fmt.Sprintf("Cancelled migration %d", id))
			return nil
		},
	}
	cancel.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	reset := &cobra.Command{
		Use:   "reset <id>",
		Short: "Put a migration back to the todo state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := console.client.ResetMigration(cmd.Context(), id); err != nil {
				return err
			}
			success(fmt.Sprintf("Migration %d will run again", id))
			return nil
		},
	}

	cmd.AddCommand(list, cancel, reset)
	return cmd
}
