package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/model"
)

func newWorkerModelCmd() *cobra.Command {
	var file string
	var yes bool

	cmd := &cobra.Command{
		Use:     "worker-model",
		Aliases: []string{"wm"},
		Short:   "Manage worker models",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List worker models",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := console.workerModels.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(models))
			for i, m := range models {
				state := "enabled"
				if m.Disabled {
					state = "disabled"
				}
				rows[i] = []string{strconv.FormatInt(m.ID, 10), m.Name, m.Type, truncate(m.Image, 40), state}
			}
			return output(models, []string{"ID", "NAME", "TYPE", "IMAGE", "STATE"}, rows)
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a worker model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := console.workerModels.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return outputOne(m, [][2]string{
				{"ID", strconv.FormatInt(m.ID, 10)},
				{"Name", m.Name},
				{"Type", m.Type},
				{"Group", strconv.FormatInt(m.GroupID, 10)},
				{"Image", m.Image},
				{"Description", m.Description},
				{"Disabled", yesNo(m.Disabled)},
				{"Restricted", yesNo(m.Restricted)},
				{"Needs registration", yesNo(m.NeedRegistration)},
			})
		},
	}

	create := &cobra.Command{
		Use:   "create -f <file>",
		Short: "Create a worker model from a YAML or JSON definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			var m model.WorkerModel
			if err := decodeFile(file, &m); err != nil {
				return err
			}
			created, err := console.workerModels.Create(cmd.Context(), m)
			if err != nil {
				return err
			}
			success(fmt.Sprintf("Created worker model %s (%d)", created.Name, created.ID))
			return nil
		},
	}

	update := &cobra.Command{
		Use:   "update <id> -f <file>",
		Short: "Replace a worker model with a YAML or JSON definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var m model.WorkerModel
			if err := decodeFile(file, &m); err != nil {
				return err
			}
			m.ID = id
			updated, err := console.workerModels.Update(cmd.Context(), m)
			if err != nil {
				return err
			}
			success(fmt.Sprintf("Updated worker model %s", updated.Name))
			return nil
		},
	}

	for _, c := range []*cobra.Command{create, update} {
		c.Flags().StringVarP(&file, "file", "f", "", "Definition file (- for stdin)")
		_ = c.MarkFlagRequired("file")
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a worker model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmDelete("worker model "+args[0], yes)
			if err != nil || !ok {
				return err
			}
			if err := console.workerModels.Delete(cmd.Context(), id); err != nil {
				return err
			}
			success(fmt.Sprintf("Deleted worker model %d", id))
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	cmd.AddCommand(list, show, create, update, del)
	return cmd
}
