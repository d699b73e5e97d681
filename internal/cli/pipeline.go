package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/model"
)

func newPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pipeline",
		Aliases: []string{"pip"},
		Short:   "Manage pipelines (KEY/name)",
	}

	cmd.AddCommand(newPipelineShowCmd())
	cmd.AddCommand(newPipelineUpdateCmd())
	cmd.AddCommand(newPipelineDeleteCmd())
	cmd.AddCommand(newPipelineResyncCmd())

	return cmd
}

func newPipelineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <KEY/name>",
		Short: "Show a pipeline with its stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			pip, err := console.pipelines.Get(cmd.Context(), ref.Project, ref.Name)
			if err != nil {
				return err
			}
			if console.format != formatTable {
				return outputOne(pip, nil)
			}

			ui := console.warnings.UI(ref.Project).Pipelines[ref.Name]
			writeFields(console.out, [][2]string{
				{"Pipeline", formatChildRef(ref.Project, pip.Name)},
				{"Description", pip.Description},
				{"Modified", formatUnix(pip.LastModified)},
				{"Warnings", strconv.Itoa(len(ui.Jobs) + len(ui.Parameters))},
			})

			if len(pip.Stages) > 0 {
				fmt.Fprintln(console.out)
				rows := make([][]string, len(pip.Stages))
				for i, st := range pip.Stages {
					jobs := make([]string, len(st.Jobs))
					for j, job := range st.Jobs {
						jobs[j] = job.Name
					}
					rows[i] = []string{strconv.Itoa(st.BuildOrder), st.Name, yesNo(st.Enabled), strings.Join(jobs, ", ")}
				}
				writeTable(console.out, []string{"ORDER", "STAGE", "ENABLED", "JOBS"}, rows)
			}
			if len(pip.Parameters) > 0 {
				fmt.Fprintln(console.out)
				rows := make([][]string, len(pip.Parameters))
				for i, p := range pip.Parameters {
					rows[i] = []string{p.Name, p.Type, truncate(p.Value, 40)}
				}
				writeTable(console.out, []string{"PARAMETER", "TYPE", "DEFAULT"}, rows)
			}
			return nil
		},
	}
}

func newPipelineUpdateCmd() *cobra.Command {
	var name, description string
	var force bool

	cmd := &cobra.Command{
		Use:   "update <KEY/name>",
		Short: "Rename a pipeline or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			pip, err := console.pipelines.Get(cmd.Context(), ref.Project, ref.Name)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				pip.Name = name
			}
			if cmd.Flags().Changed("description") {
				pip.Description = description
			}

			var updated model.Pipeline
			err = withOverwrite(cmd.Context(), ref.Project, force, func(ctx context.Context) error {
				var err error
				updated, err = console.pipelines.Update(ctx, ref.Project, ref.Name, pip)
				return err
			})
			if err != nil || updated.Name == "" {
				return err
			}
			success(fmt.Sprintf("Updated pipeline %s", formatChildRef(ref.Project, updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	return cmd
}

func newPipelineDeleteCmd() *cobra.Command {
	var yes, force bool

	cmd := &cobra.Command{
		Use:   "delete <KEY/name>",
		Short: "Delete a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmDelete("pipeline "+args[0], yes)
			if err != nil || !ok {
				return err
			}

			deleted := false
			err = withOverwrite(cmd.Context(), ref.Project, force, func(ctx context.Context) error {
				err := console.pipelines.Delete(ctx, ref.Project, ref.Name)
				deleted = err == nil
				return err
			})
			if err != nil || !deleted {
				return err
			}
			success(fmt.Sprintf("Deleted pipeline %s", args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite changes made by someone else")
	return cmd
}

func newPipelineResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync <KEY/name>",
		Short: "Reload a pipeline from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseChildRef(args[0])
			if err != nil {
				return err
			}
			if _, err := console.pipelines.Resync(cmd.Context(), ref.Project, ref.Name); err != nil {
				return err
			}
			success(fmt.Sprintf("Reloaded %s", args[0]))
			return nil
		},
	}
}
