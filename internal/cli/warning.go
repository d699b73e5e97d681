package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/model"
)

func newWarningCmd() *cobra.Command {
	var resync, summary bool

	cmd := &cobra.Command{
		Use:     "warning <KEY>",
		Aliases: []string{"warnings"},
		Short:   "Show the warnings of a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseProjectKey(args[0])
			if err != nil {
				return err
			}

			var ws []model.Warning
			if resync {
				ws, err = console.warnings.Load(cmd.Context(), key)
			} else {
				ws, err = console.warnings.Warnings(cmd.Context(), key)
			}
			if err != nil {
				return err
			}

			if summary {
				return outputWarningSummary(key, console.warnings.UI(key))
			}

			var active []model.Warning
			for _, w := range ws {
				if !w.Ignored {
					active = append(active, w)
				}
			}
			if len(active) == 0 && console.format == formatTable {
				success(fmt.Sprintf("No warnings on %s", key))
				return nil
			}

			rows := make([][]string, len(active))
			for i, w := range active {
				rows[i] = []string{warningElement(w), w.Type, truncate(w.Message, 70)}
			}
			return output(active, []string{"ELEMENT", "TYPE", "MESSAGE"}, rows)
		},
	}

	cmd.Flags().BoolVar(&resync, "resync", false, "Reload the warnings from the server")
	cmd.Flags().BoolVar(&summary, "summary", false, "Count warnings per element")
	return cmd
}

// warningElement names the element a warning concerns.
func warningElement(w model.Warning) string {
	switch {
	case w.ApplicationName != "":
		return "application " + w.ApplicationName
	case w.PipelineName != "":
		return "pipeline " + w.PipelineName
	case w.EnvironmentName != "":
		return "environment " + w.EnvironmentName
	}
	return "project"
}

func outputWarningSummary(key string, ui model.WarningUI) error {
	if console.format != formatTable {
		return outputOne(ui, nil)
	}

	rows := [][]string{{"project", key, strconv.Itoa(len(ui.Project))}}
	for _, name := range sortedKeys(ui.Applications) {
		rows = append(rows, []string{"application", name, strconv.Itoa(len(ui.Applications[name].Actions))})
	}
	for _, name := range sortedKeys(ui.Pipelines) {
		p := ui.Pipelines[name]
		rows = append(rows, []string{"pipeline", name, fmt.Sprintf("%d (jobs %d, parameters %d)", len(p.Jobs)+len(p.Parameters), len(p.Jobs), len(p.Parameters))})
	}
	for _, name := range sortedKeys(ui.Environments) {
		rows = append(rows, []string{"environment", name, strconv.Itoa(len(ui.Environments[name]))})
	}
	writeTable(console.out, []string{"KIND", "NAME", "WARNINGS"}, rows)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
