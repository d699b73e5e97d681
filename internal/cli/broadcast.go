package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/internal/model"
	"github.com/morrisclay/cds-console/internal/tui"
	"github.com/morrisclay/cds-console/internal/tui/components"
)

func newBroadcastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "broadcast",
		Aliases: []string{"broadcasts"},
		Short:   "Read and publish announcements",
	}

	cmd.AddCommand(newBroadcastListCmd())
	cmd.AddCommand(newBroadcastShowCmd())
	cmd.AddCommand(newBroadcastCreateCmd())
	cmd.AddCommand(newBroadcastUpdateCmd())
	cmd.AddCommand(newBroadcastDeleteCmd())
	cmd.AddCommand(newBroadcastMarkCmd())

	return cmd
}

func newBroadcastListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unread broadcasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []model.Broadcast
			var err error
			if all {
				list, err = console.broadcasts.List(cmd.Context())
			} else {
				list, err = console.broadcasts.Unread(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(list) == 0 && console.format == formatTable {
				info("No broadcasts")
				return nil
			}

			rows := make([][]string, len(list))
			for i, b := range list {
				rows[i] = []string{strconv.FormatInt(b.ID, 10), b.Level, truncate(b.Title, 50), b.ProjectKey, formatTime(b.Updated), yesNo(b.Read)}
			}
			selected, err := outputList("Broadcasts", list, []string{"ID", "LEVEL", "TITLE", "PROJECT", "UPDATED", "READ"}, rows)
			if err != nil || selected == nil {
				return err
			}
			id, err := parseID(selected[0])
			if err != nil {
				return err
			}
			return showBroadcast(cmd.Context(), id)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include read and archived broadcasts")
	return cmd
}

func newBroadcastShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a broadcast and mark it as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return showBroadcast(cmd.Context(), id)
		},
	}
}

func showBroadcast(ctx context.Context, id int64) error {
	b, err := console.broadcasts.Get(ctx, id)
	if err != nil {
		return err
	}
	if !b.Read {
		if err := console.broadcasts.MarkRead(ctx, id); err != nil {
			console.logger.Debug().Err(err).Int64("broadcast", id).Msg("mark read failed")
		}
	}

	if console.format != formatTable {
		return outputOne(b, nil)
	}
	fmt.Fprintln(console.out, tui.LevelStyle(b.Level).Render("["+b.Level+"] ")+tui.TitleStyle.Render(b.Title))
	writeFields(console.out, [][2]string{
		{"Project", b.ProjectKey},
		{"Created", formatTime(b.Created)},
		{"Updated", formatTime(b.Updated)},
	})
	fmt.Fprintln(console.out)
	fmt.Fprintln(console.out, b.Content)
	return nil
}

func validLevel(level string) bool {
	return level == model.BroadcastInfo || level == model.BroadcastWarning
}

// broadcastContent returns the content flag or, on a terminal, asks for it.
func broadcastContent(content, initial, title string) (string, bool, error) {
	if content != "" {
		return content, true, nil
	}
	if !isInputInteractive() {
		return initial, true, nil
	}
	return components.RunTextarea(title, "Content of the broadcast:", initial)
}

func newBroadcastCreateCmd() *cobra.Command {
	var level, content, project string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Publish a broadcast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validLevel(level) {
				return fmt.Errorf("level must be %q or %q", model.BroadcastInfo, model.BroadcastWarning)
			}
			content, ok, err := broadcastContent(content, "", args[0])
			if err != nil || !ok {
				return err
			}
			if content == "" {
				return fmt.Errorf("content required")
			}

			b, err := console.broadcasts.Create(cmd.Context(), model.Broadcast{
				Title:      args[0],
				Content:    content,
				Level:      level,
				ProjectKey: project,
			})
			if err != nil {
				return err
			}
			success(fmt.Sprintf("Published broadcast %d", b.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", model.BroadcastInfo, "Level (info, warning)")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Content (asked interactively when omitted)")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Restrict to a project")
	return withLevel(cmd, guard.Admin)
}

func newBroadcastUpdateCmd() *cobra.Command {
	var title, level, content string
	var archive, edit bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a broadcast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := console.broadcasts.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("title") {
				b.Title = title
			}
			if cmd.Flags().Changed("level") {
				if !validLevel(level) {
					return fmt.Errorf("level must be %q or %q", model.BroadcastInfo, model.BroadcastWarning)
				}
				b.Level = level
			}
			if cmd.Flags().Changed("archive") {
				b.Archived = archive
			}
			switch {
			case content != "":
				b.Content = content
			case edit:
				c, ok, err := broadcastContent("", b.Content, b.Title)
				if err != nil || !ok {
					return err
				}
				b.Content = c
			}

			if _, err := console.broadcasts.Update(cmd.Context(), b); err != nil {
				return err
			}
			success(fmt.Sprintf("Updated broadcast %d", id))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&level, "level", "l", "", "New level (info, warning)")
	cmd.Flags().StringVarP(&content, "content", "c", "", "New content")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Edit the content interactively")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive (or --archive=false to restore)")
	return withLevel(cmd, guard.Admin)
}

func newBroadcastDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a broadcast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := confirmDelete("broadcast "+args[0], yes)
			if err != nil || !ok {
				return err
			}
			if err := console.broadcasts.Delete(cmd.Context(), id); err != nil {
				return err
			}
			success(fmt.Sprintf("Deleted broadcast %d", id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return withLevel(cmd, guard.Admin)
}

func newBroadcastMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <id>...",
		Short: "Mark broadcasts as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				if err := console.broadcasts.MarkRead(cmd.Context(), id); err != nil {
					return err
				}
			}
			success(fmt.Sprintf("Marked %d broadcast(s) as read", len(args)))
			return nil
		},
	}
}
