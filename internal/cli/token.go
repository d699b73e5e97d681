package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/api"
	"github.com/morrisclay/cds-console/internal/tui"
	"github.com/morrisclay/cds-console/internal/tui/components"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the worker tokens of a group",
	}

	cmd.AddCommand(newTokenListCmd())
	cmd.AddCommand(newTokenCreateCmd())
	cmd.AddCommand(newTokenDeleteCmd())

	return cmd
}

func newTokenListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <group>",
		Short: "List the worker tokens of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := console.tokens.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(tokens) == 0 && console.format == formatTable {
				info("No tokens found")
				return nil
			}

			rows := make([][]string, len(tokens))
			for i, t := range tokens {
				rows[i] = []string{strconv.FormatInt(t.ID, 10), t.Expiration, truncate(t.Description, 40), t.Creator, formatTime(t.Created)}
			}
			return output(tokens, []string{"ID", "EXPIRATION", "DESCRIPTION", "CREATOR", "CREATED"}, rows)
		},
	}
}

var tokenExpirations = []string{api.TokenSession, api.TokenDaily, api.TokenPersistent}

func validExpiration(e string) bool {
	for _, v := range tokenExpirations {
		if v == e {
			return true
		}
	}
	return false
}

func newTokenCreateCmd() *cobra.Command {
	var expiration, description string

	cmd := &cobra.Command{
		Use:   "create [group]",
		Short: "Generate a worker token",
		Long: `Generate a worker token for a group.

Without arguments on a terminal, a wizard asks for the group, the
expiration and a description.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var group string
			switch {
			case len(args) == 1:
				group = args[0]
			case isInputInteractive():
				values, ok, err := runTokenWizard(cmd)
				if err != nil || !ok {
					return err
				}
				group, expiration, description = values[0], values[1], values[2]
			default:
				return fmt.Errorf("group required in non-interactive mode")
			}

			if !validExpiration(expiration) {
				return fmt.Errorf("expiration must be one of %v", tokenExpirations)
			}

			tok, err := console.tokens.Create(cmd.Context(), group, expiration, description)
			if err != nil {
				return err
			}
			if console.format != formatTable {
				return outputOne(tok, nil)
			}

			success(fmt.Sprintf("Created %s token for %s", tok.Expiration, group))
			fmt.Fprintln(console.out)
			fmt.Fprintln(console.out, "  "+tui.WarningStyle.Render(tok.Token))
			fmt.Fprintln(console.out)
			info("The token is only shown once.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&expiration, "expiration", "e", api.TokenSession, "Expiration (session, daily, persistent)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	return cmd
}

func runTokenWizard(cmd *cobra.Command) ([]string, bool, error) {
	groups, err := console.groups.List(cmd.Context())
	if err != nil {
		return nil, false, err
	}
	if len(groups) == 0 {
		return nil, false, fmt.Errorf("no group available")
	}

	groupItems := make([]components.SearchListItem, len(groups))
	for i, g := range groups {
		groupItems[i] = components.NewSearchListItem(g.Name, fmt.Sprintf("%d members", len(g.Members)), g.Name)
	}
	expirationItems := []components.SearchListItem{
		components.NewSearchListItem(api.TokenSession, "Valid while the worker runs", api.TokenSession),
		components.NewSearchListItem(api.TokenDaily, "Expires after 24 hours", api.TokenDaily),
		components.NewSearchListItem(api.TokenPersistent, "Never expires", api.TokenPersistent),
	}

	values, ok, err := components.RunWizard("New worker token", []components.WizardStep{
		components.NewItemSelectStep("Group", "Which group will the workers belong to?", groupItems),
		components.NewItemSelectStep("Expiration", "How long is the token valid?", expirationItems),
		components.NewTextInputStep("Description", "Describe what the token is for:", "optional").Optional(),
	})
	if err != nil || !ok {
		return nil, ok, err
	}

	out := make([]string, len(values))
	for i, v := range values {
		out[i], _ = v.(string)
	}
	return out, true, nil
}

func newTokenDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <group> <id>",
		Aliases: []string{"revoke"},
		Short:   "Revoke a worker token",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			ok, err := confirmDelete("token "+args[1]+" of "+args[0], yes)
			if err != nil || !ok {
				return err
			}
			if err := console.tokens.Delete(cmd.Context(), args[0], id); err != nil {
				return err
			}
			success(fmt.Sprintf("Revoked token %d", id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
