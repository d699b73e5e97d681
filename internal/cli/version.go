package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/guard"
	"github.com/morrisclay/cds-console/pkg/version"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Server  string `json:"server,omitempty"`
	Latest  string `json:"latest,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show client and server versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := versionInfo{Version: version.Version, Commit: version.Commit, Date: version.Date}

			if sv, err := console.client.Version(cmd.Context()); err == nil {
				v.Server = sv.Version
			} else {
				console.logger.Debug().Err(err).Msg("server version unavailable")
			}

			if check {
				latest, err := version.CheckLatest(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to check for updates: %w", err)
				}
				v.Latest = latest
			}

			if err := outputOne(v, [][2]string{
				{"Version", v.Version},
				{"Commit", v.Commit},
				{"Built", v.Date},
				{"Server", v.Server},
			}); err != nil {
				return err
			}
			if check && console.format == formatTable {
				if version.IsOutdated(v.Version, v.Latest) {
					warn(fmt.Sprintf("cdsconsole %s is available", v.Latest))
				} else {
					success("cdsconsole is up to date")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check for a newer release")
	return withLevel(cmd, guard.Public)
}
