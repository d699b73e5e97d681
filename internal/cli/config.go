package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morrisclay/cds-console/internal/config"
	"github.com/morrisclay/cds-console/internal/event"
	"github.com/morrisclay/cds-console/internal/guard"
)

func newConfigCmd() *cobra.Command {
	var host, outputFormat, logLevel, transport, lang string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or update console configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := cmd.Flags().Changed
			if !set("set-host") && !set("set-output") && !set("set-log-level") && !set("set-event-transport") && !set("set-language") {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				return outputOne(cfg, [][2]string{
					{"default_host", cfg.DefaultHost},
					{"output_format", cfg.OutputFormat},
					{"log_level", cfg.LogLevel},
					{"event_transport", cfg.EventTransport},
					{"language", cfg.Language},
				})
			}

			if outputFormat != "" && !validFormat(outputFormat) {
				return fmt.Errorf("output format must be 'table', 'json' or 'yaml'")
			}
			if transport != "" && transport != event.TransportSSE && transport != event.TransportWebSocket {
				return fmt.Errorf("event transport must be %q or %q", event.TransportSSE, event.TransportWebSocket)
			}

			err := config.Update(func(cfg *config.Config) {
				if host != "" {
					cfg.DefaultHost = host
				}
				if outputFormat != "" {
					cfg.OutputFormat = outputFormat
				}
				if logLevel != "" {
					cfg.LogLevel = logLevel
				}
				if transport != "" {
					cfg.EventTransport = transport
				}
				if lang != "" {
					cfg.Language = lang
				}
			})
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			success("Configuration updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "set-host", "", "Set default host")
	cmd.Flags().StringVar(&outputFormat, "set-output", "", "Set output format (table, json, yaml)")
	cmd.Flags().StringVar(&logLevel, "set-log-level", "", "Set log level")
	cmd.Flags().StringVar(&transport, "set-event-transport", "", "Set push channel transport (sse, websocket)")
	cmd.Flags().StringVar(&lang, "set-language", "", "Set notification language (en, fr)")

	return withLevel(cmd, guard.Public)
}
