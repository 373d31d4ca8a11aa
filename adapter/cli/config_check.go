package cli

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/meetbridge/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the environment and print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		printConfig(cmd.OutOrStdout(), cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nConfiguration OK")
		return nil
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Environment:       %s\n", cfg.AppEnv)
	fmt.Fprintf(w, "Listen address:    %s\n", cfg.ListenAddr())
	fmt.Fprintf(w, "Chat transport:    %s\n", cfg.ChatTransport())
	fmt.Fprintf(w, "Ops auth token:    %s\n", mask(cfg.OpsAuthToken))
	fmt.Fprintf(w, "Slack bot token:   %s\n", mask(cfg.SlackBotToken))
	fmt.Fprintf(w, "Calendar provider: %s\n", cfg.CalendarProvider)
	switch cfg.CalendarProvider {
	case config.ProviderGraph:
		fmt.Fprintf(w, "  Graph base URL:  %s\n", cfg.GraphBaseURL)
		fmt.Fprintf(w, "  Tenant:          %s\n", orUnset(cfg.MSTenantID))
		fmt.Fprintf(w, "  Client ID:       %s\n", orUnset(cfg.MSClientID))
		fmt.Fprintf(w, "  Client secret:   %s\n", mask(cfg.MSClientSecret))
	case config.ProviderCalDAV:
		fmt.Fprintf(w, "  CalDAV URL:      %s\n", orUnset(cfg.CalDAVURL))
		fmt.Fprintf(w, "  Username:        %s\n", orUnset(cfg.CalDAVUsername))
	}
	fmt.Fprintf(w, "Opt-in reaction:   :%s:\n", cfg.OptInReaction)
	fmt.Fprintf(w, "Marker reaction:   :%s:\n", cfg.MarkerReaction)
	fmt.Fprintf(w, "Profile cache:     %s\n", backend(cfg.RedisURL != "", "redis", "memory"))
	fmt.Fprintf(w, "Event bus:         %s\n", backend(cfg.RabbitMQURL != "", "rabbitmq", "in-process"))
}

func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "…" + secret[len(secret)-2:]
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

func backend(enabled bool, on, off string) string {
	if enabled {
		return on
	}
	return off
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
