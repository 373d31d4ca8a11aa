package cli

import (
	"fmt"

	"github.com/felixgeelhaar/meetbridge/internal/app"
	"github.com/felixgeelhaar/meetbridge/pkg/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge until interrupted",
	Long: `Connect to Slack (Socket Mode when SLACK_APP_TOKEN is set, otherwise the
HTTP Events API on PORT) and enroll users who opt in to tracked meetings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		container, err := app.NewContainer(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer container.Close()

		logger.InfoContext(cmd.Context(), "meetbridge started",
			"addr", cfg.ListenAddr(),
			"transport", cfg.ChatTransport(),
			"version", Version,
		)
		return container.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
