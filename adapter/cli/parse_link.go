package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/linkparser"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/slack"
	"github.com/felixgeelhaar/meetbridge/pkg/config"
	"github.com/spf13/cobra"
)

var (
	linkPattern string
	linkParam   string
)

var parseLinkCmd = &cobra.Command{
	Use:   "parse-link <text>",
	Short: "Show the meeting id the bridge would extract from a message",
	Example: `  meetbridge parse-link "join https://teams.microsoft.com/l/meetup-join/x?meetingId=42"
  meetbridge parse-link --pattern 'https://meet\.example/\S+' --param id "<https://meet.example/j?id=7|standup>"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		pattern := cfg.MeetingLinkPattern
		if linkPattern != "" {
			pattern = linkPattern
		}
		param := cfg.MeetingIDParam
		if linkParam != "" {
			param = linkParam
		}

		parser, err := linkparser.NewQueryParamParser(pattern, param)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		link, err := parser.Parse(slack.UnwrapText(strings.Join(args, " ")))
		if err != nil {
			if errors.Is(err, domain.ErrUnparseableLink) {
				return fmt.Errorf("link found but %q could not be read: %w", param, err)
			}
			return err
		}
		if link == nil {
			fmt.Fprintln(out, "No meeting link found.")
			return nil
		}

		fmt.Fprintf(out, "Meeting ID: %s\n", link.MeetingID)
		fmt.Fprintf(out, "Link:       %s\n", link.URL)
		return nil
	},
}

func init() {
	parseLinkCmd.Flags().StringVar(&linkPattern, "pattern", "", "meeting link regular expression (default MEETING_LINK_PATTERN)")
	parseLinkCmd.Flags().StringVar(&linkParam, "param", "", "query parameter holding the meeting id (default MEETING_ID_PARAM)")
	rootCmd.AddCommand(parseLinkCmd)
}
