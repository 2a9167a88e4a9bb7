package commands

import (
	"fmt"

	"ticket-insights/internal/pipeline"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var maxResults int

var fetchCmd = &cobra.Command{
	Use:   "fetch KEY...",
	Short: "Fetch issues from Jira and analyze them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := trackerClient()
		if err != nil {
			return err
		}
		asOf, err := parseAsOf(asOfValue)
		if err != nil {
			return err
		}

		inputs := make([]pipeline.Input, 0, len(args))
		for _, key := range args {
			issue, err := client.GetIssue(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", key, err)
			}
			inputs = append(inputs, pipeline.FromIssue(*issue))
		}
		return render(cmd, inputs, asOf, includeDetails)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query JQL",
	Short: "Analyze every issue matching a JQL query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := trackerClient()
		if err != nil {
			return err
		}
		asOf, err := parseAsOf(asOfValue)
		if err != nil {
			return err
		}

		limit := cfg.MaxResults
		if cmd.Flags().Changed("max") {
			limit = maxResults
		}
		issues, err := client.SearchIssues(cmd.Context(), args[0], limit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		log.Info().Str("jql", args[0]).Int("issues", len(issues)).Msg("Fetched query results")

		inputs := make([]pipeline.Input, 0, len(issues))
		for _, issue := range issues {
			inputs = append(inputs, pipeline.FromIssue(issue))
		}
		return render(cmd, inputs, asOf, includeDetails)
	},
}

func init() {
	addRunFlags(fetchCmd)
	addRunFlags(queryCmd)
	queryCmd.Flags().IntVar(&maxResults, "max", 0, "maximum issues to analyze (default JIRA_MAX_RESULTS, 0 for all)")
}
