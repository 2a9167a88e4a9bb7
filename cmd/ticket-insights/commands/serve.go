package commands

import (
	"ticket-insights/internal/jira"
	"ticket-insights/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as an MCP server on stdio",
	Long: `Serves the analyze_ticket, analyze_query, analyze_payload and get_thresholds tools
over the Model Context Protocol. Without JIRA_URL only analyze_payload and
get_thresholds are usable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var client jira.Client
		if cfg.Jira.BaseURL != "" {
			c, err := jira.NewClient(cfg.Jira)
			if err != nil {
				return err
			}
			client = c
		} else {
			log.Warn().Msg("JIRA_URL not set, serving offline tools only")
		}

		log.Info().Msg("MCP Server starting Stdio loop")
		return mcp.NewServer(client, runner).Serve(cmd.Context())
	},
}
