package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-insights/internal/config"
	"ticket-insights/internal/insights"
	"ticket-insights/internal/jira"
	"ticket-insights/internal/logging"
	"ticket-insights/internal/pipeline"
	"ticket-insights/internal/report"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	output  string
	workers int

	cfg    *config.AppConfig
	runner *pipeline.Runner
)

var rootCmd = &cobra.Command{
	Use:   "ticket-insights",
	Short: "Ticket Insights extracts and analyzes Jira work items",
	Long: `Normalizes raw Jira issues (fields, changelog, comments, worklogs, links, sprints)
and derives workflow timings, activity, collaboration, quality and risk insights
together with recommendations and tags. Runs as a CLI or as an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		analyzer, err := insights.New(cfg.Thresholds, insights.WithLocation(cfg.Location))
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}

		n := cfg.Workers
		if cmd.Flags().Changed("workers") {
			n = workers
		}
		runner = pipeline.New(analyzer, n)

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("timezone", cfg.Location.String()).
			Msg("Ticket Insights starting")
		return nil
	},
}

// Execute runs the root command; ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", string(report.FormatTable), "output format: table, json or yaml")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent tickets (default INSIGHTS_WORKERS or one per CPU)")

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
	rootCmd.AddCommand(analyzeCmd, fetchCmd, queryCmd, serveCmd)
}

// trackerClient builds the Jira client on first use so offline commands
// work without JIRA_URL.
func trackerClient() (jira.Client, error) {
	if cfg.Jira.BaseURL == "" {
		return nil, errors.New("JIRA_URL is not configured")
	}
	return jira.NewClient(cfg.Jira)
}

// render runs inputs through the pipeline and writes the report.
func render(cmd *cobra.Command, inputs []pipeline.Input, asOf time.Time, includeDetails bool) error {
	format, err := report.ParseFormat(output)
	if err != nil {
		return err
	}

	batch, err := runner.Run(cmd.Context(), inputs, asOf)
	if err != nil {
		return err
	}
	if !includeDetails {
		for i := range batch.Results {
			batch.Results[i].Details = nil
		}
	}
	return report.Write(cmd.OutOrStdout(), batch, format)
}

// parseAsOf returns the reference time for a run: now when value is empty.
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	t, ok := jira.ParseTime(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: want RFC3339 or YYYY-MM-DD", value)
	}
	return t, nil
}
