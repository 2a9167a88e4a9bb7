package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ticket-insights/internal/extract"
	"ticket-insights/internal/jira"
	"ticket-insights/internal/pipeline"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	changelogFile  string
	namesFile      string
	asOfValue      string
	includeDetails bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|->",
	Short: "Analyze issues saved as JSON",
	Long: `Reads a single issue, an array of issues or a search response from a file
(or stdin when the argument is "-") and prints the insights for every issue.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		issues, err := jira.DecodeIssues(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}

		var (
			changelog jira.Payload
			names     extract.FieldNames
		)
		if changelogFile != "" {
			raw, err := os.ReadFile(changelogFile)
			if err != nil {
				return err
			}
			if changelog, err = jira.DecodePayload(raw); err != nil {
				return fmt.Errorf("decode %s: %w", changelogFile, err)
			}
			if len(issues) > 1 {
				log.Warn().Int("issues", len(issues)).Msg("--changelog applies to the first issue only")
			}
		}
		if namesFile != "" {
			raw, err := os.ReadFile(namesFile)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &names); err != nil {
				return fmt.Errorf("decode %s: %w", namesFile, err)
			}
		}

		asOf, err := parseAsOf(asOfValue)
		if err != nil {
			return err
		}

		inputs := make([]pipeline.Input, 0, len(issues))
		for i, issue := range issues {
			in := pipeline.FromIssue(issue)
			if i == 0 && changelog != nil {
				in.Changelog = changelog
			}
			if names != nil {
				in.Names = names
			}
			inputs = append(inputs, in)
		}

		log.Debug().Int("issues", len(inputs)).Str("source", args[0]).Msg("Analyzing saved issues")
		return render(cmd, inputs, asOf, includeDetails)
	},
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func init() {
	analyzeCmd.Flags().StringVar(&changelogFile, "changelog", "", "changelog JSON to use instead of the embedded one")
	analyzeCmd.Flags().StringVar(&namesFile, "names", "", "JSON object mapping custom field ids to display names")
	addRunFlags(analyzeCmd)
}

// addRunFlags registers the flags shared by every analyzing command.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&asOfValue, "as-of", "", "reference time (RFC3339 or YYYY-MM-DD), default now")
	cmd.Flags().BoolVar(&includeDetails, "include-details", false, "include the extracted ticket details in the output")
}
