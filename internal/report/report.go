// Package report renders analysis batches as JSON, YAML or a terminal table.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ticket-insights/internal/insights"
	"ticket-insights/internal/pipeline"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat accepts json, yaml (or yml) and table, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "table":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml or table)", s)
	}
}

var (
	highColor   = color.New(color.FgRed, color.Bold)
	mediumColor = color.New(color.FgYellow)
	lowColor    = color.New(color.FgGreen)
	errorColor  = color.New(color.FgHiBlack)
)

// Write renders batch to w in the given format.
func Write(w io.Writer, batch *pipeline.Batch, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, batch)
	case FormatYAML:
		return writeYAML(w, batch)
	case FormatTable:
		return writeTable(w, batch)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML goes through JSON first so the YAML keys match the JSON field names.
func writeYAML(w io.Writer, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(buf.Bytes(), &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func writeTable(w io.Writer, batch *pipeline.Batch) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Key", "Status", "Risk", "Score", "Activity", "Quality", "Lead (d)", "Tags"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, r := range batch.Results {
		if r.Insights == nil {
			data = append(data, []string{r.Key, errorColor.Sprint("error"), "", "", "", "", "", r.Error})
			continue
		}
		in := r.Insights
		status := ""
		if r.Summary != nil {
			status = r.Summary.Status
		}
		data = append(data, []string{
			r.Key,
			status,
			RiskLabel(in.Risk.OverallRisk),
			strconv.Itoa(in.Risk.OverallScore),
			strconv.FormatFloat(in.Activity.ActivityScore, 'f', 1, 64),
			strconv.Itoa(in.Quality.DescriptionQuality),
			leadDays(in.CycleTime.LeadTime),
			strings.Join(in.Tags, ", "),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := batch.Summary
	_, err := fmt.Fprintf(w, "\n%d analyzed, %d failed | risk high=%d medium=%d low=%d | median lead %.2fd | median activity %.2f\n",
		s.Analyzed, s.Failed,
		s.RiskDistribution[insights.RiskHigh], s.RiskDistribution[insights.RiskMedium], s.RiskDistribution[insights.RiskLow],
		s.MedianLeadTimeDays, s.MedianActivityScore)
	return err
}

// RiskLabel colours a risk level for terminal output.
func RiskLabel(level insights.RiskLevel) string {
	switch level {
	case insights.RiskHigh:
		return highColor.Sprint(string(level))
	case insights.RiskMedium:
		return mediumColor.Sprint(string(level))
	default:
		return lowColor.Sprint(string(level))
	}
}

func leadDays(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return strconv.FormatFloat(float64(*ms)/86_400_000, 'f', 1, 64)
}
