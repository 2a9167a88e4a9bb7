package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ticket-insights/internal/extract"
	"ticket-insights/internal/insights"
	"ticket-insights/internal/jira"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func rawTicket(t *testing.T, key string, resolved string) jira.Payload {
	t.Helper()
	resolution := ""
	if resolved != "" {
		resolution = fmt.Sprintf(`,"resolutiondate":%q`, resolved)
	}
	p, err := jira.DecodePayload([]byte(fmt.Sprintf(`{
		"key": %q,
		"fields": {
			"summary": "Ticket %s",
			"created": "2024-03-01T09:00:00.000+0000",
			"updated": "2024-03-30T09:00:00.000+0000",
			"status": {"name": "In Progress"},
			"labels": ["backend"]%s
		}
	}`, key, key, resolution)))
	require.NoError(t, err)
	return p
}

func TestRunKeepsInputOrder(t *testing.T) {
	runner := New(insights.Default(), 3)

	var inputs []Input
	for i := range 10 {
		inputs = append(inputs, Input{Raw: rawTicket(t, fmt.Sprintf("PROJ-%d", i), "")})
	}

	batch, err := runner.Run(context.Background(), inputs, asOf)
	require.NoError(t, err)
	require.Len(t, batch.Results, 10)
	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, asOf, batch.AsOf)

	for i, r := range batch.Results {
		assert.Equal(t, fmt.Sprintf("PROJ-%d", i), r.Key)
		assert.NoError(t, r.Err)
		require.NotNil(t, r.Insights)
		require.NotNil(t, r.Summary)
		assert.Equal(t, asOf, r.Insights.AsOf)
	}
	assert.Equal(t, 10, batch.Summary.Analyzed)
	assert.Zero(t, batch.Summary.Failed)
}

func TestRunIsolatesFailures(t *testing.T) {
	runner := New(insights.Default(), 2)

	missingCreated, err := jira.DecodePayload([]byte(`{"key": "PROJ-9", "fields": {}}`))
	require.NoError(t, err)
	noKey, err := jira.DecodePayload([]byte(`{"fields": {"created": "2024-03-01T09:00:00.000+0000"}}`))
	require.NoError(t, err)
	badChangelog := Input{
		Raw:       rawTicket(t, "PROJ-3", ""),
		Changelog: jira.Payload{"histories": "nope"},
	}

	inputs := []Input{
		{Raw: rawTicket(t, "PROJ-1", "")},
		{Raw: missingCreated},
		{Raw: noKey},
		badChangelog,
	}

	batch, err := runner.Run(context.Background(), inputs, asOf)
	require.NoError(t, err)

	assert.NotNil(t, batch.Results[0].Insights)
	assert.ErrorIs(t, batch.Results[1].Err, extract.ErrMissingCreated)
	assert.Equal(t, "PROJ-9", batch.Results[1].Key)
	assert.ErrorIs(t, batch.Results[2].Err, extract.ErrMissingKey)
	assert.ErrorIs(t, batch.Results[3].Err, extract.ErrMalformedChangelog)
	assert.NotEmpty(t, batch.Results[3].Error)

	assert.Equal(t, 1, batch.Summary.Analyzed)
	assert.Equal(t, 3, batch.Summary.Failed)
}

func TestRunHonoursCancellation(t *testing.T) {
	runner := New(insights.Default(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, []Input{{Raw: rawTicket(t, "PROJ-1", "")}}, asOf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	runner := New(insights.Default(), 0)
	results := []Result{
		runner.Analyze(Input{Raw: rawTicket(t, "PROJ-1", "2024-03-03T09:00:00.000+0000")}, asOf),
		runner.Analyze(Input{Raw: rawTicket(t, "PROJ-2", "2024-03-05T09:00:00.000+0000")}, asOf),
		runner.Analyze(Input{Raw: rawTicket(t, "PROJ-3", "")}, asOf),
		{Key: "PROJ-4", Err: extract.ErrMissingCreated},
	}

	s := Summarize(results)
	assert.Equal(t, 3, s.Analyzed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 3.0, s.MedianLeadTimeDays)
	assert.Equal(t, 3, s.RiskDistribution[insights.RiskLow]+s.RiskDistribution[insights.RiskMedium]+s.RiskDistribution[insights.RiskHigh])
	require.NotEmpty(t, s.TopTags)
	assert.LessOrEqual(t, len(s.TopTags), TopTagLimit)
	for i := 1; i < len(s.TopTags); i++ {
		assert.GreaterOrEqual(t, s.TopTags[i-1].Count, s.TopTags[i].Count)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"odd", []float64{5, 1, 3}, 3},
		{"even", []float64{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := append([]float64(nil), tt.values...)
			assert.Equal(t, tt.want, median(tt.values))
			assert.Equal(t, orig, tt.values)
		})
	}
}
