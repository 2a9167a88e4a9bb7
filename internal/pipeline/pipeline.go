// Package pipeline runs extraction and analysis over batches of raw tickets.
//
// Tickets are independent, so a batch fans out over a bounded number of
// workers. A ticket that fails to extract is reported in its Result and never
// aborts the rest of the batch.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"ticket-insights/internal/extract"
	"ticket-insights/internal/insights"
	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Input is one raw ticket as handed to the extractor.
type Input struct {
	Raw       jira.Payload
	Changelog jira.Payload
	Names     extract.FieldNames
}

// FromIssue adapts an issue fetched through jira.Client.
func FromIssue(issue jira.Issue) Input {
	return Input{Raw: issue.Payload, Changelog: issue.Changelog, Names: extract.FieldNames(issue.Names)}
}

// Result is the outcome for one ticket. Exactly one of Insights or Err is set.
type Result struct {
	Key      string                   `json:"key"`
	Summary  *ticket.Summary          `json:"summary,omitempty"`
	Details  *ticket.Details          `json:"details,omitempty"`
	Insights *insights.TicketInsights `json:"insights,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Err      error                    `json:"-"`
}

// Batch is the outcome of one Run. Results keep the order of the inputs.
type Batch struct {
	RunID   string       `json:"runId"`
	AsOf    time.Time    `json:"asOf"`
	Results []Result     `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// Runner couples an Analyzer with a worker limit.
type Runner struct {
	analyzer *insights.Analyzer
	workers  int
}

// New returns a Runner. workers <= 0 means one worker per CPU.
func New(a *insights.Analyzer, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{analyzer: a, workers: workers}
}

// Analyzer returns the analyzer the runner applies.
func (r *Runner) Analyzer() *insights.Analyzer {
	return r.analyzer
}

// Analyze extracts and analyzes a single ticket as of now.
func (r *Runner) Analyze(in Input, now time.Time) Result {
	d, err := extract.ExtractComplete(in.Raw, in.Changelog, in.Names)
	if err != nil {
		key := in.Raw.StringOr(in.Raw.String("id"), "key")
		return Result{Key: key, Err: err, Error: err.Error()}
	}

	summary := extract.GenerateSummary(d)
	return Result{
		Key:      d.Metadata.Key,
		Summary:  &summary,
		Details:  d,
		Insights: r.analyzer.AnalyzeTicket(d, now),
	}
}

// Run analyzes every input as of now. Only cancellation of ctx fails the
// batch; per-ticket failures are carried in the results.
func (r *Runner) Run(ctx context.Context, inputs []Input, now time.Time) (*Batch, error) {
	batch := &Batch{
		RunID:   uuid.NewString(),
		AsOf:    now,
		Results: make([]Result, len(inputs)),
	}
	logger := log.With().Str("run_id", batch.RunID).Logger()
	logger.Info().Int("tickets", len(inputs)).Int("workers", r.workers).Msg("Starting analysis run")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each worker owns its own index.
			batch.Results[i] = r.Analyze(in, now)
			if err := batch.Results[i].Err; err != nil {
				logger.Warn().Err(err).Str("key", batch.Results[i].Key).Msg("Skipping ticket")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis run %s: %w", batch.RunID, err)
	}

	batch.Summary = Summarize(batch.Results)
	logger.Info().
		Int("analyzed", batch.Summary.Analyzed).
		Int("failed", batch.Summary.Failed).
		Msg("Analysis run complete")
	return batch, nil
}
