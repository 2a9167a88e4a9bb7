package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/pipeline"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

var errNoTracker = errors.New("no Jira connection configured (set JIRA_URL and credentials)")

func (s *Server) handleAnalyzeTicket(ctx context.Context, _ *mcp.CallToolRequest, args TicketArgs) (*mcp.CallToolResult, any, error) {
	if s.jira == nil {
		return errorResult(errNoTracker), nil, nil
	}
	now, err := s.asOf(args.AsOf)
	if err != nil {
		return errorResult(err), nil, nil
	}

	log.Info().Str("key", args.Key).Msg("analyze_ticket")
	issue, err := s.jira.GetIssue(ctx, args.Key)
	if err != nil {
		return errorResult(fmt.Errorf("fetch %s: %w", args.Key, err)), nil, nil
	}
	return s.single(pipeline.FromIssue(*issue), now, args.IncludeDetails)
}

func (s *Server) handleAnalyzePayload(_ context.Context, _ *mcp.CallToolRequest, args PayloadArgs) (*mcp.CallToolResult, any, error) {
	now, err := s.asOf(args.AsOf)
	if err != nil {
		return errorResult(err), nil, nil
	}

	in := pipeline.Input{Raw: jira.Payload(args.Issue)}
	if args.Changelog != nil {
		in.Changelog = jira.Payload(args.Changelog)
	}
	if args.Names != nil {
		in.Names = args.Names
	}
	return s.single(in, now, args.IncludeDetails)
}

func (s *Server) handleAnalyzeQuery(ctx context.Context, _ *mcp.CallToolRequest, args QueryArgs) (*mcp.CallToolResult, any, error) {
	if s.jira == nil {
		return errorResult(errNoTracker), nil, nil
	}
	now, err := s.asOf(args.AsOf)
	if err != nil {
		return errorResult(err), nil, nil
	}
	limit := args.MaxResults
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	log.Info().Str("jql", args.JQL).Int("max_results", limit).Msg("analyze_query")
	issues, err := s.jira.SearchIssues(ctx, args.JQL, limit)
	if err != nil {
		return errorResult(fmt.Errorf("search: %w", err)), nil, nil
	}

	inputs := make([]pipeline.Input, 0, len(issues))
	for _, issue := range issues {
		inputs = append(inputs, pipeline.FromIssue(issue))
	}
	batch, err := s.runner.Run(ctx, inputs, now)
	if err != nil {
		return errorResult(err), nil, nil
	}
	for i := range batch.Results {
		batch.Results[i].Details = nil
	}
	return textResult(batch)
}

func (s *Server) handleGetThresholds(_ context.Context, _ *mcp.CallToolRequest, _ ThresholdArgs) (*mcp.CallToolResult, any, error) {
	return textResult(s.runner.Analyzer().Thresholds())
}

func (s *Server) single(in pipeline.Input, now time.Time, includeDetails bool) (*mcp.CallToolResult, any, error) {
	res := s.runner.Analyze(in, now)
	if res.Err != nil {
		return errorResult(res.Err), nil, nil
	}
	if !includeDetails {
		res.Details = nil
	}
	return textResult(res)
}

func (s *Server) asOf(value string) (time.Time, error) {
	if value == "" {
		return s.now(), nil
	}
	t, ok := jira.ParseTime(value)
	if !ok {
		return time.Time{}, fmt.Errorf("as_of must be RFC3339 or YYYY-MM-DD, got %q", value)
	}
	return t, nil
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil, nil
}

func errorResult(err error) *mcp.CallToolResult {
	log.Warn().Err(err).Msg("Tool call failed")
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
