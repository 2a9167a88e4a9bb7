package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TicketArgs are the arguments of analyze_ticket.
type TicketArgs struct {
	Key            string `json:"key" jsonschema:"issue key, e.g. PROJ-123"`
	AsOf           string `json:"as_of,omitempty" jsonschema:"RFC3339 timestamp or YYYY-MM-DD date to evaluate now-relative metrics against; defaults to the current time"`
	IncludeDetails bool   `json:"include_details,omitempty" jsonschema:"also return the extracted ticket details"`
}

// PayloadArgs are the arguments of analyze_payload.
type PayloadArgs struct {
	Issue          map[string]any    `json:"issue" jsonschema:"raw issue object as returned by the Jira REST API"`
	Changelog      map[string]any    `json:"changelog,omitempty" jsonschema:"changelog object with a histories or values list; defaults to issue.changelog"`
	Names          map[string]string `json:"names,omitempty" jsonschema:"custom field id to display name map; defaults to issue.names"`
	AsOf           string            `json:"as_of,omitempty" jsonschema:"RFC3339 timestamp or YYYY-MM-DD date to evaluate now-relative metrics against; defaults to the current time"`
	IncludeDetails bool              `json:"include_details,omitempty" jsonschema:"also return the extracted ticket details"`
}

// QueryArgs are the arguments of analyze_query.
type QueryArgs struct {
	JQL        string `json:"jql" jsonschema:"JQL selecting the tickets to analyze"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of tickets to analyze (default 50)"`
	AsOf       string `json:"as_of,omitempty" jsonschema:"RFC3339 timestamp or YYYY-MM-DD date to evaluate now-relative metrics against; defaults to the current time"`
}

// ThresholdArgs are the (empty) arguments of get_thresholds.
type ThresholdArgs struct{}

func schemaFor[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}
	return schema
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_ticket",
		Description: "Fetch one Jira issue with its changelog and return cycle-time, activity, collaboration, quality and risk insights with recommendations and tags.",
		InputSchema: schemaFor[TicketArgs](),
	}, s.handleAnalyzeTicket)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_payload",
		Description: "Analyze a raw Jira issue supplied inline, without contacting the tracker.",
		InputSchema: schemaFor[PayloadArgs](),
	}, s.handleAnalyzePayload)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_query",
		Description: "Analyze every issue matched by a JQL query and return per-ticket insights plus a batch summary (risk distribution, median lead time, top tags).",
		InputSchema: schemaFor[QueryArgs](),
	}, s.handleAnalyzeQuery)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_thresholds",
		Description: "Return the scoring thresholds, weights and keywords the analyzer is running with.",
		InputSchema: schemaFor[ThresholdArgs](),
	}, s.handleGetThresholds)
}
