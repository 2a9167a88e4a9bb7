package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ticket-insights/internal/insights"
	"ticket-insights/internal/jira"
	"ticket-insights/internal/pipeline"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	issues map[string]jira.Issue
	jql    string
}

func (f *fakeClient) GetIssue(_ context.Context, key string) (*jira.Issue, error) {
	issue, ok := f.issues[key]
	if !ok {
		return nil, errors.New("issue does not exist")
	}
	return &issue, nil
}

func (f *fakeClient) SearchIssues(_ context.Context, jql string, maxResults int) ([]jira.Issue, error) {
	f.jql = jql
	var out []jira.Issue
	for _, key := range []string{"PROJ-1", "PROJ-2"} {
		if issue, ok := f.issues[key]; ok && len(out) < maxResults {
			out = append(out, issue)
		}
	}
	return out, nil
}

func rawIssue(key string) map[string]any {
	return map[string]any{
		"key": key,
		"fields": map[string]any{
			"summary":     "Export " + key,
			"created":     "2024-03-01T09:00:00.000+0000",
			"status":      map[string]any{"name": "In Progress"},
			"description": "Acceptance Criteria: it exports. Test: run the export.",
		},
	}
}

func connect(t *testing.T, client jira.Client) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	s := NewServer(client, pipeline.New(insights.Default(), 2))
	s.now = func() time.Time { return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) }

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err := s.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	c := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := c.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, res.IsError
}

func TestListTools(t *testing.T) {
	session := connect(t, nil)
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_ticket", "analyze_payload", "analyze_query", "get_thresholds"}, names)
}

func TestAnalyzePayload(t *testing.T) {
	session := connect(t, nil)

	text, isErr := callText(t, session, "analyze_payload", map[string]any{
		"issue": rawIssue("PROJ-7"),
		"as_of": "2024-03-02T09:00:00Z",
	})
	require.False(t, isErr, text)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, "PROJ-7", res.Key)
	require.NotNil(t, res.Insights)
	assert.True(t, res.Insights.Quality.HasAcceptanceCriteria)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), res.Insights.AsOf.UTC())
	assert.Nil(t, res.Details, "details are opt-in")
}

func TestAnalyzePayloadReportsExtractionErrors(t *testing.T) {
	session := connect(t, nil)

	text, isErr := callText(t, session, "analyze_payload", map[string]any{
		"issue": map[string]any{"key": "PROJ-8", "fields": map[string]any{}},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "PROJ-8")
}

func TestAnalyzeTicket(t *testing.T) {
	client := &fakeClient{issues: map[string]jira.Issue{
		"PROJ-1": {Key: "PROJ-1", Payload: rawIssue("PROJ-1")},
	}}
	session := connect(t, client)

	text, isErr := callText(t, session, "analyze_ticket", map[string]any{"key": "PROJ-1", "include_details": true})
	require.False(t, isErr, text)
	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.NotNil(t, res.Details)
	assert.Equal(t, "Export PROJ-1", res.Details.Metadata.Title)

	text, isErr = callText(t, session, "analyze_ticket", map[string]any{"key": "NOPE-1"})
	assert.True(t, isErr)
	assert.Contains(t, text, "NOPE-1")
}

func TestAnalyzeTicketWithoutTracker(t *testing.T) {
	session := connect(t, nil)
	text, isErr := callText(t, session, "analyze_ticket", map[string]any{"key": "PROJ-1"})
	assert.True(t, isErr)
	assert.Contains(t, text, "JIRA_URL")
}

func TestAnalyzeQuery(t *testing.T) {
	client := &fakeClient{issues: map[string]jira.Issue{
		"PROJ-1": {Key: "PROJ-1", Payload: rawIssue("PROJ-1")},
		"PROJ-2": {Key: "PROJ-2", Payload: rawIssue("PROJ-2")},
	}}
	session := connect(t, client)

	text, isErr := callText(t, session, "analyze_query", map[string]any{"jql": "project = PROJ"})
	require.False(t, isErr, text)
	assert.Equal(t, "project = PROJ", client.jql)

	var batch pipeline.Batch
	require.NoError(t, json.Unmarshal([]byte(text), &batch))
	require.Len(t, batch.Results, 2)
	assert.Equal(t, 2, batch.Summary.Analyzed)
	assert.NotEmpty(t, batch.RunID)
	for _, r := range batch.Results {
		assert.Nil(t, r.Details)
	}
}

func TestGetThresholds(t *testing.T) {
	session := connect(t, nil)
	text, isErr := callText(t, session, "get_thresholds", map[string]any{})
	require.False(t, isErr, text)

	var th insights.Thresholds
	require.NoError(t, json.Unmarshal([]byte(text), &th))
	assert.Equal(t, insights.DefaultThresholds().Risk.Overall, th.Risk.Overall)
}

func TestInvalidAsOf(t *testing.T) {
	session := connect(t, nil)
	text, isErr := callText(t, session, "analyze_payload", map[string]any{
		"issue": rawIssue("PROJ-7"),
		"as_of": "yesterday",
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "RFC3339")
}

func TestAsOfAcceptsDate(t *testing.T) {
	session := connect(t, nil)
	text, isErr := callText(t, session, "analyze_payload", map[string]any{
		"issue": rawIssue("PROJ-7"),
		"as_of": "2024-03-05",
	})
	require.False(t, isErr, text)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.NotNil(t, res.Insights)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), res.Insights.AsOf.UTC())
}
