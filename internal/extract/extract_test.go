package extract

import (
	"testing"
	"time"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) jira.Payload {
	t.Helper()
	p, err := jira.DecodePayload([]byte(doc))
	require.NoError(t, err)
	return p
}

const fullIssue = `{
	"id": "10042",
	"key": "PROJ-42",
	"fields": {
		"summary": "Export board as CSV",
		"description": {
			"type": "doc",
			"content": [
				{"type": "paragraph", "content": [{"type": "text", "text": "Acceptance Criteria:"}, {"type": "hardBreak"}, {"type": "text", "text": "CSV downloads"}]},
				{"type": "paragraph", "content": [{"type": "text", "text": "ping "}, {"type": "mention", "attrs": {"text": "@Ann"}}]}
			]
		},
		"status": {"name": "In Review", "statusCategory": {"key": "indeterminate", "name": "In Progress"}},
		"issuetype": {"name": "Story", "subtask": false},
		"priority": {"name": "High"},
		"assignee": {"accountId": "a-1", "displayName": "Ann"},
		"reporter": {"name": "bob", "displayName": "Bob"},
		"created": "2024-03-01T09:00:00.000+0000",
		"updated": "2024-03-05T09:00:00.000+0000",
		"duedate": "2024-03-20",
		"project": {"id": "1", "key": "PROJ", "name": "Project"},
		"labels": ["ux", "backend", "ux"],
		"components": [{"name": "API"}],
		"fixVersions": [{"id": "7", "name": "1.2", "released": false}],
		"comment": {"comments": [
			{"id": "c1", "author": {"accountId": "a-2", "displayName": "Cid"}, "body": "Looks good", "created": "2024-03-02T10:00:00.000+0000"},
			{"id": "c2", "body": "anonymous", "created": "2024-03-02T11:00:00.000+0000"}
		]},
		"worklog": {"worklogs": [
			{"id": "w1", "author": {"accountId": "a-1", "displayName": "Ann"}, "timeSpent": "1h", "timeSpentSeconds": 3600, "started": "2024-03-03T08:00:00.000+0000", "created": "2024-03-03T17:00:00.000+0000"}
		]},
		"issuelinks": [
			{"type": {"name": "Blocks", "inward": "is blocked by", "outward": "blocks"}, "inwardIssue": {"key": "OPS-1", "fields": {"summary": "DB upgrade", "status": {"name": "Open"}}}}
		],
		"attachment": [{"id": "9", "filename": "mock.png", "size": 2048, "created": "2024-03-01T10:00:00.000+0000", "content": "https://jira/att/9"}],
		"timetracking": {"originalEstimate": "1d", "originalEstimateSeconds": 28800},
		"customfield_10016": 5,
		"customfield_10020": [{"id": 3, "name": "Sprint 3", "state": "ACTIVE", "startDate": "2024-03-01T00:00:00.000Z"}],
		"customfield_10099": {"value": "Team A", "child": {"value": "Squad 2"}},
		"customfield_10100": "   ",
		"customfield_10101": []
	},
	"changelog": {"histories": [
		{"id": "h1", "author": {"accountId": "a-1", "displayName": "Ann"}, "created": "2024-03-02T09:00:00.000+0000",
		 "items": [{"field": "status", "fromString": "To Do", "toString": "In Progress"}]}
	]},
	"names": {"customfield_10016": "Story Points", "customfield_10020": "Sprint", "customfield_10099": "Team"}
}`

func TestExtractComplete(t *testing.T) {
	d, err := ExtractComplete(decode(t, fullIssue), nil, nil)
	require.NoError(t, err)

	m := d.Metadata
	assert.Equal(t, "PROJ-42", m.Key)
	assert.Equal(t, "10042", m.ID)
	assert.Equal(t, "Acceptance Criteria:\nCSV downloads\nping @Ann", m.Description)
	assert.Equal(t, ticket.Status{Name: "In Review", CategoryKey: "indeterminate", Category: "In Progress"}, m.Status)
	assert.Equal(t, "High", m.Priority)
	require.NotNil(t, m.Assignee)
	assert.Equal(t, "a-1", m.Assignee.ID())
	require.NotNil(t, m.Reporter)
	assert.Equal(t, "bob", m.Reporter.ID())
	assert.Equal(t, []string{"backend", "ux"}, m.Labels)
	assert.Equal(t, []string{"API"}, m.Components)
	assert.Equal(t, "PROJ", m.Project.Key)
	require.NotNil(t, m.Updated)
	assert.Nil(t, m.Resolved)

	require.Len(t, d.Comments, 2)
	assert.Equal(t, "Cid", d.Comments[0].Author.DisplayName)
	assert.Equal(t, Unknown, d.Comments[1].Author.DisplayName)

	require.Len(t, d.Worklogs, 1)
	assert.True(t, d.Worklogs[0].At().Equal(time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC)))

	require.Len(t, d.LinkedIssues, 1)
	assert.Equal(t, ticket.Inward, d.LinkedIssues[0].Direction)
	assert.Equal(t, Unknown, d.LinkedIssues[0].IssueType)

	require.Len(t, d.ChangeHistory, 1)
	assert.Equal(t, "In Progress", d.ChangeHistory[0].Items[0].ToString)

	require.Len(t, d.Sprints, 1)
	assert.Equal(t, ticket.SprintInfo{ID: "3", Name: "Sprint 3", State: "active", StartDate: d.Sprints[0].StartDate}, d.Sprints[0])
	require.NotNil(t, d.Sprints[0].StartDate)

	require.NotNil(t, d.StoryPoints)
	assert.Equal(t, 5.0, *d.StoryPoints)
	require.NotNil(t, d.DueDate)
	assert.True(t, d.DueDate.Equal(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))

	require.Len(t, d.Attachments, 1)
	assert.Equal(t, "application/octet-stream", d.Attachments[0].MimeType)
	assert.Equal(t, "https://jira/att/9", d.Attachments[0].URL)

	require.NotNil(t, d.TimeTracking)
	assert.Equal(t, int64(28800), d.TimeTracking.OriginalEstimateSeconds)
	assert.Equal(t, int64(3600), d.TimeTracking.TimeSpentSeconds)

	ids := make([]string, 0, len(d.CustomFields))
	for _, cf := range d.CustomFields {
		ids = append(ids, cf.ID)
	}
	assert.Equal(t, []string{"customfield_10016", "customfield_10020", "customfield_10099"}, ids)
	team := d.CustomFields[2]
	assert.Equal(t, "Team", team.Name)
	assert.Equal(t, ticket.FieldOption, team.Type)
	assert.Equal(t, "Team A / Squad 2", team.Display)
}

func TestExtractCompleteIsIdempotent(t *testing.T) {
	raw := decode(t, fullIssue)
	first, err := ExtractComplete(raw, nil, nil)
	require.NoError(t, err)
	second, err := ExtractComplete(raw, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractMinimalPayloadDefaults(t *testing.T) {
	d, err := ExtractComplete(decode(t, `{"key": "PROJ-1", "fields": {"created": "2024-03-01T09:00:00.000+0000"}}`), nil, nil)
	require.NoError(t, err)

	m := d.Metadata
	assert.Equal(t, Unknown, m.Status.Name)
	assert.Equal(t, Unknown, m.IssueType)
	assert.Equal(t, Unknown, m.Priority)
	assert.Nil(t, m.Assignee)
	assert.Empty(t, m.Description)
	assert.NotNil(t, m.Labels)
	assert.Equal(t, "PROJ", m.Project.Key)

	assert.NotNil(t, d.Comments)
	assert.Empty(t, d.Comments)
	assert.Empty(t, d.Worklogs)
	assert.Empty(t, d.LinkedIssues)
	assert.NotNil(t, d.ChangeHistory)
	assert.Empty(t, d.Sprints)
	assert.Nil(t, d.Epic)
	assert.Nil(t, d.StoryPoints)
	assert.Nil(t, d.TimeTracking)
	assert.Nil(t, d.DueDate)

	s := GenerateSummary(d)
	assert.Equal(t, "Unassigned", s.Assignee)
	assert.False(t, s.HasDescription)
	assert.Zero(t, s.StatusChangeCount)
}

func TestExtractRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantKey string
	}{
		{"no key or id", `{"fields": {"created": "2024-03-01T09:00:00.000+0000"}}`, ErrMissingKey, ""},
		{"id only", `{"id": "10001", "fields": {"created": "2024-03-01T09:00:00.000+0000"}}`, nil, "10001"},
		{"no created", `{"key": "PROJ-1", "fields": {}}`, ErrMissingCreated, ""},
		{"garbage created", `{"key": "PROJ-1", "fields": {"created": "soon"}}`, ErrMissingCreated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ExtractMetadata(decode(t, tt.doc))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, meta.Key)
		})
	}
}

func TestExtractLinkedIssuesBothDirections(t *testing.T) {
	raw := decode(t, `{"fields": {"issuelinks": [
		{"type": {"name": "Relates"}, "inwardIssue": {"key": "A-1"}, "outwardIssue": {"key": "B-2"}},
		{"outwardIssue": {"key": "C-3"}},
		{"type": {"name": "Empty"}}
	]}}`)

	links := ExtractLinkedIssues(raw)
	require.Len(t, links, 3)
	assert.Equal(t, "A-1", links[0].Key)
	assert.Equal(t, ticket.Inward, links[0].Direction)
	assert.Equal(t, "B-2", links[1].Key)
	assert.Equal(t, ticket.Outward, links[1].Direction)
	assert.Equal(t, Unknown, links[2].LinkType.Name)
}

func TestExtractChangeHistory(t *testing.T) {
	t.Run("values shape keeps delivered order", func(t *testing.T) {
		entries, err := ExtractChangeHistory(decode(t, `{"values": [
			{"created": "2024-03-03T09:00:00.000+0000", "items": [{"field": "status", "toString": "Done"}]},
			{"created": "2024-03-02T09:00:00.000+0000", "items": [{"field": "assignee", "to": "a-1"}]},
			{"items": [{"field": "status"}]}
		]}`))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Done", entries[0].Items[0].ToString)
		assert.Equal(t, Unknown, entries[1].Author.DisplayName)
	})

	t.Run("nil changelog", func(t *testing.T) {
		entries, err := ExtractChangeHistory(nil)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ExtractChangeHistory(jira.Payload{"histories": map[string]any{"id": "1"}})
		assert.ErrorIs(t, err, ErrMalformedChangelog)
	})

	t.Run("embedded changelog without histories", func(t *testing.T) {
		raw := decode(t, `{
			"key": "P-1",
			"fields": {"created": "2024-03-01T09:00:00.000+0000"},
			"changelog": {"startAt": 0, "maxResults": 0, "total": 0}
		}`)
		d, err := ExtractComplete(raw, nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, d.ChangeHistory)
		assert.Empty(t, d.ChangeHistory)
	})

	t.Run("explicit empty changelog", func(t *testing.T) {
		raw := decode(t, `{"key": "P-1", "fields": {"created": "2024-03-01T09:00:00.000+0000"}}`)
		_, err := ExtractComplete(raw, jira.Payload{}, nil)
		assert.ErrorIs(t, err, ErrMalformedChangelog)
		assert.ErrorContains(t, err, "P-1")
	})

	t.Run("explicit changelog wins over embedded", func(t *testing.T) {
		raw := decode(t, fullIssue)
		changelog := decode(t, `{"histories": []}`)
		d, err := ExtractComplete(raw, changelog, nil)
		require.NoError(t, err)
		assert.Empty(t, d.ChangeHistory)
	})
}

func TestParseSprintDescriptor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ticket.SprintInfo
		ok   bool
	}{
		{
			name: "legacy descriptor",
			in:   "com.atlassian.greenhopper.service.sprint.Sprint@1a2b[id=12,rapidViewId=3,state=CLOSED,name=Sprint 7,goal=<null>,startDate=<null>,endDate=<null>,sequence=12]",
			want: ticket.SprintInfo{ID: "12", Name: "Sprint 7", State: "closed"},
			ok:   true,
		},
		{
			name: "semicolon separated",
			in:   "Sprint@9[id=4;state=ACTIVE;name=Hardening]",
			want: ticket.SprintInfo{ID: "4", Name: "Hardening", State: "active"},
			ok:   true,
		},
		{
			name: "no name",
			in:   "Sprint@1[id=5,state=ACTIVE]",
			ok:   false,
		},
		{
			name: "not a descriptor",
			in:   "Sprint 7",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSprintDescriptor(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractSprintsSkipsUnparseable(t *testing.T) {
	raw := decode(t, `{"fields": {"customfield_10010": [
		"Sprint@1[id=1,state=CLOSED,name=Sprint 1,startDate=2024-01-01T00:00:00.000Z]",
		"garbage",
		{"id": 2, "name": "Sprint 2", "state": "active"},
		{"name": "no id"}
	]}}`)

	sprints := ExtractSprints(raw, nil)
	require.Len(t, sprints, 2)
	assert.Equal(t, "Sprint 1", sprints[0].Name)
	require.NotNil(t, sprints[0].StartDate)
	assert.Equal(t, "2", sprints[1].ID)
}

func TestFieldNamesResolve(t *testing.T) {
	names := FieldNames{"customfield_30000": "story points", "customfield_20000": "Story point estimate", "customfield_1": "Team"}
	got := names.Resolve(storyPointNames, storyPointFields)
	assert.Equal(t, []string{"customfield_20000", "customfield_30000", "customfield_10016", "customfield_10026", "customfield_10002"}, got)

	raw := decode(t, `{"fields": {"customfield_30000": 8, "customfield_10016": 3}}`)
	points := ExtractStoryPoints(raw, names)
	require.NotNil(t, points)
	assert.Equal(t, 8.0, *points)
}

func TestExtractEpic(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		names FieldNames
		want  *ticket.EpicRef
	}{
		{
			name: "parent epic",
			doc:  `{"fields": {"parent": {"key": "EPIC-1", "fields": {"summary": "Reporting", "issuetype": {"name": "Epic"}, "status": {"name": "Open"}}}}}`,
			want: &ticket.EpicRef{Key: "EPIC-1", Summary: "Reporting", Status: "Open"},
		},
		{
			name: "parent story is not an epic",
			doc:  `{"fields": {"parent": {"key": "PROJ-1", "fields": {"issuetype": {"name": "Story"}}}}}`,
		},
		{
			name:  "epic link by name",
			doc:   `{"fields": {"customfield_55555": "EPIC-9"}}`,
			names: FieldNames{"customfield_55555": "Epic Link"},
			want:  &ticket.EpicRef{Key: "EPIC-9"},
		},
		{
			name: "epic link fallback id",
			doc:  `{"fields": {"customfield_10014": "EPIC-3"}}`,
			want: &ticket.EpicRef{Key: "EPIC-3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEpic(decode(t, tt.doc), tt.names))
		})
	}
}

func TestInferFieldType(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{map[string]any{"accountId": "x"}, ticket.FieldUser},
		{map[string]any{"displayName": "X", "active": true}, ticket.FieldUser},
		{map[string]any{"value": "Red"}, ticket.FieldOption},
		{map[string]any{"displayName": "X"}, ticket.FieldObject},
		{[]any{"a"}, ticket.FieldArray},
		{true, ticket.FieldBoolean},
		{3.5, ticket.FieldNumber},
		{"text", ticket.FieldString},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferFieldType(tt.value), "%v", tt.value)
	}
}

func TestTimeTrackingFallbacks(t *testing.T) {
	raw := decode(t, `{"fields": {"timeoriginalestimate": 7200, "worklog": {"worklogs": [{"timeSpentSeconds": 600}, {"timeSpentSeconds": 300}]}}}`)
	tt := ExtractTimeTracking(raw)
	require.NotNil(t, tt)
	assert.Equal(t, int64(7200), tt.OriginalEstimateSeconds)
	assert.Equal(t, int64(900), tt.TimeSpentSeconds)
}

func TestRichText(t *testing.T) {
	assert.Equal(t, "plain", RichText("plain"))
	assert.Equal(t, "", RichText(nil))
	assert.Equal(t, "", RichText(42.0))
	doc := map[string]any{"type": "doc", "content": []any{
		map[string]any{"type": "bulletList", "content": []any{
			map[string]any{"type": "listItem", "content": []any{
				map[string]any{"type": "paragraph", "content": []any{map[string]any{"type": "text", "text": "one"}}},
			}},
			map[string]any{"type": "listItem", "content": []any{
				map[string]any{"type": "paragraph", "content": []any{map[string]any{"type": "text", "text": "two"}}},
			}},
		}},
	}}
	assert.Equal(t, "one\n\ntwo", RichText(doc))
}
