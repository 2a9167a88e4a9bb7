package extract

import (
	"fmt"
	"strings"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"

	"k8s.io/apimachinery/pkg/util/sets"
)

// ExtractMetadata pulls the identity and classification fields of a work item.
func ExtractMetadata(raw jira.Payload) (ticket.Metadata, error) {
	key := raw.StringOr(raw.String("id"), "key")
	if key == "" {
		return ticket.Metadata{}, ErrMissingKey
	}

	f := fieldsOf(raw)

	created, ok := f.Time("created")
	if !ok {
		return ticket.Metadata{}, fmt.Errorf("%s: %w", key, ErrMissingCreated)
	}

	meta := ticket.Metadata{
		Key:         key,
		ID:          raw.String("id"),
		Title:       f.String("summary"),
		Description: RichText(f.Get("description")),
		Status: ticket.Status{
			Name:        f.StringOr(Unknown, "status", "name"),
			CategoryKey: f.String("status", "statusCategory", "key"),
			Category:    f.String("status", "statusCategory", "name"),
		},
		IssueType:      f.StringOr(Unknown, "issuetype", "name"),
		IsSubtask:      f.Bool("issuetype", "subtask"),
		Priority:       f.StringOr(Unknown, "priority", "name"),
		Resolution:     f.String("resolution", "name"),
		Assignee:       personOf(f.Map("assignee")),
		Reporter:       personOf(f.Map("reporter")),
		Created:        created,
		Updated:        f.TimePtr("updated"),
		Resolved:       f.TimePtr("resolutiondate"),
		Project:        projectOf(f.Map("project"), key),
		Labels:         labelsOf(f.Strings("labels")),
		Components:     namesOf(f.Maps("components")),
		FixVersions:    versionsOf(f.Maps("fixVersions")),
		AffectsVersion: versionsOf(f.Maps("versions")),
	}

	return meta, nil
}

func projectOf(p jira.Payload, issueKey string) ticket.ProjectRef {
	ref := ticket.ProjectRef{
		ID:   p.String("id"),
		Key:  p.String("key"),
		Name: p.String("name"),
	}
	if ref.Key == "" {
		if i := strings.IndexByte(issueKey, '-'); i > 0 {
			ref.Key = issueKey[:i]
		}
	}
	if ref.Name == "" {
		ref.Name = ref.Key
	}
	return ref
}

func labelsOf(labels []string) []string {
	if len(labels) == 0 {
		return []string{}
	}
	return sets.List(sets.New(labels...))
}

// RichText returns the plain text of a description or comment body, which the
// tracker delivers either as a string or as an Atlassian Document Format tree.
func RichText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		return RichText(jira.Payload(val))
	case jira.Payload:
		var b strings.Builder
		writeADF(&b, val)
		return strings.TrimSpace(b.String())
	}
	return ""
}

func writeADF(b *strings.Builder, node jira.Payload) {
	switch node.String("type") {
	case "text":
		b.WriteString(node.String("text"))
		return
	case "hardBreak":
		b.WriteByte('\n')
		return
	case "mention":
		b.WriteString(node.String("attrs", "text"))
		return
	}

	for _, child := range node.Maps("content") {
		writeADF(b, child)
	}

	switch node.String("type") {
	case "paragraph", "heading", "listItem", "codeBlock", "blockquote", "tableRow":
		b.WriteByte('\n')
	}
}
