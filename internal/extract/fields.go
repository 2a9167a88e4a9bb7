package extract

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"
)

const customFieldPrefix = "customfield_"

// ExtractEpic returns the epic reference: a parent of issue type Epic, the
// agile "epic" object, or the Epic Link custom field, in that order.
func ExtractEpic(raw jira.Payload, names FieldNames) *ticket.EpicRef {
	f := fieldsOf(raw)

	if parent := f.Map("parent"); parent.String("key") != "" &&
		strings.EqualFold(parent.String("fields", "issuetype", "name"), "epic") {
		return &ticket.EpicRef{
			Key:     parent.String("key"),
			Summary: parent.String("fields", "summary"),
			Status:  parent.String("fields", "status", "name"),
		}
	}

	if epic := f.Map("epic"); epic.String("key") != "" {
		return &ticket.EpicRef{
			Key:     epic.String("key"),
			Summary: epic.StringOr(epic.String("name"), "summary"),
		}
	}

	for _, id := range names.Resolve(epicLinkNames, epicLinkFields) {
		if key := f.String(id); key != "" {
			return &ticket.EpicRef{Key: key}
		}
	}

	return nil
}

// ExtractCustomFields collects every populated customfield_* value, ordered by
// id, with a display name from names and an inferred value type.
func ExtractCustomFields(raw jira.Payload, names FieldNames) []ticket.CustomField {
	f := fieldsOf(raw)

	ids := make([]string, 0)
	for id, v := range f {
		if strings.HasPrefix(id, customFieldPrefix) && v != nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	fields := make([]ticket.CustomField, 0, len(ids))
	for _, id := range ids {
		v := f[id]
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if l, ok := v.([]any); ok && len(l) == 0 {
			continue
		}
		kind := InferFieldType(v)
		fields = append(fields, ticket.CustomField{
			ID:      id,
			Name:    names.Name(id),
			Value:   v,
			Type:    kind,
			Display: displayValue(v, kind),
		})
	}
	return fields
}

// InferFieldType classifies a custom field value by its shape.
func InferFieldType(v any) string {
	switch val := v.(type) {
	case []any:
		return ticket.FieldArray
	case map[string]any:
		return objectType(jira.Payload(val))
	case jira.Payload:
		return objectType(val)
	case bool:
		return ticket.FieldBoolean
	case float64, int, int64, json.Number:
		return ticket.FieldNumber
	default:
		return ticket.FieldString
	}
}

func objectType(p jira.Payload) string {
	switch {
	case p.Has("accountId"), p.Has("emailAddress"), p.Has("displayName") && p.Has("active"):
		return ticket.FieldUser
	case p.Has("value"):
		return ticket.FieldOption
	default:
		return ticket.FieldObject
	}
}

func displayValue(v any, kind string) string {
	switch kind {
	case ticket.FieldUser:
		return authorOf(toPayload(v)).DisplayName
	case ticket.FieldOption:
		p := toPayload(v)
		if child := p.String("child", "value"); child != "" {
			return p.String("value") + " / " + child
		}
		return p.String("value")
	case ticket.FieldArray:
		items := v.([]any)
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s := displayValue(item, InferFieldType(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case ticket.FieldObject:
		p := toPayload(v)
		for _, key := range []string{"name", "value", "key", "displayName"} {
			if s := p.String(key); s != "" {
				return s
			}
		}
		out, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(out)
	default:
		if s, ok := v.(string); ok && strings.Contains(s, "Sprint@") {
			if sprint, ok := ParseSprintDescriptor(s); ok {
				return sprint.Name
			}
		}
		return jira.Stringify(v)
	}
}

func toPayload(v any) jira.Payload {
	switch val := v.(type) {
	case map[string]any:
		return jira.Payload(val)
	case jira.Payload:
		return val
	}
	return jira.Payload{}
}

// ExtractAttachments maps fields.attachment.
func ExtractAttachments(raw jira.Payload) []ticket.Attachment {
	items := fieldsOf(raw).Maps("attachment")
	attachments := make([]ticket.Attachment, 0, len(items))
	for _, a := range items {
		created, _ := a.Time("created")
		size, _ := a.Int64("size")
		attachments = append(attachments, ticket.Attachment{
			ID:       a.String("id"),
			Filename: a.StringOr(Unknown, "filename"),
			Size:     size,
			MimeType: a.StringOr("application/octet-stream", "mimeType"),
			Author:   authorOf(a.Map("author")),
			Created:  created,
			URL:      a.String("content"),
		})
	}
	return attachments
}

// ExtractTimeTracking reads the timetracking object, falling back to the flat
// time fields and finally to the worklog total for time spent. Nil when the
// payload carries no time information at all.
func ExtractTimeTracking(raw jira.Payload) *ticket.TimeTracking {
	f := fieldsOf(raw)
	tt := f.Map("timetracking")

	tracking := ticket.TimeTracking{
		OriginalEstimate:  tt.String("originalEstimate"),
		RemainingEstimate: tt.String("remainingEstimate"),
		TimeSpent:         tt.String("timeSpent"),
	}
	tracking.OriginalEstimateSeconds = firstInt(tt, f, "originalEstimateSeconds", "timeoriginalestimate")
	tracking.RemainingEstimateSeconds = firstInt(tt, f, "remainingEstimateSeconds", "timeestimate")
	tracking.TimeSpentSeconds = firstInt(tt, f, "timeSpentSeconds", "timespent")

	if tracking.TimeSpentSeconds == 0 {
		for _, w := range f.Maps("worklog", "worklogs") {
			s, _ := w.Int64("timeSpentSeconds")
			tracking.TimeSpentSeconds += s
		}
	}

	if tracking == (ticket.TimeTracking{}) {
		return nil
	}
	return &tracking
}

func firstInt(primary, fallback jira.Payload, primaryKey, fallbackKey string) int64 {
	if v, ok := primary.Int64(primaryKey); ok {
		return v
	}
	v, _ := fallback.Int64(fallbackKey)
	return v
}

// ExtractStoryPoints returns the story-point estimate, if any.
func ExtractStoryPoints(raw jira.Payload, names FieldNames) *float64 {
	f := fieldsOf(raw)
	for _, id := range names.Resolve(storyPointNames, storyPointFields) {
		if v, ok := f.Float(id); ok {
			return &v
		}
	}
	return nil
}

// ExtractDueDate returns fields.duedate, if set.
func ExtractDueDate(raw jira.Payload) *time.Time {
	return fieldsOf(raw).TimePtr("duedate")
}
