package extract

import (
	"fmt"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"

	"github.com/rs/zerolog/log"
)

// ExtractComplete builds the full Details aggregate from a raw issue.
//
// changelog may be nil, in which case an embedded raw.changelog is used.
// A malformed explicit changelog is an error; a malformed embedded one is
// read as no history.
// names maps custom field ids to display names; when nil, the payload's own
// "names" object (expand=names) is used.
func ExtractComplete(raw jira.Payload, changelog jira.Payload, names FieldNames) (*ticket.Details, error) {
	meta, err := ExtractMetadata(raw)
	if err != nil {
		return nil, err
	}

	var history []ticket.ChangeHistoryEntry
	if changelog != nil {
		history, err = ExtractChangeHistory(changelog)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", meta.Key, err)
		}
	} else {
		history = embeddedHistory(meta.Key, raw)
	}

	if names == nil {
		names = payloadNames(raw)
	}

	return &ticket.Details{
		Metadata:      meta,
		Comments:      ExtractComments(raw),
		Worklogs:      ExtractWorklogs(raw),
		LinkedIssues:  ExtractLinkedIssues(raw),
		ChangeHistory: history,
		Sprints:       ExtractSprints(raw, names),
		Epic:          ExtractEpic(raw, names),
		CustomFields:  ExtractCustomFields(raw, names),
		Attachments:   ExtractAttachments(raw),
		TimeTracking:  ExtractTimeTracking(raw),
		StoryPoints:   ExtractStoryPoints(raw, names),
		DueDate:       ExtractDueDate(raw),
	}, nil
}

// ExtractIssue is ExtractComplete for an issue fetched through jira.Client.
func ExtractIssue(issue jira.Issue) (*ticket.Details, error) {
	return ExtractComplete(issue.Payload, issue.Changelog, FieldNames(issue.Names))
}

func embeddedHistory(key string, raw jira.Payload) []ticket.ChangeHistoryEntry {
	if !raw.Has("changelog") {
		return []ticket.ChangeHistoryEntry{}
	}
	history, err := ExtractChangeHistory(raw.Map("changelog"))
	if err != nil {
		log.Trace().Str("key", key).Err(err).Msg("Ignoring embedded changelog")
		return []ticket.ChangeHistoryEntry{}
	}
	return history
}

func payloadNames(raw jira.Payload) FieldNames {
	m := raw.Map("names")
	if len(m) == 0 {
		return nil
	}
	names := make(FieldNames, len(m))
	for id := range m {
		names[id] = m.String(id)
	}
	return names
}
