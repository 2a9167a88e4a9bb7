package extract

import (
	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"

	"github.com/rs/zerolog/log"
)

// ExtractChangeHistory maps changelog histories in their delivered order.
// Sorting is left to the analyzer. Both the embedded shape ({histories: [...]})
// and the paginated changelog endpoint shape ({values: [...]}) are accepted.
// A nil changelog yields no entries; any other changelog without a
// histories or values list is ErrMalformedChangelog.
func ExtractChangeHistory(changelog jira.Payload) ([]ticket.ChangeHistoryEntry, error) {
	if changelog == nil {
		return []ticket.ChangeHistoryEntry{}, nil
	}

	var histories []jira.Payload
	switch {
	case isList(changelog.Get("histories")):
		histories = changelog.Maps("histories")
	case isList(changelog.Get("values")):
		histories = changelog.Maps("values")
	default:
		return nil, ErrMalformedChangelog
	}

	entries := make([]ticket.ChangeHistoryEntry, 0, len(histories))
	for _, h := range histories {
		created, ok := h.Time("created")
		if !ok {
			log.Trace().Str("id", h.String("id")).Msg("Skipping history entry without timestamp")
			continue
		}

		items := h.Maps("items")
		changes := make([]ticket.FieldChange, 0, len(items))
		for _, itm := range items {
			changes = append(changes, ticket.FieldChange{
				Field:      itm.String("field"),
				FieldType:  itm.String("fieldtype"),
				From:       itm.String("from"),
				FromString: itm.String("fromString"),
				To:         itm.String("to"),
				ToString:   itm.String("toString"),
			})
		}

		entries = append(entries, ticket.ChangeHistoryEntry{
			ID:      h.String("id"),
			Author:  authorOf(h.Map("author")),
			Created: created,
			Items:   changes,
		})
	}

	return entries, nil
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}
