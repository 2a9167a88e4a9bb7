// Package extract maps raw tracker payloads onto the normalized ticket model.
//
// Every function here is total over partially-populated input: absent
// optional data is replaced by a default, never reported as an error. Only a
// missing key/created timestamp or a changelog that is not shaped like one
// fails, see the Err* values.
package extract

import (
	"errors"
	"slices"
	"strings"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"
)

var (
	// ErrMissingKey is returned when the payload has neither a key nor an id.
	ErrMissingKey = errors.New("payload has no key or id")

	// ErrMissingCreated is returned when the creation timestamp is absent or unparseable.
	ErrMissingCreated = errors.New("payload has no valid created timestamp")

	// ErrMalformedChangelog is returned when a changelog was supplied but holds no history list.
	ErrMalformedChangelog = errors.New("changelog has no histories list")
)

// Unknown is the stand-in for absent names (status, issue type, author, ...).
const Unknown = "Unknown"

// FieldNames maps opaque custom field ids (customfield_10020) to display names (Sprint).
type FieldNames map[string]string

// Name returns the display name of id, or id itself.
func (n FieldNames) Name(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

// Resolve returns the ids to probe for a field: ids whose display name
// matches one of names (case-insensitive), followed by the fallback ids.
func (n FieldNames) Resolve(names []string, fallback []string) []string {
	var ids []string
	seen := make(map[string]bool)
	for id, display := range n {
		for _, want := range names {
			if strings.EqualFold(strings.TrimSpace(display), want) {
				ids = append(ids, id)
				seen[id] = true
				break
			}
		}
	}
	// Deterministic probing order for name matches.
	slices.Sort(ids)
	for _, id := range fallback {
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	return ids
}

// Well-known custom field ids, used when the payload carries no names map.
var (
	storyPointNames  = []string{"Story Points", "Story point estimate"}
	storyPointFields = []string{"customfield_10016", "customfield_10026", "customfield_10002"}

	epicLinkNames  = []string{"Epic Link"}
	epicLinkFields = []string{"customfield_10014", "customfield_10008"}

	sprintNames  = []string{"Sprint"}
	sprintFields = []string{"customfield_10020", "customfield_10010", "customfield_10007"}
)

func fieldsOf(raw jira.Payload) jira.Payload {
	return raw.Map("fields")
}

// personOf maps a user object; nil when the object is absent.
func personOf(p jira.Payload) *ticket.Person {
	if len(p) == 0 {
		return nil
	}
	person := ticket.Person{
		AccountID:   p.String("accountId"),
		Name:        p.StringOr(p.String("key"), "name"),
		DisplayName: p.String("displayName"),
		Email:       p.String("emailAddress"),
	}
	if person.DisplayName == "" {
		person.DisplayName = person.Name
	}
	if person.ID() == "" {
		return nil
	}
	return &person
}

// authorOf is personOf with an Unknown stand-in.
func authorOf(p jira.Payload) ticket.Person {
	if person := personOf(p); person != nil {
		return *person
	}
	return ticket.Person{DisplayName: Unknown}
}

func namesOf(items []jira.Payload) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if name := item.String("name"); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func versionsOf(items []jira.Payload) []ticket.Version {
	out := make([]ticket.Version, 0, len(items))
	for _, item := range items {
		name := item.String("name")
		if name == "" {
			continue
		}
		out = append(out, ticket.Version{
			ID:          item.String("id"),
			Name:        name,
			Released:    item.Bool("released"),
			ReleaseDate: item.TimePtr("releaseDate"),
		})
	}
	return out
}
