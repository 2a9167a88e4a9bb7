package extract

import (
	"regexp"
	"strings"

	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"

	"github.com/rs/zerolog/log"
)

var (
	sprintIDPattern    = regexp.MustCompile(`(?:^|[\[,;])\s*id=(\d+)`)
	sprintNamePattern  = regexp.MustCompile(`(?:^|[\[,;])\s*name=([^,;\]]*)`)
	sprintStatePattern = regexp.MustCompile(`(?:^|[\[,;])\s*state=([^,;\]]*)`)
	sprintGoalPattern  = regexp.MustCompile(`(?:^|[\[,;])\s*goal=([^,;\]]*)`)
	sprintStartPattern = regexp.MustCompile(`(?:^|[\[,;])\s*startDate=([^,;\]]*)`)
	sprintEndPattern   = regexp.MustCompile(`(?:^|[\[,;])\s*endDate=([^,;\]]*)`)
)

// ExtractSprints reads sprint memberships from the sprint custom field. The
// field holds either structured sprint objects or legacy descriptor strings
// such as "...Sprint@1a2b[id=12,rapidViewId=3,state=CLOSED,name=Sprint 7,...]".
// Entries that cannot be parsed are skipped.
func ExtractSprints(raw jira.Payload, names FieldNames) []ticket.SprintInfo {
	f := fieldsOf(raw)

	for _, id := range names.Resolve(sprintNames, sprintFields) {
		values := asList(f.Get(id))
		if len(values) == 0 {
			continue
		}

		sprints := make([]ticket.SprintInfo, 0, len(values))
		for _, v := range values {
			var (
				sprint ticket.SprintInfo
				ok     bool
			)
			switch val := v.(type) {
			case string:
				sprint, ok = ParseSprintDescriptor(val)
			case map[string]any:
				sprint, ok = sprintFromObject(jira.Payload(val))
			case jira.Payload:
				sprint, ok = sprintFromObject(val)
			}
			if !ok {
				log.Trace().Str("field", id).Interface("value", v).Msg("Skipping unparseable sprint entry")
				continue
			}
			sprints = append(sprints, sprint)
		}
		return sprints
	}

	return []ticket.SprintInfo{}
}

// ParseSprintDescriptor parses one legacy sprint descriptor string. It
// reports false when the id or name cannot be found.
func ParseSprintDescriptor(s string) (ticket.SprintInfo, bool) {
	body := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		body = s[i:]
	}

	id := submatch(sprintIDPattern, body)
	name := submatch(sprintNamePattern, body)
	if id == "" || name == "" {
		return ticket.SprintInfo{}, false
	}

	sprint := ticket.SprintInfo{
		ID:    id,
		Name:  name,
		State: strings.ToLower(submatch(sprintStatePattern, body)),
		Goal:  submatch(sprintGoalPattern, body),
	}
	if t, ok := jira.ParseTime(submatch(sprintStartPattern, body)); ok {
		sprint.StartDate = &t
	}
	if t, ok := jira.ParseTime(submatch(sprintEndPattern, body)); ok {
		sprint.EndDate = &t
	}
	return sprint, true
}

func sprintFromObject(p jira.Payload) (ticket.SprintInfo, bool) {
	id := p.String("id")
	name := p.String("name")
	if id == "" || name == "" {
		return ticket.SprintInfo{}, false
	}
	return ticket.SprintInfo{
		ID:        id,
		Name:      name,
		State:     strings.ToLower(p.String("state")),
		Goal:      p.String("goal"),
		StartDate: p.TimePtr("startDate"),
		EndDate:   p.TimePtr("endDate"),
	}, true
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	v := strings.TrimSpace(m[1])
	if v == "<null>" {
		return ""
	}
	return v
}

// asList wraps a single value so fields configured as single-select behave
// like multi-value ones.
func asList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}
