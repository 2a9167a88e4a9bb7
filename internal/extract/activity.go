package extract

import (
	"ticket-insights/internal/jira"
	"ticket-insights/internal/ticket"
)

// ExtractComments maps fields.comment.comments one to one.
func ExtractComments(raw jira.Payload) []ticket.Comment {
	items := fieldsOf(raw).Maps("comment", "comments")
	comments := make([]ticket.Comment, 0, len(items))
	for _, c := range items {
		created, _ := c.Time("created")
		comments = append(comments, ticket.Comment{
			ID:      c.String("id"),
			Author:  authorOf(c.Map("author")),
			Body:    RichText(c.Get("body")),
			Created: created,
			Updated: c.TimePtr("updated"),
		})
	}
	return comments
}

// ExtractWorklogs maps fields.worklog.worklogs one to one.
func ExtractWorklogs(raw jira.Payload) []ticket.Worklog {
	items := fieldsOf(raw).Maps("worklog", "worklogs")
	worklogs := make([]ticket.Worklog, 0, len(items))
	for _, w := range items {
		created, _ := w.Time("created")
		seconds, _ := w.Int64("timeSpentSeconds")
		worklogs = append(worklogs, ticket.Worklog{
			ID:               w.String("id"),
			Author:           authorOf(w.Map("author")),
			Comment:          RichText(w.Get("comment")),
			TimeSpent:        w.String("timeSpent"),
			TimeSpentSeconds: seconds,
			Started:          w.TimePtr("started"),
			Created:          created,
			Updated:          w.TimePtr("updated"),
		})
	}
	return worklogs
}

// ExtractLinkedIssues emits one entry per populated link direction. A link
// carrying both an inward and an outward issue yields two entries.
func ExtractLinkedIssues(raw jira.Payload) []ticket.LinkedIssue {
	items := fieldsOf(raw).Maps("issuelinks")
	links := make([]ticket.LinkedIssue, 0, len(items))
	for _, l := range items {
		linkType := ticket.LinkType{
			Name:    l.StringOr(Unknown, "type", "name"),
			Inward:  l.String("type", "inward"),
			Outward: l.String("type", "outward"),
		}
		if in := l.Map("inwardIssue"); len(in) > 0 {
			links = append(links, linkedIssueOf(in, linkType, ticket.Inward))
		}
		if out := l.Map("outwardIssue"); len(out) > 0 {
			links = append(links, linkedIssueOf(out, linkType, ticket.Outward))
		}
	}
	return links
}

func linkedIssueOf(issue jira.Payload, linkType ticket.LinkType, direction string) ticket.LinkedIssue {
	f := issue.Map("fields")
	return ticket.LinkedIssue{
		Key:       issue.StringOr(Unknown, "key"),
		Summary:   f.String("summary"),
		Status:    f.StringOr(Unknown, "status", "name"),
		IssueType: f.StringOr(Unknown, "issuetype", "name"),
		Priority:  f.StringOr(Unknown, "priority", "name"),
		LinkType:  linkType,
		Direction: direction,
	}
}
