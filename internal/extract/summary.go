package extract

import (
	"strings"

	"ticket-insights/internal/ticket"
)

// GenerateSummary projects Details onto a flat record of counts and flags.
func GenerateSummary(d *ticket.Details) ticket.Summary {
	s := ticket.Summary{
		Key:              d.Metadata.Key,
		Title:            d.Metadata.Title,
		Status:           d.Metadata.Status.Name,
		IssueType:        d.Metadata.IssueType,
		Priority:         d.Metadata.Priority,
		Assignee:         "Unassigned",
		CommentCount:     len(d.Comments),
		WorklogCount:     len(d.Worklogs),
		LinkedIssueCount: len(d.LinkedIssues),
		ChangeCount:      len(d.ChangeHistory),
		AttachmentCount:  len(d.Attachments),
		SprintCount:      len(d.Sprints),
		CustomFieldCount: len(d.CustomFields),
		LabelCount:       len(d.Metadata.Labels),
		StoryPoints:      d.StoryPoints,
		HasDescription:   strings.TrimSpace(d.Metadata.Description) != "",
		HasEpic:          d.Epic != nil,
		HasDueDate:       d.DueDate != nil,
		IsResolved:       d.Metadata.Resolved != nil,
	}

	if d.Metadata.Assignee != nil {
		s.Assignee = d.Metadata.Assignee.DisplayName
	}

	for _, w := range d.Worklogs {
		s.TotalTimeSpentSeconds += w.TimeSpentSeconds
	}
	if s.TotalTimeSpentSeconds == 0 && d.TimeTracking != nil {
		s.TotalTimeSpentSeconds = d.TimeTracking.TimeSpentSeconds
	}

	for _, h := range d.ChangeHistory {
		if _, ok := h.Change("status"); ok {
			s.StatusChangeCount++
		}
	}

	return s
}
