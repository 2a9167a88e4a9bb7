package insights

import (
	"strings"
	"unicode/utf8"

	"ticket-insights/internal/ticket"
)

// AnalyzeQuality scores the description and checks how well the ticket is
// anchored in requirements and tests.
func (a *Analyzer) AnalyzeQuality(d *ticket.Details) QualityMetrics {
	th := a.th.Quality
	desc := d.Metadata.Description
	length := float64(utf8.RuneCountInString(desc))

	q := QualityMetrics{
		HasAcceptanceCriteria: a.accept.MatchString(desc),
		HasTestCases:          a.testCase.MatchString(desc),
	}

	score := th.ShortDescription.Apply(length) + th.LongDescription.Apply(length)
	if q.HasAcceptanceCriteria {
		score += th.AcceptancePoints
	}
	if q.HasTestCases {
		score += th.TestPoints
	}
	q.DescriptionQuality = clampScore(score)

	for _, l := range d.LinkedIssues {
		if containsAny(l.LinkType.Name, th.RequirementKeywords) || containsAny(l.IssueType, th.RequirementKeywords) {
			q.LinkedToRequirements = true
			break
		}
	}

	q.ReopenCount = a.countReopens(d.ChangeHistory)

	q.BugFixRelated = containsAny(d.Metadata.IssueType, th.BugKeywords) || containsAny(d.Metadata.Title, th.BugKeywords)
	if !q.BugFixRelated {
		for _, l := range d.LinkedIssues {
			if strings.EqualFold(l.IssueType, th.BugIssueType) {
				q.BugFixRelated = true
				break
			}
		}
	}

	q.DocumentationComplete = q.HasAcceptanceCriteria && q.HasTestCases && int(length) > th.DocumentedLength

	return q
}

// countReopens counts status changes leaving a done-bucket status for a
// status outside it.
func (a *Analyzer) countReopens(history []ticket.ChangeHistoryEntry) int {
	wf := a.th.Workflow
	reopens := 0
	for _, h := range history {
		for _, item := range h.Items {
			if !strings.EqualFold(item.Field, "status") {
				continue
			}
			if wf.bucketOf(statusName(item.FromString, item.From)) == BucketDone &&
				wf.bucketOf(statusName(item.ToString, item.To)) != BucketDone {
				reopens++
			}
		}
	}
	return reopens
}

func clampScore(v int) int {
	return max(0, min(100, v))
}
