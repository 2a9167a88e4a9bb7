package insights

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"ticket-insights/internal/ticket"

	"k8s.io/apimachinery/pkg/util/sets"
)

// AnalyzeCollaboration measures participation, ownership changes and
// comment density.
func (a *Analyzer) AnalyzeCollaboration(d *ticket.Details) CollaborationMetrics {
	th := a.th.Collaboration

	commentators := sets.New[string]()
	var totalLength int
	for _, c := range d.Comments {
		commentators.Insert(c.Author.ID())
		totalLength += utf8.RuneCountInString(c.Body)
	}

	workloggers := sets.New[string]()
	for _, w := range d.Worklogs {
		workloggers.Insert(w.Author.ID())
	}

	handoffs := 0
	for _, h := range d.ChangeHistory {
		for _, item := range h.Items {
			if strings.EqualFold(item.Field, "assignee") {
				handoffs++
				break
			}
		}
	}

	m := CollaborationMetrics{
		UniqueCommentators: commentators.Len(),
		UniqueWorkloggers:  workloggers.Len(),
		HandoffCount:       handoffs,
		CommentThreads:     countThreads(d.Comments, th.ThreadGap.Milliseconds()),
	}
	if len(d.Comments) > 0 {
		m.AverageCommentLength = round2(float64(totalLength) / float64(len(d.Comments)))
	}

	engagement := float64(m.UniqueCommentators+m.UniqueWorkloggers)*th.ParticipantWeight +
		float64(len(d.Comments))*th.CommentWeight
	m.StakeholderEngagement = math.Min(th.MaxEngagement, engagement)

	return m
}

// countThreads counts bursts of comments: a thread starts whenever a comment
// follows the previous one within gapMillis and the previous one was not
// already part of a burst.
func countThreads(comments []ticket.Comment, gapMillis int64) int {
	if len(comments) < 2 {
		return 0
	}

	ordered := slices.Clone(comments)
	slices.SortStableFunc(ordered, func(a, b ticket.Comment) int {
		return a.Created.Compare(b.Created)
	})

	threads := 0
	inBurst := false
	for i := 1; i < len(ordered); i++ {
		gap := ordered[i].Created.Sub(ordered[i-1].Created).Milliseconds()
		if gap <= gapMillis {
			if !inBurst {
				threads++
				inBurst = true
			}
			continue
		}
		inBurst = false
	}
	return threads
}
