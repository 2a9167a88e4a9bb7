package insights

import (
	"slices"
	"strings"
	"time"

	"ticket-insights/internal/ticket"
)

type statusChange struct {
	at     time.Time
	to     string
	author string
}

// statusChanges returns the status-field changes ordered by time.
func statusChanges(history []ticket.ChangeHistoryEntry) []statusChange {
	var changes []statusChange
	for _, h := range history {
		for _, item := range h.Items {
			if !strings.EqualFold(item.Field, "status") {
				continue
			}
			changes = append(changes, statusChange{
				at:     h.Created,
				to:     statusName(item.ToString, item.To),
				author: h.Author.DisplayName,
			})
		}
	}

	// Input order is not guaranteed; equal timestamps keep their delivered order.
	slices.SortStableFunc(changes, func(a, b statusChange) int {
		return a.at.Compare(b.at)
	})
	return changes
}

// AnalyzeStatusTransitions walks the status changes from the ticket's creation
// and decomposes the elapsed time into workflow buckets.
func (a *Analyzer) AnalyzeStatusTransitions(d *ticket.Details) ([]StatusTransition, CycleTimeMetrics) {
	var cycle CycleTimeMetrics
	if resolved := d.Metadata.Resolved; resolved != nil {
		lead := millis(resolved.Sub(d.Metadata.Created))
		cycle.LeadTime = &lead
	}

	changes := statusChanges(d.ChangeHistory)
	if len(changes) == 0 || len(changes) < a.th.Workflow.MinStatusChanges {
		return []StatusTransition{}, cycle
	}

	transitions := make([]StatusTransition, 0, len(changes))
	current := CreatedStatus
	last := d.Metadata.Created
	for _, c := range changes {
		duration := millis(c.at.Sub(last))
		if duration < 0 {
			duration = 0
		}
		transitions = append(transitions, StatusTransition{
			From:                     current,
			To:                       c.to,
			Date:                     c.at,
			Author:                   c.author,
			DurationInPreviousStatus: duration,
		})
		current = c.to
		last = c.at
	}

	a.accumulateCycleTime(transitions, &cycle)
	return transitions, cycle
}

func (a *Analyzer) accumulateCycleTime(transitions []StatusTransition, cycle *CycleTimeMetrics) {
	wf := a.th.Workflow
	buckets := make(map[string]int64)
	var total, active, wait int64

	for _, t := range transitions {
		total += t.DurationInPreviousStatus

		bucket := wf.bucketOf(t.From)
		if bucket == "" {
			continue
		}
		buckets[bucket] += t.DurationInPreviousStatus

		switch {
		case slices.Contains(wf.ActiveBuckets, bucket):
			active += t.DurationInPreviousStatus
		case slices.Contains(wf.WaitBuckets, bucket):
			wait += t.DurationInPreviousStatus
		}
	}

	cycle.TotalCycleTime = &total
	cycle.ActiveTime = &active
	cycle.WaitTime = &wait

	for bucket, sum := range buckets {
		v := sum
		switch bucket {
		case BucketTodo:
			cycle.Todo = &v
		case BucketInProgress:
			cycle.InProgress = &v
		case BucketReview:
			cycle.Review = &v
		case BucketTesting:
			cycle.Testing = &v
		case BucketBlocked:
			cycle.Blocked = &v
		case BucketDone:
			cycle.Done = &v
		}
	}
}

// statusName prefers the display string of a status change over its raw id.
func statusName(display, raw string) string {
	if display != "" {
		return display
	}
	return raw
}
