package insights

import (
	"math"
	"slices"
	"time"

	"ticket-insights/internal/ticket"
)

// activityTimes merges comment, worklog and change timestamps into one
// ascending stream. Entries without a timestamp are dropped.
func activityTimes(d *ticket.Details) []time.Time {
	stream := make([]time.Time, 0, len(d.Comments)+len(d.Worklogs)+len(d.ChangeHistory))
	for _, c := range d.Comments {
		stream = append(stream, c.Created)
	}
	for _, w := range d.Worklogs {
		stream = append(stream, w.At())
	}
	for _, h := range d.ChangeHistory {
		stream = append(stream, h.Created)
	}

	stream = slices.DeleteFunc(stream, time.Time.IsZero)
	slices.SortFunc(stream, time.Time.Compare)
	return stream
}

// AnalyzeActivityPattern builds day/hour histograms of the activity stream
// and a saturating recency score.
func (a *Analyzer) AnalyzeActivityPattern(d *ticket.Details, now time.Time) ActivityPattern {
	th := a.th.Activity
	stream := activityTimes(d)

	pattern := ActivityPattern{
		ByDayOfWeek:     make(map[string]int),
		ByHour:          make(map[int]int),
		TotalActivities: len(stream),
	}

	var days [7]int
	var hours [24]int
	windowStart := now.AddDate(0, 0, -th.RecentWindowDays)
	for _, t := range stream {
		local := t.In(a.loc)
		days[local.Weekday()]++
		hours[local.Hour()]++
		if !t.Before(windowStart) && !t.After(now) {
			pattern.RecentActivities++
		}
	}

	// Ties go to the earliest weekday (Sunday first) and the smallest hour.
	bestDay, bestHour := -1, -1
	for i, n := range days {
		if n == 0 {
			continue
		}
		pattern.ByDayOfWeek[time.Weekday(i).String()] = n
		if bestDay < 0 || n > days[bestDay] {
			bestDay = i
		}
	}
	for h, n := range hours {
		if n == 0 {
			continue
		}
		pattern.ByHour[h] = n
		if bestHour < 0 || n > hours[bestHour] {
			bestHour = h
		}
	}
	if bestDay >= 0 {
		pattern.MostActiveDay = time.Weekday(bestDay).String()
	}
	if bestHour >= 0 {
		h := bestHour
		pattern.MostActiveHour = &h
	}
	if len(stream) > 0 {
		last := stream[len(stream)-1]
		pattern.LastActivity = &last
	}

	ageDays := math.Max(th.MinAgeDays, daysBetween(d.Metadata.Created, now))
	pattern.CommentFrequency = round2(float64(len(d.Comments)) / ageDays)
	pattern.WorklogFrequency = round2(float64(len(d.Worklogs)) / ageDays)

	score := float64(pattern.RecentActivities) / float64(th.RecentWindowDays) * th.RecentWeight
	pattern.ActivityScore = round2(math.Min(th.MaxScore, math.Max(0, score)))

	return pattern
}
