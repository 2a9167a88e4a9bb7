package pipeline

import (
	"cmp"
	"math"
	"slices"
	"time"

	"ticket-insights/internal/insights"
)

// TopTagLimit caps BatchSummary.TopTags.
const TopTagLimit = 5

// TagCount is how many tickets in a batch carry a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// BatchSummary aggregates the successful results of a batch.
type BatchSummary struct {
	Analyzed            int                        `json:"analyzed"`
	Failed              int                        `json:"failed"`
	RiskDistribution    map[insights.RiskLevel]int `json:"riskDistribution"`
	MedianLeadTimeDays  float64                    `json:"medianLeadTimeDays"`
	MedianActivityScore float64                    `json:"medianActivityScore"`
	TopTags             []TagCount                 `json:"topTags"`
}

// Summarize aggregates results. Lead time only counts resolved tickets.
func Summarize(results []Result) BatchSummary {
	s := BatchSummary{
		RiskDistribution: map[insights.RiskLevel]int{
			insights.RiskLow:    0,
			insights.RiskMedium: 0,
			insights.RiskHigh:   0,
		},
		TopTags: []TagCount{},
	}

	var leadDays, scores []float64
	tagCounts := make(map[string]int)
	for _, r := range results {
		if r.Insights == nil {
			s.Failed++
			continue
		}
		s.Analyzed++
		in := r.Insights
		s.RiskDistribution[in.Risk.OverallRisk]++
		scores = append(scores, in.Activity.ActivityScore)
		if in.CycleTime.LeadTime != nil {
			leadDays = append(leadDays, float64(*in.CycleTime.LeadTime)/float64(24*time.Hour.Milliseconds()))
		}
		for _, tag := range in.Tags {
			tagCounts[tag]++
		}
	}

	s.MedianLeadTimeDays = round2(median(leadDays))
	s.MedianActivityScore = round2(median(scores))

	for tag, n := range tagCounts {
		s.TopTags = append(s.TopTags, TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(s.TopTags, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	if len(s.TopTags) > TopTagLimit {
		s.TopTags = s.TopTags[:TopTagLimit]
	}
	return s
}

// median returns the median of values, or 0 for none. values is not modified.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := slices.Clone(values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
