// Package insights derives cycle-time, activity, collaboration, quality and
// risk metrics from a normalized ticket.
//
// An Analyzer is immutable once built and safe for concurrent use. Every
// method is a pure function of its arguments; "now" is always passed in.
package insights

import (
	"math"
	"regexp"
	"time"

	"ticket-insights/internal/ticket"
)

// Analyzer computes TicketInsights under a fixed set of thresholds.
type Analyzer struct {
	th       Thresholds
	loc      *time.Location
	accept   *regexp.Regexp
	testCase *regexp.Regexp
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithLocation sets the time zone used for day-of-week and hour histograms.
// The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(a *Analyzer) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// New validates the thresholds and builds an Analyzer.
func New(th Thresholds, opts ...Option) (*Analyzer, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{
		th:       th,
		loc:      time.UTC,
		accept:   regexp.MustCompile(th.Quality.AcceptancePattern),
		testCase: regexp.MustCompile(th.Quality.TestPattern),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Default returns an Analyzer with DefaultThresholds.
func Default() *Analyzer {
	a, err := New(DefaultThresholds())
	if err != nil {
		panic(err)
	}
	return a
}

// Thresholds returns the tuning the analyzer was built with.
func (a *Analyzer) Thresholds() Thresholds {
	return a.th
}

// AnalyzeTicket runs every pass in a fixed order and composes the result.
func (a *Analyzer) AnalyzeTicket(d *ticket.Details, now time.Time) *TicketInsights {
	transitions, cycle := a.AnalyzeStatusTransitions(d)
	activity := a.AnalyzeActivityPattern(d, now)
	collaboration := a.AnalyzeCollaboration(d)
	quality := a.AnalyzeQuality(d)
	risk := a.AnalyzeRisks(d, now)

	out := &TicketInsights{
		Key:           d.Metadata.Key,
		AsOf:          now,
		Transitions:   transitions,
		CycleTime:     cycle,
		Activity:      activity,
		Collaboration: collaboration,
		Quality:       quality,
		Risk:          risk,
		Predictive:    a.PredictImpact(risk.OverallRisk, activity.ActivityScore),
	}
	out.Recommendations = a.GenerateRecommendations(d, out)
	out.Tags = a.GenerateInsightTags(d, out)
	return out
}

// PredictImpact maps overall risk to a velocity change and the activity
// score to a burndown change.
func (a *Analyzer) PredictImpact(overall RiskLevel, activityScore float64) PredictiveImpact {
	imp := a.th.Impact

	var burndown float64
	switch {
	case activityScore >= imp.ActiveAbove:
		burndown = imp.ActiveBurndown
	case activityScore >= imp.SteadyAbove:
		burndown = imp.SteadyBurndown
	default:
		burndown = imp.IdleBurndown
	}

	return PredictiveImpact{
		VelocityImpact: imp.Velocity[string(overall)],
		BurndownImpact: burndown,
	}
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
