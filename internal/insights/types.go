package insights

import (
	"time"
)

// RiskLevel is a risk bucket.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// CreatedStatus is the synthetic status a ticket is in before its first transition.
const CreatedStatus = "Created"

// StatusTransition is one status change with the time spent in the status it left.
type StatusTransition struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Date   time.Time `json:"date"`
	Author string    `json:"author"`
	// Milliseconds spent in From before this transition.
	DurationInPreviousStatus int64 `json:"durationInPreviousStatus"`
}

// CycleTimeMetrics decomposes a ticket's lifetime. All values are
// milliseconds; nil means the metric could not be derived.
type CycleTimeMetrics struct {
	LeadTime       *int64 `json:"leadTime,omitempty"`
	TotalCycleTime *int64 `json:"totalCycleTime,omitempty"`
	ActiveTime     *int64 `json:"activeTime,omitempty"`
	WaitTime       *int64 `json:"waitTime,omitempty"`
	Todo           *int64 `json:"todo,omitempty"`
	InProgress     *int64 `json:"inProgress,omitempty"`
	Review         *int64 `json:"review,omitempty"`
	Testing        *int64 `json:"testing,omitempty"`
	Blocked        *int64 `json:"blocked,omitempty"`
	Done           *int64 `json:"done,omitempty"`
}

// ActivityPattern describes when work on a ticket happens.
type ActivityPattern struct {
	ByDayOfWeek      map[string]int `json:"byDayOfWeek"`
	ByHour           map[int]int    `json:"byHour"`
	MostActiveDay    string         `json:"mostActiveDay,omitempty"`
	MostActiveHour   *int           `json:"mostActiveHour,omitempty"`
	CommentFrequency float64        `json:"commentFrequency"`
	WorklogFrequency float64        `json:"worklogFrequency"`
	TotalActivities  int            `json:"totalActivities"`
	RecentActivities int            `json:"recentActivities"`
	ActivityScore    float64        `json:"activityScore"`
	LastActivity     *time.Time     `json:"lastActivity,omitempty"`
}

// CollaborationMetrics describes who works on a ticket and how.
type CollaborationMetrics struct {
	UniqueCommentators    int     `json:"uniqueCommentators"`
	UniqueWorkloggers     int     `json:"uniqueWorkloggers"`
	HandoffCount          int     `json:"handoffCount"`
	AverageCommentLength  float64 `json:"averageCommentLength"`
	CommentThreads        int     `json:"commentThreads"`
	StakeholderEngagement float64 `json:"stakeholderEngagement"`
}

// QualityMetrics scores how well a ticket is specified.
type QualityMetrics struct {
	DescriptionQuality    int  `json:"descriptionQuality"`
	HasAcceptanceCriteria bool `json:"hasAcceptanceCriteria"`
	HasTestCases          bool `json:"hasTestCases"`
	LinkedToRequirements  bool `json:"linkedToRequirements"`
	ReopenCount           int  `json:"reopenCount"`
	BugFixRelated         bool `json:"bugFixRelated"`
	DocumentationComplete bool `json:"documentationComplete"`
}

// RiskIndicators classifies delivery risk along several axes.
type RiskIndicators struct {
	IsBlocked         bool      `json:"isBlocked"`
	HasBlockers       bool      `json:"hasBlockers"`
	BlockerCount      int       `json:"blockerCount"`
	OverdueRisk       RiskLevel `json:"overdueRisk"`
	DaysOverdue       float64   `json:"daysOverdue"`
	ComplexityRisk    RiskLevel `json:"complexityRisk"`
	ComplexityScore   int       `json:"complexityScore"`
	StakeholderRisk   RiskLevel `json:"stakeholderRisk"`
	DaysSinceUpdate   float64   `json:"daysSinceUpdate"`
	TechnicalDebtRisk RiskLevel `json:"technicalDebtRisk"`
	DebtIndicators    int       `json:"debtIndicators"`
	OverallRisk       RiskLevel `json:"overallRisk"`
	OverallScore      int       `json:"overallScore"`
}

// PredictiveImpact holds coarse heuristics, expressed as fractional changes
// to team velocity and sprint burndown. They are not a learned model.
type PredictiveImpact struct {
	VelocityImpact float64 `json:"velocityImpact"`
	BurndownImpact float64 `json:"burndownImpact"`
}

// TicketInsights is the complete analysis of one ticket.
type TicketInsights struct {
	Key             string               `json:"key"`
	AsOf            time.Time            `json:"asOf"`
	Transitions     []StatusTransition   `json:"transitions"`
	CycleTime       CycleTimeMetrics     `json:"cycleTime"`
	Activity        ActivityPattern      `json:"activityPattern"`
	Collaboration   CollaborationMetrics `json:"collaboration"`
	Quality         QualityMetrics       `json:"quality"`
	Risk            RiskIndicators       `json:"risk"`
	Predictive      PredictiveImpact     `json:"predictive"`
	Recommendations []string             `json:"recommendations"`
	Tags            []string             `json:"tags"`
}
