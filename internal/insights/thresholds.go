package insights

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Workflow buckets used for cycle-time decomposition.
const (
	BucketTodo       = "todo"
	BucketInProgress = "inProgress"
	BucketReview     = "review"
	BucketTesting    = "testing"
	BucketBlocked    = "blocked"
	BucketDone       = "done"
)

// BucketRule assigns every status whose lower-cased name contains one of
// Keywords to Bucket. Rules are evaluated in order, first match wins.
type BucketRule struct {
	Bucket   string   `mapstructure:"bucket" json:"bucket"`
	Keywords []string `mapstructure:"keywords" json:"keywords"`
}

// ScoreRule awards Points when a measured value is strictly above Above.
type ScoreRule struct {
	Above  float64 `mapstructure:"above" json:"above"`
	Points int     `mapstructure:"points" json:"points"`
}

// Apply returns the points earned by v.
func (r ScoreRule) Apply(v float64) int {
	if v > r.Above {
		return r.Points
	}
	return 0
}

// Bands classifies a score: strictly above High is high, strictly above
// Medium is medium, anything else is low.
type Bands struct {
	High   float64 `mapstructure:"high" json:"high"`
	Medium float64 `mapstructure:"medium" json:"medium"`
}

// Classify returns the risk level of v.
func (b Bands) Classify(v float64) RiskLevel {
	switch {
	case v > b.High:
		return RiskHigh
	case v > b.Medium:
		return RiskMedium
	default:
		return RiskLow
	}
}

type WorkflowThresholds struct {
	// Fewer status changes than this produce no transitions at all.
	MinStatusChanges int          `mapstructure:"min_status_changes" json:"minStatusChanges"`
	Buckets          []BucketRule `mapstructure:"buckets" json:"buckets"`
	ActiveBuckets    []string     `mapstructure:"active_buckets" json:"activeBuckets"`
	WaitBuckets      []string     `mapstructure:"wait_buckets" json:"waitBuckets"`
}

type ActivityThresholds struct {
	RecentWindowDays int     `mapstructure:"recent_window_days" json:"recentWindowDays"`
	RecentWeight     float64 `mapstructure:"recent_weight" json:"recentWeight"`
	MaxScore         float64 `mapstructure:"max_score" json:"maxScore"`
	MinAgeDays       float64 `mapstructure:"min_age_days" json:"minAgeDays"`
}

type CollaborationThresholds struct {
	ThreadGap         time.Duration `mapstructure:"thread_gap" json:"threadGap"`
	ParticipantWeight float64       `mapstructure:"participant_weight" json:"participantWeight"`
	CommentWeight     float64       `mapstructure:"comment_weight" json:"commentWeight"`
	MaxEngagement     float64       `mapstructure:"max_engagement" json:"maxEngagement"`
}

type QualityThresholds struct {
	ShortDescription    ScoreRule `mapstructure:"short_description" json:"shortDescription"`
	LongDescription     ScoreRule `mapstructure:"long_description" json:"longDescription"`
	AcceptancePoints    int       `mapstructure:"acceptance_points" json:"acceptancePoints"`
	TestPoints          int       `mapstructure:"test_points" json:"testPoints"`
	DocumentedLength    int       `mapstructure:"documented_length" json:"documentedLength"`
	AcceptancePattern   string    `mapstructure:"acceptance_pattern" json:"acceptancePattern"`
	TestPattern         string    `mapstructure:"test_pattern" json:"testPattern"`
	RequirementKeywords []string  `mapstructure:"requirement_keywords" json:"requirementKeywords"`
	BugKeywords         []string  `mapstructure:"bug_keywords" json:"bugKeywords"`
	BugIssueType        string    `mapstructure:"bug_issue_type" json:"bugIssueType"`
}

type ComplexityThresholds struct {
	LinkedIssues      ScoreRule `mapstructure:"linked_issues" json:"linkedIssues"`
	StoryPoints       ScoreRule `mapstructure:"story_points" json:"storyPoints"`
	Comments          ScoreRule `mapstructure:"comments" json:"comments"`
	Changes           ScoreRule `mapstructure:"changes" json:"changes"`
	DescriptionLength ScoreRule `mapstructure:"description_length" json:"descriptionLength"`
	Levels            Bands     `mapstructure:"levels" json:"levels"`
}

type RiskThresholds struct {
	BlockedKeyword      string               `mapstructure:"blocked_keyword" json:"blockedKeyword"`
	BlockerLinkKeyword  string               `mapstructure:"blocker_link_keyword" json:"blockerLinkKeyword"`
	OverdueDays         Bands                `mapstructure:"overdue_days" json:"overdueDays"`
	Complexity          ComplexityThresholds `mapstructure:"complexity" json:"complexity"`
	StaleDays           Bands                `mapstructure:"stale_days" json:"staleDays"`
	DebtSummaryKeywords []string             `mapstructure:"debt_summary_keywords" json:"debtSummaryKeywords"`
	DebtLabelKeyword    string               `mapstructure:"debt_label_keyword" json:"debtLabelKeyword"`
	LegacyComponent     string               `mapstructure:"legacy_component" json:"legacyComponent"`
	DebtIndicators      Bands                `mapstructure:"debt_indicators" json:"debtIndicators"`
	BlockedWeight       int                  `mapstructure:"blocked_weight" json:"blockedWeight"`
	BlockersWeight      int                  `mapstructure:"blockers_weight" json:"blockersWeight"`
	Overall             Bands                `mapstructure:"overall" json:"overall"`
	LevelWeights        map[string]int       `mapstructure:"level_weights" json:"levelWeights"`
}

type ImpactThresholds struct {
	Velocity       map[string]float64 `mapstructure:"velocity" json:"velocity"`
	ActiveAbove    float64            `mapstructure:"active_above" json:"activeAbove"`
	ActiveBurndown float64            `mapstructure:"active_burndown" json:"activeBurndown"`
	SteadyAbove    float64            `mapstructure:"steady_above" json:"steadyAbove"`
	SteadyBurndown float64            `mapstructure:"steady_burndown" json:"steadyBurndown"`
	IdleBurndown   float64            `mapstructure:"idle_burndown" json:"idleBurndown"`
}

type SynthesisThresholds struct {
	FrequentHandoffs        int     `mapstructure:"frequent_handoffs" json:"frequentHandoffs"`
	WeakDescription         int     `mapstructure:"weak_description" json:"weakDescription"`
	ActiveScore             float64 `mapstructure:"active_score" json:"activeScore"`
	CollaborativeEngagement float64 `mapstructure:"collaborative_engagement" json:"collaborativeEngagement"`
}

// Thresholds gathers every weight, cut-off and keyword used by the analyzer.
// None of the defaults is calibrated; they are tuning knobs.
type Thresholds struct {
	Workflow      WorkflowThresholds      `mapstructure:"workflow" json:"workflow"`
	Activity      ActivityThresholds      `mapstructure:"activity" json:"activity"`
	Collaboration CollaborationThresholds `mapstructure:"collaboration" json:"collaboration"`
	Quality       QualityThresholds       `mapstructure:"quality" json:"quality"`
	Risk          RiskThresholds          `mapstructure:"risk" json:"risk"`
	Impact        ImpactThresholds        `mapstructure:"impact" json:"impact"`
	Synthesis     SynthesisThresholds     `mapstructure:"synthesis" json:"synthesis"`
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Workflow: WorkflowThresholds{
			MinStatusChanges: 2,
			Buckets: []BucketRule{
				{Bucket: BucketBlocked, Keywords: []string{"blocked", "on hold", "impeded", "waiting"}},
				{Bucket: BucketTesting, Keywords: []string{"test", "qa", "verif", "uat"}},
				{Bucket: BucketReview, Keywords: []string{"review"}},
				{Bucket: BucketTodo, Keywords: []string{"to do", "todo", "open", "backlog", "new", "selected", "ready", "created"}},
				{Bucket: BucketInProgress, Keywords: []string{"in progress", "progress", "development", "doing", "implement"}},
				{Bucket: BucketDone, Keywords: []string{"done", "closed", "resolved", "complete", "released", "fixed"}},
			},
			ActiveBuckets: []string{BucketInProgress, BucketReview, BucketTesting},
			WaitBuckets:   []string{BucketTodo, BucketBlocked},
		},
		Activity: ActivityThresholds{
			RecentWindowDays: 7,
			RecentWeight:     20,
			MaxScore:         100,
			MinAgeDays:       1,
		},
		Collaboration: CollaborationThresholds{
			ThreadGap:         time.Hour,
			ParticipantWeight: 20,
			CommentWeight:     2,
			MaxEngagement:     100,
		},
		Quality: QualityThresholds{
			ShortDescription:    ScoreRule{Above: 100, Points: 30},
			LongDescription:     ScoreRule{Above: 300, Points: 20},
			AcceptancePoints:    25,
			TestPoints:          25,
			DocumentedLength:    200,
			AcceptancePattern:   `(?i)acceptance criteria|\bAC:`,
			TestPattern:         `(?i)test|verify`,
			RequirementKeywords: []string{"requirement", "epic"},
			BugKeywords:         []string{"bug", "fix"},
			BugIssueType:        "bug",
		},
		Risk: RiskThresholds{
			BlockedKeyword:     "blocked",
			BlockerLinkKeyword: "block",
			OverdueDays:        Bands{High: 7, Medium: 0},
			Complexity: ComplexityThresholds{
				LinkedIssues:      ScoreRule{Above: 5, Points: 2},
				StoryPoints:       ScoreRule{Above: 8, Points: 3},
				Comments:          ScoreRule{Above: 20, Points: 2},
				Changes:           ScoreRule{Above: 15, Points: 2},
				DescriptionLength: ScoreRule{Above: 1000, Points: 1},
				Levels:            Bands{High: 6, Medium: 3},
			},
			StaleDays:           Bands{High: 14, Medium: 7},
			DebtSummaryKeywords: []string{"technical debt", "refactor"},
			DebtLabelKeyword:    "debt",
			LegacyComponent:     "legacy",
			DebtIndicators:      Bands{High: 2, Medium: 0},
			BlockedWeight:       3,
			BlockersWeight:      2,
			Overall:             Bands{High: 10, Medium: 6},
			LevelWeights: map[string]int{
				string(RiskLow):    1,
				string(RiskMedium): 2,
				string(RiskHigh):   3,
			},
		},
		Impact: ImpactThresholds{
			Velocity: map[string]float64{
				string(RiskLow):    0,
				string(RiskMedium): -0.1,
				string(RiskHigh):   -0.25,
			},
			ActiveAbove:    60,
			ActiveBurndown: 0.1,
			SteadyAbove:    20,
			SteadyBurndown: 0,
			IdleBurndown:   -0.15,
		},
		Synthesis: SynthesisThresholds{
			FrequentHandoffs:        3,
			WeakDescription:         50,
			ActiveScore:             60,
			CollaborativeEngagement: 60,
		},
	}
}

// Validate reports settings the analyzer cannot work with.
func (t Thresholds) Validate() error {
	if t.Activity.RecentWindowDays <= 0 {
		return fmt.Errorf("activity.recent_window_days must be positive, got %d", t.Activity.RecentWindowDays)
	}
	if t.Activity.MinAgeDays <= 0 {
		return fmt.Errorf("activity.min_age_days must be positive, got %v", t.Activity.MinAgeDays)
	}
	if t.Collaboration.ThreadGap <= 0 {
		return fmt.Errorf("collaboration.thread_gap must be positive, got %s", t.Collaboration.ThreadGap)
	}
	if t.Workflow.MinStatusChanges < 1 {
		return fmt.Errorf("workflow.min_status_changes must be at least 1, got %d", t.Workflow.MinStatusChanges)
	}
	for _, rule := range t.Workflow.Buckets {
		if rule.Bucket == "" || len(rule.Keywords) == 0 {
			return fmt.Errorf("workflow bucket rules need a bucket and keywords: %+v", rule)
		}
	}
	for _, level := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		if _, ok := t.Risk.LevelWeights[string(level)]; !ok {
			return fmt.Errorf("risk.level_weights has no weight for %q", level)
		}
	}
	if _, err := regexp.Compile(t.Quality.AcceptancePattern); err != nil {
		return fmt.Errorf("quality.acceptance_pattern: %w", err)
	}
	if _, err := regexp.Compile(t.Quality.TestPattern); err != nil {
		return fmt.Errorf("quality.test_pattern: %w", err)
	}
	return nil
}

// bucketOf returns the workflow bucket of a status name, or "" when no rule matches.
func (w WorkflowThresholds) bucketOf(status string) string {
	lower := strings.ToLower(status)
	for _, rule := range w.Buckets {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Bucket
			}
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
