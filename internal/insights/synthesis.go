package insights

import (
	"fmt"

	"ticket-insights/internal/ticket"

	"k8s.io/apimachinery/pkg/util/sets"
)

// GenerateRecommendations turns the derived metrics into advice, most urgent
// first. It reads in but never changes it.
func (a *Analyzer) GenerateRecommendations(d *ticket.Details, in *TicketInsights) []string {
	syn := a.th.Synthesis
	risk := in.Risk
	recs := []string{}

	if risk.OverallRisk == RiskHigh {
		recs = append(recs, "High-risk ticket: review scope and ownership with the team")
	}
	if risk.IsBlocked {
		recs = append(recs, "Ticket is blocked: escalate the blocking issue")
	}
	if risk.HasBlockers {
		recs = append(recs, fmt.Sprintf("Resolve %d blocking issue(s) before continuing", risk.BlockerCount))
	}
	switch risk.OverdueRisk {
	case RiskHigh:
		recs = append(recs, fmt.Sprintf("Overdue by %.0f days: renegotiate the due date or re-plan", risk.DaysOverdue))
	case RiskMedium:
		recs = append(recs, "Past its due date: confirm the remaining work")
	}
	if risk.ComplexityRisk == RiskHigh {
		recs = append(recs, "High complexity: consider splitting into smaller tickets")
	}
	switch risk.StakeholderRisk {
	case RiskHigh:
		recs = append(recs, fmt.Sprintf("No updates for %.0f days: check whether the ticket is still relevant", risk.DaysSinceUpdate))
	case RiskMedium:
		recs = append(recs, "Post a status update for stakeholders")
	}
	if risk.TechnicalDebtRisk != RiskLow {
		recs = append(recs, "Technical debt indicators present: plan dedicated refactoring time")
	}

	q := in.Quality
	if q.DescriptionQuality < syn.WeakDescription {
		recs = append(recs, "Improve the description with more context and detail")
	}
	if !q.HasAcceptanceCriteria {
		recs = append(recs, "Add acceptance criteria")
	}
	if !q.HasTestCases {
		recs = append(recs, "Document test cases or verification steps")
	}
	if q.ReopenCount > 0 {
		recs = append(recs, fmt.Sprintf("Reopened %d time(s): review the definition of done", q.ReopenCount))
	}

	if in.Collaboration.HandoffCount >= syn.FrequentHandoffs {
		recs = append(recs, "Frequent assignee changes: settle on a single owner")
	}
	if in.Activity.TotalActivities == 0 && d.Metadata.Resolved == nil {
		recs = append(recs, "No recorded activity: confirm the ticket is prioritized")
	}
	if len(d.Sprints) > 1 && d.Metadata.Resolved == nil {
		recs = append(recs, fmt.Sprintf("Carried over across %d sprints: re-estimate or split", len(d.Sprints)))
	}
	if d.StoryPoints == nil && !d.Metadata.IsSubtask {
		recs = append(recs, "Add a story point estimate")
	}

	return recs
}

// GenerateInsightTags derives short categorical tags, returned sorted.
func (a *Analyzer) GenerateInsightTags(d *ticket.Details, in *TicketInsights) []string {
	syn := a.th.Synthesis
	risk := in.Risk
	tags := sets.New[string](string(risk.OverallRisk) + "-risk")

	if risk.IsBlocked {
		tags.Insert("blocked")
	}
	if risk.HasBlockers {
		tags.Insert("has-blockers")
	}
	if risk.OverdueRisk != RiskLow {
		tags.Insert("overdue")
	}
	if risk.ComplexityRisk == RiskHigh {
		tags.Insert("complex")
	}
	if risk.StakeholderRisk == RiskHigh {
		tags.Insert("stale")
	}
	if risk.TechnicalDebtRisk != RiskLow {
		tags.Insert("tech-debt")
	}

	q := in.Quality
	if q.BugFixRelated {
		tags.Insert("bug-fix")
	}
	if q.DocumentationComplete {
		tags.Insert("well-documented")
	} else if q.DescriptionQuality < syn.WeakDescription {
		tags.Insert("needs-documentation")
	}
	if q.ReopenCount > 0 {
		tags.Insert("reopened")
	}

	if in.Collaboration.HandoffCount >= syn.FrequentHandoffs {
		tags.Insert("frequent-handoffs")
	}
	if in.Collaboration.StakeholderEngagement >= syn.CollaborativeEngagement {
		tags.Insert("collaborative")
	}

	switch {
	case in.Activity.ActivityScore >= syn.ActiveScore:
		tags.Insert("active")
	case in.Activity.RecentActivities == 0:
		tags.Insert("dormant")
	}

	if len(d.Sprints) > 1 {
		tags.Insert("multi-sprint")
	}

	return sets.List(tags)
}
