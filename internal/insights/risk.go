package insights

import (
	"strings"
	"time"
	"unicode/utf8"

	"ticket-insights/internal/ticket"
)

// AnalyzeRisks classifies blocking, schedule, complexity, staleness and
// technical-debt risk, then combines them into an overall level.
func (a *Analyzer) AnalyzeRisks(d *ticket.Details, now time.Time) RiskIndicators {
	th := a.th.Risk
	meta := d.Metadata

	r := RiskIndicators{
		IsBlocked: containsAny(meta.Status.Name, []string{th.BlockedKeyword}),
	}
	for _, label := range meta.Labels {
		if containsAny(label, []string{th.BlockedKeyword}) {
			r.IsBlocked = true
			break
		}
	}

	for _, l := range d.LinkedIssues {
		if l.Direction == ticket.Inward && containsAny(l.LinkType.Name, []string{th.BlockerLinkKeyword}) {
			r.BlockerCount++
		}
	}
	r.HasBlockers = r.BlockerCount > 0

	r.OverdueRisk = RiskLow
	if d.DueDate != nil && now.After(*d.DueDate) {
		overdue := daysBetween(*d.DueDate, now)
		r.DaysOverdue = round2(overdue)
		r.OverdueRisk = th.OverdueDays.Classify(overdue)
	}

	r.ComplexityScore = a.complexityScore(d)
	r.ComplexityRisk = th.Complexity.Levels.Classify(float64(r.ComplexityScore))

	lastUpdate := meta.Created
	if meta.Updated != nil {
		lastUpdate = *meta.Updated
	}
	stale := max(0, daysBetween(lastUpdate, now))
	r.DaysSinceUpdate = round2(stale)
	r.StakeholderRisk = th.StaleDays.Classify(stale)

	r.DebtIndicators = a.debtIndicators(d)
	r.TechnicalDebtRisk = th.DebtIndicators.Classify(float64(r.DebtIndicators))

	r.OverallRisk, r.OverallScore = a.ClassifyOverall(r)
	return r
}

func (a *Analyzer) complexityScore(d *ticket.Details) int {
	c := a.th.Risk.Complexity

	score := c.LinkedIssues.Apply(float64(len(d.LinkedIssues)))
	if d.StoryPoints != nil {
		score += c.StoryPoints.Apply(*d.StoryPoints)
	}
	score += c.Comments.Apply(float64(len(d.Comments)))
	score += c.Changes.Apply(float64(len(d.ChangeHistory)))
	score += c.DescriptionLength.Apply(float64(utf8.RuneCountInString(d.Metadata.Description)))
	return score
}

func (a *Analyzer) debtIndicators(d *ticket.Details) int {
	th := a.th.Risk
	n := 0
	if containsAny(d.Metadata.Title, th.DebtSummaryKeywords) {
		n++
	}
	for _, label := range d.Metadata.Labels {
		if strings.Contains(strings.ToLower(label), strings.ToLower(th.DebtLabelKeyword)) {
			n++
			break
		}
	}
	for _, comp := range d.Metadata.Components {
		if strings.Contains(strings.ToLower(comp), strings.ToLower(th.LegacyComponent)) {
			n++
			break
		}
	}
	return n
}

// ClassifyOverall combines the sub-risks of r into the overall level and
// returns it with the weighted score it was bucketed from. Only the four
// sub-levels and the two blocking flags are read.
func (a *Analyzer) ClassifyOverall(r RiskIndicators) (RiskLevel, int) {
	th := a.th.Risk

	score := 0
	for _, level := range []RiskLevel{r.OverdueRisk, r.ComplexityRisk, r.StakeholderRisk, r.TechnicalDebtRisk} {
		score += th.LevelWeights[string(level)]
	}
	if r.IsBlocked {
		score += th.BlockedWeight
	}
	if r.HasBlockers {
		score += th.BlockersWeight
	}

	return th.Overall.Classify(float64(score)), score
}
