// Package optimization scores campaign performance and derives actionable
// insights from budget and performance metrics.
package optimization

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/adpilot/backend/internal/model"
)

// Insight titles. The automation orchestrator dispatches on these, so they
// are shared constants rather than free-form strings.
const (
	TitleBudgetUnderUtilization = "Budget Under-utilization"
	TitleBudgetNearlyExhausted  = "Budget Nearly Exhausted"
	TitleLowCTR                 = "Low Click-Through Rate"
	TitleHighCPA                = "High Cost Per Acquisition"
	TitleNoConversions          = "No Conversions Despite Traffic"
)

// Engine analyzes campaigns and produces performance scores and insights.
// All analysis is pure computation over the campaign the caller already
// fetched; the engine performs no I/O.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a new optimization engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// AnalyzeCampaign scores a single campaign and generates its insights.
func (e *Engine) AnalyzeCampaign(c *model.Campaign) model.PerformanceAnalysis {
	var insights []model.OptimizationInsight

	if c.HasBudget() {
		insights = append(insights, e.analyzeBudget(c)...)
	}
	insights = append(insights, e.analyzePerformance(c)...)

	return model.PerformanceAnalysis{
		CampaignID:        c.ID,
		OverallScore:      e.calculateOverallScore(c),
		Insights:          insights,
		Trends:            e.analyzeTrends(c),
		BudgetUtilization: e.analyzeBudgetUtilization(c),
	}
}

// AnalyzePortfolio runs the scoring engine over every campaign and
// aggregates into portfolio-level statistics. Empty input yields zeroes.
func (e *Engine) AnalyzePortfolio(campaigns []model.Campaign) model.PortfolioSummary {
	var allInsights []model.OptimizationInsight
	scoreSum := 0

	for i := range campaigns {
		analysis := e.AnalyzeCampaign(&campaigns[i])
		allInsights = append(allInsights, analysis.Insights...)
		scoreSum += analysis.OverallScore
	}

	highPriority := 0
	for _, in := range allInsights {
		if in.Priority == model.PriorityHigh {
			highPriority++
		}
	}

	top := make([]model.OptimizationInsight, len(allInsights))
	copy(top, allInsights)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Confidence > top[j].Confidence
	})
	if len(top) > 5 {
		top = top[:5]
	}

	score := 0
	if len(campaigns) > 0 {
		score = int(float64(scoreSum)/float64(len(campaigns)) + 0.5)
	}

	return model.PortfolioSummary{
		TotalInsights:        len(allInsights),
		HighPriorityInsights: highPriority,
		TopRecommendations:   top,
		PortfolioScore:       score,
	}
}

func (e *Engine) analyzeBudget(c *model.Campaign) []model.OptimizationInsight {
	var insights []model.OptimizationInsight
	spendRatio := c.BudgetUtilization()

	if spendRatio < 0.7 && c.Status == model.CampaignStatusActive {
		insights = append(insights, model.OptimizationInsight{
			ID:              fmt.Sprintf("budget-underspend-%s", c.ID),
			CampaignID:      c.ID,
			Type:            model.InsightTypeBudget,
			Priority:        model.PriorityMedium,
			Title:           TitleBudgetUnderUtilization,
			Description:     fmt.Sprintf("Campaign is only using %.1f%% of allocated budget", spendRatio*100),
			Recommendation:  "Consider increasing bids or expanding targeting to utilize remaining budget",
			EstimatedImpact: "25-40% more conversions possible",
			Confidence:      0.8,
		})
	}

	if spendRatio > 0.95 {
		insights = append(insights, model.OptimizationInsight{
			ID:              fmt.Sprintf("budget-overspend-%s", c.ID),
			CampaignID:      c.ID,
			Type:            model.InsightTypeBudget,
			Priority:        model.PriorityHigh,
			Title:           TitleBudgetNearlyExhausted,
			Description:     fmt.Sprintf("Campaign has spent %.1f%% of budget", spendRatio*100),
			Recommendation:  "Consider increasing budget to maintain performance",
			EstimatedImpact: "Prevent traffic loss",
			Confidence:      0.9,
		})
	}

	return insights
}

func (e *Engine) analyzePerformance(c *model.Campaign) []model.OptimizationInsight {
	var insights []model.OptimizationInsight

	ctr := c.Metrics.GetNumeric("ctr", 0)
	if ctr > 0 && ctr < 2.0 {
		insights = append(insights, model.OptimizationInsight{
			ID:              fmt.Sprintf("low-ctr-%s", c.ID),
			CampaignID:      c.ID,
			Type:            model.InsightTypePerformance,
			Priority:        model.PriorityMedium,
			Title:           TitleLowCTR,
			Description:     fmt.Sprintf("CTR at %.2f%% is below industry benchmarks", ctr),
			Recommendation:  "Consider refreshing ad copy or improving targeting",
			EstimatedImpact: "15-30% improvement in traffic",
			Confidence:      0.75,
		})
	}

	cpa := c.Metrics.GetNumeric("cpa", 0)
	if cpa > 50 {
		insights = append(insights, model.OptimizationInsight{
			ID:              fmt.Sprintf("high-cpa-%s", c.ID),
			CampaignID:      c.ID,
			Type:            model.InsightTypePerformance,
			Priority:        model.PriorityHigh,
			Title:           TitleHighCPA,
			Description:     fmt.Sprintf("CPA at $%.2f exceeds target thresholds", cpa),
			Recommendation:  "Consider lowering bids, improving landing pages, or refining targeting",
			EstimatedImpact: "20-35% cost reduction possible",
			Confidence:      0.8,
		})
	}

	clicks := c.Metrics.GetNumeric("clicks", 0)
	conversions := c.Metrics.GetNumeric("conversions", 0)
	if clicks > 50 && conversions == 0 {
		insights = append(insights, model.OptimizationInsight{
			ID:              fmt.Sprintf("no-conversions-%s", c.ID),
			CampaignID:      c.ID,
			Type:            model.InsightTypeTargeting,
			Priority:        model.PriorityHigh,
			Title:           TitleNoConversions,
			Description:     fmt.Sprintf("%.0f clicks but no conversions recorded", clicks),
			Recommendation:  "Check conversion tracking and landing page experience",
			EstimatedImpact: "Enable proper performance measurement",
			Confidence:      0.9,
		})
	}

	return insights
}

// calculateOverallScore computes the 0-100 performance score: baseline 50
// with additive adjustments for CTR, conversion rate, budget utilization
// and ROAS, clamped to the valid range.
func (e *Engine) calculateOverallScore(c *model.Campaign) int {
	score := 50

	ctr := c.Metrics.GetNumeric("ctr", 0)
	switch {
	case ctr >= 3.0:
		score += 20
	case ctr >= 2.0:
		score += 10
	case ctr < 1.0:
		score -= 10
	}

	clicks := c.Metrics.GetNumeric("clicks", 0)
	conversions := c.Metrics.GetNumeric("conversions", 0)
	conversionRate := 0.0
	if clicks > 0 {
		conversionRate = conversions / clicks * 100
	}
	switch {
	case conversionRate >= 5.0:
		score += 20
	case conversionRate >= 2.0:
		score += 10
	case conversionRate == 0 && clicks > 10:
		score -= 15
	}

	if c.HasBudget() {
		utilization := c.BudgetUtilization()
		if utilization >= 0.7 && utilization <= 0.95 {
			score += 10
		} else if utilization < 0.3 {
			score -= 10
		}
	}

	roas := c.Metrics.GetNumeric("roas", 0)
	switch {
	case roas >= 4.0:
		score += 15
	case roas >= 2.0:
		score += 5
	case roas < 1.0 && roas > 0:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// analyzeTrends is a stub pending real rolling-window trend computation; it
// currently tags every dimension stable. TODO: compare recent vs prior
// snapshot windows once the snapshot feed is plumbed through here.
func (e *Engine) analyzeTrends(_ *model.Campaign) model.TrendSummary {
	return model.TrendSummary{
		Spending:    model.TrendStable,
		Performance: model.TrendStable,
		Efficiency:  model.TrendStable,
	}
}

func (e *Engine) analyzeBudgetUtilization(c *model.Campaign) model.BudgetUtilization {
	if !c.HasBudget() {
		return model.BudgetUtilization{
			Recommendation: "Set a campaign budget to enable utilization analysis",
		}
	}

	current := c.BudgetUtilization() * 100
	recommendation := "Budget utilization is within optimal range"
	if current < 70 {
		recommendation = "Increase bids or expand targeting to better utilize budget"
	} else if current > 95 {
		recommendation = "Consider increasing budget to prevent traffic loss"
	}

	return model.BudgetUtilization{
		Current:        current,
		Optimal:        85,
		Recommendation: recommendation,
	}
}
