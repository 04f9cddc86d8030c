package model

// InsightType classifies optimization insights by the lever they act on.
type InsightType string

const (
	InsightTypeBudget      InsightType = "budget"
	InsightTypePerformance InsightType = "performance"
	InsightTypeTargeting   InsightType = "targeting"
	InsightTypeCreative    InsightType = "creative"
)

// OptimizationInsight is a single derived recommendation for a campaign.
// Insights are ephemeral: regenerated fresh on every analysis pass.
type OptimizationInsight struct {
	ID              string      `json:"id"`
	CampaignID      string      `json:"campaign_id"`
	Type            InsightType `json:"type"`
	Priority        Priority    `json:"priority"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Recommendation  string      `json:"recommendation"`
	EstimatedImpact string      `json:"estimated_impact"`
	Confidence      float64     `json:"confidence"`
}

// TrendSummary holds the qualitative trend tags for a campaign.
type TrendSummary struct {
	Spending    Trend `json:"spending"`
	Performance Trend `json:"performance"`
	Efficiency  Trend `json:"efficiency"`
}

// BudgetUtilization bundles current utilization with guidance.
type BudgetUtilization struct {
	Current        float64 `json:"current"`
	Optimal        float64 `json:"optimal"`
	Recommendation string  `json:"recommendation"`
}

// PerformanceAnalysis is the per-campaign scoring result.
type PerformanceAnalysis struct {
	CampaignID        string                `json:"campaign_id"`
	OverallScore      int                   `json:"overall_score"`
	Insights          []OptimizationInsight `json:"insights"`
	Trends            TrendSummary          `json:"trends"`
	BudgetUtilization BudgetUtilization     `json:"budget_utilization"`
}

// PortfolioSummary aggregates analysis results across campaigns.
type PortfolioSummary struct {
	TotalInsights        int                   `json:"total_insights"`
	HighPriorityInsights int                   `json:"high_priority_insights"`
	TopRecommendations   []OptimizationInsight `json:"top_recommendations"`
	PortfolioScore       int                   `json:"portfolio_score"`
}
