package alerting

import (
	"fmt"
	"math"

	"github.com/adpilot/backend/internal/model"
)

// Default rule ids. Alert messages and suggested actions are keyed on these.
const (
	RuleBudget90Percent         = "budget-90-percent"
	RuleBudgetExhausted         = "budget-exhausted"
	RuleCTRDropSignificant      = "ctr-drop-significant"
	RuleConversionRateDrop      = "conversion-rate-drop"
	RuleCPCSpike                = "cpc-spike"
	RuleLowImpressionShare      = "low-impression-share"
	RuleHighPerformingLowBudget = "high-performing-low-budget"
	RuleAnomalyTrafficSpike     = "anomaly-traffic-spike"
)

// defaultRules seeds the engine's rule set. Ids, conditions, severities and
// cooldowns are part of the product contract; changing them changes which
// alerts customers see.
func defaultRules() []model.AlertRule {
	return []model.AlertRule{
		{
			ID:      RuleBudget90Percent,
			Name:    "Budget 90% Consumed",
			Type:    model.AlertTypeBudget,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "budget_utilization", Operator: model.OperatorGTE, Value: 0.9},
			},
			Severity: model.SeverityHigh,
			Cooldown: 360,
		},
		{
			ID:      RuleBudgetExhausted,
			Name:    "Budget Exhausted",
			Type:    model.AlertTypeBudget,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "budget_utilization", Operator: model.OperatorGTE, Value: 1.0},
			},
			Severity: model.SeverityCritical,
			Cooldown: 60,
		},
		{
			ID:      RuleCTRDropSignificant,
			Name:    "CTR Dropped Significantly",
			Type:    model.AlertTypePerformance,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "ctr_change_24h", Operator: model.OperatorLT, Value: -0.3},
				{Metric: "impressions", Operator: model.OperatorGT, Value: 100},
			},
			Severity: model.SeverityMedium,
			Cooldown: 720,
		},
		{
			ID:      RuleConversionRateDrop,
			Name:    "Conversion Rate Declining",
			Type:    model.AlertTypePerformance,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "conversion_rate_change_7d", Operator: model.OperatorLT, Value: -0.25},
				{Metric: "conversions", Operator: model.OperatorGT, Value: 5},
			},
			Severity: model.SeverityHigh,
			Cooldown: 1440,
		},
		{
			ID:      RuleCPCSpike,
			Name:    "Cost Per Click Spike",
			Type:    model.AlertTypePerformance,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "cpc_change_24h", Operator: model.OperatorGT, Value: 0.5},
				{Metric: "clicks", Operator: model.OperatorGT, Value: 20},
			},
			Severity: model.SeverityMedium,
			Cooldown: 480,
		},
		{
			ID:      RuleLowImpressionShare,
			Name:    "Low Impression Share Opportunity",
			Type:    model.AlertTypeOpportunity,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "impression_share", Operator: model.OperatorLT, Value: 0.3},
				{Metric: "roas", Operator: model.OperatorGT, Value: 3.0},
			},
			Severity: model.SeverityMedium,
			Cooldown: 2880,
		},
		{
			ID:      RuleHighPerformingLowBudget,
			Name:    "High Performing Campaign - Budget Opportunity",
			Type:    model.AlertTypeOpportunity,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "roas", Operator: model.OperatorGT, Value: 4.0},
				{Metric: "budget_utilization", Operator: model.OperatorGT, Value: 0.8},
				{Metric: "impression_share_lost_budget", Operator: model.OperatorGT, Value: 0.2},
			},
			Severity: model.SeverityHigh,
			Cooldown: 1440,
		},
		{
			ID:      RuleAnomalyTrafficSpike,
			Name:    "Unusual Traffic Spike Detected",
			Type:    model.AlertTypeAnomaly,
			Enabled: true,
			Conditions: []model.Condition{
				{Metric: "impressions_change_1h", Operator: model.OperatorGT, Value: 3.0},
			},
			Severity: model.SeverityMedium,
			Cooldown: 180,
		},
	}
}

// suggestedActions maps a fired rule to its remediation checklist.
func suggestedActions(ruleID string) []string {
	switch ruleID {
	case RuleBudget90Percent:
		return []string{
			"Review campaign performance before budget exhaustion",
			"Consider increasing budget if ROAS is positive",
			"Pause underperforming ad groups",
		}
	case RuleBudgetExhausted:
		return []string{
			"Increase daily budget immediately",
			"Reallocate budget from underperforming campaigns",
			"Review bid strategies",
		}
	case RuleCTRDropSignificant:
		return []string{
			"Review ad copy relevance",
			"Check for new competitors",
			"Update ad creative",
			"Review keyword targeting",
		}
	case RuleConversionRateDrop:
		return []string{
			"Audit landing page experience",
			"Review audience targeting",
			"Check for technical issues",
			"Analyze conversion funnel",
		}
	case RuleLowImpressionShare:
		return []string{
			"Increase bids for high-performing keywords",
			"Expand keyword targeting",
			"Increase campaign budget",
		}
	case RuleHighPerformingLowBudget:
		return []string{
			"Increase budget allocation",
			"Expand to similar audiences",
			"Scale successful ad groups",
		}
	default:
		return nil
	}
}

// alertMessage renders the human-readable message for a fired rule.
func alertMessage(rule *model.AlertRule, c *model.Campaign, metrics map[string]float64) string {
	switch rule.ID {
	case RuleBudget90Percent:
		return fmt.Sprintf("Campaign %q has used %.1f%% of its daily budget.", c.Name, metrics["budget_utilization"]*100)
	case RuleBudgetExhausted:
		return fmt.Sprintf("Campaign %q has exhausted its daily budget and stopped serving ads.", c.Name)
	case RuleCTRDropSignificant:
		return fmt.Sprintf("Campaign %q CTR dropped by %.1f%% in the last 24 hours.", c.Name, math.Abs(metrics["ctr_change_24h"]*100))
	case RuleConversionRateDrop:
		return fmt.Sprintf("Campaign %q conversion rate declined by %.1f%% over the past week.", c.Name, math.Abs(metrics["conversion_rate_change_7d"]*100))
	case RuleCPCSpike:
		return fmt.Sprintf("Campaign %q cost per click increased by %.1f%% in the last 24 hours.", c.Name, metrics["cpc_change_24h"]*100)
	case RuleLowImpressionShare:
		return fmt.Sprintf("Campaign %q has low impression share (%.1f%%) despite strong ROAS.", c.Name, metrics["impression_share"]*100)
	case RuleHighPerformingLowBudget:
		return fmt.Sprintf("Campaign %q is performing well (ROAS: %.2f) but limited by budget.", c.Name, metrics["roas"])
	case RuleAnomalyTrafficSpike:
		return fmt.Sprintf("Campaign %q experiencing unusual traffic spike - impressions increased %.1f%%.", c.Name, (metrics["impressions_change_1h"]-1)*100)
	default:
		return fmt.Sprintf("Alert triggered for campaign %q.", c.Name)
	}
}
