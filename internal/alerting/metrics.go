package alerting

import (
	"math"

	"github.com/adpilot/backend/internal/model"
)

// computeMetrics flattens a campaign plus its snapshot history into the metric
// map rule conditions evaluate against. Snapshots are expected in chronological
// order; change ratios divide by a 0.001 floor so a zero baseline never
// produces NaN or Inf.
func (e *Engine) computeMetrics(c *model.Campaign, snaps []model.PerformanceSnapshot) map[string]float64 {
	latest := snaps[len(snaps)-1]

	var utilization float64
	if c.HasBudget() {
		utilization = c.Spend / *c.Budget
	}

	metrics := map[string]float64{
		"budget_utilization": utilization,
		"impressions":        latest.Impressions,
		"clicks":             latest.Clicks,
		"conversions":        latest.Conversions,
		"ctr":                latest.CTR,
		"cpc":                latest.CPC,
		"cpa":                latest.CPA,
		"roas":               latest.ROAS,
		"conversion_rate":    latest.ConversionRate(),
		// Impression share is not exposed by the upstream metrics feed yet, so
		// these come from configuration until the real values are available.
		"impression_share":             e.impressionShare,
		"impression_share_lost_budget": e.impressionShareLostBudget,
	}

	if len(snaps) >= 2 {
		yesterday := snaps[len(snaps)-2]
		metrics["ctr_change_24h"] = (latest.CTR - yesterday.CTR) / math.Max(yesterday.CTR, 0.001)
		metrics["cpc_change_24h"] = (latest.CPC - yesterday.CPC) / math.Max(yesterday.CPC, 0.001)
		metrics["impressions_change_1h"] = latest.Impressions / math.Max(yesterday.Impressions, 1)
	}

	if len(snaps) >= 8 {
		weekAgo := snaps[len(snaps)-8]
		weekAgoRate := weekAgo.ConversionRate()
		metrics["conversion_rate_change_7d"] = (metrics["conversion_rate"] - weekAgoRate) / math.Max(weekAgoRate, 0.001)
	}

	return metrics
}

// evaluateRule reports whether every condition of the rule holds. A condition
// referencing a metric absent from the map fails closed.
func evaluateRule(rule *model.AlertRule, metrics map[string]float64) bool {
	for _, cond := range rule.Conditions {
		value, ok := metrics[cond.Metric]
		if !ok {
			return false
		}
		if !compare(cond.Operator, value, cond.Value) {
			return false
		}
	}
	return true
}

func compare(op model.Operator, value, threshold float64) bool {
	switch op {
	case model.OperatorGT, model.OperatorChangeGT:
		return value > threshold
	case model.OperatorLT, model.OperatorChangeLT:
		return value < threshold
	case model.OperatorGTE:
		return value >= threshold
	case model.OperatorLTE:
		return value <= threshold
	case model.OperatorEQ:
		return math.Abs(value-threshold) < 0.001
	default:
		return false
	}
}
