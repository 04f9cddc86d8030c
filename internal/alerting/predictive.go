package alerting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adpilot/backend/internal/model"
)

// GeneratePredictiveAlerts extrapolates short-horizon forecasts from recent
// snapshot history and returns prediction alerts. Predictions are returned and
// stored like rule alerts but bypass cooldown tracking; their ids carry a
// timestamp so repeated runs stay distinguishable.
func (e *Engine) GeneratePredictiveAlerts(ctx context.Context) []model.Alert {
	campaigns, err := e.source.FetchCampaigns(ctx)
	if err != nil {
		e.logger.Error("predictive scan aborted, campaign fetch failed", slog.Any("error", err))
		return []model.Alert{}
	}

	predictions := []model.Alert{}
	for i := range campaigns {
		c := &campaigns[i]
		snaps, err := e.source.FetchCampaignMetrics(ctx, c.ID, e.predictionDays)
		if err != nil {
			e.logger.Error("predictive metrics fetch failed",
				slog.String("campaign_id", c.ID),
				slog.Any("error", err))
			continue
		}
		if len(snaps) < 7 {
			continue
		}
		if a := e.predictBudgetExhaustion(c, snaps); a != nil {
			predictions = append(predictions, *a)
		}
		if a := e.predictPerformanceDecline(c, snaps); a != nil {
			predictions = append(predictions, *a)
		}
	}

	e.store(predictions)
	for _, alert := range predictions {
		e.notify(alert)
	}
	return predictions
}

// predictBudgetExhaustion projects the 7-day average daily spend forward and
// fires when the remaining budget covers 3 days or less.
func (e *Engine) predictBudgetExhaustion(c *model.Campaign, snaps []model.PerformanceSnapshot) *model.Alert {
	if !c.HasBudget() {
		return nil
	}

	var recentSpend float64
	for _, s := range snaps[len(snaps)-7:] {
		recentSpend += s.Spend
	}
	avgDailySpend := recentSpend / 7
	remaining := *c.Budget - c.Spend
	daysUntilExhaustion := remaining / avgDailySpend

	// Positive form so a NaN projection (exhausted budget, zero recent spend)
	// fires nothing instead of producing an unmarshalable alert.
	if !(daysUntilExhaustion > 0 && daysUntilExhaustion <= 3) {
		return nil
	}

	severity := model.SeverityMedium
	if daysUntilExhaustion <= 1 {
		severity = model.SeverityHigh
	}

	return &model.Alert{
		ID:           fmt.Sprintf("prediction-budget-%s-%d", c.ID, e.now().UnixMilli()),
		Type:         model.AlertTypePrediction,
		Severity:     severity,
		Title:        "Budget Exhaustion Predicted",
		Message:      fmt.Sprintf("Campaign %q will exhaust its budget in approximately %.1f days based on current spending trends.", c.Name, daysUntilExhaustion),
		CampaignID:   c.ID,
		CampaignName: c.Name,
		Timestamp:    e.now(),
		Actionable:   true,
		SuggestedActions: []string{
			"Increase campaign budget",
			"Optimize bids to reduce spend",
			"Pause underperforming keywords",
		},
		Metrics: map[string]float64{
			"days_until_exhaustion": daysUntilExhaustion,
			"avg_daily_spend":       avgDailySpend,
			"remaining_budget":      remaining,
		},
	}
}

// predictPerformanceDecline compares the last 5 days of ROAS against the 5
// days before that and fires when the decline reaches 15%.
func (e *Engine) predictPerformanceDecline(c *model.Campaign, snaps []model.PerformanceSnapshot) *model.Alert {
	if len(snaps) < 10 {
		return nil
	}

	recent := snaps[len(snaps)-5:]
	previous := snaps[len(snaps)-10 : len(snaps)-5]

	var recentSum, previousSum float64
	for _, s := range recent {
		recentSum += s.ROAS
	}
	for _, s := range previous {
		previousSum += s.ROAS
	}
	recentAvg := recentSum / 5
	previousAvg := previousSum / 5

	// Tolerance keeps a decline sitting exactly on the boundary from flapping
	// on float rounding.
	decline := (previousAvg - recentAvg) / previousAvg
	if decline < 0.15-1e-9 || recentAvg <= 0 {
		return nil
	}

	severity := model.SeverityMedium
	if decline > 0.3 {
		severity = model.SeverityHigh
	}

	return &model.Alert{
		ID:           fmt.Sprintf("prediction-decline-%s-%d", c.ID, e.now().UnixMilli()),
		Type:         model.AlertTypePrediction,
		Severity:     severity,
		Title:        "Performance Decline Trend",
		Message:      fmt.Sprintf("Campaign %q shows declining ROAS trend. Current 5-day average (%.2f) is %.1f%% lower than previous 5-day average.", c.Name, recentAvg, decline*100),
		CampaignID:   c.ID,
		CampaignName: c.Name,
		Timestamp:    e.now(),
		Actionable:   true,
		SuggestedActions: []string{
			"Review recent changes to campaigns",
			"Analyze competitor activity",
			"Refresh ad creative",
			"Review audience targeting",
		},
		Metrics: map[string]float64{
			"roas_decline_percent": decline * 100,
			"recent_avg_roas":      recentAvg,
			"previous_avg_roas":    previousAvg,
		},
	}
}
