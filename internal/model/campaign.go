package model

import (
	"strconv"
	"time"
)

// MetricsBag is the open, loosely-typed metrics map attached to a campaign.
// Upstream platforms deliver values as numbers or numeric strings depending on
// the API version, so lookups go through GetNumeric rather than direct access.
type MetricsBag map[string]any

// GetNumeric returns the numeric value stored at key. Numeric strings are
// parsed; anything missing or unparseable yields the fallback. Never errors.
func (m MetricsBag) GetNumeric(key string, fallback float64) float64 {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// Campaign represents an advertising campaign as delivered by the upstream
// ads backend. Budget is optional; spend may legitimately exceed it.
type Campaign struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Platform   Platform       `json:"platform"`
	ClientName string         `json:"client_name,omitempty"`
	Budget     *float64       `json:"budget,omitempty"`
	Spend      float64        `json:"spend"`
	Status     CampaignStatus `json:"status"`
	Metrics    MetricsBag     `json:"metrics,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// HasBudget reports whether the campaign carries a usable budget (> 0).
func (c *Campaign) HasBudget() bool {
	return c.Budget != nil && *c.Budget > 0
}

// BudgetUtilization returns spend/budget, or 0 when no budget is set.
func (c *Campaign) BudgetUtilization() float64 {
	if !c.HasBudget() {
		return 0
	}
	return c.Spend / *c.Budget
}

// PerformanceSnapshot is one row of daily campaign performance. Slices of
// snapshots are ordered chronologically ascending; the last element is the
// most recent day. Snapshots are produced upstream and never mutated here.
type PerformanceSnapshot struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	Date        string    `json:"date"`
	Spend       float64   `json:"spend"`
	Clicks      float64   `json:"clicks"`
	Impressions float64   `json:"impressions"`
	Conversions float64   `json:"conversions"`
	CTR         float64   `json:"ctr"`
	CPC         float64   `json:"cpc"`
	CPA         float64   `json:"cpa"`
	ROAS        float64   `json:"roas"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConversionRate returns conversions per click, guarding clicks = 0.
func (s *PerformanceSnapshot) ConversionRate() float64 {
	if s.Clicks < 1 {
		return s.Conversions
	}
	return s.Conversions / s.Clicks
}
