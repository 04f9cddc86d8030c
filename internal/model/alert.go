package model

import (
	"time"
)

// AlertType classifies alerts by origin.
type AlertType string

const (
	AlertTypeBudget      AlertType = "budget"
	AlertTypePerformance AlertType = "performance"
	AlertTypeOpportunity AlertType = "opportunity"
	AlertTypeAnomaly     AlertType = "anomaly"
	AlertTypePrediction  AlertType = "prediction"
)

// Operator compares a computed metric against a rule threshold. ChangeGT and
// ChangeLT apply to pre-computed change ratios and behave exactly like GT/LT.
type Operator string

const (
	OperatorGT       Operator = "gt"
	OperatorLT       Operator = "lt"
	OperatorGTE      Operator = "gte"
	OperatorLTE      Operator = "lte"
	OperatorEQ       Operator = "eq"
	OperatorChangeGT Operator = "change_gt"
	OperatorChangeLT Operator = "change_lt"
)

// Condition is a single metric threshold within a rule.
type Condition struct {
	Metric    string   `json:"metric" validate:"required"`
	Operator  Operator `json:"operator" validate:"required,oneof=gt lt gte lte eq change_gt change_lt"`
	Value     float64  `json:"value"`
	Timeframe string   `json:"timeframe,omitempty"`
}

// AlertRule is a declarative alert definition. A rule fires only when every
// condition holds (logical AND) for the campaign's computed metrics.
type AlertRule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       AlertType   `json:"type"`
	Enabled    bool        `json:"enabled"`
	Conditions []Condition `json:"conditions"`
	Severity   Severity    `json:"severity"`
	Cooldown   int         `json:"cooldown"` // minutes of suppression after firing
}

// AlertRuleUpdate is a partial update applied to an existing rule.
type AlertRuleUpdate struct {
	Name       *string     `json:"name,omitempty"`
	Enabled    *bool       `json:"enabled,omitempty"`
	Conditions []Condition `json:"conditions,omitempty" validate:"omitempty,dive"`
	Severity   *Severity   `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Cooldown   *int        `json:"cooldown,omitempty" validate:"omitempty,min=0"`
}

// Alert is a fired rule instance. Immutable after creation except for the
// dismissed flag.
type Alert struct {
	ID               string             `json:"id"`
	Type             AlertType          `json:"type"`
	Severity         Severity           `json:"severity"`
	Title            string             `json:"title"`
	Message          string             `json:"message"`
	CampaignID       string             `json:"campaign_id,omitempty"`
	CampaignName     string             `json:"campaign_name,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
	Actionable       bool               `json:"actionable"`
	SuggestedActions []string           `json:"suggested_actions,omitempty"`
	Metrics          map[string]float64 `json:"metrics,omitempty"`
	Dismissed        bool               `json:"dismissed"`
}

// AlertFilter narrows alert queries. Zero-value fields are ignored.
type AlertFilter struct {
	Severities []Severity
	Types      []AlertType
	Dismissed  *bool
	CampaignID string
}
