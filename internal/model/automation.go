package model

import (
	"time"
)

// AutomationConfig holds the process-wide automation settings. Automatic
// optimization ships disabled; enabling it is an explicit operator decision.
type AutomationConfig struct {
	EnableAIAnalysis            bool    `json:"enable_ai_analysis"`
	EnableAutomaticOptimization bool    `json:"enable_automatic_optimization"`
	ConfidenceThreshold         float64 `json:"confidence_threshold"`
	BudgetChangeLimit           float64 `json:"budget_change_limit"`   // max % budget change per action
	PerformanceThreshold        int     `json:"performance_threshold"` // scores below this get optimized
}

// AutomationConfigUpdate is a partial update to the automation config.
type AutomationConfigUpdate struct {
	EnableAIAnalysis            *bool    `json:"enable_ai_analysis,omitempty"`
	EnableAutomaticOptimization *bool    `json:"enable_automatic_optimization,omitempty"`
	ConfidenceThreshold         *float64 `json:"confidence_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	BudgetChangeLimit           *float64 `json:"budget_change_limit,omitempty" validate:"omitempty,min=0,max=100"`
	PerformanceThreshold        *int     `json:"performance_threshold,omitempty" validate:"omitempty,min=0,max=100"`
}

// SyncResult summarizes one intelligent-sync pass. Success=false plus the
// message string is the only failure signal surfaced to callers.
type SyncResult struct {
	Success             bool      `json:"success"`
	Message             string    `json:"message"`
	CampaignsUpdated    int       `json:"campaigns_updated"`
	AIInsightsGenerated int       `json:"ai_insights_generated"`
	ExecutionTime       float64   `json:"execution_time"` // seconds
	Timestamp           time.Time `json:"timestamp"`
}

// OptimizationResult records automatic actions applied (or dry-run proposed)
// for one campaign. NewScore is a heuristic estimate, not a measurement.
type OptimizationResult struct {
	CampaignID      string    `json:"campaign_id"`
	OriginalScore   int       `json:"original_score"`
	NewScore        int       `json:"new_score"`
	ActionsApplied  []string  `json:"actions_applied"`
	EstimatedImpact string    `json:"estimated_impact"`
	Timestamp       time.Time `json:"timestamp"`
}

// AutomationStatus reports the orchestrator's current state.
type AutomationStatus struct {
	IsRunning         bool             `json:"is_running"`
	LastSync          *time.Time       `json:"last_sync,omitempty"`
	Config            AutomationConfig `json:"config"`
	NextScheduledSync time.Time        `json:"next_scheduled_sync"`
}
