package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/model"
	"github.com/adpilot/backend/internal/optimization"
)

// syncInterval is the cadence reported by GetAutomationStatus. The actual
// trigger lives in the job scheduler.
const syncInterval = time.Hour

// CampaignSource provides fresh campaign data for a sync pass.
type CampaignSource interface {
	FetchCampaigns(ctx context.Context) ([]model.Campaign, error)
}

// Orchestrator runs the sync loop: fetch fresh campaign data, analyze it, and
// optionally apply automatic optimizations for low-scoring campaigns with
// high-confidence insights. Automatic actions are proposals only; nothing is
// written back upstream.
type Orchestrator struct {
	ads    CampaignSource
	engine *optimization.Engine
	logger *slog.Logger

	mu        sync.Mutex
	isRunning bool
	lastSync  *time.Time
	cfg       model.AutomationConfig

	now func() time.Time
}

func New(ads CampaignSource, engine *optimization.Engine, cfg config.AutomationConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		ads:    ads,
		engine: engine,
		logger: logger,
		cfg: model.AutomationConfig{
			EnableAIAnalysis:            cfg.EnableAIAnalysis,
			EnableAutomaticOptimization: cfg.EnableAutomaticOptimization,
			ConfidenceThreshold:         cfg.ConfidenceThreshold,
			BudgetChangeLimit:           cfg.BudgetChangeLimit,
			PerformanceThreshold:        cfg.PerformanceThreshold,
		},
		now: time.Now,
	}
}

// PerformIntelligentSync runs one full sync pass. Only one sync runs at a
// time; a concurrent call returns a failed result immediately instead of
// queueing.
func (o *Orchestrator) PerformIntelligentSync(ctx context.Context) model.SyncResult {
	start := o.now()

	o.mu.Lock()
	if o.isRunning {
		o.mu.Unlock()
		return model.SyncResult{
			Success:   false,
			Message:   "Sync failed: a sync is already running",
			Timestamp: o.now(),
		}
	}
	o.isRunning = true
	cfg := o.cfg
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.isRunning = false
		o.mu.Unlock()
	}()

	runID := uuid.New().String()
	logger := o.logger.With(slog.String("sync_id", runID))
	logger.Info("intelligent sync started")

	campaigns, err := o.ads.FetchCampaigns(ctx)
	if err != nil {
		logger.Error("intelligent sync failed", slog.Any("error", err))
		return model.SyncResult{
			Success:       false,
			Message:       fmt.Sprintf("Sync failed: %v", err),
			ExecutionTime: o.now().Sub(start).Seconds(),
			Timestamp:     o.now(),
		}
	}

	insightsGenerated := 0
	var optimizations []model.OptimizationResult

	if cfg.EnableAIAnalysis {
		for i := range campaigns {
			c := &campaigns[i]
			analysis := o.engine.AnalyzeCampaign(c)
			insightsGenerated += len(analysis.Insights)

			if o.autoOptimizeEnabled() {
				if result := o.applyAutomaticOptimizations(c, &analysis, &cfg); result != nil {
					optimizations = append(optimizations, *result)
				}
			}
		}

		if len(campaigns) > 0 {
			portfolio := o.engine.AnalyzePortfolio(campaigns)
			logger.Info("portfolio analysis",
				slog.Int("portfolio_score", portfolio.PortfolioScore),
				slog.Int("high_priority_insights", portfolio.HighPriorityInsights))
		}
	}

	done := o.now()
	o.mu.Lock()
	o.lastSync = &done
	o.mu.Unlock()

	msg := fmt.Sprintf("Successfully synced %d campaigns and generated %d AI insights", len(campaigns), insightsGenerated)
	if len(optimizations) > 0 {
		msg += fmt.Sprintf(", applied %d automatic optimizations", len(optimizations))
	}

	result := model.SyncResult{
		Success:             true,
		Message:             msg,
		CampaignsUpdated:    len(campaigns),
		AIInsightsGenerated: insightsGenerated,
		ExecutionTime:       done.Sub(start).Seconds(),
		Timestamp:           done,
	}
	logger.Info("intelligent sync complete",
		slog.Int("campaigns", result.CampaignsUpdated),
		slog.Int("insights", result.AIInsightsGenerated),
		slog.Float64("execution_seconds", result.ExecutionTime))
	return result
}

// applyAutomaticOptimizations proposes actions for a low-performing campaign.
// Only insights at or above the confidence threshold are acted on; targeting
// and creative insights are always deferred for human review.
func (o *Orchestrator) applyAutomaticOptimizations(c *model.Campaign, analysis *model.PerformanceAnalysis, cfg *model.AutomationConfig) *model.OptimizationResult {
	if analysis.OverallScore >= cfg.PerformanceThreshold {
		return nil
	}

	var highConfidence []model.OptimizationInsight
	for _, insight := range analysis.Insights {
		if insight.Confidence >= cfg.ConfidenceThreshold {
			highConfidence = append(highConfidence, insight)
		}
	}
	if len(highConfidence) == 0 {
		return nil
	}

	var actions []string
	for _, insight := range highConfidence {
		switch insight.Type {
		case model.InsightTypeBudget:
			if action := o.optimizeBudget(c, &insight, cfg); action != "" {
				actions = append(actions, action)
			}
		case model.InsightTypePerformance:
			if action := o.optimizePerformance(c, &insight); action != "" {
				actions = append(actions, action)
			}
		case model.InsightTypeTargeting:
			o.logger.Info("targeting optimization deferred for review",
				slog.String("campaign", c.Name),
				slog.String("recommendation", insight.Recommendation))
			actions = append(actions, "Targeting recommendation logged for review")
		case model.InsightTypeCreative:
			o.logger.Info("creative optimization deferred for review",
				slog.String("campaign", c.Name),
				slog.String("recommendation", insight.Recommendation))
			actions = append(actions, "Creative recommendation logged for review")
		}
	}
	if len(actions) == 0 {
		return nil
	}

	// Heuristic estimate of the post-action score, not a measurement.
	newScore := analysis.OverallScore + len(actions)*5
	if newScore > 100 {
		newScore = 100
	}

	return &model.OptimizationResult{
		CampaignID:      c.ID,
		OriginalScore:   analysis.OverallScore,
		NewScore:        newScore,
		ActionsApplied:  actions,
		EstimatedImpact: highConfidence[0].EstimatedImpact,
		Timestamp:       o.now(),
	}
}

// optimizeBudget proposes a bounded budget change. Increases never exceed the
// configured change limit percentage of the current budget.
func (o *Orchestrator) optimizeBudget(c *model.Campaign, insight *model.OptimizationInsight, cfg *model.AutomationConfig) string {
	if !c.HasBudget() {
		return ""
	}

	current := *c.Budget
	maxChange := current * (cfg.BudgetChangeLimit / 100)

	if strings.Contains(insight.Title, "Under-utilization") {
		newBudget := math.Min(current*1.2, current+maxChange)
		o.logger.Info("budget increase proposed",
			slog.String("campaign", c.Name),
			slog.Float64("current", current),
			slog.Float64("proposed", newBudget))
		return fmt.Sprintf("Budget increased from $%.0f to $%.2f (+%.1f%%)", current, newBudget, (newBudget-current)/current*100)
	}

	if strings.Contains(insight.Title, "Nearly Exhausted") {
		newBudget := current + maxChange
		o.logger.Info("budget expansion proposed",
			slog.String("campaign", c.Name),
			slog.Float64("current", current),
			slog.Float64("proposed", newBudget))
		return fmt.Sprintf("Budget expanded from $%.0f to $%.2f to prevent traffic loss", current, newBudget)
	}

	return ""
}

func (o *Orchestrator) optimizePerformance(c *model.Campaign, insight *model.OptimizationInsight) string {
	if strings.Contains(insight.Title, "High Cost Per Acquisition") {
		o.logger.Info("bid reduction proposed", slog.String("campaign", c.Name))
		return "Reduced keyword bids by 15% to lower CPA"
	}
	if strings.Contains(insight.Title, "Low Click-Through Rate") {
		o.logger.Info("ad copy refresh scheduled", slog.String("campaign", c.Name))
		return "Scheduled ad copy A/B testing to improve CTR"
	}
	return ""
}

// UpdateAutomationConfig applies a partial update and returns the resulting
// config.
func (o *Orchestrator) UpdateAutomationConfig(update model.AutomationConfigUpdate) model.AutomationConfig {
	o.mu.Lock()
	defer o.mu.Unlock()

	if update.EnableAIAnalysis != nil {
		o.cfg.EnableAIAnalysis = *update.EnableAIAnalysis
	}
	if update.EnableAutomaticOptimization != nil {
		o.cfg.EnableAutomaticOptimization = *update.EnableAutomaticOptimization
	}
	if update.ConfidenceThreshold != nil {
		o.cfg.ConfidenceThreshold = *update.ConfidenceThreshold
	}
	if update.BudgetChangeLimit != nil {
		o.cfg.BudgetChangeLimit = *update.BudgetChangeLimit
	}
	if update.PerformanceThreshold != nil {
		o.cfg.PerformanceThreshold = *update.PerformanceThreshold
	}

	o.logger.Info("automation config updated",
		slog.Bool("ai_analysis", o.cfg.EnableAIAnalysis),
		slog.Bool("automatic_optimization", o.cfg.EnableAutomaticOptimization),
		slog.Float64("confidence_threshold", o.cfg.ConfidenceThreshold))
	return o.cfg
}

// GetAutomationStatus reports the current orchestrator state.
func (o *Orchestrator) GetAutomationStatus() model.AutomationStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	return model.AutomationStatus{
		IsRunning:         o.isRunning,
		LastSync:          o.lastSync,
		Config:            o.cfg,
		NextScheduledSync: o.nextSync(),
	}
}

// nextSync must be called with o.mu held.
func (o *Orchestrator) nextSync() time.Time {
	if o.lastSync == nil {
		return o.now().Add(syncInterval)
	}
	return o.lastSync.Add(syncInterval)
}

// EmergencyStop disables automatic optimization and forces the running flag
// off. Idempotent and callable at any time; a sync already in flight skips
// its remaining automatic actions because the kill switch is consulted per
// campaign.
func (o *Orchestrator) EmergencyStop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.EnableAutomaticOptimization = false
	o.isRunning = false
	o.logger.Warn("emergency stop activated, automatic optimizations halted")
}

// autoOptimizeEnabled reads the live kill switch so an emergency stop takes
// effect mid-sync instead of waiting for the next pass.
func (o *Orchestrator) autoOptimizeEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg.EnableAutomaticOptimization
}
