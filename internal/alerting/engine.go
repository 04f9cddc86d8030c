package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/model"
)

// ErrRuleNotFound is returned when a rule update names an unknown rule id.
var ErrRuleNotFound = errors.New("alert rule not found")

// Source provides campaign and snapshot data for alert evaluation.
type Source interface {
	FetchCampaigns(ctx context.Context) ([]model.Campaign, error)
	FetchCampaignMetrics(ctx context.Context, campaignID string, days int) ([]model.PerformanceSnapshot, error)
}

// Subscriber receives every newly fired alert. Callbacks run synchronously on
// the scan goroutine; a panicking subscriber is recovered and logged without
// affecting the scan or other subscribers.
type Subscriber func(model.Alert)

// Engine evaluates alert rules against live campaign metrics, stores fired
// alerts in a bounded in-memory list and fans them out to subscribers.
type Engine struct {
	source Source
	logger *slog.Logger

	maxStoredAlerts           int
	metricsDays               int
	predictionDays            int
	impressionShare           float64
	impressionShareLostBudget float64

	mu          sync.Mutex
	rules       []model.AlertRule
	alerts      []model.Alert
	lastFired   map[string]time.Time // keyed rule id + campaign id
	subscribers map[int]Subscriber
	nextSubID   int

	now func() time.Time
}

// NewEngine builds an engine seeded with the default rule set.
func NewEngine(source Source, cfg config.AlertingConfig, logger *slog.Logger) *Engine {
	return &Engine{
		source:                    source,
		logger:                    logger,
		maxStoredAlerts:           cfg.MaxStoredAlerts,
		metricsDays:               cfg.MetricsDays,
		predictionDays:            cfg.PredictionDays,
		impressionShare:           cfg.ImpressionShare,
		impressionShareLostBudget: cfg.ImpressionShareLostBudget,
		rules:                     defaultRules(),
		lastFired:                 make(map[string]time.Time),
		subscribers:               make(map[int]Subscriber),
		now:                       time.Now,
	}
}

// AnalyzeAllCampaigns runs every enabled rule against every campaign and
// returns the alerts fired by this scan. Upstream failures degrade to an empty
// result; a single bad campaign never aborts the scan.
func (e *Engine) AnalyzeAllCampaigns(ctx context.Context) []model.Alert {
	campaigns, err := e.source.FetchCampaigns(ctx)
	if err != nil {
		e.logger.Error("alert scan aborted, campaign fetch failed", slog.Any("error", err))
		return []model.Alert{}
	}

	newAlerts := []model.Alert{}
	for i := range campaigns {
		fired, err := e.analyzeCampaign(ctx, &campaigns[i])
		if err != nil {
			e.logger.Error("campaign alert analysis failed",
				slog.String("campaign_id", campaigns[i].ID),
				slog.Any("error", err))
			continue
		}
		newAlerts = append(newAlerts, fired...)
	}

	e.store(newAlerts)
	for _, alert := range newAlerts {
		e.notify(alert)
	}

	if len(newAlerts) > 0 {
		e.logger.Info("alert scan complete",
			slog.Int("campaigns", len(campaigns)),
			slog.Int("alerts_fired", len(newAlerts)))
	}
	return newAlerts
}

func (e *Engine) analyzeCampaign(ctx context.Context, c *model.Campaign) ([]model.Alert, error) {
	snaps, err := e.source.FetchCampaignMetrics(ctx, c.ID, e.metricsDays)
	if err != nil {
		return nil, fmt.Errorf("fetch metrics for %s: %w", c.ID, err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	metrics := e.computeMetrics(c, snaps)

	e.mu.Lock()
	defer e.mu.Unlock()

	var fired []model.Alert
	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.Enabled {
			continue
		}
		if e.inCooldown(rule, c.ID) {
			continue
		}
		if !evaluateRule(rule, metrics) {
			continue
		}
		fired = append(fired, e.buildAlert(rule, c, metrics))
		e.lastFired[cooldownKey(rule.ID, c.ID)] = e.now()
	}
	return fired, nil
}

func (e *Engine) buildAlert(rule *model.AlertRule, c *model.Campaign, metrics map[string]float64) model.Alert {
	actions := suggestedActions(rule.ID)
	return model.Alert{
		ID:               fmt.Sprintf("%s-%s-%d", rule.ID, c.ID, e.now().UnixMilli()),
		Type:             rule.Type,
		Severity:         rule.Severity,
		Title:            rule.Name,
		Message:          alertMessage(rule, c, metrics),
		CampaignID:       c.ID,
		CampaignName:     c.Name,
		Timestamp:        e.now(),
		Actionable:       len(actions) > 0,
		SuggestedActions: actions,
		Metrics:          metrics,
	}
}

func cooldownKey(ruleID, campaignID string) string {
	return ruleID + "-" + campaignID
}

// inCooldown must be called with e.mu held.
func (e *Engine) inCooldown(rule *model.AlertRule, campaignID string) bool {
	if rule.Cooldown <= 0 {
		return false
	}
	last, ok := e.lastFired[cooldownKey(rule.ID, campaignID)]
	if !ok {
		return false
	}
	return e.now().Sub(last) < time.Duration(rule.Cooldown)*time.Minute
}

// store appends alerts to the bounded list, evicting oldest first.
func (e *Engine) store(alerts []model.Alert) {
	if len(alerts) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = append(e.alerts, alerts...)
	if excess := len(e.alerts) - e.maxStoredAlerts; excess > 0 {
		e.alerts = append([]model.Alert(nil), e.alerts[excess:]...)
	}
}

// Subscribe registers a callback for newly fired alerts and returns a function
// that removes it.
func (e *Engine) Subscribe(fn Subscriber) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

func (e *Engine) notify(alert model.Alert) {
	e.mu.Lock()
	subs := make([]Subscriber, 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("alert subscriber panicked", slog.Any("panic", r))
				}
			}()
			fn(alert)
		}()
	}
}

// GetAlerts returns stored alerts matching the filter, newest first.
func (e *Engine) GetAlerts(filter model.AlertFilter) []model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := []model.Alert{}
	for _, a := range e.alerts {
		if len(filter.Severities) > 0 && !containsSeverity(filter.Severities, a.Severity) {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, a.Type) {
			continue
		}
		if filter.Dismissed != nil && a.Dismissed != *filter.Dismissed {
			continue
		}
		if filter.CampaignID != "" && a.CampaignID != filter.CampaignID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// DismissAlert marks the alert dismissed. Reports whether the id was found.
// Dismissal is one-way; dismissing an already dismissed alert is a no-op.
func (e *Engine) DismissAlert(alertID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.alerts {
		if e.alerts[i].ID == alertID {
			e.alerts[i].Dismissed = true
			return true
		}
	}
	return false
}

// DismissAllAlerts dismisses every stored alert, or only those for the given
// campaign when campaignID is non-empty. Returns the number of alerts newly
// dismissed.
func (e *Engine) DismissAllAlerts(campaignID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for i := range e.alerts {
		if campaignID != "" && e.alerts[i].CampaignID != campaignID {
			continue
		}
		if !e.alerts[i].Dismissed {
			e.alerts[i].Dismissed = true
			n++
		}
	}
	return n
}

// GetAlertRules returns a copy of the current rule set.
func (e *Engine) GetAlertRules() []model.AlertRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.AlertRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// UpdateAlertRule applies a partial update to the named rule and returns the
// updated rule.
func (e *Engine) UpdateAlertRule(ruleID string, update model.AlertRuleUpdate) (model.AlertRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.rules {
		if e.rules[i].ID != ruleID {
			continue
		}
		rule := &e.rules[i]
		if update.Name != nil {
			rule.Name = *update.Name
		}
		if update.Enabled != nil {
			rule.Enabled = *update.Enabled
		}
		if update.Conditions != nil {
			rule.Conditions = update.Conditions
		}
		if update.Severity != nil {
			rule.Severity = *update.Severity
		}
		if update.Cooldown != nil {
			rule.Cooldown = *update.Cooldown
		}
		return *rule, nil
	}
	return model.AlertRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
}

func containsSeverity(list []model.Severity, s model.Severity) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsType(list []model.AlertType, t model.AlertType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}
