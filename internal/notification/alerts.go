package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/adpilot/backend/internal/model"
)

var severityRank = map[model.Severity]int{
	model.SeverityLow:      0,
	model.SeverityMedium:   1,
	model.SeverityHigh:     2,
	model.SeverityCritical: 3,
}

// AlertNotifier forwards campaign alerts that meet a minimum severity to the
// notification service. Plug it into the alert engine as a subscriber.
type AlertNotifier struct {
	service     *Service
	minSeverity model.Severity
}

// NewAlertNotifier builds a notifier. An unknown or empty minSeverity defaults
// to high.
func NewAlertNotifier(service *Service, minSeverity string) *AlertNotifier {
	sev := model.Severity(strings.ToLower(minSeverity))
	if _, ok := severityRank[sev]; !ok {
		sev = model.SeverityHigh
	}
	return &AlertNotifier{service: service, minSeverity: sev}
}

// ShouldNotify reports whether an alert of the given severity passes the
// threshold.
func (n *AlertNotifier) ShouldNotify(severity model.Severity) bool {
	return severityRank[severity] >= severityRank[n.minSeverity]
}

// NotifyAlert delivers the alert to all configured channels if it passes the
// severity threshold.
func (n *AlertNotifier) NotifyAlert(ctx context.Context, alert model.Alert) error {
	if !n.ShouldNotify(alert.Severity) {
		return nil
	}

	eventType := EventAlertFired
	if alert.Type == model.AlertTypePrediction {
		eventType = EventPredictionFired
	}

	data := map[string]any{
		"Campaign": alert.CampaignName,
		"Type":     string(alert.Type),
		"Severity": string(alert.Severity),
	}
	if len(alert.SuggestedActions) > 0 {
		data["Suggested Actions"] = strings.Join(alert.SuggestedActions, "; ")
	}

	return n.service.Send(ctx, Message{
		EventType: eventType,
		Title:     alert.Title,
		Body:      alert.Message,
		Severity:  string(alert.Severity),
		Data:      data,
	})
}

// SendSyncNotification reports a completed (or failed) sync pass.
func (s *Service) SendSyncNotification(ctx context.Context, result model.SyncResult) error {
	severity := "low"
	if !result.Success {
		severity = "high"
	}
	return s.Send(ctx, Message{
		EventType: EventSyncCompleted,
		Title:     "Intelligent Sync Completed",
		Body:      result.Message,
		Severity:  severity,
		Data: map[string]any{
			"Campaigns Updated": result.CampaignsUpdated,
			"Insights":          result.AIInsightsGenerated,
			"Execution Time":    fmt.Sprintf("%.2fs", result.ExecutionTime),
		},
	})
}

// SendEmergencyStopNotification announces that automatic optimization was
// halted.
func (s *Service) SendEmergencyStopNotification(ctx context.Context) error {
	return s.Send(ctx, Message{
		EventType: EventEmergencyStop,
		Title:     "Emergency Stop Activated",
		Body:      "All automatic optimizations have been halted. Analysis and alerting continue.",
		Severity:  "critical",
	})
}
