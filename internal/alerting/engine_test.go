package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/model"
)

type stubSource struct {
	campaigns []model.Campaign
	snapshots map[string][]model.PerformanceSnapshot
	err       error
}

func (s *stubSource) FetchCampaigns(ctx context.Context) ([]model.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.campaigns, nil
}

func (s *stubSource) FetchCampaignMetrics(ctx context.Context, campaignID string, days int) ([]model.PerformanceSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshots[campaignID], nil
}

func testConfig() config.AlertingConfig {
	return config.AlertingConfig{
		MaxStoredAlerts:           1000,
		MetricsDays:               30,
		PredictionDays:            14,
		ImpressionShare:           0.65,
		ImpressionShareLostBudget: 0.15,
	}
}

func newTestEngine(t *testing.T, source Source) *Engine {
	t.Helper()
	return NewEngine(source, testConfig(), slog.New(slog.NewTextHandler(testWriter{t}, nil)))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func budgetPtr(v float64) *float64 { return &v }

// flatSnapshots builds n identical chronological snapshots.
func flatSnapshots(campaignID string, n int, tpl model.PerformanceSnapshot) []model.PerformanceSnapshot {
	out := make([]model.PerformanceSnapshot, n)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		s := tpl
		s.CampaignID = campaignID
		s.Date = base.AddDate(0, 0, i).Format("2006-01-02")
		s.ID = fmt.Sprintf("%s-%s", campaignID, s.Date)
		out[i] = s
	}
	return out
}

func TestBudgetRulesFire(t *testing.T) {
	tests := []struct {
		name         string
		spend        float64
		wantRule     string
		wantSeverity model.Severity
	}{
		{"ninety percent", 920, RuleBudget90Percent, model.SeverityHigh},
		{"exhausted", 1000, RuleBudgetExhausted, model.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := model.Campaign{
				ID: "c1", Name: "Brand", Budget: budgetPtr(1000), Spend: tt.spend,
				Status: model.CampaignStatusActive,
			}
			src := &stubSource{
				campaigns: []model.Campaign{c},
				snapshots: map[string][]model.PerformanceSnapshot{
					"c1": flatSnapshots("c1", 10, model.PerformanceSnapshot{
						Spend: 100, Clicks: 50, Impressions: 1000, Conversions: 2,
						CTR: 5, CPC: 2, CPA: 50, ROAS: 2,
					}),
				},
			}
			engine := newTestEngine(t, src)

			alerts := engine.AnalyzeAllCampaigns(context.Background())

			found := false
			for _, a := range alerts {
				if a.Severity == tt.wantSeverity && a.CampaignID == "c1" {
					found = true
					assert.Contains(t, a.Message, "Brand")
					assert.True(t, a.Actionable)
					assert.NotEmpty(t, a.SuggestedActions)
				}
			}
			assert.True(t, found, "expected %s to fire", tt.wantRule)
		})
	}
}

func TestCTRDropRequiresImpressions(t *testing.T) {
	// CTR halves day over day but impressions stay at 50, below the 100
	// impression floor, so the rule must stay quiet.
	snaps := flatSnapshots("c1", 10, model.PerformanceSnapshot{
		Spend: 100, Clicks: 10, Impressions: 50, CTR: 4, CPC: 1,
	})
	snaps[len(snaps)-1].CTR = 1 // -75% vs yesterday

	src := &stubSource{
		campaigns: []model.Campaign{{ID: "c1", Name: "Brand", Status: model.CampaignStatusActive}},
		snapshots: map[string][]model.PerformanceSnapshot{"c1": snaps},
	}
	engine := newTestEngine(t, src)
	alerts := engine.AnalyzeAllCampaigns(context.Background())

	for _, a := range alerts {
		assert.NotEqual(t, "CTR Dropped Significantly", a.Title)
	}

	// Raise impressions above the floor and the rule fires.
	for i := range snaps {
		snaps[i].Impressions = 500
	}
	engine = newTestEngine(t, src)
	alerts = engine.AnalyzeAllCampaigns(context.Background())

	var ctrAlert *model.Alert
	for i := range alerts {
		if alerts[i].Title == "CTR Dropped Significantly" {
			ctrAlert = &alerts[i]
		}
	}
	require.NotNil(t, ctrAlert)
	assert.Equal(t, model.SeverityMedium, ctrAlert.Severity)
	assert.Contains(t, ctrAlert.Message, "dropped by 75.0%")
}

func TestCooldownSuppressesRepeatFiring(t *testing.T) {
	c := model.Campaign{ID: "c1", Name: "Brand", Budget: budgetPtr(1000), Spend: 950, Status: model.CampaignStatusActive}
	src := &stubSource{
		campaigns: []model.Campaign{c},
		snapshots: map[string][]model.PerformanceSnapshot{
			"c1": flatSnapshots("c1", 10, model.PerformanceSnapshot{Spend: 100, Clicks: 50, Impressions: 1000, CTR: 5, CPC: 2}),
		},
	}
	engine := newTestEngine(t, src)

	t0 := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := t0
	engine.now = func() time.Time { return now }

	first := engine.AnalyzeAllCampaigns(context.Background())
	require.NotEmpty(t, first)

	// A second scan moments later is suppressed by the 360 minute cooldown.
	now = t0.Add(time.Minute)
	second := engine.AnalyzeAllCampaigns(context.Background())
	assert.Empty(t, second)

	// Once the cooldown elapses the rule is eligible again.
	now = t0.Add(361 * time.Minute)
	third := engine.AnalyzeAllCampaigns(context.Background())
	assert.NotEmpty(t, third)
}

func TestCooldownIsPerCampaign(t *testing.T) {
	snaps := func(id string) []model.PerformanceSnapshot {
		return flatSnapshots(id, 10, model.PerformanceSnapshot{Spend: 100, Clicks: 50, Impressions: 1000, CTR: 5, CPC: 2})
	}
	src := &stubSource{
		campaigns: []model.Campaign{
			{ID: "c1", Name: "One", Budget: budgetPtr(1000), Spend: 950, Status: model.CampaignStatusActive},
		},
		snapshots: map[string][]model.PerformanceSnapshot{"c1": snaps("c1"), "c2": snaps("c2")},
	}
	engine := newTestEngine(t, src)
	require.NotEmpty(t, engine.AnalyzeAllCampaigns(context.Background()))

	// A different campaign tripping the same rule is not suppressed.
	src.campaigns = []model.Campaign{
		{ID: "c2", Name: "Two", Budget: budgetPtr(1000), Spend: 950, Status: model.CampaignStatusActive},
	}
	alerts := engine.AnalyzeAllCampaigns(context.Background())
	require.NotEmpty(t, alerts)
	assert.Equal(t, "c2", alerts[0].CampaignID)
}

func TestDisabledRuleNeverFires(t *testing.T) {
	c := model.Campaign{ID: "c1", Name: "Brand", Budget: budgetPtr(1000), Spend: 950, Status: model.CampaignStatusActive}
	src := &stubSource{
		campaigns: []model.Campaign{c},
		snapshots: map[string][]model.PerformanceSnapshot{
			"c1": flatSnapshots("c1", 10, model.PerformanceSnapshot{Spend: 100, Clicks: 50, Impressions: 1000, CTR: 5, CPC: 2}),
		},
	}
	engine := newTestEngine(t, src)

	enabled := false
	_, err := engine.UpdateAlertRule(RuleBudget90Percent, model.AlertRuleUpdate{Enabled: &enabled})
	require.NoError(t, err)

	for _, a := range engine.AnalyzeAllCampaigns(context.Background()) {
		assert.NotEqual(t, "Budget 90% Consumed", a.Title)
	}
}

func TestMissingMetricFailsClosed(t *testing.T) {
	// A single snapshot means no change metrics exist, so rules referencing
	// ctr_change_24h or conversion_rate_change_7d must not fire.
	snaps := flatSnapshots("c1", 1, model.PerformanceSnapshot{
		Spend: 100, Clicks: 500, Impressions: 10000, Conversions: 50, CTR: 0.1, CPC: 5,
	})
	engine := newTestEngine(t, &stubSource{
		campaigns: []model.Campaign{{ID: "c1", Name: "Brand", Status: model.CampaignStatusActive}},
		snapshots: map[string][]model.PerformanceSnapshot{"c1": snaps},
	})

	for _, a := range engine.AnalyzeAllCampaigns(context.Background()) {
		assert.NotContains(t, []string{"CTR Dropped Significantly", "Conversion Rate Declining", "Cost Per Click Spike"}, a.Title)
	}
}

func TestSubscribersReceiveAlertsAndPanicsAreContained(t *testing.T) {
	c := model.Campaign{ID: "c1", Name: "Brand", Budget: budgetPtr(1000), Spend: 950, Status: model.CampaignStatusActive}
	src := &stubSource{
		campaigns: []model.Campaign{c},
		snapshots: map[string][]model.PerformanceSnapshot{
			"c1": flatSnapshots("c1", 10, model.PerformanceSnapshot{Spend: 100, Clicks: 50, Impressions: 1000, CTR: 5, CPC: 2}),
		},
	}
	engine := newTestEngine(t, src)

	var received []model.Alert
	engine.Subscribe(func(model.Alert) { panic("boom") })
	unsubscribe := engine.Subscribe(func(a model.Alert) { received = append(received, a) })

	fired := engine.AnalyzeAllCampaigns(context.Background())
	require.NotEmpty(t, fired)
	assert.Len(t, received, len(fired))

	// After unsubscribing, further alerts are no longer delivered.
	unsubscribe()
	engine.lastFired = map[string]time.Time{}
	engine.AnalyzeAllCampaigns(context.Background())
	assert.Len(t, received, len(fired))
}

func TestGetAlertsFilteringAndOrdering(t *testing.T) {
	engine := newTestEngine(t, &stubSource{})
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	engine.store([]model.Alert{
		{ID: "a1", Type: model.AlertTypeBudget, Severity: model.SeverityHigh, CampaignID: "c1", Timestamp: base},
		{ID: "a2", Type: model.AlertTypePerformance, Severity: model.SeverityMedium, CampaignID: "c2", Timestamp: base.Add(time.Hour)},
		{ID: "a3", Type: model.AlertTypeBudget, Severity: model.SeverityCritical, CampaignID: "c1", Timestamp: base.Add(2 * time.Hour)},
	})

	all := engine.GetAlerts(model.AlertFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a3", "a2", "a1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	byType := engine.GetAlerts(model.AlertFilter{Types: []model.AlertType{model.AlertTypeBudget}})
	assert.Len(t, byType, 2)

	bySeverity := engine.GetAlerts(model.AlertFilter{Severities: []model.Severity{model.SeverityCritical}})
	require.Len(t, bySeverity, 1)
	assert.Equal(t, "a3", bySeverity[0].ID)

	byCampaign := engine.GetAlerts(model.AlertFilter{CampaignID: "c2"})
	require.Len(t, byCampaign, 1)
	assert.Equal(t, "a2", byCampaign[0].ID)
}

func TestDismissal(t *testing.T) {
	engine := newTestEngine(t, &stubSource{})
	engine.store([]model.Alert{
		{ID: "a1", CampaignID: "c1", Timestamp: time.Now()},
		{ID: "a2", CampaignID: "c2", Timestamp: time.Now()},
		{ID: "a3", CampaignID: "c1", Timestamp: time.Now()},
	})

	assert.True(t, engine.DismissAlert("a1"))
	assert.False(t, engine.DismissAlert("missing"))

	active := false
	assert.Len(t, engine.GetAlerts(model.AlertFilter{Dismissed: &active}), 2)

	assert.Equal(t, 1, engine.DismissAllAlerts("c1"))
	assert.Equal(t, 1, engine.DismissAllAlerts(""))
	assert.Empty(t, engine.GetAlerts(model.AlertFilter{Dismissed: &active}))
}

func TestStoreEvictsOldestBeyondLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxStoredAlerts = 3
	engine := NewEngine(&stubSource{}, cfg, slog.New(slog.NewTextHandler(testWriter{t}, nil)))

	for i := 0; i < 5; i++ {
		engine.store([]model.Alert{{ID: fmt.Sprintf("a%d", i), Timestamp: time.Now().Add(time.Duration(i) * time.Second)}})
	}

	alerts := engine.GetAlerts(model.AlertFilter{})
	require.Len(t, alerts, 3)
	assert.Equal(t, "a4", alerts[0].ID)
	assert.Equal(t, "a2", alerts[2].ID)
}

func TestUpdateAlertRuleUnknownID(t *testing.T) {
	engine := newTestEngine(t, &stubSource{})
	_, err := engine.UpdateAlertRule("nope", model.AlertRuleUpdate{})
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestUpdateAlertRulePartial(t *testing.T) {
	engine := newTestEngine(t, &stubSource{})
	cooldown := 30
	name := "Budget Nearly Gone"
	updated, err := engine.UpdateAlertRule(RuleBudget90Percent, model.AlertRuleUpdate{Name: &name, Cooldown: &cooldown})
	require.NoError(t, err)
	assert.Equal(t, "Budget Nearly Gone", updated.Name)
	assert.Equal(t, 30, updated.Cooldown)
	// Untouched fields keep their defaults.
	assert.True(t, updated.Enabled)
	assert.Equal(t, model.SeverityHigh, updated.Severity)
}

func TestUpstreamFailureDegradesToEmpty(t *testing.T) {
	engine := newTestEngine(t, &stubSource{err: fmt.Errorf("upstream down")})
	assert.Empty(t, engine.AnalyzeAllCampaigns(context.Background()))
	assert.Empty(t, engine.GeneratePredictiveAlerts(context.Background()))
}
