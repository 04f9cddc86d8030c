package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/backend/internal/adsclient"
	"github.com/adpilot/backend/internal/model"
)

// stubAds satisfies the campaign, alerting and analytics source interfaces so
// one stub can back any handler under test.
type stubAds struct {
	campaigns []model.Campaign
	snapshots map[string][]model.PerformanceSnapshot
	err       error
	status    adsclient.ConnectionStatus
	block     chan struct{} // when non-nil, FetchCampaigns waits until closed
}

func (s *stubAds) FetchCampaigns(ctx context.Context) ([]model.Campaign, error) {
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.campaigns, nil
}

func (s *stubAds) FetchCampaignMetrics(ctx context.Context, campaignID string, days int) ([]model.PerformanceSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshots[campaignID], nil
}

func (s *stubAds) CheckConnection(ctx context.Context) adsclient.ConnectionStatus {
	return s.status
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func budgetPtr(v float64) *float64 { return &v }

func testCampaign(id, name string) model.Campaign {
	return model.Campaign{
		ID:       id,
		Name:     name,
		Platform: model.PlatformGoogleAds,
		Budget:   budgetPtr(1000),
		Spend:    500,
		Status:   model.CampaignStatusActive,
		Metrics: model.MetricsBag{
			"ctr":             2.5,
			"clicks":          400.0,
			"conversions":     20.0,
			"conversion_rate": 5.0,
			"cpa":             25.0,
			"roas":            2.0,
		},
		CreatedAt: time.Now().AddDate(0, 0, -30),
		UpdatedAt: time.Now(),
	}
}

// do runs a request against a router and decodes the JSON body into a map.
func do(t *testing.T, r chi.Router, method, target string, body io.Reader) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}
