package adsclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(url string) config.AdsAPIConfig {
	return config.AdsAPIConfig{
		URL:            url,
		Enabled:        true,
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		CircuitBreaker: config.CircuitBreakerConfig{MaxFailures: 5, ResetTimeout: time.Second, HalfOpenLimit: 1},
	}
}

func TestFetchCampaignsLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/google-ads/status":
			json.NewEncoder(w).Encode(map[string]any{"connected": true, "status": "connected"})
		case "/google-ads/campaigns":
			budget := 1000.0
			json.NewEncoder(w).Encode([]model.Campaign{
				{ID: "c1", Name: "Live Campaign", Budget: &budget, Spend: 250, Status: model.CampaignStatusActive},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	campaigns, err := c.FetchCampaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "c1", campaigns[0].ID)
	assert.True(t, c.ConnectionStatus().Connected)
}

func TestFetchCampaignsFallsBackToDemoWhenDisconnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	campaigns, err := c.FetchCampaigns(context.Background())
	require.NoError(t, err)
	assert.Len(t, campaigns, 4)
	assert.Equal(t, "disconnected", c.ConnectionStatus().Status)
}

func TestFetchCampaignsDisabledUsesDemo(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.Enabled = false
	c := NewClient(cfg, testLogger())

	campaigns, err := c.FetchCampaigns(context.Background())
	require.NoError(t, err)
	assert.Len(t, campaigns, 4)
	assert.Equal(t, "disabled", c.ConnectionStatus().Status)
}

func TestFetchCampaignMetricsDerivesROAS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/google-ads/status":
			json.NewEncoder(w).Encode(map[string]any{"connected": true, "status": "connected"})
		case "/google-ads/campaigns/c1/metrics":
			json.NewEncoder(w).Encode([]model.PerformanceSnapshot{
				{Date: "2026-08-28", Spend: 100, Clicks: 50, Conversions: 4},
				{Date: "2026-08-29", Spend: 200, Clicks: 80, Conversions: 6},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	c.CheckConnection(context.Background())

	snaps, err := c.FetchCampaignMetrics(context.Background(), "c1", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "c1", snaps[0].CampaignID)
	assert.Equal(t, "c1-2026-08-28", snaps[0].ID)
	assert.InDelta(t, 4.0, snaps[0].ROAS, 1e-9) // 4 conversions * $100 / $100 spend
}

func TestGetWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), testLogger())
	body, err := c.getWithRetry(context.Background(), "/anything")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := &CircuitBreaker{maxFailures: 2, resetTimeout: time.Hour, halfOpenLimit: 1, state: "closed"}

	require.NoError(t, cb.Allow())
	cb.RecordFailure()
	require.NoError(t, cb.Allow())
	cb.RecordFailure()

	assert.Equal(t, "open", cb.State())
	assert.Error(t, cb.Allow())
}

func TestDemoSnapshotsDeterministicAndChronological(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	a := DemoSnapshots("c1", 14, now)
	b := DemoSnapshots("c1", 14, now)
	require.Len(t, a, 14)
	assert.Equal(t, a, b)

	for i := 1; i < len(a); i++ {
		assert.True(t, a[i-1].Date < a[i].Date, "snapshots must be chronologically ascending")
	}
	assert.Equal(t, "2026-08-30", a[len(a)-1].Date)
}
