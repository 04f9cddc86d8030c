package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/jobs"
	"github.com/adpilot/backend/internal/model"
	"github.com/adpilot/backend/internal/optimization"
	"github.com/adpilot/backend/internal/orchestrator"
)

func newAutomationRouter(ads *stubAds, scheduler *jobs.Scheduler) (chi.Router, *orchestrator.Orchestrator) {
	orch := orchestrator.New(ads, optimization.NewEngine(testLogger()), config.AutomationConfig{
		EnableAIAnalysis:            true,
		EnableAutomaticOptimization: false,
		ConfidenceThreshold:         0.75,
		BudgetChangeLimit:           20,
		PerformanceThreshold:        40,
	}, testLogger())
	h := NewAutomationHandler(orch, scheduler, testValidator())

	r := chi.NewRouter()
	r.Post("/sync", h.TriggerSync)
	r.Get("/automation/status", h.GetStatus)
	r.Patch("/automation/config", h.UpdateConfig)
	r.Post("/automation/emergency-stop", h.EmergencyStop)
	r.Get("/jobs", h.ListJobs)
	return r, orch
}

func TestTriggerSync(t *testing.T) {
	ads := &stubAds{campaigns: []model.Campaign{testCampaign("c1", "Search Brand")}}
	r, _ := newAutomationRouter(ads, nil)

	code, body := do(t, r, http.MethodPost, "/sync", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["campaigns_updated"])
}

func TestTriggerSyncConflictWhileRunning(t *testing.T) {
	block := make(chan struct{})
	ads := &stubAds{
		campaigns: []model.Campaign{testCampaign("c1", "Search Brand")},
		block:     block,
	}
	r, orch := newAutomationRouter(ads, nil)

	// Hold the orchestrator busy, then hit the endpoint.
	done := make(chan struct{})
	go func() {
		defer close(done)
		orch.PerformIntelligentSync(context.Background())
	}()
	require.Eventually(t, func() bool {
		return orch.GetAutomationStatus().IsRunning
	}, time.Second, 5*time.Millisecond)

	code, body := do(t, r, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])

	close(block)
	<-done
}

func TestGetAutomationStatus(t *testing.T) {
	r, _ := newAutomationRouter(&stubAds{}, nil)

	code, body := do(t, r, http.MethodGet, "/automation/status", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["is_running"])
	cfg, ok := body["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, cfg["enable_ai_analysis"])
}

func TestUpdateAutomationConfig(t *testing.T) {
	r, _ := newAutomationRouter(&stubAds{}, nil)

	code, body := do(t, r, http.MethodPatch, "/automation/config",
		strings.NewReader(`{"confidence_threshold":0.9}`))

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.9, body["confidence_threshold"])
	assert.Equal(t, true, body["enable_ai_analysis"])
}

func TestUpdateAutomationConfigRejectsBadJSON(t *testing.T) {
	r, _ := newAutomationRouter(&stubAds{}, nil)

	code, _ := do(t, r, http.MethodPatch, "/automation/config", strings.NewReader(`{`))

	require.Equal(t, http.StatusBadRequest, code)
}

func TestEmergencyStop(t *testing.T) {
	r, _ := newAutomationRouter(&stubAds{}, nil)

	code, body := do(t, r, http.MethodPost, "/automation/emergency-stop", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["stopped"])
	cfg, ok := body["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, cfg["enable_automatic_optimization"])
}

func TestListJobs(t *testing.T) {
	scheduler := jobs.NewScheduler(testLogger())
	require.NoError(t, scheduler.Register("alert-scan", "0 */5 * * * *", func(ctx context.Context) error { return nil }))
	r, _ := newAutomationRouter(&stubAds{}, scheduler)

	code, body := do(t, r, http.MethodGet, "/jobs", nil)

	require.Equal(t, http.StatusOK, code)
	jobList, ok := body["jobs"].([]any)
	require.True(t, ok)
	require.Len(t, jobList, 1)
	job := jobList[0].(map[string]any)
	assert.Equal(t, "alert-scan", job["name"])
}

func TestListJobsWithoutScheduler(t *testing.T) {
	r, _ := newAutomationRouter(&stubAds{}, nil)

	code, body := do(t, r, http.MethodGet, "/jobs", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["jobs"])
}
