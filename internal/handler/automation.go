package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/adpilot/backend/internal/jobs"
	"github.com/adpilot/backend/internal/model"
	"github.com/adpilot/backend/internal/orchestrator"
)

// AutomationHandler handles sync and automation control requests.
type AutomationHandler struct {
	orch      *orchestrator.Orchestrator
	scheduler *jobs.Scheduler
	validate  *validator.Validate
}

// NewAutomationHandler creates a new AutomationHandler.
func NewAutomationHandler(orch *orchestrator.Orchestrator, scheduler *jobs.Scheduler, validate *validator.Validate) *AutomationHandler {
	return &AutomationHandler{orch: orch, scheduler: scheduler, validate: validate}
}

// TriggerSync handles POST /api/v1/sync
func (h *AutomationHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result := h.orch.PerformIntelligentSync(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

// GetStatus handles GET /api/v1/automation/status
func (h *AutomationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.GetAutomationStatus())
}

// UpdateConfig handles PATCH /api/v1/automation/config
func (h *AutomationHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update model.AutomationConfigUpdate
	if apiErr := decodeAndValidate(r, h.validate, &update); apiErr != nil {
		apiErr.Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.UpdateAutomationConfig(update))
}

// EmergencyStop handles POST /api/v1/automation/emergency-stop
func (h *AutomationHandler) EmergencyStop(w http.ResponseWriter, r *http.Request) {
	h.orch.EmergencyStop()
	writeJSON(w, http.StatusOK, map[string]any{
		"stopped": true,
		"config":  h.orch.GetAutomationStatus().Config,
	})
}

// ListJobs handles GET /api/v1/jobs
func (h *AutomationHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeJSON(w, http.StatusOK, map[string]any{"jobs": []jobs.JobStatus{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": h.scheduler.Statuses()})
}
