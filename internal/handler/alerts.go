package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/adpilot/backend/internal/alerting"
	"github.com/adpilot/backend/internal/apierrors"
	"github.com/adpilot/backend/internal/model"
)

// AlertHandler handles alert API requests.
type AlertHandler struct {
	engine   *alerting.Engine
	validate *validator.Validate
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(engine *alerting.Engine, validate *validator.Validate) *AlertHandler {
	return &AlertHandler{engine: engine, validate: validate}
}

// ListAlerts handles GET /api/v1/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := model.AlertFilter{
		CampaignID: r.URL.Query().Get("campaign_id"),
	}

	if raw := r.URL.Query().Get("severity"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Severities = append(filter.Severities, model.Severity(s))
		}
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Types = append(filter.Types, model.AlertType(s))
		}
	}
	if raw := r.URL.Query().Get("dismissed"); raw != "" {
		dismissed, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.NewBadRequestError("dismissed must be a boolean").Write(w, r)
			return
		}
		filter.Dismissed = &dismissed
	}

	alerts := h.engine.GetAlerts(filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// DismissAlert handles POST /api/v1/alerts/{id}/dismiss
func (h *AlertHandler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.engine.DismissAlert(id) {
		apierrors.NewNotFoundError("alert", id).Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dismissed": true})
}

// DismissAllAlerts handles POST /api/v1/alerts/dismiss-all
func (h *AlertHandler) DismissAllAlerts(w http.ResponseWriter, r *http.Request) {
	n := h.engine.DismissAllAlerts(r.URL.Query().Get("campaign_id"))
	writeJSON(w, http.StatusOK, map[string]any{"dismissed_count": n})
}

// ScanAlerts handles POST /api/v1/alerts/scan
func (h *AlertHandler) ScanAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.engine.AnalyzeAllCampaigns(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GeneratePredictiveAlerts handles POST /api/v1/alerts/predictive
func (h *AlertHandler) GeneratePredictiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.engine.GeneratePredictiveAlerts(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// ListRules handles GET /api/v1/alerts/rules
func (h *AlertHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rules": h.engine.GetAlertRules()})
}

// UpdateRule handles PATCH /api/v1/alerts/rules/{id}
func (h *AlertHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update model.AlertRuleUpdate
	if apiErr := decodeAndValidate(r, h.validate, &update); apiErr != nil {
		apiErr.Write(w, r)
		return
	}

	rule, err := h.engine.UpdateAlertRule(id, update)
	if err != nil {
		if errors.Is(err, alerting.ErrRuleNotFound) {
			apierrors.NewNotFoundError("alert rule", id).Write(w, r)
			return
		}
		apierrors.FromError(err).Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}
