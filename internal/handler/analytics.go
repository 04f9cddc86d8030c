package handler

import (
	"net/http"
	"time"

	"github.com/adpilot/backend/internal/analytics"
	"github.com/adpilot/backend/internal/apierrors"
	"github.com/adpilot/backend/internal/model"
)

// defaultAnalyticsDays is the range served when no bounds are given.
const defaultAnalyticsDays = 7

// AnalyticsHandler handles analytics summary requests.
type AnalyticsHandler struct {
	engine *analytics.Engine
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(engine *analytics.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine}
}

// GetAnalytics handles GET /api/v1/analytics?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	dr, apiErr := parseDateRange(r)
	if apiErr != nil {
		apiErr.Write(w, r)
		return
	}

	metrics, err := h.engine.GetAnalytics(r.Context(), dr)
	if err != nil {
		apierrors.NewServiceUnavailableError("analytics").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func parseDateRange(r *http.Request) (model.DateRange, *apierrors.APIError) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -defaultAnalyticsDays)

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return model.DateRange{}, apierrors.NewBadRequestError("start must be YYYY-MM-DD")
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return model.DateRange{}, apierrors.NewBadRequestError("end must be YYYY-MM-DD")
		}
		end = parsed
	}
	if end.Before(start) {
		return model.DateRange{}, apierrors.NewBadRequestError("end must not precede start")
	}
	return model.DateRange{Start: start, End: end}, nil
}
