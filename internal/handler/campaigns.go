package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adpilot/backend/internal/adsclient"
	"github.com/adpilot/backend/internal/apierrors"
	"github.com/adpilot/backend/internal/model"
	"github.com/adpilot/backend/internal/optimization"
)

// CampaignSource provides campaign data and upstream health.
type CampaignSource interface {
	FetchCampaigns(ctx context.Context) ([]model.Campaign, error)
	CheckConnection(ctx context.Context) adsclient.ConnectionStatus
}

// CampaignHandler handles campaign and portfolio analysis requests.
type CampaignHandler struct {
	ads    CampaignSource
	engine *optimization.Engine
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(ads CampaignSource, engine *optimization.Engine) *CampaignHandler {
	return &CampaignHandler{ads: ads, engine: engine}
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.ads.FetchCampaigns(r.Context())
	if err != nil {
		apierrors.NewServiceUnavailableError("campaign data").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// AnalyzeCampaign handles GET /api/v1/campaigns/{id}/analysis
func (h *CampaignHandler) AnalyzeCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	campaigns, err := h.ads.FetchCampaigns(r.Context())
	if err != nil {
		apierrors.NewServiceUnavailableError("campaign data").Write(w, r)
		return
	}

	for i := range campaigns {
		if campaigns[i].ID == id {
			writeJSON(w, http.StatusOK, h.engine.AnalyzeCampaign(&campaigns[i]))
			return
		}
	}
	apierrors.NewNotFoundError("campaign", id).Write(w, r)
}

// AnalyzePortfolio handles GET /api/v1/portfolio/analysis
func (h *CampaignHandler) AnalyzePortfolio(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.ads.FetchCampaigns(r.Context())
	if err != nil {
		apierrors.NewServiceUnavailableError("campaign data").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.AnalyzePortfolio(campaigns))
}

// UpstreamStatus handles GET /api/v1/upstream/status
func (h *CampaignHandler) UpstreamStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ads.CheckConnection(r.Context()))
}
