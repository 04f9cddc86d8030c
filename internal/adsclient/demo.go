package adsclient

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/adpilot/backend/internal/model"
)

func budgetPtr(v float64) *float64 { return &v }

// DemoCampaigns returns the sample campaign set served when no live ads
// integration is connected.
func DemoCampaigns(now time.Time) []model.Campaign {
	yesterday := now.AddDate(0, 0, -1)

	return []model.Campaign{
		{
			ID:         "gads-brand-001",
			Name:       "Google Ads - Brand Search Campaign",
			Platform:   model.PlatformGoogleAds,
			ClientName: "Demo Client - E-commerce",
			Budget:     budgetPtr(5000),
			Spend:      3420.50,
			Status:     model.CampaignStatusActive,
			Metrics: model.MetricsBag{
				"impressions": 45230.0,
				"clicks":      2341.0,
				"conversions": 127.0,
				"ctr":         5.17,
				"cpc":         1.46,
				"cpa":         26.93,
			},
			CreatedAt: now.AddDate(0, 0, -30),
			UpdatedAt: yesterday,
		},
		{
			ID:         "gads-shopping-002",
			Name:       "Google Shopping - Product Catalog",
			Platform:   model.PlatformGoogleAds,
			ClientName: "Demo Client - E-commerce",
			Budget:     budgetPtr(3000),
			Spend:      2156.75,
			Status:     model.CampaignStatusActive,
			Metrics: model.MetricsBag{
				"impressions": 67890.0,
				"clicks":      1523.0,
				"conversions": 89.0,
				"ctr":         2.24,
				"cpc":         1.42,
				"cpa":         24.23,
			},
			CreatedAt: now.AddDate(0, 0, -25),
			UpdatedAt: yesterday,
		},
		{
			ID:         "gads-display-003",
			Name:       "Google Display - Remarketing Campaign",
			Platform:   model.PlatformGoogleAds,
			ClientName: "Demo Client - E-commerce",
			Budget:     budgetPtr(2000),
			Spend:      1340.25,
			Status:     model.CampaignStatusActive,
			Metrics: model.MetricsBag{
				"impressions": 234567.0,
				"clicks":      892.0,
				"conversions": 34.0,
				"ctr":         0.38,
				"cpc":         1.50,
				"cpa":         39.42,
			},
			CreatedAt: now.AddDate(0, 0, -20),
			UpdatedAt: yesterday,
		},
		{
			ID:         "gads-video-004",
			Name:       "YouTube Ads - Brand Awareness",
			Platform:   model.PlatformGoogleAds,
			ClientName: "Demo Client - E-commerce",
			Budget:     budgetPtr(1500),
			Spend:      892.30,
			Status:     model.CampaignStatusPaused,
			Metrics: model.MetricsBag{
				"impressions": 156789.0,
				"clicks":      445.0,
				"conversions": 18.0,
				"ctr":         0.28,
				"cpc":         2.01,
				"cpa":         49.57,
			},
			CreatedAt: now.AddDate(0, 0, -15),
			UpdatedAt: yesterday,
		},
	}
}

// DemoSnapshots generates days of synthetic daily metrics for a campaign,
// chronologically ascending. The generator is seeded from the campaign ID so
// repeated calls produce the same series.
func DemoSnapshots(campaignID string, days int, now time.Time) []model.PerformanceSnapshot {
	h := fnv.New64a()
	h.Write([]byte(campaignID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	snapshots := make([]model.PerformanceSnapshot, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)

		spend := 100 + rng.Float64()*200
		clicks := math.Floor(spend / (1.2 + rng.Float64()*0.8))
		impressions := math.Floor(clicks * (30 + rng.Float64()*20))
		conversions := math.Floor(clicks * (0.02 + rng.Float64()*0.08))

		spend = math.Round(spend*100) / 100

		var ctr, cpc, cpa, roas float64
		if impressions > 0 {
			ctr = math.Round(clicks/impressions*10000) / 100
		}
		if clicks > 0 {
			cpc = math.Round(spend/clicks*100) / 100
		}
		if conversions > 0 {
			cpa = math.Round(spend/conversions*100) / 100
		}
		if spend > 0 {
			roas = (conversions * 100) / spend
		}

		snapshots = append(snapshots, model.PerformanceSnapshot{
			ID:          fmt.Sprintf("%s-%s", campaignID, date.Format("2006-01-02")),
			CampaignID:  campaignID,
			Date:        date.Format("2006-01-02"),
			Spend:       spend,
			Clicks:      clicks,
			Impressions: impressions,
			Conversions: conversions,
			CTR:         ctr,
			CPC:         cpc,
			CPA:         cpa,
			ROAS:        roas,
			CreatedAt:   now,
		})
	}

	return snapshots
}
