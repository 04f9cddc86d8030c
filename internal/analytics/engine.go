package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adpilot/backend/internal/model"
)

// fetchDays is the raw history pulled per campaign. Wide enough to cover a
// typical two-week range plus the preceding comparison window.
const fetchDays = 30

// Source provides campaign and snapshot data for analytics computation.
type Source interface {
	FetchCampaigns(ctx context.Context) ([]model.Campaign, error)
	FetchCampaignMetrics(ctx context.Context, campaignID string, days int) ([]model.PerformanceSnapshot, error)
}

// CampaignPerformance ranks one campaign inside a summary.
type CampaignPerformance struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	ROAS  float64 `json:"roas"`
	Spend float64 `json:"spend"`
}

// KeywordPerformance is a placeholder until keyword-level data is available
// from the upstream feed.
type KeywordPerformance struct {
	Keyword     string  `json:"keyword"`
	Conversions float64 `json:"conversions"`
	CPA         float64 `json:"cpa"`
}

// Metrics is the full analytics summary for a date range.
type Metrics struct {
	TotalSpend         float64 `json:"total_spend"`
	TotalRevenue       float64 `json:"total_revenue"`
	TotalProfit        float64 `json:"total_profit"`
	OverallROAS        float64 `json:"overall_roas"`
	OverallROI         float64 `json:"overall_roi"` // percent
	CostPerAcquisition float64 `json:"cost_per_acquisition"`
	LifetimeValue      float64 `json:"lifetime_value"`

	TotalImpressions  float64 `json:"total_impressions"`
	TotalClicks       float64 `json:"total_clicks"`
	TotalConversions  float64 `json:"total_conversions"`
	AvgCTR            float64 `json:"avg_click_through_rate"`
	AvgConversionRate float64 `json:"avg_conversion_rate"`
	AvgCPC            float64 `json:"avg_cost_per_click"`

	// Percentage change against the equally sized preceding period.
	SpendTrend      float64 `json:"spend_trend"`
	RevenueTrend    float64 `json:"revenue_trend"`
	ROASTrend       float64 `json:"roas_trend"`
	ConversionTrend float64 `json:"conversion_trend"`

	TopPerformingCampaigns   []CampaignPerformance `json:"top_performing_campaigns"`
	UnderperformingCampaigns []CampaignPerformance `json:"underperforming_campaigns"`
	BestPerformingKeywords   []KeywordPerformance  `json:"best_performing_keywords"`

	ProjectedSpend30d   float64 `json:"projected_spend_30d"`
	ProjectedRevenue30d float64 `json:"projected_revenue_30d"`
	ProjectedROAS30d    float64 `json:"projected_roas_30d"`
	SeasonalityFactor   float64 `json:"seasonality_factor"`
}

// Engine computes analytics summaries with a Redis-backed cache. A cache or
// Redis failure degrades to uncached computation.
type Engine struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(source Source, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Engine {
	return &Engine{source: source, rdb: rdb, ttl: ttl, logger: logger, now: time.Now}
}

func cacheKey(dr model.DateRange) string {
	return fmt.Sprintf("analytics-%s-%s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// GetAnalytics returns the summary for the date range, served from cache when
// a fresh entry exists.
func (e *Engine) GetAnalytics(ctx context.Context, dr model.DateRange) (*Metrics, error) {
	key := cacheKey(dr)

	if e.rdb != nil {
		raw, err := e.rdb.Get(ctx, key).Result()
		switch {
		case err == nil:
			var m Metrics
			if err := json.Unmarshal([]byte(raw), &m); err == nil {
				return &m, nil
			}
			e.logger.Warn("discarding malformed analytics cache entry", slog.String("key", key))
		case err != redis.Nil:
			e.logger.Warn("analytics cache read failed, computing uncached", slog.Any("error", err))
		}
	}

	m, err := e.compute(ctx, dr)
	if err != nil {
		return nil, err
	}

	if e.rdb != nil {
		if raw, err := json.Marshal(m); err == nil {
			if err := e.rdb.Set(ctx, key, raw, e.ttl).Err(); err != nil {
				e.logger.Warn("analytics cache write failed", slog.Any("error", err))
			}
		}
	}
	return m, nil
}

type periodTotals struct {
	spend       float64
	revenue     float64
	impressions float64
	clicks      float64
	conversions float64
}

func (t periodTotals) roas() float64 {
	if t.spend <= 0 {
		return 0
	}
	return t.revenue / t.spend
}

func (e *Engine) compute(ctx context.Context, dr model.DateRange) (*Metrics, error) {
	campaigns, err := e.source.FetchCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch campaigns: %w", err)
	}

	previousRange := precedingPeriod(dr)

	var current, previous periodTotals
	var performance []CampaignPerformance

	for i := range campaigns {
		c := &campaigns[i]
		snaps, err := e.source.FetchCampaignMetrics(ctx, c.ID, fetchDays)
		if err != nil {
			return nil, fmt.Errorf("fetch metrics for %s: %w", c.ID, err)
		}

		inRange := filterByDateRange(snaps, dr)
		inPrevious := filterByDateRange(snaps, previousRange)

		currentTotals := sumPeriod(inRange)
		current.spend += currentTotals.spend
		current.impressions += currentTotals.impressions
		current.clicks += currentTotals.clicks
		current.conversions += currentTotals.conversions

		// Revenue is estimated from the latest observed ROAS of the period.
		latestROAS := 0.0
		if len(inRange) > 0 {
			latestROAS = inRange[len(inRange)-1].ROAS
		}
		current.revenue += currentTotals.spend * latestROAS

		previousTotals := sumPeriod(inPrevious)
		previous.spend += previousTotals.spend
		previous.conversions += previousTotals.conversions
		previousROAS := 0.0
		if len(inPrevious) > 0 {
			previousROAS = inPrevious[len(inPrevious)-1].ROAS
		}
		previous.revenue += previousTotals.spend * previousROAS

		performance = append(performance, CampaignPerformance{
			ID:    c.ID,
			Name:  c.Name,
			ROAS:  latestROAS,
			Spend: currentTotals.spend,
		})
	}

	overallROAS := current.roas()
	overallROI := 0.0
	if current.spend > 0 {
		overallROI = (current.revenue - current.spend) / current.spend * 100
	}
	avgCTR := 0.0
	if current.impressions > 0 {
		avgCTR = current.clicks / current.impressions * 100
	}
	avgConversionRate := 0.0
	avgCPC := 0.0
	if current.clicks > 0 {
		avgConversionRate = current.conversions / current.clicks * 100
		avgCPC = current.spend / current.clicks
	}
	cpa := 0.0
	if current.conversions > 0 {
		cpa = current.spend / current.conversions
	}

	spendTrend := trendPercent(current.spend, previous.spend)
	revenueTrend := trendPercent(current.revenue, previous.revenue)
	roasTrend := trendPercent(overallROAS, previous.roas())
	conversionTrend := trendPercent(current.conversions, previous.conversions)

	sort.SliceStable(performance, func(i, j int) bool {
		return performance[i].ROAS > performance[j].ROAS
	})
	top := performance
	if len(top) > 5 {
		top = top[:5]
	}
	var under []CampaignPerformance
	for _, p := range performance {
		if p.ROAS < overallROAS*0.8 {
			under = append(under, p)
		}
		if len(under) == 5 {
			break
		}
	}

	// Naive projections: extend the current trend and assume 10% growth.
	projectedSpend := current.spend * (1 + spendTrend/100) * 1.1
	projectedRevenue := current.revenue * (1 + revenueTrend/100) * 1.1
	projectedROAS := 0.0
	if projectedSpend > 0 {
		projectedROAS = projectedRevenue / projectedSpend
	}

	return &Metrics{
		TotalSpend:         current.spend,
		TotalRevenue:       current.revenue,
		TotalProfit:        current.revenue - current.spend,
		OverallROAS:        overallROAS,
		OverallROI:         overallROI,
		CostPerAcquisition: cpa,
		LifetimeValue:      cpa * 3.5,

		TotalImpressions:  current.impressions,
		TotalClicks:       current.clicks,
		TotalConversions:  current.conversions,
		AvgCTR:            avgCTR,
		AvgConversionRate: avgConversionRate,
		AvgCPC:            avgCPC,

		SpendTrend:      spendTrend,
		RevenueTrend:    revenueTrend,
		ROASTrend:       roasTrend,
		ConversionTrend: conversionTrend,

		TopPerformingCampaigns:   top,
		UnderperformingCampaigns: under,
		BestPerformingKeywords:   placeholderKeywords(),

		ProjectedSpend30d:   projectedSpend,
		ProjectedRevenue30d: projectedRevenue,
		ProjectedROAS30d:    projectedROAS,
		SeasonalityFactor:   seasonalityFactor(e.now()),
	}, nil
}

func sumPeriod(snaps []model.PerformanceSnapshot) periodTotals {
	var t periodTotals
	for _, s := range snaps {
		t.spend += s.Spend
		t.impressions += s.Impressions
		t.clicks += s.Clicks
		t.conversions += s.Conversions
	}
	return t
}

func filterByDateRange(snaps []model.PerformanceSnapshot, dr model.DateRange) []model.PerformanceSnapshot {
	var out []model.PerformanceSnapshot
	for _, s := range snaps {
		d, err := time.Parse("2006-01-02", s.Date)
		if err != nil {
			continue
		}
		if !d.Before(dr.Start) && !d.After(dr.End) {
			out = append(out, s)
		}
	}
	return out
}

// precedingPeriod returns the equally sized window immediately before dr.
func precedingPeriod(dr model.DateRange) model.DateRange {
	duration := dr.End.Sub(dr.Start)
	return model.DateRange{Start: dr.Start.Add(-duration), End: dr.Start}
}

func trendPercent(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// seasonalityFactor follows typical e-commerce monthly patterns, peaking in
// Q4.
func seasonalityFactor(now time.Time) float64 {
	factors := [12]float64{0.8, 0.7, 0.9, 1.0, 1.1, 1.0, 0.9, 0.9, 1.0, 1.1, 1.3, 1.4}
	return factors[now.Month()-1]
}

func placeholderKeywords() []KeywordPerformance {
	return []KeywordPerformance{
		{Keyword: "marketing automation", Conversions: 45, CPA: 23.50},
		{Keyword: "digital marketing", Conversions: 38, CPA: 28.75},
		{Keyword: "campaign optimization", Conversions: 32, CPA: 31.20},
	}
}
