// Package adsclient provides a client for the upstream ads backend service.
package adsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/model"
)

// ConnectionStatus reports upstream availability.
type ConnectionStatus struct {
	Connected   bool      `json:"connected"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Client provides access to the ads backend. When the upstream is disabled or
// unreachable it serves deterministic demo data so downstream engines keep
// working, mirroring the product's demo mode.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
	enabled    bool
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger

	mu     sync.RWMutex
	status ConnectionStatus
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	mu            sync.Mutex
	failures      int
	maxFailures   int
	state         string // closed, open, half-open
	lastFailure   time.Time
	resetTimeout  time.Duration
	halfOpenLimit int
	halfOpenCount int
}

// NewClient creates a new ads backend client.
func NewClient(cfg config.AdsAPIConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb: &CircuitBreaker{
			maxFailures:   cfg.CircuitBreaker.MaxFailures,
			resetTimeout:  cfg.CircuitBreaker.ResetTimeout,
			halfOpenLimit: cfg.CircuitBreaker.HalfOpenLimit,
			state:         "closed",
		},
		enabled:    cfg.Enabled,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
		logger:     logger,
		status:     ConnectionStatus{Status: "checking"},
	}
}

// CheckConnection probes the upstream status endpoint and records the result.
func (c *Client) CheckConnection(ctx context.Context) ConnectionStatus {
	if !c.enabled {
		return c.setStatus(ConnectionStatus{Connected: false, Status: "disabled", Message: "ads backend disabled, using demo data"})
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/google-ads/status", nil)
	if err != nil {
		return c.setStatus(ConnectionStatus{Connected: false, Status: "error", Message: err.Error()})
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return c.setStatus(ConnectionStatus{Connected: false, Status: "disconnected", Message: "ads integration not deployed, using demo data"})
	}
	if resp.StatusCode != http.StatusOK {
		return c.setStatus(ConnectionStatus{Connected: false, Status: "error", Message: fmt.Sprintf("status check returned %d", resp.StatusCode)})
	}

	var payload struct {
		Connected bool   `json:"connected"`
		Status    string `json:"status"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return c.setStatus(ConnectionStatus{Connected: false, Status: "error", Message: "malformed status response"})
	}

	return c.setStatus(ConnectionStatus{Connected: payload.Connected, Status: payload.Status, Message: payload.Message})
}

// ConnectionStatus returns the last recorded upstream status without probing.
func (c *Client) ConnectionStatus() ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) setStatus(s ConnectionStatus) ConnectionStatus {
	s.LastChecked = time.Now().UTC()
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	return s
}

// FetchCampaigns returns all campaigns from the upstream backend, falling
// back to demo campaigns when the upstream is unavailable.
func (c *Client) FetchCampaigns(ctx context.Context) ([]model.Campaign, error) {
	status := c.CheckConnection(ctx)
	if !status.Connected {
		return DemoCampaigns(time.Now().UTC()), nil
	}

	body, err := c.getWithRetry(ctx, "/google-ads/campaigns")
	if err != nil {
		c.logger.Warn("live campaign fetch failed, falling back to demo data", "error", err)
		return DemoCampaigns(time.Now().UTC()), nil
	}

	var campaigns []model.Campaign
	if err := json.Unmarshal(body, &campaigns); err != nil {
		return nil, fmt.Errorf("failed to decode campaigns: %w", err)
	}
	return campaigns, nil
}

// FetchCampaignMetrics returns up to days of daily snapshots for a campaign,
// chronologically ascending. ROAS is derived for rows the upstream omits it
// on (assumes $100 revenue per conversion, matching the upstream contract).
func (c *Client) FetchCampaignMetrics(ctx context.Context, campaignID string, days int) ([]model.PerformanceSnapshot, error) {
	status := c.ConnectionStatus()
	if status.Status == "checking" {
		status = c.CheckConnection(ctx)
	}
	if !status.Connected {
		return DemoSnapshots(campaignID, days, time.Now().UTC()), nil
	}

	path := fmt.Sprintf("/google-ads/campaigns/%s/metrics?days=%d", campaignID, days)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		c.logger.Warn("live metrics fetch failed, falling back to demo data", "campaign_id", campaignID, "error", err)
		return DemoSnapshots(campaignID, days, time.Now().UTC()), nil
	}

	var snapshots []model.PerformanceSnapshot
	if err := json.Unmarshal(body, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}

	for i := range snapshots {
		s := &snapshots[i]
		if s.ID == "" {
			s.ID = fmt.Sprintf("%s-%s", campaignID, s.Date)
		}
		if s.CampaignID == "" {
			s.CampaignID = campaignID
		}
		if s.ROAS == 0 && s.Spend > 0 {
			s.ROAS = (s.Conversions * 100) / s.Spend
		}
	}
	return snapshots, nil
}

// getWithRetry performs a GET with bounded retry and exponential backoff,
// gated by the circuit breaker. It never blocks past the caller's context.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.cb.Allow(); err != nil {
			return nil, err
		}

		resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			c.cb.RecordFailure()
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.cb.RecordFailure()
			lastErr = fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(body))
			continue
		}
		if readErr != nil {
			c.cb.RecordFailure()
			lastErr = readErr
			continue
		}

		c.cb.RecordSuccess()
		return body, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// CircuitBreaker methods

func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case "open":
		if time.Since(cb.lastFailure) > cb.resetTimeout {
			cb.state = "half-open"
			cb.halfOpenCount = 0
		} else {
			return fmt.Errorf("circuit breaker is open")
		}
	case "half-open":
		if cb.halfOpenCount >= cb.halfOpenLimit {
			return fmt.Errorf("circuit breaker is half-open, limit reached")
		}
		cb.halfOpenCount++
	}

	return nil
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = "closed"
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.failures >= cb.maxFailures {
		cb.state = "open"
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
