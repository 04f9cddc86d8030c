// Package container provides dependency injection.
package container

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/adpilot/backend/internal/adsclient"
	"github.com/adpilot/backend/internal/alerting"
	"github.com/adpilot/backend/internal/analytics"
	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/jobs"
	"github.com/adpilot/backend/internal/model"
	"github.com/adpilot/backend/internal/notification"
	"github.com/adpilot/backend/internal/optimization"
	"github.com/adpilot/backend/internal/orchestrator"
)

// Container holds all application dependencies.
type Container struct {
	cfg    *config.Config
	logger *slog.Logger

	rdb       *redis.Client
	ads       *adsclient.Client
	scheduler *jobs.Scheduler
	validate  *validator.Validate

	// Services
	optEngine       *optimization.Engine
	alertEngine     *alerting.Engine
	orch            *orchestrator.Orchestrator
	analyticsEngine *analytics.Engine
	notifService    *notification.Service
	alertNotifier   *notification.AlertNotifier

	unsubscribe func()
}

// New creates a new dependency container.
func New(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
	}

	// Redis backs the analytics cache. A missing Redis is tolerated; the
	// analytics engine degrades to uncached computation.
	c.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, analytics cache disabled", "addr", cfg.Redis.Addr(), "error", err)
	} else {
		logger.Info("redis connected", "addr", cfg.Redis.Addr())
	}

	// Upstream ads client (falls back to demo data when disconnected).
	c.ads = adsclient.NewClient(cfg.AdsAPI, logger)
	logger.Info("ads client initialized", "url", cfg.AdsAPI.URL, "enabled", cfg.AdsAPI.Enabled)

	// Engines.
	c.optEngine = optimization.NewEngine(logger)
	c.alertEngine = alerting.NewEngine(c.ads, cfg.Alerting, logger)
	c.orch = orchestrator.New(c.ads, c.optEngine, cfg.Automation, logger)
	c.analyticsEngine = analytics.NewEngine(c.ads, c.rdb, cfg.Analytics.CacheTTL, logger)

	// Notification service.
	var webhookURLs []string
	if cfg.Notification.WebhookURLs != "" {
		webhookURLs = strings.Split(cfg.Notification.WebhookURLs, ",")
	}
	c.notifService = notification.NewService(notification.Config{
		SlackWebhookURL: cfg.Notification.SlackWebhookURL,
		WebhookURLs:     webhookURLs,
	}, logger)
	c.alertNotifier = notification.NewAlertNotifier(c.notifService, cfg.Notification.MinSeverity)
	logger.Info("notification service initialized")

	c.scheduler = jobs.NewScheduler(logger)

	return c, nil
}

// Start subscribes notifications, registers background jobs and starts the
// scheduler.
func (c *Container) Start(ctx context.Context) error {
	c.unsubscribe = c.alertEngine.Subscribe(func(alert model.Alert) {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.alertNotifier.NotifyAlert(notifyCtx, alert); err != nil {
			c.logger.Error("alert notification failed", "alert_id", alert.ID, "error", err)
		}
	})

	if err := c.scheduler.Register("intelligent-sync", c.cfg.Jobs.SyncSchedule, c.intelligentSyncJob); err != nil {
		return err
	}
	if err := c.scheduler.Register("alert-scan", c.cfg.Jobs.AlertScanSchedule, c.alertScanJob); err != nil {
		return err
	}
	if err := c.scheduler.Register("predictive-alerts", c.cfg.Jobs.PredictiveSchedule, c.predictiveAlertsJob); err != nil {
		return err
	}

	c.scheduler.Start()

	// Probe the upstream once at startup so the first status query is warm.
	status := c.ads.CheckConnection(ctx)
	c.logger.Info("upstream probe", "status", status.Status, "connected", status.Connected)

	return nil
}

// Stop gracefully stops all components.
func (c *Container) Stop(ctx context.Context) error {
	c.logger.Info("stopping container components")

	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	if c.rdb != nil {
		c.rdb.Close()
	}

	return nil
}

// Accessors

func (c *Container) Config() *config.Config { return c.cfg }

func (c *Container) Logger() *slog.Logger { return c.logger }

func (c *Container) AdsClient() *adsclient.Client { return c.ads }

func (c *Container) OptimizationEngine() *optimization.Engine { return c.optEngine }

func (c *Container) AlertEngine() *alerting.Engine { return c.alertEngine }

func (c *Container) Orchestrator() *orchestrator.Orchestrator { return c.orch }

func (c *Container) AnalyticsEngine() *analytics.Engine { return c.analyticsEngine }

func (c *Container) NotificationService() *notification.Service { return c.notifService }

func (c *Container) Scheduler() *jobs.Scheduler { return c.scheduler }

func (c *Container) Validator() *validator.Validate { return c.validate }

// Background job implementations

func (c *Container) intelligentSyncJob(ctx context.Context) error {
	result := c.orch.PerformIntelligentSync(ctx)
	if !result.Success {
		// Already logged inside the orchestrator; surface for job status.
		c.logger.Warn("scheduled sync did not succeed", "message", result.Message)
	}
	return nil
}

func (c *Container) alertScanJob(ctx context.Context) error {
	alerts := c.alertEngine.AnalyzeAllCampaigns(ctx)
	c.logger.Info("scheduled alert scan done", "alerts_fired", len(alerts))
	return nil
}

func (c *Container) predictiveAlertsJob(ctx context.Context) error {
	alerts := c.alertEngine.GeneratePredictiveAlerts(ctx)
	c.logger.Info("scheduled predictive scan done", "predictions", len(alerts))
	return nil
}
