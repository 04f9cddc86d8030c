package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/adpilot/backend/internal/config"
	"github.com/adpilot/backend/internal/container"
	"github.com/adpilot/backend/internal/handler"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	// Initialize dependency container
	ctr, err := container.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.adpilot.io"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := ctr.AdsClient().CheckConnection(ctx)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","upstream":%q}`, status.Status)
	})

	// Initialize handlers
	campaignHandler := handler.NewCampaignHandler(ctr.AdsClient(), ctr.OptimizationEngine())
	alertHandler := handler.NewAlertHandler(ctr.AlertEngine(), ctr.Validator())
	automationHandler := handler.NewAutomationHandler(ctr.Orchestrator(), ctr.Scheduler(), ctr.Validator())
	analyticsHandler := handler.NewAnalyticsHandler(ctr.AnalyticsEngine())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Campaigns
		r.Get("/campaigns", campaignHandler.ListCampaigns)
		r.Get("/campaigns/{id}/analysis", campaignHandler.AnalyzeCampaign)
		r.Get("/portfolio/analysis", campaignHandler.AnalyzePortfolio)
		r.Get("/upstream/status", campaignHandler.UpstreamStatus)

		// Alerts
		r.Get("/alerts", alertHandler.ListAlerts)
		r.Post("/alerts/scan", alertHandler.ScanAlerts)
		r.Post("/alerts/predictive", alertHandler.GeneratePredictiveAlerts)
		r.Post("/alerts/dismiss-all", alertHandler.DismissAllAlerts)
		r.Post("/alerts/{id}/dismiss", alertHandler.DismissAlert)
		r.Get("/alerts/rules", alertHandler.ListRules)
		r.Patch("/alerts/rules/{id}", alertHandler.UpdateRule)

		// Sync and automation
		r.Post("/sync", automationHandler.TriggerSync)
		r.Get("/automation/status", automationHandler.GetStatus)
		r.Patch("/automation/config", automationHandler.UpdateConfig)
		r.Post("/automation/emergency-stop", automationHandler.EmergencyStop)
		r.Get("/jobs", automationHandler.ListJobs)

		// Analytics
		r.Get("/analytics", analyticsHandler.GetAnalytics)
	})

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctr.Start(ctx); err != nil {
		logger.Error("failed to start background jobs", "error", err)
		os.Exit(1)
	}

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := ctr.Stop(shutdownCtx); err != nil {
			logger.Error("container shutdown error", "error", err)
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
