// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	AdsAPI       AdsAPIConfig
	Jobs         JobsConfig
	Automation   AutomationConfig
	Alerting     AlertingConfig
	Analytics    AnalyticsConfig
	Notification NotificationConfig
	Logging      LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AdsAPIConfig holds upstream ads backend connection settings.
type AdsAPIConfig struct {
	URL            string
	Enabled        bool
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int
	ResetTimeout  time.Duration
	HalfOpenLimit int
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	SyncSchedule       string
	AlertScanSchedule  string
	PredictiveSchedule string
}

// AutomationConfig holds the initial automation settings.
type AutomationConfig struct {
	EnableAIAnalysis            bool
	EnableAutomaticOptimization bool
	ConfidenceThreshold         float64
	BudgetChangeLimit           float64
	PerformanceThreshold        int
}

// AlertingConfig holds alert engine settings.
type AlertingConfig struct {
	MaxStoredAlerts int
	MetricsDays     int
	PredictionDays  int
	// Placeholder inputs pending real ad-platform impression share data.
	ImpressionShare           float64
	ImpressionShareLostBudget float64
}

// AnalyticsConfig holds analytics engine settings.
type AnalyticsConfig struct {
	CacheTTL time.Duration
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	SlackWebhookURL string
	WebhookURLs     string // comma-separated
	MinSeverity     string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AdsAPI: AdsAPIConfig{
			URL:            getEnv("ADS_API_URL", "http://localhost:8000/api"),
			Enabled:        getEnvBool("ADS_API_ENABLED", true),
			Timeout:        getEnvDuration("ADS_API_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvInt("ADS_API_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvDuration("ADS_API_RETRY_BASE_DELAY", 1*time.Second),
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures:   getEnvInt("CB_MAX_FAILURES", 5),
				ResetTimeout:  getEnvDuration("CB_RESET_TIMEOUT", 30*time.Second),
				HalfOpenLimit: getEnvInt("CB_HALF_OPEN_LIMIT", 1),
			},
		},
		Jobs: JobsConfig{
			SyncSchedule:       getEnv("JOB_INTELLIGENT_SYNC", "0 0 * * * *"),
			AlertScanSchedule:  getEnv("JOB_ALERT_SCAN", "0 */15 * * * *"),
			PredictiveSchedule: getEnv("JOB_PREDICTIVE_ALERTS", "0 30 */4 * * *"),
		},
		Automation: AutomationConfig{
			EnableAIAnalysis: getEnvBool("AUTOMATION_AI_ANALYSIS", true),
			// Safety default: automatic optimization requires explicit opt-in.
			EnableAutomaticOptimization: getEnvBool("AUTOMATION_AUTO_OPTIMIZE", false),
			ConfidenceThreshold:         getEnvFloat("AUTOMATION_CONFIDENCE_THRESHOLD", 0.85),
			BudgetChangeLimit:           getEnvFloat("AUTOMATION_BUDGET_CHANGE_LIMIT", 20),
			PerformanceThreshold:        getEnvInt("AUTOMATION_PERFORMANCE_THRESHOLD", 60),
		},
		Alerting: AlertingConfig{
			MaxStoredAlerts:           getEnvInt("ALERTING_MAX_STORED_ALERTS", 1000),
			MetricsDays:               getEnvInt("ALERTING_METRICS_DAYS", 30),
			PredictionDays:            getEnvInt("ALERTING_PREDICTION_DAYS", 14),
			ImpressionShare:           getEnvFloat("ALERTING_IMPRESSION_SHARE", 0.65),
			ImpressionShareLostBudget: getEnvFloat("ALERTING_IMPRESSION_SHARE_LOST_BUDGET", 0.15),
		},
		Analytics: AnalyticsConfig{
			CacheTTL: getEnvDuration("ANALYTICS_CACHE_TTL", 5*time.Minute),
		},
		Notification: NotificationConfig{
			SlackWebhookURL: getEnv("NOTIFICATION_SLACK_WEBHOOK", ""),
			WebhookURLs:     getEnv("NOTIFICATION_WEBHOOK_URLS", ""),
			MinSeverity:     getEnv("NOTIFICATION_MIN_SEVERITY", "high"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Automation.ConfidenceThreshold < 0 || c.Automation.ConfidenceThreshold > 1 {
		return fmt.Errorf("AUTOMATION_CONFIDENCE_THRESHOLD must be in [0,1]")
	}
	if c.Automation.BudgetChangeLimit < 0 || c.Automation.BudgetChangeLimit > 100 {
		return fmt.Errorf("AUTOMATION_BUDGET_CHANGE_LIMIT must be a percentage in [0,100]")
	}
	if c.Alerting.MaxStoredAlerts < 1 {
		return fmt.Errorf("ALERTING_MAX_STORED_ALERTS must be positive")
	}
	return nil
}

// Addr returns the Redis host:port address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
