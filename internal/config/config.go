package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// WhatsApp Cloud API. Empty values are allowed at boot; provider calls
	// fail at request time instead, so the inbox can run read-only.
	WhatsAppAPIURL     string
	WhatsAppPhoneID    string
	WhatsAppToken      string
	WebhookVerifyToken string

	// Lead defaults applied by webhook auto-creation
	DefaultSourceID uint
	DefaultStageID  uint

	// Storage
	MediaStoragePath string

	// Realtime relay (optional)
	AMQPURL      string
	AMQPExchange string

	// New-lead notifications (optional)
	NotifySMTPAddr string
	NotifyFrom     string
	NotifyTo       string

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// WhatsApp Cloud API coordinates
	cfg.WhatsAppAPIURL = os.Getenv("WHATSAPP_API_URL")
	if cfg.WhatsAppAPIURL == "" {
		cfg.WhatsAppAPIURL = "https://graph.facebook.com/v18.0"
	}
	cfg.WhatsAppPhoneID = os.Getenv("WHATSAPP_PHONE_NUMBER_ID")
	cfg.WhatsAppToken = os.Getenv("WHATSAPP_ACCESS_TOKEN")
	cfg.WebhookVerifyToken = os.Getenv("WEBHOOK_VERIFY_TOKEN")

	// Lead defaults
	cfg.DefaultSourceID = getEnvUint("DEFAULT_LEAD_SOURCE_ID", 1)
	cfg.DefaultStageID = getEnvUint("DEFAULT_LEAD_STAGE_ID", 1)

	// MEDIA_STORAGE_PATH (default: ./media)
	cfg.MediaStoragePath = os.Getenv("MEDIA_STORAGE_PATH")
	if cfg.MediaStoragePath == "" {
		cfg.MediaStoragePath = "./media"
	}

	// Optional AMQP relay
	cfg.AMQPURL = os.Getenv("AMQP_URL")
	cfg.AMQPExchange = os.Getenv("AMQP_EXCHANGE")
	if cfg.AMQPExchange == "" {
		cfg.AMQPExchange = "crm.realtime"
	}

	// Optional new-lead notifications
	cfg.NotifySMTPAddr = os.Getenv("NOTIFY_SMTP_ADDR")
	cfg.NotifyFrom = os.Getenv("NOTIFY_EMAIL_FROM")
	cfg.NotifyTo = os.Getenv("NOTIFY_EMAIL_TO")

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.MediaStoragePath == "" {
		return fmt.Errorf("MediaStoragePath cannot be empty")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.WebhookVerifyToken == "" {
		return fmt.Errorf("WEBHOOK_VERIFY_TOKEN is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// Origins returns the allowed origins as a slice
func (c *Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("whatsapp_api_url", c.WhatsAppAPIURL),
		slog.Bool("whatsapp_token_set", c.WhatsAppToken != ""),
		slog.Bool("verify_token_set", c.WebhookVerifyToken != ""),
		slog.String("media_path", c.MediaStoragePath),
		slog.Bool("amqp_relay_enabled", c.AMQPURL != ""),
		slog.Bool("lead_notifications_enabled", c.NotifySMTPAddr != ""),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	)
}

func getEnvUint(key string, defaultValue uint) uint {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint(v)
		}
	}
	return defaultValue
}
