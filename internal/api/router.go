package api

import (
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rihlahq/crm-backend/internal/api/handlers"
	"github.com/rihlahq/crm-backend/internal/api/middleware"
	"github.com/rihlahq/crm-backend/internal/logger"
	"github.com/rihlahq/crm-backend/internal/realtime"
	"github.com/rihlahq/crm-backend/internal/repository"
	"github.com/rihlahq/crm-backend/internal/services"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	Inbox       *services.InboxService
	MessageRepo repository.MessageRepository
	Hub         *realtime.Hub
	Logger      *slog.Logger
	// Webhook verification
	VerifyToken string
	// Security configuration
	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS and websocket origins
	RateLimit      int      // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
	EnableAuth     bool     // Enable API key authentication
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins...))

	// 4. Rate limiting - use RateLimiterWithConfig if custom values provided
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(float64(cfg.RateLimit), cfg.RateBurst, cfg.Logger))
	} else {
		e.Use(middleware.RateLimiter(cfg.Logger))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	secLog := logger.NewSecurityLogger()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Hub)
	webhookHandler := handlers.NewWebhookHandler(cfg.Inbox, cfg.VerifyToken, secLog, cfg.Logger)
	chatHandler := handlers.NewChatHandler(cfg.Inbox, cfg.MessageRepo)
	sendHandler := handlers.NewSendHandler(cfg.Inbox)
	wsHandler := handlers.NewWSHandler(cfg.Hub, realtime.NewSecureUpgrader(cfg.AllowedOrigins, cfg.Logger), cfg.Logger)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Apply API key authentication if enabled.
	// Provider and websocket routes are exempted inside the middleware.
	if cfg.EnableAuth && cfg.APIKey != "" {
		os.Setenv("API_KEY", cfg.APIKey)
	}
	e.Use(middleware.APIKeyAuth(cfg.Logger))

	// Provider-facing webhook routes
	e.GET("/webhook/messages", webhookHandler.Verify)
	e.POST("/webhook/messages", webhookHandler.Receive)

	// Outbound routes
	e.POST("/webhook/reply", sendHandler.Reply)
	e.POST("/webhook/send-media", sendHandler.SendMedia)

	// Chat routes
	e.GET("/webhook/messages/:leadId", chatHandler.ListThread)
	e.POST("/webhook/messages/:leadId/read", chatHandler.MarkThreadRead)
	e.GET("/webhook/filtered-chats", chatHandler.FilteredChats)
	e.GET("/webhook/unread-counts", chatHandler.UnreadCounts)
	e.GET("/messages/last-message-time/:chatId", chatHandler.LastMessageTime)

	// Realtime
	e.GET("/ws", wsHandler.Serve)

	return e
}
