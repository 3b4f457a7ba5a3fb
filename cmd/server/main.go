package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rihlahq/crm-backend/internal/api"
	"github.com/rihlahq/crm-backend/internal/config"
	"github.com/rihlahq/crm-backend/internal/database"
	"github.com/rihlahq/crm-backend/internal/realtime"
	"github.com/rihlahq/crm-backend/internal/repository"
	"github.com/rihlahq/crm-backend/internal/services"
	"github.com/rihlahq/crm-backend/internal/storage"
	"github.com/rihlahq/crm-backend/internal/whatsapp"
)

func main() {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting CRM inbox server")
	cfg.LogConfig(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	mediaStore, err := storage.NewLocalStorage(cfg.MediaStoragePath)
	if err != nil {
		logger.Error("failed to initialize media storage", "error", err)
		os.Exit(1)
	}

	hub := realtime.NewHub(logger)
	go hub.Run()

	broadcasters := realtime.Multi{hub}
	var relay *realtime.AMQPRelay
	if cfg.AMQPURL != "" {
		relay, err = realtime.NewAMQPRelay(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			// The relay mirrors events for other consumers; the inbox
			// stays usable without it.
			logger.Warn("amqp relay unavailable, continuing without it", "error", err)
		} else {
			broadcasters = append(broadcasters, relay)
			defer relay.Close()
		}
	}

	var notifier services.LeadNotifier
	if cfg.NotifySMTPAddr != "" {
		notifier = services.NewSMTPNotifier(services.SMTPNotifierConfig{
			Addr: cfg.NotifySMTPAddr,
			From: cfg.NotifyFrom,
			To:   cfg.NotifyTo,
		})
	}

	provider := whatsapp.NewClient(whatsapp.ClientConfig{
		BaseURL:       cfg.WhatsAppAPIURL,
		PhoneNumberID: cfg.WhatsAppPhoneID,
		AccessToken:   cfg.WhatsAppToken,
	})

	leadRepo := repository.NewLeadRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	inbox := services.NewInboxService(&services.InboxServiceConfig{
		LeadRepo:    leadRepo,
		MessageRepo: messageRepo,
		Provider:    provider,
		Broadcaster: broadcasters,
		MediaStore:  mediaStore,
		Notifier:    notifier,
		Defaults: repository.LeadDefaults{
			SourceID: cfg.DefaultSourceID,
			StageID:  cfg.DefaultStageID,
		},
		Logger: logger,
	})

	e := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Inbox:          inbox,
		MessageRepo:    messageRepo,
		Hub:            hub,
		Logger:         logger,
		VerifyToken:    cfg.WebhookVerifyToken,
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.Origins(),
		RateLimit:      int(cfg.RateLimitRequests),
		RateBurst:      cfg.RateLimitBurst,
		EnableAuth:     cfg.APIKey != "",
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
