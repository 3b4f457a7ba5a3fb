// Package logger provides secure logging for the CRM backend.
package logger

import (
	"log/slog"
	"os"
	"time"
)

// SecurityLogger provides methods for logging security-related events.
// It ensures tokens and credentials are never logged.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new SecurityLogger with JSON output.
func NewSecurityLogger() *SecurityLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// NewSecurityLoggerWithHandler creates a SecurityLogger with a custom handler.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// AuthFailure logs a failed authentication attempt.
// Never logs the actual credentials.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.logger.Warn("authentication_failure",
		slog.String("event_type", "auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// WebhookVerificationFailure logs a rejected webhook handshake. The
// presented token is never logged.
func (s *SecurityLogger) WebhookVerificationFailure(ip, mode string) {
	s.logger.Warn("webhook_verification_failure",
		slog.String("event_type", "webhook_verification"),
		slog.String("ip", ip),
		slog.String("mode", mode),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs when a client exceeds rate limits.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.logger.Warn("rate_limit_exceeded",
		slog.String("event_type", "rate_limit"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// SuspiciousActivity logs potentially malicious activity.
func (s *SecurityLogger) SuspiciousActivity(ip, path, activity string) {
	s.logger.Warn("suspicious_activity",
		slog.String("event_type", "suspicious"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("activity", activity),
		slog.Time("timestamp", time.Now().UTC()),
	)
}
