package middleware

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// devDashboardOrigin is the fallback when nothing is configured, so local
// frontend development works out of the box.
const devDashboardOrigin = "http://localhost:3000"

// SecureCORS restricts browser access to the configured dashboard origins.
// Origins can be passed explicitly; otherwise the ALLOWED_ORIGINS env var is
// consulted. Wildcard origins are stripped in production.
func SecureCORS(origins ...string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = splitOrigins(os.Getenv("ALLOWED_ORIGINS"))
	}
	if os.Getenv("APP_ENV") == "production" {
		origins = rejectWildcard(origins)
	}
	if len(origins) == 0 {
		origins = []string{devDashboardOrigin}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func rejectWildcard(origins []string) []string {
	kept := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin != "*" {
			kept = append(kept, origin)
		}
	}
	return kept
}
