package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rihlahq/crm-backend/internal/realtime"
	"gorm.io/gorm"
)

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Clients  int               `json:"websocket_clients"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	services := make(map[string]string)
	status := "healthy"

	// Check database connection
	sqlDB, err := h.db.DB()
	if err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	clients := 0
	if h.hub != nil {
		clients = h.hub.ClientCount()
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:   status,
		Services: services,
		Clients:  clients,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database connection failed",
		})
	}

	if err := sqlDB.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}
