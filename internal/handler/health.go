package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports service and database liveness.  It is a
// stateless service with an injected storage handle rather than a
// process-wide singleton.
type HealthHandler struct {
	DB *sql.DB
}

// NewHealthHandler constructs a HealthHandler over the given database.
func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

// Health handles GET /healthz.  Load balancers and monitoring systems
// use it to verify that the service is up and can reach its database.
// It returns 200 with {"status":"ok"} when the database answers a
// ping within two seconds, and 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "error": "database unreachable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
