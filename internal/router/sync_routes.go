package router

// This file registers the reconciliation routes.  The routes defined here
// allow teachers to force a participant-count sync for one class or for
// every class, and to inspect the audit trail behind past count changes.
// They are separate from the generic teacher routes to keep concerns
// isolated.

import (
	"github.com/labstack/echo/v4"

	"github.com/asanahub/yoga-booking/internal/handler"
	"github.com/asanahub/yoga-booking/internal/middleware"
)

// RegisterSync registers routes that recompute cached participant counts
// from booking rows.  All routes are mounted under /v1 and require a JWT
// token as well as the TEACHER role.  The provided handler supplies the
// reconciliation and audit logic.
func RegisterSync(e *echo.Echo, h *handler.SyncHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("TEACHER"),
	)
	// Recompute the count for a single class
	g.POST("/classes/:id/sync", h.SyncClass)
	// Recompute counts for every class and report the ones that drifted
	g.POST("/sync", h.SyncAll)
	// Audit trail of count changes for a class (?limit= caps the page size)
	g.GET("/classes/:id/audit", h.GetAudit)
}
