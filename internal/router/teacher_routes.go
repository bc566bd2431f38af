package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/asanahub/yoga-booking/internal/handler"    // teacher handlers
	"github.com/asanahub/yoga-booking/internal/middleware" // JWT + role middlewares
)

// RegisterTeacher registers TEACHER-scoped endpoints under /v1.
// All routes require a valid JWT and TEACHER role.
func RegisterTeacher(e *echo.Echo, t *handler.TeacherHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("TEACHER"),
	)

	// ---- Classes ----
	g.POST("/classes", t.CreateClass)
	// NOTE: Listing classes is handled by the public browse API.  Teacher-scoped
	// listing lives at /v1/my-classes to avoid route conflicts with the
	// public /v1/classes handler.
	g.PUT("/classes/:id", t.UpdateClass)
	g.PATCH("/classes/:id", t.UpdateClass) // allow partial/semantic updates via PATCH as well
	g.DELETE("/classes/:id", t.DeleteClass)
	g.GET("/my-classes", t.ListMyClasses)

	// ---- Rosters ----
	g.GET("/classes/:id/bookings", t.GetRoster) // per-booking roster for a class the teacher owns
}
