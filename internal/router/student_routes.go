package router

import (
	"github.com/labstack/echo/v4"

	"github.com/asanahub/yoga-booking/internal/handler"
	"github.com/asanahub/yoga-booking/internal/middleware"
)

// RegisterStudent registers student-scoped endpoints under /v1.  All routes
// require a valid JWT and the STUDENT role.  Students can book a class,
// cancel their booking, report payment outcomes, check eligibility and list
// their own bookings.
func RegisterStudent(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STUDENT"),
	)
	// Note: GET /v1/classes and GET /v1/classes/:id are registered on the
	// public router so that guests can browse the schedule.  Student-specific
	// endpoints begin here.
	g.POST("/bookings", h.CreateBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
	g.POST("/bookings/:id/payment", h.CompletePayment)
	g.GET("/my-bookings", h.ListMyBookings)

	// Eligibility is a read-only dry run of the booking rules.  It never
	// reserves a spot; clients use it to grey out the book button.
	g.GET("/classes/:id/eligibility", h.CheckEligibility)
}
