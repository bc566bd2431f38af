package handler

import (
	"errors"   // errors.Is comparisons against repository sentinels
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/asanahub/yoga-booking/internal/repository"
	"github.com/asanahub/yoga-booking/internal/service"
)

// BookingHandler exposes the booking operations to students.  All
// methods assume that JWT authentication and role validation has
// already been performed by middleware; the caller's identity is read
// from the request context and passed to the orchestrator, which
// enforces ownership on every operation.  The transactional guarantees
// live in the service layer, not here.
type BookingHandler struct {
	Orchestrator *service.BookingOrchestrator
	Eligibility  *service.EligibilityChecker
	Bookings     *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies
// must be non-nil.
func NewBookingHandler(o *service.BookingOrchestrator, e *service.EligibilityChecker, b *repository.BookingRepo) *BookingHandler {
	if o == nil || e == nil || b == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Orchestrator: o, Eligibility: e, Bookings: b}
}

type createBookingReq struct {
	ClassID       uint64 `json:"class_id"`
	Status        string `json:"status"`         // optional, defaults to confirmed
	PaymentStatus string `json:"payment_status"` // optional, defaults to pending
}

// CreateBooking handles POST /v1/bookings.  It books the authenticated
// student into a class.  Precondition failures return 409 with the
// specific reason (full, past, duplicate) so the client can tell the
// user which corrective action applies; 404 is returned when the class
// does not exist.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ClassID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_id is required"})
	}

	bookingID, err := h.Orchestrator.CreateBooking(c.Request().Context(), studentID, req.ClassID, req.Status, req.PaymentStatus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrPastClass),
			errors.Is(err, repository.ErrClassFull),
			errors.Is(err, repository.ErrDuplicateBooking):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking_id": bookingID})
}

// CancelBooking handles DELETE /v1/bookings/:id.  Only the owning
// student may cancel; cancelling an already-cancelled booking returns
// 409.  On success the seat is released and 204 returned.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	if err := h.Orchestrator.CancelBooking(c.Request().Context(), bookingID, studentID); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrAlreadyCancelled):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type paymentReq struct {
	PaymentStatus string `json:"payment_status"`
}

// CompletePayment handles POST /v1/bookings/:id/payment.  The actual
// payment flow is external; this endpoint only records its outcome and
// applies the resulting count delta.  Repeating the same status is a
// no-op reported as updated=false.
func (h *BookingHandler) CompletePayment(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil || req.PaymentStatus == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_status is required"})
	}

	updated, err := h.Orchestrator.CompletePayment(c.Request().Context(), bookingID, studentID, req.PaymentStatus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, service.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": updated})
}

// ListMyBookings handles GET /v1/my-bookings.  It returns all bookings
// created by the current student along with class details.  When no
// bookings exist, it returns an empty array.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByStudent(c.Request().Context(), studentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CheckEligibility handles GET /v1/classes/:id/eligibility.  It runs
// the advisory can-book evaluation for the current student.  The
// result lets the client disable a Book button up front, but the
// orchestrator re-validates everything at booking time.
func (h *BookingHandler) CheckEligibility(c echo.Context) error {
	studentID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	elig, err := h.Eligibility.CanBook(c.Request().Context(), studentID, classID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "eligibility check failed"})
	}
	return c.JSON(http.StatusOK, elig)
}
