package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asanahub/yoga-booking/internal/model"
	"github.com/asanahub/yoga-booking/internal/repository"
)

// TeacherHandler lets teachers manage their classes and view class
// rosters.  Capacity and schedule fields are editable here;
// current_participants is not: the counter belongs to the booking
// orchestrator and the reconciler alone.
type TeacherHandler struct {
	Classes  *repository.ClassRepo
	Bookings *repository.BookingRepo
}

// NewTeacherHandler constructs a TeacherHandler and panics if any
// dependency is nil.
func NewTeacherHandler(classes *repository.ClassRepo, bookings *repository.BookingRepo) *TeacherHandler {
	if classes == nil || bookings == nil {
		panic("nil repository passed to NewTeacherHandler")
	}
	return &TeacherHandler{Classes: classes, Bookings: bookings}
}

type classReq struct {
	Title           string `json:"title"`
	ClassDate       string `json:"class_date"` // "YYYY-MM-DD"
	StartTime       string `json:"start_time"` // "HH:MM" or "HH:MM:SS"
	DurationMin     uint32 `json:"duration_min"`
	MaxParticipants uint32 `json:"max_participants"`
	PriceCents      uint32 `json:"price_cents"`
	Level           string `json:"level"`
	ClassType       string `json:"class_type"`
	Location        string `json:"location"`
	IsVirtual       bool   `json:"is_virtual"`
}

func (r *classReq) toModel() (model.Class, string) {
	if strings.TrimSpace(r.Title) == "" {
		return model.Class{}, "title is required"
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.ClassDate))
	if err != nil {
		return model.Class{}, "class_date must be YYYY-MM-DD"
	}
	st := strings.TrimSpace(r.StartTime)
	if _, err := time.Parse("15:04:05", st); err != nil {
		if _, err := time.Parse("15:04", st); err != nil {
			return model.Class{}, "start_time must be HH:MM or HH:MM:SS"
		}
		st += ":00"
	}
	if r.DurationMin == 0 {
		return model.Class{}, "duration_min must be positive"
	}
	if r.MaxParticipants == 0 {
		return model.Class{}, "max_participants must be positive"
	}
	level := strings.ToUpper(strings.TrimSpace(r.Level))
	if level == "" {
		level = "ALL"
	}
	return model.Class{
		Title:           strings.TrimSpace(r.Title),
		ClassDate:       date,
		StartTime:       st,
		DurationMin:     r.DurationMin,
		MaxParticipants: r.MaxParticipants,
		PriceCents:      r.PriceCents,
		Level:           level,
		ClassType:       strings.ToUpper(strings.TrimSpace(r.ClassType)),
		Location:        strings.TrimSpace(r.Location),
		IsVirtual:       r.IsVirtual,
	}, ""
}

// CreateClass handles POST /v1/classes.  The authenticated teacher
// becomes the owner; the participant counter starts at zero.
func (h *TeacherHandler) CreateClass(c echo.Context) error {
	teacherID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cl, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	cl.TeacherID = teacherID
	if err := h.Classes.Create(c.Request().Context(), &cl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create class"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"class_id": cl.ID})
}

// UpdateClass handles PUT /v1/classes/:id.  Only the owning teacher
// may modify a class.
func (h *TeacherHandler) UpdateClass(c echo.Context) error {
	teacherID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cl, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	cl.ID = classID
	if err := h.Classes.Update(c.Request().Context(), teacherID, &cl); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update class"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteClass handles DELETE /v1/classes/:id.  Bookings cascade with
// the class; the audit trail is kept for diagnosis.
func (h *TeacherHandler) DeleteClass(c echo.Context) error {
	teacherID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	if err := h.Classes.Delete(c.Request().Context(), classID, teacherID); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete class"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMyClasses handles GET /v1/my-classes.  It returns all classes
// owned by the current teacher, including the cached participant
// counters.
func (h *TeacherHandler) ListMyClasses(c echo.Context) error {
	teacherID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classes, err := h.Classes.ListByTeacher(c.Request().Context(), teacherID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load classes"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toClassViews(classes)})
}

// GetRoster handles GET /v1/classes/:id/bookings.  It returns every
// booking for a class when accessed by its owner, including cancelled
// ones so the teacher sees the full history.
func (h *TeacherHandler) GetRoster(c echo.Context) error {
	teacherID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	roster, err := h.Bookings.ListByClassForOwner(c.Request().Context(), classID, teacherID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load roster"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": roster})
}
