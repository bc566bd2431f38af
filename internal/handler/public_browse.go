package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asanahub/yoga-booking/internal/model"
	"github.com/asanahub/yoga-booking/internal/repository"
)

// PublicHandler exposes unauthenticated browse endpoints so guests can
// explore the schedule before registering.  Responses go through the
// Redis response cache middleware when enabled.
type PublicHandler struct {
	Classes *repository.ClassRepo
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(classes *repository.ClassRepo) *PublicHandler {
	if classes == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Classes: classes}
}

// classView is the JSON shape for a class in API responses.  Seats
// remaining is derived so clients need no arithmetic of their own.
type classView struct {
	ID                  uint64 `json:"id"`
	TeacherID           uint64 `json:"teacher_id"`
	Title               string `json:"title"`
	ClassDate           string `json:"class_date"`
	StartTime           string `json:"start_time"`
	DurationMin         uint32 `json:"duration_min"`
	MaxParticipants     uint32 `json:"max_participants"`
	CurrentParticipants uint32 `json:"current_participants"`
	SpotsLeft           uint32 `json:"spots_left"`
	PriceCents          uint32 `json:"price_cents"`
	Level               string `json:"level"`
	ClassType           string `json:"class_type"`
	Location            string `json:"location"`
	IsVirtual           bool   `json:"is_virtual"`
}

func toClassView(cl model.Class) classView {
	var left uint32
	if cl.MaxParticipants > cl.CurrentParticipants {
		left = cl.MaxParticipants - cl.CurrentParticipants
	}
	return classView{
		ID:                  cl.ID,
		TeacherID:           cl.TeacherID,
		Title:               cl.Title,
		ClassDate:           cl.ClassDate.UTC().Format("2006-01-02"),
		StartTime:           cl.StartTime,
		DurationMin:         cl.DurationMin,
		MaxParticipants:     cl.MaxParticipants,
		CurrentParticipants: cl.CurrentParticipants,
		SpotsLeft:           left,
		PriceCents:          cl.PriceCents,
		Level:               cl.Level,
		ClassType:           cl.ClassType,
		Location:            cl.Location,
		IsVirtual:           cl.IsVirtual,
	}
}

func toClassViews(classes []model.Class) []classView {
	out := make([]classView, 0, len(classes))
	for _, cl := range classes {
		out = append(out, toClassView(cl))
	}
	return out
}

// ListClasses handles GET /v1/classes.  It returns upcoming classes,
// soonest first.  The optional ?level= and ?type= query parameters
// filter the result.
func (h *PublicHandler) ListClasses(c echo.Context) error {
	classes, err := h.Classes.ListUpcoming(c.Request().Context(), c.QueryParam("level"), c.QueryParam("type"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load classes"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toClassViews(classes)})
}

// GetClass handles GET /v1/classes/:id.  It returns a single class by
// id, or 404 when it does not exist.
func (h *PublicHandler) GetClass(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	cl, err := h.Classes.GetByID(c.Request().Context(), classID)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load class"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toClassView(cl)})
}
