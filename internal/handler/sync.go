package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asanahub/yoga-booking/internal/repository"
	"github.com/asanahub/yoga-booking/internal/service"
)

// SyncHandler exposes the count reconciler as an operator tool and
// the per-class audit trail for diagnosis.  Drift correction is not an
// error condition, so these endpoints always answer 200 when the scan
// itself succeeds, reporting what was fixed.
type SyncHandler struct {
	Reconciler *service.CountReconciler
	Audits     *repository.AuditRepo
}

// NewSyncHandler constructs a SyncHandler.
func NewSyncHandler(r *service.CountReconciler, a *repository.AuditRepo) *SyncHandler {
	if r == nil || a == nil {
		panic("nil dependency passed to NewSyncHandler")
	}
	return &SyncHandler{Reconciler: r, Audits: a}
}

// SyncClass handles POST /v1/classes/:id/sync.  It reconciles one
// class's counter against the booking ledger and reports whether a
// correction was applied.
func (h *SyncHandler) SyncClass(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	res, changed, err := h.Reconciler.SyncOne(c.Request().Context(), classID)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sync failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"changed":   changed,
		"old_count": res.OldCount,
		"new_count": res.NewCount,
	})
}

// SyncAll handles POST /v1/sync.  It reconciles every class and
// returns the list of classes whose counters were corrected; classes
// already consistent are not reported.
func (h *SyncHandler) SyncAll(c echo.Context) error {
	fixed, err := h.Reconciler.SyncAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sync failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fixed": fixed})
}

// GetAudit handles GET /v1/classes/:id/audit.  It returns the class's
// participant-count history, newest first.  The optional ?limit= query
// parameter caps the number of rows.
func (h *SyncHandler) GetAudit(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	records, err := h.Audits.ListByClass(c.Request().Context(), classID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load audit trail"})
	}
	items := make([]auditView, 0, len(records))
	for _, rec := range records {
		items = append(items, auditView{
			ID:        rec.ID,
			ClassID:   rec.ClassID,
			StudentID: rec.StudentID,
			BookingID: rec.BookingID,
			Action:    rec.Action,
			OldCount:  rec.OldCount,
			NewCount:  rec.NewCount,
			Reason:    rec.Reason,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// auditView is the JSON shape for one audit record.
type auditView struct {
	ID        uint64  `json:"id"`
	ClassID   uint64  `json:"class_id"`
	StudentID *uint64 `json:"student_id,omitempty"`
	BookingID *uint64 `json:"booking_id,omitempty"`
	Action    string  `json:"action"`
	OldCount  uint32  `json:"old_count"`
	NewCount  uint32  `json:"new_count"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"created_at"`
}
