package handler_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/asanahub/yoga-booking/internal/handler"
	"github.com/asanahub/yoga-booking/internal/repository"
	"github.com/asanahub/yoga-booking/internal/service"
)

const (
	classLockSQL     = `SELECT id, teacher_id, TIMESTAMP(class_date, start_time), max_participants, current_participants FROM classes WHERE id = ? FOR UPDATE`
	findConfirmedSQL = `SELECT id FROM bookings WHERE student_id = ? AND class_id = ? AND status = 'confirmed' LIMIT 1`
)

func newBookingHandler(t *testing.T) (*handler.BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	classes := repository.NewClassRepo(db)
	bookings := repository.NewBookingRepo(db)
	audits := repository.NewAuditRepo(db)
	orch := service.NewBookingOrchestrator(db, classes, bookings, audits)
	elig := service.NewEligibilityChecker(classes, bookings)
	return handler.NewBookingHandler(orch, elig, bookings), mock
}

// doJSON runs a handler against a synthetic authenticated request and
// returns the recorder.
func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, userID uint64, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func TestCreateBooking_Created(t *testing.T) {
	h, mock := newBookingHandler(t)

	future := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(classLockSQL)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "starts_at", "max", "cur"}).
			AddRow(9, 2, future, 10, 3))
	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bookings`)).
		WithArgs(uint64(5), uint64(9), "confirmed", "pending").
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectCommit()

	rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings", `{"class_id":9}`, 5, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"booking_id":43`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_FullClassConflict(t *testing.T) {
	h, mock := newBookingHandler(t)

	future := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(classLockSQL)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "starts_at", "max", "cur"}).
			AddRow(9, 2, future, 10, 10))
	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings",
		`{"class_id":9,"payment_status":"completed"}`, 5, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "class is full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_UnknownClass(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(classLockSQL)).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings", `{"class_id":404}`, 5, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_MissingClassID(t *testing.T) {
	h, _ := newBookingHandler(t)

	rec := doJSON(t, h.CreateBooking, http.MethodPost, "/v1/bookings", `{}`, 5, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBooking_ForbiddenForOtherStudent(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, student_id, class_id, status, payment_status FROM bookings WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(43)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "class_id", "status", "payment_status"}).
			AddRow(43, 5, 9, "confirmed", "completed"))
	mock.ExpectRollback()

	rec := doJSON(t, h.CancelBooking, http.MethodDelete, "/v1/bookings/43", "", 999,
		map[string]string{"id": "43"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletePayment_NoOpReportsNotUpdated(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, student_id, class_id, status, payment_status FROM bookings WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(43)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "class_id", "status", "payment_status"}).
			AddRow(43, 5, 9, "confirmed", "completed"))
	mock.ExpectRollback()

	rec := doJSON(t, h.CompletePayment, http.MethodPost, "/v1/bookings/43/payment",
		`{"payment_status":"completed"}`, 5, map[string]string{"id": "43"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"updated":false`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckEligibility_FullClass(t *testing.T) {
	h, mock := newBookingHandler(t)

	future := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, teacher_id, TIMESTAMP(class_date, start_time), max_participants, current_participants FROM classes WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "starts_at", "max", "cur"}).
			AddRow(9, 2, future, 10, 10))

	rec := doJSON(t, h.CheckEligibility, http.MethodGet, "/v1/classes/9/eligibility", "", 5,
		map[string]string{"id": "9"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"can_book":false`)
	require.Contains(t, rec.Body.String(), "class is full")
	require.NoError(t, mock.ExpectationsWereMet())
}
