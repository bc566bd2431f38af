package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/asanahub/yoga-booking/internal/repository"
)

const classSnapshotSQL = `SELECT id, teacher_id, TIMESTAMP(class_date, start_time), max_participants, current_participants FROM classes WHERE id = ?`

func newChecker(t *testing.T) (*EligibilityChecker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := NewEligibilityChecker(repository.NewClassRepo(db), repository.NewBookingRepo(db))
	e.now = func() time.Time { return testNow }
	return e, mock
}

func TestCanBook_ExistingBookingWins(t *testing.T) {
	e, mock := newChecker(t)

	// The duplicate check runs first, so the class is never loaded.
	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	el, err := e.CanBook(context.Background(), 5, 9)
	require.NoError(t, err)
	require.False(t, el.CanBook)
	require.Equal(t, "already booked", el.Reason)
	require.NotNil(t, el.BookingID)
	require.Equal(t, uint64(7), *el.BookingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCanBook_ClassNotFound(t *testing.T) {
	e, mock := newChecker(t)

	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(classSnapshotSQL)).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	el, err := e.CanBook(context.Background(), 5, 404)
	require.NoError(t, err)
	require.False(t, el.CanBook)
	require.Equal(t, "class not found", el.Reason)
	require.Nil(t, el.CurrentParticipants)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCanBook_PastClass(t *testing.T) {
	e, mock := newChecker(t)

	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(classSnapshotSQL)).
		WithArgs(uint64(9)).
		WillReturnRows(classRow(9, 2, testNow.Add(-time.Hour), 10, 3))

	el, err := e.CanBook(context.Background(), 5, 9)
	require.NoError(t, err)
	require.False(t, el.CanBook)
	require.Equal(t, "cannot book past classes", el.Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCanBook_ClassFull(t *testing.T) {
	e, mock := newChecker(t)

	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(classSnapshotSQL)).
		WithArgs(uint64(9)).
		WillReturnRows(classRow(9, 2, testNow.Add(time.Hour), 10, 10))

	el, err := e.CanBook(context.Background(), 5, 9)
	require.NoError(t, err)
	require.False(t, el.CanBook)
	require.Equal(t, "class is full", el.Reason)
	require.Equal(t, uint32(10), *el.CurrentParticipants)
	require.Equal(t, uint32(10), *el.MaxParticipants)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCanBook_Eligible(t *testing.T) {
	e, mock := newChecker(t)

	mock.ExpectQuery(regexp.QuoteMeta(findConfirmedSQL)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(classSnapshotSQL)).
		WithArgs(uint64(9)).
		WillReturnRows(classRow(9, 2, testNow.Add(time.Hour), 10, 3))

	el, err := e.CanBook(context.Background(), 5, 9)
	require.NoError(t, err)
	require.True(t, el.CanBook)
	require.Empty(t, el.Reason)
	require.Equal(t, uint32(3), *el.CurrentParticipants)
	require.Equal(t, uint32(10), *el.MaxParticipants)
	require.NoError(t, mock.ExpectationsWereMet())
}
