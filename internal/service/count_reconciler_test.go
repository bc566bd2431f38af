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

const (
	countCountableSQL = `SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = 'confirmed' AND payment_status = 'completed'`
	listClassIDsSQL   = `SELECT id FROM classes ORDER BY id`
)

func newReconciler(t *testing.T) (*CountReconciler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := NewCountReconciler(db,
		repository.NewClassRepo(db),
		repository.NewBookingRepo(db),
		repository.NewAuditRepo(db),
	)
	return r, mock
}

func expectSync(mock sqlmock.Sqlmock, classID uint64, stored, actual uint32, reason string) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(classForUpdateQ)).
		WithArgs(classID).
		WillReturnRows(classRow(classID, 2, time.Now().Add(time.Hour), 20, stored))
	mock.ExpectQuery(regexp.QuoteMeta(countCountableSQL)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(actual))
	if stored == actual {
		mock.ExpectRollback()
		return
	}
	mock.ExpectExec(regexp.QuoteMeta(setCountQ)).
		WithArgs(actual, classID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertAuditQ)).
		WithArgs(classID, nil, nil, "sync", stored, actual, reason).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestSyncOne_CorrectsDrift(t *testing.T) {
	r, mock := newReconciler(t)

	expectSync(mock, 9, 5, 3, "Manual synchronization")

	res, changed, err := r.SyncOne(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, SyncResult{ClassID: 9, OldCount: 5, NewCount: 3, Fixed: true}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncOne_ConsistentIsIdempotent(t *testing.T) {
	r, mock := newReconciler(t)

	// Two consecutive runs: neither writes a counter nor an audit row.
	expectSync(mock, 9, 4, 4, "")
	expectSync(mock, 9, 4, 4, "")

	for i := 0; i < 2; i++ {
		res, changed, err := r.SyncOne(context.Background(), 9)
		require.NoError(t, err)
		require.False(t, changed)
		require.Equal(t, SyncResult{ClassID: 9, OldCount: 4, NewCount: 4}, res)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncOne_ClassNotFound(t *testing.T) {
	r, mock := newReconciler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(classForUpdateQ)).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := r.SyncOne(context.Background(), 404)
	require.ErrorIs(t, err, repository.ErrClassNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncAll_ReportsOnlyDriftedClasses(t *testing.T) {
	r, mock := newReconciler(t)

	mock.ExpectQuery(regexp.QuoteMeta(listClassIDsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))
	expectSync(mock, 1, 2, 2, "")                   // consistent
	expectSync(mock, 2, 7, 4, "Automated sync")     // drifted
	expectSync(mock, 3, 0, 1, "Automated sync")     // drifted the other way

	fixed, err := r.SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []SyncResult{
		{ClassID: 2, OldCount: 7, NewCount: 4, Fixed: true},
		{ClassID: 3, OldCount: 0, NewCount: 1, Fixed: true},
	}, fixed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncAll_SkipsClassesDeletedMidScan(t *testing.T) {
	r, mock := newReconciler(t)

	mock.ExpectQuery(regexp.QuoteMeta(listClassIDsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(classForUpdateQ)).
		WithArgs(uint64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	expectSync(mock, 2, 3, 3, "")

	fixed, err := r.SyncAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, fixed)
	require.NoError(t, mock.ExpectationsWereMet())
}
