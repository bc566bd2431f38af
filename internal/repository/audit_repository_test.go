package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/asanahub/yoga-booking/internal/model"
	repo "github.com/asanahub/yoga-booking/internal/repository"
)

func TestAuditRepo_InsertTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewAuditRepo(db)

	studentID, bookingID := uint64(5), uint64(43)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO participant_count_audit (class_id, student_id, booking_id, action, old_count, new_count, reason) VALUES (?, ?, ?, ?, ?, ?, ?)`)).
		WithArgs(uint64(9), studentID, bookingID, "increment", uint32(3), uint32(4), "Booking created").
		WillReturnResult(sqlmock.NewResult(11, 1))

	tx, err := db.Begin()
	require.NoError(t, err)
	rec := &model.CountAudit{
		ClassID:   9,
		StudentID: &studentID,
		BookingID: &bookingID,
		Action:    model.AuditIncrement,
		OldCount:  3,
		NewCount:  4,
		Reason:    "Booking created",
	}
	require.NoError(t, r.InsertTx(context.Background(), tx, rec))
	require.Equal(t, uint64(11), rec.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_ListByClass_NullableRefs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewAuditRepo(db)

	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "class_id", "student_id", "booking_id", "action", "old_count", "new_count", "reason", "created_at"}).
		AddRow(12, 9, nil, nil, "sync", 5, 3, "Automated sync", created).
		AddRow(11, 9, 5, 43, "increment", 2, 3, "Booking created", created)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, class_id, student_id, booking_id, action, old_count, new_count, reason, created_at FROM participant_count_audit WHERE class_id = ? ORDER BY id DESC LIMIT ?`)).
		WithArgs(uint64(9), 25).
		WillReturnRows(rows)

	out, err := r.ListByClass(context.Background(), 9, 25)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Sync entries carry no student or booking reference.
	require.Nil(t, out[0].StudentID)
	require.Nil(t, out[0].BookingID)
	require.Equal(t, model.AuditSync, out[0].Action)

	require.NotNil(t, out[1].StudentID)
	require.Equal(t, uint64(5), *out[1].StudentID)
	require.Equal(t, uint64(43), *out[1].BookingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_ListByClass_DefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewAuditRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM participant_count_audit WHERE class_id = ? ORDER BY id DESC LIMIT ?`)).
		WithArgs(uint64(9), 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "student_id", "booking_id", "action", "old_count", "new_count", "reason", "created_at"}))

	out, err := r.ListByClass(context.Background(), 9, 0)
	require.NoError(t, err)
	require.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
