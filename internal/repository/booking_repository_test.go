package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	repo "github.com/asanahub/yoga-booking/internal/repository"
)

func TestBookingRepo_ListByStudent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookingRepo(db)

	booked := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)
	classDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "class_id", "status", "payment_status", "booked_at",
		"title", "class_date", "start_time", "location", "is_virtual", "price_cents",
	}).AddRow(43, 9, "confirmed", "completed", booked, "Morning Flow", classDate, "08:00:00", "Studio A", false, 1500)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings b JOIN classes c ON c.id = b.class_id WHERE b.student_id = ? ORDER BY b.booked_at DESC`)).
		WithArgs(uint64(5)).
		WillReturnRows(rows)

	out, err := r.ListByStudent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, uint64(43), out[0].ID)
	require.Equal(t, "2025-07-01", out[0].ClassDate)
	require.Equal(t, "Morning Flow", out[0].ClassTitle)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_ListByClassForOwner_Forbidden(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookingRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT teacher_id FROM classes WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow(2))

	_, err = r.ListByClassForOwner(context.Background(), 9, 999)
	require.ErrorIs(t, err, repo.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_ListByClassForOwner_Roster(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookingRepo(db)

	booked := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT teacher_id FROM classes WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings b JOIN users u ON u.id = b.student_id WHERE b.class_id = ? ORDER BY b.booked_at DESC`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "email", "status", "payment_status", "booked_at"}).
			AddRow(43, 5, "student@example.com", "confirmed", "completed", booked))

	out, err := r.ListByClassForOwner(context.Background(), 9, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "student@example.com", out[0].StudentEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}
