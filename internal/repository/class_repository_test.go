package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/asanahub/yoga-booking/internal/model"
	repo "github.com/asanahub/yoga-booking/internal/repository"
)

const classCols = `id, teacher_id, title, class_date, start_time, duration_min, max_participants, current_participants, price_cents, level, class_type, location, is_virtual, created_at, updated_at`

func fullClassRow(id, teacherID uint64, title string) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "teacher_id", "title", "class_date", "start_time", "duration_min",
		"max_participants", "current_participants", "price_cents",
		"level", "class_type", "location", "is_virtual", "created_at", "updated_at",
	}).AddRow(id, teacherID, title, now, "18:00:00", 60, 20, 5, 1500, "BEGINNER", "HATHA", "Studio A", false, now, now)
}

func TestClassRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewClassRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO classes (teacher_id, title, class_date, start_time, duration_min, max_participants, price_cents, level, class_type, location, is_virtual) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)).
		WithArgs(uint64(2), "Morning Flow", "2025-07-01", "08:00:00", 60, uint32(20), uint32(1500), "BEGINNER", "VINYASA", "Studio A", false).
		WillReturnResult(sqlmock.NewResult(9, 1))

	cl := &model.Class{
		TeacherID:       2,
		Title:           "Morning Flow",
		ClassDate:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		StartTime:       "08:00:00",
		DurationMin:     60,
		MaxParticipants: 20,
		PriceCents:      1500,
		Level:           "BEGINNER",
		ClassType:       "VINYASA",
		Location:        "Studio A",
	}
	require.NoError(t, r.Create(context.Background(), cl))
	require.Equal(t, uint64(9), cl.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepo_GetSnapshot_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewClassRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, teacher_id, TIMESTAMP(class_date, start_time), max_participants, current_participants FROM classes WHERE id = ?`)).
		WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err = r.GetSnapshot(context.Background(), 404)
	require.ErrorIs(t, err, repo.ErrClassNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepo_Update_ChecksOwnership(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewClassRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT teacher_id FROM classes WHERE id = ?`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow(2))

	cl := &model.Class{ID: 9, Title: "Evening Flow", ClassDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), StartTime: "19:00:00"}
	err = r.Update(context.Background(), 999, cl)
	require.ErrorIs(t, err, repo.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepo_ListUpcoming_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewClassRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+classCols+` FROM classes WHERE TIMESTAMP(class_date, start_time) > UTC_TIMESTAMP() AND level = ? AND class_type = ? ORDER BY class_date, start_time`)).
		WithArgs("BEGINNER", "HATHA").
		WillReturnRows(fullClassRow(9, 2, "Morning Flow"))

	// Filters are upper-cased before hitting the query.
	out, err := r.ListUpcoming(context.Background(), "beginner", "hatha")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Morning Flow", out[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepo_ListUpcoming_NoFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewClassRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM classes WHERE TIMESTAMP(class_date, start_time) > UTC_TIMESTAMP() ORDER BY class_date, start_time`)).
		WillReturnRows(fullClassRow(9, 2, "Morning Flow"))

	out, err := r.ListUpcoming(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
