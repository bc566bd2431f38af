// Package repository contains data access logic for the class ledger. This
// file defines the ClassRepo and its queries. A class row carries both the
// seat capacity (max_participants) and the cached occupancy counter
// (current_participants); the counter is only written through SetCountTx,
// which the booking orchestrator and the count reconciler call from inside
// their own transactions.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"strings"      // strings builds optional filter clauses

	"github.com/asanahub/yoga-booking/internal/model"
)

// ClassRepo manages persistence for classes.
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo constructs a ClassRepo with the given DB handle.
func NewClassRepo(db *sql.DB) *ClassRepo {
	return &ClassRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.  Use this method to
// obtain a *sql.DB when you need fine-grained transaction control.
func (r *ClassRepo) DB() *sql.DB {
	return r.db
}

// ClassSnapshot is the subset of a class row the booking paths need:
// ownership, schedule and the two counters.  StartsAt combines
// class_date and start_time into a single UTC instant so callers can
// compare against time.Now without re-parsing DB formats.
type ClassSnapshot struct {
	ID                  uint64
	TeacherID           uint64
	StartsAt            sql.NullTime
	MaxParticipants     uint32
	CurrentParticipants uint32
}

const classSnapshotCols = `id, teacher_id, TIMESTAMP(class_date, start_time), max_participants, current_participants`

// GetSnapshot loads a class snapshot without locking.  It is used by
// the eligibility checker, which is advisory and must not block
// concurrent bookings.  Returns ErrClassNotFound when no row exists.
func (r *ClassRepo) GetSnapshot(ctx context.Context, classID uint64) (ClassSnapshot, error) {
	const q = `SELECT ` + classSnapshotCols + ` FROM classes WHERE id = ?`
	var s ClassSnapshot
	err := r.db.QueryRowContext(ctx, q, classID).Scan(
		&s.ID, &s.TeacherID, &s.StartsAt, &s.MaxParticipants, &s.CurrentParticipants,
	)
	if err == sql.ErrNoRows {
		return ClassSnapshot{}, ErrClassNotFound
	}
	return s, err
}

// GetForUpdateTx loads a class snapshot inside the caller's transaction
// and takes a row lock (SELECT ... FOR UPDATE).  Concurrent booking
// operations against the same class serialize on this lock, which is
// what makes the check-then-write sequences in the orchestrator safe:
// two simultaneous bookings cannot both observe the last free seat.
// Returns ErrClassNotFound when no row exists.
func (r *ClassRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, classID uint64) (ClassSnapshot, error) {
	const q = `SELECT ` + classSnapshotCols + ` FROM classes WHERE id = ? FOR UPDATE`
	var s ClassSnapshot
	err := tx.QueryRowContext(ctx, q, classID).Scan(
		&s.ID, &s.TeacherID, &s.StartsAt, &s.MaxParticipants, &s.CurrentParticipants,
	)
	if err == sql.ErrNoRows {
		return ClassSnapshot{}, ErrClassNotFound
	}
	return s, err
}

// SetCountTx overwrites current_participants inside the caller's
// transaction.  Callers must hold the class row lock (GetForUpdateTx)
// so the value written is derived from fresh state, never from a
// stale read.
func (r *ClassRepo) SetCountTx(ctx context.Context, tx *sql.Tx, classID uint64, count uint32) error {
	const q = `UPDATE classes SET current_participants = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, count, classID)
	return err
}

// Create inserts a new class owned by the given teacher and assigns
// the generated ID back to the struct.  current_participants defaults
// to zero in the schema.
func (r *ClassRepo) Create(ctx context.Context, cl *model.Class) error {
	const q = `INSERT INTO classes
	           (teacher_id, title, class_date, start_time, duration_min, max_participants,
	            price_cents, level, class_type, location, is_virtual)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		cl.TeacherID, cl.Title, cl.ClassDate.Format("2006-01-02"), cl.StartTime,
		cl.DurationMin, cl.MaxParticipants, cl.PriceCents,
		cl.Level, cl.ClassType, cl.Location, cl.IsVirtual,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cl.ID = uint64(id)
	return nil
}

// GetByID returns the full class row.  Returns ErrClassNotFound when
// no row exists.
func (r *ClassRepo) GetByID(ctx context.Context, classID uint64) (model.Class, error) {
	const q = `SELECT id, teacher_id, title, class_date, start_time, duration_min,
	                  max_participants, current_participants, price_cents,
	                  level, class_type, location, is_virtual, created_at, updated_at
	           FROM classes WHERE id = ?`
	var cl model.Class
	err := r.db.QueryRowContext(ctx, q, classID).Scan(
		&cl.ID, &cl.TeacherID, &cl.Title, &cl.ClassDate, &cl.StartTime, &cl.DurationMin,
		&cl.MaxParticipants, &cl.CurrentParticipants, &cl.PriceCents,
		&cl.Level, &cl.ClassType, &cl.Location, &cl.IsVirtual, &cl.CreatedAt, &cl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Class{}, ErrClassNotFound
	}
	return cl, err
}

// OwnerID returns the teacher_id of a class.  Returns ErrClassNotFound
// when the class does not exist.  It backs the explicit authorization
// checks in the teacher-facing handlers.
func (r *ClassRepo) OwnerID(ctx context.Context, classID uint64) (uint64, error) {
	const q = `SELECT teacher_id FROM classes WHERE id = ?`
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, classID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return 0, ErrClassNotFound
	}
	return ownerID, err
}

// Update modifies the schedule, capacity and descriptive fields of a
// class after verifying ownership.  current_participants is
// deliberately not part of the column list: only the orchestrator and
// the reconciler may touch the counter.
func (r *ClassRepo) Update(ctx context.Context, teacherID uint64, cl *model.Class) error {
	ownerID, err := r.OwnerID(ctx, cl.ID)
	if err != nil {
		return err
	}
	if ownerID != teacherID {
		return ErrForbidden
	}
	const q = `UPDATE classes SET
	           title = ?, class_date = ?, start_time = ?, duration_min = ?,
	           max_participants = ?, price_cents = ?, level = ?, class_type = ?,
	           location = ?, is_virtual = ?
	           WHERE id = ?`
	_, err = r.db.ExecContext(ctx, q,
		cl.Title, cl.ClassDate.Format("2006-01-02"), cl.StartTime, cl.DurationMin,
		cl.MaxParticipants, cl.PriceCents, cl.Level, cl.ClassType,
		cl.Location, cl.IsVirtual, cl.ID,
	)
	return err
}

// Delete removes a class after verifying ownership.  Bookings cascade
// via the foreign key, so no orphan booking rows survive.
func (r *ClassRepo) Delete(ctx context.Context, classID, teacherID uint64) error {
	ownerID, err := r.OwnerID(ctx, classID)
	if err != nil {
		return err
	}
	if ownerID != teacherID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, classID)
	return err
}

// ListByTeacher returns all classes owned by a teacher, upcoming
// first.
func (r *ClassRepo) ListByTeacher(ctx context.Context, teacherID uint64) ([]model.Class, error) {
	const q = `SELECT id, teacher_id, title, class_date, start_time, duration_min,
	                  max_participants, current_participants, price_cents,
	                  level, class_type, location, is_virtual, created_at, updated_at
	           FROM classes WHERE teacher_id = ?
	           ORDER BY class_date DESC, start_time DESC`
	return r.scanClasses(ctx, q, teacherID)
}

// ListUpcoming returns classes whose start instant is still in the
// future, ordered soonest first.  level and classType filter when
// non-empty.
func (r *ClassRepo) ListUpcoming(ctx context.Context, level, classType string) ([]model.Class, error) {
	q := `SELECT id, teacher_id, title, class_date, start_time, duration_min,
	             max_participants, current_participants, price_cents,
	             level, class_type, location, is_virtual, created_at, updated_at
	      FROM classes WHERE TIMESTAMP(class_date, start_time) > UTC_TIMESTAMP()`
	args := []interface{}{}
	if s := strings.TrimSpace(level); s != "" {
		q += ` AND level = ?`
		args = append(args, strings.ToUpper(s))
	}
	if s := strings.TrimSpace(classType); s != "" {
		q += ` AND class_type = ?`
		args = append(args, strings.ToUpper(s))
	}
	q += ` ORDER BY class_date, start_time`
	return r.scanClasses(ctx, q, args...)
}

// ListIDs returns the IDs of every class, in ascending order.  The
// reconciler iterates this set during a full validation pass.
func (r *ClassRepo) ListIDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM classes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ClassRepo) scanClasses(ctx context.Context, q string, args ...interface{}) ([]model.Class, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Class, 0)
	for rows.Next() {
		var cl model.Class
		if err := rows.Scan(
			&cl.ID, &cl.TeacherID, &cl.Title, &cl.ClassDate, &cl.StartTime, &cl.DurationMin,
			&cl.MaxParticipants, &cl.CurrentParticipants, &cl.PriceCents,
			&cl.Level, &cl.ClassType, &cl.Location, &cl.IsVirtual, &cl.CreatedAt, &cl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}
