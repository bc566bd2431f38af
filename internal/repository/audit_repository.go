package repository

import (
	"context"
	"database/sql"

	"github.com/asanahub/yoga-booking/internal/model"
)

// AuditRepo persists the participant-count audit trail.  The table is
// append-only: rows are inserted by the orchestrator and reconciler
// and never updated or deleted by normal operation.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// InsertTx appends one audit record within the caller's transaction,
// so the record commits or rolls back together with the count change
// it describes.
func (r *AuditRepo) InsertTx(ctx context.Context, tx *sql.Tx, rec *model.CountAudit) error {
	const q = `INSERT INTO participant_count_audit
	           (class_id, student_id, booking_id, action, old_count, new_count, reason)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rec.ClassID, rec.StudentID, rec.BookingID, rec.Action, rec.OldCount, rec.NewCount, rec.Reason,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// ListByClass returns the count history of a class, newest first,
// capped at limit rows.  A limit of zero or less defaults to 100.
func (r *AuditRepo) ListByClass(ctx context.Context, classID uint64, limit int) ([]model.CountAudit, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, class_id, student_id, booking_id, action, old_count, new_count, reason, created_at
	           FROM participant_count_audit
	           WHERE class_id = ?
	           ORDER BY id DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, classID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CountAudit, 0)
	for rows.Next() {
		var rec model.CountAudit
		var studentID, bookingID sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.ClassID, &studentID, &bookingID,
			&rec.Action, &rec.OldCount, &rec.NewCount, &rec.Reason, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if studentID.Valid {
			v := uint64(studentID.Int64)
			rec.StudentID = &v
		}
		if bookingID.Valid {
			v := uint64(bookingID.Int64)
			rec.BookingID = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
