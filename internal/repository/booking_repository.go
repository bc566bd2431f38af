package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/asanahub/yoga-booking/internal/model"
)

// BookingRepo provides CRUD operations for the booking ledger.  A
// booking row records a student's intent for one class together with
// its status and payment lifecycle.  All timestamp fields are assumed
// to be stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID on the provided record.
// The caller must commit or rollback the transaction.  Status and
// PaymentStatus must already hold valid enumeration values.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (student_id, class_id, status, payment_status) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.StudentID, b.ClassID, b.Status, b.PaymentStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetForUpdateTx loads a booking inside the caller's transaction and
// takes a row lock so concurrent cancellations and payment updates of
// the same booking serialize.  Returns ErrBookingNotFound when no row
// exists.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (model.Booking, error) {
	const q = `SELECT id, student_id, class_id, status, payment_status FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	err := tx.QueryRowContext(ctx, q, bookingID).Scan(
		&b.ID, &b.StudentID, &b.ClassID, &b.Status, &b.PaymentStatus,
	)
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

const findConfirmedQ = `SELECT id FROM bookings WHERE student_id = ? AND class_id = ? AND status = 'confirmed' LIMIT 1`

// FindConfirmed returns the ID of the student's confirmed booking for
// the class, if one exists.  sql.ErrNoRows is returned when there is
// none; the eligibility checker uses this read outside any
// transaction.
func (r *BookingRepo) FindConfirmed(ctx context.Context, studentID, classID uint64) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, findConfirmedQ, studentID, classID).Scan(&id)
	return id, err
}

// FindConfirmedTx is FindConfirmed inside the caller's transaction.
// With the class row already locked, the check-then-insert sequence in
// the orchestrator cannot race another booking for the same class, so
// this read is sufficient to enforce the one-confirmed-booking rule.
func (r *BookingRepo) FindConfirmedTx(ctx context.Context, tx *sql.Tx, studentID, classID uint64) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx, findConfirmedQ, studentID, classID).Scan(&id)
	return id, err
}

// SetStatusTx updates status and payment_status of a booking inside
// the caller's transaction.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, status, paymentStatus string) error {
	const q = `UPDATE bookings SET status = ?, payment_status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, paymentStatus, bookingID)
	return err
}

// SetPaymentStatusTx updates only the payment_status of a booking
// inside the caller's transaction.
func (r *BookingRepo) SetPaymentStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, paymentStatus string) error {
	const q = `UPDATE bookings SET payment_status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, paymentStatus, bookingID)
	return err
}

const countCountableQ = `SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = 'confirmed' AND payment_status = 'completed'`

// CountCountableTx computes the true participant count for a class
// from the booking ledger, inside the caller's transaction.  This is
// the authoritative value the reconciler writes back into
// current_participants.
func (r *BookingRepo) CountCountableTx(ctx context.Context, tx *sql.Tx, classID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx, countCountableQ, classID).Scan(&n)
	return n, err
}

// BookingDetail joins a booking with its class information for
// display to students.
type BookingDetail struct {
	ID            uint64    `json:"id"`
	ClassID       uint64    `json:"class_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	BookedAt      time.Time `json:"booked_at"`
	ClassTitle    string    `json:"class_title"`
	ClassDate     string    `json:"class_date"`
	StartTime     string    `json:"start_time"`
	Location      string    `json:"location"`
	IsVirtual     bool      `json:"is_virtual"`
	PriceCents    uint32    `json:"price_cents"`
}

// ListByStudent returns all bookings made by the given student along
// with class details, newest first.  When no bookings exist, an empty
// slice is returned.
func (r *BookingRepo) ListByStudent(ctx context.Context, studentID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.class_id, b.status, b.payment_status, b.booked_at,
	                  c.title, c.class_date, c.start_time, c.location, c.is_virtual, c.price_cents
	           FROM bookings b
	           JOIN classes c ON c.id = b.class_id
	           WHERE b.student_id = ?
	           ORDER BY b.booked_at DESC`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var classDate time.Time
		if err := rows.Scan(
			&d.ID, &d.ClassID, &d.Status, &d.PaymentStatus, &d.BookedAt,
			&d.ClassTitle, &classDate, &d.StartTime, &d.Location, &d.IsVirtual, &d.PriceCents,
		); err != nil {
			return nil, err
		}
		d.ClassDate = classDate.UTC().Format("2006-01-02")
		out = append(out, d)
	}
	return out, rows.Err()
}

// RosterEntry is one booking as seen by the teacher who owns the
// class.  It exposes the student's identity alongside the booking
// lifecycle fields.
type RosterEntry struct {
	ID            uint64    `json:"id"`
	StudentID     uint64    `json:"student_id"`
	StudentEmail  string    `json:"student_email"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	BookedAt      time.Time `json:"booked_at"`
}

// ListByClassForOwner returns all bookings for a class when accessed
// by its owning teacher.  It verifies ownership before returning the
// list; otherwise ErrForbidden is returned.  ErrClassNotFound is
// returned when the class does not exist.
func (r *BookingRepo) ListByClassForOwner(ctx context.Context, classID, teacherID uint64) ([]RosterEntry, error) {
	const checkQ = `SELECT teacher_id FROM classes WHERE id = ?`
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, checkQ, classID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerID != teacherID {
		return nil, ErrForbidden
	}
	const q = `SELECT b.id, b.student_id, u.email, b.status, b.payment_status, b.booked_at
	           FROM bookings b
	           JOIN users u ON u.id = b.student_id
	           WHERE b.class_id = ?
	           ORDER BY b.booked_at DESC`
	rows, err := r.db.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RosterEntry, 0)
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.StudentEmail, &e.Status, &e.PaymentStatus, &e.BookedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
