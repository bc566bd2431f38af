// Package service implements the booking core: the transactional
// orchestrator that keeps a class's cached participant count in step
// with its countable bookings, the reconciler that repairs drift, and
// the advisory eligibility checker.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/asanahub/yoga-booking/internal/model"
	"github.com/asanahub/yoga-booking/internal/queue"
	"github.com/asanahub/yoga-booking/internal/repository"
)

// ErrInvalidStatus is returned when a caller supplies a status or
// payment-status value outside the known enumerations.  It is detected
// before any write.
var ErrInvalidStatus = errors.New("invalid status value")

// BookingOrchestrator executes the booking operations.  Each operation
// runs its read-checks and writes inside one transaction with the
// class row locked, so no partial effect (a booking row without its
// count increment, or the reverse) is ever observable and two
// concurrent bookings cannot both take the last seat.
type BookingOrchestrator struct {
	db       *sql.DB
	classes  *repository.ClassRepo
	bookings *repository.BookingRepo
	audits   *repository.AuditRepo

	// Publish, when set, is called after a successful commit that made a
	// booking countable.  Failures are logged by the publisher and
	// never affect the committed booking.
	Publish func(ctx context.Context, ev queue.BookingConfirmedEvent) error

	now func() time.Time // injectable clock for tests
}

// NewBookingOrchestrator constructs an orchestrator over the three
// ledgers.  All repositories must be bound to the same database as db.
func NewBookingOrchestrator(db *sql.DB, classes *repository.ClassRepo, bookings *repository.BookingRepo, audits *repository.AuditRepo) *BookingOrchestrator {
	if db == nil || classes == nil || bookings == nil || audits == nil {
		panic("nil dependency passed to NewBookingOrchestrator")
	}
	return &BookingOrchestrator{
		db:       db,
		classes:  classes,
		bookings: bookings,
		audits:   audits,
		now:      time.Now,
	}
}

func validStatus(s string) bool {
	return s == model.BookingConfirmed || s == model.BookingCancelled
}

func validPaymentStatus(s string) bool {
	switch s {
	case model.PaymentPending, model.PaymentCompleted, model.PaymentFailed, model.PaymentRefunded:
		return true
	}
	return false
}

// CreateBooking records a booking intent for studentID on classID.
// status defaults to confirmed and paymentStatus to pending when
// empty.  Preconditions, checked atomically under the class row lock:
// the class exists, starts in the future, the student holds no other
// confirmed booking for it, and, when the new booking is immediately
// countable, a seat is still free.  A countable booking increments
// current_participants and appends one audit record.  Returns the new
// booking ID.
func (s *BookingOrchestrator) CreateBooking(ctx context.Context, studentID, classID uint64, status, paymentStatus string) (uint64, error) {
	if status == "" {
		status = model.BookingConfirmed
	}
	if paymentStatus == "" {
		paymentStatus = model.PaymentPending
	}
	if !validStatus(status) || !validPaymentStatus(paymentStatus) {
		return 0, ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cl, err := s.classes.GetForUpdateTx(ctx, tx, classID)
	if err != nil {
		return 0, err
	}
	if !cl.StartsAt.Valid || !cl.StartsAt.Time.After(s.now().UTC()) {
		return 0, repository.ErrPastClass
	}
	if _, err := s.bookings.FindConfirmedTx(ctx, tx, studentID, classID); err == nil {
		return 0, repository.ErrDuplicateBooking
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	countable := model.Countable(status, paymentStatus)
	if countable && cl.CurrentParticipants >= cl.MaxParticipants {
		return 0, repository.ErrClassFull
	}

	b := &model.Booking{
		StudentID:     studentID,
		ClassID:       classID,
		Status:        status,
		PaymentStatus: paymentStatus,
	}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return 0, err
	}
	if countable {
		newCount := cl.CurrentParticipants + 1
		if err := s.classes.SetCountTx(ctx, tx, classID, newCount); err != nil {
			return 0, err
		}
		if err := s.audits.InsertTx(ctx, tx, &model.CountAudit{
			ClassID:   classID,
			StudentID: &studentID,
			BookingID: &b.ID,
			Action:    model.AuditIncrement,
			OldCount:  cl.CurrentParticipants,
			NewCount:  newCount,
			Reason:    "Booking created",
		}); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true

	if countable {
		s.publishConfirmed(ctx, b.ID, studentID, classID, cl.StartsAt.Time)
	}
	return b.ID, nil
}

// CancelBooking transitions a booking to its terminal cancelled state
// and refunds its payment status.  Only the owning student may cancel.
// When the booking was countable, the class counter is decremented
// (floored at zero) and one audit record is appended, all in the same
// transaction.
func (s *BookingOrchestrator) CancelBooking(ctx context.Context, bookingID, studentID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if b.StudentID != studentID {
		return repository.ErrForbidden
	}
	if b.Status == model.BookingCancelled {
		return repository.ErrAlreadyCancelled
	}
	wasCountable := model.Countable(b.Status, b.PaymentStatus)

	if err := s.bookings.SetStatusTx(ctx, tx, bookingID, model.BookingCancelled, model.PaymentRefunded); err != nil {
		return err
	}
	if wasCountable {
		cl, err := s.classes.GetForUpdateTx(ctx, tx, b.ClassID)
		if err != nil {
			return err
		}
		newCount := cl.CurrentParticipants
		if newCount > 0 {
			newCount--
		}
		if err := s.classes.SetCountTx(ctx, tx, b.ClassID, newCount); err != nil {
			return err
		}
		if err := s.audits.InsertTx(ctx, tx, &model.CountAudit{
			ClassID:   b.ClassID,
			StudentID: &studentID,
			BookingID: &bookingID,
			Action:    model.AuditDecrement,
			OldCount:  cl.CurrentParticipants,
			NewCount:  newCount,
			Reason:    "Booking cancelled",
		}); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CompletePayment transitions a booking's payment status and applies
// the count delta the transition implies: +1 when the booking becomes
// countable, -1 when it stops being countable, 0 otherwise.  The delta
// is derived from before/after state, so repeating the same transition
// is idempotent and never double-counts.  Returns true when the
// booking was updated; a same-status call is a no-op returning false.
func (s *BookingOrchestrator) CompletePayment(ctx context.Context, bookingID, studentID uint64, newPaymentStatus string) (bool, error) {
	if !validPaymentStatus(newPaymentStatus) {
		return false, ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return false, err
	}
	if b.StudentID != studentID {
		return false, repository.ErrForbidden
	}
	if b.PaymentStatus == newPaymentStatus {
		return false, nil
	}
	wasCountable := model.Countable(b.Status, b.PaymentStatus)
	isCountable := model.Countable(b.Status, newPaymentStatus)

	if err := s.bookings.SetPaymentStatusTx(ctx, tx, bookingID, newPaymentStatus); err != nil {
		return false, err
	}

	var startsAt time.Time
	switch {
	case isCountable && !wasCountable:
		cl, err := s.classes.GetForUpdateTx(ctx, tx, b.ClassID)
		if err != nil {
			return false, err
		}
		startsAt = cl.StartsAt.Time
		newCount := cl.CurrentParticipants + 1
		if err := s.classes.SetCountTx(ctx, tx, b.ClassID, newCount); err != nil {
			return false, err
		}
		if err := s.audits.InsertTx(ctx, tx, &model.CountAudit{
			ClassID:   b.ClassID,
			StudentID: &b.StudentID,
			BookingID: &bookingID,
			Action:    model.AuditIncrement,
			OldCount:  cl.CurrentParticipants,
			NewCount:  newCount,
			Reason:    "Payment completed",
		}); err != nil {
			return false, err
		}
	case wasCountable && !isCountable:
		cl, err := s.classes.GetForUpdateTx(ctx, tx, b.ClassID)
		if err != nil {
			return false, err
		}
		newCount := cl.CurrentParticipants
		if newCount > 0 {
			newCount--
		}
		if err := s.classes.SetCountTx(ctx, tx, b.ClassID, newCount); err != nil {
			return false, err
		}
		if err := s.audits.InsertTx(ctx, tx, &model.CountAudit{
			ClassID:   b.ClassID,
			StudentID: &b.StudentID,
			BookingID: &bookingID,
			Action:    model.AuditDecrement,
			OldCount:  cl.CurrentParticipants,
			NewCount:  newCount,
			Reason:    fmt.Sprintf("Payment %s", newPaymentStatus),
		}); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true

	if isCountable && !wasCountable {
		s.publishConfirmed(ctx, bookingID, b.StudentID, b.ClassID, startsAt)
	}
	return true, nil
}

func (s *BookingOrchestrator) publishConfirmed(ctx context.Context, bookingID, studentID, classID uint64, startsAt time.Time) {
	if s.Publish == nil {
		return
	}
	_ = s.Publish(ctx, queue.BookingConfirmedEvent{
		BookingID:     bookingID,
		StudentID:     studentID,
		ClassID:       classID,
		ClassStartsAt: startsAt.UTC().Format(time.RFC3339),
		ConfirmedAt:   s.now().UTC().Format(time.RFC3339),
	})
}
