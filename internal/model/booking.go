package model

import "time"

// Booking status and payment status values.  A booking occupies a seat
// (is "countable") only while Status is confirmed and PaymentStatus is
// completed.  Cancellation is terminal: no code path resurrects a
// cancelled booking.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Booking records a student's intent to attend a class and tracks the
// status/payment lifecycle.  At most one confirmed booking may exist
// per (student, class) pair.
//
// Fields:
//  ID            – primary key identifier.
//  StudentID     – user who made the booking.
//  ClassID       – class being booked.
//  Status        – confirmed or cancelled.
//  PaymentStatus – pending, completed, failed or refunded.
//  BookedAt      – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64    // bookings.id
	StudentID     uint64    // bookings.student_id
	ClassID       uint64    // bookings.class_id
	Status        string    // bookings.status
	PaymentStatus string    // bookings.payment_status
	BookedAt      time.Time // bookings.booked_at
	UpdatedAt     time.Time // bookings.updated_at
}

// Countable reports whether a booking with the given status pair
// occupies a seat.  This is the single cross-entity rule every count
// mutation must preserve.
func Countable(status, paymentStatus string) bool {
	return status == BookingConfirmed && paymentStatus == PaymentCompleted
}
