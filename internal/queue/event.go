// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking becomes countable,
// either because it was created confirmed-and-paid or because a later
// payment completion made it so.  It carries enough information for
// downstream consumers to log or notify without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	StudentID     uint64 `json:"student_id"`
	ClassID       uint64 `json:"class_id"`
	ClassStartsAt string `json:"class_starts_at"`
	ConfirmedAt   string `json:"confirmed_at"`
}
