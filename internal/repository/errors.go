// Package repository defines error types that are reused across multiple
// repositories and by the service layer. These sentinel values allow
// higher layers such as handlers to distinguish between different
// failure scenarios and surface the specific reason to the client:
// a full class, a past class and a duplicate booking each imply a
// different corrective action for the user.
package repository

import "errors"

// ErrClassNotFound is returned when a referenced class does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrClassNotFound = errors.New("class not found")

// ErrBookingNotFound is returned when a referenced booking does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own, for example cancelling another
// student's booking. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrPastClass is returned when a booking is attempted against a
// class whose start time has already elapsed.
var ErrPastClass = errors.New("cannot book past classes")

// ErrClassFull is returned when capacity is exhausted at the instant
// a countable booking would be created.
var ErrClassFull = errors.New("class is full")

// ErrDuplicateBooking is returned when the student already holds a
// confirmed booking for the class.
var ErrDuplicateBooking = errors.New("already booked")

// ErrAlreadyCancelled is returned when cancellation is requested on a
// booking that is already in its terminal cancelled state.
var ErrAlreadyCancelled = errors.New("booking already cancelled")
