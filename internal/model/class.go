package model

import "time"

// Class represents a scheduled yoga class offered by a teacher.  The
// cached occupancy counter CurrentParticipants mirrors the number of
// countable bookings (confirmed and paid) and is only ever mutated by
// the booking orchestrator and the count reconciler.
//
// Fields:
//  ID                  – primary key identifier.
//  TeacherID           – user who owns and runs the class.
//  Title               – short display title.
//  ClassDate           – calendar date of the session.
//  StartTime           – time of day the session begins.
//  DurationMin         – session length in minutes.
//  MaxParticipants     – seat capacity enforced at booking time.
//  CurrentParticipants – cached count of countable bookings.
//  PriceCents          – price per seat in cents.
//  Level               – difficulty (BEGINNER, INTERMEDIATE, ADVANCED, ALL).
//  ClassType           – style of practice (HATHA, VINYASA, YIN, ...).
//  Location            – free-form venue description.
//  IsVirtual           – true when the class is held online.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Class struct {
	ID                  uint64    // classes.id
	TeacherID           uint64    // classes.teacher_id
	Title               string    // classes.title
	ClassDate           time.Time // classes.class_date
	StartTime           string    // classes.start_time ("HH:MM:SS")
	DurationMin         uint32    // classes.duration_min
	MaxParticipants     uint32    // classes.max_participants
	CurrentParticipants uint32    // classes.current_participants
	PriceCents          uint32    // classes.price_cents
	Level               string    // classes.level
	ClassType           string    // classes.class_type
	Location            string    // classes.location
	IsVirtual           bool      // classes.is_virtual
	CreatedAt           time.Time // classes.created_at
	UpdatedAt           time.Time // classes.updated_at
}
