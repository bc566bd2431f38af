package model

import "time"

// Audit actions recorded in participant_count_audit.
const (
	AuditIncrement = "increment"
	AuditDecrement = "decrement"
	AuditSync      = "sync"
)

// CountAudit is one immutable entry in the participant-count audit
// trail.  Every mutation of a class's current_participants produces
// exactly one record; rows are never updated or deleted.  The trail
// answers "why did this count change".
//
// Fields:
//  ID        – primary key identifier.
//  ClassID   – class whose count changed.
//  StudentID – student involved, when the change came from a booking.
//  BookingID – booking involved, when the change came from a booking.
//  Action    – increment, decrement or sync.
//  OldCount  – counter value before the change.
//  NewCount  – counter value after the change.
//  Reason    – free-text cause ("Booking created", "Automated sync", ...).
//  CreatedAt – when the change happened.
type CountAudit struct {
	ID        uint64    // participant_count_audit.id
	ClassID   uint64    // participant_count_audit.class_id
	StudentID *uint64   // participant_count_audit.student_id (nullable)
	BookingID *uint64   // participant_count_audit.booking_id (nullable)
	Action    string    // participant_count_audit.action
	OldCount  uint32    // participant_count_audit.old_count
	NewCount  uint32    // participant_count_audit.new_count
	Reason    string    // participant_count_audit.reason
	CreatedAt time.Time // participant_count_audit.created_at
}
