package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/asanahub/yoga-booking/internal/repository"
)

// EligibilityChecker answers "can this student book this class right
// now" from plain reads, without locks or mutation.  The result is
// advisory, for the client to disable a Book button before
// submission; the orchestrator re-validates every condition inside
// its transaction, since state can change between check and write.
type EligibilityChecker struct {
	classes  *repository.ClassRepo
	bookings *repository.BookingRepo

	now func() time.Time // injectable clock for tests
}

// NewEligibilityChecker constructs a checker over the two ledgers.
func NewEligibilityChecker(classes *repository.ClassRepo, bookings *repository.BookingRepo) *EligibilityChecker {
	if classes == nil || bookings == nil {
		panic("nil dependency passed to NewEligibilityChecker")
	}
	return &EligibilityChecker{classes: classes, bookings: bookings, now: time.Now}
}

// Eligibility is the answer returned by CanBook.  Reason carries the
// first failing condition; the count fields are populated whenever
// the class exists.
type Eligibility struct {
	CanBook             bool    `json:"can_book"`
	Reason              string  `json:"reason,omitempty"`
	BookingID           *uint64 `json:"booking_id,omitempty"`
	CurrentParticipants *uint32 `json:"current_participants,omitempty"`
	MaxParticipants     *uint32 `json:"max_participants,omitempty"`
}

// CanBook evaluates the booking preconditions in order; the first
// failing reason wins: existing confirmed booking, class not found,
// class in the past, class full.  Reason strings match the sentinel
// errors the orchestrator returns for the same conditions.
func (e *EligibilityChecker) CanBook(ctx context.Context, studentID, classID uint64) (Eligibility, error) {
	if id, err := e.bookings.FindConfirmed(ctx, studentID, classID); err == nil {
		return Eligibility{
			CanBook:   false,
			Reason:    repository.ErrDuplicateBooking.Error(),
			BookingID: &id,
		}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Eligibility{}, err
	}

	cl, err := e.classes.GetSnapshot(ctx, classID)
	if errors.Is(err, repository.ErrClassNotFound) {
		return Eligibility{CanBook: false, Reason: repository.ErrClassNotFound.Error()}, nil
	}
	if err != nil {
		return Eligibility{}, err
	}

	cur, max := cl.CurrentParticipants, cl.MaxParticipants
	if !cl.StartsAt.Valid || !cl.StartsAt.Time.After(e.now().UTC()) {
		return Eligibility{
			CanBook:             false,
			Reason:              repository.ErrPastClass.Error(),
			CurrentParticipants: &cur,
			MaxParticipants:     &max,
		}, nil
	}
	if cur >= max {
		return Eligibility{
			CanBook:             false,
			Reason:              repository.ErrClassFull.Error(),
			CurrentParticipants: &cur,
			MaxParticipants:     &max,
		}, nil
	}
	return Eligibility{
		CanBook:             true,
		CurrentParticipants: &cur,
		MaxParticipants:     &max,
	}, nil
}
