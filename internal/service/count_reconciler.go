package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/asanahub/yoga-booking/internal/model"
	"github.com/asanahub/yoga-booking/internal/repository"
)

// Audit reasons written by the reconciler.  Drift is a normal,
// expected condition; the reconciler repairs it silently and never
// raises user-facing errors for it.
const (
	reasonManualSync    = "Manual synchronization"
	reasonAutomatedSync = "Automated sync"
)

// CountReconciler recomputes the true participant count of a class
// from the booking ledger and writes it back into the class ledger
// when the cached value has drifted.  Unlike the orchestrator's
// delta updates, the reconciler's write is authoritative: the value
// is derived fresh under the class row lock at write time.
type CountReconciler struct {
	db       *sql.DB
	classes  *repository.ClassRepo
	bookings *repository.BookingRepo
	audits   *repository.AuditRepo
}

// NewCountReconciler constructs a reconciler over the three ledgers.
func NewCountReconciler(db *sql.DB, classes *repository.ClassRepo, bookings *repository.BookingRepo, audits *repository.AuditRepo) *CountReconciler {
	if db == nil || classes == nil || bookings == nil || audits == nil {
		panic("nil dependency passed to NewCountReconciler")
	}
	return &CountReconciler{db: db, classes: classes, bookings: bookings, audits: audits}
}

// SyncResult reports one class whose counter was corrected.
type SyncResult struct {
	ClassID  uint64 `json:"class_id"`
	OldCount uint32 `json:"old_count"`
	NewCount uint32 `json:"new_count"`
	Fixed    bool   `json:"fixed"`
}

// SyncOne reconciles a single class.  When the stored count already
// matches the booking ledger nothing is written, so running it twice
// in a row is a no-op: no counter update and no second audit record.
// Returns the result and whether a correction was applied.
func (r *CountReconciler) SyncOne(ctx context.Context, classID uint64) (SyncResult, bool, error) {
	return r.syncOne(ctx, classID, reasonManualSync)
}

// SyncAll reconciles every class, one short transaction per class so
// no long-lived locks are held across the scan.  Concurrent bookings
// during the pass may introduce new drift; that is acceptable, a
// subsequent sync will catch it.  Only classes actually changed are
// reported.  Classes deleted mid-scan are skipped.
func (r *CountReconciler) SyncAll(ctx context.Context) ([]SyncResult, error) {
	ids, err := r.classes.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	fixed := make([]SyncResult, 0)
	for _, id := range ids {
		res, changed, err := r.syncOne(ctx, id, reasonAutomatedSync)
		if errors.Is(err, repository.ErrClassNotFound) {
			continue
		}
		if err != nil {
			return fixed, err
		}
		if changed {
			fixed = append(fixed, res)
		}
	}
	return fixed, nil
}

// RunPeriodic invokes SyncAll every interval until ctx is cancelled,
// logging any corrections.  It backs the self-healing sync job and is
// intended to run in its own goroutine.
func (r *CountReconciler) RunPeriodic(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fixed, err := r.SyncAll(ctx)
			if err != nil {
				log.Printf("reconciler: sync pass failed: %v", err)
				continue
			}
			for _, f := range fixed {
				log.Printf("reconciler: class %d count corrected %d -> %d", f.ClassID, f.OldCount, f.NewCount)
			}
		}
	}
}

func (r *CountReconciler) syncOne(ctx context.Context, classID uint64, reason string) (SyncResult, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SyncResult{}, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cl, err := r.classes.GetForUpdateTx(ctx, tx, classID)
	if err != nil {
		return SyncResult{}, false, err
	}
	actual, err := r.bookings.CountCountableTx(ctx, tx, classID)
	if err != nil {
		return SyncResult{}, false, err
	}
	if actual == cl.CurrentParticipants {
		// Already consistent; nothing to write.
		return SyncResult{ClassID: classID, OldCount: cl.CurrentParticipants, NewCount: actual}, false, nil
	}
	if err := r.classes.SetCountTx(ctx, tx, classID, actual); err != nil {
		return SyncResult{}, false, err
	}
	if err := r.audits.InsertTx(ctx, tx, &model.CountAudit{
		ClassID:  classID,
		Action:   model.AuditSync,
		OldCount: cl.CurrentParticipants,
		NewCount: actual,
		Reason:   reason,
	}); err != nil {
		return SyncResult{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return SyncResult{}, false, err
	}
	committed = true
	return SyncResult{ClassID: classID, OldCount: cl.CurrentParticipants, NewCount: actual, Fixed: true}, true, nil
}
