// Package roster keeps a trip's aggregate passenger counts consistent with
// individual passenger status changes. Counts are never mutated directly:
// callers either fold the full roster through ComputeCounts, or apply the
// delta produced by ApplyTransition in the same atomic write as the
// passenger update.
package roster

import (
	"errors"
	"time"

	"github.com/schooltransit/backend/internal/models"
)

// ErrInvalidStatus signals a transition to an unrecognized status value.
var ErrInvalidStatus = errors.New("invalid passenger status")

// ComputeCounts folds a passenger list into its status distribution.
// A passenger with a missing or unrecognized status counts as pending.
func ComputeCounts(passengers []models.Passenger) models.TripCounts {
	var counts models.TripCounts
	for _, p := range passengers {
		switch p.Status {
		case models.StatusBoarded:
			counts.Boarded++
		case models.StatusDropped:
			counts.Dropped++
		case models.StatusAbsent:
			counts.Absent++
		default:
			counts.Pending++
		}
	}
	return counts
}

// ReconcileTripCounts recomputes counts from the full roster. This is the
// authoritative drift-correction path after any bulk roster change; it
// trusts record state, not accumulated deltas.
func ReconcileTripCounts(passengers []models.Passenger) models.TripCounts {
	return ComputeCounts(passengers)
}

// ApplyTransition returns the passenger record after a status change
// together with the counter delta the caller must commit in the same atomic
// write. Re-submitting the current status is a no-op: the record comes back
// unchanged with a zero delta, so duplicate scans and retried writes never
// double-count.
//
// BoardedAt is set only when entering boarded and DroppedAt only when
// entering dropped; earlier timestamps are preserved so the record keeps its
// history. Any transition between the four recognized states is allowed
// here; business rules restricting particular transitions belong to the
// caller.
func ApplyTransition(current models.Passenger, newStatus models.PassengerStatus, actor string, now time.Time) (models.Passenger, models.CountDelta, error) {
	if !models.IsValidPassengerStatus(newStatus) {
		return current, models.CountDelta{}, ErrInvalidStatus
	}

	oldStatus := current.Status
	if !models.IsValidPassengerStatus(oldStatus) {
		oldStatus = models.StatusPending
	}

	if newStatus == oldStatus {
		return current, models.CountDelta{}, nil
	}

	updated := current
	updated.Status = newStatus
	updated.UpdatedBy = actor
	updated.UpdatedAt = now

	switch newStatus {
	case models.StatusBoarded:
		at := now
		updated.BoardedAt = &at
	case models.StatusDropped:
		at := now
		updated.DroppedAt = &at
	}

	var delta models.CountDelta
	addStatus(&delta, oldStatus, -1)
	addStatus(&delta, newStatus, +1)

	return updated, delta, nil
}

func addStatus(d *models.CountDelta, status models.PassengerStatus, n int) {
	switch status {
	case models.StatusBoarded:
		d.Boarded += n
	case models.StatusDropped:
		d.Dropped += n
	case models.StatusAbsent:
		d.Absent += n
	default:
		d.Pending += n
	}
}
