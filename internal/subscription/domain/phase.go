package domain

import "time"

// Phase is the account-facing lifecycle position of a ledger row. Expiry
// is derived, never stored; subscription_status may lag behind it.
type Phase string

const (
	PhaseActive              Phase = "active"
	PhasePendingCancellation Phase = "pending_cancellation"
	PhaseExpired             Phase = "expired"
)

// PhaseOf derives the lifecycle phase of a record at the given instant.
// This is the only place the expiry date comparison lives; callers must
// never inline it.
func PhaseOf(record *Record, now time.Time) Phase {
	if record == nil || !record.CancelAtPeriodEnd {
		return PhaseActive
	}
	end := record.TerminationDate()
	if end == nil {
		// Cancellation requested but no termination date known yet; treat
		// it as still pending until a sync fills the date in.
		return PhasePendingCancellation
	}
	// Reactivation is only valid strictly before the termination instant,
	// so the instant itself already reads as expired.
	if !now.Before(*end) {
		return PhaseExpired
	}
	return PhasePendingCancellation
}
