package verification

import (
	"context"
	"time"
)

// Store persists outstanding verification records keyed by the derived
// (email, phone) key. Each operation is a single mutual-exclusion boundary
// for its key: the whole read-modify-write sequence inside Consume happens
// atomically, so concurrent submissions serialize. No cross-key coordination
// is required.
type Store interface {
	// Save inserts or overwrites the record under its key.
	Save(ctx context.Context, rec Record) error

	// Consume applies the validation decision for the key in one atomic
	// step. Outcomes are checked in priority order: a missing record is
	// StatusNotFound; a record past its expiry is deleted and reported
	// StatusExpired; a record whose attempts reached maxAttempts is deleted
	// and reported StatusLocked; a wrong code increments the attempt counter
	// and reports StatusMismatch; a matching code deletes the record and
	// reports StatusValid. At most one caller can ever observe StatusValid
	// for a given record.
	Consume(ctx context.Context, key, submitted string, now time.Time, maxAttempts int) (Status, error)

	// SweepExpired removes records whose expiry has passed and returns how
	// many were deleted. Backends with native TTL expiry may return zero.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
