package trails

import (
	"context"
	"time"
)

// Repository defines the persistence operations for trails and their
// visit/peek ledgers. Every mutating method runs its lookup, expiration
// check, and write inside a single transaction so a concurrent delete
// cannot interleave.
type Repository interface {
	// Pave persists a new trail and returns it with its assigned
	// sequence number and derived identifier.
	Pave(ctx context.Context, url string, lifetimeHours int, token string) (Trail, error)

	// Traverse loads a live trail and, when hashedIP is non-empty,
	// appends a visit record.
	Traverse(ctx context.Context, trailID, hashedIP string, now time.Time) (Trail, error)

	// Peek loads a live trail and appends a peek record.
	Peek(ctx context.Context, trailID string, now time.Time) (Trail, error)

	// Info loads a live trail together with its aggregated visit stats.
	Info(ctx context.Context, trailID string, now time.Time) (Trail, VisitStats, error)

	// Delete removes a live trail when the presented token matches;
	// visit and peek records go with it. Absent, expired, and
	// unauthorized all fail identically.
	Delete(ctx context.Context, trailID, presentedToken string, now time.Time) error
}
