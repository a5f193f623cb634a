package trails

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tinytrails/tinytrails/base52"
	"github.com/tinytrails/tinytrails/internal/errx"
)

// errNoTrail is the shared cause for missing, expired, and unauthorized
// trails. The wording leaks nothing about which case applied.
var errNoTrail = errors.New("trail not found or expired")

// beginner abstracts the pgx pool so tests can substitute a transaction
// source. *pgxpool.Pool satisfies it.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type repo struct {
	db beginner
}

// NewRepository creates a Repository backed by a transactional postgres
// store.
func NewRepository(db beginner) Repository {
	return &repo{db: db}
}

func mapStorageError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errx.E(op, errx.NotFound, errNoTrail)
	}
	return errx.E(op, errx.Unavailable, err)
}

// inTx runs fn inside a transaction, committing on nil error.
func (r *repo) inTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	defer func() {
		// No-op once the transaction committed.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

// lookupLive loads a trail by its identifier and applies the expiration
// policy. Expired rows stay in storage but read as not found.
func lookupLive(ctx context.Context, op string, tx pgx.Tx, trailID string, now time.Time) (Trail, error) {
	var t Trail
	err := tx.QueryRow(ctx,
		`SELECT id, trail_id, url, token, lifetime, created_at
		   FROM trails
		  WHERE trail_id = $1`,
		trailID,
	).Scan(&t.SequenceID, &t.TrailID, &t.URL, &t.Token, &t.Lifetime, &t.CreatedAt)
	if err != nil {
		return Trail{}, mapStorageError(op, err)
	}

	if IsExpired(t.CreatedAt, t.Lifetime, now) {
		return Trail{}, errx.E(op, errx.NotFound, errNoTrail)
	}
	return t, nil
}

func (r *repo) Pave(ctx context.Context, url string, lifetimeHours int, token string) (Trail, error) {
	const op = "trails.repo.Pave"

	var t Trail
	err := r.inTx(ctx, op, func(tx pgx.Tx) error {
		// The sequence is the sole source of the identifier. Reserving
		// it first lets the derived trail_id be part of the insert, so
		// the row is never visible without its identifier.
		if err := tx.QueryRow(ctx,
			`SELECT nextval(pg_get_serial_sequence('trails', 'id'))`,
		).Scan(&t.SequenceID); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}

		t.TrailID = base52.Encode(t.SequenceID)
		t.URL = url
		t.Token = token
		t.Lifetime = lifetimeHours

		if err := tx.QueryRow(ctx,
			`INSERT INTO trails (id, trail_id, url, token, lifetime)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING created_at`,
			t.SequenceID, t.TrailID, t.URL, t.Token, t.Lifetime,
		).Scan(&t.CreatedAt); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
		return nil
	})
	if err != nil {
		return Trail{}, err
	}
	return t, nil
}

func (r *repo) Traverse(ctx context.Context, trailID, hashedIP string, now time.Time) (Trail, error) {
	const op = "trails.repo.Traverse"

	var t Trail
	err := r.inTx(ctx, op, func(tx pgx.Tx) error {
		var err error
		t, err = lookupLive(ctx, op, tx, trailID, now)
		if err != nil {
			return err
		}

		// Traversal succeeds even when the caller's address is unknown;
		// it just leaves no visit behind.
		if hashedIP == "" {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO visits (trail_id, hashed_ip, created_at) VALUES ($1, $2, $3)`,
			t.SequenceID, hashedIP, now,
		); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
		return nil
	})
	if err != nil {
		return Trail{}, err
	}
	return t, nil
}

func (r *repo) Peek(ctx context.Context, trailID string, now time.Time) (Trail, error) {
	const op = "trails.repo.Peek"

	var t Trail
	err := r.inTx(ctx, op, func(tx pgx.Tx) error {
		var err error
		t, err = lookupLive(ctx, op, tx, trailID, now)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO peeks (trail_id, created_at) VALUES ($1, $2)`,
			t.SequenceID, now,
		); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
		return nil
	})
	if err != nil {
		return Trail{}, err
	}
	return t, nil
}

func (r *repo) Info(ctx context.Context, trailID string, now time.Time) (Trail, VisitStats, error) {
	const op = "trails.repo.Info"

	var (
		t     Trail
		stats VisitStats
	)
	err := r.inTx(ctx, op, func(tx pgx.Tx) error {
		var err error
		t, err = lookupLive(ctx, op, tx, trailID, now)
		if err != nil {
			return err
		}

		// Visit volume is unbounded; aggregate in the store, never in
		// memory.
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*), COUNT(DISTINCT hashed_ip)
			   FROM visits
			  WHERE trail_id = $1`,
			t.SequenceID,
		).Scan(&stats.All, &stats.Unique); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
		return nil
	})
	if err != nil {
		return Trail{}, VisitStats{}, err
	}
	return t, stats, nil
}

func (r *repo) Delete(ctx context.Context, trailID, presentedToken string, now time.Time) error {
	const op = "trails.repo.Delete"

	return r.inTx(ctx, op, func(tx pgx.Tx) error {
		t, err := lookupLive(ctx, op, tx, trailID, now)
		if err != nil {
			return err
		}

		if !tokenMatches(presentedToken, t.Token) {
			return errx.E(op, errx.NotFound, errNoTrail)
		}

		// Visits and peeks cascade at the storage level.
		if _, err := tx.Exec(ctx,
			`DELETE FROM trails WHERE id = $1`,
			t.SequenceID,
		); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
		return nil
	})
}
