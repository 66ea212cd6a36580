package repository

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	txMaxRetries     = 3
	txInitialBackoff = 50 * time.Millisecond
)

// orderNumberIndex is the unique index guarding order numbers. A collision
// on it means the random number generator produced a duplicate; the attempt
// is retried with a fresh number rather than surfaced to the caller.
const orderNumberIndex = "orders_order_number_key"

// inTx runs fn inside a transaction and retries it with jittered exponential
// backoff when the failure is transient: serialization failures, deadlocks,
// lock timeouts, and order-number collisions. fn must be safe to re-run from
// scratch; every attempt starts a fresh transaction.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	backoff := txInitialBackoff
	var lastErr error

	for attempt := 0; attempt <= txMaxRetries; attempt++ {
		err := runOnce(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == txMaxRetries {
			return errors.Wrapf(err, "transaction failed after %d retries", txMaxRetries)
		}
		lastErr = err

		jitter := time.Duration(rand.Int64N(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return lastErr
}

func runOnce(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// retryable classifies a transaction failure. Constraint violations are
// permanent, with one exception: a duplicate order number, which only needs
// a regenerated number.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03": // serialization, deadlock, lock not available
		return true
	case "23505":
		return pgErr.ConstraintName == orderNumberIndex
	}
	return false
}

// isUniqueViolation reports whether err is a unique-constraint violation,
// optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// isForeignKeyViolation reports whether err is a foreign-key violation.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
