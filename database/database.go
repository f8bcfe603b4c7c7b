package database

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mgiulio/photo-market/config"
)

// ErrContention marks transient store conflicts (serialization failures,
// deadlocks, lock timeouts). Callers may retry with backoff.
var ErrContention = errors.New("store contention, retry the operation")

func Open(cfg config.DB) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")
	q.Set("statement_timeout", fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds()))
	q.Set("lock_timeout", fmt.Sprintf("%d", cfg.LockTimeout.Milliseconds()))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	return db, nil
}

// Transaction runs fn inside a database transaction, committing if fn
// returns nil and rolling back otherwise. Transient conflicts surface
// as ErrContention so handlers can tell retryable failures apart from
// business errors.
func Transaction(db *sqlx.DB, fn func(sqlx.ExtContext) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %q: %w", err, rbErr)
		}
		return wrapContention(err)
	}

	if err := tx.Commit(); err != nil {
		return wrapContention(fmt.Errorf("committing transaction: %w", err))
	}

	return nil
}

// Postgres class 40 (serialization_failure, deadlock_detected) and
// lock_not_available abort the transaction but are safe to retry.
var retryableStates = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

func wrapContention(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && retryableStates[string(pqErr.Code)] {
		return fmt.Errorf("%w: %s", ErrContention, pqErr.Message)
	}
	return err
}
