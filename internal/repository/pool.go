package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/pkg/cleanup"
)

// NewPool opens and pings a pgx pool. Closing it is registered in reg.
func NewPool(ctx context.Context, cfg DBConfig, reg *cleanup.Registry) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, errors.New("creating pgxpool error: " + err.Error())
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.New("pinging pgxpool error: " + err.Error())
	}
	reg.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

// storeError maps driver failures onto the error kinds the service layer
// classifies. Unrecognised errors are wrapped with op.
func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// FK violation
		case pgErr.Code == "23503":
			return errorvalues.ErrHabitNotFound
		// Insufficient privilege
		case pgErr.Code == "42501":
			return errorvalues.ErrPermissionDenied
		// Connection exception class
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return errorvalues.ErrUnavailable
		// admin_shutdown, crash_shutdown, cannot_connect_now
		case pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return errorvalues.ErrUnavailable
		}
		return errors.New(op + " error: " + err.Error())
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return errorvalues.ErrUnavailable
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return errorvalues.ErrUnavailable
	}
	return errors.New(op + " error: " + err.Error())
}
