package dao

import (
	"context"
	"errors"
	"strings"

	"deenly/deenly/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// storeErr wraps err as a domain.StoreError, marking connection, resource
// and serialization failures as transient.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.StoreError{Op: op, Transient: transient(err), Err: err}
}

func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			strings.HasPrefix(pgErr.Code, "57P"), // operator intervention
			pgErr.Code == "40001", pgErr.Code == "40P01":
			return true
		}
	}
	return false
}

func parseIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, &domain.ValidationError{Message: "invalid id " + id}
		}
		out = append(out, u)
	}
	return out, nil
}
