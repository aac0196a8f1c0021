// Package repository implements all database queries for the motorsport club.
// It uses pgx directly (no ORM). Cross-references live in TEXT[] columns and
// are only ever changed with conditional array_append / array_remove, so a
// single UPDATE is the unit of atomicity and an id never appears twice.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique value (a user's email) is taken.
var ErrDuplicate = errors.New("duplicate value")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func newID() string {
	return uuid.New().String()
}

func now() time.Time {
	return time.Now().UTC()
}

// Catalog bundles the car and event repositories into one catalog store.
type Catalog struct {
	*EventRepository
	*CarRepository
}

// NewCatalog constructs a Catalog over pool.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{
		EventRepository: NewEventRepository(pool),
		CarRepository:   NewCarRepository(pool),
	}
}

// exists reports whether table has a row with id. Used to tell "no change"
// apart from "no such document" after a conditional UPDATE matched nothing.
func exists(ctx context.Context, db *pgxpool.Pool, table, id string) (bool, error) {
	var ok bool
	// table is always a constant from this package.
	err := db.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return ok, nil
}

// membershipResult turns the outcome of a conditional array UPDATE into the
// (changed, error) pair of the store interface.
func membershipResult(ctx context.Context, db *pgxpool.Pool, table, id string, tag pgconn.CommandTag) (bool, error) {
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	ok, err := exists(ctx, db, table, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNotFound
	}
	return false, nil
}
