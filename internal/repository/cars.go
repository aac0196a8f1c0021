package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

const carColumns = `id, owner_id, model, brand, mods, performance_stats, registered_events, created_at, updated_at`

// CarRepository handles persistence for cars.
type CarRepository struct {
	db *pgxpool.Pool
}

// NewCarRepository constructs a CarRepository.
func NewCarRepository(db *pgxpool.Pool) *CarRepository {
	return &CarRepository{db: db}
}

func scanCar(row pgx.Row) (*model.Car, error) {
	var (
		c      model.Car
		events []string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Model, &c.Brand, &c.Mods, &c.PerformanceStats, &events, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.RegisteredEvents = model.NewIDSet(events...)
	if c.Mods == nil {
		c.Mods = []string{}
	}
	if c.PerformanceStats == nil {
		c.PerformanceStats = map[string]any{}
	}
	return &c, nil
}

func (r *CarRepository) queryCars(ctx context.Context, query string, args ...any) ([]model.Car, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	defer rows.Close()

	var cars []model.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan car: %w", err)
		}
		cars = append(cars, *c)
	}
	return cars, rows.Err()
}

// GetCar returns a single car or ErrNotFound.
func (r *CarRepository) GetCar(ctx context.Context, id string) (*model.Car, error) {
	c, err := scanCar(r.db.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get car: %w", err)
	}
	return c, nil
}

// ListCars returns every car, newest first.
func (r *CarRepository) ListCars(ctx context.Context) ([]model.Car, error) {
	return r.queryCars(ctx, `SELECT `+carColumns+` FROM cars ORDER BY created_at DESC`)
}

// ListCarsByOwner returns the cars of one user, newest first.
func (r *CarRepository) ListCarsByOwner(ctx context.Context, ownerID string) ([]model.Car, error) {
	return r.queryCars(ctx, `SELECT `+carColumns+` FROM cars WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

// SaveCar inserts a new car (assigning an id if empty) or updates the
// descriptive fields of an existing one. registered_events is only written
// on insert.
func (r *CarRepository) SaveCar(ctx context.Context, c *model.Car) error {
	if c.ID == "" {
		c.ID = newID()
	}
	ts := now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = ts
	}
	c.UpdatedAt = ts
	if c.Mods == nil {
		c.Mods = []string{}
	}
	if c.PerformanceStats == nil {
		c.PerformanceStats = map[string]any{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO cars (`+carColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     model = EXCLUDED.model,
		     brand = EXCLUDED.brand,
		     mods = EXCLUDED.mods,
		     performance_stats = EXCLUDED.performance_stats,
		     updated_at = EXCLUDED.updated_at`,
		c.ID, c.OwnerID, c.Model, c.Brand, c.Mods, c.PerformanceStats, c.RegisteredEvents.Slice(), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save car: %w", err)
	}
	return nil
}

// UpdateCar writes the descriptive fields of an existing car. A missing row
// returns ErrNotFound instead of being recreated.
func (r *CarRepository) UpdateCar(ctx context.Context, c *model.Car) error {
	c.UpdatedAt = now()
	if c.Mods == nil {
		c.Mods = []string{}
	}
	if c.PerformanceStats == nil {
		c.PerformanceStats = map[string]any{}
	}
	err := r.db.QueryRow(ctx,
		`UPDATE cars
		 SET model = $2, brand = $3, mods = $4, performance_stats = $5, updated_at = $6
		 WHERE id = $1
		 RETURNING created_at`,
		c.ID, c.Model, c.Brand, c.Mods, c.PerformanceStats, c.UpdatedAt,
	).Scan(&c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update car: %w", err)
	}
	return nil
}

// DeleteCar removes a car or returns ErrNotFound.
func (r *CarRepository) DeleteCar(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEventToCar appends eventID to registered_events unless already present.
func (r *CarRepository) AddEventToCar(ctx context.Context, carID, eventID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE cars
		 SET registered_events = array_append(registered_events, $2::text), updated_at = now()
		 WHERE id = $1 AND NOT ($2::text = ANY(registered_events))`,
		carID, eventID,
	)
	if err != nil {
		return false, fmt.Errorf("add event to car: %w", err)
	}
	return membershipResult(ctx, r.db, "cars", carID, tag)
}

// RemoveEventFromCar removes eventID from registered_events if present.
func (r *CarRepository) RemoveEventFromCar(ctx context.Context, carID, eventID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE cars
		 SET registered_events = array_remove(registered_events, $2::text), updated_at = now()
		 WHERE id = $1 AND $2::text = ANY(registered_events)`,
		carID, eventID,
	)
	if err != nil {
		return false, fmt.Errorf("remove event from car: %w", err)
	}
	return membershipResult(ctx, r.db, "cars", carID, tag)
}

// CarsWithEvent returns the ids of cars referencing eventID.
func (r *CarRepository) CarsWithEvent(ctx context.Context, eventID string) ([]string, error) {
	return collectIDs(ctx, r.db, `SELECT id FROM cars WHERE registered_events @> ARRAY[$1::text]`, eventID)
}
