package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

const eventColumns = `id, name, location, date, ticket_price, cars_registered, spectators, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e    model.Event
		cars []string
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Location, &e.Date, &e.TicketPrice, &cars, &e.Spectators, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.CarsRegistered = model.NewIDSet(cars...)
	if e.Spectators == nil {
		e.Spectators = []string{}
	}
	return &e, nil
}

// GetEvent returns a single event or ErrNotFound.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListEvents returns all events ordered by date.
func (r *EventRepository) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// SaveEvent inserts a new event (assigning an id if empty) or updates the
// descriptive fields of an existing one. cars_registered and spectators are
// only written on insert.
func (r *EventRepository) SaveEvent(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = newID()
	}
	ts := now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = ts
	}
	e.UpdatedAt = ts
	spectators := e.Spectators
	if spectators == nil {
		spectators = []string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     location = EXCLUDED.location,
		     date = EXCLUDED.date,
		     ticket_price = EXCLUDED.ticket_price,
		     updated_at = EXCLUDED.updated_at`,
		e.ID, e.Name, e.Location, e.Date, e.TicketPrice, e.CarsRegistered.Slice(), spectators, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// UpdateEvent writes the descriptive fields of an existing event. A missing
// row returns ErrNotFound instead of being recreated.
func (r *EventRepository) UpdateEvent(ctx context.Context, e *model.Event) error {
	e.UpdatedAt = now()
	err := r.db.QueryRow(ctx,
		`UPDATE events
		 SET name = $2, location = $3, date = $4, ticket_price = $5, updated_at = $6
		 WHERE id = $1
		 RETURNING created_at`,
		e.ID, e.Name, e.Location, e.Date, e.TicketPrice, e.UpdatedAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event or returns ErrNotFound.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCarToEvent appends carID to cars_registered unless already present.
func (r *EventRepository) AddCarToEvent(ctx context.Context, eventID, carID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET cars_registered = array_append(cars_registered, $2::text), updated_at = now()
		 WHERE id = $1 AND NOT ($2::text = ANY(cars_registered))`,
		eventID, carID,
	)
	if err != nil {
		return false, fmt.Errorf("add car to event: %w", err)
	}
	return membershipResult(ctx, r.db, "events", eventID, tag)
}

// RemoveCarFromEvent removes carID from cars_registered if present.
func (r *EventRepository) RemoveCarFromEvent(ctx context.Context, eventID, carID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET cars_registered = array_remove(cars_registered, $2::text), updated_at = now()
		 WHERE id = $1 AND $2::text = ANY(cars_registered)`,
		eventID, carID,
	)
	if err != nil {
		return false, fmt.Errorf("remove car from event: %w", err)
	}
	return membershipResult(ctx, r.db, "events", eventID, tag)
}

// AppendSpectators appends userID n times to the event's spectators.
func (r *EventRepository) AppendSpectators(ctx context.Context, eventID, userID string, n int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET spectators = spectators || array_fill($2::text, ARRAY[$3::int]), updated_at = now()
		 WHERE id = $1`,
		eventID, userID, n,
	)
	if err != nil {
		return fmt.Errorf("append spectators: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EventsWithCar returns the ids of events listing carID.
func (r *EventRepository) EventsWithCar(ctx context.Context, carID string) ([]string, error) {
	return collectIDs(ctx, r.db, `SELECT id FROM events WHERE cars_registered @> ARRAY[$1::text]`, carID)
}

func collectIDs(ctx context.Context, db *pgxpool.Pool, query string, args ...any) ([]string, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	return ids, nil
}
