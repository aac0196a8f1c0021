package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

const mechanicColumns = `id, user_id, title, description, services_offered, price, availability, created_at, updated_at`

// MechanicRepository handles persistence for mechanic service listings.
type MechanicRepository struct {
	db *pgxpool.Pool
}

// NewMechanicRepository constructs a MechanicRepository.
func NewMechanicRepository(db *pgxpool.Pool) *MechanicRepository {
	return &MechanicRepository{db: db}
}

func scanMechanicService(row pgx.Row) (*model.MechanicService, error) {
	var s model.MechanicService
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.ServicesOffered, &s.Price, &s.Availability, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateMechanicService inserts s, assigning its id and timestamps.
func (r *MechanicRepository) CreateMechanicService(ctx context.Context, s *model.MechanicService) error {
	s.ID = newID()
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt

	_, err := r.db.Exec(ctx,
		`INSERT INTO mechanic_services (`+mechanicColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.Title, s.Description, s.ServicesOffered, s.Price, s.Availability, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mechanic service: %w", err)
	}
	return nil
}

// GetMechanicService returns a listing or ErrNotFound.
func (r *MechanicRepository) GetMechanicService(ctx context.Context, id string) (*model.MechanicService, error) {
	s, err := scanMechanicService(r.db.QueryRow(ctx,
		`SELECT `+mechanicColumns+` FROM mechanic_services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get mechanic service: %w", err)
	}
	return s, nil
}

// ListMechanicServices returns every listing, newest first.
func (r *MechanicRepository) ListMechanicServices(ctx context.Context) ([]model.MechanicService, error) {
	rows, err := r.db.Query(ctx, `SELECT `+mechanicColumns+` FROM mechanic_services ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list mechanic services: %w", err)
	}
	defer rows.Close()

	var services []model.MechanicService
	for rows.Next() {
		s, err := scanMechanicService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mechanic service: %w", err)
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}

// UpdateMechanicService writes the descriptive fields of s.
func (r *MechanicRepository) UpdateMechanicService(ctx context.Context, s *model.MechanicService) error {
	s.UpdatedAt = now()
	tag, err := r.db.Exec(ctx,
		`UPDATE mechanic_services
		 SET title = $2, description = $3, services_offered = $4, price = $5, availability = $6, updated_at = $7
		 WHERE id = $1`,
		s.ID, s.Title, s.Description, s.ServicesOffered, s.Price, s.Availability, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update mechanic service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMechanicService removes a listing or returns ErrNotFound.
func (r *MechanicRepository) DeleteMechanicService(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM mechanic_services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mechanic service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
