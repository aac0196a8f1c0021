package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, phone_number, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.PhoneNumber, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateUser inserts u, assigning its id and timestamps. A taken email
// returns ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	u.ID = newID()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.PhoneNumber, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by id or ErrNotFound.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetUserByEmail returns a user by email or ErrNotFound.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

// GetUsers returns the users among ids that exist, in no particular order.
func (r *UserRepository) GetUsers(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
}

// ListUsers returns every user, oldest first.
func (r *UserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
}

// UpdateUser writes the profile fields of u.
func (r *UserRepository) UpdateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = now()
	tag, err := r.db.Exec(ctx,
		`UPDATE users
		 SET first_name = $2, last_name = $3, email = $4, role = $5, phone_number = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Role, u.PhoneNumber, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user or returns ErrNotFound.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
