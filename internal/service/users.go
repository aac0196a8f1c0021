package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/auth"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/repository"
)

const minPasswordLength = 6

// TokenSigner issues bearer tokens.
type TokenSigner interface {
	Issue(userID string, role model.Role) (string, error)
}

// SessionInvalidator drops cached identities after a profile change.
type SessionInvalidator interface {
	Forget(ctx context.Context, userID string)
}

// UserOptions tunes UserService.
type UserOptions struct {
	BcryptCost       int
	AllowAdminSignup bool
}

// UserService handles accounts: signup, login and profile management.
type UserService struct {
	users         UserStore
	registrations *RegistrationService
	tokens        TokenSigner
	sessions      SessionInvalidator
	opts          UserOptions
}

// NewUserService constructs a UserService. sessions may be nil.
func NewUserService(
	users UserStore,
	registrations *RegistrationService,
	tokens TokenSigner,
	sessions SessionInvalidator,
	opts UserOptions,
) *UserService {
	return &UserService{users: users, registrations: registrations, tokens: tokens, sessions: sessions, opts: opts}
}

// Signup validates the request and creates the account.
func (s *UserService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if req.FirstName == "" {
		return nil, invalid("firstName", "is required")
	}
	if req.LastName == "" {
		return nil, invalid("lastName", "is required")
	}
	if !isValidEmail(req.Email) {
		return nil, invalid("email", "is not a valid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if !req.Role.Valid() {
		return nil, invalid("role", "must be one of admin, carOwner, spectator, mechanic")
	}
	if req.Role == model.RoleAdmin && !s.opts.AllowAdminSignup {
		return nil, forbidden("admin accounts cannot be created through signup")
	}

	hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		PhoneNumber:  req.PhoneNumber,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("email already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Info(log.CatAuth, "user signed up", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks the credentials and issues a token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if req.Password == "" {
		return nil, invalid("password", "is required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	ok, err := auth.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info(log.CatAuth, "login rejected", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatAuth, "user logged in", "user_id", u.ID)
	return &model.LoginResponse{
		Token: token,
		User:  model.UserProfile{ID: u.ID, FirstName: u.FirstName, Role: u.Role, Email: u.Email},
	}, nil
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context, caller model.Identity) ([]model.User, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admins only")
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, invalid("user id", "is required")
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	return u, nil
}

// Update applies the non-nil fields of req. Users edit themselves; admins
// edit anyone and are the only ones who may change a role.
func (s *UserService) Update(ctx context.Context, id string, caller model.Identity, req model.UpdateUserRequest) (*model.User, error) {
	if caller.UserID != id && !caller.IsAdmin() {
		return nil, forbidden("you can only edit your own profile")
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}

	if req.FirstName != nil {
		if u.FirstName = strings.TrimSpace(*req.FirstName); u.FirstName == "" {
			return nil, invalid("firstName", "cannot be empty")
		}
	}
	if req.LastName != nil {
		if u.LastName = strings.TrimSpace(*req.LastName); u.LastName == "" {
			return nil, invalid("lastName", "cannot be empty")
		}
	}
	if req.Email != nil {
		if u.Email = normalizeEmail(*req.Email); !isValidEmail(u.Email) {
			return nil, invalid("email", "is not a valid email address")
		}
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Role != nil && *req.Role != u.Role {
		if !req.Role.Valid() {
			return nil, invalid("role", "must be one of admin, carOwner, spectator, mechanic")
		}
		if !caller.IsAdmin() {
			return nil, forbidden("only admins can change roles")
		}
		u.Role = *req.Role
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, fmt.Errorf("email already exists: %w", ErrConflict)
		case isMissing(err):
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.forget(ctx, id)
	return u, nil
}

// Delete removes an account and then every car it owns.
func (s *UserService) Delete(ctx context.Context, id string, caller model.Identity) error {
	if caller.UserID != id && !caller.IsAdmin() {
		return forbidden("you can only delete your own account")
	}
	if _, err := s.users.GetUser(ctx, id); err != nil {
		return lookupErr("user", err)
	}

	// The account goes first so no car can be added for it while its cars
	// are being swept.
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return lookupErr("user", err)
	}
	s.forget(ctx, id)
	cars, err := s.registrations.DeleteCarsOwnedBy(ctx, id)
	if err != nil {
		return fmt.Errorf("delete cars of user: %w", err)
	}
	log.Info(log.CatAuth, "user deleted", "user_id", id, "cars_deleted", cars, "by", caller.UserID)
	return nil
}

func (s *UserService) forget(ctx context.Context, id string) {
	if s.sessions != nil {
		s.sessions.Forget(ctx, id)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
