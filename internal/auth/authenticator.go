package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/cachemanager"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/repository"
)

// UserLookup resolves a user by id. It returns repository.ErrNotFound for
// unknown ids.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Authenticator turns a bearer token into the caller's identity. The role
// comes from the stored user, not the token, so role changes and deletions
// take effect once the cached entry expires or is forgotten.
type Authenticator struct {
	tokens     *TokenIssuer
	identities *cachemanager.ReadThroughCache[model.Identity]
}

// NewAuthenticator caches user lookups for cacheTTL. A zero TTL disables
// the cache.
func NewAuthenticator(tokens *TokenIssuer, users UserLookup, cacheTTL time.Duration) *Authenticator {
	load := func(ctx context.Context, userID string) (model.Identity, error) {
		u, err := users.GetUser(ctx, userID)
		if err != nil {
			return model.Identity{}, err
		}
		return model.Identity{UserID: u.ID, Role: u.Role}, nil
	}
	cache := cachemanager.NewInMemoryCacheManager[model.Identity]("identities", cacheTTL, cachemanager.DefaultCleanupInterval)
	return &Authenticator{
		tokens:     tokens,
		identities: cachemanager.NewReadThroughCache[model.Identity](cache, load, cacheTTL),
	}
}

// Authenticate verifies raw and resolves the caller.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (model.Identity, error) {
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		log.Debug(log.CatAuth, "token rejected", "error", err)
		return model.Identity{}, err
	}
	id, err := a.identities.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info(log.CatAuth, "token for unknown user", "user_id", claims.UserID)
			return model.Identity{}, ErrUnknownUser
		}
		return model.Identity{}, fmt.Errorf("resolve user %s: %w", claims.UserID, err)
	}
	return id, nil
}

// Forget evicts the cached identity of userID.
func (a *Authenticator) Forget(ctx context.Context, userID string) {
	a.identities.Invalidate(ctx, userID)
}
