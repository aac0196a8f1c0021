package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/lock"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/memstore"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

var errInjected = errors.New("injected store failure")

// faultyCatalog wraps a CatalogStore and fails selected writes.
type faultyCatalog struct {
	CatalogStore

	mu                  sync.Mutex
	failAddEventToCar   bool
	failRemoveFromEvent bool
	failRemoveFromCar   bool
}

func (f *faultyCatalog) set(fn func(*faultyCatalog)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *faultyCatalog) AddEventToCar(ctx context.Context, carID, eventID string) (bool, error) {
	f.mu.Lock()
	fail := f.failAddEventToCar
	f.mu.Unlock()
	if fail {
		return false, errInjected
	}
	return f.CatalogStore.AddEventToCar(ctx, carID, eventID)
}

func (f *faultyCatalog) RemoveCarFromEvent(ctx context.Context, eventID, carID string) (bool, error) {
	f.mu.Lock()
	fail := f.failRemoveFromEvent
	f.mu.Unlock()
	if fail {
		return false, errInjected
	}
	return f.CatalogStore.RemoveCarFromEvent(ctx, eventID, carID)
}

func (f *faultyCatalog) RemoveEventFromCar(ctx context.Context, carID, eventID string) (bool, error) {
	f.mu.Lock()
	fail := f.failRemoveFromCar
	f.mu.Unlock()
	if fail {
		return false, errInjected
	}
	return f.CatalogStore.RemoveEventFromCar(ctx, carID, eventID)
}

type env struct {
	store        *memstore.Store
	catalog      *faultyCatalog
	reporter     *LogReporter
	registration *RegistrationService
}

func newEnv(t testing.TB) *env {
	t.Helper()
	store := memstore.New()
	catalog := &faultyCatalog{CatalogStore: store}
	reporter := NewLogReporter(0)
	return &env{
		store:        store,
		catalog:      catalog,
		reporter:     reporter,
		registration: NewRegistrationService(catalog, lock.NewLocal(), reporter, time.Second),
	}
}

func (e *env) user(t testing.TB, role model.Role) model.Identity {
	t.Helper()
	n := userSeq.Add(1)
	u := &model.User{FirstName: "Test", LastName: string(role), Email: fmt.Sprintf("%s-%d@club.test", role, n), Role: role}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return model.Identity{UserID: u.ID, Role: role}
}

func (e *env) car(t testing.TB, owner model.Identity) *model.Car {
	t.Helper()
	c := &model.Car{OwnerID: owner.UserID, Model: "GT3", Brand: "Porsche"}
	require.NoError(t, e.store.SaveCar(context.Background(), c))
	return c
}

func (e *env) event(t testing.TB, name string) *model.Event {
	t.Helper()
	ev := &model.Event{Name: name, Location: "Silverstone", Date: time.Now().Add(24 * time.Hour), TicketPrice: 50}
	require.NoError(t, e.store.SaveEvent(context.Background(), ev))
	return ev
}

func (e *env) getEvent(t testing.TB, id string) *model.Event {
	t.Helper()
	ev, err := e.store.GetEvent(context.Background(), id)
	require.NoError(t, err)
	return ev
}

func (e *env) getCar(t testing.TB, id string) *model.Car {
	t.Helper()
	c, err := e.store.GetCar(context.Background(), id)
	require.NoError(t, err)
	return c
}

var userSeq atomic.Int64

var admin = model.Identity{UserID: "admin-1", Role: model.RoleAdmin}

// interleavingCatalog runs hook once, right after the first successful
// GetEvent or GetCar, to land a concurrent write between a read and the
// write that follows it.
type interleavingCatalog struct {
	CatalogStore
	once sync.Once
	hook func()
}

func (c *interleavingCatalog) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := c.CatalogStore.GetEvent(ctx, id)
	if err == nil {
		c.once.Do(c.hook)
	}
	return e, err
}

func (c *interleavingCatalog) GetCar(ctx context.Context, id string) (*model.Car, error) {
	car, err := c.CatalogStore.GetCar(ctx, id)
	if err == nil {
		c.once.Do(c.hook)
	}
	return car, err
}
