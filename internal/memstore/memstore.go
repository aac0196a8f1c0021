// Package memstore is an in-process implementation of every store the
// services depend on. It backs the "memory" database driver and the test
// suites. Documents are cloned on the way in and out, so callers never share
// state with the store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/repository"
)

// Store holds all collections behind one mutex.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	cars      map[string]*model.Car
	events    map[string]*model.Event
	mechanics map[string]*model.MechanicService
	lessons   map[string]*model.AcademyLesson
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]*model.User),
		cars:      make(map[string]*model.Car),
		events:    make(map[string]*model.Event),
		mechanics: make(map[string]*model.MechanicService),
		lessons:   make(map[string]*model.AcademyLesson),
	}
}

func now() time.Time { return time.Now().UTC() }

func newID() string { return uuid.New().String() }

// ─── Events ──────────────────────────────────────────────────────────────────

// GetEvent returns a copy of the event or repository.ErrNotFound.
func (s *Store) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e.Clone(), nil
}

// ListEvents returns all events ordered by date.
func (s *Store) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// SaveEvent inserts e or updates its descriptive fields.
func (s *Store) SaveEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := now()
	if e.ID == "" {
		e.ID = newID()
	}
	if cur, ok := s.events[e.ID]; ok {
		cur.Name, cur.Location, cur.Date, cur.TicketPrice = e.Name, e.Location, e.Date, e.TicketPrice
		cur.UpdatedAt = ts
		e.CreatedAt, e.UpdatedAt = cur.CreatedAt, ts
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = ts
	}
	e.UpdatedAt = ts
	if e.Spectators == nil {
		e.Spectators = []string{}
	}
	s.events[e.ID] = e.Clone()
	return nil
}

// UpdateEvent updates the descriptive fields of an existing event.
func (s *Store) UpdateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ts := now()
	cur.Name, cur.Location, cur.Date, cur.TicketPrice = e.Name, e.Location, e.Date, e.TicketPrice
	cur.UpdatedAt = ts
	e.CreatedAt, e.UpdatedAt = cur.CreatedAt, ts
	return nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// AddCarToEvent adds carID to the event's carsRegistered set.
func (s *Store) AddCarToEvent(_ context.Context, eventID, carID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return false, repository.ErrNotFound
	}
	changed := e.CarsRegistered.Add(carID)
	if changed {
		e.UpdatedAt = now()
	}
	return changed, nil
}

// RemoveCarFromEvent removes carID from the event's carsRegistered set.
func (s *Store) RemoveCarFromEvent(_ context.Context, eventID, carID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return false, repository.ErrNotFound
	}
	changed := e.CarsRegistered.Remove(carID)
	if changed {
		e.UpdatedAt = now()
	}
	return changed, nil
}

// AppendSpectators appends userID n times.
func (s *Store) AppendSpectators(_ context.Context, eventID, userID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := 0; i < n; i++ {
		e.Spectators = append(e.Spectators, userID)
	}
	e.UpdatedAt = now()
	return nil
}

// EventsWithCar returns the ids of events listing carID.
func (s *Store) EventsWithCar(_ context.Context, carID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, e := range s.events {
		if e.CarsRegistered.Has(carID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ─── Cars ────────────────────────────────────────────────────────────────────

// GetCar returns a copy of the car or repository.ErrNotFound.
func (s *Store) GetCar(_ context.Context, id string) (*model.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) listCars(keep func(*model.Car) bool) []model.Car {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Car{}
	for _, c := range s.cars {
		if keep(c) {
			out = append(out, *c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ListCars returns every car, newest first.
func (s *Store) ListCars(_ context.Context) ([]model.Car, error) {
	return s.listCars(func(*model.Car) bool { return true }), nil
}

// ListCarsByOwner returns the cars of ownerID, newest first.
func (s *Store) ListCarsByOwner(_ context.Context, ownerID string) ([]model.Car, error) {
	return s.listCars(func(c *model.Car) bool { return c.OwnerID == ownerID }), nil
}

// SaveCar inserts c or updates its descriptive fields.
func (s *Store) SaveCar(_ context.Context, c *model.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := now()
	if c.ID == "" {
		c.ID = newID()
	}
	if cur, ok := s.cars[c.ID]; ok {
		cp := c.Clone()
		cur.Model, cur.Brand, cur.Mods, cur.PerformanceStats = cp.Model, cp.Brand, cp.Mods, cp.PerformanceStats
		cur.UpdatedAt = ts
		c.CreatedAt, c.UpdatedAt = cur.CreatedAt, ts
		return nil
	}
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
	s.cars[c.ID] = c.Clone()
	return nil
}

// UpdateCar updates the descriptive fields of an existing car.
func (s *Store) UpdateCar(_ context.Context, c *model.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cars[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ts := now()
	cp := c.Clone()
	cur.Model, cur.Brand, cur.Mods, cur.PerformanceStats = cp.Model, cp.Brand, cp.Mods, cp.PerformanceStats
	cur.UpdatedAt = ts
	c.CreatedAt, c.UpdatedAt = cur.CreatedAt, ts
	return nil
}

// DeleteCar removes a car.
func (s *Store) DeleteCar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cars[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.cars, id)
	return nil
}

// AddEventToCar adds eventID to the car's registeredEvents set.
func (s *Store) AddEventToCar(_ context.Context, carID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cars[carID]
	if !ok {
		return false, repository.ErrNotFound
	}
	changed := c.RegisteredEvents.Add(eventID)
	if changed {
		c.UpdatedAt = now()
	}
	return changed, nil
}

// RemoveEventFromCar removes eventID from the car's registeredEvents set.
func (s *Store) RemoveEventFromCar(_ context.Context, carID, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cars[carID]
	if !ok {
		return false, repository.ErrNotFound
	}
	changed := c.RegisteredEvents.Remove(eventID)
	if changed {
		c.UpdatedAt = now()
	}
	return changed, nil
}

// CarsWithEvent returns the ids of cars referencing eventID.
func (s *Store) CarsWithEvent(_ context.Context, eventID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, c := range s.cars {
		if c.RegisteredEvents.Has(eventID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ─── Users ───────────────────────────────────────────────────────────────────

func (s *Store) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// CreateUser inserts u. A taken email returns repository.ErrDuplicate.
func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, "") {
		return repository.ErrDuplicate
	}
	u.ID = newID()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// GetUser returns a copy of the user or repository.ErrNotFound.
func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail returns the user with email or repository.ErrNotFound.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetUsers returns the users among ids that exist.
func (s *Store) GetUsers(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.User
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *u)
		}
	}
	return out, nil
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateUser writes the profile fields of u.
func (s *Store) UpdateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.emailTaken(u.Email, u.ID) {
		return repository.ErrDuplicate
	}
	cur.FirstName, cur.LastName, cur.Email, cur.Role, cur.PhoneNumber = u.FirstName, u.LastName, u.Email, u.Role, u.PhoneNumber
	cur.UpdatedAt = now()
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ─── Mechanic services ───────────────────────────────────────────────────────

func cloneService(m *model.MechanicService) *model.MechanicService {
	cp := *m
	cp.ServicesOffered = append([]string{}, m.ServicesOffered...)
	return &cp
}

// CreateMechanicService inserts m.
func (s *Store) CreateMechanicService(_ context.Context, m *model.MechanicService) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = newID()
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt
	s.mechanics[m.ID] = cloneService(m)
	return nil
}

// GetMechanicService returns a listing or repository.ErrNotFound.
func (s *Store) GetMechanicService(_ context.Context, id string) (*model.MechanicService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mechanics[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneService(m), nil
}

// ListMechanicServices returns every listing, newest first.
func (s *Store) ListMechanicServices(_ context.Context) ([]model.MechanicService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MechanicService, 0, len(s.mechanics))
	for _, m := range s.mechanics {
		out = append(out, *cloneService(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateMechanicService writes the descriptive fields of m.
func (s *Store) UpdateMechanicService(_ context.Context, m *model.MechanicService) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.mechanics[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := cloneService(m)
	cur.Title, cur.Description, cur.ServicesOffered, cur.Price, cur.Availability = cp.Title, cp.Description, cp.ServicesOffered, cp.Price, cp.Availability
	cur.UpdatedAt = now()
	m.UpdatedAt = cur.UpdatedAt
	return nil
}

// DeleteMechanicService removes a listing.
func (s *Store) DeleteMechanicService(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mechanics[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.mechanics, id)
	return nil
}

// ─── Academy lessons ─────────────────────────────────────────────────────────

// CreateLesson inserts l.
func (s *Store) CreateLesson(_ context.Context, l *model.AcademyLesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = newID()
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt
	s.lessons[l.ID] = l.Clone()
	return nil
}

// GetLesson returns a lesson or repository.ErrNotFound.
func (s *Store) GetLesson(_ context.Context, id string) (*model.AcademyLesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return l.Clone(), nil
}

// ListLessons returns every lesson, newest first.
func (s *Store) ListLessons(_ context.Context) ([]model.AcademyLesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AcademyLesson, 0, len(s.lessons))
	for _, l := range s.lessons {
		out = append(out, *l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AddApplicant adds userID to the lesson's applicants set.
func (s *Store) AddApplicant(_ context.Context, lessonID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[lessonID]
	if !ok {
		return false, repository.ErrNotFound
	}
	return l.Applicants.Add(userID), nil
}
