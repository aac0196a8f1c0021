package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// CarService manages car records. Deletion goes through RegistrationService
// so events are detached.
type CarService struct {
	catalog CatalogStore
	users   UserStore
}

// NewCarService constructs a CarService.
func NewCarService(catalog CatalogStore, users UserStore) *CarService {
	return &CarService{catalog: catalog, users: users}
}

// Create adds a car owned by the caller. Car owners only.
func (s *CarService) Create(ctx context.Context, caller model.Identity, req model.CarRequest) (*model.Car, error) {
	if caller.Role != model.RoleCarOwner {
		return nil, forbidden("only car owners can add cars")
	}
	if err := validateCar(&req); err != nil {
		return nil, err
	}
	c := &model.Car{
		OwnerID:          caller.UserID,
		Model:            req.Model,
		Brand:            req.Brand,
		Mods:             req.Mods,
		PerformanceStats: req.PerformanceStats,
	}
	if err := s.catalog.SaveCar(ctx, c); err != nil {
		return nil, fmt.Errorf("create car: %w", err)
	}
	// The owner may have been deleted after the caller authenticated; the
	// account's car sweep could then miss this car.
	if _, err := s.users.GetUser(ctx, caller.UserID); err != nil {
		if delErr := s.catalog.DeleteCar(ctx, c.ID); delErr != nil && !isMissing(delErr) {
			log.ErrorErr(log.CatRegistration, "remove car of deleted owner", delErr, "car_id", c.ID)
		}
		return nil, lookupErr("user", err)
	}
	log.Info(log.CatRegistration, "car created", "car_id", c.ID, "owner_id", c.OwnerID)
	return s.catalog.GetCar(ctx, c.ID)
}

// Update replaces the descriptive fields of a car. Registered events are
// untouched. Owner or admin.
func (s *CarService) Update(ctx context.Context, id string, caller model.Identity, req model.CarRequest) (*model.Car, error) {
	cur, err := s.catalog.GetCar(ctx, id)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	if cur.OwnerID != caller.UserID && !caller.IsAdmin() {
		return nil, forbidden("only the owner or an admin can update a car")
	}
	if err := validateCar(&req); err != nil {
		return nil, err
	}
	c := &model.Car{
		ID:               id,
		OwnerID:          cur.OwnerID,
		Model:            req.Model,
		Brand:            req.Brand,
		Mods:             req.Mods,
		PerformanceStats: req.PerformanceStats,
	}
	if err := s.catalog.UpdateCar(ctx, c); err != nil {
		if isMissing(err) {
			return nil, notFound("car")
		}
		return nil, fmt.Errorf("update car: %w", err)
	}
	updated, err := s.catalog.GetCar(ctx, id)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	return updated, nil
}

// ListOwned returns the caller's cars.
func (s *CarService) ListOwned(ctx context.Context, caller model.Identity) ([]model.Car, error) {
	return s.ListByOwner(ctx, caller.UserID, caller)
}

// ListByOwner returns the cars of ownerID. Self or admin.
func (s *CarService) ListByOwner(ctx context.Context, ownerID string, caller model.Identity) ([]model.Car, error) {
	if ownerID != caller.UserID && !caller.IsAdmin() {
		return nil, forbidden("you can only list your own cars")
	}
	cars, err := s.catalog.ListCarsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	return cars, nil
}

// ListAll returns every car with owner and events resolved. Admin only.
func (s *CarService) ListAll(ctx context.Context, caller model.Identity) ([]model.CarDetail, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admins only")
	}
	cars, err := s.catalog.ListCars(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	events, err := s.catalog.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	eventByID := make(map[string]model.EventSummary, len(events))
	for i := range events {
		eventByID[events[i].ID] = events[i].Summary()
	}

	ownerIDs := make([]string, 0, len(cars))
	for _, c := range cars {
		ownerIDs = append(ownerIDs, c.OwnerID)
	}
	owners, err := loadUsers(ctx, s.users, distinct(ownerIDs))
	if err != nil {
		return nil, err
	}

	out := make([]model.CarDetail, 0, len(cars))
	for _, c := range cars {
		d := model.CarDetail{Car: c, Owner: owners.find(c.OwnerID), Events: []model.EventSummary{}}
		for _, eventID := range c.RegisteredEvents.Slice() {
			if e, ok := eventByID[eventID]; ok {
				d.Events = append(d.Events, e)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func validateCar(req *model.CarRequest) error {
	req.Model = strings.TrimSpace(req.Model)
	req.Brand = strings.TrimSpace(req.Brand)
	if req.Model == "" {
		return invalid("model", "is required")
	}
	if req.Brand == "" {
		return invalid("brand", "is required")
	}
	mods := make([]string, 0, len(req.Mods))
	for _, m := range req.Mods {
		if m = strings.TrimSpace(m); m != "" {
			mods = append(mods, m)
		}
	}
	req.Mods = mods
	if req.PerformanceStats == nil {
		req.PerformanceStats = map[string]any{}
	}
	return nil
}
