// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the stores.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// EventService manages event records and their joined views. Registration
// and ticketing live in RegistrationService.
type EventService struct {
	catalog CatalogStore
	users   UserStore
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(catalog CatalogStore, users UserStore) *EventService {
	return &EventService{catalog: catalog, users: users}
}

// Create validates the request and stores a new event. Admin only.
func (s *EventService) Create(ctx context.Context, caller model.Identity, req model.EventRequest) (*model.Event, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("only admins can create events")
	}
	if err := validateEvent(&req); err != nil {
		return nil, err
	}
	e := &model.Event{Name: req.Name, Location: req.Location, Date: req.Date, TicketPrice: req.TicketPrice}
	if err := s.catalog.SaveEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	log.Info(log.CatRegistration, "event created", "event_id", e.ID, "name", e.Name)
	return e, nil
}

// Update replaces the descriptive fields of an event. Registrations and
// tickets are untouched. Admin only.
func (s *EventService) Update(ctx context.Context, id string, caller model.Identity, req model.EventRequest) (*model.Event, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("only admins can update events")
	}
	if err := validateEvent(&req); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetEvent(ctx, id); err != nil {
		return nil, lookupErr("event", err)
	}
	e := &model.Event{ID: id, Name: req.Name, Location: req.Location, Date: req.Date, TicketPrice: req.TicketPrice}
	if err := s.catalog.UpdateEvent(ctx, e); err != nil {
		if isMissing(err) {
			return nil, notFound("event")
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	updated, err := s.catalog.GetEvent(ctx, id)
	if err != nil {
		return nil, lookupErr("event", err)
	}
	return updated, nil
}

// Get returns one event with its cars and spectators resolved.
func (s *EventService) Get(ctx context.Context, id string) (*model.EventDetail, error) {
	if id == "" {
		return nil, invalid("event id", "is required")
	}
	e, err := s.catalog.GetEvent(ctx, id)
	if err != nil {
		return nil, lookupErr("event", err)
	}
	details, err := s.details(ctx, []model.Event{*e})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// List returns every event with its cars and spectators resolved.
func (s *EventService) List(ctx context.Context) ([]model.EventDetail, error) {
	events, err := s.catalog.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.details(ctx, events)
}

func (s *EventService) details(ctx context.Context, events []model.Event) ([]model.EventDetail, error) {
	cars := make(map[string]*model.Car)
	var spectatorIDs [][]string
	for _, e := range events {
		for _, carID := range e.CarsRegistered.Slice() {
			if _, ok := cars[carID]; ok {
				continue
			}
			c, err := s.catalog.GetCar(ctx, carID)
			if err != nil && !isMissing(err) {
				return nil, fmt.Errorf("get car %s: %w", carID, err)
			}
			cars[carID] = c
		}
		spectatorIDs = append(spectatorIDs, e.Spectators)
	}
	users, err := loadUsers(ctx, s.users, distinct(spectatorIDs...))
	if err != nil {
		return nil, err
	}

	out := make([]model.EventDetail, 0, len(events))
	for _, e := range events {
		d := model.EventDetail{Event: e, Cars: []model.CarSummary{}, SpectatorGroups: []model.SpectatorSummary{}}
		for _, carID := range e.CarsRegistered.Slice() {
			if c := cars[carID]; c != nil {
				d.Cars = append(d.Cars, model.CarSummary{ID: c.ID, OwnerID: c.OwnerID, Model: c.Model, Brand: c.Brand})
			}
		}
		for _, userID := range distinct(e.Spectators) {
			d.SpectatorGroups = append(d.SpectatorGroups, model.SpectatorSummary{
				UserSummary: users.summary(userID),
				Tickets:     e.TicketCount(userID),
			})
		}
		out = append(out, d)
	}
	return out, nil
}

func validateEvent(req *model.EventRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" {
		return invalid("name", "is required")
	}
	if req.Location == "" {
		return invalid("location", "is required")
	}
	if req.Date.IsZero() {
		return invalid("date", "is required")
	}
	if req.TicketPrice < 0 {
		return invalid("ticketPrice", "cannot be negative")
	}
	return nil
}
