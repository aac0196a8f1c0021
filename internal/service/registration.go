package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/lock"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/repository"
)

const (
	defaultLockTimeout = 5 * time.Second
	compensateTimeout  = 5 * time.Second
)

// MaxTicketsPerPurchase bounds a single BuyTicket call.
const MaxTicketsPerPurchase = 1000

// RegistrationService keeps Event.carsRegistered and Car.registeredEvents
// mutually consistent and owns ticket sales.
//
// The two collections are written separately. Each write is a set operation
// in the store, and every mutation runs under the car lock and/or the event
// lock (always car first), so concurrent requests cannot interleave between
// the two halves of a dual-write. A half that cannot be undone is reported
// to the ConsistencyReporter and left for the Reconciler.
type RegistrationService struct {
	catalog     CatalogStore
	locks       lock.Locker
	reporter    ConsistencyReporter
	lockTimeout time.Duration
}

// NewRegistrationService constructs a RegistrationService. A non-positive
// lockTimeout selects the default of five seconds.
func NewRegistrationService(
	catalog CatalogStore,
	locks lock.Locker,
	reporter ConsistencyReporter,
	lockTimeout time.Duration,
) *RegistrationService {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &RegistrationService{catalog: catalog, locks: locks, reporter: reporter, lockTimeout: lockTimeout}
}

// RegisterCar links a car owned by the caller to an event. Registering an
// already linked pair returns the event unchanged.
func (s *RegistrationService) RegisterCar(ctx context.Context, eventID string, caller model.Identity, carID string) (*model.Event, error) {
	carID = strings.TrimSpace(carID)
	if eventID == "" {
		return nil, invalid("event id", "is required")
	}
	if carID == "" {
		return nil, invalid("carId", "is required")
	}
	if caller.Role != model.RoleCarOwner {
		return nil, forbidden("only car owners can register cars")
	}

	unlock, err := s.acquire(ctx, lock.CarKey(carID), lock.EventKey(eventID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, lookupErr("event", err)
	}
	car, err := s.catalog.GetCar(ctx, carID)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	if car.OwnerID != caller.UserID {
		return nil, forbidden("car is not owned by you")
	}

	if event.CarsRegistered.Has(carID) && car.RegisteredEvents.Has(eventID) {
		log.Debug(log.CatRegistration, "car already registered", "event_id", eventID, "car_id", carID)
		return event, nil
	}

	addedToEvent, err := s.catalog.AddCarToEvent(ctx, eventID, carID)
	if err != nil {
		return nil, writeErr("add car to event", err)
	}
	if _, err := s.catalog.AddEventToCar(ctx, carID, eventID); err != nil {
		s.undoEventSide(ctx, eventID, carID, addedToEvent, err)
		return nil, writeErr("add event to car", err)
	}

	updated, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("reload event: %w", err)
	}
	log.Info(log.CatRegistration, "car registered", "event_id", eventID, "car_id", carID, "owner_id", caller.UserID)
	return updated, nil
}

// undoEventSide removes the car from the event after the car-side write
// failed. Only a link this call created is removed.
func (s *RegistrationService) undoEventSide(ctx context.Context, eventID, carID string, addedToEvent bool, cause error) {
	if !addedToEvent {
		s.report(ctx, &ConsistencyWarning{
			Op: "register-car", EventID: eventID, CarID: carID,
			Detail: "event already listed car; car-side write failed", Err: cause,
		})
		return
	}

	undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if _, err := s.catalog.RemoveCarFromEvent(undoCtx, eventID, carID); err != nil {
		s.report(ctx, &ConsistencyWarning{
			Op: "register-car", EventID: eventID, CarID: carID,
			Detail: "car-side write failed and event-side rollback failed",
			Err:    errors.Join(cause, err),
		})
		return
	}
	log.Warn(log.CatRegistration, "registration rolled back", "event_id", eventID, "car_id", carID, "error", cause)
}

// BuyTicket appends quantity tickets for the caller. Zero means one ticket.
func (s *RegistrationService) BuyTicket(ctx context.Context, eventID string, caller model.Identity, quantity int) (*model.Event, error) {
	if eventID == "" {
		return nil, invalid("event id", "is required")
	}
	if quantity < 0 {
		return nil, invalid("quantity", "must be positive")
	}
	if quantity > MaxTicketsPerPurchase {
		return nil, invalid("quantity", fmt.Sprintf("cannot exceed %d per purchase", MaxTicketsPerPurchase))
	}
	if quantity == 0 {
		quantity = 1
	}

	if err := s.catalog.AppendSpectators(ctx, eventID, caller.UserID, quantity); err != nil {
		return nil, lookupErr("event", err)
	}
	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return nil, lookupErr("event", err)
	}
	log.Info(log.CatRegistration, "tickets purchased", "event_id", eventID, "user_id", caller.UserID, "quantity", quantity)
	return event, nil
}

// TicketCount returns how many tickets userID holds for the event.
func (s *RegistrationService) TicketCount(ctx context.Context, eventID, userID string) (int, error) {
	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return 0, lookupErr("event", err)
	}
	return event.TicketCount(userID), nil
}

// DeleteCar removes a car and then detaches it from every event listing it.
// The caller must own the car or be an admin.
func (s *RegistrationService) DeleteCar(ctx context.Context, carID string, caller model.Identity) error {
	unlock, err := s.acquire(ctx, lock.CarKey(carID))
	if err != nil {
		return err
	}
	defer unlock()

	car, err := s.catalog.GetCar(ctx, carID)
	if err != nil {
		return lookupErr("car", err)
	}
	if car.OwnerID != caller.UserID && !caller.IsAdmin() {
		return forbidden("only the owner or an admin can delete a car")
	}
	return s.deleteCarLocked(ctx, car)
}

func (s *RegistrationService) deleteCarLocked(ctx context.Context, car *model.Car) error {
	if err := s.catalog.DeleteCar(ctx, car.ID); err != nil {
		return lookupErr("car", err)
	}

	eventIDs := car.RegisteredEvents.Clone()
	scanned, err := s.catalog.EventsWithCar(ctx, car.ID)
	if err != nil {
		s.report(ctx, &ConsistencyWarning{
			Op: "delete-car", CarID: car.ID,
			Detail: "could not scan events for the deleted car", Err: err,
		})
	}
	for _, id := range scanned {
		eventIDs.Add(id)
	}

	for _, eventID := range eventIDs.Slice() {
		if _, err := s.catalog.RemoveCarFromEvent(ctx, eventID, car.ID); err != nil && !isMissing(err) {
			s.report(ctx, &ConsistencyWarning{
				Op: "delete-car", EventID: eventID, CarID: car.ID,
				Detail: "car deleted but event still lists it", Err: err,
			})
		}
	}
	log.Info(log.CatRegistration, "car deleted", "car_id", car.ID, "events_detached", eventIDs.Len())
	return nil
}

// DeleteCarsOwnedBy deletes every car of ownerID with the same cascade as
// DeleteCar. It returns how many cars were removed.
func (s *RegistrationService) DeleteCarsOwnedBy(ctx context.Context, ownerID string) (int, error) {
	cars, err := s.catalog.ListCarsByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list cars of %s: %w", ownerID, err)
	}
	deleted := 0
	for _, c := range cars {
		if err := s.deleteOwnedCar(ctx, c.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *RegistrationService) deleteOwnedCar(ctx context.Context, carID string) error {
	unlock, err := s.acquire(ctx, lock.CarKey(carID))
	if err != nil {
		return err
	}
	defer unlock()

	car, err := s.catalog.GetCar(ctx, carID)
	if err != nil {
		return lookupErr("car", err)
	}
	return s.deleteCarLocked(ctx, car)
}

// DeleteEvent removes an event and then detaches it from every car that
// references it. Admin only.
func (s *RegistrationService) DeleteEvent(ctx context.Context, eventID string, caller model.Identity) error {
	if !caller.IsAdmin() {
		return forbidden("only admins can delete events")
	}

	unlock, err := s.acquire(ctx, lock.EventKey(eventID))
	if err != nil {
		return err
	}
	defer unlock()

	event, err := s.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return lookupErr("event", err)
	}
	if err := s.catalog.DeleteEvent(ctx, eventID); err != nil {
		return lookupErr("event", err)
	}

	carIDs := event.CarsRegistered.Clone()
	scanned, err := s.catalog.CarsWithEvent(ctx, eventID)
	if err != nil {
		s.report(ctx, &ConsistencyWarning{
			Op: "delete-event", EventID: eventID,
			Detail: "could not scan cars for the deleted event", Err: err,
		})
	}
	for _, id := range scanned {
		carIDs.Add(id)
	}

	for _, carID := range carIDs.Slice() {
		if _, err := s.catalog.RemoveEventFromCar(ctx, carID, eventID); err != nil && !isMissing(err) {
			s.report(ctx, &ConsistencyWarning{
				Op: "delete-event", EventID: eventID, CarID: carID,
				Detail: "event deleted but car still references it", Err: err,
			})
		}
	}
	log.Info(log.CatRegistration, "event deleted", "event_id", eventID, "cars_detached", carIDs.Len())
	return nil
}

func (s *RegistrationService) acquire(ctx context.Context, keys ...string) (lock.Unlock, error) {
	return acquireWithin(ctx, s.locks, s.lockTimeout, keys...)
}

// acquireWithin takes keys in order, giving up after timeout.
func acquireWithin(ctx context.Context, locks lock.Locker, timeout time.Duration, keys ...string) (lock.Unlock, error) {
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	unlock, err := lock.Acquire(lockCtx, locks, keys...)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", strings.Join(keys, ","), err)
	}
	return unlock, nil
}

func (s *RegistrationService) report(ctx context.Context, w *ConsistencyWarning) {
	if s.reporter == nil {
		log.Warn(log.CatConsistency, "cross-reference mismatch", "op", w.Op, "event_id", w.EventID, "car_id", w.CarID, "error", w.Err)
		return
	}
	s.reporter.Report(ctx, w)
}

func isMissing(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func lookupErr(kind string, err error) error {
	if isMissing(err) {
		return notFound(kind)
	}
	return fmt.Errorf("get %s: %w", kind, err)
}

func writeErr(op string, err error) error {
	if isMissing(err) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
