package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/lock"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	EventsScanned     int           `json:"eventsScanned"`
	CarsScanned       int           `json:"carsScanned"`
	DanglingCarRefs   int           `json:"danglingCarRefs"`   // car ids dropped from events
	DanglingEventRefs int           `json:"danglingEventRefs"` // event ids dropped from cars
	CompletedOnCar    int           `json:"completedOnCar"`
	CompletedOnEvent  int           `json:"completedOnEvent"`
	Failed            int           `json:"failed"`
	Duration          time.Duration `json:"duration"`
}

// Repairs returns the number of documents changed.
func (r *ReconcileReport) Repairs() int {
	return r.DanglingCarRefs + r.DanglingEventRefs + r.CompletedOnCar + r.CompletedOnEvent
}

// Reconciler restores the symmetry between Event.carsRegistered and
// Car.registeredEvents after partial failures.
type Reconciler struct {
	catalog     CatalogStore
	locks       lock.Locker
	lockTimeout time.Duration
}

// NewReconciler constructs a Reconciler sharing the registration locks.
func NewReconciler(catalog CatalogStore, locks lock.Locker, lockTimeout time.Duration) *Reconciler {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Reconciler{catalog: catalog, locks: locks, lockTimeout: lockTimeout}
}

type refPair struct {
	eventID string
	carID   string
}

// Reconcile scans every event and car. A reference to a missing document is
// dropped; a link recorded on one side only is completed on the other.
// Every candidate pair is re-read under its locks before it is changed, so
// registrations in flight are left alone.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	start := time.Now()
	events, err := r.catalog.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	cars, err := r.catalog.ListCars(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	report := &ReconcileReport{EventsScanned: len(events), CarsScanned: len(cars)}

	eventByID := make(map[string]*model.Event, len(events))
	for i := range events {
		eventByID[events[i].ID] = &events[i]
	}
	carByID := make(map[string]*model.Car, len(cars))
	for i := range cars {
		carByID[cars[i].ID] = &cars[i]
	}

	var candidates []refPair
	seen := make(map[refPair]bool)
	add := func(p refPair) {
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}
	for _, e := range events {
		for _, carID := range e.CarsRegistered.Slice() {
			if c, ok := carByID[carID]; !ok || !c.RegisteredEvents.Has(e.ID) {
				add(refPair{eventID: e.ID, carID: carID})
			}
		}
	}
	for _, c := range cars {
		for _, eventID := range c.RegisteredEvents.Slice() {
			if e, ok := eventByID[eventID]; !ok || !e.CarsRegistered.Has(c.ID) {
				add(refPair{eventID: eventID, carID: c.ID})
			}
		}
	}

	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.repair(ctx, p, report); err != nil {
			report.Failed++
			log.ErrorErr(log.CatConsistency, "repair failed", err, "event_id", p.eventID, "car_id", p.carID)
		}
	}

	report.Duration = time.Since(start)
	log.Info(log.CatConsistency, "reconcile finished",
		"events", report.EventsScanned, "cars", report.CarsScanned,
		"repairs", report.Repairs(), "failed", report.Failed, "duration", report.Duration)
	return report, nil
}

func (r *Reconciler) repair(ctx context.Context, p refPair, report *ReconcileReport) error {
	unlock, err := acquireWithin(ctx, r.locks, r.lockTimeout, lock.CarKey(p.carID), lock.EventKey(p.eventID))
	if err != nil {
		return err
	}
	defer unlock()

	event, err := r.catalog.GetEvent(ctx, p.eventID)
	if err != nil && !isMissing(err) {
		return fmt.Errorf("get event: %w", err)
	}
	car, err := r.catalog.GetCar(ctx, p.carID)
	if err != nil && !isMissing(err) {
		return fmt.Errorf("get car: %w", err)
	}

	eventHas := event != nil && event.CarsRegistered.Has(p.carID)
	carHas := car != nil && car.RegisteredEvents.Has(p.eventID)

	switch {
	case eventHas && car == nil:
		if _, err := r.catalog.RemoveCarFromEvent(ctx, p.eventID, p.carID); err != nil {
			return fmt.Errorf("drop car from event: %w", err)
		}
		report.DanglingCarRefs++
		log.Info(log.CatConsistency, "dropped dangling car reference", "event_id", p.eventID, "car_id", p.carID)
	case carHas && event == nil:
		if _, err := r.catalog.RemoveEventFromCar(ctx, p.carID, p.eventID); err != nil {
			return fmt.Errorf("drop event from car: %w", err)
		}
		report.DanglingEventRefs++
		log.Info(log.CatConsistency, "dropped dangling event reference", "event_id", p.eventID, "car_id", p.carID)
	case eventHas && !carHas:
		if _, err := r.catalog.AddEventToCar(ctx, p.carID, p.eventID); err != nil {
			return fmt.Errorf("complete link on car: %w", err)
		}
		report.CompletedOnCar++
		log.Info(log.CatConsistency, "completed link on car", "event_id", p.eventID, "car_id", p.carID)
	case carHas && !eventHas:
		if _, err := r.catalog.AddCarToEvent(ctx, p.eventID, p.carID); err != nil {
			return fmt.Errorf("complete link on event: %w", err)
		}
		report.CompletedOnEvent++
		log.Info(log.CatConsistency, "completed link on event", "event_id", p.eventID, "car_id", p.carID)
	}
	return nil
}

// Run reconciles every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info(log.CatConsistency, "reconcile loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			log.Info(log.CatConsistency, "reconcile loop stopped")
			return
		case <-ticker.C:
			if _, err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
				log.ErrorErr(log.CatConsistency, "reconcile pass failed", err)
			}
		}
	}
}
