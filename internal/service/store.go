package service

import (
	"context"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// Stores return repository.ErrNotFound (or anything wrapping it) for missing
// documents. The service translates it with isMissing.

// CatalogStore persists cars and events. Every method is atomic for a single
// document; nothing spans two documents.
type CatalogStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	// SaveEvent inserts e, or updates its descriptive fields if it exists.
	// Cross-references are never overwritten.
	SaveEvent(ctx context.Context, e *model.Event) error
	// UpdateEvent writes the descriptive fields of an existing event and
	// returns ErrNotFound when it is gone. It never inserts.
	UpdateEvent(ctx context.Context, e *model.Event) error
	DeleteEvent(ctx context.Context, id string) error

	GetCar(ctx context.Context, id string) (*model.Car, error)
	ListCars(ctx context.Context) ([]model.Car, error)
	ListCarsByOwner(ctx context.Context, ownerID string) ([]model.Car, error)
	// SaveCar inserts c, or updates its descriptive fields if it exists.
	SaveCar(ctx context.Context, c *model.Car) error
	// UpdateCar is UpdateEvent for cars.
	UpdateCar(ctx context.Context, c *model.Car) error
	DeleteCar(ctx context.Context, id string) error

	// Set-semantic membership updates. The bool reports whether the
	// document changed.
	AddCarToEvent(ctx context.Context, eventID, carID string) (bool, error)
	RemoveCarFromEvent(ctx context.Context, eventID, carID string) (bool, error)
	AddEventToCar(ctx context.Context, carID, eventID string) (bool, error)
	RemoveEventFromCar(ctx context.Context, carID, eventID string) (bool, error)

	// AppendSpectators appends userID to the event's spectators n times.
	AppendSpectators(ctx context.Context, eventID, userID string, n int) error

	// EventsWithCar returns ids of events whose carsRegistered holds carID.
	EventsWithCar(ctx context.Context, carID string) ([]string, error)
	// CarsWithEvent returns ids of cars whose registeredEvents holds eventID.
	CarsWithEvent(ctx context.Context, eventID string) ([]string, error)
}

// UserStore persists users. Emails are unique.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsers(ctx context.Context, ids []string) ([]model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error
}

// MechanicStore persists mechanic service listings.
type MechanicStore interface {
	CreateMechanicService(ctx context.Context, s *model.MechanicService) error
	GetMechanicService(ctx context.Context, id string) (*model.MechanicService, error)
	ListMechanicServices(ctx context.Context) ([]model.MechanicService, error)
	UpdateMechanicService(ctx context.Context, s *model.MechanicService) error
	DeleteMechanicService(ctx context.Context, id string) error
}

// LessonStore persists academy lessons.
type LessonStore interface {
	CreateLesson(ctx context.Context, l *model.AcademyLesson) error
	GetLesson(ctx context.Context, id string) (*model.AcademyLesson, error)
	ListLessons(ctx context.Context) ([]model.AcademyLesson, error)
	AddApplicant(ctx context.Context, lessonID, userID string) (bool, error)
}
