// Package model defines the core domain types for the motorsport club.
package model

import "time"

// Role is the access level of a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCarOwner  Role = "carOwner"
	RoleSpectator Role = "spectator"
	RoleMechanic  Role = "mechanic"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCarOwner, RoleSpectator, RoleMechanic:
		return true
	}
	return false
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller has the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// User is a club member. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	PhoneNumber  string    `json:"phoneNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary returns the public subset used in joined views.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// Car is owned by a single user and may be registered for many events.
type Car struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"ownerId"`
	Model            string         `json:"model"`
	Brand            string         `json:"brand"`
	Mods             []string       `json:"mods"`
	PerformanceStats map[string]any `json:"performanceStats"`
	RegisteredEvents IDSet          `json:"registeredEvents"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy.
func (c *Car) Clone() *Car {
	cp := *c
	cp.Mods = append([]string{}, c.Mods...)
	cp.PerformanceStats = make(map[string]any, len(c.PerformanceStats))
	for k, v := range c.PerformanceStats {
		cp.PerformanceStats[k] = v
	}
	cp.RegisteredEvents = c.RegisteredEvents.Clone()
	return &cp
}

// Event is a race day cars can register for and spectators buy tickets to.
// Spectators holds one entry per ticket, so a user id may repeat.
type Event struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	TicketPrice    float64   `json:"ticketPrice"`
	CarsRegistered IDSet     `json:"carsRegistered"`
	Spectators     []string  `json:"spectators"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TicketCount returns how many tickets userID holds for the event.
func (e *Event) TicketCount(userID string) int {
	n := 0
	for _, id := range e.Spectators {
		if id == userID {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	cp := *e
	cp.CarsRegistered = e.CarsRegistered.Clone()
	cp.Spectators = append([]string{}, e.Spectators...)
	return &cp
}

// Summary returns the subset used in car views.
func (e *Event) Summary() EventSummary {
	return EventSummary{ID: e.ID, Name: e.Name, Location: e.Location, Date: e.Date}
}

// MechanicService is a service listing published by a mechanic.
type MechanicService struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ServicesOffered []string  `json:"servicesOffered"`
	Price           float64   `json:"price"`
	Availability    string    `json:"availability"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AcademyLesson is a paid lesson published by an admin. Applicants holds the
// users who applied.
type AcademyLesson struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"videoURL"`
	Price       float64   `json:"price"`
	Applicants  IDSet     `json:"applicants"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a deep copy.
func (l *AcademyLesson) Clone() *AcademyLesson {
	cp := *l
	cp.Applicants = l.Applicants.Clone()
	return &cp
}

// ─── Joined views ─────────────────────────────────────────────────────────────

// UserSummary is the public face of a user inside other documents.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// CarSummary is a car as listed on an event.
type CarSummary struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Model   string `json:"model"`
	Brand   string `json:"brand"`
}

// EventSummary is an event as listed on a car.
type EventSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Date     time.Time `json:"date"`
}

// SpectatorSummary groups a spectator's tickets.
type SpectatorSummary struct {
	UserSummary
	Tickets int `json:"tickets"`
}

// EventDetail is an event with its references resolved.
type EventDetail struct {
	Event
	Cars            []CarSummary       `json:"cars"`
	SpectatorGroups []SpectatorSummary `json:"spectatorGroups"`
}

// CarDetail is a car with its owner and events resolved.
type CarDetail struct {
	Car
	Owner  *UserSummary   `json:"owner,omitempty"`
	Events []EventSummary `json:"events"`
}

// MechanicServiceDetail is a listing with its mechanic resolved.
type MechanicServiceDetail struct {
	MechanicService
	Mechanic *UserSummary `json:"mechanic,omitempty"`
}

// LessonDetail is a lesson with its owner resolved.
type LessonDetail struct {
	AcademyLesson
	Owner *UserSummary `json:"owner,omitempty"`
}

// Applicant is a user who applied to one or more lessons.
type Applicant struct {
	UserSummary
	Role      Role     `json:"role"`
	LessonIDs []string `json:"lessonIds"`
}

// ─── Requests ─────────────────────────────────────────────────────────────────

// SignupRequest is the payload for POST /auth/signup.
type SignupRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the caller's profile.
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// UserProfile is the login response's view of the user.
type UserProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
}

// UpdateUserRequest is the payload for profile edits. Nil fields are left alone.
type UpdateUserRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Role        *Role   `json:"role"`
}

// CarRequest is the payload for creating or updating a car.
type CarRequest struct {
	Model            string         `json:"model"`
	Brand            string         `json:"brand"`
	Mods             []string       `json:"mods"`
	PerformanceStats map[string]any `json:"performanceStats"`
}

// EventRequest is the payload for creating or updating an event.
type EventRequest struct {
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	TicketPrice float64   `json:"ticketPrice"`
}

// RegisterCarRequest is the payload for POST /events/register-car/{id}.
type RegisterCarRequest struct {
	CarID string `json:"carId"`
}

// BuyTicketRequest is the payload for POST /events/buy-ticket/{id}.
// A zero quantity means one ticket.
type BuyTicketRequest struct {
	Quantity int `json:"quantity"`
}

// MechanicServiceRequest is the payload for creating or updating a listing.
type MechanicServiceRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ServicesOffered []string `json:"servicesOffered"`
	Price           float64  `json:"price"`
	Availability    string   `json:"availability"`
}

// ContactRequest is the optional note sent to a mechanic.
type ContactRequest struct {
	Message string `json:"message"`
}

// LessonRequest is the payload for POST /academy/create.
type LessonRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	VideoURL    string  `json:"videoURL"`
	Price       float64 `json:"price"`
}

// ─── Responses ────────────────────────────────────────────────────────────────

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// EventResponse acknowledges an event mutation.
type EventResponse struct {
	Message string `json:"message"`
	Event   *Event `json:"event"`
}

// TicketCountResponse reports a caller's tickets for an event.
type TicketCountResponse struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
	Tickets int    `json:"tickets"`
}

// UsersResponse wraps the admin user listing.
type UsersResponse struct {
	Message string `json:"message"`
	Users   []User `json:"users"`
}

// MechanicServiceResponse acknowledges a listing mutation.
type MechanicServiceResponse struct {
	Message string           `json:"message"`
	Service *MechanicService `json:"service"`
}

// LessonResponse acknowledges a lesson mutation.
type LessonResponse struct {
	Message string         `json:"message"`
	Lesson  *AcademyLesson `json:"lesson"`
}
