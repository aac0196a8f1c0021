package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/auth"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/lock"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/notify"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/repository"
)

type forgetRecorder struct{ forgotten []string }

func (f *forgetRecorder) Forget(_ context.Context, userID string) {
	f.forgotten = append(f.forgotten, userID)
}

func newUserService(e *env, opts UserOptions) (*UserService, *forgetRecorder) {
	sessions := &forgetRecorder{}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 4
	}
	return NewUserService(e.store, e.registration, auth.NewTokenIssuer("secret", time.Hour), sessions, opts), sessions
}

func signupRequest(email string, role model.Role) model.SignupRequest {
	return model.SignupRequest{FirstName: "Lewis", LastName: "H", Email: email, Password: "secret123", Role: role}
}

func TestUserService_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	users, _ := newUserService(e, UserOptions{})

	u, err := users.Signup(ctx, signupRequest("  Lewis@Club.Test ", model.RoleCarOwner))
	require.NoError(t, err)
	require.Equal(t, "lewis@club.test", u.Email)
	require.NotEqual(t, "secret123", u.PasswordHash)

	_, err = users.Signup(ctx, signupRequest("lewis@club.test", model.RoleSpectator))
	require.ErrorIs(t, err, ErrConflict)

	resp, err := users.Login(ctx, model.LoginRequest{Email: "LEWIS@club.test", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, model.UserProfile{ID: u.ID, FirstName: "Lewis", Role: model.RoleCarOwner, Email: "lewis@club.test"}, resp.User)

	_, err = users.Login(ctx, model.LoginRequest{Email: "lewis@club.test", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Login(ctx, model.LoginRequest{Email: "nobody@club.test", Password: "secret123"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_SignupValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	users, _ := newUserService(e, UserOptions{})

	tests := []struct {
		name  string
		req   model.SignupRequest
		field string
	}{
		{"missing first name", model.SignupRequest{LastName: "x", Email: "a@b.co", Password: "secret123", Role: model.RoleSpectator}, "firstName"},
		{"bad email", signupRequest("not-an-email", model.RoleSpectator), "email"},
		{"short password", model.SignupRequest{FirstName: "a", LastName: "b", Email: "a@b.co", Password: "123", Role: model.RoleSpectator}, "password"},
		{"unknown role", signupRequest("a@b.co", "pilot"), "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Signup(ctx, tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUserService_AdminSignupIsGated(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	closed, _ := newUserService(e, UserOptions{})
	_, err := closed.Signup(ctx, signupRequest("boss@club.test", model.RoleAdmin))
	require.ErrorIs(t, err, ErrForbidden)

	open, _ := newUserService(e, UserOptions{AllowAdminSignup: true})
	u, err := open.Signup(ctx, signupRequest("boss@club.test", model.RoleAdmin))
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	users, sessions := newUserService(e, UserOptions{})
	self := e.user(t, model.RoleSpectator)
	other := e.user(t, model.RoleSpectator)

	name := "Max"
	got, err := users.Update(ctx, self.UserID, self, model.UpdateUserRequest{FirstName: &name})
	require.NoError(t, err)
	require.Equal(t, "Max", got.FirstName)
	require.Contains(t, sessions.forgotten, self.UserID)

	_, err = users.Update(ctx, other.UserID, self, model.UpdateUserRequest{FirstName: &name})
	require.ErrorIs(t, err, ErrForbidden)

	role := model.RoleAdmin
	_, err = users.Update(ctx, self.UserID, self, model.UpdateUserRequest{Role: &role})
	require.ErrorIs(t, err, ErrForbidden)

	role = model.RoleMechanic
	got, err = users.Update(ctx, self.UserID, admin, model.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, model.RoleMechanic, got.Role)

	taken, err := e.store.GetUser(ctx, other.UserID)
	require.NoError(t, err)
	_, err = users.Update(ctx, self.UserID, self, model.UpdateUserRequest{Email: &taken.Email})
	require.ErrorIs(t, err, ErrConflict)
}

func TestUserService_DeleteCascadesToCars(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	users, sessions := newUserService(e, UserOptions{})
	owner := e.user(t, model.RoleCarOwner)
	stranger := e.user(t, model.RoleSpectator)
	c := e.car(t, owner)
	ev := e.event(t, "Track Day")
	_, err := e.registration.RegisterCar(ctx, ev.ID, owner, c.ID)
	require.NoError(t, err)

	require.ErrorIs(t, users.Delete(ctx, owner.UserID, stranger), ErrForbidden)
	require.NoError(t, users.Delete(ctx, owner.UserID, owner))

	_, err = users.Get(ctx, owner.UserID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.store.GetCar(ctx, c.ID)
	require.Error(t, err)
	require.False(t, e.getEvent(t, ev.ID).CarsRegistered.Has(c.ID))
	require.Contains(t, sessions.forgotten, owner.UserID)
}

func TestUserService_ListIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	users, _ := newUserService(e, UserOptions{})
	u := e.user(t, model.RoleSpectator)

	_, err := users.List(ctx, u)
	require.ErrorIs(t, err, ErrForbidden)
	all, err := users.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestEventService_CreateUpdateAndDetail(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	events := NewEventService(e.store, e.store)
	owner := e.user(t, model.RoleCarOwner)
	spectator := e.user(t, model.RoleSpectator)
	c := e.car(t, owner)

	req := model.EventRequest{Name: " Track Day ", Location: "Spa", Date: time.Now().Add(48 * time.Hour), TicketPrice: 50}
	_, err := events.Create(ctx, owner, req)
	require.ErrorIs(t, err, ErrForbidden)

	ev, err := events.Create(ctx, admin, req)
	require.NoError(t, err)
	require.Equal(t, "Track Day", ev.Name)

	_, err = e.registration.RegisterCar(ctx, ev.ID, owner, c.ID)
	require.NoError(t, err)
	_, err = e.registration.BuyTicket(ctx, ev.ID, spectator, 3)
	require.NoError(t, err)

	req.Name = "Night Race"
	req.TicketPrice = 80
	updated, err := events.Update(ctx, ev.ID, admin, req)
	require.NoError(t, err)
	require.Equal(t, "Night Race", updated.Name)
	require.True(t, updated.CarsRegistered.Has(c.ID), "update keeps registrations")
	require.Len(t, updated.Spectators, 3, "update keeps tickets")

	detail, err := events.Get(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, detail.Cars, 1)
	require.Equal(t, c.ID, detail.Cars[0].ID)
	require.Len(t, detail.SpectatorGroups, 1)
	require.Equal(t, spectator.UserID, detail.SpectatorGroups[0].ID)
	require.Equal(t, 3, detail.SpectatorGroups[0].Tickets)

	all, err := events.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = events.Update(ctx, "missing", admin, req)
	require.ErrorIs(t, err, ErrNotFound)

	req.Date = time.Time{}
	_, err = events.Create(ctx, admin, req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "date", verr.Field)
}

func TestCarService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cars := NewCarService(e.store, e.store)
	owner := e.user(t, model.RoleCarOwner)
	other := e.user(t, model.RoleCarOwner)
	spectator := e.user(t, model.RoleSpectator)

	_, err := cars.Create(ctx, spectator, model.CarRequest{Model: "911", Brand: "Porsche"})
	require.ErrorIs(t, err, ErrForbidden)

	c, err := cars.Create(ctx, owner, model.CarRequest{Model: "911", Brand: "Porsche", Mods: []string{"exhaust", " "}})
	require.NoError(t, err)
	require.Equal(t, []string{"exhaust"}, c.Mods)

	ev := e.event(t, "Track Day")
	_, err = e.registration.RegisterCar(ctx, ev.ID, owner, c.ID)
	require.NoError(t, err)

	_, err = cars.Update(ctx, c.ID, other, model.CarRequest{Model: "GT3", Brand: "Porsche"})
	require.ErrorIs(t, err, ErrForbidden)
	updated, err := cars.Update(ctx, c.ID, owner, model.CarRequest{Model: "GT3", Brand: "Porsche"})
	require.NoError(t, err)
	require.Equal(t, "GT3", updated.Model)
	require.True(t, updated.RegisteredEvents.Has(ev.ID), "update keeps registrations")

	mine, err := cars.ListOwned(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = cars.ListAll(ctx, owner)
	require.ErrorIs(t, err, ErrForbidden)
	all, err := cars.ListAll(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Owner)
	require.Equal(t, owner.UserID, all[0].Owner.ID)
	require.Len(t, all[0].Events, 1)
	require.Equal(t, ev.ID, all[0].Events[0].ID)
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, notify.Message) error { return errors.New("smtp down") }

func TestMechanicService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	mailer := notify.NewLogMailer()
	mechanics := NewMechanicService(e.store, e.store, mailer)
	mech := e.user(t, model.RoleMechanic)
	owner := e.user(t, model.RoleCarOwner)

	req := model.MechanicServiceRequest{Title: "Tuning", ServicesOffered: []string{"ECU remap"}, Price: 200}
	_, err := mechanics.Create(ctx, owner, req)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = mechanics.Create(ctx, mech, model.MechanicServiceRequest{Title: "Tuning"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "servicesOffered", verr.Field)

	listing, err := mechanics.Create(ctx, mech, req)
	require.NoError(t, err)

	detail, err := mechanics.Get(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Mechanic)
	require.Equal(t, mech.UserID, detail.Mechanic.ID)

	all, err := mechanics.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	to, err := mechanics.Contact(ctx, listing.ID, owner, "Can you fit a turbo?")
	require.NoError(t, err)
	sent := mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, to, sent[0].ToEmail)
	require.Contains(t, sent[0].Text, "Can you fit a turbo?")

	_, err = mechanics.Contact(ctx, listing.ID, mech, "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = NewMechanicService(e.store, e.store, failingMailer{}).Contact(ctx, listing.ID, owner, "")
	require.Error(t, err)

	req.Price = 250
	_, err = mechanics.Update(ctx, listing.ID, owner, req)
	require.ErrorIs(t, err, ErrForbidden)
	updated, err := mechanics.Update(ctx, listing.ID, mech, req)
	require.NoError(t, err)
	require.Equal(t, 250.0, updated.Price)

	require.ErrorIs(t, mechanics.Delete(ctx, listing.ID, owner), ErrForbidden)
	require.NoError(t, mechanics.Delete(ctx, listing.ID, admin))
	_, err = mechanics.Get(ctx, listing.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcademyService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	academy := NewAcademyService(e.store, e.store)
	boss := e.user(t, model.RoleAdmin)
	owner := e.user(t, model.RoleCarOwner)
	spectator := e.user(t, model.RoleSpectator)

	req := model.LessonRequest{Title: "Racing lines", VideoURL: "https://video.test/lines", Price: 30}
	_, err := academy.Create(ctx, owner, req)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = academy.Create(ctx, boss, model.LessonRequest{Title: "x", VideoURL: "ftp://nope"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "videoURL", verr.Field)

	lines, err := academy.Create(ctx, boss, req)
	require.NoError(t, err)
	braking, err := academy.Create(ctx, boss, model.LessonRequest{Title: "Braking"})
	require.NoError(t, err)

	got, err := academy.Apply(ctx, lines.ID, owner)
	require.NoError(t, err)
	require.True(t, got.Applicants.Has(owner.UserID))
	_, err = academy.Apply(ctx, lines.ID, owner)
	require.NoError(t, err)
	_, err = academy.Apply(ctx, braking.ID, owner)
	require.NoError(t, err)
	_, err = academy.Apply(ctx, braking.ID, spectator)
	require.NoError(t, err)
	_, err = academy.Apply(ctx, "missing", owner)
	require.ErrorIs(t, err, ErrNotFound)

	lessons, err := academy.List(ctx)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.NotNil(t, lessons[0].Owner)

	_, err = academy.Applicants(ctx, owner)
	require.ErrorIs(t, err, ErrForbidden)
	applicants, err := academy.Applicants(ctx, boss)
	require.NoError(t, err)
	require.Len(t, applicants, 2)

	byID := map[string]model.Applicant{}
	for _, a := range applicants {
		byID[a.ID] = a
	}
	require.ElementsMatch(t, []string{lines.ID, braking.ID}, byID[owner.UserID].LessonIDs)
	require.Equal(t, []string{braking.ID}, byID[spectator.UserID].LessonIDs)
	require.Equal(t, model.RoleSpectator, byID[spectator.UserID].Role)
}

func TestEventService_UpdateDoesNotResurrectDeletedEvent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	fan := e.user(t, model.RoleSpectator)
	ev := e.event(t, "Track Day")
	_, err := e.registration.BuyTicket(ctx, ev.ID, fan, 2)
	require.NoError(t, err)

	catalog := &interleavingCatalog{CatalogStore: e.store, hook: func() {
		require.NoError(t, e.registration.DeleteEvent(ctx, ev.ID, admin))
	}}
	events := NewEventService(catalog, e.store)

	_, err = events.Update(ctx, ev.ID, admin, model.EventRequest{
		Name: "Renamed", Location: "Silverstone", Date: ev.Date, TicketPrice: 50,
	})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.store.GetEvent(ctx, ev.ID)
	require.ErrorIs(t, err, repository.ErrNotFound, "deleted event stays deleted")
}

func TestCarService_UpdateDoesNotResurrectDeletedCar(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.user(t, model.RoleCarOwner)
	c := e.car(t, owner)

	catalog := &interleavingCatalog{CatalogStore: e.store, hook: func() {
		require.NoError(t, e.registration.DeleteCar(ctx, c.ID, owner))
	}}
	cars := NewCarService(catalog, e.store)

	_, err := cars.Update(ctx, c.ID, owner, model.CarRequest{Model: "GT2 RS", Brand: "Porsche"})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.store.GetCar(ctx, c.ID)
	require.ErrorIs(t, err, repository.ErrNotFound, "deleted car stays deleted")
}

func TestCarService_CreateForDeletedOwnerLeavesNoCar(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cars := NewCarService(e.store, e.store)
	owner := e.user(t, model.RoleCarOwner)
	require.NoError(t, e.store.DeleteUser(ctx, owner.UserID))

	_, err := cars.Create(ctx, owner, model.CarRequest{Model: "911", Brand: "Porsche"})
	require.ErrorIs(t, err, ErrNotFound)
	left, err := e.store.ListCarsByOwner(ctx, owner.UserID)
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestUserService_DeleteRemovesAccountBeforeCars(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.user(t, model.RoleCarOwner)
	c := e.car(t, owner)

	var userGoneFirst bool
	catalog := &interleavingCatalog{CatalogStore: e.catalog, hook: func() {
		_, err := e.store.GetUser(ctx, owner.UserID)
		userGoneFirst = errors.Is(err, repository.ErrNotFound)
	}}
	reg := NewRegistrationService(catalog, lock.NewLocal(), e.reporter, time.Second)
	users := NewUserService(e.store, reg, auth.NewTokenIssuer("secret", time.Hour), nil, UserOptions{BcryptCost: 4})

	require.NoError(t, users.Delete(ctx, owner.UserID, owner))
	require.True(t, userGoneFirst, "account removed before its cars are swept")
	_, err := e.store.GetCar(ctx, c.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
