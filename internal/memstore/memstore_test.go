package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/repository"
)

func TestStore_MembershipIsSetSemantic(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := &model.Event{Name: "Track Day"}
	require.NoError(t, s.SaveEvent(ctx, e))

	changed, err := s.AddCarToEvent(ctx, e.ID, "car-1")
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = s.AddCarToEvent(ctx, e.ID, "car-1")
	require.NoError(t, err)
	require.False(t, changed)

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"car-1"}, got.CarsRegistered.Slice())

	_, err = s.AddCarToEvent(ctx, "missing", "car-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_SaveEventKeepsReferences(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := &model.Event{Name: "Track Day", TicketPrice: 50}
	require.NoError(t, s.SaveEvent(ctx, e))
	_, err := s.AddCarToEvent(ctx, e.ID, "car-1")
	require.NoError(t, err)
	require.NoError(t, s.AppendSpectators(ctx, e.ID, "u1", 2))

	update := &model.Event{ID: e.ID, Name: "Night Race", TicketPrice: 75}
	require.NoError(t, s.SaveEvent(ctx, update))

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "Night Race", got.Name)
	require.Equal(t, 75.0, got.TicketPrice)
	require.True(t, got.CarsRegistered.Has("car-1"))
	require.Equal(t, 2, got.TicketCount("u1"))
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := &model.Car{OwnerID: "o", Model: "GT3", Brand: "Porsche"}
	require.NoError(t, s.SaveCar(ctx, c))

	got, err := s.GetCar(ctx, c.ID)
	require.NoError(t, err)
	got.RegisteredEvents.Add("e1")
	got.Mods = append(got.Mods, "turbo")

	again, err := s.GetCar(ctx, c.ID)
	require.NoError(t, err)
	require.Zero(t, again.RegisteredEvents.Len())
	require.Empty(t, again.Mods)
}

func TestStore_UserEmailUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateUser(ctx, &model.User{Email: "a@b.co"}))
	err := s.CreateUser(ctx, &model.User{Email: "A@B.co"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	other := &model.User{Email: "c@d.co"}
	require.NoError(t, s.CreateUser(ctx, other))
	other.Email = "a@b.co"
	require.ErrorIs(t, s.UpdateUser(ctx, other), repository.ErrDuplicate)
}

func TestStore_ScansFindReferences(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := &model.Car{OwnerID: "o"}
	require.NoError(t, s.SaveCar(ctx, c))
	e1 := &model.Event{Name: "A"}
	e2 := &model.Event{Name: "B"}
	require.NoError(t, s.SaveEvent(ctx, e1))
	require.NoError(t, s.SaveEvent(ctx, e2))

	_, _ = s.AddCarToEvent(ctx, e1.ID, c.ID)
	_, _ = s.AddEventToCar(ctx, c.ID, e2.ID)

	ids, err := s.EventsWithCar(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, []string{e1.ID}, ids)

	ids, err = s.CarsWithEvent(ctx, e2.ID)
	require.NoError(t, err)
	require.Equal(t, []string{c.ID}, ids)
}

func TestStore_UpdateNeverInserts(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.ErrorIs(t, s.UpdateEvent(ctx, &model.Event{ID: "gone", Name: "x"}), repository.ErrNotFound)
	require.ErrorIs(t, s.UpdateCar(ctx, &model.Car{ID: "gone", Model: "x"}), repository.ErrNotFound)
	_, err := s.GetEvent(ctx, "gone")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.GetCar(ctx, "gone")
	require.ErrorIs(t, err, repository.ErrNotFound)

	c := &model.Car{OwnerID: "o", Model: "GT3", Brand: "Porsche"}
	require.NoError(t, s.SaveCar(ctx, c))
	_, err = s.AddEventToCar(ctx, c.ID, "e1")
	require.NoError(t, err)
	require.NoError(t, s.UpdateCar(ctx, &model.Car{ID: c.ID, Model: "GT2", Brand: "Porsche"}))
	got, err := s.GetCar(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "GT2", got.Model)
	require.Equal(t, c.CreatedAt, got.CreatedAt)
	require.True(t, got.RegisteredEvents.Has("e1"))
}
