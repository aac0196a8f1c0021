package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/lock"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

func TestReconcile_RepairsEveryKindOfMismatch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.user(t, model.RoleCarOwner)
	carOnEventOnly := e.car(t, owner)
	carOnCarOnly := e.car(t, owner)
	healthy := e.car(t, owner)
	ev := e.event(t, "Track Day")

	_, err := e.registration.RegisterCar(ctx, ev.ID, owner, healthy.ID)
	require.NoError(t, err)
	_, err = e.store.AddCarToEvent(ctx, ev.ID, carOnEventOnly.ID)
	require.NoError(t, err)
	_, err = e.store.AddEventToCar(ctx, carOnCarOnly.ID, ev.ID)
	require.NoError(t, err)
	_, err = e.store.AddCarToEvent(ctx, ev.ID, "ghost-car")
	require.NoError(t, err)
	_, err = e.store.AddEventToCar(ctx, healthy.ID, "ghost-event")
	require.NoError(t, err)

	r := NewReconciler(e.store, lock.NewLocal(), time.Second)
	report, err := r.Reconcile(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, report.EventsScanned)
	require.Equal(t, 3, report.CarsScanned)
	require.Equal(t, 1, report.DanglingCarRefs)
	require.Equal(t, 1, report.DanglingEventRefs)
	require.Equal(t, 1, report.CompletedOnCar)
	require.Equal(t, 1, report.CompletedOnEvent)
	require.Equal(t, 4, report.Repairs())
	require.Zero(t, report.Failed)

	got := e.getEvent(t, ev.ID)
	require.ElementsMatch(t, []string{healthy.ID, carOnEventOnly.ID, carOnCarOnly.ID}, got.CarsRegistered.Slice())
	require.Equal(t, []string{ev.ID}, e.getCar(t, healthy.ID).RegisteredEvents.Slice())
	assertSymmetric(t, e)

	again, err := r.Reconcile(ctx)
	require.NoError(t, err)
	require.Zero(t, again.Repairs())
}

func TestReconcile_CountsFailures(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.user(t, model.RoleCarOwner)
	c := e.car(t, owner)
	_, err := e.store.AddEventToCar(ctx, c.ID, "ghost-event")
	require.NoError(t, err)
	e.catalog.set(func(f *faultyCatalog) { f.failRemoveFromCar = true })

	report, err := NewReconciler(e.catalog, lock.NewLocal(), time.Second).Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Zero(t, report.Repairs())
}

func TestReconcile_RestoresSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		ctx := context.Background()
		e := newEnv(t)
		owner := e.user(t, model.RoleCarOwner)

		cars := make([]*model.Car, rapid.IntRange(1, 4).Draw(r, "cars"))
		for i := range cars {
			cars[i] = e.car(t, owner)
		}
		events := make([]*model.Event, rapid.IntRange(1, 4).Draw(r, "events"))
		for i := range events {
			events[i] = e.event(t, "event")
		}

		// Raw one-sided writes and deletions, bypassing the registration rules.
		ops := rapid.IntRange(0, 25).Draw(r, "ops")
		for i := 0; i < ops; i++ {
			c := cars[rapid.IntRange(0, len(cars)-1).Draw(r, "car")]
			ev := events[rapid.IntRange(0, len(events)-1).Draw(r, "event")]
			switch rapid.IntRange(0, 5).Draw(r, "op") {
			case 0:
				_, _ = e.store.AddCarToEvent(ctx, ev.ID, c.ID)
			case 1:
				_, _ = e.store.AddEventToCar(ctx, c.ID, ev.ID)
			case 2:
				_, _ = e.store.RemoveCarFromEvent(ctx, ev.ID, c.ID)
			case 3:
				_, _ = e.store.RemoveEventFromCar(ctx, c.ID, ev.ID)
			case 4:
				_ = e.store.DeleteCar(ctx, c.ID)
			case 5:
				_ = e.store.DeleteEvent(ctx, ev.ID)
			}
		}

		report, err := NewReconciler(e.store, lock.NewLocal(), time.Second).Reconcile(ctx)
		if err != nil {
			r.Fatalf("reconcile: %v", err)
		}
		if report.Failed != 0 {
			r.Fatalf("%d repairs failed", report.Failed)
		}
		assertSymmetric(r, e)
	})
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	e := newEnv(t)
	r := NewReconciler(e.store, lock.NewLocal(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconcile loop did not stop")
	}
}
