package main

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/auth"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/config"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/database"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/handler"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/lock"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/memstore"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/notify"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/repository"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/service"
)

// stores groups the persistence ports the services depend on.
type stores struct {
	catalog   service.CatalogStore
	users     service.UserStore
	mechanics service.MechanicStore
	lessons   service.LessonStore
}

// app holds every wired layer. close releases pools and clients.
type app struct {
	stores        stores
	locks         lock.Locker
	reporter      *service.LogReporter
	registrations *service.RegistrationService
	reconciler    *service.Reconciler
	handlers      handler.Handlers
	authn         *auth.Authenticator
	closers       []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openStores connects the configured storage driver.
func openStores(ctx context.Context, c config.DatabaseConfig) (stores, func(), error) {
	if c.Driver == config.DriverMemory {
		log.Warn(log.CatDB, "using in-memory store; data is lost on exit")
		m := memstore.New()
		return stores{catalog: m, users: m, mechanics: m, lessons: m}, func() {}, nil
	}

	if c.AutoMigrate {
		if err := database.Migrate(c.MigrationURL()); err != nil {
			return stores{}, nil, err
		}
	}
	pool, err := database.NewPool(ctx, c)
	if err != nil {
		return stores{}, nil, err
	}
	log.Info(log.CatDB, "connected to PostgreSQL")
	return stores{
		catalog:   repository.NewCatalog(pool),
		users:     repository.NewUserRepository(pool),
		mechanics: repository.NewMechanicRepository(pool),
		lessons:   repository.NewLessonRepository(pool),
	}, pool.Close, nil
}

// openLocker returns the Redis locker when configured, else a process-local one.
func openLocker(ctx context.Context, c config.Config) (lock.Locker, func(), error) {
	if c.Redis.URL == "" {
		log.Info(log.CatLock, "using process-local locks")
		return lock.NewLocal(), func() {}, nil
	}
	r, err := lock.NewRedisFromURL(ctx, c.Redis.URL, c.Lock.TTL)
	if err != nil {
		return nil, nil, err
	}
	log.Info(log.CatLock, "using redis locks")
	return r, func() {
		if err := r.Close(); err != nil {
			log.ErrorErr(log.CatLock, "close redis", err)
		}
	}, nil
}

func newMailer(c config.MailConfig) notify.Mailer {
	if c.SendGridAPIKey == "" {
		log.Warn(log.CatMail, "SENDGRID_API_KEY not set; mail is logged, not sent")
		return notify.NewLogMailer()
	}
	return notify.NewSendGridMailer(c.SendGridAPIKey, c.Sender, c.SenderName)
}

func buildApp(ctx context.Context, c config.Config) (*app, error) {
	a := &app{}
	st, closeStores, err := openStores(ctx, c.Database)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	a.stores = st
	a.closers = append(a.closers, closeStores)

	locks, closeLocks, err := openLocker(ctx, c)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("locks: %w", err)
	}
	a.locks = locks
	a.closers = append(a.closers, closeLocks)

	tokens := auth.NewTokenIssuer(c.Auth.JWTSecret, c.Auth.TokenTTL)
	a.authn = auth.NewAuthenticator(tokens, st.users, c.Auth.UserCacheTTL)
	a.reporter = service.NewLogReporter(0)
	a.registrations = service.NewRegistrationService(st.catalog, locks, a.reporter, c.Lock.Timeout)
	a.reconciler = service.NewReconciler(st.catalog, locks, c.Lock.Timeout)

	users := service.NewUserService(st.users, a.registrations, tokens, a.authn, service.UserOptions{
		BcryptCost:       c.Auth.BcryptCost,
		AllowAdminSignup: c.Auth.AllowAdminSignup,
	})
	a.handlers = handler.Handlers{
		Users:     handler.NewUserHandler(users),
		Cars:      handler.NewCarHandler(service.NewCarService(st.catalog, st.users), a.registrations),
		Events:    handler.NewEventHandler(service.NewEventService(st.catalog, st.users), a.registrations),
		Mechanics: handler.NewMechanicHandler(service.NewMechanicService(st.mechanics, st.users, newMailer(c.Mail))),
		Academy:   handler.NewAcademyHandler(service.NewAcademyService(st.lessons, st.users)),
		Admin:     handler.NewAdminHandler(a.reconciler, a.reporter),
	}
	return a, nil
}
