package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// Handlers bundles every resource handler the router mounts.
type Handlers struct {
	Users     *UserHandler
	Cars      *CarHandler
	Events    *EventHandler
	Mechanics *MechanicHandler
	Academy   *AcademyHandler
	Admin     *AdminHandler
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	BasePath      string // API prefix; "" mounts at the root
	AllowedOrigin string
	Auth          Authenticator
	AuthLimiter   *RateLimiter // nil disables rate limiting on /auth
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(opts RouterOptions, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	r.Use(CORS(origin))

	r.Get("/health", HealthCheck)

	api := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Middleware)
			}
			r.Post("/signup", h.Users.Signup)
			r.Post("/login", h.Users.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(opts.Auth))
			admin := RequireRole(model.RoleAdmin)

			r.Route("/users", func(r chi.Router) {
				r.With(admin).Get("/all", h.Users.List)
				r.Get("/user/{id}", h.Users.Get)
				r.Put("/userUpdate/{id}", h.Users.Update)
				r.Delete("/userDelete/{id}", h.Users.Delete)
			})

			r.Route("/cars", func(r chi.Router) {
				r.With(RequireRole(model.RoleCarOwner)).Post("/add-car", h.Cars.Create)
				r.Get("/my-cars", h.Cars.ListOwned)
				r.Get("/my-cars/{id}", h.Cars.ListOwned)
				r.Put("/update-car/{id}", h.Cars.Update)
				r.Delete("/delete-car/{id}", h.Cars.Delete)
				r.With(admin).Get("/all-cars", h.Cars.ListAll)
			})

			r.Route("/events", func(r chi.Router) {
				r.With(admin).Post("/create", h.Events.Create)
				r.Get("/all", h.Events.List)
				r.With(admin).Put("/update/{id}", h.Events.Update)
				r.With(admin).Delete("/delete/{id}", h.Events.Delete)
				r.With(RequireRole(model.RoleCarOwner)).Post("/register-car/{id}", h.Events.RegisterCar)
				r.Post("/buy-ticket/{id}", h.Events.BuyTicket)
				r.Get("/{id}/tickets", h.Events.TicketCount)
				r.Get("/{id}", h.Events.Get)
			})

			r.Route("/mechanics", func(r chi.Router) {
				r.With(RequireRole(model.RoleMechanic)).Post("/create", h.Mechanics.Create)
				r.Get("/all", h.Mechanics.List)
				r.With(RequireRole(model.RoleCarOwner, model.RoleSpectator)).Post("/contact/{id}", h.Mechanics.Contact)
				r.Get("/{id}", h.Mechanics.Get)
				r.Put("/{id}", h.Mechanics.Update)
				r.Delete("/{id}", h.Mechanics.Delete)
			})

			r.Route("/academy", func(r chi.Router) {
				r.With(admin).Post("/create", h.Academy.Create)
				r.Get("/all", h.Academy.List)
				r.Post("/apply/{id}", h.Academy.Apply)
				r.With(admin).Get("/applicants", h.Academy.Applicants)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin)
				r.Post("/reconcile", h.Admin.Reconcile)
				r.Get("/consistency-warnings", h.Admin.ConsistencyWarnings)
			})
		})
	}

	if opts.BasePath == "" || opts.BasePath == "/" {
		api(r)
	} else {
		r.Route(opts.BasePath, api)
	}
	return r
}
