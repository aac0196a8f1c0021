package handler

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/cachemanager"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/model"
)

// Logger writes one access log line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			log.Warn(log.CatHTTP, "request", fields...)
			return
		}
		log.Info(log.CatHTTP, "request", fields...)
	})
}

// CORS allows browser clients from origin ("*" for any).
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ─── Authentication ───────────────────────────────────────────────────────────

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

type identityKey struct{}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "no token provided")
				return
			}
			id, err := a.Authenticate(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not listed.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "no token provided")
				return
			}
			if !slices.Contains(roles, id.Role) {
				writeError(w, http.StatusForbidden, "forbidden: access denied for role "+string(id.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func identityFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok
}

// caller returns the identity stored by Authenticate. Routes using it are
// always mounted behind that middleware.
func caller(r *http.Request) model.Identity {
	id, _ := identityFrom(r.Context())
	return id
}

// ─── Rate limiting ────────────────────────────────────────────────────────────

// RateLimiter hands out one token bucket per client IP. Idle buckets expire.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *cachemanager.InMemoryCacheManager[*rate.Limiter]
	limit   rate.Limit
	burst   int
	idle    time.Duration
}

// NewRateLimiter allows perMinute requests per IP with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}
	idle := 10 * time.Minute
	return &RateLimiter{
		buckets: cachemanager.NewInMemoryCacheManager[*rate.Limiter]("rate-limits", idle, idle),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idle:    idle,
	}
}

func (l *RateLimiter) bucket(ctx context.Context, ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets.Get(ctx, ip)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
	}
	l.buckets.Set(ctx, ip, b, l.idle)
	return b
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.bucket(r.Context(), clientIP(r)).Allow() {
			log.Info(log.CatHTTP, "rate limited", "ip", clientIP(r), "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP reads RemoteAddr, which chi's RealIP middleware has already
// rewritten from forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
