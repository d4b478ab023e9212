package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/metrics"
)

type Role string

const (
	RoleCEO     Role = "ceo"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAnalyst Role = "analyst"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCEO, RoleAdmin, RoleManager, RoleAnalyst:
		return true
	}
	return false
}

// Elevated reports whether the role may see strategic metrics.
func (r Role) Elevated() bool {
	return r == RoleCEO || r == RoleAdmin
}

// Principal identifies the caller of a tenant-scoped request.
type Principal struct {
	TenantID uuid.UUID
	Role     Role
	// AreaID is the manager's own area.
	AreaID *uuid.UUID
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TenantMiddleware resolves the caller from the X-Tenant-ID, X-User-Role and
// X-Area-ID headers. Managers must name their area.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Tenant-ID")
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing_tenant", "X-Tenant-ID header required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_tenant", "invalid X-Tenant-ID")
			return
		}

		role := Role(r.Header.Get("X-User-Role"))
		if role == "" {
			writeError(w, http.StatusUnauthorized, "missing_role", "X-User-Role header required")
			return
		}
		if !role.Valid() {
			writeError(w, http.StatusForbidden, "unknown_role", "unknown role "+string(role))
			return
		}

		p := Principal{TenantID: tenantID, Role: role}
		if v := r.Header.Get("X-Area-ID"); v != "" {
			areaID, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_area", "invalid X-Area-ID")
				return
			}
			p.AreaID = &areaID
		}
		if role == RoleManager && p.AreaID == nil {
			writeError(w, http.StatusForbidden, "missing_area", "managers must send X-Area-ID")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireElevatedRole admits only ceo and admin callers.
func RequireElevatedRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok || !p.Role.Elevated() {
			writeError(w, http.StatusForbidden, "forbidden", "strategic metrics require the ceo or admin role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
				"tenant", r.Header.Get("X-Tenant-ID"),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// MetricsMiddleware records request counts and latency by route pattern.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, route, status, time.Since(start))
		})
	}
}

type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// RateLimitMiddleware limits requests per tenant over a sliding minute.
func RateLimitMiddleware(requestsPerMinute int) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    requestsPerMinute,
		window:   time.Minute,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Tenant-ID")
			if key == "" {
				key = r.RemoteAddr
			}
			if !rl.allow(key, time.Now()) {
				writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := now.Add(-rl.window)
	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}
