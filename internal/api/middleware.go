package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/auth"
	"multi-tenant-crm/internal/logger"
	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/role"
	"multi-tenant-crm/internal/storage"
)

type contextKey string

const userKey contextKey = "user"

// requestLogger tags the request logger with the chi request id and logs
// one line per request.
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := a.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

		l.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// loadUser resolves the caller's profile from the token subject. A valid
// session without an active profile is refused.
func (a *API) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetClaims(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, err := claims.UserID()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := a.Store.ResolveUser(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			metrics.RecordDenied("no_profile")
			writeError(w, http.StatusForbidden, "no profile for this account")
			return
		}
		if err != nil {
			a.internalError(w, r, err)
			return
		}
		if !user.IsActive {
			metrics.RecordDenied("inactive_profile")
			writeError(w, http.StatusForbidden, "account is deactivated")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(
			zap.String("user_id", user.ID.String()),
			zap.String("tenant_id", user.TenantID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the user stored by loadUser.
func CurrentUser(ctx context.Context) *model.User {
	if u, ok := ctx.Value(userKey).(*model.User); ok {
		return u
	}
	return nil
}

// RequireRole admits callers whose role is one of roles.
func RequireRole(roles ...role.Role) func(http.Handler) http.Handler {
	return guard("required_role", func(p *model.Profile) bool {
		return role.HasRequiredRole(p, roles...)
	})
}

// RequireMinimumRole admits callers at or above min.
func RequireMinimumRole(min role.Role) func(http.Handler) http.Handler {
	return guard("minimum_role", func(p *model.Profile) bool {
		return role.HasMinimumRole(p, min)
	})
}

func guard(check string, allow func(*model.Profile) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allow(user.Profile()) {
				metrics.RecordDenied(check)
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
