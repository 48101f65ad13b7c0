package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"multi-tenant-crm/internal/logger"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// Authenticator turns a bearer token into claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Claims, error)
}

func JWTAuthMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := authn.Authenticate(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.FromContext(r.Context()).Debug("rejected token", zap.Error(err))
				unauthorized(w, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts the claims stored by JWTAuthMiddleware
func GetClaims(ctx context.Context) *Claims {
	if val, ok := ctx.Value(ClaimsKey).(*Claims); ok {
		return val
	}
	return nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
