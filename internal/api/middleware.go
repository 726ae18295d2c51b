package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/renova/internal/auth"
	"github.com/erazemk/renova/internal/model"
	"github.com/erazemk/renova/internal/store"
)

type contextKey string

const claimsKey contextKey = "claims"

// UserLookup reports whether a user still exists.
type UserLookup interface {
	User(id string) (model.User, bool)
}

// authenticate validates the bearer token on r. It returns nil claims and
// an empty message when no token was sent.
func authenticate(r *http.Request, secret string, db *sql.DB, users UserLookup) (*auth.Claims, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, "missing or invalid authorization header"
	}

	claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, "invalid token"
	}

	revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
	if err != nil {
		slog.Error("failed to check token revocation", "error", err)
		return nil, "invalid token"
	}
	if revoked {
		return nil, "token revoked"
	}

	if _, ok := users.User(claims.Subject); !ok {
		return nil, "user no longer exists"
	}
	return claims, ""
}

// AuthMiddleware validates the JWT from the Authorization header and adds
// the claims to the context. Requests without a valid token are rejected.
func AuthMiddleware(secret string, db *sql.DB, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, msg := authenticate(r, secret, db, users)
			if claims == nil {
				if msg == "" {
					msg = "missing or invalid authorization header"
				}
				jsonError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth lets requests without a token through as guests. A token
// that is sent must still be valid.
func OptionalAuth(secret string, db *sql.DB, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, msg := authenticate(r, secret, db, users)
			if msg != "" {
				jsonError(w, http.StatusUnauthorized, msg)
				return
			}
			if claims != nil {
				r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that checks if the user has at least the given role.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.RoleAtLeast(claims.Role, minimum) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// actorFrom returns the actor for the request; guests have no claims.
func actorFrom(ctx context.Context) model.Actor {
	claims := GetClaims(ctx)
	if claims == nil {
		return model.Actor{}
	}
	return claims.Actor()
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
