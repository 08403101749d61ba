package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
)

type contextKey int

const (
	userKey contextKey = iota
	claimsKey
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *services.Claims, error)
}

// RequireAuth rejects requests without a valid, unrevoked bearer token and
// stores the user and token claims on the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			user, claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrUnauthorized) {
					logging.FromContext(r.Context()).Error("authentication failed", "error", err)
					writeJSONError(w, http.StatusInternalServerError, "Server error")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, claims)))
		})
	}
}

// RequireRole allows only users carrying one of roles. Use after RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFrom(r.Context())
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, "Not authorized to access this route")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "User role "+string(user.Role)+" is not authorized to access this route")
		})
	}
}

// WithUser returns ctx carrying the authenticated user and claims.
func WithUser(ctx context.Context, user *models.User, claims *services.Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, claimsKey, claims)
}

// UserFrom returns the authenticated user, or nil outside RequireAuth.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// ClaimsFrom returns the verified token claims, or nil outside RequireAuth.
func ClaimsFrom(ctx context.Context) *services.Claims {
	c, _ := ctx.Value(claimsKey).(*services.Claims)
	return c
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}
