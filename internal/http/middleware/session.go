// Package middleware holds the HTTP middleware specific to the
// darshan API: bearer-token user resolution and submit rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lumine/darshan-bookings/internal/http/response"
	"github.com/lumine/darshan-bookings/internal/platform/session"
	"github.com/lumine/darshan-bookings/pkg/auth"
	"github.com/lumine/darshan-bookings/pkg/logger"
)

type ctxKey string

const (
	ctxUser   ctxKey = "current_user"
	ctxBearer ctxKey = "bearer_token"
)

// UserResolver turns a token subject into the current-user record.
type UserResolver interface {
	CurrentUser(ctx context.Context, userID int64) (*session.User, error)
}

// RequireUser authenticates the request with a bearer JWT minted by
// the external auth backend and resolves the user record through the
// session store. The raw token is kept in context so upstream calls
// can forward it.
func RequireUser(resolver UserResolver, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Unauthorized(w, "Authentication required")
				return
			}

			claims, err := auth.Parse(token, jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			user, err := resolver.CurrentUser(r.Context(), claims.Sub)
			if err != nil {
				// the token is valid but the session record is gone;
				// fall back to the claims so booking can proceed
				user = &session.User{ID: claims.Sub, Email: claims.Email}
			}

			ctx := context.WithValue(r.Context(), ctxUser, user)
			ctx = context.WithValue(ctx, ctxBearer, token)
			ctx = context.WithValue(ctx, logger.UserIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}

// CurrentUser returns the user resolved by RequireUser, or nil.
func CurrentUser(r *http.Request) *session.User {
	if u, ok := r.Context().Value(ctxUser).(*session.User); ok {
		return u
	}
	return nil
}

// Bearer returns the raw token of the current request, for forwarding
// to the booking API.
func Bearer(r *http.Request) string {
	if t, ok := r.Context().Value(ctxBearer).(string); ok {
		return t
	}
	return ""
}
