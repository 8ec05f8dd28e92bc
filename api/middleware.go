package api

import (
	"context"
	"net/http"
	"time"

	gauth "github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/aerogenv/aero-club-api/auth"
)

// MiddlewareAuth holds the token service backing the bearer strategy
type MiddlewareAuth struct {
	Tokens *auth.TokenService
}

var authenticator gauth.Authenticator
var cache store.Cache

type contextKey string

const userContextKey contextKey = "authUser"

// AuthUser is the authenticated identity injected into the request context.
type AuthUser struct {
	ID    string
	Email string
}

// Middleware adds bearer token authentication around accessing the routes
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())
		ctx := ContextWithUser(r.Context(), AuthUser{
			ID:    user.ID(),
			Email: user.UserName(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextWithUser attaches an authenticated identity to the context.
func ContextWithUser(ctx context.Context, user AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user set by Middleware.
func UserFromContext(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(userContextKey).(AuthUser)
	return user, ok
}

// SetupGoGuardian sets up the go-guardian middleware with a bearer strategy
// that validates our own access tokens. Cached entries live for one minute.
func (m MiddlewareAuth) SetupGoGuardian() {
	authenticator = gauth.New()
	cache = store.NewFIFO(context.Background(), time.Minute)
	tokenStrategy := bearer.New(m.validateToken, cache)

	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// validateToken checks the JWT carried in the Authorization header and maps
// its claims onto a guardian identity.
func (m MiddlewareAuth) validateToken(ctx context.Context, r *http.Request, tokenString string) (gauth.Info, error) {
	claims, err := m.Tokens.Verify(tokenString, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return gauth.NewDefaultUser(claims.Subject, claims.UserID, nil, nil), nil
}
