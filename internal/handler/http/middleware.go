package http

import (
	"context"
	"net/http"
	"strings"

	"ecommerce-backend/internal/auth"
	"ecommerce-backend/internal/user"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Authenticator validates the Bearer token and attaches the actor claims to
// the request context. Handlers then pass (actorID, role) explicitly into
// service calls; services never read the request context themselves.
type Authenticator struct {
	issuer *auth.TokenIssuer
}

func NewAuthenticator(issuer *auth.TokenIssuer) *Authenticator {
	return &Authenticator{issuer: issuer}
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
			return
		}

		claims, err := a.issuer.ParseAccessToken(token, false)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired access token")
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches claims when a valid Bearer token is present but lets
// anonymous requests through. Invalid tokens are treated as anonymous.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
			if claims, err := a.issuer.ParseAccessToken(token, false); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), actorContextKey, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := actorFromContext(r.Context())
		if claims == nil {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if claims.Role != user.RoleAdmin {
			respondWithError(w, http.StatusForbidden, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func actorFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(actorContextKey).(*auth.Claims)
	return claims
}
