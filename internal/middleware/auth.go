package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/winter-backend/internal/models"
	"github.com/AnshRaj112/winter-backend/internal/token"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// AuthGuard gates routes behind a verified session credential. Per request
// the flow is Authenticate (verify token, attach payload) then Authorize
// (require an attached payload); failure at either edge is a 401 with no
// retry inside the request.
type AuthGuard struct {
	issuer  *token.Issuer
	session *Session
}

func NewAuthGuard(issuer *token.Issuer, session *Session) *AuthGuard {
	return &AuthGuard{issuer: issuer, session: session}
}

// Authenticate verifies the session token and attaches the decoded identity
// to the request context.
func (g *AuthGuard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := g.session.ReadToken(r)
		if err != nil {
			unauthorized(w, "Token not available. Please sign in")
			return
		}

		payload, err := g.issuer.Verify(tokenString)
		if err != nil {
			unauthorized(w, "Invalid token. Please sign in")
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, payload)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize rejects requests that reached a protected route without an
// authenticated identity on the context.
func (g *AuthGuard) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUserFrom(r.Context()) == nil {
			unauthorized(w, "Authentication is required to access this route")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUserFrom returns the authenticated identity, or nil.
func CurrentUserFrom(ctx context.Context) *models.AuthPayload {
	payload, _ := ctx.Value(currentUserKey).(*models.AuthPayload)
	return payload
}

// WithCurrentUser attaches an identity to a context. Exported for handler tests.
func WithCurrentUser(ctx context.Context, payload *models.AuthPayload) context.Context {
	return context.WithValue(ctx, currentUserKey, payload)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     "error",
		"statusCode": http.StatusUnauthorized,
		"message":    message,
	})
}
