// Package middleware provides HTTP middleware for authentication.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// identityKey is the context key for storing the authenticated identity.
const identityKey ContextKey = "identity"

// TokenValidator is an interface for validating access tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (Identity, error)
}

// Identity is what a validated token says about its bearer.
type Identity interface {
	GetUserID() uuid.UUID
	GetRole() types.Role
}

type principal struct {
	userID uuid.UUID
	role   types.Role
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the bearer's
// identity to the request context. Requests without a valid token get a 401 JSON body.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "missing or malformed authorization header")
				return
			}

			identity, err := validator.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), identity.GetUserID(), identity.GetRole())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from a "Bearer <token>" header, case-insensitively.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "authentication",
		"message": message,
	})
}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, userID uuid.UUID, role types.Role) context.Context {
	return context.WithValue(ctx, identityKey, principal{userID: userID, role: role})
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	p, ok := r.Context().Value(identityKey).(principal)
	if !ok {
		return uuid.Nil, fmt.Errorf("user ID not found in request context")
	}
	return p.userID, nil
}
