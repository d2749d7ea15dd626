package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/config"
	"github.com/jonathan/job-board/internal/server/middleware"
	"github.com/jonathan/job-board/internal/types"
)

// TokenScope separates the purposes a token may be used for.
type TokenScope string

const (
	ScopeAccess            TokenScope = "access"
	ScopeRefresh           TokenScope = "refresh"
	ScopeEmailVerification TokenScope = "email_verification"
)

// Claims represents JWT claims with user ID, role and scope.
type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   types.Role `json:"role,omitempty"`
	Scope  TokenScope `json:"scope"`
	jwt.RegisteredClaims
}

// GetUserID returns the user ID from the claims.
// This implements the middleware.Identity interface.
func (c *Claims) GetUserID() uuid.UUID {
	return c.UserID
}

// GetRole returns the role from the claims.
func (c *Claims) GetRole() types.Role {
	return c.Role
}

// AsTokenValidator returns a TokenValidator adapter for this JWTService that accepts
// access tokens only.
// This allows the JWTService to be used with middleware without creating import cycles.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return &jwtServiceValidator{service: s}
}

// jwtServiceValidator adapts JWTService to middleware.TokenValidator interface.
type jwtServiceValidator struct {
	service *JWTService
}

func (v *jwtServiceValidator) ValidateToken(tokenString string) (middleware.Identity, error) {
	claims, err := v.service.ValidateToken(tokenString, ScopeAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTService provides JWT token generation and validation functionality.
type JWTService struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given configuration.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		config: cfg,
		now:    time.Now,
	}
}

// AccessTTL is how long issued access tokens stay valid.
func (s *JWTService) AccessTTL() time.Duration {
	return s.config.AccessTTL()
}

// GenerateAccessToken issues a short-lived token for API calls.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, role types.Role) (string, error) {
	return s.generate(userID, role, ScopeAccess, s.config.AccessTTL())
}

// GenerateRefreshToken issues a long-lived token that can only be exchanged for a new
// access token.
func (s *JWTService) GenerateRefreshToken(userID uuid.UUID, role types.Role) (string, error) {
	return s.generate(userID, role, ScopeRefresh, s.config.RefreshTTL())
}

// GenerateVerificationToken issues a token proving control of the user's email address.
func (s *JWTService) GenerateVerificationToken(userID uuid.UUID) (string, error) {
	return s.generate(userID, "", ScopeEmailVerification, s.config.VerificationTTL())
}

func (s *JWTService) generate(userID uuid.UUID, role types.Role, scope TokenScope, ttl time.Duration) (string, error) {
	now := s.now()

	claims := &Claims{
		UserID: userID,
		Role:   role,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims if it carries the expected
// scope.
func (s *JWTService) ValidateToken(tokenString string, scope TokenScope) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Scope != scope {
		return nil, fmt.Errorf("token scope %q cannot be used as %q", claims.Scope, scope)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token has no user")
	}

	return claims, nil
}
