package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// JWTConfig holds configuration for signing and validating tokens.
type JWTConfig struct {
	Secret                    string
	AccessTokenExpireMinutes  int
	RefreshTokenExpireDays    int
	VerificationExpireMinutes int
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required), ACCESS_TOKEN_EXPIRE_MINUTES (default: 30),
// REFRESH_TOKEN_EXPIRE_DAYS (default: 7) and VERIFICATION_TOKEN_EXPIRE_MINUTES (default: 60).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	access, err := envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	refresh, err := envInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)
	if err != nil {
		return nil, err
	}
	verification, err := envInt("VERIFICATION_TOKEN_EXPIRE_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	config := &JWTConfig{
		Secret:                    secret,
		AccessTokenExpireMinutes:  access,
		RefreshTokenExpireDays:    refresh,
		VerificationExpireMinutes: verification,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// AccessTTL is the lifetime of an access token.
func (c *JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL is the lifetime of a refresh token.
func (c *JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// VerificationTTL is the lifetime of an email verification token.
func (c *JWTConfig) VerificationTTL() time.Duration {
	return time.Duration(c.VerificationExpireMinutes) * time.Minute
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters, got: %d", len(c.Secret))
	}
	if c.AccessTokenExpireMinutes < 1 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be at least 1, got: %d", c.AccessTokenExpireMinutes)
	}
	if c.RefreshTokenExpireDays < 1 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be at least 1, got: %d", c.RefreshTokenExpireDays)
	}
	if c.VerificationExpireMinutes < 1 {
		return fmt.Errorf("VERIFICATION_TOKEN_EXPIRE_MINUTES must be at least 1, got: %d", c.VerificationExpireMinutes)
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return v, nil
}
