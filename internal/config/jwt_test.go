package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setJWTEnv(t *testing.T, secret string) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "")
	t.Setenv("VERIFICATION_TOKEN_EXPIRE_MINUTES", "")
}

func TestNewJWTConfig_DefaultValues(t *testing.T) {
	setJWTEnv(t, "test-secret-key-0123456789")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.AccessTokenExpireMinutes)
	assert.Equal(t, 7, cfg.RefreshTokenExpireDays)
	assert.Equal(t, 60, cfg.VerificationExpireMinutes)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, time.Hour, cfg.VerificationTTL())
}

func TestNewJWTConfig_CustomValues(t *testing.T) {
	setJWTEnv(t, "test-secret-key-0123456789")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "1")
	t.Setenv("VERIFICATION_TOKEN_EXPIRE_MINUTES", "15")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, 15*time.Minute, cfg.VerificationTTL())
}

func TestNewJWTConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		key     string
		value   string
		wantErr string
	}{
		{name: "missing secret", secret: "", wantErr: "JWT_SECRET is required"},
		{name: "short secret", secret: "short", wantErr: "at least 16 characters"},
		{name: "non-numeric access ttl", secret: "test-secret-key-0123456789", key: "ACCESS_TOKEN_EXPIRE_MINUTES", value: "soon", wantErr: "invalid ACCESS_TOKEN_EXPIRE_MINUTES"},
		{name: "zero refresh ttl", secret: "test-secret-key-0123456789", key: "REFRESH_TOKEN_EXPIRE_DAYS", value: "0", wantErr: "REFRESH_TOKEN_EXPIRE_DAYS must be at least 1"},
		{name: "negative verification ttl", secret: "test-secret-key-0123456789", key: "VERIFICATION_TOKEN_EXPIRE_MINUTES", value: "-1", wantErr: "VERIFICATION_TOKEN_EXPIRE_MINUTES must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setJWTEnv(t, tt.secret)
			if tt.key != "" {
				t.Setenv(tt.key, tt.value)
			}
			cfg, err := NewJWTConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
