package config

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		pepper   string
		wantCost int
		wantErr  bool
	}{
		{name: "default cost", cost: "", wantCost: 12},
		{name: "minimum cost", cost: "10", wantCost: 10},
		{name: "maximum cost", cost: "14", wantCost: 14},
		{name: "cost too low", cost: "9", wantErr: true},
		{name: "cost too high", cost: "15", wantErr: true},
		{name: "non-numeric cost", cost: "high", wantErr: true},
		{name: "pepper too long", cost: "10", pepper: strings.Repeat("p", 33), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.cost)
			t.Setenv("PASSWORD_PEPPER", tt.pepper)

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("Str0ng!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!pass", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, cfg.VerifyPassword("Str0ng!pass", hash))
	assert.False(t, cfg.VerifyPassword("wrong", hash))
	assert.False(t, cfg.VerifyPassword("Str0ng!pass", "not-a-hash"))
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-one"}
	hash, err := peppered.HashPassword("Str0ng!pass")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("Str0ng!pass", hash))

	plain := &PasswordConfig{BcryptCost: 10}
	assert.False(t, plain.VerifyPassword("Str0ng!pass", hash), "hash must not verify without the pepper")

	rotated := &PasswordConfig{BcryptCost: 10, Pepper: "pepper-two"}
	assert.False(t, rotated.VerifyPassword("Str0ng!pass", hash))
}

func TestPasswordConfig_TooLong(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10, Pepper: "12345678"}

	_, err := cfg.HashPassword(strings.Repeat("a", 65))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = cfg.HashPassword(strings.Repeat("a", 64))
	assert.NoError(t, err)
}

func TestPasswordConfig_SaltUniqueness(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}
	h1, err := cfg.HashPassword("Str0ng!pass")
	require.NoError(t, err)
	h2, err := cfg.HashPassword("Str0ng!pass")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestPasswordConfig_NeedsRehash(t *testing.T) {
	old := &PasswordConfig{BcryptCost: 10}
	hash, err := old.HashPassword("Str0ng!pass")
	require.NoError(t, err)

	assert.False(t, old.NeedsRehash(hash))
	assert.True(t, (&PasswordConfig{BcryptCost: 11}).NeedsRehash(hash))
	assert.True(t, old.NeedsRehash("garbage"))
}

func TestPasswordConfig_BurnCompareConcurrent(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg.BurnCompare("whatever")
		}()
	}
	wg.Wait()
	assert.NotEmpty(t, cfg.dummyHash)
}
