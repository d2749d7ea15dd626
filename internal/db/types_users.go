package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/types"
)

// User represents an account row.
type User struct {
	ID           uuid.UUID  `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize to JSON
	Role         types.Role `json:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsVerified   bool       `json:"is_verified" db:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserCreateInput contains the fields needed to create a user.
type UserCreateInput struct {
	FullName     string
	Email        string
	PasswordHash string
	Role         types.Role
}
