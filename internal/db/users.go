package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// User Methods
// -----------------------------------------------------------------------------

const userColumns = `id, full_name, email, password_hash, role, is_active, is_verified, created_at, updated_at`

func scanUser(row scanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. A duplicate email yields an error wrapping ErrUniqueViolation.
func (db *DB) CreateUser(ctx context.Context, input *UserCreateInput) (*User, error) {
	u, err := scanUser(db.q.QueryRow(ctx,
		`INSERT INTO users (full_name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		input.FullName, input.Email, input.PasswordHash, input.Role,
	))
	if err != nil {
		return nil, wrapErr("create user", err)
	}
	return u, nil
}

// GetUser retrieves a user by ID. Returns (nil, nil) when no such user exists.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no such user exists.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, nil
	}
	u, err := scanUser(db.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// CheckEmailExists reports whether an account already uses email.
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpdateUser writes the mutable profile fields and flags of u and returns the stored row.
// The role is never updated.
func (db *DB) UpdateUser(ctx context.Context, u *User) (*User, error) {
	updated, err := scanUser(db.q.QueryRow(ctx,
		`UPDATE users
		 SET full_name = $2, email = $3, is_active = $4, is_verified = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		u.ID, u.FullName, u.Email, u.IsActive, u.IsVerified,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("update user", err)
	}
	return updated, nil
}

// UpdatePassword replaces the stored password hash.
func (db *DB) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := db.q.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update password: user %s not found", userID)
	}
	return nil
}

// DeleteUser removes a user row and, through cascades, their jobs and applications.
// The API deactivates accounts instead; this exists for test cleanup.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := db.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
