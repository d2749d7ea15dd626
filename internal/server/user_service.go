package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/access"
	"github.com/jonathan/job-board/internal/config"
	"github.com/jonathan/job-board/internal/db"
	"github.com/jonathan/job-board/internal/metrics"
	"github.com/jonathan/job-board/internal/types"
	"github.com/sirupsen/logrus"
)

// UserService provides business logic for accounts and authentication
type UserService struct {
	db             DBClient
	passwordConfig *config.PasswordConfig
	jwtService     *JWTService
	logger         logrus.FieldLogger
	metrics        *metrics.Metrics

	// RequireEmailVerification makes Login reject accounts that never verified their email.
	RequireEmailVerification bool
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(db DBClient, passwordConfig *config.PasswordConfig, jwtService *JWTService, logger logrus.FieldLogger, m *metrics.Metrics) *UserService {
	return &UserService{
		db:             db,
		passwordConfig: passwordConfig,
		jwtService:     jwtService,
		logger:         logger,
		metrics:        m,
	}
}

// Register creates a new account and returns it with an email verification token.
func (s *UserService) Register(ctx context.Context, req *types.SignupRequest) (*types.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", validationError(err)
	}

	var created *db.User
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		exists, err := tx.CheckEmailExists(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email existence: %w", err)
		}
		if exists {
			return &ErrEmailAlreadyExists{Email: req.Email}
		}

		passwordHash, err := s.passwordConfig.HashPassword(req.Password)
		if err != nil {
			if errors.Is(err, config.ErrPasswordTooLong) {
				return &ErrValidation{Field: "password", Message: "must be at most 72 bytes long"}
			}
			return fmt.Errorf("failed to hash password: %w", err)
		}

		created, err = tx.CreateUser(ctx, &db.UserCreateInput{
			FullName:     req.FullName,
			Email:        req.Email,
			PasswordHash: passwordHash,
			Role:         req.Role,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return &ErrEmailAlreadyExists{Email: req.Email}
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.metrics.UserRegistered(string(created.Role))
	s.logger.WithFields(logrus.Fields{"user_id": created.ID, "role": created.Role}).Info("user registered")

	token, err := s.jwtService.GenerateVerificationToken(created.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return convertDBUserToTypesUser(created), token, nil
}

// Login authenticates a user and returns a fresh token pair
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.TokenResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	var dbUser *db.User
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		var err error
		dbUser, err = tx.GetUserByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to get user by email: %w", err)
		}

		// Always return the same error whether the email or the password was wrong.
		if dbUser == nil {
			s.passwordConfig.BurnCompare(req.Password)
			return &ErrInvalidCredentials{}
		}
		if !s.passwordConfig.VerifyPassword(req.Password, dbUser.PasswordHash) {
			return &ErrInvalidCredentials{}
		}
		if !dbUser.IsActive {
			return &ErrUnauthenticated{Reason: "account is deactivated"}
		}
		if s.RequireEmailVerification && !dbUser.IsVerified {
			return &ErrUnauthenticated{Reason: "email address is not verified"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.passwordConfig.NeedsRehash(dbUser.PasswordHash) {
		s.rehash(ctx, dbUser.ID, req.Password)
	}
	return s.issueTokens(dbUser)
}

// rehash upgrades a stored hash to the configured cost in its own transaction, so a
// failed write cannot abort the login. Failure only costs the upgrade.
func (s *UserService) rehash(ctx context.Context, userID uuid.UUID, password string) {
	hash, err := s.passwordConfig.HashPassword(password)
	if err == nil {
		err = s.db.WithTx(ctx, func(tx DBClient) error {
			return tx.UpdatePassword(ctx, userID, hash)
		})
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("password rehash failed")
	}
}

// Refresh exchanges a refresh token for a new token pair.
func (s *UserService) Refresh(ctx context.Context, req *types.RefreshRequest) (*types.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	claims, err := s.jwtService.ValidateToken(req.RefreshToken, ScopeRefresh)
	if err != nil {
		s.logger.WithError(err).Debug("refresh token rejected")
		return nil, &ErrUnauthenticated{Reason: "invalid or expired refresh token"}
	}

	var dbUser *db.User
	err = s.db.WithTx(ctx, func(tx DBClient) error {
		var err error
		dbUser, err = tx.GetUser(ctx, claims.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if dbUser == nil || !dbUser.IsActive {
			return &ErrUnauthenticated{Reason: "account is missing or deactivated"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(dbUser)
}

func (s *UserService) issueTokens(u *db.User) (*types.TokenResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &types.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.jwtService.AccessTTL().Seconds()),
		User:         convertDBUserToTypesUser(u),
	}, nil
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, actorID uuid.UUID) (*types.User, error) {
	var u *db.User
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		var err error
		_, u, err = resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if u == nil {
			return &ErrUnauthenticated{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return convertDBUserToTypesUser(u), nil
}

// GetUser returns any user's profile to an authenticated caller.
func (s *UserService) GetUser(ctx context.Context, actorID, userID uuid.UUID) (*types.User, error) {
	var u *db.User
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		actor, _, err := resolveActor(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := checkRole(actor, access.ActionUserRead); err != nil {
			return err
		}

		u, err = tx.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if u == nil {
			return &ErrNotFound{Resource: "user", ID: userID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return convertDBUserToTypesUser(u), nil
}

// UpdateUser changes the caller's own name and/or email. Changing the email clears the
// verified flag.
func (s *UserService) UpdateUser(ctx context.Context, actorID, userID uuid.UUID, req *types.UpdateUserRequest) (*types.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	if req.FullName != nil && *req.FullName == "" {
		return nil, &ErrValidation{Field: "full_name", Message: "is required"}
	}
	if req.Email != nil && *req.Email == "" {
		return nil, &ErrValidation{Field: "email", Message: "is required"}
	}

	var updated *db.User
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		target, err := s.loadSelf(ctx, tx, actorID, userID, access.ActionUserUpdate)
		if err != nil {
			return err
		}

		if req.FullName != nil {
			target.FullName = *req.FullName
		}
		if req.Email != nil && *req.Email != target.Email {
			exists, err := tx.CheckEmailExists(ctx, *req.Email)
			if err != nil {
				return fmt.Errorf("failed to check email existence: %w", err)
			}
			if exists {
				return &ErrEmailAlreadyExists{Email: *req.Email}
			}
			target.Email = *req.Email
			target.IsVerified = false
		}

		updated, err = tx.UpdateUser(ctx, target)
		if err != nil {
			if isUniqueViolation(err) {
				return &ErrEmailAlreadyExists{Email: target.Email}
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return convertDBUserToTypesUser(updated), nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, actorID, userID uuid.UUID, req *types.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	return s.db.WithTx(ctx, func(tx DBClient) error {
		target, err := s.loadSelf(ctx, tx, actorID, userID, access.ActionUserChangePassword)
		if err != nil {
			return err
		}

		if !s.passwordConfig.VerifyPassword(req.CurrentPassword, target.PasswordHash) {
			return &ErrPasswordMismatch{}
		}

		newPasswordHash, err := s.passwordConfig.HashPassword(req.NewPassword)
		if err != nil {
			if errors.Is(err, config.ErrPasswordTooLong) {
				return &ErrValidation{Field: "new_password", Message: "must be at most 72 bytes long"}
			}
			return fmt.Errorf("failed to hash new password: %w", err)
		}

		if err := tx.UpdatePassword(ctx, userID, newPasswordHash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
}

// Deactivate marks the caller's own account inactive. Accounts are never hard-deleted.
func (s *UserService) Deactivate(ctx context.Context, actorID, userID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		target, err := s.loadSelf(ctx, tx, actorID, userID, access.ActionUserDeactivate)
		if err != nil {
			return err
		}
		target.IsActive = false
		if _, err := tx.UpdateUser(ctx, target); err != nil {
			return fmt.Errorf("failed to deactivate user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.WithField("user_id", userID).Info("user deactivated")
	return nil
}

// loadSelf runs the checks shared by self-service mutations and returns the target row.
func (s *UserService) loadSelf(ctx context.Context, tx DBClient, actorID, userID uuid.UUID, action access.Action) (*db.User, error) {
	actor, _, err := resolveActor(ctx, tx, actorID)
	if err != nil {
		return nil, err
	}
	if err := checkRole(actor, action); err != nil {
		return nil, err
	}

	target, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if target == nil {
		return nil, &ErrNotFound{Resource: "user", ID: userID}
	}
	if err := access.Check(actor, action, access.Resource{UserID: target.ID}); err != nil {
		return nil, err
	}
	return target, nil
}

// VerifyEmail marks the token's user as verified. Verifying twice is harmless.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*types.User, error) {
	if token == "" {
		return nil, &ErrValidation{Field: "token", Message: "is required"}
	}
	claims, err := s.jwtService.ValidateToken(token, ScopeEmailVerification)
	if err != nil {
		s.logger.WithError(err).Debug("verification token rejected")
		return nil, &ErrValidation{Field: "token", Message: "is invalid or expired"}
	}

	var verified *db.User
	err = s.db.WithTx(ctx, func(tx DBClient) error {
		u, err := tx.GetUser(ctx, claims.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if u == nil {
			return &ErrNotFound{Resource: "user", ID: claims.UserID}
		}
		if u.IsVerified {
			verified = u
			return nil
		}
		u.IsVerified = true
		verified, err = tx.UpdateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("failed to verify user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return convertDBUserToTypesUser(verified), nil
}

// ResendVerification issues a new verification token for an unverified account. It
// returns an empty token, and no error, when there is nothing to verify so callers
// cannot discover which emails are registered.
func (s *UserService) ResendVerification(ctx context.Context, req *types.ResendVerificationRequest) (uuid.UUID, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return uuid.Nil, "", validationError(err)
	}

	var u *db.User
	err := s.db.WithTx(ctx, func(tx DBClient) error {
		var err error
		u, err = tx.GetUserByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to get user by email: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	if u == nil || u.IsVerified || !u.IsActive {
		return uuid.Nil, "", nil
	}

	token, err := s.jwtService.GenerateVerificationToken(u.ID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return u.ID, token, nil
}
