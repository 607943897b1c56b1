// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the core identity and access management system.

It handles everything from registration and secure password hashing to the
credential lifecycle of both guard variants: stateful Redis sessions and
revocable bearer tokens.

Architecture:

  - Service: Orchestrates business logic (Login, Logout, Register, Reset).
  - Repository: Abstracted interfaces for Postgres (Users) and Redis
    (Sessions, Reset tokens).
  - Security: Leverages bcrypt hashing and HMAC-signed bearer tokens whose
    revocation state lives on the user row.

The package ensures that identity data remains consistent and secure
throughout the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/sec"
	"github.com/taibuivan/sentra/pkg/uuidv7"
)

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, login, or
// credential rotation logic must be reviewed by the security team.
type Service struct {
	userRepository       UserRepository
	sessionStore         SessionStore
	resetTokenRepository ResetTokenRepository
	tokenIssuer          *TokenIssuer
	notifier             Notifier
	logger               *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	userRepo UserRepository,
	sessions SessionStore,
	resetRepo ResetTokenRepository,
	issuer *TokenIssuer,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:       userRepo,
		sessionStore:         sessions,
		resetTokenRepository: resetRepo,
		tokenIssuer:          issuer,
		notifier:             notifier,
		logger:               logger,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string

	// Guard selects the credential channel; defaults to [GuardToken].
	Guard GuardKind

	// SessionID carries the incoming session cookie, if any, so a stateful
	// login can unbind the previous identity first.
	SessionID string
}

// LoginResult represents a successfully established authentication.
//
// Exactly one credential is populated, depending on the guard variant:
// Token for the bearer channel, SessionID for the stateful channel.
type LoginResult struct {
	User      PublicProfile
	Token     string
	SessionID string
	ExpiresAt time.Time
}

/*
Login validates user credentials and binds the identity to a guard.

Description: Resolves the candidate by email, performs a constant-time
password comparison, enforces the active flag, records the login state, and
materializes the guard's credential.

The same Unauthorized result covers both "no such email" and "wrong
password" so a caller cannot probe which addresses are registered. An
inactive account with correct credentials gets a distinct Forbidden result;
the credential check has already succeeded at that point.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Transport-ready credential and public profile
  - error: Unauthorized, Forbidden, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	guardKind := input.Guard
	if !guardKind.Valid() {
		guardKind = GuardToken
	}

	// A stateful login with a live incoming session unbinds it first, so
	// one guard never holds two identities.
	var guard Guard
	if guardKind == GuardSession {
		sessionGuard := NewSessionGuard(service.sessionStore, service.userRepository, input.SessionID)
		if err := sessionGuard.Restore(context); err == nil && sessionGuard.Check() {
			_ = sessionGuard.Logout(context)
		}
		guard = sessionGuard
	} else {
		guard = NewTokenGuard(service.tokenIssuer, nil)
	}

	user, err := service.userRepository.FindByEmail(context, input.Email)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !user.Active {
		return nil, apperr.Forbidden("Account is inactive")
	}

	// Record the login state before handing out any credential.
	now := time.Now()
	if err := service.userRepository.SetLoginState(context, user.ID, true, &now); err != nil {
		return nil, fmt.Errorf("auth_service_login_state_failed: %w", err)
	}
	user.LoggedIn = true
	user.LastLoginAt = &now

	if err := guard.SetUser(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_guard_bind_failed: %w", err)
	}

	result := &LoginResult{User: user.Public()}

	if tokenGuard, ok := guard.(*TokenGuard); ok {
		result.Token, result.ExpiresAt = tokenGuard.Token()
	}
	if sessionGuard, ok := guard.(*SessionGuard); ok {
		result.SessionID = sessionGuard.SessionID()
		result.ExpiresAt = sessionGuard.ExpiresAt()
	}

	service.logger.Info("user_logged_in",
		slog.Int64("user_id", user.ID),
		slog.String("guard", string(guardKind)),
	)

	return result, nil
}

// LogoutInput identifies the credential to invalidate.
type LogoutInput struct {
	// UserID is the resolved acting identity; zero when anonymous.
	UserID int64

	// Guard selects the credential channel; defaults to [GuardToken].
	Guard GuardKind

	// SessionID carries the session cookie value for the stateful channel.
	SessionID string
}

/*
Logout unbinds the identity from its guard and invalidates the credential.

Description: Idempotent by contract. An anonymous call, an already-expired
session, or an already-revoked token all succeed as no-ops; infrastructure
failures are logged but never surfaced, because a client can do nothing
useful with a failed logout.

Parameters:
  - context: context.Context
  - input: LogoutInput

Returns:
  - error: Always nil
*/
func (service *Service) Logout(context context.Context, input LogoutInput) error {
	guardKind := input.Guard
	if !guardKind.Valid() {
		guardKind = GuardToken
	}

	if guardKind == GuardSession && input.SessionID != "" {
		if err := service.sessionStore.Delete(context, input.SessionID); err != nil {
			service.logger.Warn("logout_session_delete_failed", slog.Any("error", err))
		}
	}

	if input.UserID != 0 {
		if guardKind == GuardToken {
			if err := service.tokenIssuer.Revoke(context, input.UserID); err != nil {
				service.logger.Warn("logout_token_revoke_failed", slog.Any("error", err))
			}
		}

		if err := service.userRepository.SetLoginState(context, input.UserID, false, nil); err != nil {
			service.logger.Warn("logout_state_clear_failed", slog.Any("error", err))
		}

		service.logger.Info("user_logged_out",
			slog.Int64("user_id", input.UserID),
			slog.String("guard", string(guardKind)),
		)
	}

	return nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
	Timezone    string

	// SuperAdmin is honored only on the console/admin path; the public
	// registration handler never sets it.
	SuperAdmin bool
}

/*
Register validates, hashes, and persists a brand new user account.

Description: New accounts are always created active. Uniqueness is checked
up front for friendly field errors and enforced again by the store's unique
constraints, which surface through the same validation shape.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: ValidationError (identity taken) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	if _, err := service.userRepository.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field: FieldEmail, Message: "is already registered",
		})
	}

	if _, err := service.userRepository.FindByUsername(context, input.Username); err == nil {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field: FieldUsername, Message: "is already taken",
		})
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = DefaultTimezone
	}

	user := &User{
		UUID:         uuidv7.New(),
		Username:     input.Username,
		DisplayName:  input.DisplayName,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Active:       true,
		SuperAdmin:   input.SuperAdmin,
		Timezone:     timezone,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Bool("super_admin", user.SuperAdmin),
	)

	return user, nil
}

// # Password Recovery

/*
ForgotPassword initiates the password recovery flow.

Description: Generates a single-use token bound to the account, stores it
with a short TTL, and dispatches the recovery notification.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: The recovery token (also dispatched via the notifier)
  - error: apperr.NotFound for unknown addresses, or generation errors
*/
func (service *Service) ForgotPassword(context context.Context, email string) (string, error) {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return "", apperr.NotFound("Account")
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	if err := service.resetTokenRepository.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	if err := service.notifier.SendPasswordReset(context, user.Email, token); err != nil {
		service.logger.Warn("password_reset_notify_failed",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return token, nil
}

// ResetPasswordInput completes the recovery flow.
type ResetPasswordInput struct {
	Token    string
	Email    string
	Password string
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, checks it belongs to the given address,
hashes the new password, rotates the remember token, and revokes any live
bearer credential. Every verification failure collapses into the same
generic NotFound so the caller cannot distinguish an invalid token from a
mismatched address.

Parameters:
  - context: context.Context
  - input: ResetPasswordInput

Returns:
  - error: Generic NotFound or update failures
*/
func (service *Service) ResetPassword(context context.Context, input ResetPasswordInput) error {
	userID, err := service.resetTokenRepository.Get(context, input.Token)
	if err != nil {
		return apperr.NotFound("Unable to reset password")
	}

	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return apperr.NotFound("Unable to reset password")
	}

	if !strings.EqualFold(user.Email, input.Email) {
		return apperr.NotFound("Unable to reset password")
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	rememberToken, err := sec.GenerateSecureToken(RememberTokenLength)
	if err != nil {
		return fmt.Errorf("auth_service_remember_token_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword, rememberToken); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Security Cleanup: a stolen-password recovery must also kill any
	// bearer credential minted with the old password.
	_ = service.tokenIssuer.Revoke(context, user.ID)
	_ = service.resetTokenRepository.Delete(context, input.Token)

	service.logger.Info("user_password_reset", slog.Int64("user_id", user.ID))

	return nil
}

/*
ChangePassword allows an authenticated user to rotate their credentials.

Description: Verifies the current password before applying the new one and
rotates the remember token alongside.

Parameters:
  - context: context.Context
  - userID: int64
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	rememberToken, err := sec.GenerateSecureToken(RememberTokenLength)
	if err != nil {
		return fmt.Errorf("auth_service_remember_token_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword, rememberToken); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	service.logger.Info("user_password_changed", slog.Int64("user_id", userID))

	return nil
}

// # Self Profile

/*
Profile retrieves the authenticated user's own account.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *User: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Profile(context context.Context, userID int64) (*User, error) {
	return service.userRepository.FindByID(context, userID)
}

// EditProfileInput defines the self-service editable subset of account
// fields. Privilege flags are structurally absent: an account can never
// change its own active or super_admin state through this path.
type EditProfileInput struct {
	Username    *string
	DisplayName *string
	Email       *string
	Timezone    *string

	// A non-empty NewPassword requires the matching CurrentPassword.
	CurrentPassword string
	NewPassword     string
}

/*
EditProfile applies a partial self-service update to the actor's account.

Parameters:
  - context: context.Context
  - actorID: int64
  - input: EditProfileInput

Returns:
  - *User: The updated entity
  - error: Unauthorized (bad current password), validation, or storage failures
*/
func (service *Service) EditProfile(context context.Context, actorID int64, input EditProfileInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, actorID)
	if err != nil {
		return nil, err
	}

	fields := FieldsFor(user.Tier())

	if input.Username != nil {
		if _, ok := fields[FieldUsername]; ok {
			user.Username = *input.Username
		}
	}
	if input.DisplayName != nil {
		if _, ok := fields[FieldDisplayName]; ok {
			user.DisplayName = *input.DisplayName
		}
	}
	if input.Email != nil {
		if _, ok := fields[FieldEmail]; ok {
			user.Email = *input.Email
		}
	}
	if input.Timezone != nil {
		if _, ok := fields[FieldTimezone]; ok {
			user.Timezone = *input.Timezone
		}
	}

	if input.NewPassword != "" {
		if !sec.CheckPasswordHash(input.CurrentPassword, user.PasswordHash) {
			return nil, apperr.Unauthorized("Current password is incorrect")
		}

		hashedPassword, err := sec.HashPassword(input.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
		}

		rememberToken, err := sec.GenerateSecureToken(RememberTokenLength)
		if err != nil {
			return nil, fmt.Errorf("auth_service_remember_token_failed: %w", err)
		}

		if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword, rememberToken); err != nil {
			return nil, fmt.Errorf("auth_service_edit_password_failed: %w", err)
		}
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_profile_updated", slog.Int64("user_id", user.ID))

	return user, nil
}
