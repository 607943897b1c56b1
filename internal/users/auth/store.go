// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// All lookup methods exclude soft-deleted rows. Implementations enforce
// username/email/uuid uniqueness at the store level and surface violations
// as field-level validation errors.
type UserRepository interface {

	/*
		FindByID returns the account with the given numeric ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByUUID returns the account with the given external UUID.

		Parameters:
		  - context: context.Context
		  - uuid: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByUUID(context context.Context, uuid string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account and assigns its ID.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Uniqueness violations or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists changes to the account's mutable profile fields
		(username, display name, email, timezone, active, super_admin,
		settings, profile image).

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Uniqueness violations or persistence failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdatePassword replaces the password hash and rotates the remember
		token in a single statement.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - newHash: string
		  - rememberToken: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID int64, newHash, rememberToken string) error

	/*
		SetLoginState updates the logged_in flag and, when lastLoginAt is
		non-nil, the last_login_at timestamp.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - loggedIn: bool
		  - lastLoginAt: *time.Time (nil leaves the column unchanged)

		Returns:
		  - error: Persistence failures
	*/
	SetLoginState(context context.Context, userID int64, loggedIn bool, lastLoginAt *time.Time) error

	/*
		SetAPIToken stores or clears the bearer credential columns.
		Passing nil for both arguments revokes the credential.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - tokenHash: *string
		  - expiresAt: *time.Time

		Returns:
		  - error: Persistence failures
	*/
	SetAPIToken(context context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error

	/*
		FindByAPITokenHash returns the active account holding the given
		bearer token hash with an unexpired window.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByAPITokenHash(context context.Context, tokenHash string) (*User, error)
}

// # Volatile Data Access

// SessionStore defines the contract for server-side stateful sessions.
//
// A session is a random identifier mapped to a user ID with a TTL; the
// cookie carries only the identifier.
type SessionStore interface {

	/*
		Put binds a session identifier to a user for a limited duration.

		Parameters:
		  - context: context.Context
		  - sessionID: string
		  - userID: int64
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Put(context context.Context, sessionID string, userID int64, ttl time.Duration) error

	/*
		Get resolves a session identifier to the bound user ID.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - int64: Bound user ID
		  - error: apperr.NotFound when absent or expired
	*/
	Get(context context.Context, sessionID string) (int64, error)

	/*
		Delete invalidates a session identifier.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, sessionID string) error
}

// ResetTokenRepository defines the contract for storing volatile password reset tokens.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with a userID for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: int64
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, userID int64, ttl time.Duration) error

	/*
		Get retrieves the userID associated with a given reset token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - int64: UserID
		  - error: apperr.NotFound when absent or expired
	*/
	Get(context context.Context, token string) (int64, error)

	/*
		Delete removes a reset token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}

// # Outbound Notifications

// Notifier delivers password recovery instructions to the account owner.
//
// The production deployment wires a mail gateway here; the default wiring
// logs the token so local environments can complete the flow without SMTP.
type Notifier interface {

	/*
		SendPasswordReset dispatches the reset token to the given address.

		Parameters:
		  - context: context.Context
		  - email: string
		  - token: string

		Returns:
		  - error: Delivery failures
	*/
	SendPasswordReset(context context.Context, email, token string) error
}
