// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// BearerTokenTTL is the duration an issued bearer token remains valid.
	// Long-lived (30 days); the stored hash allows server-side revocation
	// at any point inside the window.
	BearerTokenTTL = 30 * 24 * time.Hour

	// SessionTTL is the duration a stateful session remains valid in Redis.
	SessionTTL = 30 * 24 * time.Hour

	// SessionIDLength is the byte length of the random session identifier.
	SessionIDLength = 32

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// RememberTokenLength is the byte length of the remember token rotated
	// on every password reset.
	RememberTokenLength = 16

	// MinPasswordLength is the minimum accepted password size.
	MinPasswordLength = 8

	// MaxUsernameLength bounds usernames for storage and display.
	MaxUsernameLength = 64

	// DefaultTimezone is assigned to accounts that do not specify one.
	DefaultTimezone = "UTC"
)

// GuardKind selects which credential channel an authentication operation
// binds the identity to.
type GuardKind string

const (
	// GuardToken issues a bearer token whose hash is stored on the user row.
	GuardToken GuardKind = "token"

	// GuardSession binds the identity to a server-side Redis session.
	GuardSession GuardKind = "session"
)

// Valid reports whether the guard kind is one of the two supported channels.
func (kind GuardKind) Valid() bool {
	return kind == GuardToken || kind == GuardSession
}
