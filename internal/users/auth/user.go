// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and credential lifecycle layer.

It defines the core domain entity (User), the protection policy around
privileged mutations, and the logic for authentication, registration, and
password recovery.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
external dependencies and encapsulates all business rules related to user
identity. Two authentication guards operate on top of it: a stateful,
Redis-backed session guard and a bearer-token guard whose revocation state
lives on the user row itself.
*/
package auth

import (
	"time"

	"github.com/taibuivan/sentra/internal/platform/sec"
)

// MasterUserID is the identifier of the master account created by the first
// migration. It can never be deleted, regardless of the acting identity.
const MasterUserID int64 = 1

// # Domain Entities

// User represents a registered account of the Sentra platform.
type User struct {
	ID           int64  `json:"id"`
	UUID         string `json:"uuid"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Explicitly omitted from JSON for security.

	Active     bool   `json:"active"`
	SuperAdmin bool   `json:"super_admin"`
	Timezone   string `json:"timezone"`

	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	LoggedIn      bool       `json:"logged_in"`
	RememberToken string     `json:"-"` // Rotated on every password reset. Omitted for security.

	Settings        map[string]any `json:"settings,omitempty"`
	ProfileImageURL *string        `json:"profile_url,omitempty"`
	Roles           []string       `json:"roles,omitempty"`

	// Bearer credential state. The token itself is never stored; only its
	// SHA-256 hash and expiry live on the row so revocation is server-side.
	APITokenHash      *string    `json:"-"`
	APITokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsMaster reports whether this is the undeletable master account.
func (user *User) IsMaster() bool {
	return user.ID == MasterUserID
}

// IsDeleted reports whether the account is currently soft-deleted.
func (user *User) IsDeleted() bool {
	return user.DeletedAt != nil
}

// Tier resolves the account's effective role tier for authorization checks.
//
// The super_admin column outranks any assigned role; an "admin" role
// assignment grants the admin tier; everything else is a plain member.
func (user *User) Tier() sec.RoleTier {
	if user.SuperAdmin {
		return sec.TierSuperAdmin
	}
	for _, role := range user.Roles {
		if role == string(sec.TierAdmin) {
			return sec.TierAdmin
		}
	}
	return sec.TierMember
}

// IsAdmin reports whether the account holds the admin tier or above.
func (user *User) IsAdmin() bool {
	return user.Tier().AtLeast(sec.TierAdmin)
}

// # Transport Projections

// PublicProfile is the safe projection of a user returned to the account
// owner and embedded in authentication payloads.
type PublicProfile struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// AdminProfile extends [PublicProfile] with the administrative attributes
// visible to browse and CRUD endpoints.
type AdminProfile struct {
	PublicProfile

	Active      bool           `json:"active"`
	SuperAdmin  bool           `json:"super_admin"`
	Timezone    string         `json:"timezone"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	Roles       []string       `json:"roles,omitempty"`
	ProfileURL  *string        `json:"profile_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// Public returns the owner-safe projection of the user. The password hash
// and credential state never appear in any projection.
func (user *User) Public() PublicProfile {
	return PublicProfile{
		ID:          user.ID,
		UUID:        user.UUID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}
}

// AdminView returns the administrative projection of the user.
func (user *User) AdminView() AdminProfile {
	return AdminProfile{
		PublicProfile: user.Public(),
		Active:        user.Active,
		SuperAdmin:    user.SuperAdmin,
		Timezone:      user.Timezone,
		LastLoginAt:   user.LastLoginAt,
		Settings:      user.Settings,
		Roles:         user.Roles,
		ProfileURL:    user.ProfileImageURL,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
		DeletedAt:     user.DeletedAt,
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldTimezone        = "timezone"
	FieldActive          = "active"
	FieldSuperAdmin      = "super_admin"
	FieldRoles           = "roles"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldGuard           = "guard"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
