// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/sec"
)

// # Authentication Guards
//
// A guard holds the authenticated identity for the scope of one request and
// knows how to bind (login) and unbind (logout) it against its credential
// channel. Two variants exist: the stateful [SessionGuard] backed by Redis
// and the [TokenGuard] backed by a bearer token whose hash lives on the
// user row.

// Guard is the common contract shared by both credential channels.
type Guard interface {

	// Check reports whether an identity is currently bound to the guard.
	Check() bool

	// User returns the bound identity, or nil when anonymous.
	User() *User

	// SetUser binds the identity to the guard, materializing the backing
	// credential (session record or bearer token).
	SetUser(context context.Context, user *User) error

	// Logout unbinds the identity and invalidates the backing credential.
	// It is idempotent: unbinding an anonymous guard is a successful no-op.
	Logout(context context.Context) error
}

// # Stateful Session Guard

// SessionGuard binds the identity to a server-side Redis session. The
// client holds only the random session identifier in a cookie.
type SessionGuard struct {
	sessions  SessionStore
	users     UserRepository
	sessionID string
	expiresAt time.Time
	user      *User
}

// NewSessionGuard constructs a session guard. sessionID may be empty for a
// fresh login, or carry the incoming cookie value for an existing session.
func NewSessionGuard(sessions SessionStore, users UserRepository, sessionID string) *SessionGuard {
	return &SessionGuard{
		sessions:  sessions,
		users:     users,
		sessionID: sessionID,
	}
}

// Check reports whether an identity is bound.
func (guard *SessionGuard) Check() bool {
	return guard.user != nil
}

// User returns the bound identity, or nil.
func (guard *SessionGuard) User() *User {
	return guard.user
}

// SessionID returns the identifier the response cookie should carry.
func (guard *SessionGuard) SessionID() string {
	return guard.sessionID
}

// ExpiresAt returns the expiry of the current session record.
func (guard *SessionGuard) ExpiresAt() time.Time {
	return guard.expiresAt
}

/*
Restore hydrates the guard from an existing session identifier.

Description: Resolves the identifier to its user. A missing or expired
session leaves the guard anonymous without error; only infrastructure
failures propagate.

Parameters:
  - context: context.Context

Returns:
  - error: Connectivity failures
*/
func (guard *SessionGuard) Restore(context context.Context) error {
	if guard.sessionID == "" {
		return nil
	}

	userID, err := guard.sessions.Get(context, guard.sessionID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	user, err := guard.users.FindByID(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	guard.user = user
	return nil
}

/*
SetUser binds a user to a brand-new session record.

Description: A fresh random identifier is always generated, so a login
never reuses (or fixates) an attacker-supplied session ID.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Generation or persistence failures
*/
func (guard *SessionGuard) SetUser(context context.Context, user *User) error {
	sessionID, err := sec.GenerateSecureToken(SessionIDLength)
	if err != nil {
		return fmt.Errorf("session_guard_id_generation_failed: %w", err)
	}

	if err := guard.sessions.Put(context, sessionID, user.ID, SessionTTL); err != nil {
		return fmt.Errorf("session_guard_bind_failed: %w", err)
	}

	guard.sessionID = sessionID
	guard.expiresAt = time.Now().Add(SessionTTL)
	guard.user = user
	return nil
}

/*
Logout invalidates the session record and clears the bound identity.

Parameters:
  - context: context.Context

Returns:
  - error: Deletion failures
*/
func (guard *SessionGuard) Logout(context context.Context) error {
	if guard.sessionID == "" {
		guard.user = nil
		return nil
	}

	if err := guard.sessions.Delete(context, guard.sessionID); err != nil {
		return err
	}

	guard.sessionID = ""
	guard.user = nil
	return nil
}

// # Bearer Token Guard

// TokenGuard binds the identity to an issued bearer token. Revocation is
// server-side: the token's hash and expiry are stored on the user row and
// nulled on logout.
type TokenGuard struct {
	issuer    *TokenIssuer
	user      *User
	token     string
	expiresAt time.Time
}

// NewTokenGuard constructs a token guard. user may be nil for a fresh
// login, or carry the already-resolved bearer identity for a logout.
func NewTokenGuard(issuer *TokenIssuer, user *User) *TokenGuard {
	return &TokenGuard{issuer: issuer, user: user}
}

// Check reports whether an identity is bound.
func (guard *TokenGuard) Check() bool {
	return guard.user != nil
}

// User returns the bound identity, or nil.
func (guard *TokenGuard) User() *User {
	return guard.user
}

// Token returns the minted bearer token and its expiry. Only valid after a
// successful [TokenGuard.SetUser]; the plaintext token exists nowhere else.
func (guard *TokenGuard) Token() (string, time.Time) {
	return guard.token, guard.expiresAt
}

/*
SetUser binds a user by minting (or rotating) their bearer token.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Issuance or persistence failures
*/
func (guard *TokenGuard) SetUser(context context.Context, user *User) error {
	token, expiresAt, err := guard.issuer.Issue(context, user)
	if err != nil {
		return err
	}

	guard.user = user
	guard.token = token
	guard.expiresAt = expiresAt
	return nil
}

/*
Logout revokes the bound user's bearer token server-side.

Parameters:
  - context: context.Context

Returns:
  - error: Revocation failures
*/
func (guard *TokenGuard) Logout(context context.Context) error {
	if guard.user == nil {
		return nil
	}

	if err := guard.issuer.Revoke(context, guard.user.ID); err != nil {
		return err
	}

	guard.user = nil
	guard.token = ""
	return nil
}

// # Token Issuer

// TokenIssuer mints, validates, and revokes bearer tokens.
//
// The token is an HS256 JWT so its claims round-trip without a lookup, but
// validity is anchored in the database: the SHA-256 hash of the token and
// its expiry are stored on the user row. A token verifies only while that
// stored state matches, which gives immediate server-side revocation.
type TokenIssuer struct {
	tokens *sec.TokenService
	users  UserRepository
}

// NewTokenIssuer constructs a TokenIssuer over the signing service and the
// account store.
func NewTokenIssuer(tokens *sec.TokenService, users UserRepository) *TokenIssuer {
	return &TokenIssuer{tokens: tokens, users: users}
}

/*
Issue mints a bearer token for the user and persists its hash and expiry.

Description: Re-issuing rotates the credential; any previously issued token
stops validating the moment the new hash is stored.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - string: The signed bearer token (plaintext, shown once)
  - time.Time: Expiry of the credential window
  - error: Signing or persistence failures
*/
func (issuer *TokenIssuer) Issue(context context.Context, user *User) (string, time.Time, error) {
	token, expiresAt, err := issuer.tokens.Generate(user.ID, user.Username, string(user.Tier()), BearerTokenTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token_issuer_generate_failed: %w", err)
	}

	tokenHash := sec.HashToken(token)
	if err := issuer.users.SetAPIToken(context, user.ID, &tokenHash, &expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("token_issuer_persist_failed: %w", err)
	}

	return token, expiresAt, nil
}

/*
Revoke clears the user's bearer credential columns.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - error: Persistence failures
*/
func (issuer *TokenIssuer) Revoke(context context.Context, userID int64) error {
	if err := issuer.users.SetAPIToken(context, userID, nil, nil); err != nil {
		return fmt.Errorf("token_issuer_revoke_failed: %w", err)
	}
	return nil
}

/*
Validate resolves a bearer token to its active holder.

Description: Verifies the signature and standard claims, then anchors the
result in storage by matching the token hash against the user row. Inactive
accounts never validate.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *User: The authenticated account
  - error: apperr.Unauthorized on any verification failure
*/
func (issuer *TokenIssuer) Validate(context context.Context, token string) (*User, error) {
	claims, err := issuer.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	user, err := issuer.users.FindByAPITokenHash(context, sec.HashToken(token))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	// The stored hash already pins the token to one row; the claim check
	// guards against a stale row matching a foreign token hash.
	if user.ID != claims.UserID {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	if !user.Active {
		return nil, apperr.Forbidden("Account is inactive")
	}

	return user, nil
}

// # Request Identity Resolution

// Resolver translates raw request credentials into [sec.AuthClaims] for the
// authentication middleware. It serves both credential channels.
type Resolver struct {
	issuer   *TokenIssuer
	sessions SessionStore
	users    UserRepository
}

// NewResolver constructs the middleware-facing identity resolver.
func NewResolver(issuer *TokenIssuer, sessions SessionStore, users UserRepository) *Resolver {
	return &Resolver{issuer: issuer, sessions: sessions, users: users}
}

/*
ResolveBearer authenticates a bearer token from the Authorization header.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *sec.AuthClaims: The acting identity
  - error: apperr.Unauthorized on verification failure
*/
func (resolver *Resolver) ResolveBearer(context context.Context, token string) (*sec.AuthClaims, error) {
	user, err := resolver.issuer.Validate(context, token)
	if err != nil {
		return nil, err
	}
	return claimsFor(user), nil
}

/*
ResolveSession authenticates a stateful session identifier from the cookie.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *sec.AuthClaims: The acting identity
  - error: apperr.Unauthorized on lookup failure or inactive account
*/
func (resolver *Resolver) ResolveSession(context context.Context, sessionID string) (*sec.AuthClaims, error) {
	userID, err := resolver.sessions.Get(context, sessionID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}

	user, err := resolver.users.FindByID(context, userID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}

	if !user.Active {
		return nil, apperr.Forbidden("Account is inactive")
	}

	return claimsFor(user), nil
}

// claimsFor projects a hydrated user into middleware claims.
func claimsFor(user *User) *sec.AuthClaims {
	return &sec.AuthClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Tier()),
	}
}
