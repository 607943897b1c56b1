// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Postgres implementation of the account storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are mapped to
// domain-friendly [apperr.AppError] values via the dberr package so no
// storage implementation detail leaks past this file.

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sentra/internal/platform/dberr"
)

// userColumns is the canonical projection shared by every account query.
// The role slugs are aggregated inline so a user always hydrates with its
// assignments in one round-trip.
const userColumns = `
	a.id, a.uuid, a.username, a.display_name, a.email, a.password_hash,
	a.active, a.super_admin, a.timezone, a.last_login_at, a.logged_in,
	a.remember_token, a.settings, a.profile_image_url,
	a.api_token_hash, a.api_token_expires_at,
	a.created_at, a.updated_at, a.deleted_at,
	COALESCE(
		(SELECT array_agg(ra.role_slug ORDER BY ra.role_slug)
		 FROM users.role_assignment ra WHERE ra.user_id = a.id),
		'{}'
	) AS roles`

// # User Repository

// PostgresUserRepository implements the [UserRepository] interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// scanUser hydrates a full User entity from a row using the [userColumns] order.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.UUID,
		&user.Username,
		&user.DisplayName,
		&user.Email,
		&user.PasswordHash,
		&user.Active,
		&user.SuperAdmin,
		&user.Timezone,
		&user.LastLoginAt,
		&user.LoggedIn,
		&user.RememberToken,
		&user.Settings,
		&user.ProfileImageURL,
		&user.APITokenHash,
		&user.APITokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
		&user.Roles,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// findOne runs a single-row account query and maps storage errors.
func (repository *PostgresUserRepository) findOne(context context.Context, query string, args ...any) (*User, error) {
	user, err := scanUser(repository.pool.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

/*
FindByID retrieves an account by its primary key.

Description: Primary key resolution, filtering out soft-deleted rows.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users.account a
		WHERE a.id = $1 AND a.deleted_at IS NULL`
	return repository.findOne(context, query, id)
}

/*
FindByUUID retrieves an account by its external UUID.

Parameters:
  - context: context.Context
  - uuid: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUUID(context context.Context, uuid string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users.account a
		WHERE a.uuid = $1 AND a.deleted_at IS NULL`
	return repository.findOne(context, query, uuid)
}

/*
FindByEmail retrieves an account by its unique email address.

Description: The login path's candidate lookup. Case-insensitive so that
credential checks are not sensitive to address casing.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users.account a
		WHERE LOWER(a.email) = LOWER($1) AND a.deleted_at IS NULL`
	return repository.findOne(context, query, email)
}

/*
FindByUsername retrieves an account by its unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users.account a
		WHERE a.username = $1 AND a.deleted_at IS NULL`
	return repository.findOne(context, query, username)
}

/*
Create persists a new account row and assigns the generated ID back onto
the entity.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Field-level validation errors on uniqueness violations,
    otherwise persistence failures
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			uuid, username, display_name, email, password_hash,
			active, super_admin, timezone, settings, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Settings == nil {
		user.Settings = map[string]any{}
	}

	err := repository.pool.QueryRow(context, query,
		user.UUID,
		user.Username,
		user.DisplayName,
		user.Email,
		user.PasswordHash,
		user.Active,
		user.SuperAdmin,
		user.Timezone,
		user.Settings,
		now,
	).Scan(&user.ID)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
Update persists the mutable profile fields of an existing account.

Description: Synchronizes username, display name, email, timezone, the
privilege flags, settings, and the profile image reference, refreshing the
updated_at timestamp. Credential columns are never touched here.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Field-level validation errors on uniqueness violations,
    otherwise persistence failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET username = $2, display_name = $3, email = $4, timezone = $5,
		    active = $6, super_admin = $7, settings = $8,
		    profile_image_url = $9, updated_at = $10
		WHERE id = $1`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.DisplayName,
		user.Email,
		user.Timezone,
		user.Active,
		user.SuperAdmin,
		user.Settings,
		user.ProfileImageURL,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
UpdatePassword replaces the password hash and rotates the remember token.

Parameters:
  - context: context.Context
  - userID: int64
  - newHash: string
  - rememberToken: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID int64, newHash, rememberToken string) error {
	const query = `
		UPDATE users.account
		SET password_hash = $2, remember_token = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL`

	_, err := repository.pool.Exec(context, query, userID, newHash, rememberToken, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
SetLoginState updates the logged_in flag. A non-nil lastLoginAt also
refreshes the last_login_at column; nil leaves it untouched so logout does
not erase the login history.

Parameters:
  - context: context.Context
  - userID: int64
  - loggedIn: bool
  - lastLoginAt: *time.Time

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) SetLoginState(context context.Context, userID int64, loggedIn bool, lastLoginAt *time.Time) error {
	const query = `
		UPDATE users.account
		SET logged_in = $2, last_login_at = COALESCE($3, last_login_at), updated_at = $4
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, loggedIn, lastLoginAt, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
SetAPIToken stores or clears the bearer credential columns. Passing nil for
both values revokes the credential server-side.

Parameters:
  - context: context.Context
  - userID: int64
  - tokenHash: *string
  - expiresAt: *time.Time

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) SetAPIToken(context context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error {
	const query = `
		UPDATE users.account
		SET api_token_hash = $2, api_token_expires_at = $3, updated_at = $4
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, tokenHash, expiresAt, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
FindByAPITokenHash resolves a bearer token hash to its active holder.

Description: Only rows whose stored expiry is still in the future match, so
an expired credential behaves exactly like a revoked one.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByAPITokenHash(context context.Context, tokenHash string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users.account a
		WHERE a.api_token_hash = $1
		  AND a.api_token_expires_at > NOW()
		  AND a.deleted_at IS NULL`
	return repository.findOne(context, query, tokenHash)
}
