// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Postgres implementation of the administrative account store.

package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/dberr"
	"github.com/taibuivan/sentra/internal/users/auth"
	"github.com/taibuivan/sentra/pkg/pagination"
)

// accountColumns mirrors the canonical account projection, including the
// inline role-slug aggregation, so administrative reads hydrate the same
// entity shape the auth store produces.
const accountColumns = `
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

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// scanAccount hydrates a full account entity in [accountColumns] order.
func scanAccount(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
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

/*
FindAny retrieves an account by primary key, trashed rows included.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *auth.User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindAny(context context.Context, id int64) (*auth.User, error) {
	query := `SELECT ` + accountColumns + `
		FROM users.account a
		WHERE a.id = $1`

	user, err := scanAccount(store.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

/*
Page returns one page of accounts matching the filter plus the total count.

Description: The WHERE clause is assembled from the deletion-state
selector, the free-text search, and the optional primary-key restriction.
Sort input is expected to be pre-normalized against the allow-list; the
column name is interpolated only after that guarantee.

Parameters:
  - context: context.Context
  - filter: Filter
  - sort: Sort
  - params: pagination.Params

Returns:
  - []*auth.User: The page items
  - int: Total matches before paging
  - error: Database errors
*/
func (store *PostgresStore) Page(context context.Context, filter Filter, sort Sort, params pagination.Params) ([]*auth.User, int, error) {
	where := ""
	switch filter.Deleted {
	case DeletedOnly:
		where = `WHERE a.deleted_at IS NOT NULL`
	case DeletedInclude:
		where = `WHERE TRUE`
	default:
		where = `WHERE a.deleted_at IS NULL`
	}

	args := []any{}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		args = append(args, term)
		placeholder := "$" + strconv.Itoa(len(args))
		where += fmt.Sprintf(
			" AND (a.username ILIKE %[1]s OR a.display_name ILIKE %[1]s OR a.email ILIKE %[1]s)",
			placeholder,
		)
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		where += " AND a.id = ANY($" + strconv.Itoa(len(args)) + ")"
	}

	countQuery := `SELECT count(*) FROM users.account a ` + where

	var total int
	if err := store.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}

	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}

	query := `SELECT ` + accountColumns + `
		FROM users.account a ` + where + `
		ORDER BY a.` + sort.Normalize().Column + ` ` + direction + `
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, params.Limit, params.Offset())

	rows, err := store.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "User")
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanAccount(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "User")
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

/*
LabelSearch returns lightweight account projections for selector widgets.

Parameters:
  - context: context.Context
  - searchQuery: string
  - limit: int

Returns:
  - []Label: Matching projections ordered by display name
  - error: Database errors
*/
func (store *PostgresStore) LabelSearch(context context.Context, searchQuery string, limit int) ([]Label, error) {
	query := `
		SELECT a.id, a.username, a.display_name
		FROM users.account a
		WHERE a.deleted_at IS NULL`

	args := []any{}
	if searchQuery != "" {
		term := "%" + searchQuery + "%"
		args = append(args, term)
		query += ` AND (a.username ILIKE $1 OR a.display_name ILIKE $1)`
	}
	query += `
		ORDER BY a.display_name ASC
		LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := store.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		var label Label
		if err := rows.Scan(&label.ID, &label.Username, &label.DisplayName); err != nil {
			return nil, dberr.Wrap(err, "User")
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}

/*
SoftDelete stamps deleted_at on a live account.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: apperr.NotFound when the account is missing or already trashed
*/
func (store *PostgresStore) SoftDelete(context context.Context, id int64) error {
	const query = `
		UPDATE users.account
		SET deleted_at = $2, logged_in = FALSE,
		    api_token_hash = NULL, api_token_expires_at = NULL
		WHERE id = $1 AND deleted_at IS NULL`

	cmd, err := store.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

/*
HardDelete irreversibly removes the account row. Role assignments follow
through the foreign key cascade.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: apperr.NotFound when no row matched
*/
func (store *PostgresStore) HardDelete(context context.Context, id int64) error {
	cmd, err := store.pool.Exec(context, `DELETE FROM users.account WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

/*
Restore clears the deletion timestamp on a soft-deleted account.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: apperr.NotFound when the account is missing or not trashed
*/
func (store *PostgresStore) Restore(context context.Context, id int64) error {
	const query = `
		UPDATE users.account
		SET deleted_at = NULL, updated_at = $2
		WHERE id = $1 AND deleted_at IS NOT NULL`

	cmd, err := store.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

/*
SyncRoles replaces the account's role assignments in one transaction.

Description: The existing assignment rows are deleted and the new slug set
inserted atomically, so concurrent readers never observe a partial set.

Parameters:
  - context: context.Context
  - id: int64
  - roles: []string

Returns:
  - error: Database errors
*/
func (store *PostgresStore) SyncRoles(context context.Context, id int64, roles []string) error {
	tx, err := store.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	defer tx.Rollback(context)

	if _, err := tx.Exec(context, `DELETE FROM users.role_assignment WHERE user_id = $1`, id); err != nil {
		return dberr.Wrap(err, "User")
	}

	if len(roles) > 0 {
		const insert = `
			INSERT INTO users.role_assignment (user_id, role_slug)
			SELECT $1, unnest($2::text[])
			ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(context, insert, id, roles); err != nil {
			return dberr.Wrap(err, "User")
		}
	}

	if err := tx.Commit(context); err != nil {
		return dberr.Wrap(err, "User")
	}
	return nil
}

/*
SaveSettings replaces the account's settings document.

Parameters:
  - context: context.Context
  - id: int64
  - settings: map[string]any

Returns:
  - error: apperr.NotFound when no row matched, otherwise database errors
*/
func (store *PostgresStore) SaveSettings(context context.Context, id int64, settings map[string]any) error {
	const query = `
		UPDATE users.account
		SET settings = $2, updated_at = $3
		WHERE id = $1`

	cmd, err := store.pool.Exec(context, query, id, settings, time.Now())
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}
