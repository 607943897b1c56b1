// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"

	"github.com/taibuivan/sentra/internal/users/auth"
	"github.com/taibuivan/sentra/pkg/pagination"
)

/*
Store defines the administrative persistence contract over accounts.

It complements [auth.UserRepository]: the auth contract covers the live
single-account lookups the authentication flow needs, while this one adds
listing, deletion-state management, and the assignment side tables. Both
are implemented by the same Postgres schema.
*/
type Store interface {
	// FindAny retrieves an account by primary key regardless of its
	// deletion state. Administrative flows need to see trashed rows to
	// hard-delete or restore them.
	FindAny(ctx context.Context, id int64) (*auth.User, error)

	// Page returns one page of accounts matching the filter, together
	// with the total match count before paging.
	Page(ctx context.Context, filter Filter, sort Sort, params pagination.Params) ([]*auth.User, int, error)

	// LabelSearch returns lightweight projections for selector widgets.
	// Only live accounts match; limit is applied as given.
	LabelSearch(ctx context.Context, query string, limit int) ([]Label, error)

	// SoftDelete stamps deleted_at on a live account.
	SoftDelete(ctx context.Context, id int64) error

	// HardDelete irreversibly removes the account row and its role
	// assignments.
	HardDelete(ctx context.Context, id int64) error

	// Restore clears deleted_at on a soft-deleted account.
	Restore(ctx context.Context, id int64) error

	// SyncRoles replaces the account's role assignments atomically.
	SyncRoles(ctx context.Context, id int64, roles []string) error

	// SaveSettings replaces the account's settings document.
	SaveSettings(ctx context.Context, id int64, settings map[string]any) error
}
