// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements the administrative user management surface.

It builds browse/filter/page, add/edit, delete/restore, role sync, and
settings sync on top of the account store, sharing the protection policy
of the auth package so no administrative path can bypass it.

# Events

Mutating operations return domain events as plain values instead of
dispatching them from inside the store. The boundary layer decides what
to do with them; the HTTP handlers log each one.
*/
package admin

import "time"

// # Browse Filtering

// DeletedFilter selects which deletion states a browse query includes.
type DeletedFilter string

const (
	// DeletedExclude returns live accounts only. This is the default.
	DeletedExclude DeletedFilter = "undeleted"
	// DeletedOnly returns soft-deleted accounts only.
	DeletedOnly DeletedFilter = "deleted"
	// DeletedInclude returns every account regardless of deletion state.
	DeletedInclude DeletedFilter = "all"
)

// Valid reports whether the filter is one of the recognized selectors.
func (f DeletedFilter) Valid() bool {
	switch f {
	case DeletedExclude, DeletedOnly, DeletedInclude:
		return true
	}
	return false
}

// Filter describes the browse criteria for the account listing.
type Filter struct {
	// Search is a case-insensitive substring matched against username,
	// display name, and email.
	Search string

	// Deleted selects the deletion states to include; zero value behaves
	// as [DeletedExclude].
	Deleted DeletedFilter

	// IDs restricts the result to the given primary keys when non-empty.
	IDs []int64
}

// Sort describes the browse ordering.
type Sort struct {
	Column     string
	Descending bool
}

// sortColumns is the allow-list of browsable order columns. Anything not
// listed here falls back to the default so raw input never reaches SQL.
var sortColumns = map[string]struct{}{
	SortByUsername:    {},
	SortByDisplayName: {},
}

const (
	SortByUsername    = "username"
	SortByDisplayName = "display_name"
)

// Normalize maps unknown sort columns to the display-name default.
func (s Sort) Normalize() Sort {
	if _, ok := sortColumns[s.Column]; !ok {
		s.Column = SortByDisplayName
	}
	return s
}

// # Label Search

// MaxLabelResults caps the label search result size.
const MaxLabelResults = 50

// Label is the lightweight account projection used by selector widgets.
type Label struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// # Domain Events

// Event signals that an administrative mutation took place. Events are
// returned to the caller, never dispatched from inside the store.
type Event struct {
	Name       string
	UserID     int64
	OccurredAt time.Time
}

const (
	EventUserCreated  = "user.created"
	EventUserUpdated  = "user.updated"
	EventUserDeleted  = "user.deleted"
	EventUserRestored = "user.restored"
)

// newEvent stamps an event with the current time.
func newEvent(name string, userID int64) Event {
	return Event{Name: name, UserID: userID, OccurredAt: time.Now()}
}

// # Mutation Inputs

// AddInput carries the fields for an administratively created account.
//
// Active and SuperAdmin are requests, not guarantees: they apply only when
// the acting administrator passes the corresponding policy check, and are
// silently ignored otherwise.
type AddInput struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
	Timezone    string

	Active     *bool
	SuperAdmin *bool
	Roles      []string
}

// EditInput carries a partial administrative update. Nil pointers leave
// the corresponding field untouched. The same silent-skip policy as
// [AddInput] applies to the privileged fields.
type EditInput struct {
	Username    *string
	DisplayName *string
	Email       *string
	Timezone    *string

	Active     *bool
	SuperAdmin *bool
	Roles      []string

	// NewPassword, when non-empty, is hashed and replaces the credential.
	NewPassword string
}
