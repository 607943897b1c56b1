// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/users/admin"
	"github.com/taibuivan/sentra/internal/users/auth"
	"github.com/taibuivan/sentra/pkg/pagination"
	"github.com/taibuivan/sentra/pkg/pointer"
	"github.com/taibuivan/sentra/pkg/uuidv7"
)

// # In-Memory Account Store

// fakeAccounts implements both the auth repository contract and the
// administrative store contract over one map, the way the Postgres schema
// backs both in production.
type fakeAccounts struct {
	nextID int64
	users  map[int64]*auth.User
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{nextID: 1, users: map[int64]*auth.User{}}
}

func (store *fakeAccounts) FindByID(_ context.Context, id int64) (*auth.User, error) {
	user, ok := store.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

func (store *fakeAccounts) FindByUUID(_ context.Context, uuid string) (*auth.User, error) {
	for _, user := range store.users {
		if user.UUID == uuid && user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *fakeAccounts) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range store.users {
		if strings.EqualFold(user.Email, email) && user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *fakeAccounts) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range store.users {
		if user.Username == username && user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *fakeAccounts) Create(_ context.Context, user *auth.User) error {
	user.ID = store.nextID
	store.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	store.users[user.ID] = user
	return nil
}

func (store *fakeAccounts) Update(_ context.Context, user *auth.User) error {
	user.UpdatedAt = time.Now()
	store.users[user.ID] = user
	return nil
}

func (store *fakeAccounts) UpdatePassword(_ context.Context, userID int64, newHash, rememberToken string) error {
	user := store.users[userID]
	user.PasswordHash = newHash
	user.RememberToken = rememberToken
	return nil
}

func (store *fakeAccounts) SetLoginState(_ context.Context, userID int64, loggedIn bool, lastLoginAt *time.Time) error {
	user := store.users[userID]
	user.LoggedIn = loggedIn
	if lastLoginAt != nil {
		user.LastLoginAt = lastLoginAt
	}
	return nil
}

func (store *fakeAccounts) SetAPIToken(_ context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error {
	user := store.users[userID]
	user.APITokenHash = tokenHash
	user.APITokenExpiresAt = expiresAt
	return nil
}

func (store *fakeAccounts) FindByAPITokenHash(_ context.Context, tokenHash string) (*auth.User, error) {
	for _, user := range store.users {
		if user.APITokenHash != nil && *user.APITokenHash == tokenHash && user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *fakeAccounts) FindAny(_ context.Context, id int64) (*auth.User, error) {
	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

func (store *fakeAccounts) Page(_ context.Context, filter admin.Filter, _ admin.Sort, params pagination.Params) ([]*auth.User, int, error) {
	var matches []*auth.User
	for _, user := range store.users {
		switch filter.Deleted {
		case admin.DeletedOnly:
			if user.DeletedAt == nil {
				continue
			}
		case admin.DeletedInclude:
		default:
			if user.DeletedAt != nil {
				continue
			}
		}

		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			haystack := strings.ToLower(user.Username + " " + user.DisplayName + " " + user.Email)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}

		if len(filter.IDs) > 0 {
			found := false
			for _, id := range filter.IDs {
				if id == user.ID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}

		matches = append(matches, user)
	}

	total := len(matches)
	if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, total, nil
}

func (store *fakeAccounts) LabelSearch(_ context.Context, query string, limit int) ([]admin.Label, error) {
	var labels []admin.Label
	for _, user := range store.users {
		if user.DeletedAt != nil {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(user.Username), strings.ToLower(query)) {
			continue
		}
		labels = append(labels, admin.Label{ID: user.ID, Username: user.Username, DisplayName: user.DisplayName})
		if len(labels) == limit {
			break
		}
	}
	return labels, nil
}

func (store *fakeAccounts) SoftDelete(_ context.Context, id int64) error {
	user, ok := store.users[id]
	if !ok || user.DeletedAt != nil {
		return apperr.NotFound("User")
	}
	now := time.Now()
	user.DeletedAt = &now
	return nil
}

func (store *fakeAccounts) HardDelete(_ context.Context, id int64) error {
	if _, ok := store.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(store.users, id)
	return nil
}

func (store *fakeAccounts) Restore(_ context.Context, id int64) error {
	user, ok := store.users[id]
	if !ok || user.DeletedAt == nil {
		return apperr.NotFound("User")
	}
	user.DeletedAt = nil
	return nil
}

func (store *fakeAccounts) SyncRoles(_ context.Context, id int64, roles []string) error {
	store.users[id].Roles = roles
	return nil
}

func (store *fakeAccounts) SaveSettings(_ context.Context, id int64, settings map[string]any) error {
	store.users[id].Settings = settings
	return nil
}

// # Test Harness

type testHarness struct {
	service  *admin.Service
	accounts *fakeAccounts
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	accounts := newFakeAccounts()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testHarness{
		service:  admin.NewService(accounts, accounts, logger),
		accounts: accounts,
	}
}

// seed inserts an account directly, bypassing registration.
func (harness *testHarness) seed(t *testing.T, username string, superAdmin bool, roles ...string) *auth.User {
	t.Helper()

	user := &auth.User{
		UUID:        uuidv7.New(),
		Username:    username,
		DisplayName: username,
		Email:       username + "@x.com",
		Active:      true,
		SuperAdmin:  superAdmin,
		Timezone:    auth.DefaultTimezone,
		Roles:       roles,
		Settings:    map[string]any{},
	}
	require.NoError(t, harness.accounts.Create(context.Background(), user))
	return user
}

// # Deletion Protection

/*
TestDelete_MasterProtected verifies that the master account can never be
deleted, regardless of actor privilege or the force flag.
*/
func TestDelete_MasterProtected(t *testing.T) {
	harness := newTestHarness(t)
	master := harness.seed(t, "master", true)
	require.Equal(t, auth.MasterUserID, master.ID)
	superActor := harness.seed(t, "root", true)

	for _, force := range []bool{false, true} {
		_, err := harness.service.Delete(context.Background(), superActor.ID, master.ID, force)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
	}

	_, err := harness.accounts.FindAny(context.Background(), master.ID)
	assert.NoError(t, err)
}

/*
TestDelete_SuperAdminProtected verifies that a super-admin account cannot
be deleted while flagged, and becomes deletable once demoted.
*/
func TestDelete_SuperAdminProtected(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	superActor := harness.seed(t, "root", true)
	target := harness.seed(t, "other-super", true)

	_, err := harness.service.Delete(context.Background(), superActor.ID, target.ID, false)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// Demotion by a different super-admin lifts the protection
	_, _, err = harness.service.Edit(context.Background(), superActor.ID, target.ID, admin.EditInput{
		SuperAdmin: pointer.To(false),
	})
	require.NoError(t, err)

	events, err := harness.service.Delete(context.Background(), superActor.ID, target.ID, false)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, admin.EventUserDeleted, events[0].Name)
}

/*
TestDelete_RequiresAdminTier verifies that a plain member cannot delete
anyone.
*/
func TestDelete_RequiresAdminTier(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	member := harness.seed(t, "member", false)
	target := harness.seed(t, "target", false)

	_, err := harness.service.Delete(context.Background(), member.ID, target.ID, false)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

/*
TestDelete_SoftThenHard verifies the two-stage removal: the first delete is
soft, the second is irreversible.
*/
func TestDelete_SoftThenHard(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	actor := harness.seed(t, "root", true)
	target := harness.seed(t, "target", false)

	// 1. First delete soft-deletes
	events, err := harness.service.Delete(context.Background(), actor.ID, target.ID, false)
	require.NoError(t, err)
	require.Len(t, events, 1)

	trashed, err := harness.accounts.FindAny(context.Background(), target.ID)
	require.NoError(t, err)
	assert.NotNil(t, trashed.DeletedAt)

	// 2. The trashed account is invisible to the live lookup
	_, err = harness.accounts.FindByID(context.Background(), target.ID)
	assert.Error(t, err)

	// 3. Second delete removes the row entirely
	_, err = harness.service.Delete(context.Background(), actor.ID, target.ID, false)
	require.NoError(t, err)

	_, err = harness.accounts.FindAny(context.Background(), target.ID)
	assert.Error(t, err)
}

/*
TestDelete_Forced verifies that force removes a live account in one step.
*/
func TestDelete_Forced(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	actor := harness.seed(t, "root", true)
	target := harness.seed(t, "target", false)

	_, err := harness.service.Delete(context.Background(), actor.ID, target.ID, true)
	require.NoError(t, err)

	_, err = harness.accounts.FindAny(context.Background(), target.ID)
	assert.Error(t, err)
}

// # Restore

/*
TestRestore verifies that restoring clears the deletion timestamp and
makes the account visible to default lookups again.
*/
func TestRestore(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	actor := harness.seed(t, "root", true)
	target := harness.seed(t, "target", false)

	_, err := harness.service.Delete(context.Background(), actor.ID, target.ID, false)
	require.NoError(t, err)

	restored, events, err := harness.service.Restore(context.Background(), actor.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
	require.Len(t, events, 1)
	assert.Equal(t, admin.EventUserRestored, events[0].Name)

	_, err = harness.accounts.FindByID(context.Background(), target.ID)
	assert.NoError(t, err)

	// Restoring a live account is a NotFound
	_, _, err = harness.service.Restore(context.Background(), actor.ID, target.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

// # Privileged Field Policy

/*
TestEdit_SuperAdminFieldRequiresSuperActor verifies that an admin-tier
actor requesting a super_admin change leaves the flag unchanged, silently.
*/
func TestEdit_SuperAdminFieldRequiresSuperActor(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	adminActor := harness.seed(t, "staff", false, "admin")
	target := harness.seed(t, "target", false)

	updated, _, err := harness.service.Edit(context.Background(), adminActor.ID, target.ID, admin.EditInput{
		DisplayName: pointer.To("Renamed"),
		SuperAdmin:  pointer.To(true),
	})
	require.NoError(t, err)

	// The fillable field applied; the privileged one did not
	assert.Equal(t, "Renamed", updated.DisplayName)
	assert.False(t, updated.SuperAdmin)
}

/*
TestEdit_SelfPrivilegeSkips verifies that no actor, not even a
super-admin, can change their own active or super_admin flag.
*/
func TestEdit_SelfPrivilegeSkips(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	actor := harness.seed(t, "root", true)

	updated, _, err := harness.service.Edit(context.Background(), actor.ID, actor.ID, admin.EditInput{
		Active:     pointer.To(false),
		SuperAdmin: pointer.To(false),
	})
	require.NoError(t, err)

	assert.True(t, updated.Active)
	assert.True(t, updated.SuperAdmin)
}

/*
TestEdit_ActiveByOtherAdmin verifies the legitimate deactivation path: an
admin acting on a different account.
*/
func TestEdit_ActiveByOtherAdmin(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	adminActor := harness.seed(t, "staff", false, "admin")
	target := harness.seed(t, "target", false)

	updated, events, err := harness.service.Edit(context.Background(), adminActor.ID, target.ID, admin.EditInput{
		Active: pointer.To(false),
	})
	require.NoError(t, err)

	assert.False(t, updated.Active)
	require.Len(t, events, 1)
	assert.Equal(t, admin.EventUserUpdated, events[0].Name)
}

// # Add

/*
TestAdd_Defaults verifies that an administratively added account starts
active, and that a super_admin request from a non-super actor is skipped.
*/
func TestAdd_Defaults(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	adminActor := harness.seed(t, "staff", false, "admin")

	user, events, err := harness.service.Add(context.Background(), adminActor.ID, admin.AddInput{
		Username:   "newcomer",
		Email:      "new@x.com",
		Password:   "Abcd123!",
		SuperAdmin: pointer.To(true),
		Roles:      []string{"editor", "editor"},
	})
	require.NoError(t, err)

	assert.True(t, user.Active)
	assert.False(t, user.SuperAdmin)
	assert.Equal(t, []string{"editor"}, user.Roles)
	assert.Equal(t, auth.DefaultTimezone, user.Timezone)
	require.Len(t, events, 1)
	assert.Equal(t, admin.EventUserCreated, events[0].Name)
}

/*
TestAdd_SuperActorGrants verifies that a super-admin actor can grant the
super_admin flag at creation.
*/
func TestAdd_SuperActorGrants(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	superActor := harness.seed(t, "root", true)

	user, _, err := harness.service.Add(context.Background(), superActor.ID, admin.AddInput{
		Username:   "lieutenant",
		Email:      "lt@x.com",
		Password:   "Abcd123!",
		SuperAdmin: pointer.To(true),
	})
	require.NoError(t, err)
	assert.True(t, user.SuperAdmin)
}

/*
TestAdd_DuplicateIdentity verifies the field-level validation errors for
taken identities.
*/
func TestAdd_DuplicateIdentity(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	actor := harness.seed(t, "root", true)
	harness.seed(t, "taken", false)

	_, _, err := harness.service.Add(context.Background(), actor.ID, admin.AddInput{
		Username: "fresh", Email: "taken@x.com", Password: "Abcd123!",
	})
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 422, appError.HTTPStatus)
	require.Len(t, appError.Details, 1)
	assert.Equal(t, auth.FieldEmail, appError.Details[0].Field)
}

// # Role Sync

/*
TestSyncRoles verifies assignment replacement and the admin-tier
requirement on the dedicated endpoint.
*/
func TestSyncRoles(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	actor := harness.seed(t, "staff", false, "admin")
	member := harness.seed(t, "member", false)
	target := harness.seed(t, "target", false, "editor")

	events, err := harness.service.SyncRoles(context.Background(), actor.ID, target.ID, []string{"moderator"})
	require.NoError(t, err)
	assert.Equal(t, []string{"moderator"}, harness.accounts.users[target.ID].Roles)
	require.Len(t, events, 1)
	assert.Equal(t, admin.EventUserUpdated, events[0].Name)

	_, err = harness.service.SyncRoles(context.Background(), member.ID, target.ID, []string{"admin"})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

// # Browse

/*
TestBrowse verifies the deletion-state selectors and that results use the
administrative projection.
*/
func TestBrowse(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	actor := harness.seed(t, "root", true)
	target := harness.seed(t, "target", false)

	_, err := harness.service.Delete(context.Background(), actor.ID, target.ID, false)
	require.NoError(t, err)

	params := pagination.Params{Page: 1, Limit: 50}

	live, meta, err := harness.service.Browse(context.Background(), admin.Filter{}, admin.Sort{}, params)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Total)
	assert.Len(t, live, 2)

	trashed, _, err := harness.service.Browse(context.Background(), admin.Filter{Deleted: admin.DeletedOnly}, admin.Sort{}, params)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, target.ID, trashed[0].ID)
	assert.NotNil(t, trashed[0].DeletedAt)

	everyone, _, err := harness.service.Browse(context.Background(), admin.Filter{Deleted: admin.DeletedInclude}, admin.Sort{}, params)
	require.NoError(t, err)
	assert.Len(t, everyone, 3)
}

/*
TestSort_Normalize verifies the sort column allow-list fallback.
*/
func TestSort_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		column string
		want   string
	}{
		{name: "username allowed", column: admin.SortByUsername, want: admin.SortByUsername},
		{name: "display name allowed", column: admin.SortByDisplayName, want: admin.SortByDisplayName},
		{name: "unknown falls back", column: "password_hash", want: admin.SortByDisplayName},
		{name: "empty falls back", column: "", want: admin.SortByDisplayName},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, admin.Sort{Column: tc.column}.Normalize().Column)
		})
	}
}

/*
TestLabelSearch_Clamp verifies the result cap on the selector endpoint.
*/
func TestLabelSearch_Clamp(t *testing.T) {
	harness := newTestHarness(t)
	harness.seed(t, "master", true)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		harness.seed(t, name, false)
	}

	labels, err := harness.service.LabelSearch(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	// Zero and oversized limits clamp to the cap rather than erroring
	labels, err = harness.service.LabelSearch(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, labels, 4)
}
