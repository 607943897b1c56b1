// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/sentra/internal/platform/sec"
	"github.com/taibuivan/sentra/internal/users/auth"
)

// Test fixtures for the protection policy.
func superAdminActor() *auth.User {
	return &auth.User{ID: 10, SuperAdmin: true}
}

func adminActor() *auth.User {
	return &auth.User{ID: 20, Roles: []string{"admin"}}
}

func memberActor() *auth.User {
	return &auth.User{ID: 30}
}

/*
TestCanDelete_MasterAccountProtected verifies that the master account can
never be deleted, regardless of actor privilege.
*/
func TestCanDelete_MasterAccountProtected(t *testing.T) {
	master := &auth.User{ID: auth.MasterUserID}

	assert.False(t, auth.CanDelete(superAdminActor(), master))
	assert.False(t, auth.CanDelete(adminActor(), master))
	assert.False(t, auth.CanDelete(memberActor(), master))
}

/*
TestCanDelete_SuperAdminTargetProtected verifies that any account flagged
super_admin is undeletable while the flag is set.
*/
func TestCanDelete_SuperAdminTargetProtected(t *testing.T) {
	target := &auth.User{ID: 99, SuperAdmin: true}

	assert.False(t, auth.CanDelete(superAdminActor(), target))
	assert.False(t, auth.CanDelete(adminActor(), target))
}

/*
TestCanDelete_RequiresAdminTier verifies that ordinary targets are
deletable only by admin-tier actors.
*/
func TestCanDelete_RequiresAdminTier(t *testing.T) {
	target := &auth.User{ID: 99}

	assert.True(t, auth.CanDelete(superAdminActor(), target))
	assert.True(t, auth.CanDelete(adminActor(), target))
	assert.False(t, auth.CanDelete(memberActor(), target))
}

/*
TestCanSetSuperAdmin verifies that only current super-admins may touch the
super_admin flag.
*/
func TestCanSetSuperAdmin(t *testing.T) {
	assert.True(t, auth.CanSetSuperAdmin(superAdminActor()))
	assert.False(t, auth.CanSetSuperAdmin(adminActor()))
	assert.False(t, auth.CanSetSuperAdmin(memberActor()))
}

/*
TestCanSetActive verifies the admin-tier requirement and the self-edit
prohibition, which applies even to super-admins.
*/
func TestCanSetActive(t *testing.T) {
	other := &auth.User{ID: 99}

	// 1. Admin tier acting on another account is allowed
	assert.True(t, auth.CanSetActive(superAdminActor(), other))
	assert.True(t, auth.CanSetActive(adminActor(), other))

	// 2. Members never flip active flags
	assert.False(t, auth.CanSetActive(memberActor(), other))

	// 3. Self-service changes are always rejected
	super := superAdminActor()
	assert.False(t, auth.CanSetActive(super, super))
}

/*
TestCanSyncRoles verifies the admin-tier requirement for role rewrites.
*/
func TestCanSyncRoles(t *testing.T) {
	assert.True(t, auth.CanSyncRoles(superAdminActor()))
	assert.True(t, auth.CanSyncRoles(adminActor()))
	assert.False(t, auth.CanSyncRoles(memberActor()))
}

/*
TestFieldsFor verifies the statically declared fillable set per tier.
*/
func TestFieldsFor(t *testing.T) {
	testCases := []struct {
		name    string
		tier    sec.RoleTier
		allowed []string
		denied  []string
	}{
		{
			name:    "member",
			tier:    sec.TierMember,
			allowed: []string{auth.FieldUsername, auth.FieldDisplayName, auth.FieldEmail, auth.FieldPassword, auth.FieldTimezone},
			denied:  []string{auth.FieldActive, auth.FieldSuperAdmin, auth.FieldRoles},
		},
		{
			name:    "admin",
			tier:    sec.TierAdmin,
			allowed: []string{auth.FieldUsername, auth.FieldActive, auth.FieldRoles},
			denied:  []string{auth.FieldSuperAdmin},
		},
		{
			name:    "super_admin",
			tier:    sec.TierSuperAdmin,
			allowed: []string{auth.FieldUsername, auth.FieldActive, auth.FieldRoles, auth.FieldSuperAdmin},
			denied:  nil,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			for _, field := range testCase.allowed {
				assert.True(t, auth.FieldAllowed(testCase.tier, field), field)
			}
			for _, field := range testCase.denied {
				assert.False(t, auth.FieldAllowed(testCase.tier, field), field)
			}
		})
	}
}

/*
TestUser_Tier verifies role tier resolution from the entity state.
*/
func TestUser_Tier(t *testing.T) {
	assert.Equal(t, sec.TierSuperAdmin, superAdminActor().Tier())
	assert.Equal(t, sec.TierAdmin, adminActor().Tier())
	assert.Equal(t, sec.TierMember, memberActor().Tier())

	// Super admin flag outranks assigned roles
	mixed := &auth.User{SuperAdmin: true, Roles: []string{"admin"}}
	assert.Equal(t, sec.TierSuperAdmin, mixed.Tier())
}
