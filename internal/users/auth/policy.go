// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/sentra/internal/platform/sec"

// # Protection Policy
//
// These pure functions are consulted before every privileged mutation, in
// both the authentication service and the administrative service. A policy
// violation does not raise an error for field mutations; the privileged
// field is silently left unchanged. Delete is the exception and surfaces an
// explicit Forbidden result to the caller.

/*
CanDelete decides whether the actor may delete the target account.

The master account and any account currently flagged super_admin are
protected regardless of who is asking. Otherwise deletion requires the
admin tier.

Parameters:
  - actor: *User (The acting identity)
  - target: *User (The account to delete)

Returns:
  - bool: Whether deletion is permitted
*/
func CanDelete(actor, target *User) bool {
	if target.IsMaster() {
		return false
	}
	if target.SuperAdmin {
		return false
	}
	return actor.IsAdmin()
}

/*
CanSetSuperAdmin decides whether the actor may change a super_admin flag.

Only current super-admins may grant or revoke the flag. The target is
deliberately not consulted here; self-flag changes are blocked separately
by the self-edit rule in [CanSetActive]'s caller.

Returns:
  - bool: Whether the actor may touch super_admin fields
*/
func CanSetSuperAdmin(actor *User) bool {
	return actor.SuperAdmin
}

/*
CanSetActive decides whether the actor may change the target's active flag.

Requires the admin tier AND a distinct target: nobody can deactivate or
reactivate their own account, including super-admins.

Returns:
  - bool: Whether the mutation is permitted
*/
func CanSetActive(actor, target *User) bool {
	if actor.ID == target.ID {
		return false
	}
	return actor.IsAdmin()
}

/*
CanSyncRoles decides whether the actor may rewrite a user's role assignments.

Returns:
  - bool: Whether the actor holds the admin tier or above
*/
func CanSyncRoles(actor *User) bool {
	return actor.IsAdmin()
}

// # Fillable Field Sets

// fillable sets are declared statically per tier so the edit surface of each
// role is enumerable and testable without any request scaffolding.
var (
	memberFields = map[string]struct{}{
		FieldUsername:    {},
		FieldDisplayName: {},
		FieldEmail:       {},
		FieldPassword:    {},
		FieldTimezone:    {},
	}

	adminFields = map[string]struct{}{
		FieldUsername:    {},
		FieldDisplayName: {},
		FieldEmail:       {},
		FieldPassword:    {},
		FieldTimezone:    {},
		FieldActive:      {},
		FieldRoles:       {},
	}

	superAdminFields = map[string]struct{}{
		FieldUsername:    {},
		FieldDisplayName: {},
		FieldEmail:       {},
		FieldPassword:    {},
		FieldTimezone:    {},
		FieldActive:      {},
		FieldRoles:       {},
		FieldSuperAdmin:  {},
	}
)

/*
FieldsFor resolves the set of fields an actor of the given tier may mutate.

Parameters:
  - tier: sec.RoleTier

Returns:
  - map[string]struct{}: The allowed field names (read-only; do not mutate)
*/
func FieldsFor(tier sec.RoleTier) map[string]struct{} {
	switch tier {
	case sec.TierSuperAdmin:
		return superAdminFields
	case sec.TierAdmin:
		return adminFields
	default:
		return memberFields
	}
}

// FieldAllowed reports whether the given tier may mutate the named field.
func FieldAllowed(tier sec.RoleTier, field string) bool {
	_, ok := FieldsFor(tier)[field]
	return ok
}
