// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Role Tiers

// RoleTier represents the authorization level granted to an account.
//
// Tiers are derived from the user record (super_admin flag plus assigned role
// slugs), never stored directly. They exist so the middleware and policy layer
// can compare privilege levels without re-reading role assignments.
type RoleTier string

const (
	// Unrestricted system access, protected from deletion
	TierSuperAdmin RoleTier = "super_admin"

	// Can administer other user accounts
	TierAdmin RoleTier = "admin"

	// Default tier for standard registered users
	TierMember RoleTier = "member"
)

// # Tier Hierarchy

// AtLeast checks if the current tier meets or exceeds the required target tier.
func (t RoleTier) AtLeast(target RoleTier) bool {
	return t.level() >= target.level()
}

// level maps a tier to a numeric hierarchy level for comparison logic.
func (t RoleTier) level() int {

	// Linear scale (10-40) allows for future intermediate tiers
	switch t {
	case TierSuperAdmin:
		return 40
	case TierAdmin:
		return 30
	case TierMember:
		return 10
	default:
		return 0
	}
}
