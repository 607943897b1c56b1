// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sentra/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

/*
TestTokenService_RoundTrip verifies that a generated token is verifiable and
carries the embedded claims.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "sentra.test")
	require.NoError(t, err)

	token, expiresAt, err := service.Generate(42, "jdoe", string(sec.TierAdmin), 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, string(sec.TierAdmin), claims.Role)
}

/*
TestTokenService_RejectsForeignSignature ensures tokens signed with a different
secret never verify.
*/
func TestTokenService_RejectsForeignSignature(t *testing.T) {
	signer, err := sec.NewTokenService(testSecret, "sentra.test")
	require.NoError(t, err)
	verifier, err := sec.NewTokenService(strings.Repeat("x", 32), "sentra.test")
	require.NoError(t, err)

	token, _, err := signer.Generate(1, "root", string(sec.TierSuperAdmin), time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

/*
TestTokenService_ShortSecret verifies the constructor rejects weak secrets.
*/
func TestTokenService_ShortSecret(t *testing.T) {
	_, err := sec.NewTokenService("too-short", "sentra.test")
	assert.Error(t, err)
}

/*
TestHashPassword_RoundTrip checks bcrypt hashing and verification.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("Abcd123!")
	require.NoError(t, err)
	assert.NotEqual(t, "Abcd123!", hash)

	assert.True(t, sec.CheckPasswordHash("Abcd123!", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
}

/*
TestGenerateSecureToken verifies token randomness and URL safety.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")

	// Hashing is deterministic and never exposes the input.
	assert.Equal(t, sec.HashToken(first), sec.HashToken(first))
	assert.NotEqual(t, first, sec.HashToken(first))
	assert.Len(t, sec.HashToken(first), 64)
}

/*
TestGenerateOneTimePassword verifies the shape of console-generated passwords:
nine characters containing one '#', one uppercase letter, three lowercase
letters, and four digits, in shuffled order.
*/
func TestGenerateOneTimePassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		password, err := sec.GenerateOneTimePassword()
		require.NoError(t, err)
		assert.Len(t, password, 9)

		var upper, lower, digit, hash int
		for _, r := range password {
			switch {
			case r == '#':
				hash++
			case unicode.IsUpper(r):
				upper++
			case unicode.IsLower(r):
				lower++
			case unicode.IsDigit(r):
				digit++
			}
		}

		assert.Equal(t, 1, hash)
		assert.Equal(t, 1, upper)
		assert.Equal(t, 3, lower)
		assert.Equal(t, 4, digit)
	}
}

/*
TestRoleTier_AtLeast exercises the tier hierarchy comparisons.
*/
func TestRoleTier_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		tier     sec.RoleTier
		target   sec.RoleTier
		expected bool
	}{
		{"super_covers_admin", sec.TierSuperAdmin, sec.TierAdmin, true},
		{"admin_covers_member", sec.TierAdmin, sec.TierMember, true},
		{"member_not_admin", sec.TierMember, sec.TierAdmin, false},
		{"admin_not_super", sec.TierAdmin, sec.TierSuperAdmin, false},
		{"same_tier", sec.TierAdmin, sec.TierAdmin, true},
		{"unknown_below_member", sec.RoleTier("ghost"), sec.TierMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.tier.AtLeast(tt.target))
		})
	}
}
