// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

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
	"github.com/taibuivan/sentra/internal/platform/constants"
	"github.com/taibuivan/sentra/internal/platform/sec"
	"github.com/taibuivan/sentra/internal/users/auth"
	"github.com/taibuivan/sentra/pkg/pointer"
)

// # In-Memory Fakes

type fakeUserRepository struct {
	nextID int64
	users  map[int64]*auth.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{nextID: 1, users: map[int64]*auth.User{}}
}

func (repo *fakeUserRepository) FindByID(_ context.Context, id int64) (*auth.User, error) {
	user, ok := repo.users[id]
	if !ok || user.DeletedAt != nil {
		return nil, apperr.NotFound("User")
	}
	return user, nil
}

func (repo *fakeUserRepository) FindByUUID(_ context.Context, uuid string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.UUID == uuid && user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range repo.users {
		if strings.EqualFold(user.Email, email) && user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Username == username && user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	user.ID = repo.nextID
	repo.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeUserRepository) Update(_ context.Context, user *auth.User) error {
	user.UpdatedAt = time.Now()
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeUserRepository) UpdatePassword(_ context.Context, userID int64, newHash, rememberToken string) error {
	user := repo.users[userID]
	user.PasswordHash = newHash
	user.RememberToken = rememberToken
	return nil
}

func (repo *fakeUserRepository) SetLoginState(_ context.Context, userID int64, loggedIn bool, lastLoginAt *time.Time) error {
	user := repo.users[userID]
	user.LoggedIn = loggedIn
	if lastLoginAt != nil {
		user.LastLoginAt = lastLoginAt
	}
	return nil
}

func (repo *fakeUserRepository) SetAPIToken(_ context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error {
	user := repo.users[userID]
	user.APITokenHash = tokenHash
	user.APITokenExpiresAt = expiresAt
	return nil
}

func (repo *fakeUserRepository) FindByAPITokenHash(_ context.Context, tokenHash string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.APITokenHash != nil && *user.APITokenHash == tokenHash &&
			user.APITokenExpiresAt != nil && user.APITokenExpiresAt.After(time.Now()) &&
			user.DeletedAt == nil {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

type fakeSessionStore struct {
	sessions map[string]int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]int64{}}
}

func (store *fakeSessionStore) Put(_ context.Context, sessionID string, userID int64, _ time.Duration) error {
	store.sessions[sessionID] = userID
	return nil
}

func (store *fakeSessionStore) Get(_ context.Context, sessionID string) (int64, error) {
	userID, ok := store.sessions[sessionID]
	if !ok {
		return 0, apperr.NotFound("Session")
	}
	return userID, nil
}

func (store *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	delete(store.sessions, sessionID)
	return nil
}

type fakeResetTokens struct {
	tokens map[string]int64
}

func newFakeResetTokens() *fakeResetTokens {
	return &fakeResetTokens{tokens: map[string]int64{}}
}

func (repo *fakeResetTokens) Set(_ context.Context, token string, userID int64, _ time.Duration) error {
	repo.tokens[token] = userID
	return nil
}

func (repo *fakeResetTokens) Get(_ context.Context, token string) (int64, error) {
	userID, ok := repo.tokens[token]
	if !ok {
		return 0, apperr.NotFound("Reset token")
	}
	return userID, nil
}

func (repo *fakeResetTokens) Delete(_ context.Context, token string) error {
	delete(repo.tokens, token)
	return nil
}

// # Test Harness

type testHarness struct {
	service  *auth.Service
	users    *fakeUserRepository
	sessions *fakeSessionStore
	resets   *fakeResetTokens
	issuer   *auth.TokenIssuer
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	tokens, err := sec.NewTokenService(strings.Repeat("s", 32), constants.AuthIssuer)
	require.NoError(t, err)

	users := newFakeUserRepository()
	sessions := newFakeSessionStore()
	resets := newFakeResetTokens()
	issuer := auth.NewTokenIssuer(tokens, users)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := auth.NewService(users, sessions, resets, issuer, auth.NewLogNotifier(logger), logger)

	return &testHarness{
		service:  service,
		users:    users,
		sessions: sessions,
		resets:   resets,
		issuer:   issuer,
	}
}

// register provisions an account through the real registration flow.
func (harness *testHarness) register(t *testing.T, username, email, password string) *auth.User {
	t.Helper()

	user, err := harness.service.Register(context.Background(), auth.RegisterInput{
		Username:    username,
		DisplayName: strings.ToUpper(username[:1]) + username[1:],
		Email:       email,
		Password:    password,
	})
	require.NoError(t, err)
	return user
}

// # Login

/*
TestLogin_UnknownEmail verifies the enumeration-safe failure: an unknown
address yields the same Unauthorized result as a wrong password, never a
NotFound or Forbidden.
*/
func TestLogin_UnknownEmail(t *testing.T) {
	harness := newTestHarness(t)

	_, err := harness.service.Login(context.Background(), auth.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever123",
	})

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "UNAUTHORIZED", appError.Code)
}

/*
TestLogin_WrongPassword verifies that a wrong password produces a result
indistinguishable from an unknown email.
*/
func TestLogin_WrongPassword(t *testing.T) {
	harness := newTestHarness(t)
	harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	_, wrongPassErr := harness.service.Login(context.Background(), auth.LoginInput{
		Email:    "j@x.com",
		Password: "wrong-password",
	})
	_, unknownErr := harness.service.Login(context.Background(), auth.LoginInput{
		Email:    "ghost@x.com",
		Password: "wrong-password",
	})

	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.Equal(t, apperr.As(unknownErr).Code, apperr.As(wrongPassErr).Code)
	assert.Equal(t, apperr.As(unknownErr).Message, apperr.As(wrongPassErr).Message)
}

/*
TestLogin_InactiveAccount verifies that correct credentials on an inactive
account yield a distinct Forbidden result.
*/
func TestLogin_InactiveAccount(t *testing.T) {
	harness := newTestHarness(t)
	user := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	user.Active = false
	require.NoError(t, harness.users.Update(context.Background(), user))

	_, err := harness.service.Login(context.Background(), auth.LoginInput{
		Email:    "j@x.com",
		Password: "Abcd123!",
	})

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

/*
TestLogin_TokenGuard verifies the full bearer-token success path: login
state is persisted, a token is minted, and the token resolves back to the
account through the issuer.
*/
func TestLogin_TokenGuard(t *testing.T) {
	harness := newTestHarness(t)
	user := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	result, err := harness.service.Login(context.Background(), auth.LoginInput{
		Email:    "j@x.com",
		Password: "Abcd123!",
		Guard:    auth.GuardToken,
	})
	require.NoError(t, err)

	// 1. Credential is present and expires in the future
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	// 2. Login state was persisted before returning
	stored := harness.users.users[user.ID]
	assert.True(t, stored.LoggedIn)
	require.NotNil(t, stored.LastLoginAt)

	// 3. Payload carries the public projection only
	assert.Equal(t, user.Username, result.User.Username)
	assert.Equal(t, user.Email, result.User.Email)

	// 4. The minted token validates against the stored hash
	resolved, err := harness.issuer.Validate(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

/*
TestLogin_SessionGuard verifies the stateful path: a session record is
created and the previous session for the same cookie is unbound first.
*/
func TestLogin_SessionGuard(t *testing.T) {
	harness := newTestHarness(t)
	user := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	first, err := harness.service.Login(context.Background(), auth.LoginInput{
		Email:    "j@x.com",
		Password: "Abcd123!",
		Guard:    auth.GuardSession,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)
	assert.Empty(t, first.Token)
	assert.Equal(t, user.ID, harness.sessions.sessions[first.SessionID])

	// A second login carrying the old cookie invalidates the old session
	second, err := harness.service.Login(context.Background(), auth.LoginInput{
		Email:     "j@x.com",
		Password:  "Abcd123!",
		Guard:     auth.GuardSession,
		SessionID: first.SessionID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	_, err = harness.sessions.Get(context.Background(), first.SessionID)
	assert.Error(t, err)
}

// # Logout

/*
TestLogout_Idempotent verifies that logout always succeeds, including a
repeated call, and that the token guard nulls the credential columns.
*/
func TestLogout_Idempotent(t *testing.T) {
	harness := newTestHarness(t)
	user := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	result, err := harness.service.Login(context.Background(), auth.LoginInput{
		Email:    "j@x.com",
		Password: "Abcd123!",
	})
	require.NoError(t, err)

	input := auth.LogoutInput{UserID: user.ID, Guard: auth.GuardToken}

	// 1. First logout revokes the token and clears the logged_in flag
	require.NoError(t, harness.service.Logout(context.Background(), input))
	stored := harness.users.users[user.ID]
	assert.Nil(t, stored.APITokenHash)
	assert.False(t, stored.LoggedIn)

	// 2. The revoked token no longer validates
	_, err = harness.issuer.Validate(context.Background(), result.Token)
	assert.Error(t, err)

	// 3. A second logout is still a success
	require.NoError(t, harness.service.Logout(context.Background(), input))

	// 4. An anonymous logout is a success too
	require.NoError(t, harness.service.Logout(context.Background(), auth.LogoutInput{}))
}

// # Registration

/*
TestRegister_RoundTrip verifies that a registered account is immediately
retrievable by email with matching public fields, forced active, and no
super_admin grant.
*/
func TestRegister_RoundTrip(t *testing.T) {
	harness := newTestHarness(t)

	created := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	found, err := harness.users.FindByEmail(context.Background(), "j@x.com")
	require.NoError(t, err)

	assert.Equal(t, created.Public(), found.Public())
	assert.True(t, found.Active)
	assert.False(t, found.SuperAdmin)
	assert.NotEmpty(t, found.UUID)
	assert.NotEqual(t, "Abcd123!", found.PasswordHash)
}

/*
TestRegister_DuplicateIdentity verifies that taken emails and usernames
surface as 422 validation errors with field details.
*/
func TestRegister_DuplicateIdentity(t *testing.T) {
	harness := newTestHarness(t)
	harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	_, err := harness.service.Register(context.Background(), auth.RegisterInput{
		Username: "someone", Email: "j@x.com", Password: "Abcd123!",
	})
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 422, appError.HTTPStatus)
	require.Len(t, appError.Details, 1)
	assert.Equal(t, auth.FieldEmail, appError.Details[0].Field)

	_, err = harness.service.Register(context.Background(), auth.RegisterInput{
		Username: "jdoe", Email: "other@x.com", Password: "Abcd123!",
	})
	require.Error(t, err)
	require.Len(t, apperr.As(err).Details, 1)
	assert.Equal(t, auth.FieldUsername, apperr.As(err).Details[0].Field)
}

// # Password Recovery

/*
TestPasswordReset_Flow walks the full forgot/reset cycle and verifies the
token is single-use and the bearer credential is revoked.
*/
func TestPasswordReset_Flow(t *testing.T) {
	harness := newTestHarness(t)
	user := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	login, err := harness.service.Login(context.Background(), auth.LoginInput{
		Email: "j@x.com", Password: "Abcd123!",
	})
	require.NoError(t, err)

	// 1. Forgot creates a token bound to the account
	token, err := harness.service.ForgotPassword(context.Background(), "j@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, harness.resets.tokens[token])

	// 2. Reset applies the new password and rotates the remember token
	previousRemember := user.RememberToken
	err = harness.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Token: token, Email: "j@x.com", Password: "NewPass99!",
	})
	require.NoError(t, err)
	assert.NotEqual(t, previousRemember, harness.users.users[user.ID].RememberToken)

	// 3. The old bearer credential is dead
	_, err = harness.issuer.Validate(context.Background(), login.Token)
	assert.Error(t, err)

	// 4. Old password fails, new one succeeds
	_, err = harness.service.Login(context.Background(), auth.LoginInput{
		Email: "j@x.com", Password: "Abcd123!",
	})
	assert.Error(t, err)

	_, err = harness.service.Login(context.Background(), auth.LoginInput{
		Email: "j@x.com", Password: "NewPass99!",
	})
	assert.NoError(t, err)

	// 5. The token is single-use
	err = harness.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Token: token, Email: "j@x.com", Password: "Another11!",
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestPasswordReset_GenericFailures verifies that a mismatched address and an
invalid token collapse into the same generic result.
*/
func TestPasswordReset_GenericFailures(t *testing.T) {
	harness := newTestHarness(t)
	harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	token, err := harness.service.ForgotPassword(context.Background(), "j@x.com")
	require.NoError(t, err)

	mismatch := harness.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Token: token, Email: "other@x.com", Password: "NewPass99!",
	})
	invalid := harness.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Token: "bogus", Email: "j@x.com", Password: "NewPass99!",
	})

	require.Error(t, mismatch)
	require.Error(t, invalid)
	assert.Equal(t, apperr.As(invalid).Code, apperr.As(mismatch).Code)
	assert.Equal(t, apperr.As(invalid).Message, apperr.As(mismatch).Message)
}

/*
TestForgotPassword_UnknownEmail verifies the NotFound result for an
address with no account.
*/
func TestForgotPassword_UnknownEmail(t *testing.T) {
	harness := newTestHarness(t)

	_, err := harness.service.ForgotPassword(context.Background(), "ghost@x.com")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestChangePassword verifies the authenticated rotation path and the
current-password requirement.
*/
func TestChangePassword(t *testing.T) {
	harness := newTestHarness(t)
	user := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	err := harness.service.ChangePassword(context.Background(), user.ID, "wrong", "NewPass99!")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	require.NoError(t, harness.service.ChangePassword(context.Background(), user.ID, "Abcd123!", "NewPass99!"))

	_, err = harness.service.Login(context.Background(), auth.LoginInput{
		Email: "j@x.com", Password: "NewPass99!",
	})
	assert.NoError(t, err)
}

// # Self Profile

/*
TestEditProfile verifies partial self-service updates and the structural
absence of privilege fields on this path.
*/
func TestEditProfile(t *testing.T) {
	harness := newTestHarness(t)
	user := harness.register(t, "jdoe", "j@x.com", "Abcd123!")

	updated, err := harness.service.EditProfile(context.Background(), user.ID, auth.EditProfileInput{
		DisplayName: pointer.To("Jane Doe"),
		Timezone:    pointer.To("Asia/Tokyo"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", updated.DisplayName)
	assert.Equal(t, "Asia/Tokyo", updated.Timezone)
	assert.Equal(t, "jdoe", updated.Username)

	// Privilege state is untouched by self edits
	assert.True(t, updated.Active)
	assert.False(t, updated.SuperAdmin)
}

/*
TestScenario_RegisterLoginDeactivate walks the full documented scenario:
register, correct login, wrong-password rejection, deactivation by an
admin, and the Forbidden login that follows.
*/
func TestScenario_RegisterLoginDeactivate(t *testing.T) {
	harness := newTestHarness(t)
	ctx := context.Background()

	// Register
	user, err := harness.service.Register(ctx, auth.RegisterInput{
		Username: "jdoe", Email: "j@x.com", Password: "Abcd123!",
	})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.False(t, user.SuperAdmin)

	// Login with correct password
	result, err := harness.service.Login(ctx, auth.LoginInput{
		Email: "j@x.com", Password: "Abcd123!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	// Login with wrong password
	_, err = harness.service.Login(ctx, auth.LoginInput{
		Email: "j@x.com", Password: "Abcd123?",
	})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// Admin deactivates the account
	user.Active = false
	require.NoError(t, harness.users.Update(ctx, user))

	// Subsequent login is Forbidden, not Unauthorized
	_, err = harness.service.Login(ctx, auth.LoginInput{
		Email: "j@x.com", Password: "Abcd123!",
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}
