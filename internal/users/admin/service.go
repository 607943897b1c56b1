// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"log/slog"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/sec"
	"github.com/taibuivan/sentra/internal/users/auth"
	"github.com/taibuivan/sentra/pkg/pagination"
	"github.com/taibuivan/sentra/pkg/slice"
	"github.com/taibuivan/sentra/pkg/uuidv7"
)

// Service orchestrates administrative account management.
//
// Every mutating operation takes the acting administrator's ID explicitly
// and re-resolves the actor at call time, so privilege checks always run
// against the current database state rather than a stale token claim.
type Service struct {
	userRepository auth.UserRepository
	store          Store
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(userRepo auth.UserRepository, store Store, logger *slog.Logger) *Service {
	return &Service{
		userRepository: userRepo,
		store:          store,
		logger:         logger,
	}
}

// resolveActor loads the acting administrator. A missing or deleted actor
// means the credential outlived the account.
func (service *Service) resolveActor(context context.Context, actorID int64) (*auth.User, error) {
	actor, err := service.userRepository.FindByID(context, actorID)
	if err != nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return actor, nil
}

// # Browse

/*
Browse returns one page of accounts matching the filter.

Description: Unknown sort columns fall back to the display-name default and
an unknown deletion selector behaves as the live-only default, so arbitrary
query input degrades instead of erroring.

Parameters:
  - context: context.Context
  - filter: Filter
  - sort: Sort
  - params: pagination.Params

Returns:
  - []auth.AdminProfile: The administrative projection of each account
  - pagination.Meta: Page envelope metadata
  - error: Persistence failures
*/
func (service *Service) Browse(context context.Context, filter Filter, sort Sort, params pagination.Params) ([]auth.AdminProfile, pagination.Meta, error) {
	if !filter.Deleted.Valid() {
		filter.Deleted = DeletedExclude
	}

	users, total, err := service.store.Page(context, filter, sort.Normalize(), params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	profiles := make([]auth.AdminProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.AdminView())
	}

	return profiles, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
LabelSearch returns lightweight account projections for selector widgets.

Parameters:
  - context: context.Context
  - query: string
  - limit: int

Returns:
  - []Label: At most [MaxLabelResults] matches
  - error: Persistence failures
*/
func (service *Service) LabelSearch(context context.Context, query string, limit int) ([]Label, error) {
	if limit <= 0 || limit > MaxLabelResults {
		limit = MaxLabelResults
	}
	return service.store.LabelSearch(context, query, limit)
}

// # Mutations

/*
Add creates an account on behalf of an administrator.

Description: The account starts active by default. The Active and
SuperAdmin requests are applied only when the actor passes the
corresponding policy check; a denied request is skipped silently, mirroring
the edit path. Role assignments follow the same rule.

Parameters:
  - context: context.Context
  - actorID: int64
  - input: AddInput

Returns:
  - *auth.User: The created account
  - []Event: user.created
  - error: Validation or persistence failures
*/
func (service *Service) Add(context context.Context, actorID int64, input AddInput) (*auth.User, []Event, error) {
	actor, err := service.resolveActor(context, actorID)
	if err != nil {
		return nil, nil, err
	}

	// 1. Uniqueness pre-checks for friendly field-level failures. The
	// store constraint remains the authority under concurrency.
	if _, err := service.userRepository.FindByEmail(context, input.Email); err == nil {
		return nil, nil, apperr.ValidationError("Validation failed",
			apperr.FieldError{Field: auth.FieldEmail, Message: "is already registered"},
		)
	}
	if _, err := service.userRepository.FindByUsername(context, input.Username); err == nil {
		return nil, nil, apperr.ValidationError("Validation failed",
			apperr.FieldError{Field: auth.FieldUsername, Message: "is already taken"},
		)
	}

	// 2. Hash the credential
	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = auth.DefaultTimezone
	}

	user := &auth.User{
		UUID:         uuidv7.New(),
		Username:     input.Username,
		DisplayName:  input.DisplayName,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Active:       true,
		Timezone:     timezone,
		Settings:     map[string]any{},
	}

	// 3. Policy-gated privilege requests; denied requests are skipped
	if input.Active != nil && auth.CanSetActive(actor, user) {
		user.Active = *input.Active
	}
	if input.SuperAdmin != nil && auth.CanSetSuperAdmin(actor) {
		user.SuperAdmin = *input.SuperAdmin
	}

	// 4. Persist
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, nil, err
	}

	// 5. Role assignments
	if len(input.Roles) > 0 && auth.CanSyncRoles(actor) {
		roles := slice.Unique(input.Roles)
		if err := service.store.SyncRoles(context, user.ID, roles); err != nil {
			return nil, nil, err
		}
		user.Roles = roles
	}

	service.logger.Info("admin_user_created",
		slog.Int64("actor_id", actor.ID),
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, []Event{newEvent(EventUserCreated, user.ID)}, nil
}

/*
Edit applies a partial administrative update to an account.

Description: Fillable fields apply unconditionally. The privileged fields
run through the protection policy evaluated against the actor at call
time: a denied Active or SuperAdmin request leaves the field unchanged
without an error, and no actor can change either flag on their own
account. A non-empty NewPassword replaces the credential and rotates the
remember token.

Parameters:
  - context: context.Context
  - actorID: int64
  - targetID: int64
  - input: EditInput

Returns:
  - *auth.User: The updated account
  - []Event: user.updated
  - error: apperr.NotFound, validation, or persistence failures
*/
func (service *Service) Edit(context context.Context, actorID, targetID int64, input EditInput) (*auth.User, []Event, error) {
	actor, err := service.resolveActor(context, actorID)
	if err != nil {
		return nil, nil, err
	}

	target, err := service.store.FindAny(context, targetID)
	if err != nil {
		return nil, nil, err
	}

	// 1. Fillable fields
	if input.Username != nil {
		target.Username = *input.Username
	}
	if input.DisplayName != nil {
		target.DisplayName = *input.DisplayName
	}
	if input.Email != nil {
		target.Email = *input.Email
	}
	if input.Timezone != nil {
		target.Timezone = *input.Timezone
	}

	// 2. Privileged fields, silently skipped when the policy denies them
	if input.Active != nil && auth.CanSetActive(actor, target) {
		target.Active = *input.Active
	}
	if input.SuperAdmin != nil && actor.ID != target.ID && auth.CanSetSuperAdmin(actor) {
		target.SuperAdmin = *input.SuperAdmin
	}

	// 3. Persist the profile
	if err := service.userRepository.Update(context, target); err != nil {
		return nil, nil, err
	}

	// 4. Credential replacement
	if input.NewPassword != "" {
		newHash, err := sec.HashPassword(input.NewPassword)
		if err != nil {
			return nil, nil, apperr.Internal(err)
		}
		rememberToken, err := sec.GenerateSecureToken(auth.RememberTokenLength)
		if err != nil {
			return nil, nil, apperr.Internal(err)
		}
		if err := service.userRepository.UpdatePassword(context, target.ID, newHash, rememberToken); err != nil {
			return nil, nil, err
		}
	}

	// 5. Role assignments
	if input.Roles != nil && auth.CanSyncRoles(actor) {
		roles := slice.Unique(input.Roles)
		if err := service.store.SyncRoles(context, target.ID, roles); err != nil {
			return nil, nil, err
		}
		target.Roles = roles
	}

	service.logger.Info("admin_user_updated",
		slog.Int64("actor_id", actor.ID),
		slog.Int64("user_id", target.ID),
	)

	return target, []Event{newEvent(EventUserUpdated, target.ID)}, nil
}

/*
Delete removes an account, softly by default.

Description: The protection policy is consulted first: the master account
and super-admin accounts are never deletable and a non-admin actor cannot
delete at all. A live account is soft-deleted; an already soft-deleted
account, or any account when force is set, is removed irreversibly.

Parameters:
  - context: context.Context
  - actorID: int64
  - targetID: int64
  - force: bool

Returns:
  - []Event: user.deleted, only when a removal actually occurred
  - error: apperr.Forbidden for protected accounts, apperr.NotFound,
    or persistence failures
*/
func (service *Service) Delete(context context.Context, actorID, targetID int64, force bool) ([]Event, error) {
	actor, err := service.resolveActor(context, actorID)
	if err != nil {
		return nil, err
	}

	target, err := service.store.FindAny(context, targetID)
	if err != nil {
		return nil, err
	}

	if !auth.CanDelete(actor, target) {
		return nil, apperr.Forbidden("This account cannot be deleted")
	}

	if target.IsDeleted() || force {
		err = service.store.HardDelete(context, target.ID)
	} else {
		err = service.store.SoftDelete(context, target.ID)
	}
	if err != nil {
		return nil, err
	}

	service.logger.Info("admin_user_deleted",
		slog.Int64("actor_id", actor.ID),
		slog.Int64("user_id", target.ID),
		slog.Bool("permanent", target.IsDeleted() || force),
	)

	return []Event{newEvent(EventUserDeleted, target.ID)}, nil
}

/*
Restore brings a soft-deleted account back.

Parameters:
  - context: context.Context
  - actorID: int64
  - targetID: int64

Returns:
  - *auth.User: The restored account
  - []Event: user.restored
  - error: apperr.NotFound when the account is missing or not trashed
*/
func (service *Service) Restore(context context.Context, actorID, targetID int64) (*auth.User, []Event, error) {
	actor, err := service.resolveActor(context, actorID)
	if err != nil {
		return nil, nil, err
	}

	if err := service.store.Restore(context, targetID); err != nil {
		return nil, nil, err
	}

	target, err := service.store.FindAny(context, targetID)
	if err != nil {
		return nil, nil, err
	}

	service.logger.Info("admin_user_restored",
		slog.Int64("actor_id", actor.ID),
		slog.Int64("user_id", target.ID),
	)

	return target, []Event{newEvent(EventUserRestored, target.ID)}, nil
}

/*
SyncRoles replaces an account's role assignments.

Parameters:
  - context: context.Context
  - actorID: int64
  - targetID: int64
  - roles: []string

Returns:
  - []Event: user.updated
  - error: apperr.Forbidden when the actor lacks the role-sync privilege
*/
func (service *Service) SyncRoles(context context.Context, actorID, targetID int64, roles []string) ([]Event, error) {
	actor, err := service.resolveActor(context, actorID)
	if err != nil {
		return nil, err
	}
	if !auth.CanSyncRoles(actor) {
		return nil, apperr.Forbidden("Role assignment requires administrator privileges")
	}

	if _, err := service.store.FindAny(context, targetID); err != nil {
		return nil, err
	}

	roles = slice.Unique(roles)
	if err := service.store.SyncRoles(context, targetID, roles); err != nil {
		return nil, err
	}

	service.logger.Info("admin_user_roles_synced",
		slog.Int64("actor_id", actor.ID),
		slog.Int64("user_id", targetID),
		slog.Int("role_count", len(roles)),
	)

	return []Event{newEvent(EventUserUpdated, targetID)}, nil
}

/*
SyncSettings replaces an account's settings document.

Parameters:
  - context: context.Context
  - actorID: int64
  - targetID: int64
  - settings: map[string]any

Returns:
  - []Event: user.updated
  - error: apperr.Forbidden for non-admin actors, apperr.NotFound,
    or persistence failures
*/
func (service *Service) SyncSettings(context context.Context, actorID, targetID int64, settings map[string]any) ([]Event, error) {
	actor, err := service.resolveActor(context, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Settings management requires administrator privileges")
	}

	if settings == nil {
		settings = map[string]any{}
	}
	if err := service.store.SaveSettings(context, targetID, settings); err != nil {
		return nil, err
	}

	service.logger.Info("admin_user_settings_synced",
		slog.Int64("actor_id", actor.ID),
		slog.Int64("user_id", targetID),
	)

	return []Event{newEvent(EventUserUpdated, targetID)}, nil
}
