// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sentra/internal/platform/ctxutil"
	"github.com/taibuivan/sentra/internal/platform/middleware"
	requestutil "github.com/taibuivan/sentra/internal/platform/request"
	"github.com/taibuivan/sentra/internal/platform/respond"
	"github.com/taibuivan/sentra/internal/platform/sec"
	"github.com/taibuivan/sentra/internal/platform/validate"
	"github.com/taibuivan/sentra/internal/users/auth"
	"github.com/taibuivan/sentra/pkg/convert"
	"github.com/taibuivan/sentra/pkg/pagination"
	"github.com/taibuivan/sentra/pkg/query"
)

// Handler implements the administrative user management endpoints.
type Handler struct {
	adminService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{adminService: service}
}

// Routes returns a [chi.Router] for the /system/users surface.
//
// The label search is available to any authenticated user; everything
// else requires at least admin tier.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/list", handler.labelSearch)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireRole(sec.TierAdmin))

		r.Get("/", handler.browse)
		r.Post("/add", handler.add)
		r.Post("/{id}/edit", handler.edit)
		r.Post("/{id}/delete", handler.delete)
		r.Post("/{id}/restore", handler.restore)
		r.Post("/{id}/roles", handler.syncRoles)
		r.Post("/{id}/settings", handler.syncSettings)
	})

	return router
}

// # Request Payloads

type addRequest struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Timezone    string   `json:"timezone"`
	Active      *bool    `json:"active"`
	SuperAdmin  *bool    `json:"super_admin"`
	Roles       []string `json:"roles"`
}

type editRequest struct {
	Username    *string  `json:"username"`
	DisplayName *string  `json:"display_name"`
	Email       *string  `json:"email"`
	Timezone    *string  `json:"timezone"`
	Active      *bool    `json:"active"`
	SuperAdmin  *bool    `json:"super_admin"`
	Roles       []string `json:"roles"`
	NewPassword string   `json:"new_password"`
}

type syncRolesRequest struct {
	Roles []string `json:"roles"`
}

type syncSettingsRequest struct {
	Settings map[string]any `json:"settings"`
}

/*
Browse lists accounts with filtering, sorting, and paging.

GET /api/v1/system/users

Query:
  - search: substring over username/display_name/email
  - deleted: undeleted (default) | deleted | all
  - ids: CSV of primary keys
  - sort: username | display_name (fallback display_name)
  - desc: descending order when truthy
  - page, limit: pagination (limit capped)

Response:
  - 200: Paginated AdminProfile list
  - 403: ErrForbidden: Admin tier required
*/
func (handler *Handler) browse(writer http.ResponseWriter, request *http.Request) {
	filter := Filter{
		Search:  request.URL.Query().Get("search"),
		Deleted: DeletedFilter(request.URL.Query().Get("deleted")),
		IDs:     query.IntSlice(request, "ids"),
	}

	sort := Sort{
		Column:     request.URL.Query().Get("sort"),
		Descending: convert.ParseBool(request.URL.Query().Get("desc"), false),
	}

	profiles, meta, err := handler.adminService.Browse(
		request.Context(), filter, sort, pagination.FromRequest(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, profiles, meta)
}

/*
LabelSearch returns id/username/display_name projections for selectors.

GET /api/v1/system/users/list

Query:
  - search: substring over username/display_name
  - limit: result cap (defaults and clamps to MaxLabelResults)

Response:
  - 200: []Label
*/
func (handler *Handler) labelSearch(writer http.ResponseWriter, request *http.Request) {
	limit := 0
	if raw := request.URL.Query().Get("limit"); raw != "" {
		if parsed, ok := convert.ParseInt64(raw); ok {
			limit = int(parsed)
		}
	}

	labels, err := handler.adminService.LabelSearch(
		request.Context(), request.URL.Query().Get("search"), limit,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, labels)
}

/*
Add creates an account on behalf of an administrator.

POST /api/v1/system/users/add

Request:
  - Body: addRequest

Response:
  - 201: AdminProfile: Created account
  - 422: ValidationError: Bad input or identity taken
*/
func (handler *Handler) add(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input addRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(auth.FieldUsername, input.Username).
		MinLen(auth.FieldUsername, input.Username, 3).
		MaxLen(auth.FieldUsername, input.Username, auth.MaxUsernameLength).
		Username(auth.FieldUsername, input.Username).
		Required(auth.FieldEmail, input.Email).
		Email(auth.FieldEmail, input.Email).
		Required(auth.FieldPassword, input.Password).
		MinLen(auth.FieldPassword, input.Password, auth.MinPasswordLength)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, events, err := handler.adminService.Add(request.Context(), actorID, AddInput{
		Username:    input.Username,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Password:    input.Password,
		Timezone:    input.Timezone,
		Active:      input.Active,
		SuperAdmin:  input.SuperAdmin,
		Roles:       input.Roles,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logEvents(request, events)
	respond.Created(writer, user.AdminView())
}

/*
Edit applies a partial administrative update to an account.

POST /api/v1/system/users/{id}/edit

Request:
  - Body: editRequest

Response:
  - 200: AdminProfile: Updated account
  - 404: ErrNotFound: No such account
  - 422: ValidationError: Bad input or identity taken
*/
func (handler *Handler) edit(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input editRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.Username != nil {
		v.Required(auth.FieldUsername, *input.Username).
			MinLen(auth.FieldUsername, *input.Username, 3).
			MaxLen(auth.FieldUsername, *input.Username, auth.MaxUsernameLength).
			Username(auth.FieldUsername, *input.Username)
	}
	if input.Email != nil {
		v.Required(auth.FieldEmail, *input.Email).Email(auth.FieldEmail, *input.Email)
	}
	if input.NewPassword != "" {
		v.MinLen(auth.FieldNewPassword, input.NewPassword, auth.MinPasswordLength)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, events, err := handler.adminService.Edit(request.Context(), actorID, targetID, EditInput{
		Username:    input.Username,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Timezone:    input.Timezone,
		Active:      input.Active,
		SuperAdmin:  input.SuperAdmin,
		Roles:       input.Roles,
		NewPassword: input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logEvents(request, events)
	respond.OK(writer, user.AdminView())
}

/*
Delete removes an account, softly by default.

POST /api/v1/system/users/{id}/delete

Query:
  - force: hard-delete a live account when truthy

Response:
  - 204: No Content: Account removed
  - 403: ErrForbidden: Protected account
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	force := convert.ParseBool(request.URL.Query().Get("force"), false)

	events, err := handler.adminService.Delete(request.Context(), actorID, targetID, force)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logEvents(request, events)
	respond.NoContent(writer)
}

/*
Restore brings a soft-deleted account back.

POST /api/v1/system/users/{id}/restore

Response:
  - 200: AdminProfile: Restored account
  - 404: ErrNotFound: Account missing or not deleted
*/
func (handler *Handler) restore(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, events, err := handler.adminService.Restore(request.Context(), actorID, targetID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logEvents(request, events)
	respond.OK(writer, user.AdminView())
}

/*
SyncRoles replaces an account's role assignments.

POST /api/v1/system/users/{id}/roles

Request:
  - Body: syncRolesRequest

Response:
  - 204: No Content: Assignments replaced
  - 403: ErrForbidden: Admin tier required
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) syncRoles(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input syncRolesRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	events, err := handler.adminService.SyncRoles(request.Context(), actorID, targetID, input.Roles)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logEvents(request, events)
	respond.NoContent(writer)
}

/*
SyncSettings replaces an account's settings document.

POST /api/v1/system/users/{id}/settings

Request:
  - Body: syncSettingsRequest

Response:
  - 204: No Content: Settings replaced
  - 404: ErrNotFound: No such account
*/
func (handler *Handler) syncSettings(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.IntParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input syncSettingsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	events, err := handler.adminService.SyncSettings(request.Context(), actorID, targetID, input.Settings)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	logEvents(request, events)
	respond.NoContent(writer)
}

// logEvents records the domain events emitted by a mutation on the
// request-scoped logger.
func logEvents(request *http.Request, events []Event) {
	logger := ctxutil.GetLogger(request.Context())
	for _, event := range events {
		logger.Info("domain_event",
			slog.String("event", event.Name),
			slog.Int64("user_id", event.UserID),
		)
	}
}
