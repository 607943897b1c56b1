// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth provides the HTTP delivery layer for the authentication lifecycle.

It implements the gateway for account creation, login/logout on both guard
variants, password recovery, and self-service profile management.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Orchestrates bearer tokens and the stateful session cookie.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sentra/internal/platform/constants"
	"github.com/taibuivan/sentra/internal/platform/middleware"
	requestutil "github.com/taibuivan/sentra/internal/platform/request"
	"github.com/taibuivan/sentra/internal/platform/respond"
	"github.com/taibuivan/sentra/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates against one of the two guards.
//   - POST /logout   : Idempotent unbind of the current credential.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/change-password", handler.changePassword)
		r.Get("/user", handler.profile)
		r.Post("/edit", handler.editProfile)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Timezone    string `json:"timezone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Guard    string `json:"guard"`
}

type logoutRequest struct {
	Guard string `json:"guard"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type editProfileRequest struct {
	Username        *string `json:"username"`
	DisplayName     *string `json:"display_name"`
	Email           *string `json:"email"`
	Timezone        *string `json:"timezone"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input and persists a new, active user profile. The
public path never grants super_admin.

Request:
  - Body: registerRequest (Username, DisplayName, Email, Password, Timezone)

Response:
  - 201: PublicProfile: Created account
  - 422: ValidationError: Bad input or identity already taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, MaxUsernameLength).
		Username(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:    input.Username,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Password:    input.Password,
		Timezone:    input.Timezone,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user.Public())
}

/*
Login authenticates a user against the selected guard.

POST /api/v1/auth/login

Description: Verifies credentials and either mints a bearer token (token
guard, default) or establishes a server-side session and sets the session
cookie (session guard).

Request:
  - Body: loginRequest (Email, Password, Guard)

Response:
  - 200: Credential payload and public profile
  - 401: ErrUnauthorized: Invalid credentials
  - 403: ErrForbidden: Account inactive
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if input.Guard != "" {
		validator.OneOf(FieldGuard, input.Guard, string(GuardToken), string(GuardSession))
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		Guard:     GuardKind(input.Guard),
		SessionID: sessionCookieValue(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if result.SessionID != "" {
		http.SetCookie(writer, &http.Cookie{
			Name:     constants.SessionCookieName,
			Value:    result.SessionID,
			Path:     constants.SessionCookiePath,
			Expires:  result.ExpiresAt,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})

		respond.OK(writer, map[string]any{
			FieldUser: result.User,
		})
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken: result.Token,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int64(time.Until(result.ExpiresAt) / time.Second),
		FieldUser:        result.User,
	})
}

/*
Logout terminates the current credential.

POST /api/v1/auth/logout

Description: Revokes the bearer token or invalidates the session, clears
the session cookie, and always succeeds, even for anonymous callers.

Response:
  - 204: No Content: Credential terminated (or nothing to terminate)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input logoutRequest
	_ = requestutil.DecodeJSON(request, &input)

	guardKind := GuardKind(input.Guard)
	sessionID := sessionCookieValue(request)
	if !guardKind.Valid() && sessionID != "" {
		guardKind = GuardSession
	}

	var userID int64
	if claims := requestutil.Claims(request); claims != nil {
		userID = claims.UserID
	}

	_ = handler.authService.Logout(request.Context(), LogoutInput{
		UserID:    userID,
		Guard:     guardKind,
		SessionID: sessionID,
	})

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Creates a short-lived reset token for the account and
dispatches the recovery notification.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Recovery instructions dispatched
  - 404: ErrNotFound: No account with this address
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.authService.ForgotPassword(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Check your email for password reset instructions.",
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Description: Validates the reset token against the address and applies the
new password.

Request:
  - Body: resetPasswordRequest (Token, Email, Password)

Response:
  - 200: Success: Password updated
  - 404: ErrNotFound: Token invalid, expired, or mismatched
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ResetPassword(request.Context(), ResetPasswordInput{
		Token:    input.Token,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/auth/change-password

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: ErrUnauthorized: Current password incorrect
  - 422: ValidationError: Weak password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		claims.UserID,
		input.CurrentPassword,
		input.NewPassword,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

/*
Profile returns the authenticated user's own account.

GET /api/v1/auth/user

Response:
  - 200: PublicProfile: The account owner's view
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Public())
}

/*
EditProfile applies a self-service update to the authenticated account.

POST /api/v1/auth/edit

Description: Only the owner's fillable fields are writable here; privilege
flags are not part of this surface. A password change requires the correct
current password.

Request:
  - Body: editProfileRequest

Response:
  - 200: PublicProfile: The updated account
  - 401: ErrUnauthorized: Current password incorrect
  - 422: ValidationError: Bad input or identity taken
*/
func (handler *Handler) editProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input editProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.Username != nil {
		v.Required(FieldUsername, *input.Username).
			MinLen(FieldUsername, *input.Username, 3).
			MaxLen(FieldUsername, *input.Username, MaxUsernameLength).
			Username(FieldUsername, *input.Username)
	}
	if input.Email != nil {
		v.Required(FieldEmail, *input.Email).Email(FieldEmail, *input.Email)
	}
	if input.NewPassword != "" {
		v.Required(FieldCurrentPassword, input.CurrentPassword).
			MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.EditProfile(request.Context(), userID, EditProfileInput{
		Username:        input.Username,
		DisplayName:     input.DisplayName,
		Email:           input.Email,
		Timezone:        input.Timezone,
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Public())
}

// sessionCookieValue extracts the stateful session cookie, if present.
func sessionCookieValue(request *http.Request) string {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
