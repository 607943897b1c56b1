// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Sentra API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/constants"
	"github.com/taibuivan/sentra/internal/platform/ctxkey"
	"github.com/taibuivan/sentra/internal/platform/respond"
	"github.com/taibuivan/sentra/internal/platform/sec"
)

// IdentityResolver defines the interface needed to authenticate requests.
//
// # Why an interface?
//
// Defining IdentityResolver here decouples the middleware from the `auth`
// service implementation, allowing us to easily inject mocks during unit
// testing. Two credential channels are supported: a bearer token in the
// Authorization header and a stateful session cookie.
type IdentityResolver interface {
	ResolveBearer(ctx context.Context, token string) (*sec.AuthClaims, error)
	ResolveSession(ctx context.Context, sessionID string) (*sec.AuthClaims, error)
}

// Authenticate resolves the request's credentials into an identity.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header; verify it if present.
//  2. Otherwise check for the session cookie; look it up if present.
//  3. If neither credential is present, the request proceeds as anonymous.
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// A malformed Authorization header or an invalid credential aborts with 401;
// only the complete absence of credentials falls through as anonymous.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Bearer Token ───────────────────────────────────────────────
			if authHeader := request.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
					respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
					return
				}

				claims, err := resolver.ResolveBearer(request.Context(), parts[1])
				if err != nil {
					respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
					return
				}

				ctx := context.WithValue(request.Context(), ctxkey.KeyUser, claims)
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			// ── 2. Session Cookie ─────────────────────────────────────────────
			if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
				claims, err := resolver.ResolveSession(request.Context(), cookie.Value)
				if err != nil {
					respond.Error(writer, request, apperr.Unauthorized("Invalid or expired session"))
					return
				}

				ctx := context.WithValue(request.Context(), ctxkey.KeyUser, claims)
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			// ── 3. Anonymous Access ───────────────────────────────────────────
			next.ServeHTTP(writer, request)
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := GetUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically implies
// [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context (implies AuthN).
//  2. Check if the user's tier meets or exceeds the required target tier using [sec.RoleTier.AtLeast].
//  3. If insufficient, abort with HTTP 403 Forbidden.
func RequireRole(tier sec.RoleTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			userTier := sec.RoleTier(claims.Role)
			if !userTier.AtLeast(tier) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// GetUser retrieves the [*sec.AuthClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.AuthClaims] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}
