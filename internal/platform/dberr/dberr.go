// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/sentra/internal/platform/apperr"
)

// constraintFields maps known unique-constraint names to the input field a
// client can correct. Constraint names come from data/migrations.
var constraintFields = map[string]string{
	"account_username_key": "username",
	"account_email_key":    "email",
	"account_uuid_key":     "uuid",
}

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Unique-constraint violations surface as field-level validation errors
	// so duplicate usernames/emails look identical to boundary validation.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		field, known := constraintFields[pgErr.ConstraintName]
		if !known {
			field = resource
		}
		return apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   field,
			Message: "Is already taken",
		})
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
