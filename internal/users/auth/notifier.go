// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
)

// LogNotifier implements [Notifier] by writing the recovery token to the
// structured log. It stands in for the mail gateway in environments where
// SMTP is not wired up; the token TTL keeps the exposure window short.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a logger-backed Notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendPasswordReset logs the reset token for the given address.
func (notifier *LogNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	notifier.logger.InfoContext(ctx, "password_reset_requested",
		slog.String("email", email),
		slog.String("token", token),
	)
	return nil
}
