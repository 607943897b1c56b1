// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	pgstore "github.com/taibuivan/sentra/internal/platform/postgres"
	"github.com/taibuivan/sentra/internal/platform/sec"
	"github.com/taibuivan/sentra/internal/platform/validate"
	"github.com/taibuivan/sentra/internal/users/auth"
	"github.com/taibuivan/sentra/pkg/slug"
)

// Default timeout for register command.
const defaultRegisterTimeout = 30 * time.Second

// registerConfig holds the flag values for the register command.
type registerConfig struct {
	username    string
	displayName string
	email       string
	timezone    string
	superAdmin  bool
	timeout     time.Duration
}

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// NewRegisterCmd creates the register subcommand.
func NewRegisterCmd() *cobra.Command {
	cfg := &registerConfig{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account directly in the database",
		Long: `Creates an account, prompting interactively for anything not given
as a flag. The password is read without echo; leaving it empty generates
a one-time password that is printed exactly once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "unique login name")
	cmd.Flags().StringVar(&cfg.displayName, "display-name", "", "human-readable name (defaults to the username)")
	cmd.Flags().StringVar(&cfg.email, "email", "", "unique email address")
	cmd.Flags().StringVar(&cfg.timezone, "timezone", auth.DefaultTimezone, "IANA timezone identifier")
	cmd.Flags().BoolVar(&cfg.superAdmin, "super", false, "grant the super_admin flag")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultRegisterTimeout, "timeout for database operations")

	return cmd
}

func runRegister(cmd *cobra.Command, cfg *registerConfig) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	// 1. Collect the identity fields not provided as flags
	if cfg.email == "" {
		value, err := promptLine(cmd, reader, "Email")
		if err != nil {
			return err
		}
		cfg.email = value
	}
	if cfg.username == "" {
		value, err := promptLine(cmd, reader, "Username (empty to derive from email)")
		if err != nil {
			return err
		}
		cfg.username = value
	}
	if cfg.username == "" {
		local, _, _ := strings.Cut(cfg.email, "@")
		cfg.username = slug.Username(local)
	}
	if cfg.displayName == "" {
		cfg.displayName = cfg.username
	}

	v := &validate.Validator{}
	v.Required(auth.FieldUsername, cfg.username).
		MinLen(auth.FieldUsername, cfg.username, 3).
		MaxLen(auth.FieldUsername, cfg.username, auth.MaxUsernameLength).
		Username(auth.FieldUsername, cfg.username).
		Required(auth.FieldEmail, cfg.email).
		Email(auth.FieldEmail, cfg.email)
	if err := v.Err(); err != nil {
		return err
	}

	// 2. Read the password without echo; empty means auto-generate
	password, generated, err := promptPassword(cmd)
	if err != nil {
		return err
	}
	if !generated && len(password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	// 3. Connect and register
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	pool, err := pgstore.NewPool(ctx, databaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	userRepository := auth.NewUserRepository(pool)

	// Only the repository side of the service is exercised by Register;
	// the session, reset-token, and token-issuer collaborators stay nil.
	authService := auth.NewService(userRepository, nil, nil, nil, auth.NewLogNotifier(logger), logger)

	user, err := authService.Register(ctx, auth.RegisterInput{
		Username:    cfg.username,
		DisplayName: cfg.displayName,
		Email:       cfg.email,
		Password:    password,
		Timezone:    cfg.timezone,
		SuperAdmin:  cfg.superAdmin,
	})
	if err != nil {
		return err
	}

	// 4. Print the created record; the plaintext password appears exactly
	// once and is not recoverable afterwards
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "ID\t%d\n", user.ID)
	fmt.Fprintf(writer, "UUID\t%s\n", user.UUID)
	fmt.Fprintf(writer, "Username\t%s\n", user.Username)
	fmt.Fprintf(writer, "Display name\t%s\n", user.DisplayName)
	fmt.Fprintf(writer, "Email\t%s\n", user.Email)
	fmt.Fprintf(writer, "Timezone\t%s\n", user.Timezone)
	fmt.Fprintf(writer, "Super admin\t%t\n", user.SuperAdmin)
	if generated {
		fmt.Fprintf(writer, "Password\t%s\n", password)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if generated {
		cmd.Println("\nThe generated password is shown once. Store it now.")
	}
	return nil
}

// promptLine reads one trimmed line of input for the named field.
func promptLine(cmd *cobra.Command, reader *bufio.Reader, label string) (string, error) {
	cmd.Printf("%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads the password twice without echo. An empty first
// entry falls back to a generated one-time password.
func promptPassword(cmd *cobra.Command) (password string, generated bool, err error) {
	cmd.Print("Password (empty to auto-generate): ")
	first, err := readPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", false, fmt.Errorf("read password: %w", err)
	}

	if len(first) == 0 {
		oneTime, err := sec.GenerateOneTimePassword()
		if err != nil {
			return "", false, fmt.Errorf("generate password: %w", err)
		}
		return oneTime, true, nil
	}

	cmd.Print("Confirm password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", false, fmt.Errorf("read password confirmation: %w", err)
	}

	if string(first) != string(second) {
		return "", false, fmt.Errorf("passwords do not match")
	}
	return string(first), false, nil
}
