// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/sentra/internal/platform/apperr"
	"github.com/taibuivan/sentra/internal/platform/constants"
)

// # Session Store

// RedisSessionStore implements [SessionStore] using Redis.
//
// Sessions are plain key→value pairs (`auth:session:<id>` → user id) with a
// TTL, so expiry is enforced by Redis itself and no sweeper is needed.
type RedisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

/*
Put binds a session identifier to a user ID with a TTL.

Parameters:
  - context: context.Context
  - sessionID: string
  - userID: int64
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisSessionStore) Put(context context.Context, sessionID string, userID int64, ttl time.Duration) error {
	key := constants.RedisPrefixSession + sessionID

	if err := store.client.Set(context, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_put_failed: %w", err)
	}

	return nil
}

/*
Get resolves a session identifier to the bound user ID.

Description: Returns apperr.NotFound if the session is absent or expired.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - int64: Bound user ID
  - error: apperr.NotFound or connectivity errors
*/
func (store *RedisSessionStore) Get(context context.Context, sessionID string) (int64, error) {
	key := constants.RedisPrefixSession + sessionID

	raw, err := store.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperr.NotFound("Session is invalid or expired")
		}
		return 0, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis_session_corrupt_value: %w", err)
	}

	return userID, nil
}

/*
Delete invalidates a session identifier.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Deletion failures
*/
func (store *RedisSessionStore) Delete(context context.Context, sessionID string) error {
	key := constants.RedisPrefixSession + sessionID

	if err := store.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}

	return nil
}

// # Reset Token Repository

// RedisResetTokenRepository implements [ResetTokenRepository] using Redis.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

/*
Set stores a reset token with its associated userID and TTL.

Parameters:
  - context: context.Context
  - token: string
  - userID: int64
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userID int64, ttl time.Duration) error {
	key := constants.RedisPrefixResetToken + token

	if err := repository.client.Set(context, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves the userID for a given token.

Description: Returns apperr.NotFound if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - int64: Original UserID
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (int64, error) {
	key := constants.RedisPrefixResetToken + token

	raw, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperr.NotFound("Reset token is invalid or expired")
		}
		return 0, fmt.Errorf("redis_reset_token_get_failed: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis_reset_token_corrupt_value: %w", err)
	}

	return userID, nil
}

/*
Delete removes the token from Redis.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {
	key := constants.RedisPrefixResetToken + token

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_delete_failed: %w", err)
	}

	return nil
}
