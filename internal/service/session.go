package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionStore tracks live session ids so tokens can be revoked before
// they expire.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteUser(ctx context.Context, userID int64) error
}

type redisSessionStore struct {
	redis *redis.Client
}

// NewRedisSessionStore creates a SessionStore backed by Redis.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{redis: client}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func userSessionsKey(userID int64) string {
	return "user_sessions:" + strconv.FormatInt(userID, 10)
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error {
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), userID, ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), sessionID)
	pipe.Expire(ctx, userSessionsKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.redis.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	return true, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUser revokes every session of a user, used after a password,
// login or role change and on account removal.
func (s *redisSessionStore) DeleteUser(ctx context.Context, userID int64) error {
	ids, err := s.redis.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// revokeSessions drops every session of a user once the triggering change
// is committed. A store failure is logged and does not undo the change.
func revokeSessions(ctx context.Context, sessions SessionStore, logger *zap.Logger, userID int64) {
	if sessions == nil {
		return
	}
	if err := sessions.DeleteUser(ctx, userID); err != nil {
		logger.Error("failed to revoke sessions", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
