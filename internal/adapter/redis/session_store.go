package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pscheid92/valo/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Key schema:
//   editsession:{id}   hash of domain.StoreKey fields, expires after ttl of inactivity

const keyPrefix = "editsession:"

func sessionKey(id string) string {
	return keyPrefix + id
}

// SessionStore implements domain.SessionStore with one hash per session and a
// sliding TTL refreshed on every read and write.
type SessionStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ domain.SessionStore = (*SessionStore)(nil)

func NewSessionStore(rdb *goredis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func (s *SessionStore) Read(ctx context.Context, sessionID string) (map[domain.StoreKey]string, error) {
	key := sessionKey(sessionID)

	pipe := s.rdb.TxPipeline()
	get := pipe.HGetAll(ctx, key)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	raw := get.Val()
	if len(raw) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	values := make(map[domain.StoreKey]string, len(raw))
	for field, v := range raw {
		values[domain.StoreKey(field)] = v
	}
	return values, nil
}

func (s *SessionStore) Write(ctx context.Context, sessionID string, values map[domain.StoreKey]string) error {
	if len(values) == 0 {
		return nil
	}
	key := sessionKey(sessionID)

	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[string(k)] = v
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
