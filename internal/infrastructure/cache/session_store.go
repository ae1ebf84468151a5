package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/alumni-backend/internal/domain/entity"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
)

// SessionStore keeps one live session hash per account under user:session:<id>.
// Revoking deletes the hash, which invalidates every token issued before it.
type SessionStore struct {
	rdb redis.Cmdable
}

func NewSessionStore(rdb redis.Cmdable) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Save records the session and expires it together with the token.
func (s *SessionStore) Save(ctx context.Context, sess entity.Session) error {
	key := helpers.KeySession(sess.AccountID)
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session for %s already expired", sess.AccountID)
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    sess.AccountID,
		"email":      sess.Email,
		"name":       sess.Name,
		"role":       string(sess.Role),
		"logged_in":  true,
		"created_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

// Active reports whether the account still has a live session.
func (s *SessionStore) Active(ctx context.Context, accountID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, helpers.KeySession(accountID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SessionStore) Revoke(ctx context.Context, accountID string) error {
	return s.rdb.Del(ctx, helpers.KeySession(accountID)).Err()
}
