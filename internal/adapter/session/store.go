package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Flash is a one-shot user-visible notification drained on the next render.
type Flash struct {
	Level   string `json:"level"` // "success" or "error"
	Message string `json:"message"`
}

// Session is the server-side state behind an opaque cookie token. UserID is
// zero for anonymous visitors, which still need flash support on the login
// and register pages.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// Store defines the interface for session persistence.
type Store interface {
	// Create persists a new session and returns it with a fresh token.
	Create(ctx context.Context, userID int64, username string) (*Session, error)

	// Get retrieves a session by token. Returns nil if the token is unknown
	// or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session and its pending flashes.
	Delete(ctx context.Context, id string) error

	// AddFlash enqueues a flash message on the session.
	AddFlash(ctx context.Context, id string, f Flash) error

	// PopFlashes drains and returns all pending flash messages.
	PopFlashes(ctx context.Context, id string) ([]Flash, error)
}

// RedisStore implements Store using Redis as the backing store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func flashKey(id string) string {
	return fmt.Sprintf("flash:%s", id)
}

// Create persists a new session under a random uuid token with the store TTL.
func (s *RedisStore) Create(ctx context.Context, userID int64, username string) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to store session", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.log.Debug("session created", zap.String("session_id", sess.ID), zap.Int64("user_id", userID))
	return sess, nil
}

// Get retrieves a session from Redis. A missing token is not an error.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		s.log.Debug("session miss", zap.String("session_id", id))
		return nil, nil
	}
	if err != nil {
		s.log.Error("failed to get session", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Error("failed to unmarshal session", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	return &sess, nil
}

// Delete removes the session and any flashes still queued on it.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id), flashKey(id)).Err(); err != nil {
		s.log.Error("failed to delete session", zap.String("session_id", id), zap.Error(err))
		return err
	}

	s.log.Debug("session deleted", zap.String("session_id", id))
	return nil
}

// AddFlash appends a flash message to the session's queue. The queue expires
// with the session.
func (s *RedisStore) AddFlash(ctx context.Context, id string, f Flash) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal flash: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, flashKey(id), data)
	pipe.Expire(ctx, flashKey(id), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error("failed to add flash", zap.String("session_id", id), zap.Error(err))
		return err
	}

	return nil
}

// PopFlashes drains the flash queue, so each message renders exactly once.
func (s *RedisStore) PopFlashes(ctx context.Context, id string) ([]Flash, error) {
	pipe := s.client.TxPipeline()
	items := pipe.LRange(ctx, flashKey(id), 0, -1)
	pipe.Del(ctx, flashKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error("failed to pop flashes", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	raw := items.Val()
	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		var f Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			s.log.Warn("dropping malformed flash", zap.String("session_id", id), zap.Error(err))
			continue
		}
		flashes = append(flashes, f)
	}

	return flashes, nil
}
