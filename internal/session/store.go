// Package session implements the server-side session store. The cookie
// carries only an opaque id; the authoritative identity and expiry live in
// the Redis record, so clients cannot extend their own sessions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the sliding session lifetime.
const DefaultTTL = time.Hour

// CookieName is the session cookie issued on login.
const CookieName = "kfarm_session"

var (
	// ErrNotFound means the session id is unknown (never issued, destroyed,
	// or evicted).
	ErrNotFound = errors.New("session not found")
	// ErrExpired means the record existed but its expiry had passed; the
	// record is destroyed as a side effect.
	ErrExpired = errors.New("session expired")
)

// Record is the server-held session state for one authenticated client.
type Record struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists session records in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a session store with the given sliding TTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func key(sid string) string {
	return "session:" + sid
}

// redisTTL keeps expired records around briefly so a request presenting one
// can be answered with the distinct session-expired status before the record
// is destroyed.
func (s *Store) redisTTL() time.Duration {
	grace := s.ttl + time.Hour
	if grace < time.Hour {
		grace = time.Hour
	}
	return grace
}

// Create issues a new session for the given identity and returns its id.
func (s *Store) Create(ctx context.Context, userID uint, email string) (string, *Record, error) {
	now := time.Now().UTC()
	rec := &Record{
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	sid := uuid.NewString()
	if err := s.write(ctx, sid, rec); err != nil {
		return "", nil, err
	}
	return sid, rec, nil
}

// Get looks up a session record. Expired records are destroyed and reported
// as ErrExpired; unknown ids are ErrNotFound.
func (s *Store) Get(ctx context.Context, sid string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, key(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// Unreadable record: treat as gone rather than serving garbage.
		_ = s.rdb.Del(ctx, key(sid)).Err()
		return nil, ErrNotFound
	}

	if time.Now().UTC().After(rec.ExpiresAt) {
		if err := s.Destroy(ctx, sid); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	return &rec, nil
}

// Refresh slides the session's expiry forward by the store TTL.
func (s *Store) Refresh(ctx context.Context, sid string) (*Record, error) {
	rec, err := s.Get(ctx, sid)
	if err != nil {
		return nil, err
	}

	rec.ExpiresAt = time.Now().UTC().Add(s.ttl)
	if err := s.write(ctx, sid, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Destroy removes a session record; destroying a missing record is not an error.
func (s *Store) Destroy(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, key(sid)).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, sid string, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sid), raw, s.redisTTL()).Err(); err != nil {
		return fmt.Errorf("session write: %w", err)
	}
	return nil
}
