package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "session:"
	authChannel = "auth_state"
)

// StateEvent is one emission of the auth-state stream: a user signed in or
// signed out somewhere.
type StateEvent struct {
	Event  string    `json:"event"` // signed_in, signed_out
	UserID int       `json:"user_id"`
	At     time.Time `json:"at"`
}

// Store keeps live sessions in Redis. A session disappears either by explicit
// revocation (sign-out) or by TTL expiry alongside the JWT.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Save(ctx context.Context, token string, userID int, ttl time.Duration) error {
	return s.rdb.Set(ctx, keyPrefix+token, userID, ttl).Err()
}

func (s *Store) Revoke(ctx context.Context, token string) (int, error) {
	n, err := s.rdb.Del(ctx, keyPrefix+token).Result()
	return int(n), err
}

// Active reports whether the token still has a live session.
func (s *Store) Active(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PublishState emits a sign-in/sign-out event on the auth-state channel.
func (s *Store) PublishState(ctx context.Context, event string, userID int) error {
	body, err := json.Marshal(StateEvent{
		Event:  event,
		UserID: userID,
		At:     time.Now(),
	})
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, authChannel, body).Err()
}
