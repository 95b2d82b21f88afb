package idem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type State int

const (
	// Acquired means the caller owns the key and must Complete or Release it.
	Acquired State = iota
	// InFlight means another request holds the key and has not finished.
	InFlight
	// Done means a stored result was decoded into out.
	Done
)

const pending = "pending"

type Store interface {
	Begin(ctx context.Context, key string, out any) (State, error)
	Complete(ctx context.Context, key string, v any) error
	Release(ctx context.Context, key string) error
}

type kv interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	r   kv
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) Store {
	return newStore(rdb, ttl)
}

func newStore(r kv, ttl time.Duration) *redisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{r: r, ttl: ttl}
}

func (s *redisStore) Begin(ctx context.Context, key string, out any) (State, error) {
	ok, err := s.r.SetNX(ctx, "idem:"+key, pending, s.ttl).Result()
	if err != nil {
		return 0, fmt.Errorf("idem setnx: %w", err)
	}
	if ok {
		return Acquired, nil
	}
	raw, err := s.r.Get(ctx, "idem:"+key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls; let the caller retry
		return InFlight, nil
	}
	if err != nil {
		return 0, fmt.Errorf("idem get: %w", err)
	}
	if raw == pending {
		return InFlight, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return 0, fmt.Errorf("idem decode: %w", err)
	}
	return Done, nil
}

func (s *redisStore) Complete(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.r.Set(ctx, "idem:"+key, b, s.ttl).Err()
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	return s.r.Del(ctx, "idem:"+key).Err()
}

// Nop never deduplicates.
type Nop struct{}

func (Nop) Begin(context.Context, string, any) (State, error) { return Acquired, nil }
func (Nop) Complete(context.Context, string, any) error       { return nil }
func (Nop) Release(context.Context, string) error             { return nil }
