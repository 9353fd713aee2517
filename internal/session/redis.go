package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
)

// RedisCmdable is the subset of *redis.Client the store needs.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis keeps the session as JSON under Key with a TTL matching its expiry.
type Redis struct {
	rdb RedisCmdable
	now func() time.Time
}

var _ Store = (*Redis)(nil)

// NewRedis constructs a Redis-backed store.
func NewRedis(rdb RedisCmdable) *Redis {
	return &Redis{rdb: rdb, now: time.Now}
}

// Save sets the key; sessions without a known expiry never expire in Redis.
func (r *Redis) Save(ctx context.Context, s model.Session) error {
	b, err := json.Marshal(toRecord(s))
	if err != nil {
		return err
	}
	var ttl time.Duration
	if !s.ExpiresAt.IsZero() {
		ttl = s.ExpiresAt.Sub(r.now())
		if ttl < time.Second {
			ttl = time.Second
		}
	}
	return r.rdb.Set(ctx, Key, b, ttl).Err()
}

// Load gets the key.
func (r *Redis) Load(ctx context.Context) (model.Session, error) {
	b, err := r.rdb.Get(ctx, Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, errs.ErrNoSession
	}
	if err != nil {
		return model.Session{}, err
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return model.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return usable(rec.session(), r.now())
}

// Clear deletes the key.
func (r *Redis) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, Key).Err()
}
