package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sunrise/internal/domain/forum"
)

const (
	redisTimeout = 3 * time.Second
	maxTxRetries = 32
)

// RedisStore keeps states as JSON in Redis so several front-end instances share them.
// Apply uses WATCH/MULTI so concurrent updates to one viewer never interleave.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to addr. States expire ttl after their last update.
// PRE: addr is non-empty
func NewRedisStore(addr, password, prefix string, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) redisKey(key string) string {
	return r.prefix + key
}

func decode(raw string) (forum.State, error) {
	var s forum.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return forum.State{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return s, nil
}

// Load returns the zero State for unknown keys.
func (r *RedisStore) Load(ctx context.Context, key string) (forum.State, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	raw, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if err == redis.Nil {
		return forum.State{}, nil
	}
	if err != nil {
		return forum.State{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode(raw)
}

// Apply reads, reduces, and writes back inside an optimistic transaction, retrying on conflict.
func (r *RedisStore) Apply(ctx context.Context, key string, actions ...forum.Action) (forum.State, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	rk := r.redisKey(key)
	var out forum.State
	txf := func(tx *redis.Tx) error {
		current := forum.State{}
		raw, err := tx.Get(ctx, rk).Result()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			if current, err = decode(raw); err != nil {
				return err
			}
		}
		next := forum.Reduce(current, actions...)
		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode ui state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, encoded, r.ttl)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, rk)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return forum.State{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return forum.State{}, fmt.Errorf("%w: %s: too much contention", ErrUnavailable, key)
}

// Delete forgets a viewer.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
