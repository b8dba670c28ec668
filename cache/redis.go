package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Redis is a Cache kept in Redis, shared by every process using the same
// server and prefix.
type Redis struct {
	pool   *redis.Pool
	prefix string
}

// NewRedis returns a Cache storing keys under prefix in the pool's server.
func NewRedis(pool *redis.Pool, prefix string) *Redis {
	return &Redis{pool: pool, prefix: prefix}
}

func (r *Redis) IsExpired(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	reply, err := redis.String(conn.Do("SET", r.prefix+key, 1, "PX", ms, "NX"))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return reply == "OK", nil
}

func (r *Redis) Forget(ctx context.Context, key string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("DEL", r.prefix+key)
	return err
}

// Close closes the pool.
func (r *Redis) Close() error { return r.pool.Close() }
