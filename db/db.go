// Package db opens Redis connection pools.
package db

import (
	"context"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
)

// NewPool returns a pool dialing address, either host:port or a
// redis:// URL.
func NewPool(address string, opts ...redis.DialOption) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			if strings.HasPrefix(address, "redis://") || strings.HasPrefix(address, "rediss://") {
				return redis.DialURL(address, opts...)
			}
			return redis.Dial("tcp", address, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Ping checks that the pool can reach its server.
func Ping(ctx context.Context, pool *redis.Pool) error {
	conn, err := pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("PING")
	return err
}
