// Package cache remembers recently sent notifications so that a repeated
// alert is suppressed until its time to live runs out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache records notification keys.
type Cache interface {
	// IsExpired reports whether key is unknown or its time to live has run
	// out. When it returns true the key is recorded again with ttl.
	IsExpired(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget drops key, so the next IsExpired for it reports true.
	Forget(ctx context.Context, key string) error
	Close() error
}

// TTL is a cache entry as persisted. Times are in milliseconds.
type TTL struct {
	CreateTime int64 `json:"createtime"`
	TimeToLive int64 `json:"ttl"`
}

func (t TTL) expired(now time.Time) bool {
	return now.UnixMilli()-t.CreateTime >= t.TimeToLive
}

// File is a Cache persisted as a JSON file.
type File struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	data map[string]TTL
}

// Open loads the cache file at path. A missing file is an empty cache; it
// is created by the first Persist.
func Open(path string) (*File, error) {
	return open(path, time.Now)
}

func open(path string, now func() time.Time) (*File, error) {
	c := &File{
		path: path,
		now:  now,
		data: make(map[string]TTL),
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &c.data); err != nil {
		return nil, fmt.Errorf("cache: parse %s: %w", path, err)
	}
	if c.data == nil {
		c.data = make(map[string]TTL)
	}
	c.clean()
	return c, nil
}

func (c *File) IsExpired(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.data[key]; ok && !e.expired(now) {
		return false, nil
	}
	c.data[key] = TTL{
		CreateTime: now.UnixMilli(),
		TimeToLive: ttl.Milliseconds(),
	}
	return true, nil
}

func (c *File) Forget(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// live returns the number of unexpired entries.
func (c *File) live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	now := c.now()
	for _, e := range c.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Persist drops expired entries and writes the cache to its file.
func (c *File) Persist() error {
	c.mu.Lock()
	c.clean()
	b, err := json.Marshal(c.data)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// Close persists the cache.
func (c *File) Close() error { return c.Persist() }

// clean must be called with c.mu held.
func (c *File) clean() {
	now := c.now()
	for k, e := range c.data {
		if e.expired(now) {
			delete(c.data, k)
		}
	}
}
