package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dingtalk/bot"
	"dingtalk/cache"
	"dingtalk/db"
)

// clients builds a client for every configured robot. --token values
// replace the default configuration file unless configuration files are
// also given by flag or DINGTALK_CONFIG.
func (a *app) clients() ([]*bot.Client, error) {
	opts := []bot.Option{
		bot.WithHTTPClient(&http.Client{Timeout: a.v.GetDuration("timeout")}),
		bot.WithLogger(a.logger),
	}

	tokens := a.v.GetStringSlice("token")
	configs := a.v.GetStringSlice("config")
	if len(tokens) > 0 && !a.v.IsSet("config") {
		configs = nil
	}

	var clients []*bot.Client
	for _, path := range configs {
		c, err := bot.NewFromFile(path, opts...)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	for _, tok := range tokens {
		c, err := bot.NewFromToken(tok, opts...)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if len(clients) == 0 {
		return nil, errors.New("no robots configured")
	}
	return clients, nil
}

// broadcast sends msg to every robot concurrently. A failing robot does
// not stop the others; the failures of all robots are returned together.
//
// With --dedup-key the key is recorded before sending and forgotten again
// if no robot accepted the message, so a failed notification can be
// retried at once.
func (a *app) broadcast(cmd *cobra.Command, msg bot.Message) error {
	ctx := cmd.Context()
	clients, err := a.clients()
	if err != nil {
		return err
	}

	var dedup cache.Cache
	key := a.v.GetString("dedup-key")
	if key != "" {
		dedup, err = a.openCache(ctx)
		if err != nil {
			return err
		}
		defer dedup.Close()
		fresh, err := dedup.IsExpired(ctx, key, a.v.GetDuration("dedup-ttl"))
		if err != nil {
			return err
		}
		if !fresh {
			a.logger.Info("suppressed repeated message", zap.String("key", key))
			return nil
		}
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, c := range clients {
		c := c
		g.Go(func() error {
			if err := c.SendMessage(ctx, msg); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if dedup != nil && len(errs) == len(clients) {
		if err := dedup.Forget(context.WithoutCancel(ctx), key); err != nil {
			errs = append(errs, fmt.Errorf("forget %q: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("message sent", zap.String("msgtype", string(msg.Type())), zap.Int("robots", len(clients)))
	return nil
}

func (a *app) openCache(ctx context.Context) (cache.Cache, error) {
	if addr := a.v.GetString("redis"); addr != "" {
		pool := db.NewPool(addr)
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("redis %s: %w", addr, err)
		}
		return cache.NewRedis(pool, a.v.GetString("redis-prefix")), nil
	}
	path := a.v.GetString("cache-file")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".dingtalk-cache.json")
	}
	return cache.Open(path)
}
