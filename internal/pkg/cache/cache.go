package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/Postify/internal/pkg/config"
)

// Database layout on the cache server.
const (
	DBDefault      = 0
	DBSessions     = 1
	DBOAuthSession = 2
)

// Client is the connection to the optional Redis/Dragonfly server that backs
// the session storage. A nil *Client means sessions live in process memory.
type Client struct {
	rdb *redis.Client
	cfg config.CacheConfig
}

// New connects to the configured cache server. It returns nil when no cache
// host is configured.
func New(cfg config.CacheConfig, log *zap.Logger) *Client {
	if !cfg.Enabled() {
		log.Info("no cache configured, sessions are kept in memory")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       DBDefault,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	// Test the connection
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		log.Warn("could not connect to cache", zap.String("addr", rdb.Options().Addr), zap.Error(err))
	} else {
		log.Info("connected to cache", zap.String("addr", rdb.Options().Addr), zap.String("reply", pong))
	}

	return &Client{rdb: rdb, cfg: cfg}
}

// Redis exposes the underlying client for packages that keep their own keys
// in the default database.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

func (c *Client) Config() config.CacheConfig {
	return c.cfg
}

// Ping checks the connection to the cache server.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
