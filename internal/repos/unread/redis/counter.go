package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fastprodman/cashcow/internal/config"
	"github.com/fastprodman/cashcow/internal/repos/unread"
)

const keyPrefix = "cashcow:unread:"

var _ unread.Counter = (*counter)(nil)

type counter struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func New(client goredis.UniversalClient, ttl time.Duration) *counter {
	return &counter{client: client, ttl: ttl}
}

// Connect accepts a redis:// URL or a plain host:port.
func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	var opts *goredis.Options

	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		parsed, err := goredis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}

		opts = parsed
	} else {
		opts = &goredis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	}

	client := goredis.NewClient(opts)

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func (c *counter) Get(ctx context.Context, userID string) (int64, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("get unread count: %w", err)
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse unread count %q: %w", raw, err)
	}

	return n, true, nil
}

func (c *counter) Set(ctx context.Context, userID string, count int64) error {
	err := c.client.Set(ctx, keyPrefix+userID, count, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("set unread count: %w", err)
	}

	return nil
}

func (c *counter) Invalidate(ctx context.Context, userID string) error {
	err := c.client.Del(ctx, keyPrefix+userID).Err()
	if err != nil {
		return fmt.Errorf("invalidate unread count: %w", err)
	}

	return nil
}
