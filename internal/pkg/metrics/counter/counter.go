package counter

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/Postify/app/models"
	"github.com/ManuelReschke/Postify/internal/pkg/cache"
)

const (
	loginsKey = "postify:counters:logins"
	postsKey  = "postify:counters:posts"
	// field in postsKey holding the sum over all users
	totalField = "total"
)

// Counter keeps login and generation counts in Redis. Without a cache every
// method is a no-op and reads return zero.
type Counter struct {
	rdb *redis.Client
}

// New returns a counter backed by cc. cc may be nil.
func New(cc *cache.Client) *Counter {
	if cc == nil {
		return &Counter{}
	}
	return &Counter{rdb: cc.Redis()}
}

func (c *Counter) Enabled() bool {
	return c != nil && c.rdb != nil
}

// AddLogin increments the login counter of a provider.
func (c *Counter) AddLogin(ctx context.Context, provider string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.HIncrBy(ctx, loginsKey, provider, 1).Err()
}

// AddGeneratedPost increments the user's and the global post counter and
// returns the user's new count.
func (c *Counter) AddGeneratedPost(ctx context.Context, user *models.UserSession) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	pipe := c.rdb.TxPipeline()
	userCount := pipe.HIncrBy(ctx, postsKey, userField(user), 1)
	pipe.HIncrBy(ctx, postsKey, totalField, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return userCount.Val(), nil
}

// GeneratedPosts returns how many posts the user has generated so far.
func (c *Counter) GeneratedPosts(ctx context.Context, user *models.UserSession) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	val, err := c.rdb.HGet(ctx, postsKey, userField(user)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// users of different providers may share an id
func userField(user *models.UserSession) string {
	return user.Provider + ":" + user.ID
}
