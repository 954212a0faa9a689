package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

func TopicKey(topicID string) string { return "topic:" + topicID }
func StatsKey(userID string) string  { return "stats:" + userID }

// Remember returns the cached value for key or loads, stores and returns it.
// A nil cache or a cache failure falls through to load; only load errors are
// returned.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var out T
	if c != nil {
		if hit, err := c.GetJSON(ctx, key, &out); err == nil && hit {
			return out, nil
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if c != nil {
		_ = c.SetJSON(ctx, key, out, ttl)
	}
	return out, nil
}
