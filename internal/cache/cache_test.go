package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	data   map[string][]byte
	getErr error
}

func (m *memCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *memCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type item struct {
	Name string `json:"name"`
}

func TestRemember_LoadsOnceThenHits(t *testing.T) {
	c := &memCache{data: map[string][]byte{}}
	calls := 0
	load := func(context.Context) (item, error) {
		calls++
		return item{Name: "travel"}, nil
	}

	got, err := Remember(context.Background(), c, TopicKey("t1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "travel", got.Name)

	got, err = Remember(context.Background(), c, TopicKey("t1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "travel", got.Name)
	assert.Equal(t, 1, calls)
}

func TestRemember_NilOrBrokenCacheFallsThrough(t *testing.T) {
	calls := 0
	load := func(context.Context) (item, error) {
		calls++
		return item{Name: "x"}, nil
	}

	_, err := Remember[item](context.Background(), nil, "k", time.Minute, load)
	require.NoError(t, err)

	broken := &memCache{data: map[string][]byte{}, getErr: errors.New("redis down")}
	_, err = Remember(context.Background(), broken, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRemember_LoadErrorIsNotCached(t *testing.T) {
	c := &memCache{data: map[string][]byte{}}
	_, err := Remember(context.Background(), c, "k", time.Minute, func(context.Context) (item, error) {
		return item{}, errors.New("db down")
	})
	assert.Error(t, err)
	assert.Empty(t, c.data)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "topic:a", TopicKey("a"))
	assert.Equal(t, "stats:u", StatsKey("u"))
}

func TestMemoryCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	type topic struct{ Name string }
	require.NoError(t, c.SetJSON(ctx, TopicKey("t1"), topic{Name: "Travel"}, 0))
	require.NoError(t, c.SetJSON(ctx, TopicKey("t2"), topic{Name: "Food"}, time.Millisecond))

	var got topic
	hit, err := c.GetJSON(ctx, TopicKey("t1"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Travel", got.Name)

	time.Sleep(5 * time.Millisecond)
	hit, err = c.GetJSON(ctx, TopicKey("t2"), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Del(ctx, TopicKey("t1")))
	hit, _ = c.GetJSON(ctx, TopicKey("t1"), &got)
	assert.False(t, hit)
}
