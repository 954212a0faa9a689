package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusChannel(t *testing.T) {
	assert.Equal(t, "session:abc:status", StatusChannel("abc"))
}

func TestEventOmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(Event{Type: "status", Status: StatusStarted, SessionID: "s1"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "started", m["status"])
	assert.NotContains(t, m, "score")
	assert.NotContains(t, m, "words")
	assert.NotContains(t, m, "message")
}

func TestPublishUnreachableRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	err := NewRedisPublisher(rdb).Publish(context.Background(), Event{Status: StatusEnded, SessionID: "s1"})
	assert.Error(t, err)
}
