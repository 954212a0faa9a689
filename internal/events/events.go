// Package events publishes conversation lifecycle notifications on Redis
// pub/sub so observers (dashboards, the status websocket) can follow a live
// session.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusStarted = "started"
	StatusTurn    = "turn"
	StatusNotice  = "notice"
	StatusEnded   = "ended"
)

type Event struct {
	Type      string    `json:"type"` // always "status"
	Status    string    `json:"status"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message,omitempty"`
	Role      string    `json:"role,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	Words     *int      `json:"words,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func StatusChannel(sessionID string) string { return "session:" + sessionID + ":status" }

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	ev.Type = "status"
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, StatusChannel(ev.SessionID), b).Err()
}

// Subscribe returns a pubsub bound to the session's status channel.
func (p *RedisPublisher) Subscribe(ctx context.Context, sessionID string) *redis.PubSub {
	return p.rdb.Subscribe(ctx, StatusChannel(sessionID))
}
