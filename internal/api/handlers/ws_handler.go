package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/lexispeak/internal/orchestrator"
	"github.com/yoockh/lexispeak/internal/services"
	"github.com/yoockh/lexispeak/internal/transport"
	"github.com/yoockh/lexispeak/internal/utils"
)

// Subscriber opens a live feed of a session's status events.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) *redis.PubSub
}

type WSHandler struct {
	permissions services.PermissionService
	sessions    services.SessionService
	orch        *orchestrator.Orchestrator
	feed        Subscriber // nil without Redis
	log         *logrus.Logger
	upgrader    websocket.Upgrader

	// keepalive for the events feed
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewWSHandler(permissions services.PermissionService, sessions services.SessionService, orch *orchestrator.Orchestrator, feed Subscriber, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WSHandler{
		permissions: permissions,
		sessions:    sessions,
		orch:        orch,
		feed:        feed,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
		pongWait:   60 * time.Second,
		pingPeriod: 54 * time.Second,
	}
}

// Conversation runs one live conversation: ?topic_id=<uuid>&duration=<minutes>.
// Quota errors are answered as plain HTTP before the upgrade.
func (h *WSHandler) Conversation(c *gin.Context) {
	const op = "WSHandler.Conversation"

	user, ok := requireUser(c)
	if !ok {
		return
	}

	topicID := c.Query("topic_id")
	if topicID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing topic_id", nil))
		return
	}
	minutes, err := strconv.Atoi(c.DefaultQuery("duration", "10"))
	if err != nil || minutes <= 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "duration must be a positive number of minutes", err))
		return
	}

	if _, err := h.permissions.Consume(c.Request.Context(), user.ID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		h.log.WithError(err).WithField("user_id", user.ID).Warn("websocket upgrade failed")
		return
	}

	wc := transport.NewWSConn(conn, h.log.WithField("user_id", user.ID))
	res, err := h.orch.Run(c.Request.Context(), wc, orchestrator.Request{
		User:     user,
		TopicID:  topicID,
		Duration: h.orch.Duration(minutes),
	})
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"user_id": user.ID, "topic_id": topicID}).
			Warn("conversation not started")
		return
	}
	h.log.WithFields(logrus.Fields{
		"session_id": res.SessionID,
		"reason":     res.Reason,
		"score":      res.Score,
	}).Debug("conversation closed")
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

// Events forwards a session's status events (started, turn, ended) to an
// observer. Only the session owner may subscribe.
func (h *WSHandler) Events(c *gin.Context) {
	const op = "WSHandler.Events"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if h.feed == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "live events are not configured", nil))
		return
	}

	sessionID := c.Param("session_id")
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.feed.Subscribe(ctx, sessionID)
	defer pubsub.Close()

	h.forward(ctx, conn, pubsub.Channel())
}

// forward writes feed messages to conn until either side goes away. Pings
// keep an idle viewer inside the read deadline.
func (h *WSHandler) forward(ctx context.Context, conn *websocket.Conn, ch <-chan *redis.Message) {
	wc := &wsConn{c: conn}

	// reader only watches for the client going away
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(h.pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := wc.ping(); err != nil {
				return
			}
		case m, ok := <-ch:
			if !ok {
				return
			}
			if err := wc.writeText([]byte(m.Payload)); err != nil {
				return
			}
		}
	}
}
