package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// utterances queued while the server is still processing a turn
	inboxSize = 8
)

type clientMsg struct {
	Type string `json:"type"`
}

// ServerMsg is the JSON envelope of every text frame sent to the client.
type ServerMsg struct {
	Type string `json:"type"` // always "text"
	Text string `json:"text"`
}

// WSConn is a Conn over a gorilla websocket. Binary frames are utterances;
// a {"type":"end_session"} text frame ends the session.
type WSConn struct {
	c   *websocket.Conn
	log *logrus.Entry

	mu    sync.Mutex // serializes writers
	inbox chan []byte
	done  chan struct{}

	doneOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
}

func NewWSConn(c *websocket.Conn, log *logrus.Entry) *WSConn {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	w := &WSConn{
		c:     c,
		log:   log,
		inbox: make(chan []byte, inboxSize),
		done:  make(chan struct{}),
	}
	go w.readLoop()
	go w.pingLoop()
	return w
}

func (w *WSConn) markDone() {
	w.doneOnce.Do(func() { close(w.done) })
}

func (w *WSConn) readLoop() {
	defer w.markDone()

	_ = w.c.SetReadDeadline(time.Now().Add(pongWait))
	w.c.SetPongHandler(func(string) error {
		_ = w.c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, data, err := w.c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.log.WithError(err).Debug("websocket read")
			}
			return
		}
		_ = w.c.SetReadDeadline(time.Now().Add(pongWait))

		switch kind {
		case websocket.BinaryMessage:
			if len(data) == 0 {
				continue
			}
			select {
			case w.inbox <- data:
			default:
				w.log.Warn("utterance dropped: inbox full")
			}
		case websocket.TextMessage:
			var msg clientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Type == "end_session" {
				return
			}
		}
	}
}

func (w *WSConn) pingLoop() {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-t.C:
			if err := w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (w *WSConn) write(kind int, b []byte) error {
	select {
	case <-w.done:
		return ErrDisconnected
	default:
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.c.WriteMessage(kind, b); err != nil {
		return ErrDisconnected
	}
	return nil
}

func (w *WSConn) SendText(text string) error {
	b, err := json.Marshal(ServerMsg{Type: "text", Text: text})
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

func (w *WSConn) SendAudio(audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	return w.write(websocket.BinaryMessage, audio)
}

func (w *WSConn) ReadUtterance(ctx context.Context, timeout time.Duration) ([]byte, error) {
	// already queued frames win over a pending disconnect
	select {
	case b := <-w.inbox:
		return b, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b := <-w.inbox:
		return b, nil
	case <-w.done:
		return nil, ErrDisconnected
	case <-timer.C:
		return nil, ErrListenTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *WSConn) Done() <-chan struct{} { return w.done }

// Close sends a close frame and releases the socket. Safe to call twice.
func (w *WSConn) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		_ = w.c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		w.mu.Unlock()
		w.closeErr = w.c.Close()
		w.markDone()
	})
	return w.closeErr
}
