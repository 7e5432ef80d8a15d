package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/yoockh/yoosocial/internal/events"
	"github.com/yoockh/yoosocial/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// WSHandler pushes the caller's conversation events, as relayed to
// Redis pub/sub, over a websocket.
type WSHandler struct {
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(rdb *redis.Client) *WSHandler {
	return &WSHandler{
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin once the web client has a fixed host
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(messageType int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(messageType, b)
}

func (h *WSHandler) Events(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if h.redis == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "WSHandler.Events", "realtime events are not enabled", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, events.UserChannel(userID))
	defer pubsub.Close()

	// reader: only keeps the connection alive and notices the close
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	ch := pubsub.Channel()
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case m, ok := <-ch:
			if !ok {
				return
			}
			// payload is already the JSON envelope
			if err := wc.write(websocket.TextMessage, []byte(m.Payload)); err != nil {
				return
			}
		}
	}
}
