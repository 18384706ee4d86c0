package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Broadcaster pushes a stored notification to whoever is connected.
type Broadcaster interface {
	Broadcast(ctx context.Context, n Notification) error
}

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex // one writer at a time
}

func (c *conn) write(payload []byte, wait time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(wait))
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// Hub keeps the open websocket connections of this process, per user.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*conn]struct{} // userID -> connections

	upgrader  websocket.Upgrader
	writeWait time.Duration
	log       *zap.Logger
}

// NewHub builds a hub. A nil checkOrigin accepts any origin.
func NewHub(log *zap.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		conns:     make(map[string]map[*conn]struct{}),
		upgrader:  websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: checkOrigin},
		writeWait: 10 * time.Second,
		log:       log,
	}
}

func (h *Hub) register(userID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*conn]struct{})
	}
	h.conns[userID][c] = struct{}{}
}

func (h *Hub) unregister(userID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// snapshot copies the user's connections so writes happen without the lock.
func (h *Hub) snapshot(userID string) []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*conn, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		out = append(out, c)
	}
	return out
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Serve upgrades the request and blocks until the client goes away.
// Incoming messages are ignored.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &conn{ws: ws}
	h.register(userID, c)
	h.log.Debug("ws connected", zap.String("user_id", userID))
	defer func() {
		h.unregister(userID, c)
		_ = ws.Close()
		h.log.Debug("ws disconnected", zap.String("user_id", userID))
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Deliver writes n to every connection of its user and returns how many got it.
func (h *Hub) Deliver(n Notification) int {
	payload, err := json.Marshal(n)
	if err != nil {
		h.log.Error("encode notification", zap.Error(err))
		return 0
	}
	sent := 0
	for _, c := range h.snapshot(n.UserID) {
		if err := c.write(payload, h.writeWait); err != nil {
			h.log.Warn("ws write failed, dropping connection", zap.String("user_id", n.UserID), zap.Error(err))
			h.unregister(n.UserID, c)
			_ = c.ws.Close()
			continue
		}
		sent++
	}
	return sent
}

// Broadcast delivers locally; used when no cross-instance fan-out is configured.
func (h *Hub) Broadcast(_ context.Context, n Notification) error {
	h.Deliver(n)
	return nil
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for uid, set := range h.conns {
		for c := range set {
			_ = c.ws.Close()
		}
		delete(h.conns, uid)
	}
}
