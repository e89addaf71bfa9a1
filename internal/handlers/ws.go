package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const wsWriteTimeout = 10 * time.Second

// Event is a push notification sent over a parent's WebSocket connections
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks the open WebSocket connections per parent and fans
// events out to them. A parent may hold several connections (multiple
// tabs or devices).
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*websocket.Conn]bool
	log   *logrus.Logger
}

// NewHub creates a new hub
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		conns: make(map[int64]map[*websocket.Conn]bool),
		log:   log,
	}
}

func (h *Hub) add(parentID int64, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[parentID] == nil {
		h.conns[parentID] = make(map[*websocket.Conn]bool)
	}
	h.conns[parentID][conn] = true
	h.mu.Unlock()
}

func (h *Hub) remove(parentID int64, conn *websocket.Conn) {
	h.mu.Lock()
	if set, ok := h.conns[parentID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, parentID)
		}
	}
	h.mu.Unlock()
	conn.Close()
}

// Send pushes an event to all of a parent's connections. Offline
// parents are skipped silently; their data is still in the database.
func (h *Hub) Send(parentID int64, event Event) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns[parentID]))
	for conn := range h.conns[parentID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.log.WithError(err).Debug("websocket write failed, dropping connection")
			h.remove(parentID, conn)
		}
	}
}

// WSHandler upgrades authenticated requests to WebSocket connections
type WSHandler struct {
	hub            *Hub
	mw             *Middleware
	allowedOrigins map[string]bool
	log            *logrus.Logger
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(hub *Hub, mw *Middleware, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}
	return &WSHandler{hub: hub, mw: mw, allowedOrigins: origins, log: log}
}

// Register wires the WebSocket route into the mux
func (h *WSHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ws", h.mw.RequireAuth(h.handleConnect))
}

func (h *WSHandler) handleConnect(w http.ResponseWriter, r *http.Request) {
	parent := ParentFromContext(r.Context())

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.allowedOrigins[origin]
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.hub.add(parent.ID, conn)
	h.log.WithField("parent_id", parent.ID).Debug("websocket connected")

	// Read loop exists to detect closes; clients do not send data
	go func() {
		defer h.hub.remove(parent.ID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
