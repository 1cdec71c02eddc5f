// Package relay fans op batches between the replicas of a session. It is a
// plain forwarder: a message from one client goes to every other client of
// the same session in arrival order. Nothing is inspected, stored, or
// replayed to late joiners; replicas joining mid-session start from a
// shared snapshot instead.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dshills/richsync/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// Hub tracks the websocket clients of every session.
type Hub struct {
	log       *logging.Logger
	readLimit int64
	upgrader  websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]map[*client]struct{}
}

// NewHub returns an empty hub. readLimit caps the size of one incoming
// message in bytes.
func NewHub(readLimit int64, log *logging.Logger) *Hub {
	return &Hub{
		log:       log,
		readLimit: readLimit,
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		sessions:  make(map[string]map[*client]struct{}),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hello is the first frame every client receives. Once it arrives the
// client is a member of the session and will see everything sent after it.
type hello struct {
	Type    string `json:"type"`
	Session string `json:"session"`
}

// Join upgrades the request and serves the client until it disconnects.
func (h *Hub) Join(session string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade for session %s: %v", session, err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.join(session, c)
	h.log.Info("client joined session %s", session)

	go c.writePump()
	h.readPump(session, c)
}

func (h *Hub) join(session string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.sessions[session]
	if !ok {
		peers = make(map[*client]struct{})
		h.sessions[session] = peers
	}
	peers[c] = struct{}{}

	// Enqueued under the lock, so the greeting precedes anything a peer
	// forwards to this client. The channel is fresh; this cannot block.
	greeting, _ := json.Marshal(hello{Type: "hello", Session: session})
	c.send <- greeting
}

func (h *Hub) leave(session string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.sessions[session]
	if !ok {
		return
	}
	if _, member := peers[c]; !member {
		return
	}
	delete(peers, c)
	close(c.send)
	if len(peers) == 0 {
		delete(h.sessions, session)
	}
}

// forward hands msg to every other client of the session. A client whose
// queue is full is dropped rather than allowed to stall the session.
func (h *Hub) forward(session string, from *client, msg []byte) {
	h.mu.Lock()
	var stalled []*client
	for peer := range h.sessions[session] {
		if peer == from {
			continue
		}
		select {
		case peer.send <- msg:
		default:
			stalled = append(stalled, peer)
		}
	}
	h.mu.Unlock()

	for _, peer := range stalled {
		h.log.Warn("dropping stalled client in session %s", session)
		h.leave(session, peer)
	}
}

func (h *Hub) readPump(session string, c *client) {
	defer func() {
		h.leave(session, c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(h.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("session %s read: %v", session, err)
			}
			return
		}
		h.forward(session, c, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
