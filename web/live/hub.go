// Package live pushes panel changes to browsers over websockets.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"recpanel/app/panel"
	"recpanel/logger"
	"recpanel/web/view"
)

const writeWait = 10 * time.Second

// Message is what every connected browser receives after a panel change.
type Message struct {
	HTML  string         `json:"html"`
	State panel.Snapshot `json:"state"`
}

type Hub struct {
	panel    *panel.Panel
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*conn]struct{}
}

type conn struct {
	ws   *websocket.Conn
	send chan []byte
}

func NewHub(p *panel.Panel, logger *logger.Logger) *Hub {
	return &Hub{
		panel:   p,
		logger:  logger,
		clients: make(map[*conn]struct{}),
	}
}

func encode(s panel.Snapshot) ([]byte, error) {
	html, err := view.RenderFragment(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{HTML: html, State: s})
}

// Run forwards panel snapshots to every client until ctx ends, then closes
// all connections.
func (h *Hub) Run(ctx context.Context) error {
	updates, cancel := h.panel.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			msg, err := encode(s)
			if err != nil {
				h.logger.LogError(err, "Error rendering panel update")
				continue
			}
			h.broadcast(msg)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams panel updates to it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.LogError(err, "Error upgrading websocket", "remote_addr", r.RemoteAddr)
		return
	}

	c := &conn{ws: ws, send: make(chan []byte, 8)}

	if msg, err := encode(h.panel.Snapshot()); err == nil {
		c.send <- msg
	}

	h.add(c)
	h.logger.LogDebug("panel client connected", "remote_addr", r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)

	h.remove(c)
	h.logger.LogDebug("panel client disconnected", "remote_addr", r.RemoteAddr)
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast makes room for msg by discarding the oldest queued update of a
// client that is not keeping up, so the newest panel state always arrives.
func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		for {
			select {
			case c.send <- msg:
			default:
				select {
				case <-c.send:
				default:
				}
				continue
			}
			break
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.ws.Close()
	}
}

// readLoop discards client frames; it returns once the peer is gone.
func (h *Hub) readLoop(c *conn) {
	c.ws.SetReadLimit(512)
	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *conn) {
	defer func() { _ = c.ws.Close() }()

	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
