package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"swarmlab/pkg/model"
)

// writeWait bounds every event write; a subscriber that cannot keep up is
// dropped rather than allowed to stall the launch and termination paths.
const writeWait = 2 * time.Second

// Hub broadcasts cluster lifecycle events to websocket subscribers.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: map[*websocket.Conn]struct{}{},
	}
}

// HandleEvents upgrades and subscribes the connection to the event feed.
func (h *Hub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
	go h.readLoop(c)
}

// Broadcast sends the event to every subscriber, dropping dead or stalled
// connections. Each write carries a deadline so Broadcast never blocks its
// caller indefinitely.
func (h *Hub) Broadcast(ev model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteJSON(ev); err != nil {
			log.Printf("dropping event subscriber: %v", err)
			_ = c.Close()
			delete(h.subs, c)
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// readLoop discards inbound frames; its only job is detecting the close.
func (h *Hub) readLoop(c *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.subs, c)
		h.mu.Unlock()
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
