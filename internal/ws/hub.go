package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/bandroom/backend/internal/roster"
)

// Hub owns the live client table and resolves event audiences against the
// roster. Delivery is best-effort and at-most-once: the audience is
// snapshotted at call time, and a recipient that cannot accept the frame is
// skipped without affecting the rest. Actual socket I/O happens in each
// client's write pump, never under the hub lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client // keyed by connection id
	roster  *roster.Roster
}

func NewHub(r *roster.Roster) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		roster:  r,
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

// remove drops the client from the table and shuts down its write pump.
// Returns nil when the client was already gone, so duplicate disconnect
// signals fall out as no-ops.
func (h *Hub) remove(connID string) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return nil
	}
	delete(h.clients, connID)
	c.close()
	return c
}

// SendToUser delivers an event to the connection currently bound to userID.
// An unbound user is simply not reachable; the event is dropped.
func (h *Hub) SendToUser(userID string, kind EventKind, body interface{}) {
	connID, ok := h.roster.ConnectionFor(userID)
	if !ok {
		return
	}
	h.deliver([]string{connID}, kind, body)
}

// SendToSession delivers an event to the session's members as of this call.
// Connections joining mid-broadcast do not receive it.
func (h *Hub) SendToSession(sessionID string, kind EventKind, body interface{}) {
	h.deliver(h.roster.MembersOf(sessionID), kind, body)
}

// SendToAll delivers an event to every live connection, bound or not.
func (h *Hub) SendToAll(kind EventKind, body interface{}) {
	h.mu.RLock()
	connIDs := make([]string, 0, len(h.clients))
	for id := range h.clients {
		connIDs = append(connIDs, id)
	}
	h.mu.RUnlock()
	h.deliver(connIDs, kind, body)
}

func (h *Hub) deliver(connIDs []string, kind EventKind, body interface{}) {
	if len(connIDs) == 0 {
		return
	}
	data, err := json.Marshal(Envelope{Type: kind, Payload: body})
	if err != nil {
		log.Printf("event marshal error (%s): %v", kind, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		c, ok := h.clients[id]
		if !ok {
			continue // left between audience snapshot and delivery
		}
		if !c.enqueue(data) {
			log.Printf("client %s too slow, dropping %s", id, kind)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
