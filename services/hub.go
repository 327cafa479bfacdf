package services

import (
	"sync"

	"github.com/Nati-Tsehaye/Web-Service/game"
	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
)

// Hub tracks live connections and implements game.Broadcaster. One client
// per player id; a reconnect closes the previous connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.playerID]; ok {
		old.Close()
	}
	h.clients[c.playerID] = c
	h.mu.Unlock()
	logger.Infof("[Hub] client %s connected (total=%d)", c.playerID, h.count())
}

// unregister drops the client unless a newer connection already replaced it.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.playerID] == c {
		delete(h.clients, c.playerID)
	}
	h.mu.Unlock()
	c.Close()
	logger.Infof("[Hub] client %s disconnected (total=%d)", c.playerID, h.count())
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastRooms pushes the lobby snapshot to every connected client.
func (h *Hub) BroadcastRooms(rooms []*models.Room) {
	payload, ok := encodeEvent(game.EventRoomsUpdate, rooms)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(payload)
	}
}

// BroadcastToRoom pushes an event to every client currently in the room.
func (h *Hub) BroadcastToRoom(roomID, event string, data interface{}) {
	payload, ok := encodeEvent(event, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.RoomID() == roomID {
			c.enqueue(payload)
		}
	}
}

// ActivePlayerIDs lists players with a live connection.
func (h *Hub) ActivePlayerIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}
