package game

import "github.com/Nati-Tsehaye/Web-Service/models"

// Outbound event names. Clients replace their local copy wholesale on every
// snapshot, so re-sends are always safe.
const (
	EventRoomsUpdate           = "rooms-update"
	EventRoomJoined            = "room-joined"
	EventJoinFailed            = "join-failed"
	EventPlayerJoined          = "player-joined"
	EventPlayerLeft            = "player-left"
	EventGameStateUpdate       = "game-state-update"
	EventBoardSelectionsUpdate = "board-selections-update"
	EventGameActionFailed      = "game-action-failed"
	EventBoardActionFailed     = "board-action-failed"
	EventLeaveFailed           = "leave-failed"
)

// Broadcaster pushes state snapshots to connected clients. The websocket hub
// implements it; tests use a recording fake.
type Broadcaster interface {
	// BroadcastRooms pushes the lobby view to every connected client.
	BroadcastRooms(rooms []*models.Room)
	// BroadcastToRoom pushes an event to every subscriber of one room.
	BroadcastToRoom(roomID, event string, payload interface{})
	// ActivePlayerIDs lists players with a live connection, for ghost cleanup.
	ActivePlayerIDs() []string
}

// NopBroadcaster discards everything.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastRooms([]*models.Room)               {}
func (NopBroadcaster) BroadcastToRoom(string, string, interface{}) {}
func (NopBroadcaster) ActivePlayerIDs() []string                   { return nil }
