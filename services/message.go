package services

import "encoding/json"

// Inbound command actions. One variant per client command; anything else is
// rejected at the boundary before reaching the engine.
const (
	ActionJoinRoom      = "join-room"
	ActionLeaveRoom     = "leave-room"
	ActionStartGame     = "start-game"
	ActionClaimBingo    = "claim-bingo"
	ActionResetGame     = "reset-game"
	ActionSelectBoard   = "select-board"
	ActionDeselectBoard = "deselect-board"
	ActionRefreshRooms  = "refresh-rooms"
)

// ClientCommand is the wire form of every inbound command.
type ClientCommand struct {
	Action      string `json:"action"`
	RoomID      string `json:"roomId,omitempty"`
	PlayerName  string `json:"playerName,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
	BoardNumber int    `json:"boardNumber,omitempty"`
}

// ServerEvent is the envelope for every outbound push.
type ServerEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Failure is the structured rejection payload carried by *-failed events.
type Failure struct {
	Success bool   `json:"success"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}

func encodeEvent(event string, data interface{}) ([]byte, bool) {
	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		return nil, false
	}
	return payload, true
}
