package models

import "time"

type GameStatus string

const (
	GameWaiting  GameStatus = "waiting"
	GameStarting GameStatus = "starting"
	GameActive   GameStatus = "active"
	GameFinished GameStatus = "finished"
)

// Winner is one accepted bingo claim. The list is append-only; only the
// first entry ends the game, later entries record simultaneous or late
// claims. Prize is frozen at claim time for the first winner.
type Winner struct {
	PlayerID       string    `json:"playerId"`
	PlayerName     string    `json:"playerName"`
	WinningPattern string    `json:"winningPattern"`
	Prize          int       `json:"prize"`
	Timestamp      time.Time `json:"timestamp"`
}

// GameState is the fast-churning per-room play state, kept separate from
// Room because it updates every few seconds and resets independently of
// membership.
type GameState struct {
	RoomID        string     `json:"roomId"`
	CalledNumbers []int      `json:"calledNumbers"`
	CurrentNumber *int       `json:"currentNumber,omitempty"`
	GameStatus    GameStatus `json:"gameStatus"`
	Winners       []Winner   `json:"winners"`
	LastUpdate    time.Time  `json:"lastUpdate"`
}

// NewGameState returns a fresh waiting state for the room.
func NewGameState(roomID string) *GameState {
	return &GameState{
		RoomID:        roomID,
		CalledNumbers: []int{},
		GameStatus:    GameWaiting,
		Winners:       []Winner{},
		LastUpdate:    time.Now(),
	}
}

// Reset returns the state to waiting and clears all per-game fields.
func (g *GameState) Reset() {
	g.CalledNumbers = []int{}
	g.CurrentNumber = nil
	g.GameStatus = GameWaiting
	g.Winners = []Winner{}
	g.LastUpdate = time.Now()
}

// SyncFromRoom mirrors the room's call history into the game state.
func (g *GameState) SyncFromRoom(r *Room) {
	g.CalledNumbers = append([]int(nil), r.CalledNumbers...)
	g.CurrentNumber = r.CurrentNumber
	g.LastUpdate = time.Now()
}
