package game

import "errors"

// Expected, recoverable outcomes. The transport turns each into exactly one
// *-failed event; none of them is ever fatal.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomNotJoinable  = errors.New("room is not joinable")
	ErrPlayerNotFound   = errors.New("player not in room")
	ErrBoardTaken       = errors.New("board already selected by another player")
	ErrGameNotActive    = errors.New("game is not active")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
)
