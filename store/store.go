package store

import (
	"context"
	"errors"

	"github.com/Nati-Tsehaye/Web-Service/models"
)

// ErrNotFound is returned by Get* methods when no record exists for the key.
var ErrNotFound = errors.New("not found")

// Store is the abstract state service owning rooms, sessions, game states
// and board selections. The engine is its only writer and treats every
// read-modify-write sequence against one room as a critical section; the
// store itself only guarantees that individual calls are safe to issue
// concurrently.
type Store interface {
	// Rooms.
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	SaveRoom(ctx context.Context, room *models.Room) error
	AllRooms(ctx context.Context) ([]*models.Room, error)

	// Player sessions (playerId -> roomId).
	AllSessions(ctx context.Context) ([]models.PlayerSession, error)
	GetSession(ctx context.Context, playerID string) (*models.PlayerSession, error)
	SaveSession(ctx context.Context, session *models.PlayerSession) error
	DeleteSession(ctx context.Context, playerID string) error

	// Per-room game state.
	GetGameState(ctx context.Context, roomID string) (*models.GameState, error)
	SaveGameState(ctx context.Context, state *models.GameState) error

	// Board selections, keyed by (roomId, playerId).
	GetBoardSelections(ctx context.Context, roomID string) ([]models.BoardSelection, error)
	SaveBoardSelection(ctx context.Context, sel models.BoardSelection) error
	DeleteBoardSelection(ctx context.Context, roomID, playerID string) error
	ClearBoardSelections(ctx context.Context, roomID string) error

	// Maintenance. Returns the ids of rooms it touched so the caller can
	// re-run lifecycle checks and broadcasts. Room membership is never
	// mutated at store level; the engine does that under each room's lock.
	RemovePlayerFromAllBoardSelections(ctx context.Context, playerID string) ([]string, error)

	// EnsureDefaultRooms upserts one waiting room per stake tier. Idempotent.
	EnsureDefaultRooms(ctx context.Context, stakes []int, maxPlayers int) error
}
