package game

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
)

// callNumber is one scheduler tick: draw a number without replacement,
// persist it and broadcast the updated game state. Returns false when the
// caller should stop (game no longer active, or all numbers exhausted).
func (e *Engine) callNumber(roomID string) bool {
	ctx := context.Background()
	unlock := e.lockRoom(roomID)
	defer unlock()

	state, err := e.ensureGameState(ctx, roomID)
	if err != nil {
		logger.Errorf("[Room %s] tick: %v", roomID, err)
		return true // transient store error, keep the interval alive
	}
	if state.GameStatus != models.GameActive {
		return false
	}

	room, err := e.getRoom(ctx, roomID)
	if errors.Is(err, ErrRoomNotFound) {
		return false
	}
	if err != nil {
		logger.Errorf("[Room %s] tick: %v", roomID, err)
		return true // transient store error, keep the interval alive
	}

	remaining := room.RemainingNumbers()
	if len(remaining) == 0 {
		// Exhaustion: all numbers called with no winner.
		return !e.finishExhausted(ctx, room, state)
	}

	n := remaining[rand.Intn(len(remaining))]
	room.AppendNumber(n)
	state.SyncFromRoom(room)

	if err := e.store.SaveRoom(ctx, room); err != nil {
		logger.Errorf("[Room %s] save call: %v", roomID, err)
		return true
	}
	if err := e.store.SaveGameState(ctx, state); err != nil {
		logger.Errorf("[Room %s] save call: %v", roomID, err)
		return true
	}

	e.hub.BroadcastToRoom(roomID, EventGameStateUpdate, state)
	logger.Debugf("[Room %s] called %d (%d/%d)", roomID, n, len(state.CalledNumbers), models.MaxNumber)
	return true
}

// finishExhausted ends the game via the exhaustion path. Returns true on
// success; the caller self-stops either way.
func (e *Engine) finishExhausted(ctx context.Context, room *models.Room, state *models.GameState) bool {
	room.Status = models.StatusFinished
	state.GameStatus = models.GameFinished
	state.LastUpdate = time.Now()

	if err := e.store.SaveRoom(ctx, room); err != nil {
		logger.Errorf("[Room %s] save exhaustion: %v", room.ID, err)
		return false
	}
	if err := e.store.SaveGameState(ctx, state); err != nil {
		logger.Errorf("[Room %s] save exhaustion: %v", room.ID, err)
		return false
	}

	e.scheduleWinReset(room.ID)
	e.hub.BroadcastToRoom(room.ID, EventGameStateUpdate, state)
	e.broadcastRooms(ctx)
	logger.Infof("[Room %s] all %d numbers exhausted, game finished", room.ID, models.MaxNumber)
	return true
}
