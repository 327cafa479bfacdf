package game

import (
	"context"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
)

// ClaimBingo arbitrates a win claim. Only the first valid claim of a game
// ends it: the game freezes at finished, the caller stops, and the prize is
// frozen at its value at claim time. Later claims are appended for the
// record but change nothing.
func (e *Engine) ClaimBingo(ctx context.Context, roomID, playerID, playerName, pattern string) (*models.GameState, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	state, err := e.ensureGameState(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if state.GameStatus != models.GameActive && len(state.Winners) == 0 {
		return nil, ErrGameNotActive
	}

	winner := models.Winner{
		PlayerID:       playerID,
		PlayerName:     playerName,
		WinningPattern: pattern,
		Prize:          room.Prize,
		Timestamp:      time.Now(),
	}
	first := len(state.Winners) == 0
	state.Winners = append(state.Winners, winner)
	state.LastUpdate = time.Now()

	if first {
		state.GameStatus = models.GameFinished
		room.Status = models.StatusFinished
		e.scheduler.Stop(roomID)
		if err := e.store.SaveRoom(ctx, room); err != nil {
			return nil, err
		}
		e.scheduleWinReset(roomID)
		logger.Infof("[Room %s] %s wins with %q, prize %d frozen", roomID, playerID, pattern, winner.Prize)
	} else {
		// Informational only; the frozen prize of the first winner stands.
		winner.Prize = state.Winners[0].Prize
		state.Winners[len(state.Winners)-1] = winner
		logger.Infof("[Room %s] late claim by %s recorded", roomID, playerID)
	}

	if err := e.store.SaveGameState(ctx, state); err != nil {
		return nil, err
	}

	e.hub.BroadcastToRoom(roomID, EventGameStateUpdate, state)
	if first {
		e.broadcastRooms(ctx)
	}
	return state, nil
}

// scheduleWinReset arms the automatic post-game reset so the room becomes
// rejoinable without manual intervention. The callback re-checks status at
// fire time.
func (e *Engine) scheduleWinReset(roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.resetTimers[roomID]; ok {
		t.Stop()
	}
	e.resetTimers[roomID] = time.AfterFunc(e.cfg.WinResetDelay, func() {
		e.autoReset(roomID)
	})
}

func (e *Engine) autoReset(roomID string) {
	ctx := context.Background()
	unlock := e.lockRoom(roomID)
	defer unlock()

	e.mu.Lock()
	delete(e.resetTimers, roomID)
	e.mu.Unlock()

	room, err := e.getRoom(ctx, roomID)
	if err != nil {
		logger.Errorf("[Room %s] auto reset aborted: %v", roomID, err)
		return
	}
	if room.Status != models.StatusFinished {
		// Already reset (or restarted) through another path.
		return
	}
	if err := e.resetRoomLocked(ctx, room); err != nil {
		logger.Errorf("[Room %s] auto reset failed: %v", roomID, err)
	}
}
