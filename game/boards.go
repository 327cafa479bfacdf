package game

import (
	"context"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
)

// SelectBoard records an exclusive board claim: one board per player, one
// player per board. Any board previously held by the player in this room is
// released first. Returns the room's full selection snapshot.
func (e *Engine) SelectBoard(ctx context.Context, roomID, playerID, playerName string, boardNumber int) ([]models.BoardSelection, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	if _, err := e.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	selections, err := e.store.GetBoardSelections(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for _, sel := range selections {
		if sel.BoardNumber == boardNumber {
			if sel.PlayerID == playerID {
				return selections, nil // already holds this board
			}
			return nil, ErrBoardTaken
		}
	}

	// Release the player's previous claim before recording the new one.
	if err := e.store.DeleteBoardSelection(ctx, roomID, playerID); err != nil {
		return nil, err
	}
	if err := e.store.SaveBoardSelection(ctx, models.BoardSelection{
		RoomID:      roomID,
		PlayerID:    playerID,
		PlayerName:  playerName,
		BoardNumber: boardNumber,
		SelectedAt:  time.Now(),
	}); err != nil {
		return nil, err
	}

	snapshot, err := e.store.GetBoardSelections(ctx, roomID)
	if err != nil {
		return nil, err
	}
	e.hub.BroadcastToRoom(roomID, EventBoardSelectionsUpdate, snapshot)
	logger.Debugf("[Room %s] player %s selected board %d", roomID, playerID, boardNumber)
	return snapshot, nil
}

// DeselectBoard releases the player's claim unconditionally. No-op when no
// board is held.
func (e *Engine) DeselectBoard(ctx context.Context, roomID, playerID string) ([]models.BoardSelection, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	if _, err := e.getRoom(ctx, roomID); err != nil {
		return nil, err
	}
	if err := e.store.DeleteBoardSelection(ctx, roomID, playerID); err != nil {
		return nil, err
	}

	snapshot, err := e.store.GetBoardSelections(ctx, roomID)
	if err != nil {
		return nil, err
	}
	e.hub.BroadcastToRoom(roomID, EventBoardSelectionsUpdate, snapshot)
	return snapshot, nil
}

// BoardSelections returns the current snapshot without mutating anything.
func (e *Engine) BoardSelections(ctx context.Context, roomID string) ([]models.BoardSelection, error) {
	return e.store.GetBoardSelections(ctx, roomID)
}
