package game

import (
	"context"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
)

// Reconcile runs once on process start. The scheduler handle registry does
// not survive restarts, so any room the store reports as starting or active
// has lost its timers; those rooms are reset to waiting rather than left to
// stall forever.
func (e *Engine) Reconcile(ctx context.Context) error {
	rooms, err := e.store.AllRooms(ctx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		if room.Status == models.StatusWaiting {
			continue
		}
		if e.scheduler.IsRunning(room.ID) {
			continue
		}
		unlock := e.lockRoom(room.ID)
		current, err := e.getRoom(ctx, room.ID)
		if err == nil && current.Status != models.StatusWaiting {
			logger.Warnf("[Room %s] found %s with no live caller, resetting", room.ID, current.Status)
			if err := e.resetRoomLocked(ctx, current); err != nil {
				logger.Errorf("[Room %s] reconcile: %v", room.ID, err)
			}
		}
		unlock()
	}
	return nil
}

// RunGhostCleanup periodically evicts sessions and selections whose player
// has no live connection. Blocks until the context is cancelled.
func (e *Engine) RunGhostCleanup(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.GhostCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.GhostCleanup(ctx, e.hub.ActivePlayerIDs())
		}
	}
}

// GhostCleanup removes every player session whose id is not in the active
// set, running the normal leave protocol so rooms reset and prizes recompute.
func (e *Engine) GhostCleanup(ctx context.Context, activePlayerIDs []string) {
	active := make(map[string]bool, len(activePlayerIDs))
	for _, id := range activePlayerIDs {
		active[id] = true
	}

	sessions, err := e.store.AllSessions(ctx)
	if err != nil {
		logger.Errorf("ghost cleanup: %v", err)
		return
	}
	for _, session := range sessions {
		if active[session.PlayerID] {
			continue
		}
		logger.Infof("[Room %s] evicting ghost session %s", session.RoomID, session.PlayerID)
		if err := e.Leave(ctx, session.RoomID, session.PlayerID); err != nil {
			logger.Errorf("[Room %s] ghost eviction of %s: %v", session.RoomID, session.PlayerID, err)
			// Membership may already be gone; drop the stragglers directly.
			_ = e.store.DeleteSession(ctx, session.PlayerID)
			if _, err := e.store.RemovePlayerFromAllBoardSelections(ctx, session.PlayerID); err != nil {
				logger.Errorf("ghost selection cleanup for %s: %v", session.PlayerID, err)
			}
		}
	}
}
