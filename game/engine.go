package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/config"
	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/store"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
)

// Engine owns the room lifecycle: session binding, join/leave transitions,
// the number-calling scheduler, board and win arbitration, and the broadcast
// discipline. All mutating operations against one room run under that room's
// lock, so commands, timer callbacks and scheduler ticks never interleave
// mid-mutation. Operations on different rooms proceed concurrently.
type Engine struct {
	store     store.Store
	cfg       *config.Config
	hub       Broadcaster
	scheduler *Scheduler

	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	startTimers map[string]*time.Timer // starting -> active promotions
	resetTimers map[string]*time.Timer // post-win automatic resets
}

func NewEngine(st store.Store, cfg *config.Config, hub Broadcaster) *Engine {
	e := &Engine{
		store:       st,
		cfg:         cfg,
		hub:         hub,
		locks:       make(map[string]*sync.Mutex),
		startTimers: make(map[string]*time.Timer),
		resetTimers: make(map[string]*time.Timer),
	}
	e.scheduler = NewScheduler(cfg.CallWarmup, cfg.CallInterval, e.callNumber)
	return e
}

// Scheduler exposes the per-room caller registry, mainly for reconciliation
// and tests.
func (e *Engine) Scheduler() *Scheduler { return e.scheduler }

// lockRoom serializes all mutations against one room. Returns the unlock.
func (e *Engine) lockRoom(roomID string) func() {
	e.mu.Lock()
	l, ok := e.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[roomID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (e *Engine) getRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := e.store.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	return room, nil
}

func (e *Engine) ensureGameState(ctx context.Context, roomID string) (*models.GameState, error) {
	state, err := e.store.GetGameState(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		state = models.NewGameState(roomID)
		err = e.store.SaveGameState(ctx, state)
	}
	if err != nil {
		return nil, fmt.Errorf("load game state %s: %w", roomID, err)
	}
	return state, nil
}

// GameState returns the room's current game snapshot, creating a fresh
// waiting state when none exists yet.
func (e *Engine) GameState(ctx context.Context, roomID string) (*models.GameState, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()
	if _, err := e.getRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return e.ensureGameState(ctx, roomID)
}

// Join binds the player's session to the room and admits them. Rejoining
// with the same session id is an idempotent no-op that refreshes the session
// mapping. A stale session carrying the same external identity inside the
// target room is evicted on admission (last writer wins); memberships the
// player still holds elsewhere are then removed under those rooms' locks.
func (e *Engine) Join(ctx context.Context, roomID string, player models.Player) (*models.Room, error) {
	room, displaced, err := e.joinLocked(ctx, roomID, player)
	if err != nil {
		return nil, err
	}
	// Stale memberships elsewhere are removed afterwards, each under its own
	// room's lock, so an in-flight operation on a displaced room never
	// interleaves with the removal.
	e.evictFromRooms(ctx, displaced, player)
	return room, nil
}

func (e *Engine) joinLocked(ctx context.Context, roomID string, player models.Player) (*models.Room, []string, error) {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.getRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	if room.HasPlayer(player.ID) {
		session := &models.PlayerSession{PlayerID: player.ID, RoomID: roomID, JoinedAt: time.Now()}
		if err := e.store.SaveSession(ctx, session); err != nil {
			return nil, nil, fmt.Errorf("refresh session: %w", err)
		}
		return room, nil, nil
	}

	if room.Status != models.StatusWaiting {
		return nil, nil, ErrRoomNotJoinable
	}

	// Identity collision inside the target room: the stale session's seat is
	// freed by this join, so it does not count against capacity. Nothing is
	// persisted until admission is certain.
	old, collision := room.FindByExternalID(player.ExternalID)
	seats := len(room.Players)
	if collision {
		seats--
	}
	if seats >= room.MaxPlayers {
		return nil, nil, ErrRoomFull
	}
	if collision {
		room.RemovePlayer(old.ID)
		if err := e.store.DeleteSession(ctx, old.ID); err != nil {
			return nil, nil, fmt.Errorf("evict session: %w", err)
		}
		if err := e.store.DeleteBoardSelection(ctx, roomID, old.ID); err != nil {
			return nil, nil, fmt.Errorf("evict selection: %w", err)
		}
		logger.Infof("[Room %s] evicted stale session %s for identity %s", roomID, old.ID, player.ExternalID)
	}

	// Single-room invariant: find the rooms still holding this player, a
	// session of the same identity, or a board claim. Membership and claims
	// there are removed by the caller under each room's own lock.
	displaced, err := e.displacedRooms(ctx, roomID, player)
	if err != nil {
		return nil, nil, err
	}

	if player.JoinedAt.IsZero() {
		player.JoinedAt = time.Now()
	}
	room.AddPlayer(player)

	session := &models.PlayerSession{PlayerID: player.ID, RoomID: roomID, JoinedAt: player.JoinedAt}
	if err := e.store.SaveSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}

	starting := false
	if len(room.Players) >= e.cfg.MinPlayers && len(room.Players) >= e.cfg.RequiredToStart() {
		room.Status = models.StatusStarting
		starting = true
	}
	if err := e.store.SaveRoom(ctx, room); err != nil {
		return nil, nil, fmt.Errorf("save room: %w", err)
	}

	state, err := e.ensureGameState(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if starting {
		state.GameStatus = models.GameStarting
		state.LastUpdate = time.Now()
		if err := e.store.SaveGameState(ctx, state); err != nil {
			return nil, nil, fmt.Errorf("save game state: %w", err)
		}
		e.schedulePromotion(roomID)
		logger.Infof("[Room %s] start countdown began with %d players", roomID, len(room.Players))
	}

	e.hub.BroadcastToRoom(roomID, EventPlayerJoined, map[string]interface{}{
		"room":   room,
		"player": player,
	})
	if starting {
		e.hub.BroadcastToRoom(roomID, EventGameStateUpdate, state)
	}
	e.broadcastRooms(ctx)

	logger.Infof("[Room %s] player %s joined (total=%d)", roomID, player.ID, len(room.Players))
	return room, displaced, nil
}

// Leave removes the player's membership, session and board selection, then
// applies lifecycle consequences: an empty room resets, an active room
// dropping below the minimum resets, a starting room dropping below the
// auto-start threshold falls back to waiting (which implicitly cancels the
// pending promotion).
func (e *Engine) Leave(ctx context.Context, roomID, playerID string) error {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.RemovePlayer(playerID) {
		return ErrPlayerNotFound
	}
	if err := e.store.DeleteSession(ctx, playerID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := e.store.DeleteBoardSelection(ctx, roomID, playerID); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}

	switch {
	case len(room.Players) == 0:
		if err := e.resetRoomLocked(ctx, room); err != nil {
			return err
		}
	case room.Status == models.StatusActive && len(room.Players) < e.cfg.MinPlayers:
		if err := e.resetRoomLocked(ctx, room); err != nil {
			return err
		}
	case room.Status == models.StatusStarting && len(room.Players) < e.cfg.RequiredToStart():
		room.Status = models.StatusWaiting
		e.cancelTimers(roomID)
		if err := e.store.SaveRoom(ctx, room); err != nil {
			return fmt.Errorf("save room: %w", err)
		}
		if err := e.syncGameStatus(ctx, roomID, models.GameWaiting); err != nil {
			return err
		}
	default:
		if err := e.store.SaveRoom(ctx, room); err != nil {
			return fmt.Errorf("save room: %w", err)
		}
	}

	e.hub.BroadcastToRoom(roomID, EventPlayerLeft, map[string]interface{}{
		"room":     room,
		"playerId": playerID,
	})
	e.broadcastSelections(ctx, roomID)
	e.broadcastRooms(ctx)

	logger.Infof("[Room %s] player %s left (total=%d)", roomID, playerID, len(room.Players))
	return nil
}

// StartGame force-starts a waiting room, skipping the auto-start threshold
// but not the minimum player count.
func (e *Engine) StartGame(ctx context.Context, roomID string) error {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Status != models.StatusWaiting {
		return ErrRoomNotJoinable
	}
	if len(room.Players) < e.cfg.MinPlayers {
		return ErrNotEnoughPlayers
	}

	room.Status = models.StatusStarting
	if err := e.store.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	if err := e.syncGameStatus(ctx, roomID, models.GameStarting); err != nil {
		return err
	}
	e.schedulePromotion(roomID)
	e.broadcastRooms(ctx)
	logger.Infof("[Room %s] force-start requested", roomID)
	return nil
}

// ResetGame forces the room back to waiting. Resetting an already-waiting
// room only clears stale derived fields.
func (e *Engine) ResetGame(ctx context.Context, roomID string) error {
	unlock := e.lockRoom(roomID)
	defer unlock()

	room, err := e.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	return e.resetRoomLocked(ctx, room)
}

// schedulePromotion arms the starting -> active countdown. The callback
// re-checks status at fire time, so a room that fell back to waiting in the
// meantime is left alone.
func (e *Engine) schedulePromotion(roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.startTimers[roomID]; ok {
		t.Stop()
	}
	e.startTimers[roomID] = time.AfterFunc(e.cfg.StartDelay, func() {
		e.promoteRoom(roomID)
	})
}

func (e *Engine) promoteRoom(roomID string) {
	ctx := context.Background()
	unlock := e.lockRoom(roomID)
	defer unlock()

	e.mu.Lock()
	delete(e.startTimers, roomID)
	e.mu.Unlock()

	room, err := e.getRoom(ctx, roomID)
	if err != nil {
		logger.Errorf("[Room %s] promotion aborted: %v", roomID, err)
		return
	}
	if room.Status != models.StatusStarting {
		// A leave or reset intervened during the countdown.
		return
	}

	now := time.Now()
	room.Status = models.StatusActive
	room.GameStartTime = &now
	room.CalledNumbers = []int{}
	room.CurrentNumber = nil
	if err := e.store.SaveRoom(ctx, room); err != nil {
		logger.Errorf("[Room %s] promotion save failed: %v", roomID, err)
		return
	}

	state, err := e.ensureGameState(ctx, roomID)
	if err != nil {
		logger.Errorf("[Room %s] promotion: %v", roomID, err)
		return
	}
	state.Reset()
	state.GameStatus = models.GameActive
	if err := e.store.SaveGameState(ctx, state); err != nil {
		logger.Errorf("[Room %s] promotion save failed: %v", roomID, err)
		return
	}

	e.scheduler.Start(roomID)
	e.hub.BroadcastToRoom(roomID, EventGameStateUpdate, state)
	e.broadcastRooms(ctx)
	logger.Infof("[Room %s] game active with %d players", roomID, len(room.Players))
}

// resetRoomLocked is the single backward transition. Caller holds the room
// lock. A non-waiting room is fully cleared: scheduler and pending timers
// cancelled, members and their sessions removed, board selections cleared,
// game state back to waiting. On an already-waiting room only stale derived
// fields are cleared.
func (e *Engine) resetRoomLocked(ctx context.Context, room *models.Room) error {
	e.scheduler.Stop(room.ID)
	e.cancelTimers(room.ID)

	if room.Status != models.StatusWaiting {
		for _, p := range room.Players {
			if err := e.store.DeleteSession(ctx, p.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		room.Players = []models.Player{}
	}
	room.Status = models.StatusWaiting
	room.ClearGame()
	room.RecomputePrize()
	if err := e.store.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}

	if err := e.store.ClearBoardSelections(ctx, room.ID); err != nil {
		return fmt.Errorf("clear selections: %w", err)
	}

	state, err := e.ensureGameState(ctx, room.ID)
	if err != nil {
		return err
	}
	state.Reset()
	if err := e.store.SaveGameState(ctx, state); err != nil {
		return fmt.Errorf("save game state: %w", err)
	}

	e.hub.BroadcastToRoom(room.ID, EventGameStateUpdate, state)
	e.hub.BroadcastToRoom(room.ID, EventBoardSelectionsUpdate, []models.BoardSelection{})
	e.broadcastRooms(ctx)
	logger.Infof("[Room %s] reset to waiting", room.ID)
	return nil
}

// cancelTimers stops any pending promotion or post-win reset for the room.
func (e *Engine) cancelTimers(roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.startTimers[roomID]; ok {
		t.Stop()
		delete(e.startTimers, roomID)
	}
	if t, ok := e.resetTimers[roomID]; ok {
		t.Stop()
		delete(e.resetTimers, roomID)
	}
}

// syncGameStatus mirrors a room status change into the game state and
// broadcasts the snapshot.
func (e *Engine) syncGameStatus(ctx context.Context, roomID string, status models.GameStatus) error {
	state, err := e.ensureGameState(ctx, roomID)
	if err != nil {
		return err
	}
	state.GameStatus = status
	state.LastUpdate = time.Now()
	if err := e.store.SaveGameState(ctx, state); err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	e.hub.BroadcastToRoom(roomID, EventGameStateUpdate, state)
	return nil
}

// displacedRooms lists the rooms, other than the target, still holding the
// player's session id, another session of the same external identity, or a
// board claim by the player. Read-only; removal happens later under each
// room's own lock.
func (e *Engine) displacedRooms(ctx context.Context, target string, player models.Player) ([]string, error) {
	rooms, err := e.store.AllRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan rooms: %w", err)
	}
	var ids []string
	for _, room := range rooms {
		if room.ID == target {
			continue
		}
		if room.HasPlayer(player.ID) {
			ids = append(ids, room.ID)
			continue
		}
		if _, ok := room.FindByExternalID(player.ExternalID); ok {
			ids = append(ids, room.ID)
			continue
		}
		selections, err := e.store.GetBoardSelections(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("scan selections: %w", err)
		}
		for _, sel := range selections {
			if sel.PlayerID == player.ID {
				ids = append(ids, room.ID)
				break
			}
		}
	}
	return ids, nil
}

// evictFromRooms removes the player's stale memberships and board claims
// from the listed rooms and applies leave consequences, each room under its
// own lock. A scheduler tick or command holding a displaced room's lock
// finishes its read-modify-write before the eviction reloads the room.
func (e *Engine) evictFromRooms(ctx context.Context, roomIDs []string, player models.Player) {
	seen := make(map[string]bool)
	for _, roomID := range roomIDs {
		if seen[roomID] {
			continue
		}
		seen[roomID] = true

		unlock := e.lockRoom(roomID)
		room, err := e.getRoom(ctx, roomID)
		if err != nil {
			unlock()
			continue
		}

		// The player's board claim in this room goes regardless of membership.
		if err := e.store.DeleteBoardSelection(ctx, roomID, player.ID); err != nil {
			logger.Errorf("[Room %s] evict selection %s: %v", roomID, player.ID, err)
		}

		removed := false
		for _, p := range append([]models.Player(nil), room.Players...) {
			stale := p.ID == player.ID ||
				(player.ExternalID != "" && p.ExternalID == player.ExternalID)
			if !stale {
				continue
			}
			room.RemovePlayer(p.ID)
			if p.ID != player.ID {
				// The joining session's mapping already points at the new
				// room; only foreign stale sessions are dropped here.
				if err := e.store.DeleteSession(ctx, p.ID); err != nil {
					logger.Errorf("[Room %s] evict session %s: %v", roomID, p.ID, err)
				}
				if err := e.store.DeleteBoardSelection(ctx, roomID, p.ID); err != nil {
					logger.Errorf("[Room %s] evict selection %s: %v", roomID, p.ID, err)
				}
			}
			removed = true
		}

		if removed {
			switch {
			case len(room.Players) == 0,
				room.Status == models.StatusActive && len(room.Players) < e.cfg.MinPlayers:
				if err := e.resetRoomLocked(ctx, room); err != nil {
					logger.Errorf("[Room %s] eviction reset failed: %v", roomID, err)
				}
			case room.Status == models.StatusStarting && len(room.Players) < e.cfg.RequiredToStart():
				room.Status = models.StatusWaiting
				e.cancelTimers(roomID)
				if err := e.store.SaveRoom(ctx, room); err == nil {
					_ = e.syncGameStatus(ctx, roomID, models.GameWaiting)
				}
			default:
				if err := e.store.SaveRoom(ctx, room); err != nil {
					logger.Errorf("[Room %s] eviction save failed: %v", roomID, err)
				}
			}
		}
		e.broadcastSelections(ctx, roomID)
		unlock()
	}
	if len(roomIDs) > 0 {
		e.broadcastRooms(ctx)
	}
}

func (e *Engine) broadcastRooms(ctx context.Context) {
	rooms, err := e.store.AllRooms(ctx)
	if err != nil {
		logger.Errorf("list rooms for broadcast: %v", err)
		return
	}
	e.hub.BroadcastRooms(rooms)
}

func (e *Engine) broadcastSelections(ctx context.Context, roomID string) {
	selections, err := e.store.GetBoardSelections(ctx, roomID)
	if err != nil {
		logger.Errorf("[Room %s] load selections for broadcast: %v", roomID, err)
		return
	}
	e.hub.BroadcastToRoom(roomID, EventBoardSelectionsUpdate, selections)
}

// Shutdown cancels every scheduler and pending timer.
func (e *Engine) Shutdown() {
	e.scheduler.StopAll()
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.startTimers {
		t.Stop()
		delete(e.startTimers, id)
	}
	for id, t := range e.resetTimers {
		t.Stop()
		delete(e.resetTimers, id)
	}
}
