package game

import (
	"context"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
	"github.com/google/uuid"
)

// Rooms returns the full lobby view, ordered by stake then creation time.
func (e *Engine) Rooms(ctx context.Context) ([]*models.Room, error) {
	return e.store.AllRooms(ctx)
}

// RoomsByStake filters the lobby view to one stake tier.
func (e *Engine) RoomsByStake(ctx context.Context, stake int) ([]*models.Room, error) {
	rooms, err := e.store.AllRooms(ctx)
	if err != nil {
		return nil, err
	}
	filtered := rooms[:0]
	for _, room := range rooms {
		if room.Stake == stake {
			filtered = append(filtered, room)
		}
	}
	return filtered, nil
}

// FindJoinable returns the first waiting room of the stake with spare
// capacity, ties broken by creation order. A fresh room is created when none
// exists.
func (e *Engine) FindJoinable(ctx context.Context, stake int) (*models.Room, error) {
	rooms, err := e.RoomsByStake(ctx, stake)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.Joinable() {
			return room, nil
		}
	}
	return e.CreateRoom(ctx, stake)
}

// CreateRoom registers a fresh waiting room for the stake with the default
// capacity and zero prize.
func (e *Engine) CreateRoom(ctx context.Context, stake int) (*models.Room, error) {
	room := &models.Room{
		ID:            uuid.NewString(),
		Stake:         stake,
		Players:       []models.Player{},
		MaxPlayers:    e.cfg.MaxPlayers,
		Status:        models.StatusWaiting,
		CreatedAt:     time.Now(),
		CalledNumbers: []int{},
	}
	if err := e.store.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	if err := e.store.SaveGameState(ctx, models.NewGameState(room.ID)); err != nil {
		return nil, err
	}
	e.broadcastRooms(ctx)
	logger.Infof("[Room %s] created (stake=%d)", room.ID, stake)
	return room, nil
}

// EnsureDefaultRooms upserts the canonical stake tiers on process start.
func (e *Engine) EnsureDefaultRooms(ctx context.Context) error {
	return e.store.EnsureDefaultRooms(ctx, e.cfg.Stakes, e.cfg.MaxPlayers)
}
