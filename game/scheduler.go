package game

import (
	"context"
	"sync"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/utils/logger"
)

// Scheduler runs at most one repeating number-calling task per room. The
// handle registry is process-local and never persisted; on restart it is
// rebuilt by the engine's reconciliation pass.
type Scheduler struct {
	mu      sync.Mutex
	handles map[string]*callerHandle

	warmup   time.Duration
	interval time.Duration
	tick     func(roomID string) bool // false => stop calling for this room
}

type callerHandle struct {
	cancel context.CancelFunc
}

func NewScheduler(warmup, interval time.Duration, tick func(roomID string) bool) *Scheduler {
	return &Scheduler{
		handles:  make(map[string]*callerHandle),
		warmup:   warmup,
		interval: interval,
		tick:     tick,
	}
}

// Start begins calling numbers for the room after the warm-up delay. Any
// previously registered caller for the room is stopped first, so at most one
// timer per room exists at all times.
func (s *Scheduler) Start(roomID string) {
	ctx, cancel := context.WithCancel(context.Background())
	handle := &callerHandle{cancel: cancel}

	s.mu.Lock()
	if old, ok := s.handles[roomID]; ok {
		old.cancel()
	}
	s.handles[roomID] = handle
	s.mu.Unlock()

	go s.run(ctx, roomID, handle)
}

// Stop cancels the room's caller. No-op when none is registered.
func (s *Scheduler) Stop(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle, ok := s.handles[roomID]; ok {
		handle.cancel()
		delete(s.handles, roomID)
	}
}

func (s *Scheduler) IsRunning(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[roomID]
	return ok
}

// StopAll cancels every registered caller (shutdown path).
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for roomID, handle := range s.handles {
		handle.cancel()
		delete(s.handles, roomID)
	}
}

func (s *Scheduler) run(ctx context.Context, roomID string, handle *callerHandle) {
	defer s.release(roomID, handle)

	warmup := time.NewTimer(s.warmup)
	defer warmup.Stop()
	select {
	case <-ctx.Done():
		return
	case <-warmup.C:
	}

	if !s.safeTick(roomID) {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.safeTick(roomID) {
				return
			}
		}
	}
}

// safeTick runs one tick, converting a panic into a logged error so a bad
// tick never orphans the timer in a broken state.
func (s *Scheduler) safeTick(roomID string) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Scheduler %s] tick panic: %v", roomID, r)
			keep = true
		}
	}()
	return s.tick(roomID)
}

// release drops the registry entry unless a newer caller replaced it.
func (s *Scheduler) release(roomID string, handle *callerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handles[roomID] == handle {
		delete(s.handles, roomID)
	}
}
