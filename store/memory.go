package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/google/uuid"
)

// MemoryStore keeps all state in process memory. It is the default backend
// when no DATABASE_URL is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	rooms      map[string]*models.Room
	sessions   map[string]*models.PlayerSession
	gameStates map[string]*models.GameState
	selections map[string]map[string]models.BoardSelection // roomID -> playerID -> selection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:      make(map[string]*models.Room),
		sessions:   make(map[string]*models.PlayerSession),
		gameStates: make(map[string]*models.GameState),
		selections: make(map[string]map[string]models.BoardSelection),
	}
}

func (s *MemoryStore) GetRoom(_ context.Context, roomID string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRoom(room), nil
}

func (s *MemoryStore) SaveRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *MemoryStore) AllRooms(_ context.Context) ([]*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, cloneRoom(room))
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Stake != rooms[j].Stake {
			return rooms[i].Stake < rooms[j].Stake
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *MemoryStore) AllSessions(_ context.Context) ([]models.PlayerSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]models.PlayerSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

func (s *MemoryStore) GetSession(_ context.Context, playerID string) (*models.PlayerSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStore) SaveSession(_ context.Context, session *models.PlayerSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.PlayerID] = &copied
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, playerID)
	return nil
}

func (s *MemoryStore) GetGameState(_ context.Context, roomID string) (*models.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.gameStates[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGameState(state), nil
}

func (s *MemoryStore) SaveGameState(_ context.Context, state *models.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameStates[state.RoomID] = cloneGameState(state)
	return nil
}

func (s *MemoryStore) GetBoardSelections(_ context.Context, roomID string) ([]models.BoardSelection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSelections(s.selections[roomID]), nil
}

func (s *MemoryStore) SaveBoardSelection(_ context.Context, sel models.BoardSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPlayer, ok := s.selections[sel.RoomID]
	if !ok {
		byPlayer = make(map[string]models.BoardSelection)
		s.selections[sel.RoomID] = byPlayer
	}
	byPlayer[sel.PlayerID] = sel
	return nil
}

func (s *MemoryStore) DeleteBoardSelection(_ context.Context, roomID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections[roomID], playerID)
	return nil
}

func (s *MemoryStore) ClearBoardSelections(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, roomID)
	return nil
}

func (s *MemoryStore) RemovePlayerFromAllBoardSelections(_ context.Context, playerID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected []string
	for roomID, byPlayer := range s.selections {
		if _, ok := byPlayer[playerID]; ok {
			delete(byPlayer, playerID)
			affected = append(affected, roomID)
		}
	}
	return affected, nil
}

func (s *MemoryStore) EnsureDefaultRooms(_ context.Context, stakes []int, maxPlayers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stake := range stakes {
		if s.hasWaitingRoomLocked(stake) {
			continue
		}
		room := defaultRoom(stake, maxPlayers)
		s.rooms[room.ID] = room
		s.gameStates[room.ID] = models.NewGameState(room.ID)
	}
	return nil
}

func (s *MemoryStore) hasWaitingRoomLocked(stake int) bool {
	for _, room := range s.rooms {
		if room.Stake == stake && room.Status == models.StatusWaiting {
			return true
		}
	}
	return false
}

func defaultRoom(stake, maxPlayers int) *models.Room {
	return &models.Room{
		ID:            uuid.NewString(),
		Stake:         stake,
		Players:       []models.Player{},
		MaxPlayers:    maxPlayers,
		Status:        models.StatusWaiting,
		CreatedAt:     time.Now(),
		CalledNumbers: []int{},
	}
}

func sortedSelections(byPlayer map[string]models.BoardSelection) []models.BoardSelection {
	out := make([]models.BoardSelection, 0, len(byPlayer))
	for _, sel := range byPlayer {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoardNumber < out[j].BoardNumber })
	return out
}

func cloneRoom(room *models.Room) *models.Room {
	copied := *room
	copied.Players = append([]models.Player(nil), room.Players...)
	copied.CalledNumbers = append([]int(nil), room.CalledNumbers...)
	if room.CurrentNumber != nil {
		n := *room.CurrentNumber
		copied.CurrentNumber = &n
	}
	if room.GameStartTime != nil {
		t := *room.GameStartTime
		copied.GameStartTime = &t
	}
	return &copied
}

func cloneGameState(state *models.GameState) *models.GameState {
	copied := *state
	copied.CalledNumbers = append([]int(nil), state.CalledNumbers...)
	copied.Winners = append([]models.Winner(nil), state.Winners...)
	if state.CurrentNumber != nil {
		n := *state.CurrentNumber
		copied.CurrentNumber = &n
	}
	return &copied
}
