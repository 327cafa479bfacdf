package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists state in Postgres. Slice-valued fields (players, called
// numbers, winners) are stored as JSON columns.
type GormStore struct {
	db *gorm.DB
}

type roomRecord struct {
	ID            string `gorm:"primaryKey"`
	Stake         int    `gorm:"index"`
	MaxPlayers    int
	Status        string
	Prize         int
	HasBonus      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	GameStartTime *time.Time
	CurrentNumber *int
	PlayersJSON   datatypes.JSON
	NumbersJSON   datatypes.JSON
}

type sessionRecord struct {
	PlayerID  string `gorm:"primaryKey"`
	RoomID    string `gorm:"index"`
	JoinedAt  time.Time
	UpdatedAt time.Time
}

type gameStateRecord struct {
	RoomID        string `gorm:"primaryKey"`
	Status        string
	CurrentNumber *int
	NumbersJSON   datatypes.JSON
	WinnersJSON   datatypes.JSON
	LastUpdate    time.Time
}

type selectionRecord struct {
	RoomID      string `gorm:"primaryKey"`
	PlayerID    string `gorm:"primaryKey"`
	PlayerName  string
	BoardNumber int `gorm:"index"`
	SelectedAt  time.Time
}

func (roomRecord) TableName() string      { return "rooms" }
func (sessionRecord) TableName() string   { return "player_sessions" }
func (gameStateRecord) TableName() string { return "game_states" }
func (selectionRecord) TableName() string { return "board_selections" }

// NewGormStore connects to Postgres and runs migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&roomRecord{},
		&sessionRecord{},
		&gameStateRecord{},
		&selectionRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	var rec roomRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return recordToRoom(&rec)
}

func (s *GormStore) SaveRoom(ctx context.Context, room *models.Room) error {
	rec, err := roomToRecord(room)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (s *GormStore) AllRooms(ctx context.Context) ([]*models.Room, error) {
	var recs []roomRecord
	if err := s.db.WithContext(ctx).Order("stake, created_at").Find(&recs).Error; err != nil {
		return nil, err
	}
	rooms := make([]*models.Room, 0, len(recs))
	for i := range recs {
		room, err := recordToRoom(&recs[i])
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *GormStore) AllSessions(ctx context.Context) ([]models.PlayerSession, error) {
	var recs []sessionRecord
	if err := s.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	sessions := make([]models.PlayerSession, 0, len(recs))
	for _, rec := range recs {
		sessions = append(sessions, models.PlayerSession{
			PlayerID: rec.PlayerID,
			RoomID:   rec.RoomID,
			JoinedAt: rec.JoinedAt,
		})
	}
	return sessions, nil
}

func (s *GormStore) GetSession(ctx context.Context, playerID string) (*models.PlayerSession, error) {
	var rec sessionRecord
	if err := s.db.WithContext(ctx).First(&rec, "player_id = ?", playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &models.PlayerSession{PlayerID: rec.PlayerID, RoomID: rec.RoomID, JoinedAt: rec.JoinedAt}, nil
}

func (s *GormStore) SaveSession(ctx context.Context, session *models.PlayerSession) error {
	rec := sessionRecord{PlayerID: session.PlayerID, RoomID: session.RoomID, JoinedAt: session.JoinedAt}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

func (s *GormStore) DeleteSession(ctx context.Context, playerID string) error {
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "player_id = ?", playerID).Error
}

func (s *GormStore) GetGameState(ctx context.Context, roomID string) (*models.GameState, error) {
	var rec gameStateRecord
	if err := s.db.WithContext(ctx).First(&rec, "room_id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return recordToGameState(&rec)
}

func (s *GormStore) SaveGameState(ctx context.Context, state *models.GameState) error {
	rec, err := gameStateToRecord(state)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (s *GormStore) GetBoardSelections(ctx context.Context, roomID string) ([]models.BoardSelection, error) {
	var recs []selectionRecord
	if err := s.db.WithContext(ctx).Order("board_number").Find(&recs, "room_id = ?", roomID).Error; err != nil {
		return nil, err
	}
	out := make([]models.BoardSelection, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.BoardSelection{
			RoomID:      rec.RoomID,
			PlayerID:    rec.PlayerID,
			PlayerName:  rec.PlayerName,
			BoardNumber: rec.BoardNumber,
			SelectedAt:  rec.SelectedAt,
		})
	}
	return out, nil
}

func (s *GormStore) SaveBoardSelection(ctx context.Context, sel models.BoardSelection) error {
	rec := selectionRecord{
		RoomID:      sel.RoomID,
		PlayerID:    sel.PlayerID,
		PlayerName:  sel.PlayerName,
		BoardNumber: sel.BoardNumber,
		SelectedAt:  sel.SelectedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
}

func (s *GormStore) DeleteBoardSelection(ctx context.Context, roomID, playerID string) error {
	return s.db.WithContext(ctx).
		Delete(&selectionRecord{}, "room_id = ? AND player_id = ?", roomID, playerID).Error
}

func (s *GormStore) ClearBoardSelections(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Delete(&selectionRecord{}, "room_id = ?", roomID).Error
}

func (s *GormStore) RemovePlayerFromAllBoardSelections(ctx context.Context, playerID string) ([]string, error) {
	var recs []selectionRecord
	if err := s.db.WithContext(ctx).Find(&recs, "player_id = ?", playerID).Error; err != nil {
		return nil, err
	}
	var affected []string
	for _, rec := range recs {
		if err := s.DeleteBoardSelection(ctx, rec.RoomID, rec.PlayerID); err != nil {
			return affected, err
		}
		affected = append(affected, rec.RoomID)
	}
	return affected, nil
}

func (s *GormStore) EnsureDefaultRooms(ctx context.Context, stakes []int, maxPlayers int) error {
	for _, stake := range stakes {
		var count int64
		if err := s.db.WithContext(ctx).Model(&roomRecord{}).
			Where("stake = ? AND status = ?", stake, string(models.StatusWaiting)).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		room := defaultRoom(stake, maxPlayers)
		if err := s.SaveRoom(ctx, room); err != nil {
			return err
		}
		if err := s.SaveGameState(ctx, models.NewGameState(room.ID)); err != nil {
			return err
		}
	}
	return nil
}

func roomToRecord(room *models.Room) (*roomRecord, error) {
	players, err := json.Marshal(room.Players)
	if err != nil {
		return nil, err
	}
	numbers, err := json.Marshal(room.CalledNumbers)
	if err != nil {
		return nil, err
	}
	return &roomRecord{
		ID:            room.ID,
		Stake:         room.Stake,
		MaxPlayers:    room.MaxPlayers,
		Status:        string(room.Status),
		Prize:         room.Prize,
		HasBonus:      room.HasBonus,
		CreatedAt:     room.CreatedAt,
		GameStartTime: room.GameStartTime,
		CurrentNumber: room.CurrentNumber,
		PlayersJSON:   datatypes.JSON(players),
		NumbersJSON:   datatypes.JSON(numbers),
	}, nil
}

func recordToRoom(rec *roomRecord) (*models.Room, error) {
	room := &models.Room{
		ID:            rec.ID,
		Stake:         rec.Stake,
		MaxPlayers:    rec.MaxPlayers,
		Status:        models.RoomStatus(rec.Status),
		Prize:         rec.Prize,
		HasBonus:      rec.HasBonus,
		CreatedAt:     rec.CreatedAt,
		GameStartTime: rec.GameStartTime,
		CurrentNumber: rec.CurrentNumber,
		Players:       []models.Player{},
		CalledNumbers: []int{},
	}
	if len(rec.PlayersJSON) > 0 {
		if err := json.Unmarshal(rec.PlayersJSON, &room.Players); err != nil {
			return nil, err
		}
	}
	if len(rec.NumbersJSON) > 0 {
		if err := json.Unmarshal(rec.NumbersJSON, &room.CalledNumbers); err != nil {
			return nil, err
		}
	}
	return room, nil
}

func gameStateToRecord(state *models.GameState) (*gameStateRecord, error) {
	numbers, err := json.Marshal(state.CalledNumbers)
	if err != nil {
		return nil, err
	}
	winners, err := json.Marshal(state.Winners)
	if err != nil {
		return nil, err
	}
	return &gameStateRecord{
		RoomID:        state.RoomID,
		Status:        string(state.GameStatus),
		CurrentNumber: state.CurrentNumber,
		NumbersJSON:   datatypes.JSON(numbers),
		WinnersJSON:   datatypes.JSON(winners),
		LastUpdate:    state.LastUpdate,
	}, nil
}

func recordToGameState(rec *gameStateRecord) (*models.GameState, error) {
	state := &models.GameState{
		RoomID:        rec.RoomID,
		GameStatus:    models.GameStatus(rec.Status),
		CurrentNumber: rec.CurrentNumber,
		LastUpdate:    rec.LastUpdate,
		CalledNumbers: []int{},
		Winners:       []models.Winner{},
	}
	if len(rec.NumbersJSON) > 0 {
		if err := json.Unmarshal(rec.NumbersJSON, &state.CalledNumbers); err != nil {
			return nil, err
		}
	}
	if len(rec.WinnersJSON) > 0 {
		if err := json.Unmarshal(rec.WinnersJSON, &state.Winners); err != nil {
			return nil, err
		}
	}
	return state, nil
}
