package store

import (
	"context"
	"testing"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
)

func TestMemoryStore_EnsureDefaultRoomsIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	stakes := []int{10, 20, 50}

	for i := 0; i < 3; i++ {
		if err := s.EnsureDefaultRooms(ctx, stakes, 100); err != nil {
			t.Fatalf("ensure #%d: %v", i+1, err)
		}
	}

	rooms, err := s.AllRooms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != len(stakes) {
		t.Fatalf("want %d rooms, got %d", len(stakes), len(rooms))
	}
	for _, room := range rooms {
		if room.Status != models.StatusWaiting || room.Prize != 0 {
			t.Fatalf("default room malformed: %+v", room)
		}
		if _, err := s.GetGameState(ctx, room.ID); err != nil {
			t.Fatalf("default room missing game state: %v", err)
		}
	}
}

func TestMemoryStore_GetReturnsIsolatedCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	room := defaultRoom(10, 4)
	if err := s.SaveRoom(ctx, room); err != nil {
		t.Fatal(err)
	}

	first, _ := s.GetRoom(ctx, room.ID)
	first.AddPlayer(models.Player{ID: "intruder"})
	first.CalledNumbers = append(first.CalledNumbers, 9)

	second, _ := s.GetRoom(ctx, room.ID)
	if len(second.Players) != 0 || len(second.CalledNumbers) != 0 {
		t.Fatalf("mutating a returned room leaked into the store: %+v", second)
	}
}

func TestMemoryStore_Sessions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetSession(ctx, "p1"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	session := &models.PlayerSession{PlayerID: "p1", RoomID: "r1", JoinedAt: time.Now()}
	if err := s.SaveSession(ctx, session); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSession(ctx, "p1")
	if err != nil || got.RoomID != "r1" {
		t.Fatalf("get session: %v %+v", err, got)
	}

	all, _ := s.AllSessions(ctx)
	if len(all) != 1 {
		t.Fatalf("want 1 session, got %d", len(all))
	}

	if err := s.DeleteSession(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSession(ctx, "p1"); err != ErrNotFound {
		t.Fatalf("deleted session still present: %v", err)
	}
	// Deleting again is a no-op.
	if err := s.DeleteSession(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStore_RemovePlayerFromAllBoardSelections(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.SaveBoardSelection(ctx, models.BoardSelection{RoomID: "r1", PlayerID: "p1", BoardNumber: 3})
	_ = s.SaveBoardSelection(ctx, models.BoardSelection{RoomID: "r2", PlayerID: "p1", BoardNumber: 8})
	_ = s.SaveBoardSelection(ctx, models.BoardSelection{RoomID: "r2", PlayerID: "p2", BoardNumber: 9})

	affected, err := s.RemovePlayerFromAllBoardSelections(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(affected) != 2 {
		t.Fatalf("want 2 affected rooms, got %v", affected)
	}
	for _, roomID := range []string{"r1", "r2"} {
		selections, _ := s.GetBoardSelections(ctx, roomID)
		for _, sel := range selections {
			if sel.PlayerID == "p1" {
				t.Fatalf("p1 claim survived in %s", roomID)
			}
		}
	}
	remaining, _ := s.GetBoardSelections(ctx, "r2")
	if len(remaining) != 1 || remaining[0].PlayerID != "p2" {
		t.Fatalf("other players' claims must survive, got %v", remaining)
	}
}

func TestMemoryStore_BoardSelectionsSortedByBoard(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i, board := range []int{30, 4, 17} {
		_ = s.SaveBoardSelection(ctx, models.BoardSelection{
			RoomID:      "r1",
			PlayerID:    string(rune('a' + i)),
			BoardNumber: board,
		})
	}

	selections, err := s.GetBoardSelections(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{4, 17, 30}
	for i, sel := range selections {
		if sel.BoardNumber != want[i] {
			t.Fatalf("want boards %v, got %d at %d", want, sel.BoardNumber, i)
		}
	}
}
