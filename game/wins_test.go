package game

import (
	"context"
	"testing"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
)

// activeRoom joins two players and waits out the start countdown.
func activeRoom(t *testing.T, e *Engine) *models.Room {
	t.Helper()
	ctx := context.Background()
	room := newTestRoom(t, e, 10)
	if _, err := e.Join(ctx, room.ID, player("p1")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Join(ctx, room.ID, player("p2")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, "promotion", func() bool {
		return mustRoom(t, e, room.ID).Status == models.StatusActive
	})
	return mustRoom(t, e, room.ID)
}

func TestClaimBingo_FirstClaimFinishesGameAndFreezesPrize(t *testing.T) {
	e, _, hub := newTestEngine(t)
	ctx := context.Background()
	room := activeRoom(t, e)

	state, err := e.ClaimBingo(ctx, room.ID, "p1", "Abel", "full-house")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if state.GameStatus != models.GameFinished {
		t.Fatalf("first claim must finish the game, got %s", state.GameStatus)
	}
	if len(state.Winners) != 1 {
		t.Fatalf("want 1 winner, got %d", len(state.Winners))
	}
	if state.Winners[0].Prize != 20 {
		t.Fatalf("prize must freeze at claim time: want 20, got %d", state.Winners[0].Prize)
	}
	if e.Scheduler().IsRunning(room.ID) {
		t.Fatalf("win must stop the caller")
	}
	if !hub.sawEvent(room.ID, EventGameStateUpdate) {
		t.Fatalf("win must broadcast the game state")
	}
}

func TestClaimBingo_LateClaimIsAppendedWithoutChangingOutcome(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	room := activeRoom(t, e)

	if _, err := e.ClaimBingo(ctx, room.ID, "p1", "Abel", "row"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	state, err := e.ClaimBingo(ctx, room.ID, "p2", "Hanna", "column")
	if err != nil {
		t.Fatalf("late claim must be accepted for the record: %v", err)
	}
	if len(state.Winners) != 2 {
		t.Fatalf("want 2 winners recorded, got %d", len(state.Winners))
	}
	if state.GameStatus != models.GameFinished {
		t.Fatalf("late claim must not change status, got %s", state.GameStatus)
	}
	if state.Winners[1].Prize != state.Winners[0].Prize {
		t.Fatalf("late claim must not alter the frozen prize")
	}
}

func TestClaimBingo_RejectedUnlessActive(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	room := newTestRoom(t, e, 10)

	if _, err := e.ClaimBingo(ctx, room.ID, "p1", "Abel", "row"); err != ErrGameNotActive {
		t.Fatalf("claim on waiting room: want ErrGameNotActive, got %v", err)
	}
}

func TestClaimBingo_AutoResetMakesRoomRejoinable(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	room := activeRoom(t, e)

	if _, err := e.ClaimBingo(ctx, room.ID, "p1", "Abel", "row"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, "post-win auto reset", func() bool {
		return mustRoom(t, e, room.ID).Status == models.StatusWaiting
	})

	state := mustState(t, e, room.ID)
	if len(state.Winners) != 0 {
		t.Fatalf("auto reset must clear winners")
	}
	if _, err := e.Join(ctx, room.ID, player("p3")); err != nil {
		t.Fatalf("room must be rejoinable after auto reset: %v", err)
	}
}
