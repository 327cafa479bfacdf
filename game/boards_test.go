package game

import (
	"context"
	"testing"
)

func selectionMap(t *testing.T, e *Engine, roomID string) map[string]int {
	t.Helper()
	selections, err := e.BoardSelections(context.Background(), roomID)
	if err != nil {
		t.Fatalf("selections: %v", err)
	}
	byPlayer := make(map[string]int, len(selections))
	for _, sel := range selections {
		if _, dup := byPlayer[sel.PlayerID]; dup {
			t.Fatalf("player %s holds more than one board", sel.PlayerID)
		}
		byPlayer[sel.PlayerID] = sel.BoardNumber
	}
	return byPlayer
}

func TestSelectBoard_ExclusiveClaims(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	room := newTestRoom(t, e, 10)

	if _, err := e.SelectBoard(ctx, room.ID, "A", "Abel", 7); err != nil {
		t.Fatalf("A selects 7: %v", err)
	}
	if _, err := e.SelectBoard(ctx, room.ID, "B", "Hanna", 7); err != ErrBoardTaken {
		t.Fatalf("B selecting taken board: want ErrBoardTaken, got %v", err)
	}
	if _, err := e.SelectBoard(ctx, room.ID, "B", "Hanna", 9); err != nil {
		t.Fatalf("B selects 9: %v", err)
	}

	// Re-selecting releases the previous claim, one board per player.
	if _, err := e.SelectBoard(ctx, room.ID, "A", "Abel", 12); err != nil {
		t.Fatalf("A re-selects 12: %v", err)
	}

	byPlayer := selectionMap(t, e, room.ID)
	if byPlayer["A"] != 12 {
		t.Fatalf("A must hold only board 12, got %d", byPlayer["A"])
	}
	if byPlayer["B"] != 9 {
		t.Fatalf("B must hold board 9, got %d", byPlayer["B"])
	}

	// Board 7 is free again after A moved off it.
	if _, err := e.SelectBoard(ctx, room.ID, "C", "Sara", 7); err != nil {
		t.Fatalf("C selects released board 7: %v", err)
	}
}

func TestSelectBoard_SameBoardTwiceIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	room := newTestRoom(t, e, 10)

	for i := 0; i < 2; i++ {
		if _, err := e.SelectBoard(ctx, room.ID, "A", "Abel", 3); err != nil {
			t.Fatalf("select #%d: %v", i+1, err)
		}
	}
	if got := selectionMap(t, e, room.ID); got["A"] != 3 {
		t.Fatalf("want board 3, got %d", got["A"])
	}
}

func TestDeselectBoard_UnconditionalRelease(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	room := newTestRoom(t, e, 10)

	// No-op when nothing is held.
	if _, err := e.DeselectBoard(ctx, room.ID, "A"); err != nil {
		t.Fatalf("deselect with no claim: %v", err)
	}

	if _, err := e.SelectBoard(ctx, room.ID, "A", "Abel", 5); err != nil {
		t.Fatal(err)
	}
	snapshot, err := e.DeselectBoard(ctx, room.ID, "A")
	if err != nil {
		t.Fatalf("deselect: %v", err)
	}
	if len(snapshot) != 0 {
		t.Fatalf("want empty snapshot after deselect, got %d entries", len(snapshot))
	}
}

func TestSelectBoard_ClearedWhenPlayerLeaves(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	room := newTestRoom(t, e, 10)

	if _, err := e.Join(ctx, room.ID, player("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SelectBoard(ctx, room.ID, "A", "Abel", 4); err != nil {
		t.Fatal(err)
	}
	if err := e.Leave(ctx, room.ID, "A"); err != nil {
		t.Fatal(err)
	}
	if got := selectionMap(t, e, room.ID); len(got) != 0 {
		t.Fatalf("leaving must release the player's board, got %v", got)
	}
}
