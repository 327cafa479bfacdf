package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Nati-Tsehaye/Web-Service/models"
	"github.com/Nati-Tsehaye/Web-Service/store"
)

func TestScheduler_StopWithoutStartIsNoop(t *testing.T) {
	s := NewScheduler(time.Millisecond, time.Millisecond, func(string) bool { return false })
	s.Stop("nothing-registered") // must not panic or block
	if s.IsRunning("nothing-registered") {
		t.Fatalf("stop must leave the registry empty")
	}
}

func TestScheduler_StartReplacesExistingCaller(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	s := NewScheduler(time.Millisecond, 5*time.Millisecond, func(string) bool {
		mu.Lock()
		ticks++
		mu.Unlock()
		return true
	})
	defer s.StopAll()

	s.Start("room-1")
	s.Start("room-1") // replaces, never doubles
	time.Sleep(40 * time.Millisecond)
	s.Stop("room-1")

	mu.Lock()
	seen := ticks
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	after := ticks
	mu.Unlock()

	if after != seen {
		t.Fatalf("ticks continued after stop: %d -> %d", seen, after)
	}
	// With a doubled caller the count would be roughly twice the interval
	// budget; allow slack for scheduling noise.
	if after > 12 {
		t.Fatalf("suspiciously many ticks for one caller: %d", after)
	}
}

func TestScheduler_TickReturningFalseStopsCaller(t *testing.T) {
	s := NewScheduler(time.Millisecond, time.Millisecond, func(string) bool { return false })
	s.Start("room-1")

	deadline := time.Now().Add(time.Second)
	for s.IsRunning("room-1") {
		if time.Now().After(deadline) {
			t.Fatalf("caller did not self-stop")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestScheduler_PanickingTickKeepsInterval(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	s := NewScheduler(time.Millisecond, 2*time.Millisecond, func(string) bool {
		mu.Lock()
		ticks++
		n := ticks
		mu.Unlock()
		if n == 1 {
			panic("bad tick")
		}
		return true
	})
	defer s.StopAll()

	s.Start("room-1")
	waitFor(t, time.Second, "tick after panic", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 2
	})
}

// forceActive writes an active room straight into the store so ticks can be
// driven by hand, without the real scheduler racing the test.
func forceActive(t *testing.T, e *Engine) *models.Room {
	t.Helper()
	ctx := context.Background()
	room := newTestRoom(t, e, 10)
	room.Status = models.StatusActive
	if err := e.store.SaveRoom(ctx, room); err != nil {
		t.Fatal(err)
	}
	state := mustState(t, e, room.ID)
	state.GameStatus = models.GameActive
	if err := e.store.SaveGameState(ctx, state); err != nil {
		t.Fatal(err)
	}
	return room
}

func TestCallNumber_DrawsWithoutReplacement(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()
	room := forceActive(t, e)

	for i := 0; i < 10; i++ {
		if !e.callNumber(room.ID) {
			t.Fatalf("tick %d stopped an active game", i)
		}
	}

	got := mustRoom(t, e, room.ID)
	seen := make(map[int]bool)
	for _, n := range got.CalledNumbers {
		if n < 1 || n > models.MaxNumber {
			t.Fatalf("called number %d out of range", n)
		}
		if seen[n] {
			t.Fatalf("number %d called twice", n)
		}
		seen[n] = true
	}
	if got.CurrentNumber == nil || *got.CurrentNumber != got.CalledNumbers[len(got.CalledNumbers)-1] {
		t.Fatalf("currentNumber must be the latest call")
	}
	state, err := st.GetGameState(ctx, room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.CalledNumbers) != len(got.CalledNumbers) {
		t.Fatalf("game state must mirror the room's calls")
	}
}

func TestCallNumber_ExhaustionFinishesGame(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()
	room := forceActive(t, e)

	// Pre-mark every number but one as called.
	for n := 1; n < models.MaxNumber; n++ {
		room.AppendNumber(n)
	}
	if err := st.SaveRoom(ctx, room); err != nil {
		t.Fatal(err)
	}

	if !e.callNumber(room.ID) {
		t.Fatalf("the final draw itself must not stop the caller")
	}
	got := mustRoom(t, e, room.ID)
	if len(got.CalledNumbers) != models.MaxNumber {
		t.Fatalf("want all %d numbers called, got %d", models.MaxNumber, len(got.CalledNumbers))
	}

	// Next tick finds nothing left and finishes via exhaustion.
	if e.callNumber(room.ID) {
		t.Fatalf("exhausted game must stop the caller")
	}
	state := mustState(t, e, room.ID)
	if state.GameStatus != models.GameFinished {
		t.Fatalf("want finished after exhaustion, got %s", state.GameStatus)
	}
	if len(state.Winners) != 0 {
		t.Fatalf("exhaustion finishes with no winner")
	}
}

// flakyStore fails a configurable number of room loads before delegating.
type flakyStore struct {
	store.Store
	mu       sync.Mutex
	failGets int
}

var errStoreDown = errors.New("store unavailable")

func (s *flakyStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	s.mu.Lock()
	fail := s.failGets > 0
	if fail {
		s.failGets--
	}
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return s.Store.GetRoom(ctx, roomID)
}

func TestCallNumber_TransientRoomLoadErrorKeepsCaller(t *testing.T) {
	st := &flakyStore{Store: store.NewMemoryStore()}
	hub := &recordingHub{}
	e := NewEngine(st, testConfig(), hub)
	t.Cleanup(e.Shutdown)
	room := forceActive(t, e)

	st.mu.Lock()
	st.failGets = 1
	st.mu.Unlock()
	if !e.callNumber(room.ID) {
		t.Fatalf("a transient room load error must keep the interval alive")
	}

	// The next tick sees the store recovered and draws normally.
	if !e.callNumber(room.ID) {
		t.Fatalf("recovered tick must keep calling")
	}
	got, err := st.GetRoom(context.Background(), room.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.CalledNumbers) != 1 {
		t.Fatalf("want exactly one draw after the errored tick, got %d", len(got.CalledNumbers))
	}

	// A room that is genuinely gone stops the caller for good.
	state := models.NewGameState("vanished")
	state.GameStatus = models.GameActive
	if err := st.SaveGameState(context.Background(), state); err != nil {
		t.Fatal(err)
	}
	if e.callNumber("vanished") {
		t.Fatalf("a missing room must stop the caller")
	}
}

func TestCallNumber_SelfStopsWhenGameNotActive(t *testing.T) {
	e, _, _ := newTestEngine(t)
	room := newTestRoom(t, e, 10)

	if e.callNumber(room.ID) {
		t.Fatalf("tick on a waiting room must stop the caller")
	}
}
