package models

import (
	"testing"
	"time"
)

func testRoom(stake, maxPlayers int) *Room {
	return &Room{
		ID:            "r1",
		Stake:         stake,
		Players:       []Player{},
		MaxPlayers:    maxPlayers,
		Status:        StatusWaiting,
		CreatedAt:     time.Now(),
		CalledNumbers: []int{},
	}
}

func TestRoom_PrizeTracksMembership(t *testing.T) {
	room := testRoom(10, 4)

	room.AddPlayer(Player{ID: "a"})
	room.AddPlayer(Player{ID: "b"})
	if room.Prize != 20 {
		t.Fatalf("want prize 20, got %d", room.Prize)
	}

	room.RemovePlayer("a")
	if room.Prize != 10 {
		t.Fatalf("want prize 10 after leave, got %d", room.Prize)
	}

	// Adding the same id twice must not duplicate or inflate the prize.
	room.AddPlayer(Player{ID: "b"})
	if len(room.Players) != 1 || room.Prize != 10 {
		t.Fatalf("duplicate add changed state: players=%d prize=%d", len(room.Players), room.Prize)
	}
}

func TestRoom_AppendNumber(t *testing.T) {
	cases := []struct {
		name    string
		already []int
		n       int
		want    bool
	}{
		{"first number", nil, 42, true},
		{"duplicate rejected", []int{42}, 42, false},
		{"below range", nil, 0, false},
		{"above range", nil, 76, false},
		{"upper bound ok", nil, 75, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			room := testRoom(10, 4)
			room.CalledNumbers = append(room.CalledNumbers, tc.already...)
			if got := room.AppendNumber(tc.n); got != tc.want {
				t.Fatalf("AppendNumber(%d) = %v, want %v", tc.n, got, tc.want)
			}
			if tc.want && (room.CurrentNumber == nil || *room.CurrentNumber != tc.n) {
				t.Fatalf("currentNumber not updated to %d", tc.n)
			}
		})
	}
}

func TestRoom_RemainingNumbers(t *testing.T) {
	room := testRoom(10, 4)
	if got := len(room.RemainingNumbers()); got != MaxNumber {
		t.Fatalf("fresh room: want %d remaining, got %d", MaxNumber, got)
	}

	for n := 1; n <= MaxNumber; n++ {
		room.AppendNumber(n)
	}
	if got := room.RemainingNumbers(); got != nil {
		t.Fatalf("exhausted room: want none remaining, got %v", got)
	}
}

func TestRoom_Joinable(t *testing.T) {
	room := testRoom(10, 1)
	if !room.Joinable() {
		t.Fatalf("empty waiting room must be joinable")
	}
	room.AddPlayer(Player{ID: "a"})
	if room.Joinable() {
		t.Fatalf("full room must not be joinable")
	}
	room = testRoom(10, 4)
	room.Status = StatusActive
	if room.Joinable() {
		t.Fatalf("active room must not be joinable")
	}
}

func TestGameState_Reset(t *testing.T) {
	state := NewGameState("r1")
	state.GameStatus = GameFinished
	state.CalledNumbers = []int{1, 2, 3}
	n := 3
	state.CurrentNumber = &n
	state.Winners = []Winner{{PlayerID: "a"}}

	state.Reset()

	if state.GameStatus != GameWaiting {
		t.Fatalf("want waiting, got %s", state.GameStatus)
	}
	if len(state.CalledNumbers) != 0 || state.CurrentNumber != nil || len(state.Winners) != 0 {
		t.Fatalf("reset left stale fields: %+v", state)
	}
}
