package models

import "time"

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusStarting RoomStatus = "starting"
	StatusActive   RoomStatus = "active"
	StatusFinished RoomStatus = "finished"
)

// MaxNumber is the highest callable bingo number.
const MaxNumber = 75

// Room is a stake-tiered lobby hosting one game instance at a time.
type Room struct {
	ID            string     `json:"id"`
	Stake         int        `json:"stake"`
	Players       []Player   `json:"players"`
	MaxPlayers    int        `json:"maxPlayers"`
	Status        RoomStatus `json:"status"`
	Prize         int        `json:"prize"`
	CreatedAt     time.Time  `json:"createdAt"`
	GameStartTime *time.Time `json:"gameStartTime,omitempty"`
	CalledNumbers []int      `json:"calledNumbers"`
	CurrentNumber *int       `json:"currentNumber,omitempty"`
	HasBonus      bool       `json:"hasBonus"`
}

// HasPlayer reports whether the session id is already a member.
func (r *Room) HasPlayer(playerID string) bool {
	for _, p := range r.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// FindByExternalID returns the member bound to the external identity, if any.
func (r *Room) FindByExternalID(externalID string) (Player, bool) {
	if externalID == "" {
		return Player{}, false
	}
	for _, p := range r.Players {
		if p.ExternalID == externalID {
			return p, true
		}
	}
	return Player{}, false
}

// AddPlayer appends a member and recomputes the prize. Duplicate session ids
// are ignored so a rejoin never duplicates the entry.
func (r *Room) AddPlayer(p Player) {
	if r.HasPlayer(p.ID) {
		return
	}
	r.Players = append(r.Players, p)
	r.RecomputePrize()
}

// RemovePlayer drops the member by session id and recomputes the prize.
// Returns true if a member was removed.
func (r *Room) RemovePlayer(playerID string) bool {
	for i, p := range r.Players {
		if p.ID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			r.RecomputePrize()
			return true
		}
	}
	return false
}

// RecomputePrize keeps the invariant prize == stake * player count.
func (r *Room) RecomputePrize() {
	r.Prize = r.Stake * len(r.Players)
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// Joinable reports whether the room accepts new members: waiting status with
// spare capacity.
func (r *Room) Joinable() bool {
	return r.Status == StatusWaiting && !r.IsFull()
}

// AppendNumber records a freshly drawn number as both the latest call and a
// member of the called set. Duplicates are rejected.
func (r *Room) AppendNumber(n int) bool {
	if n < 1 || n > MaxNumber {
		return false
	}
	for _, c := range r.CalledNumbers {
		if c == n {
			return false
		}
	}
	r.CalledNumbers = append(r.CalledNumbers, n)
	num := n
	r.CurrentNumber = &num
	return true
}

// RemainingNumbers lists the numbers in 1..MaxNumber not yet called.
func (r *Room) RemainingNumbers() []int {
	called := make(map[int]bool, len(r.CalledNumbers))
	for _, n := range r.CalledNumbers {
		called[n] = true
	}
	var remaining []int
	for n := 1; n <= MaxNumber; n++ {
		if !called[n] {
			remaining = append(remaining, n)
		}
	}
	return remaining
}

// ClearGame wipes per-game derived fields, leaving membership and metadata.
func (r *Room) ClearGame() {
	r.CalledNumbers = []int{}
	r.CurrentNumber = nil
	r.GameStartTime = nil
}
