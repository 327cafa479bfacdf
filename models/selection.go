package models

import "time"

// BoardSelection is one player's exclusive claim on a board number within a
// room. At most one selection per player and per board at any instant.
type BoardSelection struct {
	RoomID      string    `json:"roomId"`
	PlayerID    string    `json:"playerId"`
	PlayerName  string    `json:"playerName"`
	BoardNumber int       `json:"boardNumber"`
	SelectedAt  time.Time `json:"selectedAt"`
}

// PlayerSession maps a player to the single room they are currently in.
// Created on join, removed on leave, disconnect or reset.
type PlayerSession struct {
	PlayerID string    `json:"playerId"`
	RoomID   string    `json:"roomId"`
	JoinedAt time.Time `json:"joinedAt"`
}
