package c4dto

import "time"

type Challenge struct {
	Challenger string    `json:"challenger"`
	Opponent   string    `json:"opponent"`
	Award      Award     `json:"award"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is an account's score and current activity.
type Profile struct {
	Account   string      `json:"account"`
	Score     int64       `json:"score"`
	Status    string      `json:"status"` // idle | queued | challenging | playing
	SessionID string      `json:"session_id,omitempty"`
	Outgoing  *Challenge  `json:"outgoing,omitempty"`
	Incoming  []Challenge `json:"incoming"`
}

type ScoreEntry struct {
	Rank    int    `json:"rank"`
	Account string `json:"account"`
	Score   int64  `json:"score"`
}

type QueueEntry struct {
	Account  string    `json:"account"`
	Score    int64     `json:"score"`
	QueuedAt time.Time `json:"queued_at"`
}
