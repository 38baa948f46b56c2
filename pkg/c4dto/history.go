package c4dto

import "time"

type GameRecord struct {
	SessionID  string    `json:"session_id"`
	First      string    `json:"first"`
	Second     string    `json:"second"`
	Winner     string    `json:"winner,omitempty"`
	Result     string    `json:"result"`
	Award      Award     `json:"award"`
	Source     string    `json:"source"`
	Moves      int       `json:"moves"`
	FinalBoard []string  `json:"final_board"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}
