package c4dto

import "time"

type Award struct {
	Win  uint32 `json:"win"`
	Lose uint32 `json:"lose"`
}

type SessionState struct {
	ID     string `json:"id"`
	First  string `json:"first"`
	Second string `json:"second"`
	// Turn is the account to move; empty once finished.
	Turn string `json:"turn,omitempty"`
	// Rows holds the board top row first ('.', 'X' first, 'O' second).
	Rows         []string  `json:"rows"`
	State        string    `json:"state"` // running | won | draw
	Winner       string    `json:"winner,omitempty"`
	Award        Award     `json:"award"`
	Source       string    `json:"source"`
	Moves        int       `json:"moves"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	BoardImage   []byte    `json:"-"`
}
