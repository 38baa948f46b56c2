package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/park285/Cheese-Connect4-bot/internal/board"
)

// AwardTerms is the score moved on a decisive result.
type AwardTerms struct {
	Win  uint32 `json:"win"`
	Lose uint32 `json:"lose"`
}

// DefaultAward applies to queue-made games.
var DefaultAward = AwardTerms{Win: 10, Lose: 5}

// Source tells how a session was created.
type Source string

const (
	SourceQueue     Source = "queue"
	SourceChallenge Source = "challenge"
)

// Lifecycle is either running or finished. A finished lifecycle carries the
// winner, or none for a draw.
type Lifecycle struct {
	finished bool
	winner   string
}

func Running() Lifecycle                   { return Lifecycle{} }
func Finished(winner string) Lifecycle     { return Lifecycle{finished: true, winner: winner} }
func Draw() Lifecycle                      { return Lifecycle{finished: true} }
func (l Lifecycle) IsRunning() bool        { return !l.finished }
func (l Lifecycle) IsDraw() bool           { return l.finished && l.winner == "" }
func (l Lifecycle) Winner() (string, bool) { return l.winner, l.finished && l.winner != "" }

func (l Lifecycle) String() string {
	switch {
	case !l.finished:
		return "running"
	case l.winner == "":
		return "draw"
	default:
		return "won"
	}
}

type lifecycleJSON struct {
	State  string `json:"state"`
	Winner string `json:"winner,omitempty"`
}

func (l Lifecycle) MarshalJSON() ([]byte, error) {
	state := "running"
	if l.finished {
		state = "finished"
	}
	return json.Marshal(lifecycleJSON{State: state, Winner: l.winner})
}

func (l *Lifecycle) UnmarshalJSON(raw []byte) error {
	var v lifecycleJSON
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	switch v.State {
	case "running":
		if v.Winner != "" {
			return fmt.Errorf("lifecycle: running state with winner %q", v.Winner)
		}
		*l = Running()
	case "finished":
		*l = Finished(v.Winner)
	default:
		return fmt.Errorf("lifecycle: unknown state %q", v.State)
	}
	return nil
}

// Session is one game between two distinct accounts.
type Session struct {
	ID           string      `json:"id"`
	First        string      `json:"first"`
	Second       string      `json:"second"`
	Board        board.Board `json:"board"`
	Turn         board.Slot  `json:"turn"`
	Lifecycle    Lifecycle   `json:"lifecycle"`
	Award        AwardTerms  `json:"award"`
	Source       Source      `json:"source"`
	Moves        int         `json:"moves"`
	CreatedAt    time.Time   `json:"created_at"`
	LastActivity time.Time   `json:"last_activity"`
}

// SlotOf returns the slot account plays, if any.
func (s *Session) SlotOf(account string) (board.Slot, bool) {
	switch account {
	case s.First:
		return board.First, true
	case s.Second:
		return board.Second, true
	}
	return 0, false
}

// AccountOf returns the account seated at slot.
func (s *Session) AccountOf(slot board.Slot) string {
	if slot == board.First {
		return s.First
	}
	return s.Second
}

// Opponent returns the other participant.
func (s *Session) Opponent(account string) string {
	if account == s.First {
		return s.Second
	}
	if account == s.Second {
		return s.First
	}
	return ""
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// DeriveStartingSlot picks who moves first from the session id bytes.
func DeriveStartingSlot(idBytes []byte) board.Slot {
	if len(idBytes) == 0 || idBytes[0] < 128 {
		return board.First
	}
	return board.Second
}

// StatusKind names the per-account activity. Idle accounts have no status record.
type StatusKind string

const (
	StatusIdle        StatusKind = ""
	StatusQueued      StatusKind = "queued"
	StatusChallenging StatusKind = "challenging"
	StatusPlaying     StatusKind = "playing"
)

// PlayerStatus is the single activity record of an account. Being queued,
// holding a challenge and playing are mutually exclusive.
type PlayerStatus struct {
	Kind StatusKind `json:"kind"`

	// queued
	Score    int64     `json:"score,omitempty"`
	QueuedAt time.Time `json:"queued_at,omitzero"`

	// challenging
	Opponent     string     `json:"opponent,omitempty"`
	Award        AwardTerms `json:"award,omitzero"`
	ChallengedAt time.Time  `json:"challenged_at,omitzero"`

	// playing
	SessionID string `json:"session_id,omitempty"`
}

func Queued(score int64, at time.Time) PlayerStatus {
	return PlayerStatus{Kind: StatusQueued, Score: score, QueuedAt: at}
}

func Challenging(opponent string, award AwardTerms, at time.Time) PlayerStatus {
	return PlayerStatus{Kind: StatusChallenging, Opponent: opponent, Award: award, ChallengedAt: at}
}

func Playing(sessionID string) PlayerStatus {
	return PlayerStatus{Kind: StatusPlaying, SessionID: sessionID}
}

// QueueEntry is a waiting matchmaking request.
type QueueEntry struct {
	Account  string    `json:"account"`
	Score    int64     `json:"score"`
	QueuedAt time.Time `json:"queued_at"`
}

// ChallengeRecord is an outstanding challenge keyed by its challenger.
type ChallengeRecord struct {
	Challenger string     `json:"challenger"`
	Opponent   string     `json:"opponent"`
	Award      AwardTerms `json:"award"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ScoreEntry is one ledger line.
type ScoreEntry struct {
	Account string `json:"account"`
	Score   int64  `json:"score"`
}

// GameResult is the archived outcome of a finished session.
type GameResult struct {
	SessionID  string
	First      string
	Second     string
	Winner     string
	Result     string // first | second | draw
	Award      AwardTerms
	Source     Source
	Moves      int
	FinalBoard string
	StartedAt  time.Time
	EndedAt    time.Time
}

// ResultOf builds the archive record of a finished session.
func ResultOf(s *Session) GameResult {
	res := GameResult{
		SessionID:  s.ID,
		First:      s.First,
		Second:     s.Second,
		Result:     "draw",
		Award:      s.Award,
		Source:     s.Source,
		Moves:      s.Moves,
		FinalBoard: board.Text(s.Board),
		StartedAt:  s.CreatedAt,
		EndedAt:    s.LastActivity,
	}
	if w, ok := s.Lifecycle.Winner(); ok {
		res.Winner = w
		if w == s.First {
			res.Result = "first"
		} else {
			res.Result = "second"
		}
	}
	return res
}
