package pvpc4

import (
	"github.com/park285/Cheese-Connect4-bot/internal/board"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
)

// Outcome is the result of an accepted move.
type Outcome struct {
	// Session is the state after the move. For a finished game it is the
	// final snapshot; the stored session is already gone.
	Session *domain.Session
	Account string
	Slot    board.Slot
	Column  int
	Row     int
}

// Finished reports whether the move ended the game.
func (o *Outcome) Finished() bool { return !o.Session.Lifecycle.IsRunning() }
