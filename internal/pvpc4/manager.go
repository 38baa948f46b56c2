// Package pvpc4 runs Connect-Four sessions: creation, move application and
// settlement on completion.
package pvpc4

import (
	"context"
	"time"

	"github.com/park285/Cheese-Connect4-bot/internal/board"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/idgen"
	"github.com/park285/Cheese-Connect4-bot/internal/ledger"
	"github.com/park285/Cheese-Connect4-bot/internal/state"
)

// createTag is the domain tag for session id bytes.
const createTag = "create"

type Manager struct {
	ids          idgen.Source
	ledger       *ledger.Ledger
	clock        func() time.Time
	startingSlot func(idBytes []byte) board.Slot
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.clock = now } }

// WithStartingSlot overrides how the first mover is chosen from id bytes.
func WithStartingSlot(fn func(idBytes []byte) board.Slot) Option {
	return func(m *Manager) { m.startingSlot = fn }
}

func NewManager(ids idgen.Source, l *ledger.Ledger, opts ...Option) *Manager {
	m := &Manager{ids: ids, ledger: l, clock: time.Now, startingSlot: domain.DeriveStartingSlot}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreateSession starts a game between two idle accounts. first takes the
// First slot; who moves first comes from the id bytes.
func (m *Manager) CreateSession(ctx context.Context, tx *state.Tx, first, second string, award domain.AwardTerms, source domain.Source) (*domain.Session, error) {
	if first == "" || second == "" {
		return nil, domain.ErrInvalidAccount
	}
	if first == second {
		return nil, domain.ErrSelfPlayNotAllowed
	}
	for _, acct := range []string{first, second} {
		st, err := tx.Status(ctx, acct)
		if err != nil {
			return nil, err
		}
		if st.Kind == domain.StatusPlaying {
			return nil, domain.ErrAlreadyHasActiveSession
		}
	}

	nonce, err := tx.NextNonce(ctx)
	if err != nil {
		return nil, err
	}
	id := idgen.SessionID(m.ids.Bytes(createTag, nonce))
	now := m.clock()
	s := &domain.Session{
		ID:           id.String(),
		First:        first,
		Second:       second,
		Turn:         m.startingSlot(id[:]),
		Lifecycle:    domain.Running(),
		Award:        award,
		Source:       source,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := tx.PutSession(ctx, s); err != nil {
		return nil, err
	}
	if err := tx.PutStatus(first, domain.Playing(s.ID)); err != nil {
		return nil, err
	}
	if err := tx.PutStatus(second, domain.Playing(s.ID)); err != nil {
		return nil, err
	}
	tx.Emit(events.Event{
		Kind:      events.SessionCreated,
		At:        now,
		Account:   first,
		Opponent:  second,
		SessionID: s.ID,
		Award:     &award,
		Session:   s.Clone(),
	})
	return s, nil
}

// ActiveSession returns the running session of account, nil when idle.
func (m *Manager) ActiveSession(ctx context.Context, tx *state.Tx, account string) (*domain.Session, error) {
	st, err := tx.Status(ctx, account)
	if err != nil || st.Kind != domain.StatusPlaying {
		return nil, err
	}
	return tx.Session(ctx, st.SessionID)
}

// PlayTurn applies a move to the caller's active session. A finishing move
// settles the ledger and removes the session and both player records.
func (m *Manager) PlayTurn(ctx context.Context, tx *state.Tx, account string, column int) (*Outcome, error) {
	cur, err := m.ActiveSession(ctx, tx, account)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, domain.ErrNoActiveSession
	}
	now := m.clock()
	next, row, err := ApplyMove(cur, account, column, now)
	if err != nil {
		return nil, err
	}
	slot, _ := cur.SlotOf(account)
	tx.Emit(events.Event{
		Kind:      events.MovePlayed,
		At:        now,
		Account:   account,
		Opponent:  next.Opponent(account),
		SessionID: next.ID,
		Move:      &events.Move{Column: column, Row: row},
		Session:   next.Clone(),
	})

	if next.Lifecycle.IsRunning() {
		if err := tx.PutSession(ctx, next); err != nil {
			return nil, err
		}
	} else if err := m.finish(ctx, tx, next, now); err != nil {
		return nil, err
	}
	return &Outcome{Session: next, Account: account, Slot: slot, Column: column, Row: row}, nil
}

func (m *Manager) finish(ctx context.Context, tx *state.Tx, s *domain.Session, now time.Time) error {
	if winner, ok := s.Lifecycle.Winner(); ok {
		if err := m.ledger.Settle(ctx, tx, winner, s.Opponent(winner), s.Award); err != nil {
			return err
		}
	}
	if err := tx.DeleteSession(ctx, s.ID); err != nil {
		return err
	}
	tx.ClearStatus(s.First)
	tx.ClearStatus(s.Second)
	winner, _ := s.Lifecycle.Winner()
	tx.Emit(events.Event{
		Kind:      events.SessionFinished,
		At:        now,
		Account:   winner,
		Opponent:  s.Opponent(winner),
		SessionID: s.ID,
		Session:   s.Clone(),
	})
	return nil
}

// ApplyMove validates and applies one move without touching s. Checks run
// in order: running, turn, column range, column capacity. It returns the
// next session state and the row the stone landed on.
func ApplyMove(s *domain.Session, account string, column int, now time.Time) (*domain.Session, int, error) {
	if !s.Lifecycle.IsRunning() {
		return nil, -1, domain.ErrNotRunning
	}
	slot, ok := s.SlotOf(account)
	if !ok || slot != s.Turn {
		return nil, -1, domain.ErrNotPlayerTurn
	}
	if column < 0 || column >= board.Columns {
		return nil, -1, domain.ErrInvalidColumn
	}
	next := s.Clone()
	row, err := board.PlaceStone(&next.Board, column, slot)
	if err != nil {
		return nil, -1, domain.ErrColumnFull
	}
	next.Moves++
	next.LastActivity = now
	switch {
	case board.DetectWin(next.Board, slot):
		next.Lifecycle = domain.Finished(account)
	case board.IsFull(next.Board):
		next.Lifecycle = domain.Draw()
	default:
		next.Turn = slot.Other()
	}
	return next, row, nil
}
