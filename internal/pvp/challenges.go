// Package pvp handles direct challenges between two accounts.
package pvp

import (
	"context"
	"slices"
	"time"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/state"
)

// SessionCreator starts a game between two idle accounts.
type SessionCreator interface {
	CreateSession(ctx context.Context, tx *state.Tx, first, second string, award domain.AwardTerms, source domain.Source) (*domain.Session, error)
}

// Challenges keeps at most one outstanding challenge per challenger. The
// record lives in the challenger's PlayerStatus; an account may be the
// target of several challengers at once.
type Challenges struct {
	sessions SessionCreator
	clock    func() time.Time
}

type Option func(*Challenges)

func WithClock(now func() time.Time) Option { return func(c *Challenges) { c.clock = now } }

func New(sessions SessionCreator, opts ...Option) *Challenges {
	c := &Challenges{sessions: sessions, clock: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Challenge records an offer from challenger to opponent with the given terms.
func (c *Challenges) Challenge(ctx context.Context, tx *state.Tx, challenger, opponent string, award domain.AwardTerms) (*domain.ChallengeRecord, error) {
	if challenger == "" || opponent == "" {
		return nil, domain.ErrInvalidAccount
	}
	if challenger == opponent {
		return nil, domain.ErrSelfPlayNotAllowed
	}
	mine, theirs, err := statuses(ctx, tx, challenger, opponent)
	if err != nil {
		return nil, err
	}
	if mine.Kind == domain.StatusPlaying || theirs.Kind == domain.StatusPlaying {
		return nil, domain.ErrAlreadyHasActiveSession
	}
	if theirs.Kind == domain.StatusChallenging {
		return nil, domain.ErrCounterChallenge
	}
	switch mine.Kind {
	case domain.StatusChallenging:
		return nil, domain.ErrAlreadyChallenging
	case domain.StatusQueued:
		return nil, domain.ErrAlreadyQueued
	}

	now := c.clock()
	if err := tx.PutStatus(challenger, domain.Challenging(opponent, award, now)); err != nil {
		return nil, err
	}
	incoming, err := tx.Incoming(ctx, opponent)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(incoming, challenger) {
		if err := tx.PutIncoming(opponent, append(incoming, challenger)); err != nil {
			return nil, err
		}
	}
	rec := &domain.ChallengeRecord{Challenger: challenger, Opponent: opponent, Award: award, CreatedAt: now}
	tx.Emit(events.Event{Kind: events.ChallengeCreated, At: now, Account: challenger, Opponent: opponent, Award: &rec.Award})
	return rec, nil
}

// Respond answers the challenge challenger aimed at responder. Accepting
// starts a session with responder in the First slot. The record is removed
// either way. The returned session is nil on reject.
func (c *Challenges) Respond(ctx context.Context, tx *state.Tx, responder, challenger string, accept bool) (*domain.Session, error) {
	if responder == "" || challenger == "" {
		return nil, domain.ErrInvalidAccount
	}
	if responder == challenger {
		return nil, domain.ErrSelfPlayNotAllowed
	}
	mine, theirs, err := statuses(ctx, tx, responder, challenger)
	if err != nil {
		return nil, err
	}
	if mine.Kind == domain.StatusPlaying || theirs.Kind == domain.StatusPlaying {
		return nil, domain.ErrAlreadyHasActiveSession
	}
	switch mine.Kind {
	case domain.StatusChallenging:
		return nil, domain.ErrAlreadyChallenging
	case domain.StatusQueued:
		if accept {
			return nil, domain.ErrAlreadyQueued
		}
	}
	if theirs.Kind != domain.StatusChallenging || theirs.Opponent != responder {
		return nil, domain.ErrNotFound
	}

	award := theirs.Award
	if err := c.remove(ctx, tx, challenger, responder); err != nil {
		return nil, err
	}
	now := c.clock()
	if !accept {
		tx.Emit(events.Event{Kind: events.ChallengeRejected, At: now, Account: responder, Opponent: challenger, Award: &award})
		return nil, nil
	}
	s, err := c.sessions.CreateSession(ctx, tx, responder, challenger, award, domain.SourceChallenge)
	if err != nil {
		return nil, err
	}
	tx.Emit(events.Event{Kind: events.ChallengeAccepted, At: now, Account: responder, Opponent: challenger, SessionID: s.ID, Award: &award})
	return s, nil
}

// Cancel withdraws the caller's outstanding challenge.
func (c *Challenges) Cancel(ctx context.Context, tx *state.Tx, challenger string) error {
	st, err := tx.Status(ctx, challenger)
	if err != nil {
		return err
	}
	if st.Kind == domain.StatusPlaying {
		return domain.ErrAlreadyHasActiveSession
	}
	if st.Kind != domain.StatusChallenging {
		return domain.ErrNotFound
	}
	if err := c.remove(ctx, tx, challenger, st.Opponent); err != nil {
		return err
	}
	tx.Emit(events.Event{Kind: events.ChallengeCancelled, At: c.clock(), Account: challenger, Opponent: st.Opponent})
	return nil
}

// Outgoing returns the caller's challenge, nil when it has none.
func (c *Challenges) Outgoing(ctx context.Context, tx *state.Tx, challenger string) (*domain.ChallengeRecord, error) {
	st, err := tx.Status(ctx, challenger)
	if err != nil || st.Kind != domain.StatusChallenging {
		return nil, err
	}
	return &domain.ChallengeRecord{Challenger: challenger, Opponent: st.Opponent, Award: st.Award, CreatedAt: st.ChallengedAt}, nil
}

// Incoming lists outstanding challenges aimed at target, oldest first.
func (c *Challenges) Incoming(ctx context.Context, tx *state.Tx, target string) ([]domain.ChallengeRecord, error) {
	challengers, err := tx.Incoming(ctx, target)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChallengeRecord, 0, len(challengers))
	for _, ch := range challengers {
		rec, err := c.Outgoing(ctx, tx, ch)
		if err != nil {
			return nil, err
		}
		if rec != nil && rec.Opponent == target {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (c *Challenges) remove(ctx context.Context, tx *state.Tx, challenger, target string) error {
	tx.ClearStatus(challenger)
	incoming, err := tx.Incoming(ctx, target)
	if err != nil {
		return err
	}
	return tx.PutIncoming(target, slices.DeleteFunc(incoming, func(a string) bool { return a == challenger }))
}

func statuses(ctx context.Context, tx *state.Tx, a, b string) (domain.PlayerStatus, domain.PlayerStatus, error) {
	sa, err := tx.Status(ctx, a)
	if err != nil {
		return sa, sa, err
	}
	sb, err := tx.Status(ctx, b)
	return sa, sb, err
}
