// Package pvpqueue pairs waiting accounts of similar score.
package pvpqueue

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/state"
)

// DefaultScoreWindow is the largest score gap two accounts may be paired across.
const DefaultScoreWindow = 10

// SessionCreator starts a game between two idle accounts.
type SessionCreator interface {
	CreateSession(ctx context.Context, tx *state.Tx, first, second string, award domain.AwardTerms, source domain.Source) (*domain.Session, error)
}

// ScoreReader reads the ledger.
type ScoreReader interface {
	Get(ctx context.Context, tx *state.Tx, account string) (int64, error)
}

type Queue struct {
	sessions SessionCreator
	scores   ScoreReader
	window   int64
	award    domain.AwardTerms
	closest  bool
	clock    func() time.Time
}

type Option func(*Queue)

func WithScoreWindow(n int64) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.window = n
		}
	}
}

// WithAward sets the terms of queue-made games.
func WithAward(a domain.AwardTerms) Option { return func(q *Queue) { q.award = a } }

// WithClosestScoreFirst pairs with the nearest score instead of the oldest
// waiting entry; ties break by account id.
func WithClosestScoreFirst() Option { return func(q *Queue) { q.closest = true } }

func WithClock(now func() time.Time) Option { return func(q *Queue) { q.clock = now } }

func New(sessions SessionCreator, scores ScoreReader, opts ...Option) *Queue {
	q := &Queue{
		sessions: sessions,
		scores:   scores,
		window:   DefaultScoreWindow,
		award:    domain.DefaultAward,
		clock:    time.Now,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Enqueue pairs account with a waiting entry within the score window, or
// leaves it waiting. The returned session is nil while waiting.
func (q *Queue) Enqueue(ctx context.Context, tx *state.Tx, account string) (*domain.Session, error) {
	if account == "" {
		return nil, domain.ErrInvalidAccount
	}
	st, err := tx.Status(ctx, account)
	if err != nil {
		return nil, err
	}
	switch st.Kind {
	case domain.StatusPlaying:
		return nil, domain.ErrAlreadyHasActiveSession
	case domain.StatusChallenging:
		return nil, domain.ErrAlreadyChallenging
	case domain.StatusQueued:
		return nil, domain.ErrAlreadyQueued
	}

	score, err := q.scores.Get(ctx, tx, account)
	if err != nil {
		return nil, err
	}
	waiting, err := tx.Queue(ctx)
	if err != nil {
		return nil, err
	}
	match, err := q.pick(ctx, tx, waiting, score)
	if err != nil {
		return nil, err
	}
	if match != "" {
		rest := slices.DeleteFunc(slices.Clone(waiting), func(a string) bool { return a == match })
		if err := tx.PutQueue(rest); err != nil {
			return nil, err
		}
		tx.ClearStatus(match)
		return q.sessions.CreateSession(ctx, tx, account, match, q.award, domain.SourceQueue)
	}

	now := q.clock()
	if err := tx.PutQueue(append(waiting, account)); err != nil {
		return nil, err
	}
	if err := tx.PutStatus(account, domain.Queued(score, now)); err != nil {
		return nil, err
	}
	tx.Emit(events.Event{Kind: events.QueueJoined, At: now, Account: account})
	return nil, nil
}

// pick returns the entry to pair with, "" when none is within the window.
func (q *Queue) pick(ctx context.Context, tx *state.Tx, waiting []string, score int64) (string, error) {
	type candidate struct {
		account string
		dist    int64
	}
	var cands []candidate
	for _, other := range waiting {
		ost, err := tx.Status(ctx, other)
		if err != nil {
			return "", err
		}
		if ost.Kind != domain.StatusQueued {
			continue
		}
		d := distance(score, ost.Score)
		if d > q.window {
			continue
		}
		if !q.closest {
			return other, nil
		}
		cands = append(cands, candidate{other, d})
	}
	if len(cands) == 0 {
		return "", nil
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].account < cands[j].account
	})
	return cands[0].account, nil
}

func distance(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Cancel withdraws a waiting account.
func (q *Queue) Cancel(ctx context.Context, tx *state.Tx, account string) error {
	st, err := tx.Status(ctx, account)
	if err != nil {
		return err
	}
	if st.Kind == domain.StatusPlaying {
		return domain.ErrAlreadyHasActiveSession
	}
	if st.Kind != domain.StatusQueued {
		return domain.ErrNotFound
	}
	waiting, err := tx.Queue(ctx)
	if err != nil {
		return err
	}
	if err := tx.PutQueue(slices.DeleteFunc(waiting, func(a string) bool { return a == account })); err != nil {
		return err
	}
	tx.ClearStatus(account)
	tx.Emit(events.Event{Kind: events.QueueCancelled, At: q.clock(), Account: account})
	return nil
}

// Entries lists waiting accounts in enqueue order.
func (q *Queue) Entries(ctx context.Context, tx *state.Tx) ([]domain.QueueEntry, error) {
	waiting, err := tx.Queue(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QueueEntry, 0, len(waiting))
	for _, a := range waiting {
		st, err := tx.Status(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.QueueEntry{Account: a, Score: st.Score, QueuedAt: st.QueuedAt})
	}
	return out, nil
}
