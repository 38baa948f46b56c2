// Package connect4 is the facade the bot and HTTP API talk to. Each call is
// one atomic store update; committed events then fan out to sinks, metrics
// and the results archive.
package connect4

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/board"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/idgen"
	"github.com/park285/Cheese-Connect4-bot/internal/ledger"
	"github.com/park285/Cheese-Connect4-bot/internal/metrics"
	"github.com/park285/Cheese-Connect4-bot/internal/pvp"
	"github.com/park285/Cheese-Connect4-bot/internal/pvpc4"
	"github.com/park285/Cheese-Connect4-bot/internal/pvpqueue"
	"github.com/park285/Cheese-Connect4-bot/internal/state"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

const maxHistoryLimit = 50

// operation names used for metrics labels and logs
const (
	OpFindMatch       = "find_match"
	OpCancelQueue     = "cancel_queue"
	OpChallenge       = "challenge"
	OpRespond         = "respond"
	OpCancelChallenge = "cancel_challenge"
	OpPlayTurn        = "play_turn"
)

type Config struct {
	ScoreWindow     int64
	ClosestFirst    bool
	QueueAward      domain.AwardTerms
	HistoryLimit    int
	LeaderboardSize int
	// Clock overrides time.Now in every component.
	Clock func() time.Time
	// StartingSlot overrides the first-mover derivation.
	StartingSlot func(idBytes []byte) board.Slot
}

// Deps are the collaborators of a Service. Store and IDs are required.
type Deps struct {
	Store    store.Backend
	IDs      idgen.Source
	Results  pvpc4.ResultStore
	Renderer BoardRenderer
	Sink     events.Sink
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type Service struct {
	store      store.Backend
	ledger     *ledger.Ledger
	manager    *pvpc4.Manager
	queue      *pvpqueue.Queue
	challenges *pvp.Challenges
	results    pvpc4.ResultStore
	renderer   BoardRenderer
	sink       events.Sink
	metrics    *metrics.Metrics
	cfg        Config
	logger     *zap.Logger
}

func NewService(d Deps, cfg Config) (*Service, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("connect4: store is required")
	}
	if d.IDs == nil {
		return nil, fmt.Errorf("connect4: id source is required")
	}
	if d.Sink == nil {
		d.Sink = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if cfg.QueueAward == (domain.AwardTerms{}) {
		cfg.QueueAward = domain.DefaultAward
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 5
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 10
	}

	var (
		mopts []pvpc4.Option
		qopts = []pvpqueue.Option{pvpqueue.WithAward(cfg.QueueAward)}
		copts []pvp.Option
	)
	if cfg.ScoreWindow > 0 {
		qopts = append(qopts, pvpqueue.WithScoreWindow(cfg.ScoreWindow))
	}
	if cfg.ClosestFirst {
		qopts = append(qopts, pvpqueue.WithClosestScoreFirst())
	}
	if cfg.Clock != nil {
		mopts = append(mopts, pvpc4.WithClock(cfg.Clock))
		qopts = append(qopts, pvpqueue.WithClock(cfg.Clock))
		copts = append(copts, pvp.WithClock(cfg.Clock))
	}
	if cfg.StartingSlot != nil {
		mopts = append(mopts, pvpc4.WithStartingSlot(cfg.StartingSlot))
	}

	l := ledger.New()
	m := pvpc4.NewManager(d.IDs, l, mopts...)
	return &Service{
		store:      d.Store,
		ledger:     l,
		manager:    m,
		queue:      pvpqueue.New(m, l, qopts...),
		challenges: pvp.New(m, copts...),
		results:    d.Results,
		renderer:   d.Renderer,
		sink:       d.Sink,
		metrics:    d.Metrics,
		cfg:        cfg,
		logger:     d.Logger,
	}, nil
}

// FindMatch queues account, or pairs it right away. A nil session means
// the account is now waiting.
func (s *Service) FindMatch(ctx context.Context, account string) (*domain.Session, error) {
	var out *domain.Session
	err := s.update(ctx, OpFindMatch, account, func(ctx context.Context, tx *state.Tx) error {
		sess, err := s.queue.Enqueue(ctx, tx, account)
		out = sess
		return err
	})
	return out, err
}

func (s *Service) CancelQueue(ctx context.Context, account string) error {
	return s.update(ctx, OpCancelQueue, account, func(ctx context.Context, tx *state.Tx) error {
		return s.queue.Cancel(ctx, tx, account)
	})
}

// Challenge records a challenge from challenger to opponent. A nil award
// uses the queue award.
func (s *Service) Challenge(ctx context.Context, challenger, opponent string, award *domain.AwardTerms) (*domain.ChallengeRecord, error) {
	terms := s.cfg.QueueAward
	if award != nil {
		terms = *award
	}
	var out *domain.ChallengeRecord
	err := s.update(ctx, OpChallenge, challenger, func(ctx context.Context, tx *state.Tx) error {
		rec, err := s.challenges.Challenge(ctx, tx, challenger, opponent, terms)
		out = rec
		return err
	})
	return out, err
}

// Respond accepts or rejects the challenge challenger sent to responder.
// Accepting returns the new session.
func (s *Service) Respond(ctx context.Context, responder, challenger string, accept bool) (*domain.Session, error) {
	var out *domain.Session
	err := s.update(ctx, OpRespond, responder, func(ctx context.Context, tx *state.Tx) error {
		sess, err := s.challenges.Respond(ctx, tx, responder, challenger, accept)
		out = sess
		return err
	})
	return out, err
}

func (s *Service) CancelChallenge(ctx context.Context, challenger string) error {
	return s.update(ctx, OpCancelChallenge, challenger, func(ctx context.Context, tx *state.Tx) error {
		return s.challenges.Cancel(ctx, tx, challenger)
	})
}

func (s *Service) PlayTurn(ctx context.Context, account string, column int) (*pvpc4.Outcome, error) {
	var out *pvpc4.Outcome
	err := s.update(ctx, OpPlayTurn, account, func(ctx context.Context, tx *state.Tx) error {
		o, err := s.manager.PlayTurn(ctx, tx, account, column)
		out = o
		return err
	})
	return out, err
}

// ActiveSession returns the running session of account, nil when it has none.
func (s *Service) ActiveSession(ctx context.Context, account string) (*domain.Session, error) {
	var out *domain.Session
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		sess, err := s.manager.ActiveSession(ctx, tx, account)
		out = sess
		return err
	})
	return out, err
}

func (s *Service) Session(ctx context.Context, id string) (*domain.Session, error) {
	var out *domain.Session
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		sess, err := tx.Session(ctx, id)
		out = sess
		return err
	})
	if err == nil && out == nil {
		return nil, domain.ErrNotFound
	}
	return out, err
}

// Status returns the activity record of account; the zero value means idle.
func (s *Service) Status(ctx context.Context, account string) (domain.PlayerStatus, error) {
	var out domain.PlayerStatus
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		st, err := tx.Status(ctx, account)
		out = st
		return err
	})
	return out, err
}

func (s *Service) Score(ctx context.Context, account string) (int64, error) {
	var out int64
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		v, err := s.ledger.Get(ctx, tx, account)
		out = v
		return err
	})
	return out, err
}

// Leaderboard returns the top accounts; limit <= 0 uses the configured size.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	if limit <= 0 {
		limit = s.cfg.LeaderboardSize
	}
	var out []domain.ScoreEntry
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		entries, err := s.ledger.Leaderboard(ctx, tx, limit)
		out = entries
		return err
	})
	return out, err
}

// Incoming lists challenges waiting on account, oldest first.
func (s *Service) Incoming(ctx context.Context, account string) ([]domain.ChallengeRecord, error) {
	var out []domain.ChallengeRecord
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		recs, err := s.challenges.Incoming(ctx, tx, account)
		out = recs
		return err
	})
	return out, err
}

// Outgoing returns the challenge account holds, nil when none.
func (s *Service) Outgoing(ctx context.Context, account string) (*domain.ChallengeRecord, error) {
	var out *domain.ChallengeRecord
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		rec, err := s.challenges.Outgoing(ctx, tx, account)
		out = rec
		return err
	})
	return out, err
}

func (s *Service) QueueEntries(ctx context.Context) ([]domain.QueueEntry, error) {
	var out []domain.QueueEntry
	err := s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		entries, err := s.queue.Entries(ctx, tx)
		out = entries
		return err
	})
	return out, err
}

// History returns the latest archived games of account. Without an archive
// it returns nothing.
func (s *Service) History(ctx context.Context, account string, limit int) ([]domain.GameResult, error) {
	if s.results == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.results.RecentResults(ctx, account, limit)
}

// Counts reports running sessions and waiting accounts.
func (s *Service) Counts(ctx context.Context) (activeSessions, queued int, err error) {
	err = s.view(ctx, func(ctx context.Context, tx *state.Tx) error {
		ids, err := tx.SessionIDs(ctx)
		if err != nil {
			return err
		}
		waiting, err := tx.Queue(ctx)
		if err != nil {
			return err
		}
		activeSessions, queued = len(ids), len(waiting)
		return nil
	})
	return activeSessions, queued, err
}

// RenderBoard draws s as PNG. last marks the most recent stone when set.
// names maps accounts to the labels drawn in the HUD; nil shows accounts.
func (s *Service) RenderBoard(ctx context.Context, sess *domain.Session, last *CellRef, names func(account string) string) ([]byte, error) {
	if s.renderer == nil {
		return nil, errors.New("connect4: renderer not configured")
	}
	if names == nil {
		names = func(account string) string { return account }
	}
	opts := RenderOptions{
		HUDHeader: fmt.Sprintf("%s vs %s", names(sess.First), names(sess.Second)),
		HUDStatus: hudStatus(sess, names),
		Highlight: last,
	}
	if winner, ok := sess.Lifecycle.Winner(); ok {
		slot, _ := sess.SlotOf(winner)
		for _, p := range board.WinningLine(sess.Board, slot) {
			opts.Winning = append(opts.Winning, CellRef{Column: p.Column, Row: p.Row})
		}
	}
	return s.renderer.RenderPNG(ctx, sess.Board, opts)
}

func hudStatus(sess *domain.Session, names func(string) string) string {
	if winner, ok := sess.Lifecycle.Winner(); ok {
		return fmt.Sprintf("%s wins", names(winner))
	}
	if sess.Lifecycle.IsDraw() {
		return "Draw"
	}
	return fmt.Sprintf("Move %d - %s to play", sess.Moves+1, names(sess.AccountOf(sess.Turn)))
}

// Close releases the archive and the store.
func (s *Service) Close() error {
	var errs []error
	if s.results != nil {
		errs = append(errs, s.results.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

func (s *Service) update(ctx context.Context, op, account string, fn func(ctx context.Context, tx *state.Tx) error) error {
	started := time.Now()
	defer s.metrics.ObserveOp(op, started)

	var outbox []events.Event
	err := s.store.Update(ctx, func(kv store.KV) error {
		tx := state.NewTx(kv)
		if err := fn(ctx, tx); err != nil {
			return err
		}
		outbox = tx.Outbox()
		return nil
	})
	if err != nil {
		if code := domain.CodeOf(err); code != "" {
			s.metrics.Reject(op, string(code))
			s.logger.Debug("c4_rejected",
				zap.String("op", op),
				zap.String("account", account),
				zap.String("code", string(code)),
			)
		} else {
			s.logger.Warn("c4_op_failed",
				zap.String("op", op),
				zap.String("account", account),
				zap.Error(err),
			)
		}
		return err
	}
	s.dispatch(ctx, outbox)
	return nil
}

func (s *Service) view(ctx context.Context, fn func(ctx context.Context, tx *state.Tx) error) error {
	return s.store.View(ctx, func(kv store.KV) error {
		return fn(ctx, state.NewTx(kv))
	})
}

// dispatch runs after commit. Failures are logged; the state change stands.
func (s *Service) dispatch(ctx context.Context, outbox []events.Event) {
	for _, e := range outbox {
		switch e.Kind {
		case events.SessionCreated:
			if e.Session != nil {
				s.metrics.SessionCreated(string(e.Session.Source))
			}
		case events.MovePlayed:
			s.metrics.MovePlayed()
		case events.SessionFinished:
			if e.Session != nil {
				s.metrics.SessionFinished(finishLabel(e.Session))
				s.archive(ctx, e.Session)
			}
		}
		if err := s.sink.Publish(ctx, e); err != nil {
			s.logger.Warn("c4_event_publish_failed",
				zap.String("kind", string(e.Kind)),
				zap.String("session_id", e.SessionID),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) archive(ctx context.Context, sess *domain.Session) {
	if s.results == nil {
		return
	}
	if err := s.results.SaveResult(ctx, domain.ResultOf(sess)); err != nil {
		s.logger.Warn("c4_result_archive_failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}

func finishLabel(sess *domain.Session) string {
	if sess.Lifecycle.IsDraw() {
		return "draw"
	}
	return "won"
}
