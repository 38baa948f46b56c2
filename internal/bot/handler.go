// Package bot turns prefixed KakaoTalk messages into Connect-Four commands.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/adapter/c4presenter"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/irisfast"
	svc "github.com/park285/Cheese-Connect4-bot/internal/service/connect4"
)

const handleTimeout = 10 * time.Second

type Options struct {
	Prefix       string
	RoomAllowed  func(room string) bool
	BoardImages  bool
	HistoryLimit int
	RankingLimit int
}

type Handler struct {
	svc    *svc.Service
	dir    *Directory
	fmt    *c4presenter.Formatter
	out    *c4presenter.Presenter
	opts   Options
	logger *zap.Logger
}

// NewHandler builds a handler. Replies show display names from dir.
func NewHandler(s *svc.Service, dir *Directory, f *c4presenter.Formatter, out *c4presenter.Presenter, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RankingLimit <= 0 {
		opts.RankingLimit = 10
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if opts.RoomAllowed == nil {
		opts.RoomAllowed = func(string) bool { return true }
	}
	return &Handler{svc: s, dir: dir, fmt: f.WithNames(dir.DisplayName), out: out, opts: opts, logger: logger}
}

// Accepts reports whether msg is a command this bot should handle.
func (h *Handler) Accepts(msg *irisfast.Message) bool {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return false
	}
	if !strings.HasPrefix(strings.TrimSpace(msg.Msg), h.opts.Prefix) {
		return false
	}
	return h.opts.RoomAllowed(msg.Room)
}

// AccountOf is the ledger identity of a chat participant: the Kakao user
// id, or the display name when the message carries no id.
func AccountOf(msg *irisfast.Message) string {
	if id := msg.UserID(); id != "" {
		return id
	}
	return msg.SenderName()
}

// Handle runs one command and replies to the originating room.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) {
	if !h.Accepts(msg) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Msg), h.opts.Prefix))
	fields := strings.Fields(raw)
	room := msg.Room
	account := AccountOf(msg)
	if account == "" {
		h.reply(room, h.fmt.Error(domain.ErrInvalidAccount))
		return
	}
	if err := h.dir.Remember(ctx, room, account, msg.SenderName()); err != nil {
		h.logger.Warn("c4_directory_failed", zap.String("room", room), zap.Error(err))
	}
	if len(fields) == 0 {
		h.reply(room, h.fmt.Help())
		return
	}
	cmd, args := fields[0], fields[1:]

	if col, err := strconv.Atoi(cmd); err == nil {
		h.play(ctx, room, account, col-1)
		return
	}

	switch cmd {
	case "도움", "help":
		h.reply(room, h.fmt.Help())
	case "찾기":
		h.findMatch(ctx, room, account)
	case "취소":
		if err := h.svc.CancelQueue(ctx, account); err != nil {
			h.fail(room, err)
			return
		}
		h.reply(room, h.fmt.QueueCancelled(account))
	case "도전":
		h.challenge(ctx, room, account, args)
	case "수락", "거절":
		if len(args) == 0 {
			h.reply(room, h.fmt.Usage("respond", cmd))
			return
		}
		challenger, ok := h.resolve(ctx, room, args[0])
		if !ok {
			return
		}
		h.respond(ctx, room, account, challenger, cmd == "수락")
	case "도전취소":
		if err := h.svc.CancelChallenge(ctx, account); err != nil {
			h.fail(room, err)
			return
		}
		h.reply(room, h.fmt.ChallengeCancelled(account))
	case "현황":
		h.status(ctx, room, account)
	case "점수":
		h.profile(ctx, room, account)
	case "랭킹":
		entries, err := h.svc.Leaderboard(ctx, h.opts.RankingLimit)
		if err != nil {
			h.fail(room, err)
			return
		}
		h.reply(room, h.fmt.Ranking(c4presenter.ToDTOScores(entries), h.opts.RankingLimit))
	case "기록":
		games, err := h.svc.History(ctx, account, h.opts.HistoryLimit)
		if err != nil {
			h.fail(room, err)
			return
		}
		h.reply(room, h.fmt.History(c4presenter.ToDTOHistory(games)))
	default:
		h.reply(room, h.fmt.Help())
	}
}

func (h *Handler) findMatch(ctx context.Context, room, account string) {
	sess, err := h.svc.FindMatch(ctx, account)
	if err != nil {
		h.fail(room, err)
		return
	}
	if sess == nil {
		score, err := h.svc.Score(ctx, account)
		if err != nil {
			h.fail(room, err)
			return
		}
		h.reply(room, h.fmt.Waiting(account, score))
		return
	}
	h.board(ctx, room, h.fmt.Started(c4presenter.ToDTOSession(sess)), sess, nil)
}

func (h *Handler) challenge(ctx context.Context, room, account string, args []string) {
	if len(args) == 0 {
		h.reply(room, h.fmt.Usage("challenge", "도전"))
		return
	}
	var award *domain.AwardTerms
	if len(args) >= 3 {
		win, werr := strconv.ParseUint(args[1], 10, 32)
		lose, lerr := strconv.ParseUint(args[2], 10, 32)
		if werr != nil || lerr != nil {
			h.reply(room, h.fmt.Usage("challenge", "도전"))
			return
		}
		award = &domain.AwardTerms{Win: uint32(win), Lose: uint32(lose)}
	}
	target, ok := h.resolve(ctx, room, args[0])
	if !ok {
		return
	}
	rec, err := h.svc.Challenge(ctx, account, target, award)
	if err != nil {
		h.fail(room, err)
		return
	}
	h.reply(room, h.fmt.ChallengeSent(c4presenter.ToDTOChallenge(rec)))
}

func (h *Handler) respond(ctx context.Context, room, responder, challenger string, accept bool) {
	sess, err := h.svc.Respond(ctx, responder, challenger, accept)
	if err != nil {
		h.fail(room, err)
		return
	}
	if !accept {
		h.reply(room, h.fmt.ChallengeRejected(responder, challenger))
		return
	}
	h.board(ctx, room, h.fmt.Started(c4presenter.ToDTOSession(sess)), sess, nil)
}

func (h *Handler) play(ctx context.Context, room, account string, column int) {
	out, err := h.svc.PlayTurn(ctx, account, column)
	if err != nil {
		h.fail(room, err)
		return
	}
	last := &svc.CellRef{Column: out.Column, Row: out.Row}
	h.board(ctx, room, h.fmt.Move(c4presenter.ToDTOMove(out)), out.Session, last)
}

func (h *Handler) status(ctx context.Context, room, account string) {
	sess, err := h.svc.ActiveSession(ctx, account)
	if err != nil {
		h.fail(room, err)
		return
	}
	if sess == nil {
		h.reply(room, h.fmt.Status(nil))
		return
	}
	h.board(ctx, room, h.fmt.Status(c4presenter.ToDTOSession(sess)), sess, nil)
}

func (h *Handler) profile(ctx context.Context, room, account string) {
	score, err := h.svc.Score(ctx, account)
	if err != nil {
		h.fail(room, err)
		return
	}
	st, err := h.svc.Status(ctx, account)
	if err != nil {
		h.fail(room, err)
		return
	}
	out, err := h.svc.Outgoing(ctx, account)
	if err != nil {
		h.fail(room, err)
		return
	}
	in, err := h.svc.Incoming(ctx, account)
	if err != nil {
		h.fail(room, err)
		return
	}
	h.reply(room, h.fmt.Profile(c4presenter.ToDTOProfile(account, score, st, out, in)))
}

// board sends text plus the rendered image. A render failure still sends the text.
func (h *Handler) board(ctx context.Context, room, text string, sess *domain.Session, last *svc.CellRef) {
	var img []byte
	if h.opts.BoardImages {
		png, err := h.svc.RenderBoard(ctx, sess, last, h.dir.DisplayName)
		if err != nil {
			h.logger.Warn("c4_render_failed", zap.String("session_id", sess.ID), zap.Error(err))
		} else {
			img = png
		}
	}
	if err := h.out.Board(room, text, img); err != nil {
		h.logger.Warn("c4_reply_failed", zap.String("room", room), zap.Error(err))
	}
}

// resolve turns a typed player name into an account id, replying on failure.
func (h *Handler) resolve(ctx context.Context, room, arg string) (string, bool) {
	name := sanitizeAccount(arg)
	account, err := h.dir.Resolve(ctx, room, name)
	switch {
	case err == nil:
		return account, true
	case errors.Is(err, ErrUnknownPlayer):
		h.reply(room, h.fmt.UnknownPlayer(name))
	case errors.Is(err, ErrAmbiguousPlayer):
		h.reply(room, h.fmt.AmbiguousPlayer(name))
	default:
		h.fail(room, err)
	}
	return "", false
}

func (h *Handler) reply(room, text string) {
	if err := h.out.Text(room, text); err != nil {
		h.logger.Warn("c4_reply_failed", zap.String("room", room), zap.Error(err))
	}
}

func (h *Handler) fail(room string, err error) {
	if !domain.IsRejection(err) {
		h.logger.Error("c4_command_failed", zap.String("room", room), zap.Error(err))
	}
	h.reply(room, h.fmt.Error(err))
}

func sanitizeAccount(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
