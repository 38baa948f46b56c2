// Package httpapi exposes the engine over JSON HTTP with fiber.
package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/adapter/c4presenter"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/metrics"
	svc "github.com/park285/Cheese-Connect4-bot/internal/service/connect4"
	"github.com/park285/Cheese-Connect4-bot/pkg/c4dto"
)

// UserHeader carries the caller's account, set by the fronting gateway.
const UserHeader = "X-User-ID"

const localAccount = "account"

type Server struct {
	svc    *svc.Service
	logger *zap.Logger
}

// New builds the fiber app. m may be nil, which disables /metrics.
func New(s *svc.Service, m *metrics.Metrics, logger *zap.Logger) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{svc: s, logger: logger}
	app := fiber.New(fiber.Config{
		AppName:               "c4-api",
		DisableStartupMessage: true,
		ErrorHandler:          srv.handleError,
	})
	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}
	app.Get("/leaderboard", srv.leaderboard)
	app.Get("/queue", srv.queue)
	app.Get("/sessions/:id", srv.session)
	app.Get("/sessions/:id/board.png", srv.sessionImage)

	me := app.Group("/me", requireAccount())
	me.Get("/", srv.profile)
	me.Get("/session", srv.activeSession)
	me.Get("/history", srv.history)
	me.Post("/queue", srv.findMatch)
	me.Delete("/queue", srv.cancelQueue)
	me.Post("/challenges", srv.challenge)
	me.Delete("/challenges", srv.cancelChallenge)
	me.Post("/challenges/respond", srv.respond)
	me.Post("/moves", srv.play)
	return app
}

func requireAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		account := strings.TrimSpace(c.Get(UserHeader))
		if account == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(c4dto.DomainError{
				Code:    string(domain.CodeInvalidArgument),
				Message: "missing " + UserHeader,
			})
		}
		c.Locals(localAccount, account)
		return c.Next()
	}
}

func accountOf(c *fiber.Ctx) string {
	v, _ := c.Locals(localAccount).(string)
	return v
}

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch domain.Code(code) {
	case domain.CodeNotFound, domain.CodeNoActiveSession:
		return fiber.StatusNotFound
	case domain.CodeInvalidColumn, domain.CodeInvalidArgument, domain.CodeSelfPlayNotAllowed:
		return fiber.StatusBadRequest
	case domain.CodeAlreadyHasActiveSession, domain.CodeAlreadyQueued, domain.CodeOutstandingChallengeConflict,
		domain.CodeNotPlayerTurn, domain.CodeNotRunning, domain.CodeColumnFull:
		return fiber.StatusConflict
	}
	switch code {
	case c4presenter.CodeConflict:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(c4dto.DomainError{Code: strconv.Itoa(fe.Code), Message: fe.Message})
	}
	d := c4presenter.ToDTOError(err)
	status := statusFor(d.Code)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("c4_api_error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(d)
}

func badRequest(msg string) error {
	return &domain.RejectError{Code: domain.CodeInvalidArgument, Reason: msg}
}

func (s *Server) leaderboard(c *fiber.Ctx) error {
	entries, err := s.svc.Leaderboard(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(c4presenter.ToDTOScores(entries))
}

func (s *Server) queue(c *fiber.Ctx) error {
	entries, err := s.svc.QueueEntries(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(c4presenter.ToDTOQueue(entries))
}

func (s *Server) session(c *fiber.Ctx) error {
	sess, err := s.svc.Session(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(c4presenter.ToDTOSession(sess))
}

func (s *Server) sessionImage(c *fiber.Ctx) error {
	sess, err := s.svc.Session(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	img, err := s.svc.RenderBoard(c.UserContext(), sess, nil, nil)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(img)
}

func (s *Server) profile(c *fiber.Ctx) error {
	ctx, account := c.UserContext(), accountOf(c)
	score, err := s.svc.Score(ctx, account)
	if err != nil {
		return err
	}
	st, err := s.svc.Status(ctx, account)
	if err != nil {
		return err
	}
	out, err := s.svc.Outgoing(ctx, account)
	if err != nil {
		return err
	}
	in, err := s.svc.Incoming(ctx, account)
	if err != nil {
		return err
	}
	return c.JSON(c4presenter.ToDTOProfile(account, score, st, out, in))
}

func (s *Server) activeSession(c *fiber.Ctx) error {
	sess, err := s.svc.ActiveSession(c.UserContext(), accountOf(c))
	if err != nil {
		return err
	}
	if sess == nil {
		return domain.ErrNoActiveSession
	}
	return c.JSON(c4presenter.ToDTOSession(sess))
}

func (s *Server) history(c *fiber.Ctx) error {
	games, err := s.svc.History(c.UserContext(), accountOf(c), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(c4presenter.ToDTOHistory(games))
}

func (s *Server) findMatch(c *fiber.Ctx) error {
	sess, err := s.svc.FindMatch(c.UserContext(), accountOf(c))
	if err != nil {
		return err
	}
	if sess == nil {
		return c.Status(fiber.StatusAccepted).JSON(c4dto.MatchResponse{Queued: true})
	}
	return c.Status(fiber.StatusCreated).JSON(c4dto.MatchResponse{Session: c4presenter.ToDTOSession(sess)})
}

func (s *Server) cancelQueue(c *fiber.Ctx) error {
	if err := s.svc.CancelQueue(c.UserContext(), accountOf(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) challenge(c *fiber.Ctx) error {
	var req c4dto.ChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	rec, err := s.svc.Challenge(c.UserContext(), accountOf(c), strings.TrimSpace(req.Opponent), c4presenter.FromAward(req.Award))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(c4presenter.ToDTOChallenge(rec))
}

func (s *Server) cancelChallenge(c *fiber.Ctx) error {
	if err := s.svc.CancelChallenge(c.UserContext(), accountOf(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) respond(c *fiber.Ctx) error {
	var req c4dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	sess, err := s.svc.Respond(c.UserContext(), accountOf(c), strings.TrimSpace(req.Challenger), req.Accept)
	if err != nil {
		return err
	}
	if sess == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(c4presenter.ToDTOSession(sess))
}

func (s *Server) play(c *fiber.Ctx) error {
	var req c4dto.PlayRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	if req.Column == nil {
		return badRequest("column is required")
	}
	out, err := s.svc.PlayTurn(c.UserContext(), accountOf(c), *req.Column)
	if err != nil {
		return err
	}
	return c.JSON(c4presenter.ToDTOMove(out))
}
