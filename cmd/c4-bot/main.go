package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/adapter/c4presenter"
	"github.com/park285/Cheese-Connect4-bot/internal/bot"
	"github.com/park285/Cheese-Connect4-bot/internal/c4builder"
	appcfg "github.com/park285/Cheese-Connect4-bot/internal/config"
	"github.com/park285/Cheese-Connect4-bot/internal/irisfast"
	"github.com/park285/Cheese-Connect4-bot/internal/obslog"
)

const replyTimeout = 10 * time.Second

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.ValidateBot(); err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.Named("c4-bot")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := c4builder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("c4_init_failed", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.IrisHeaders))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5)
	ws.SetHeaderProvider(cfg.IrisHeaders)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})

	egress := irisfast.NewEgress(cfg.TransportMode, cfg.DryRun, client, ws, logger.Named("egress"))
	presenter := c4presenter.NewPresenter(
		func(room, message string) error {
			rctx, cancel := context.WithTimeout(ctx, replyTimeout)
			defer cancel()
			return egress.SendText(rctx, room, message)
		},
		func(room, imageBase64 string) error {
			rctx, cancel := context.WithTimeout(ctx, replyTimeout)
			defer cancel()
			return egress.SendImage(rctx, room, imageBase64)
		},
	)
	handler := bot.NewHandler(
		deps.Service,
		bot.NewDirectory(deps.Store),
		c4presenter.NewFormatter(deps.Catalog, cfg.BotPrefix),
		presenter,
		bot.Options{
			Prefix:       cfg.BotPrefix,
			RoomAllowed:  cfg.RoomAllowed,
			BoardImages:  true,
			HistoryLimit: cfg.HistoryLimit,
			RankingLimit: cfg.LeaderboardSize,
		},
		logger.Named("handler"),
	)

	ws.OnMessage(func(msg *irisfast.Message) {
		if !handler.Accepts(msg) {
			return
		}
		// WS 읽기 루프를 막지 않도록 분리
		go handler.Handle(ctx, msg)
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		logger.Fatal("ws_connect_failed", zap.String("url", cfg.IrisWSURL), zap.Error(err))
	}
	logger.Info("c4_bot_started", zap.String("prefix", cfg.BotPrefix), zap.String("transport", cfg.TransportMode), zap.String("store", string(cfg.Store)))

	<-ctx.Done()
	logger.Info("c4_bot_stopping")

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := ws.Close(sctx); err != nil {
		logger.Warn("ws_close_failed", zap.Error(err))
	}
}
