// Package c4builder wires the engine from AppConfig.
package c4builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/config"
	"github.com/park285/Cheese-Connect4-bot/internal/domain"
	"github.com/park285/Cheese-Connect4-bot/internal/events"
	"github.com/park285/Cheese-Connect4-bot/internal/idgen"
	"github.com/park285/Cheese-Connect4-bot/internal/jobs"
	"github.com/park285/Cheese-Connect4-bot/internal/metrics"
	"github.com/park285/Cheese-Connect4-bot/internal/msgcat"
	"github.com/park285/Cheese-Connect4-bot/internal/pvpc4"
	svc "github.com/park285/Cheese-Connect4-bot/internal/service/connect4"
	"github.com/park285/Cheese-Connect4-bot/internal/store"
)

const metricsNamespace = "c4"

type Deps struct {
	Service   *svc.Service
	Store     store.Backend // owned by Service
	Metrics   *metrics.Metrics
	Catalog   *msgcat.Catalog
	Scheduler *jobs.Scheduler
}

// Close stops background jobs, then the service and its stores.
func (d *Deps) Close() error {
	var errs []error
	if d.Scheduler != nil {
		errs = append(errs, d.Scheduler.Shutdown())
	}
	if d.Service != nil {
		errs = append(errs, d.Service.Close())
	}
	return errors.Join(errs...)
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	ids, err := idgen.NewRandom()
	if err != nil {
		return nil, err
	}

	sink := events.Fanout{events.LogSink{Logger: logger.Named("events")}}
	var backend store.Backend
	switch cfg.Store {
	case config.StoreRedis:
		rs, err := store.DialRedis(ctx, cfg.RedisURL, store.WithKeyPrefix(cfg.RedisKeyPrefix))
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		backend = rs
		if cfg.EventsChannel != "" {
			sink = append(sink, events.NewRedisSink(rs.Client(), cfg.EventsChannel))
		}
	default:
		backend = store.NewMemory()
		logger.Warn("c4_memory_store", zap.String("hint", "state is lost on restart; set REDIS_URL"))
	}

	results, err := openResults(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	m := metrics.New(metricsNamespace)
	service, err := svc.NewService(svc.Deps{
		Store:    backend,
		IDs:      ids,
		Results:  results,
		Renderer: svc.NewPNGBoardRenderer(),
		Sink:     sink,
		Metrics:  m,
		Logger:   logger.Named("connect4"),
	}, svc.Config{
		ScoreWindow:     cfg.MatchScoreWindow,
		ClosestFirst:    cfg.MatchClosestFirst,
		QueueAward:      domain.AwardTerms{Win: cfg.DefaultAwardWin, Lose: cfg.DefaultAwardLose},
		HistoryLimit:    cfg.HistoryLimit,
		LeaderboardSize: cfg.LeaderboardSize,
	})
	if err != nil {
		_ = results.Close()
		_ = backend.Close()
		return nil, err
	}

	sched, err := jobs.NewScheduler()
	if err != nil {
		_ = service.Close()
		return nil, err
	}
	if err := sched.RefreshGauges(service, m, time.Duration(cfg.MetricsRefreshSec)*time.Second); err != nil {
		_ = service.Close()
		return nil, err
	}
	sched.Start()

	return &Deps{Service: service, Store: backend, Metrics: m, Catalog: cat, Scheduler: sched}, nil
}

// openResults uses Postgres when databaseURL is set, memory otherwise.
func openResults(ctx context.Context, databaseURL string) (pvpc4.ResultStore, error) {
	if databaseURL == "" {
		return pvpc4.NewMemoryResults(), nil
	}
	repo, err := pvpc4.NewRepository(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init results repository: %w", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("ensure results schema: %w", err)
	}
	return repo, nil
}
