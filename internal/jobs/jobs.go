// Package jobs runs periodic background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/obslog"
)

// GaugeSource reports current sizes.
type GaugeSource interface {
	Counts(ctx context.Context) (activeSessions, queued int, err error)
}

// GaugeSink receives the sizes.
type GaugeSink interface {
	SetGauges(activeSessions, queued int)
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	s gocron.Scheduler
}

// NewScheduler creates a stopped scheduler.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	return &Scheduler{s: s}, nil
}

// RefreshGauges pushes src counts into dst every interval, once immediately.
func (s *Scheduler) RefreshGauges(src GaugeSource, dst GaugeSink, every time.Duration) error {
	if every <= 0 {
		every = 15 * time.Second
	}
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), every)
		defer cancel()
		active, queued, err := src.Counts(ctx)
		if err != nil {
			obslog.L().Warn("c4_gauge_refresh_error", zap.Error(err))
			return
		}
		dst.SetGauges(active, queued)
	}
	_, err := s.s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule gauge refresh: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() { s.s.Start() }

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error { return s.s.Shutdown() }
