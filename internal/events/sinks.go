package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Connect4-bot/internal/board"
)

// LogSink writes events as structured log lines.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Publish(_ context.Context, e Event) error {
	if s.Logger == nil {
		return nil
	}
	fields := []zap.Field{zap.String("kind", string(e.Kind))}
	if e.Account != "" {
		fields = append(fields, zap.String("account", e.Account))
	}
	if e.Opponent != "" {
		fields = append(fields, zap.String("opponent", e.Opponent))
	}
	if e.SessionID != "" {
		fields = append(fields, zap.String("session_id", e.SessionID))
	}
	if e.Award != nil {
		fields = append(fields, zap.Uint32("award_win", e.Award.Win), zap.Uint32("award_lose", e.Award.Lose))
	}
	if e.Move != nil {
		fields = append(fields, zap.Int("column", e.Move.Column), zap.Int("row", e.Move.Row))
	}
	if e.Kind == SessionFinished && e.Session != nil {
		fields = append(fields,
			zap.String("result", e.Session.Lifecycle.String()),
			zap.String("board", board.Text(e.Session.Board)),
		)
	}
	s.Logger.Info("c4_event", fields...)
	return nil
}

// RedisSink publishes JSON-encoded events on a pub/sub channel.
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = "c4:events"
	}
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Channel() string { return s.channel }

func (s *RedisSink) Publish(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Kind, err)
	}
	return nil
}
