package c4builder

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-Connect4-bot/internal/config"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		Store:             config.StoreMemory,
		RedisKeyPrefix:    "c4:",
		EventsChannel:     "c4:events",
		MetricsRefreshSec: 60,
		LeaderboardSize:   10,
		HistoryLimit:      5,
		MatchScoreWindow:  10,
		DefaultAwardWin:   10,
		DefaultAwardLose:  5,
	}
}

func TestNewMemory(t *testing.T) {
	ctx := context.Background()
	deps, err := New(ctx, baseConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	require.NotNil(t, deps.Catalog)
	require.NotNil(t, deps.Store)
	require.True(t, deps.Catalog.Has("c4.help"))

	sess, err := deps.Service.FindMatch(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, sess)
	sess, err = deps.Service.FindMatch(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, sess)
}

func TestNewRedisPublishesEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.Store = config.StoreRedis
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	ctx := context.Background()
	deps, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	_, err = deps.Service.FindMatch(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, mr.Keys())
}

func TestNewRejectsBadRedis(t *testing.T) {
	cfg := baseConfig()
	cfg.Store = config.StoreRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestNewRejectsMissingMessagesDir(t *testing.T) {
	cfg := baseConfig()
	cfg.MessagesDir = t.TempDir() + "/missing"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}
