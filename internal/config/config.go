package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// StoreBackend selects where game state lives.
type StoreBackend string

const (
	StoreMemory StoreBackend = "memory"
	StoreRedis  StoreBackend = "redis"
)

type AppConfig struct {
	IrisBaseURL   string
	IrisWSURL     string
	TransportMode string // http | ws | auto
	DryRun        bool   // log websocket replies instead of sending

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	AllowedRooms []string

	Store          StoreBackend
	RedisURL       string
	RedisKeyPrefix string
	DatabaseURL    string
	EventsChannel  string

	HTTPAddr          string
	MetricsRefreshSec int
	LeaderboardSize   int
	HistoryLimit      int
	MessagesDir       string

	MatchScoreWindow  int64
	MatchClosestFirst bool
	DefaultAwardWin   uint32
	DefaultAwardLose  uint32
}

// Load reads the process environment after merging an optional .env file
// (ENV_FILE, default ".env"). Variables already set win over the file.
func Load() (*AppConfig, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &AppConfig{
		TransportMode:     "http",
		Store:             StoreMemory,
		RedisKeyPrefix:    "c4:",
		EventsChannel:     "c4:events",
		HTTPAddr:          ":8080",
		MetricsRefreshSec: 15,
		LeaderboardSize:   10,
		HistoryLimit:      5,
		MatchScoreWindow:  10,
		DefaultAwardWin:   10,
		DefaultAwardLose:  5,
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	if v := env("TRANSPORT_MODE"); v != "" {
		cfg.TransportMode = strings.ToLower(v)
	}
	if b, err := strconv.ParseBool(env("IRIS_DRYRUN")); err == nil {
		cfg.DryRun = b
	}
	cfg.BotPrefix = env("BOT_PREFIX")

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")
	cfg.AllowedRooms = splitList(env("ALLOWED_ROOMS"))

	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")
	if v := env("REDIS_KEY_PREFIX"); v != "" {
		cfg.RedisKeyPrefix = v
	}
	if v := env("EVENTS_CHANNEL"); v != "" {
		cfg.EventsChannel = v
	}
	switch v := StoreBackend(strings.ToLower(env("STORE_BACKEND"))); v {
	case "":
		// redis when configured
		if cfg.RedisURL != "" {
			cfg.Store = StoreRedis
		}
	case StoreMemory, StoreRedis:
		cfg.Store = v
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be memory or redis, got %q", v)
	}

	if v := env("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.MessagesDir = env("MESSAGES_DIR")
	if n, ok := positiveInt("METRICS_REFRESH_SEC"); ok {
		cfg.MetricsRefreshSec = n
	}
	if n, ok := positiveInt("LEADERBOARD_SIZE"); ok {
		cfg.LeaderboardSize = n
	}
	if n, ok := positiveInt("HISTORY_LIMIT"); ok {
		cfg.HistoryLimit = n
	}

	if v := env("MATCH_SCORE_WINDOW"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("MATCH_SCORE_WINDOW must be a non-negative integer")
		}
		cfg.MatchScoreWindow = n
	}
	if v := env("MATCH_CLOSEST_FIRST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MatchClosestFirst = b
		}
	}
	if v := env("DEFAULT_AWARD_WIN"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_AWARD_WIN: %w", err)
		}
		cfg.DefaultAwardWin = uint32(n)
	}
	if v := env("DEFAULT_AWARD_LOSE"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_AWARD_LOSE: %w", err)
		}
		cfg.DefaultAwardLose = uint32(n)
	}

	if cfg.Store == StoreRedis && cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required for the redis store")
	}
	return cfg, nil
}

// ValidateBot checks the settings only the chat bot needs.
func (c *AppConfig) ValidateBot() error {
	if c.IrisBaseURL == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	if c.IrisWSURL == "" {
		return errors.New("IRIS_WS_URL is required")
	}
	if c.BotPrefix == "" {
		return errors.New("BOT_PREFIX is required")
	}
	return nil
}

// RoomAllowed reports whether the bot may answer in room. No list allows all.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

// IrisHeaders are the identity headers sent on every Iris request and the
// WebSocket handshake.
func (c *AppConfig) IrisHeaders() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func positiveInt(k string) (int, bool) {
	v := env(k)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
