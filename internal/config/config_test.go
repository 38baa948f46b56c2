package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"IRIS_BASE_URL", "IRIS_WS_URL", "BOT_PREFIX", "REDIS_URL", "STORE_BACKEND",
		"MATCH_SCORE_WINDOW", "DEFAULT_AWARD_WIN", "DEFAULT_AWARD_LOSE", "ALLOWED_ROOMS", "HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.MatchScoreWindow != 10 || cfg.DefaultAwardWin != 10 || cfg.DefaultAwardLose != 5 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.HTTPAddr != ":8080" || cfg.RedisKeyPrefix != "c4:" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := cfg.ValidateBot(); err == nil {
		t.Fatalf("bot settings are missing")
	}
}

func TestLoadRedisImpliedByURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreRedis {
		t.Fatalf("store = %s", cfg.Store)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("redis without URL must fail")
	}
	t.Setenv("STORE_BACKEND", "etcd")
	if _, err := Load(); err == nil {
		t.Fatalf("unknown backend must fail")
	}
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("MATCH_SCORE_WINDOW", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("negative window must fail")
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("BOT_PREFIX=!c4\nALLOWED_ROOMS= r1 , r2 ,\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	// godotenv keeps variables that are already present; drop the blanks set above.
	os.Unsetenv("BOT_PREFIX")
	os.Unsetenv("ALLOWED_ROOMS")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotPrefix != "!c4" {
		t.Fatalf("prefix = %q", cfg.BotPrefix)
	}
	if !cfg.RoomAllowed("r2") || cfg.RoomAllowed("r3") {
		t.Fatalf("rooms = %v", cfg.AllowedRooms)
	}
}

func TestIrisHeadersSkipsBlank(t *testing.T) {
	cfg := &AppConfig{XUserID: "bot", XSessionID: "s1"}
	h := cfg.IrisHeaders()
	if len(h) != 2 || h["X-User-Id"] != "bot" || h["X-Session-Id"] != "s1" {
		t.Fatalf("headers = %v", h)
	}
}
