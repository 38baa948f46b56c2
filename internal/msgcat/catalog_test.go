package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c := MustDefault()
	got, err := c.Render("c4.score", map[string]any{"Account": "앨리스", "Score": 15})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "앨리스님의 점수: 15" {
		t.Fatalf("got %q", got)
	}
	for _, code := range []string{"COLUMN_FULL", "NOT_PLAYER_TURN", "OUTSTANDING_CHALLENGE_CONFLICT"} {
		if !c.Has("c4.error." + code) {
			t.Fatalf("missing error message for %s", code)
		}
	}
}

func TestMissingDataIsError(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("c4.score", map[string]any{"Account": "x"}); err == nil {
		t.Fatalf("expected missingkey error")
	}
	if got := c.Text("c4.nope", nil); got != "c4.nope" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("c4:\n  score: \"{{.Account}}={{.Score}}\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("c4.score", map[string]any{"Account": "a", "Score": 1}); got != "a=1" {
		t.Fatalf("got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("c4:\n  score: dup\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("c4:\n  score: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for int leaf")
	}
}
