package util

import (
	"strings"
	"testing"
	"time"
)

func TestSeeMoreStripsRepeatedHeader(t *testing.T) {
	out := SeeMore("[랭킹]", "[랭킹]\n1. a - 10")
	if !strings.HasPrefix(out, "[랭킹]"+ZeroWidthSpace) {
		t.Fatalf("header not kept in front: %q", out[:20])
	}
	if strings.Count(out, "[랭킹]") != 1 {
		t.Fatalf("header repeated")
	}
	if !strings.HasSuffix(out, "\n1. a - 10") {
		t.Fatalf("body lost")
	}
	if strings.Count(out, ZeroWidthSpace) != SeeMorePadding {
		t.Fatalf("padding mismatch")
	}
}

func TestSeeMoreEmptyBody(t *testing.T) {
	if got := SeeMore("h", "  "); got != "  " {
		t.Fatalf("got %q", got)
	}
}

func TestFormatKST(t *testing.T) {
	ts := time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC)
	if got := FormatKST(ts, "2006-01-02 15:04"); got != "2025-01-02 00:30" {
		t.Fatalf("got %q", got)
	}
	if FormatKST(time.Time{}, time.RFC3339) != "" {
		t.Fatalf("zero time should format empty")
	}
}
