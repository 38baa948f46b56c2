package board

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
)

// drawSequence fills the board with alternating stones and never lines up four.
var drawSequence = []int{5, 3, 2, 3, 1, 5, 3, 1, 0, 1, 4, 1, 2, 5, 0, 5, 6, 6, 2, 0, 6, 0, 4, 2, 3, 0, 3, 4, 2, 3, 2, 6, 0, 4, 1, 1, 5, 4, 4, 5, 6, 6}

func mustParse(t *testing.T, text string) Board {
	t.Helper()
	b, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return b
}

func TestPlaceStoneGravity(t *testing.T) {
	var b Board
	row, err := PlaceStone(&b, 3, First)
	if err != nil || row != 0 {
		t.Fatalf("first drop = %d %v", row, err)
	}
	row, err = PlaceStone(&b, 3, Second)
	if err != nil || row != 1 {
		t.Fatalf("second drop = %d %v", row, err)
	}
	if b[3][0] != Occupied(First) || b[3][1] != Occupied(Second) {
		t.Fatalf("column 3 = %v", b[3])
	}
	if Height(b, 3) != 2 || Height(b, 2) != 0 {
		t.Fatalf("heights = %d %d", Height(b, 3), Height(b, 2))
	}
}

func TestPlaceStoneColumnFull(t *testing.T) {
	var b Board
	s := First
	for i := 0; i < Rows; i++ {
		if _, err := PlaceStone(&b, 0, s); err != nil {
			t.Fatalf("drop %d: %v", i, err)
		}
		s = s.Other()
	}
	before := b
	if _, err := PlaceStone(&b, 0, First); !errors.Is(err, ErrColumnFull) {
		t.Fatalf("err = %v, want ErrColumnFull", err)
	}
	if b != before {
		t.Fatalf("full column changed the board:\n%s", Text(b))
	}
}

// TestRandomPlayKeepsColumnsPacked drops stones into random non-full
// columns and checks after every move that no empty cell sits below a stone.
func TestRandomPlayKeepsColumnsPacked(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		var b Board
		s := First
		for move := 0; !IsFull(b); move++ {
			var open []int
			for c := 0; c < Columns; c++ {
				if Height(b, c) < Rows {
					open = append(open, c)
				}
			}
			col := open[rng.Intn(len(open))]
			want := Height(b, col)
			row, err := PlaceStone(&b, col, s)
			if err != nil || row != want {
				t.Fatalf("seed %d move %d: drop in %d = %d %v, want row %d", seed, move, col, row, err, want)
			}
			for c := 0; c < Columns; c++ {
				for r := 1; r < Rows; r++ {
					if b[c][r] != Empty && b[c][r-1] == Empty {
						t.Fatalf("seed %d move %d: gap under (%d,%d)\n%s", seed, move, c, r, Text(b))
					}
				}
			}
			s = s.Other()
		}
		if Count(b, First)+Count(b, Second) != Columns*Rows {
			t.Fatalf("seed %d: full board holds %d stones", seed, Count(b, First)+Count(b, Second))
		}
	}
}

func TestDetectWinAxes(t *testing.T) {
	cases := map[string]string{
		"horizontal": `
.......
.......
.......
.......
.......
...XXXX`,
		"vertical": `
.......
.......
X......
X......
X......
X......`,
		"rising": `
.......
.......
...X...
..XO...
.XOO...
XOOO...`,
		"falling": `
.......
.......
X......
OX.....
OOX....
OOOX...`,
		"top right corner": `
...XXXX
.......
.......
.......
.......
.......`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			b := mustParse(t, text)
			if !DetectWin(b, First) {
				t.Fatalf("X line not detected")
			}
			if DetectWin(b, Second) {
				t.Fatalf("O reported as winner")
			}
		})
	}
}

func TestDetectWinNeedsFourContiguous(t *testing.T) {
	b := mustParse(t, `
.......
.......
.......
.......
.......
XXX.XXX`)
	if DetectWin(b, First) {
		t.Fatalf("split row counted as a win")
	}
	if DetectWin(Board{}, First) || DetectWin(Board{}, Second) {
		t.Fatalf("empty board has a winner")
	}
}

func TestDrawSequenceFillsWithoutWinner(t *testing.T) {
	var b Board
	s := First
	for i, col := range drawSequence {
		if IsFull(b) {
			t.Fatalf("move %d: board full early", i)
		}
		if _, err := PlaceStone(&b, col, s); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		if DetectWin(b, s) {
			t.Fatalf("move %d: unexpected win\n%s", i, Text(b))
		}
		s = s.Other()
	}
	if !IsFull(b) {
		t.Fatalf("board not full:\n%s", Text(b))
	}
	if Count(b, First) != 21 || Count(b, Second) != 21 {
		t.Fatalf("counts = %d %d", Count(b, First), Count(b, Second))
	}
}

func TestTextRoundTrip(t *testing.T) {
	var b Board
	_, _ = PlaceStone(&b, 0, First)
	_, _ = PlaceStone(&b, 6, Second)
	_, _ = PlaceStone(&b, 6, First)

	text := Text(b)
	if want := ".......\n.......\n.......\n.......\n......X\nX.....O"; text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
	if back := mustParse(t, text); back != b {
		t.Fatalf("round trip changed the board:\n%s", Text(back))
	}
	if _, err := Parse("XXXX"); err == nil {
		t.Fatalf("short text parsed")
	}
}

func TestWinningLine(t *testing.T) {
	b := mustParse(t, ".......\n.......\n...X...\n..XO...\n.XOO...\nXOOX...")

	line := WinningLine(b, First)
	if want := []Pos{{0, 0}, {1, 1}, {2, 2}, {3, 3}}; !slices.Equal(line, want) {
		t.Fatalf("line = %v, want %v", line, want)
	}
	if got := WinningLine(b, Second); got != nil {
		t.Fatalf("O line = %v", got)
	}
}
