// Package board implements the 7x6 Connect-Four grid: gravity placement,
// four-in-a-row detection and the full-board check.
package board

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Columns = 7
	Rows    = 6
	// WinLength is the number of aligned stones that wins a game.
	WinLength = 4
)

// ErrColumnFull is returned when a stone is dropped into a full column.
var ErrColumnFull = errors.New("column full")

// Slot identifies one of the two seats of a game.
type Slot uint8

const (
	First  Slot = 1
	Second Slot = 2
)

// Other returns the opposing slot.
func (s Slot) Other() Slot {
	if s == First {
		return Second
	}
	return First
}

func (s Slot) Valid() bool { return s == First || s == Second }

func (s Slot) String() string {
	switch s {
	case First:
		return "first"
	case Second:
		return "second"
	default:
		return fmt.Sprintf("slot(%d)", uint8(s))
	}
}

// Cell is the content of one board position. The zero value is Empty.
type Cell uint8

const Empty Cell = 0

// Occupied returns the cell value holding a stone of the given slot.
func Occupied(s Slot) Cell { return Cell(s) }

// Slot reports which slot occupies the cell.
func (c Cell) Slot() (Slot, bool) {
	if c == Empty {
		return 0, false
	}
	return Slot(c), true
}

// Board is indexed [column][row]; row 0 is the bottom.
type Board [Columns][Rows]Cell

// axes: horizontal, vertical, rising diagonal, falling diagonal
var axes = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// PlaceStone drops a stone for slot into column and returns the row it
// landed on. column must be within [0, Columns); range checks belong to
// the caller.
func PlaceStone(b *Board, column int, slot Slot) (int, error) {
	for row := 0; row < Rows; row++ {
		if b[column][row] == Empty {
			b[column][row] = Occupied(slot)
			return row, nil
		}
	}
	return -1, ErrColumnFull
}

// DetectWin reports whether slot has WinLength aligned stones anywhere.
func DetectWin(b Board, slot Slot) bool {
	want := Occupied(slot)
	for c := 0; c < Columns; c++ {
		for r := 0; r < Rows; r++ {
			if b[c][r] != want {
				continue
			}
			for _, d := range axes {
				if run(b, c, r, d[0], d[1], want) {
					return true
				}
			}
		}
	}
	return false
}

// Pos is a (column, row) coordinate.
type Pos struct {
	Column int
	Row    int
}

// WinningLine returns the first aligned run of WinLength stones for slot,
// or nil when slot has not won.
func WinningLine(b Board, slot Slot) []Pos {
	want := Occupied(slot)
	for c := 0; c < Columns; c++ {
		for r := 0; r < Rows; r++ {
			if b[c][r] != want {
				continue
			}
			for _, d := range axes {
				if !run(b, c, r, d[0], d[1], want) {
					continue
				}
				line := make([]Pos, WinLength)
				for i := range line {
					line[i] = Pos{Column: c + d[0]*i, Row: r + d[1]*i}
				}
				return line
			}
		}
	}
	return nil
}

func run(b Board, c, r, dc, dr int, want Cell) bool {
	for i := 1; i < WinLength; i++ {
		cc, rr := c+dc*i, r+dr*i
		if cc < 0 || cc >= Columns || rr < 0 || rr >= Rows {
			return false
		}
		if b[cc][rr] != want {
			return false
		}
	}
	return true
}

// IsFull reports whether no cell is empty.
func IsFull(b Board) bool {
	for c := 0; c < Columns; c++ {
		for r := 0; r < Rows; r++ {
			if b[c][r] == Empty {
				return false
			}
		}
	}
	return true
}

// Height returns how many stones column holds.
func Height(b Board, column int) int {
	n := 0
	for r := 0; r < Rows && b[column][r] != Empty; r++ {
		n++
	}
	return n
}

// Count returns the number of stones of slot on the board.
func Count(b Board, slot Slot) int {
	want := Occupied(slot)
	n := 0
	for c := 0; c < Columns; c++ {
		for r := 0; r < Rows; r++ {
			if b[c][r] == want {
				n++
			}
		}
	}
	return n
}

// Text renders the board top row first using '.', 'X' (first) and 'O' (second).
func Text(b Board) string {
	var sb strings.Builder
	for r := Rows - 1; r >= 0; r-- {
		for c := 0; c < Columns; c++ {
			sb.WriteByte(symbol(b[c][r]))
		}
		if r > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func symbol(c Cell) byte {
	switch c {
	case Occupied(First):
		return 'X'
	case Occupied(Second):
		return 'O'
	default:
		return '.'
	}
}

// Parse is the inverse of Text. Lines are read top row first.
func Parse(s string) (Board, error) {
	var b Board
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) != Rows {
		return b, fmt.Errorf("board: want %d rows, got %d", Rows, len(lines))
	}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) != Columns {
			return b, fmt.Errorf("board: row %d: want %d columns, got %d", i, Columns, len(line))
		}
		r := Rows - 1 - i
		for c := 0; c < Columns; c++ {
			switch line[c] {
			case '.':
			case 'X', 'x':
				b[c][r] = Occupied(First)
			case 'O', 'o':
				b[c][r] = Occupied(Second)
			default:
				return b, fmt.Errorf("board: row %d: bad symbol %q", i, line[c])
			}
		}
	}
	return b, nil
}
