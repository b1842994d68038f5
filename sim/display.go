//go:build !tinygo

package sim

import (
	"strconv"
	"strings"
	"sync"

	"roverbot/core"
)

// TextDisplay is a character display held in memory. It implements
// core.Display and is safe to read from other goroutines.
type TextDisplay struct {
	mu       sync.Mutex
	rows     int
	cols     int
	cells    [][]byte
	row, col int
	backward bool
	writes   int
}

// NewTextDisplay returns a blank rows x cols display.
func NewTextDisplay(rows, cols int) *TextDisplay {
	d := &TextDisplay{rows: rows, cols: cols}
	d.cells = make([][]byte, rows)
	for i := range d.cells {
		d.cells[i] = make([]byte, cols)
	}
	d.clear()
	return d
}

func (d *TextDisplay) clear() {
	for _, r := range d.cells {
		for i := range r {
			r[i] = ' '
		}
	}
	d.row, d.col = 0, 0
}

func (d *TextDisplay) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clear()
	return nil
}

func (d *TextDisplay) GoTo(row, col uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(row) >= d.rows || int(col) >= d.cols {
		return core.ErrCursorRange
	}
	d.row, d.col = int(row), int(col)
	return nil
}

func (d *TextDisplay) WriteString(s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < len(s); i++ {
		d.put(s[i])
	}
	return nil
}

func (d *TextDisplay) WriteNumber(n int32) error {
	return d.WriteString(strconv.Itoa(int(n)))
}

// put writes c at the cursor and moves it. Characters past the edge are
// dropped.
func (d *TextDisplay) put(c byte) {
	if d.row < d.rows && d.col >= 0 && d.col < d.cols {
		d.cells[d.row][d.col] = c
	}
	d.writes++
	if d.backward {
		d.col--
	} else {
		d.col++
	}
}

// Line returns one row, trailing blanks included.
func (d *TextDisplay) Line(row int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 0 || row >= d.rows {
		return ""
	}
	return string(d.cells[row])
}

// String returns all rows with trailing blanks trimmed.
func (d *TextDisplay) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	lines := make([]string, d.rows)
	for i, r := range d.cells {
		lines[i] = strings.TrimRight(string(r), " ")
	}
	return strings.Join(lines, "\n")
}

// Writes counts characters written since creation.
func (d *TextDisplay) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func (d *TextDisplay) setCursor(row, col int, backward bool) {
	d.mu.Lock()
	d.row, d.col, d.backward = row, col, backward
	d.mu.Unlock()
}

func (d *TextDisplay) cursor() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.row, d.col
}
