// Package fixture turns ASCII scenario grids into playgame map files.
package fixture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Players is fixed: every tactic map pits the bot against one opponent.
const Players = 2

var (
	ErrEmptyGrid  = errors.New("fixture: empty grid")
	ErrRaggedGrid = errors.New("fixture: rows differ in width")
)

// Grid is a rectangular scenario map. The zero value is not usable; build one
// with ParseGrid.
type Grid struct {
	rows []string
}

// ParseGrid trims every line of s, drops blank lines and checks that all
// remaining rows share one width.
func ParseGrid(s string) (Grid, error) {
	var rows []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		return Grid{}, ErrEmptyGrid
	}
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return Grid{}, fmt.Errorf("%w: row %d has %d cells, row 0 has %d", ErrRaggedGrid, i, len(row), cols)
		}
	}
	return Grid{rows: rows}, nil
}

func (g Grid) Rows() int    { return len(g.rows) }
func (g Grid) Players() int { return Players }

func (g Grid) Cols() int {
	if len(g.rows) == 0 {
		return 0
	}
	return len(g.rows[0])
}

// Row returns row i without its "m " prefix.
func (g Grid) Row(i int) string { return g.rows[i] }

// Cell returns the map character at (row, col).
func (g Grid) Cell(row, col int) byte { return g.rows[row][col] }

// WriteTo writes the playgame map format: header lines followed by one
// "m <row>" line per grid row.
func (g Grid) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(format string, args ...any) error {
		c, err := fmt.Fprintf(bw, format, args...)
		n += int64(c)
		return err
	}
	if err := write("rows %d\n", g.Rows()); err != nil {
		return n, err
	}
	if err := write("cols %d\n", g.Cols()); err != nil {
		return n, err
	}
	if err := write("players %d\n", g.Players()); err != nil {
		return n, err
	}
	for _, row := range g.rows {
		if err := write("m %s\n", row); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

func (g Grid) String() string {
	var sb strings.Builder
	_, _ = g.WriteTo(&sb)
	return sb.String()
}

// WriteTemp writes g to a fresh temp file in dir (os.TempDir when empty).
// The returned cleanup removes the file and is safe to call more than once.
func WriteTemp(g Grid, dir string) (path string, cleanup func(), err error) {
	if g.Rows() == 0 {
		return "", func() {}, ErrEmptyGrid
	}
	f, err := os.CreateTemp(dir, "tactic-*.map")
	if err != nil {
		return "", func() {}, err
	}
	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, err := g.WriteTo(f); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write map: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close map: %w", err)
	}
	return path, cleanup, nil
}
