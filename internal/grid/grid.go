// Package grid holds the step grid, the row to pitch mapping and the tempo
// arithmetic shared by live playback and both exporters.
package grid

import (
	"errors"
	"fmt"
	"sync"
)

const (
	// DefaultRows is the number of pitches in the reference layout.
	DefaultRows = 8
	// DefaultCols is the number of sixteenth-note steps in one loop.
	DefaultCols = 16
)

var (
	// ErrOutOfRange is returned for coordinates outside the grid.
	ErrOutOfRange = errors.New("cell out of range")
	// ErrDimensions is returned when a replacement matrix has the wrong shape.
	ErrDimensions = errors.New("grid dimensions mismatch")
)

// Grid is the boolean activation matrix, indexed [row][col]. Its shape is
// fixed at creation. It is safe for concurrent use: the transport reads it
// while the UI mutates it.
type Grid struct {
	mu    sync.RWMutex
	rows  int
	cols  int
	cells [][]bool
}

// New creates an empty grid with the given shape.
func New(rows, cols int) *Grid {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("grid: invalid shape %dx%d", rows, cols))
	}
	return &Grid{rows: rows, cols: cols, cells: emptyCells(rows, cols)}
}

// NewDefault creates an empty 8x16 grid.
func NewDefault() *Grid {
	return New(DefaultRows, DefaultCols)
}

func emptyCells(rows, cols int) [][]bool {
	cells := make([][]bool, rows)
	for r := range cells {
		cells[r] = make([]bool, cols)
	}
	return cells
}

// Rows returns the number of pitches.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of steps.
func (g *Grid) Cols() int { return g.cols }

func (g *Grid) inRange(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Toggle flips one cell and returns its new state.
func (g *Grid) Toggle(row, col int) (bool, error) {
	if !g.inRange(row, col) {
		return false, fmt.Errorf("toggle (%d,%d): %w", row, col, ErrOutOfRange)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells[row][col] = !g.cells[row][col]
	return g.cells[row][col], nil
}

// Set forces one cell on or off.
func (g *Grid) Set(row, col int, on bool) error {
	if !g.inRange(row, col) {
		return fmt.Errorf("set (%d,%d): %w", row, col, ErrOutOfRange)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells[row][col] = on
	return nil
}

// Active reports whether a cell is on. Out of range cells are off.
func (g *Grid) Active(row, col int) bool {
	if !g.inRange(row, col) {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[row][col]
}

// Column returns the active rows of one column in ascending order.
func (g *Grid) Column(col int) []int {
	if col < 0 || col >= g.cols {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	var rows []int
	for r := 0; r < g.rows; r++ {
		if g.cells[r][col] {
			rows = append(rows, r)
		}
	}
	return rows
}

// Clear switches every cell off.
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = emptyCells(g.rows, g.cols)
}

// Replace swaps in a whole matrix. The matrix must have the grid's shape;
// on error the grid is left untouched.
func (g *Grid) Replace(cells [][]bool) error {
	if len(cells) != g.rows {
		return fmt.Errorf("%w: got %d rows, want %d", ErrDimensions, len(cells), g.rows)
	}
	next := emptyCells(g.rows, g.cols)
	for r, row := range cells {
		if len(row) != g.cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensions, r, len(row), g.cols)
		}
		copy(next[r], row)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = next
	return nil
}

// Cells returns a deep copy of the matrix.
func (g *Grid) Cells() [][]bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := emptyCells(g.rows, g.cols)
	for r := range g.cells {
		copy(out[r], g.cells[r])
	}
	return out
}

// Count returns the number of active cells.
func (g *Grid) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, row := range g.cells {
		for _, on := range row {
			if on {
				n++
			}
		}
	}
	return n
}

// Snapshot returns an immutable copy for offline rendering.
func (g *Grid) Snapshot() Snapshot {
	return Snapshot{rows: g.rows, cols: g.cols, cells: g.Cells()}
}

// Snapshot is a read-only copy of a grid taken at one instant.
type Snapshot struct {
	rows  int
	cols  int
	cells [][]bool
}

// SnapshotOf builds a snapshot from a matrix, checking that it is rectangular.
func SnapshotOf(cells [][]bool) (Snapshot, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty matrix", ErrDimensions)
	}
	g := New(len(cells), len(cells[0]))
	if err := g.Replace(cells); err != nil {
		return Snapshot{}, err
	}
	return g.Snapshot(), nil
}

// Rows returns the number of pitches.
func (s Snapshot) Rows() int { return s.rows }

// Cols returns the number of steps.
func (s Snapshot) Cols() int { return s.cols }

// Active reports whether a cell is on. Out of range cells are off.
func (s Snapshot) Active(row, col int) bool {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return false
	}
	return s.cells[row][col]
}

// Cell is one active (row, col) pair.
type Cell struct {
	Row int
	Col int
}

// ActiveCells lists every active cell in column-major order, which is the
// order in which the cells sound.
func (s Snapshot) ActiveCells() []Cell {
	var out []Cell
	for c := 0; c < s.cols; c++ {
		for r := 0; r < s.rows; r++ {
			if s.cells[r][c] {
				out = append(out, Cell{Row: r, Col: c})
			}
		}
	}
	return out
}
