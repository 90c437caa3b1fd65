// Package grid implements a uniform spatial grid over a fixed rectangular
// domain with incremental membership updates for moving circles.
package grid

import (
	"fmt"
	"math"

	"github.com/daniacca/achemsim/internal/geom"
)

// Occupant is anything the grid can index: a circle with stable identity.
type Occupant interface {
	comparable
	Center() geom.Vector2
	Radius() float64
}

// CellRange is an inclusive rectangle of cell indices.
type CellRange struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Contains reports whether cell (x, y) lies inside the range.
func (r CellRange) Contains(x, y int) bool {
	return r.MinX <= x && x <= r.MaxX && r.MinY <= y && y <= r.MaxY
}

// Grid maps circles to the cells their bounding squares overlap.
// Cells hold weak references only; the grid never owns item lifetime.
type Grid[T Occupant] struct {
	width    float64
	height   float64
	cellSize float64
	cols     int
	rows     int
	cells    [][]T // index = x*rows + y
}

// New creates a grid covering [0, width] x [0, height].
func New[T Occupant](width, height, cellSize float64) (*Grid[T], error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %gx%g", width, height)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("grid cell size must be positive, got %g", cellSize)
	}

	cols := int(math.Ceil(width/cellSize)) + 1
	rows := int(math.Ceil(height/cellSize)) + 1

	return &Grid[T]{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]T, cols*rows),
	}, nil
}

// Cols returns the number of cell columns.
func (g *Grid[T]) Cols() int { return g.cols }

// Rows returns the number of cell rows.
func (g *Grid[T]) Rows() int { return g.rows }

// CellSize returns the side length of a cell in world units.
func (g *Grid[T]) CellSize() float64 { return g.cellSize }

// Width returns the domain width.
func (g *Grid[T]) Width() float64 { return g.width }

// Height returns the domain height.
func (g *Grid[T]) Height() float64 { return g.height }

// RangeFor returns the unclipped cell range overlapped by the bounding square
// of a circle.
func (g *Grid[T]) RangeFor(center geom.Vector2, radius float64) CellRange {
	return CellRange{
		MinX: int(math.Floor((center.X - radius) / g.cellSize)),
		MaxX: int(math.Floor((center.X + radius) / g.cellSize)),
		MinY: int(math.Floor((center.Y - radius) / g.cellSize)),
		MaxY: int(math.Floor((center.Y + radius) / g.cellSize)),
	}
}

// clip restricts r to valid cell indices. ok is false when nothing is left.
func (g *Grid[T]) clip(r CellRange) (CellRange, bool) {
	r.MinX = max(r.MinX, 0)
	r.MinY = max(r.MinY, 0)
	r.MaxX = min(r.MaxX, g.cols-1)
	r.MaxY = min(r.MaxY, g.rows-1)
	return r, r.MinX <= r.MaxX && r.MinY <= r.MaxY
}

func (g *Grid[T]) index(x, y int) int {
	return x*g.rows + y
}

// Update moves item from the cells of old to the cells of next, touching only
// the cells in the symmetric difference. A nil old registers the item, a nil
// next removes it.
func (g *Grid[T]) Update(item T, old, next *CellRange) {
	if old != nil {
		if r, ok := g.clip(*old); ok {
			for x := r.MinX; x <= r.MaxX; x++ {
				for y := r.MinY; y <= r.MaxY; y++ {
					if next != nil && next.Contains(x, y) {
						continue
					}
					g.remove(item, x, y)
				}
			}
		}
	}

	if next != nil {
		if r, ok := g.clip(*next); ok {
			for x := r.MinX; x <= r.MaxX; x++ {
				for y := r.MinY; y <= r.MaxY; y++ {
					if old != nil && old.Contains(x, y) {
						continue
					}
					g.add(item, x, y)
				}
			}
		}
	}
}

func (g *Grid[T]) add(item T, x, y int) {
	idx := g.index(x, y)
	for _, it := range g.cells[idx] {
		if it == item {
			return
		}
	}
	g.cells[idx] = append(g.cells[idx], item)
}

// remove uses swap-remove to keep the cell dense.
func (g *Grid[T]) remove(item T, x, y int) {
	idx := g.index(x, y)
	cell := g.cells[idx]
	for i, it := range cell {
		if it != item {
			continue
		}
		last := len(cell) - 1
		cell[i] = cell[last]
		var zero T
		cell[last] = zero
		g.cells[idx] = cell[:last]
		return
	}
}

// QueryCircle returns every item whose circle overlaps the query circle.
// Items spanning several covered cells are reported once, in first-seen order.
func (g *Grid[T]) QueryCircle(center geom.Vector2, radius float64) []T {
	r, ok := g.clip(g.RangeFor(center, radius))
	if !ok {
		return nil
	}

	var out []T
	var seen map[T]struct{}
	multi := r.MinX != r.MaxX || r.MinY != r.MaxY
	if multi {
		seen = make(map[T]struct{})
	}

	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			for _, it := range g.cells[g.index(x, y)] {
				if multi {
					if _, dup := seen[it]; dup {
						continue
					}
				}
				reach := radius + it.Radius()
				if center.DistanceSq(it.Center()) >= reach*reach {
					continue
				}
				if multi {
					seen[it] = struct{}{}
				}
				out = append(out, it)
			}
		}
	}
	return out
}

// ItemsAt returns a copy of the items stored in cell (x, y).
func (g *Grid[T]) ItemsAt(x, y int) []T {
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		return nil
	}
	cell := g.cells[g.index(x, y)]
	out := make([]T, len(cell))
	copy(out, cell)
	return out
}

// CellsOf returns the coordinates of every cell currently holding item.
// It scans the whole grid and is meant for diagnostics and tests.
func (g *Grid[T]) CellsOf(item T) [][2]int {
	var out [][2]int
	for x := 0; x < g.cols; x++ {
		for y := 0; y < g.rows; y++ {
			for _, it := range g.cells[g.index(x, y)] {
				if it == item {
					out = append(out, [2]int{x, y})
					break
				}
			}
		}
	}
	return out
}

// OccupiedCells returns the number of non-empty cells.
func (g *Grid[T]) OccupiedCells() int {
	n := 0
	for _, c := range g.cells {
		if len(c) > 0 {
			n++
		}
	}
	return n
}
