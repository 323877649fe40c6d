// Package grid provides dense fixed-size 2D and 3D grids of cell slots.
//
// Indexing is checked: coordinates outside [0, dim) on any axis panic with
// an error of type ErrTypeOutOfRange. Callers are expected to clamp
// coordinates before touching a grid.
package grid

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeInvalidDimension = "grid_invalid_dimension"
	ErrTypeOutOfRange       = "grid_out_of_range"
)

// Grid2D is a width x height grid stored in row-major order.
type Grid2D[T any] struct {
	width  int
	height int
	cells  []T
}

// NewGrid2D returns a grid whose cells hold the zero value of T.
func NewGrid2D[T any](width, height int) (*Grid2D[T], error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("grid dimensions must be positive").
			WithType(ErrTypeInvalidDimension).
			WithTag("width", width).
			WithTag("height", height)
	}

	return &Grid2D[T]{
		width:  width,
		height: height,
		cells:  make([]T, width*height),
	}, nil
}

func (g *Grid2D[T]) Width() int {
	return g.width
}

func (g *Grid2D[T]) Height() int {
	return g.height
}

// Len returns the number of cells.
func (g *Grid2D[T]) Len() int {
	return len(g.cells)
}

func (g *Grid2D[T]) Get(x, y int) T {
	return g.cells[g.index(x, y)]
}

func (g *Grid2D[T]) Set(x, y int, v T) {
	g.cells[g.index(x, y)] = v
}

func (g *Grid2D[T]) index(x, y int) int {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		panic(errors.New("grid coordinates out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("x", x).
			WithTag("y", y).
			WithTag("width", g.width).
			WithTag("height", g.height))
	}
	return y*g.width + x
}

// Grid3D is a width x height x depth grid stored layer by layer, each layer
// in row-major order.
type Grid3D[T any] struct {
	width  int
	height int
	depth  int
	cells  []T
}

// NewGrid3D returns a grid whose cells hold the zero value of T.
func NewGrid3D[T any](width, height, depth int) (*Grid3D[T], error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, errors.New("grid dimensions must be positive").
			WithType(ErrTypeInvalidDimension).
			WithTag("width", width).
			WithTag("height", height).
			WithTag("depth", depth)
	}

	return &Grid3D[T]{
		width:  width,
		height: height,
		depth:  depth,
		cells:  make([]T, width*height*depth),
	}, nil
}

func (g *Grid3D[T]) Width() int {
	return g.width
}

func (g *Grid3D[T]) Height() int {
	return g.height
}

func (g *Grid3D[T]) Depth() int {
	return g.depth
}

// Len returns the number of cells.
func (g *Grid3D[T]) Len() int {
	return len(g.cells)
}

func (g *Grid3D[T]) Get(x, y, z int) T {
	return g.cells[g.index(x, y, z)]
}

func (g *Grid3D[T]) Set(x, y, z int, v T) {
	g.cells[g.index(x, y, z)] = v
}

func (g *Grid3D[T]) index(x, y, z int) int {
	if x < 0 || x >= g.width || y < 0 || y >= g.height || z < 0 || z >= g.depth {
		panic(errors.New("grid coordinates out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("x", x).
			WithTag("y", y).
			WithTag("z", z).
			WithTag("width", g.width).
			WithTag("height", g.height).
			WithTag("depth", g.depth))
	}
	return (z*g.height+y)*g.width + x
}
