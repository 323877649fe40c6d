package bin

import (
	"iter"

	"github.com/aukilabs/dagaz/geom"
	"github.com/aukilabs/dagaz/grid"
	"github.com/aukilabs/dagaz/list"
	"github.com/aukilabs/dagaz/pool"
	"github.com/go-gl/mathgl/mgl32"
)

// Bin2D is the 2D counterpart of Bin3D. It shares the same contracts: items
// are removed with the bounds used to insert them, and Dispose must be called
// before dropping the bin.
//
// A Bin2D is not safe for concurrent use.
type Bin2D[T comparable] struct {
	grid       *grid.Grid2D[*list.List[T]]
	cellWidth  float32
	cellHeight float32
	extent     mgl32.Vec2
	lists      *pool.Pool[list.List[T]]
}

// NewBin2D returns a bin of width x height cells, each cell covering
// cellWidth x cellHeight world units from the origin.
func NewBin2D[T comparable](width, height int, cellWidth, cellHeight float32) (*Bin2D[T], error) {
	for _, err := range []error{
		validateDimension("x", width),
		validateDimension("y", height),
		validateCellSize("x", cellWidth),
		validateCellSize("y", cellHeight),
	} {
		if err != nil {
			return nil, err
		}
	}

	g, err := grid.NewGrid2D[*list.List[T]](width, height)
	if err != nil {
		return nil, err
	}

	return &Bin2D[T]{
		grid:       g,
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
		extent: mgl32.Vec2{
			float32(width) * cellWidth,
			float32(height) * cellHeight,
		},
		lists: list.Pool[T](),
	}, nil
}

func (b *Bin2D[T]) Width() int          { return b.grid.Width() }
func (b *Bin2D[T]) Height() int         { return b.grid.Height() }
func (b *Bin2D[T]) CellWidth() float32  { return b.cellWidth }
func (b *Bin2D[T]) CellHeight() float32 { return b.cellHeight }

// Extent returns the world size covered by the bin.
func (b *Bin2D[T]) Extent() mgl32.Vec2 {
	return b.extent
}

// Insert adds item to every cell covered by bounds. Bounds entirely outside
// the bin are ignored.
func (b *Bin2D[T]) Insert(item T, bounds geom.Bounds2) {
	r, ok := b.cellRange(bounds)
	if !ok {
		return
	}

	for y := r.minY; y <= r.maxY; y++ {
		for x := r.minX; x <= r.maxX; x++ {
			b.insertAt(item, x, y)
		}
	}
}

// Remove removes one occurrence of item from every cell covered by bounds.
func (b *Bin2D[T]) Remove(item T, bounds geom.Bounds2) {
	r, ok := b.cellRange(bounds)
	if !ok {
		return
	}

	for y := r.minY; y <= r.maxY; y++ {
		for x := r.minX; x <= r.maxX; x++ {
			b.removeAt(item, x, y)
		}
	}
}

// Update is Remove followed by Insert.
func (b *Bin2D[T]) Update(item T, prev, next geom.Bounds2) {
	b.Remove(item, prev)
	b.Insert(item, next)
}

// UpdateIncremental moves item from prev to next bounds without touching the
// cells covered by both.
func (b *Bin2D[T]) UpdateIncremental(item T, prev, next geom.Bounds2) {
	pr, prevOK := b.cellRange(prev)
	nr, nextOK := b.cellRange(next)

	switch {
	case !prevOK && !nextOK:
		return
	case !prevOK:
		b.Insert(item, next)
		return
	case !nextOK:
		b.Remove(item, prev)
		return
	}

	for y := pr.minY; y <= pr.maxY; y++ {
		for x := pr.minX; x <= pr.maxX; x++ {
			if !nr.contains(x, y) {
				b.removeAt(item, x, y)
			}
		}
	}

	for y := nr.minY; y <= nr.maxY; y++ {
		for x := nr.minX; x <= nr.maxX; x++ {
			if !pr.contains(x, y) {
				b.insertAt(item, x, y)
			}
		}
	}
}

// Retrieve adds to results every item stored in the cells covered by bounds.
func (b *Bin2D[T]) Retrieve(bounds geom.Bounds2, results ResultSet[T]) {
	r, ok := b.cellRange(bounds)
	if !ok {
		return
	}

	for y := r.minY; y <= r.maxY; y++ {
		for x := r.minX; x <= r.maxX; x++ {
			l := b.grid.Get(x, y)
			if l == nil {
				continue
			}

			for n := l.First(); n != nil; n = n.Next() {
				results.Add(n.Value)
			}
		}
	}
}

// Cell returns an iterator over the items stored in the cell at (x, y).
func (b *Bin2D[T]) Cell(x, y int) iter.Seq[T] {
	l := b.grid.Get(x, y)

	return func(yield func(T) bool) {
		if l == nil {
			return
		}

		for v := range l.All() {
			if !yield(v) {
				return
			}
		}
	}
}

func (b *Bin2D[T]) CellCount(x, y int) int {
	if l := b.grid.Get(x, y); l != nil {
		return l.Count()
	}
	return 0
}

// Clear empties every cell and gives the cell lists back to the pool.
func (b *Bin2D[T]) Clear() {
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if l := b.grid.Get(x, y); l != nil {
				b.release(l)
				b.grid.Set(x, y, nil)
			}
		}
	}
}

// Dispose is equivalent to Clear.
func (b *Bin2D[T]) Dispose() {
	b.Clear()
}

func (b *Bin2D[T]) DebugInfo() DebugInfo {
	info := DebugInfo{
		Width:      b.Width(),
		Height:     b.Height(),
		CellWidth:  b.cellWidth,
		CellHeight: b.cellHeight,
		Occupancy:  make([]uint32, 0, b.grid.Len()),
	}

	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			info.add(b.CellCount(x, y))
		}
	}
	return info
}

func (b *Bin2D[T]) insertAt(item T, x, y int) {
	l := b.grid.Get(x, y)
	if l == nil {
		l = b.lists.Spawn()
		b.grid.Set(x, y, l)
	}
	l.AddLast(item)
}

func (b *Bin2D[T]) removeAt(item T, x, y int) {
	l := b.grid.Get(x, y)
	if l == nil || !l.Remove(item) {
		return
	}

	if l.Count() == 0 {
		b.release(l)
		b.grid.Set(x, y, nil)
	}
}

func (b *Bin2D[T]) release(l *list.List[T]) {
	l.Clear()
	b.lists.Despawn(l)
}

func (b *Bin2D[T]) cellRange(bounds geom.Bounds2) (cellRange2, bool) {
	if !axisOverlaps(bounds.Min[0], bounds.Max[0], b.extent[0]) ||
		!axisOverlaps(bounds.Min[1], bounds.Max[1], b.extent[1]) {
		return cellRange2{}, false
	}

	var r cellRange2
	r.minX, r.maxX = axisRange(bounds.Min[0], bounds.Max[0], b.cellWidth, b.Width())
	r.minY, r.maxY = axisRange(bounds.Min[1], bounds.Max[1], b.cellHeight, b.Height())
	return r, true
}

type cellRange2 struct {
	minX, maxX int
	minY, maxY int
}

func (r cellRange2) contains(x, y int) bool {
	return x >= r.minX && x <= r.maxX && y >= r.minY && y <= r.maxY
}
