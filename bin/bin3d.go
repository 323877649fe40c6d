package bin

import (
	"iter"

	"github.com/aukilabs/dagaz/geom"
	"github.com/aukilabs/dagaz/grid"
	"github.com/aukilabs/dagaz/list"
	"github.com/aukilabs/dagaz/pool"
	"github.com/go-gl/mathgl/mgl32"
)

// Bin3D is a uniform 3D grid of cells used as a broad-phase spatial index.
// An item is stored in every cell its bounds cover; queries return the items
// of every cell a region covers, which may include items whose bounds do not
// actually overlap the region.
//
// The bin does not remember item bounds: Remove and Update must be given the
// exact bounds used to insert the item, otherwise references stay behind in
// cells that are never visited again.
//
// Cell lists are spawned from the process-wide list pool of T and despawned
// once empty. Call Dispose before dropping a bin to give them back.
//
// A Bin3D is not safe for concurrent use.
type Bin3D[T comparable] struct {
	grid       *grid.Grid3D[*list.List[T]]
	cellWidth  float32
	cellHeight float32
	cellDepth  float32
	extent     mgl32.Vec3
	lists      *pool.Pool[list.List[T]]
}

// NewBin3D returns a bin of width x height x depth cells, each cell covering
// cellWidth x cellHeight x cellDepth world units from the origin.
func NewBin3D[T comparable](width, height, depth int, cellWidth, cellHeight, cellDepth float32) (*Bin3D[T], error) {
	for _, err := range []error{
		validateDimension("x", width),
		validateDimension("y", height),
		validateDimension("z", depth),
		validateCellSize("x", cellWidth),
		validateCellSize("y", cellHeight),
		validateCellSize("z", cellDepth),
	} {
		if err != nil {
			return nil, err
		}
	}

	g, err := grid.NewGrid3D[*list.List[T]](width, height, depth)
	if err != nil {
		return nil, err
	}

	return &Bin3D[T]{
		grid:       g,
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
		cellDepth:  cellDepth,
		extent: mgl32.Vec3{
			float32(width) * cellWidth,
			float32(height) * cellHeight,
			float32(depth) * cellDepth,
		},
		lists: list.Pool[T](),
	}, nil
}

func (b *Bin3D[T]) Width() int          { return b.grid.Width() }
func (b *Bin3D[T]) Height() int         { return b.grid.Height() }
func (b *Bin3D[T]) Depth() int          { return b.grid.Depth() }
func (b *Bin3D[T]) CellWidth() float32  { return b.cellWidth }
func (b *Bin3D[T]) CellHeight() float32 { return b.cellHeight }
func (b *Bin3D[T]) CellDepth() float32  { return b.cellDepth }

// Extent returns the world size covered by the bin.
func (b *Bin3D[T]) Extent() mgl32.Vec3 {
	return b.extent
}

// Insert adds item to every cell covered by bounds. Bounds entirely outside
// the bin are ignored.
func (b *Bin3D[T]) Insert(item T, bounds geom.Bounds3) {
	r, ok := b.cellRange(bounds)
	if !ok {
		return
	}

	for z := r.minZ; z <= r.maxZ; z++ {
		for y := r.minY; y <= r.maxY; y++ {
			for x := r.minX; x <= r.maxX; x++ {
				b.insertAt(item, x, y, z)
			}
		}
	}
}

// Remove removes one occurrence of item from every cell covered by bounds.
// Cells that do not hold item are left untouched.
func (b *Bin3D[T]) Remove(item T, bounds geom.Bounds3) {
	r, ok := b.cellRange(bounds)
	if !ok {
		return
	}

	for z := r.minZ; z <= r.maxZ; z++ {
		for y := r.minY; y <= r.maxY; y++ {
			for x := r.minX; x <= r.maxX; x++ {
				b.removeAt(item, x, y, z)
			}
		}
	}
}

// Update moves item from prev to next bounds. It is Remove followed by
// Insert.
func (b *Bin3D[T]) Update(item T, prev, next geom.Bounds3) {
	b.Remove(item, prev)
	b.Insert(item, next)
}

// UpdateIncremental moves item from prev to next bounds without touching the
// cells covered by both. The resulting cell membership is the same as
// Update.
func (b *Bin3D[T]) UpdateIncremental(item T, prev, next geom.Bounds3) {
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

	for z := pr.minZ; z <= pr.maxZ; z++ {
		for y := pr.minY; y <= pr.maxY; y++ {
			for x := pr.minX; x <= pr.maxX; x++ {
				if !nr.contains(x, y, z) {
					b.removeAt(item, x, y, z)
				}
			}
		}
	}

	for z := nr.minZ; z <= nr.maxZ; z++ {
		for y := nr.minY; y <= nr.maxY; y++ {
			for x := nr.minX; x <= nr.maxX; x++ {
				if !pr.contains(x, y, z) {
					b.insertAt(item, x, y, z)
				}
			}
		}
	}
}

// Retrieve adds to results every item stored in the cells covered by bounds.
// Results are broad-phase candidates: callers must run their own exact
// intersection test. Bounds entirely outside the bin leave results
// unchanged.
func (b *Bin3D[T]) Retrieve(bounds geom.Bounds3, results ResultSet[T]) {
	r, ok := b.cellRange(bounds)
	if !ok {
		return
	}

	for z := r.minZ; z <= r.maxZ; z++ {
		for y := r.minY; y <= r.maxY; y++ {
			for x := r.minX; x <= r.maxX; x++ {
				l := b.grid.Get(x, y, z)
				if l == nil {
					continue
				}

				for n := l.First(); n != nil; n = n.Next() {
					results.Add(n.Value)
				}
			}
		}
	}
}

// Cell returns an iterator over the items stored in the cell at the given
// coordinates. Coordinates outside the grid panic.
func (b *Bin3D[T]) Cell(x, y, z int) iter.Seq[T] {
	l := b.grid.Get(x, y, z)

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

// CellCount returns the number of items stored in the cell at the given
// coordinates.
func (b *Bin3D[T]) CellCount(x, y, z int) int {
	if l := b.grid.Get(x, y, z); l != nil {
		return l.Count()
	}
	return 0
}

// Clear empties every cell and gives the cell lists back to the pool.
func (b *Bin3D[T]) Clear() {
	for z := 0; z < b.Depth(); z++ {
		for y := 0; y < b.Height(); y++ {
			for x := 0; x < b.Width(); x++ {
				if l := b.grid.Get(x, y, z); l != nil {
					b.release(l)
					b.grid.Set(x, y, z, nil)
				}
			}
		}
	}
}

// Dispose releases the pooled resources held by the bin. It is equivalent to
// Clear.
func (b *Bin3D[T]) Dispose() {
	b.Clear()
}

// DebugInfo returns a snapshot of the bin occupancy.
func (b *Bin3D[T]) DebugInfo() DebugInfo {
	info := DebugInfo{
		Width:      b.Width(),
		Height:     b.Height(),
		Depth:      b.Depth(),
		CellWidth:  b.cellWidth,
		CellHeight: b.cellHeight,
		CellDepth:  b.cellDepth,
		Occupancy:  make([]uint32, 0, b.grid.Len()),
	}

	for z := 0; z < b.Depth(); z++ {
		for y := 0; y < b.Height(); y++ {
			for x := 0; x < b.Width(); x++ {
				info.add(b.CellCount(x, y, z))
			}
		}
	}
	return info
}

func (b *Bin3D[T]) insertAt(item T, x, y, z int) {
	l := b.grid.Get(x, y, z)
	if l == nil {
		l = b.lists.Spawn()
		b.grid.Set(x, y, z, l)
	}
	l.AddLast(item)
}

func (b *Bin3D[T]) removeAt(item T, x, y, z int) {
	l := b.grid.Get(x, y, z)
	if l == nil || !l.Remove(item) {
		return
	}

	if l.Count() == 0 {
		b.release(l)
		b.grid.Set(x, y, z, nil)
	}
}

func (b *Bin3D[T]) release(l *list.List[T]) {
	l.Clear()
	b.lists.Despawn(l)
}

func (b *Bin3D[T]) cellRange(bounds geom.Bounds3) (cellRange3, bool) {
	if !axisOverlaps(bounds.Min[0], bounds.Max[0], b.extent[0]) ||
		!axisOverlaps(bounds.Min[1], bounds.Max[1], b.extent[1]) ||
		!axisOverlaps(bounds.Min[2], bounds.Max[2], b.extent[2]) {
		return cellRange3{}, false
	}

	var r cellRange3
	r.minX, r.maxX = axisRange(bounds.Min[0], bounds.Max[0], b.cellWidth, b.Width())
	r.minY, r.maxY = axisRange(bounds.Min[1], bounds.Max[1], b.cellHeight, b.Height())
	r.minZ, r.maxZ = axisRange(bounds.Min[2], bounds.Max[2], b.cellDepth, b.Depth())
	return r, true
}

type cellRange3 struct {
	minX, maxX int
	minY, maxY int
	minZ, maxZ int
}

func (r cellRange3) contains(x, y, z int) bool {
	return x >= r.minX && x <= r.maxX &&
		y >= r.minY && y <= r.maxY &&
		z >= r.minZ && z <= r.maxZ
}
