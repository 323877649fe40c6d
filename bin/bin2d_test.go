package bin

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/aukilabs/dagaz/geom"
	"github.com/aukilabs/dagaz/list"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func rect(minX, minY, maxX, maxY float32) geom.Bounds2 {
	return geom.NewBounds2(mgl32.Vec2{minX, minY}, mgl32.Vec2{maxX, maxY})
}

func TestNewBin2D(t *testing.T) {
	b, err := NewBin2D[int](10, 5, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 10, b.Width())
	require.Equal(t, 5, b.Height())
	require.Equal(t, mgl32.Vec2{20, 20}, b.Extent())

	_, err = NewBin2D[int](10, 0, 2, 4)
	require.Equal(t, ErrTypeInvalidConfig, errors.Type(err))

	_, err = NewBin2D[int](10, 5, 2, 0)
	require.Equal(t, ErrTypeInvalidConfig, errors.Type(err))
}

func TestBin2D(t *testing.T) {
	t.Run("insert retrieve remove", func(t *testing.T) {
		b, err := NewBin2D[string](3, 3, 1, 1)
		require.NoError(t, err)
		defer b.Dispose()

		b.Insert("A", rect(0.25, 0.25, 1.75, 1.75))
		b.Insert("B", rect(2.25, 2.25, 2.75, 2.75))
		require.Equal(t, 5, b.DebugInfo().References)

		results := NewResultSet[string](2)
		b.Retrieve(rect(1.5, 1.5, 2.5, 2.5), results)
		require.ElementsMatch(t, []string{"A", "B"}, results.Items())

		results.Reset()
		b.Retrieve(rect(0.1, 0.1, 0.9, 0.9), results)
		require.ElementsMatch(t, []string{"A"}, results.Items())

		b.Remove("A", rect(0.25, 0.25, 1.75, 1.75))
		require.Equal(t, 1, b.DebugInfo().References)
		require.Equal(t, []string{"B"}, slices.Collect(b.Cell(2, 2)))
	})

	t.Run("boundary flooring", func(t *testing.T) {
		b, err := NewBin2D[int](4, 4, 1, 1)
		require.NoError(t, err)
		defer b.Dispose()

		b.Insert(1, rect(0, 0, 2, 2))
		require.Equal(t, 1, b.CellCount(1, 1))
		require.Zero(t, b.CellCount(2, 2))
		require.Equal(t, 4, b.DebugInfo().References)
	})

	t.Run("out of bounds is a no-op", func(t *testing.T) {
		b, err := NewBin2D[int](2, 2, 1, 1)
		require.NoError(t, err)
		defer b.Dispose()

		b.Insert(1, rect(-1, -1, 0, 0))
		b.Insert(2, rect(2, 0, 3, 1))
		b.Insert(3, rect(0, 5, 1, 6))
		require.Zero(t, b.DebugInfo().References)

		results := NewResultSet[int](1)
		b.Retrieve(rect(2, 2, 4, 4), results)
		require.Zero(t, results.Len())
	})

	t.Run("clear", func(t *testing.T) {
		type cleared2D struct{ id int }

		b, err := NewBin2D[cleared2D](3, 3, 1, 1)
		require.NoError(t, err)

		b.Insert(cleared2D{id: 1}, rect(0, 0, 3, 3))
		require.Equal(t, 9, list.Pool[cleared2D]().InUse())

		b.Clear()
		b.Clear()
		require.Zero(t, list.Pool[cleared2D]().InUse())
		require.Zero(t, list.NodePool[cleared2D]().InUse())
		require.Zero(t, b.DebugInfo().References)
	})

	t.Run("incremental update matches update", func(t *testing.T) {
		full, err := NewBin2D[int](5, 5, 2, 2)
		require.NoError(t, err)
		defer full.Dispose()

		incremental, err := NewBin2D[int](5, 5, 2, 2)
		require.NoError(t, err)
		defer incremental.Dispose()

		r := rand.New(rand.NewSource(3))
		bounds := make([]geom.Bounds2, 10)
		for i := range bounds {
			min := mgl32.Vec2{r.Float32() * 10, r.Float32() * 10}
			bounds[i] = geom.NewBounds2(min, min.Add(mgl32.Vec2{r.Float32() * 4, r.Float32() * 4}))
			full.Insert(i, bounds[i])
			incremental.Insert(i, bounds[i])
		}

		for step := 0; step < 300; step++ {
			i := r.Intn(len(bounds))
			next := bounds[i].Translate(mgl32.Vec2{r.Float32()*3 - 1.5, r.Float32()*3 - 1.5})

			full.Update(i, bounds[i], next)
			incremental.UpdateIncremental(i, bounds[i], next)
			bounds[i] = next
		}

		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				require.Equal(t,
					slices.Sorted(full.Cell(x, y)),
					slices.Sorted(incremental.Cell(x, y)),
					"cell %d,%d", x, y,
				)
			}
		}
	})

	t.Run("debug info", func(t *testing.T) {
		b, err := NewBin2D[int](2, 2, 1, 1)
		require.NoError(t, err)
		defer b.Dispose()

		b.Insert(1, rect(0, 0, 2, 1))
		info := b.DebugInfo()
		require.Zero(t, info.Depth)
		require.Equal(t, []uint32{1, 1, 0, 0}, info.Occupancy)
		require.Equal(t, 2, info.NonEmptyCells)
		require.Equal(t, 1, info.MaxInCell)
	})
}

func TestResultSet(t *testing.T) {
	s := NewResultSet[int](4)
	s.Add(1)
	s.Add(1)
	s.Add(2)

	require.Equal(t, 2, s.Len())
	require.True(t, s.Contains(2))
	require.ElementsMatch(t, []int{1, 2}, s.Items())

	s.Reset()
	require.Zero(t, s.Len())
	require.False(t, s.Contains(1))
}
