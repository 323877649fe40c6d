package bin

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeInvalidConfig = "bin_invalid_config"
)

// axisOverlaps reports whether [min, max] reaches into [0, extent) on a
// single axis. NaN values never overlap.
func axisOverlaps(min, max, extent float32) bool {
	return max > 0 && min < extent
}

// axisRange returns the inclusive range of cell coordinates covered by
// [min, max] on a single axis, clamped to [0, dim-1]. A max lying exactly on
// a cell boundary maps to the lower cell, except for zero-sized bounds which
// keep the cell holding min. Inverted bounds yield an empty range (hi < lo).
// Callers check axisOverlaps first.
func axisRange(min, max, cellSize float32, dim int) (lo, hi int) {
	last := float64(dim - 1)

	l := math.Floor(float64(min) / float64(cellSize))
	h := math.Ceil(float64(max)/float64(cellSize)) - 1

	l = math.Min(math.Max(0, l), last)
	h = math.Min(math.Max(0, h), last)
	if h < l && max >= min {
		h = l
	}
	return int(l), int(h)
}

func validateCellSize(axis string, v float32) error {
	f := float64(v)
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("cell size must be a positive finite number").
			WithType(ErrTypeInvalidConfig).
			WithTag("axis", axis).
			WithTag("cell_size", v)
	}
	return nil
}

func validateDimension(axis string, v int) error {
	if v <= 0 {
		return errors.New("bin dimension must be positive").
			WithType(ErrTypeInvalidConfig).
			WithTag("axis", axis).
			WithTag("dimension", v)
	}
	return nil
}
