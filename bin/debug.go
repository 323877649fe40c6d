package bin

// DebugInfo describes the occupancy of a bin. Occupancy holds the item count
// of every cell in grid order (x first, then y, then z).
type DebugInfo struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Depth      int     `json:"depth,omitempty"`
	CellWidth  float32 `json:"cell_width"`
	CellHeight float32 `json:"cell_height"`
	CellDepth  float32 `json:"cell_depth,omitempty"`

	NonEmptyCells int      `json:"non_empty_cells"`
	References    int      `json:"references"`
	MaxInCell     int      `json:"max_in_cell"`
	Occupancy     []uint32 `json:"occupancy"`
}

func (i *DebugInfo) add(count int) {
	i.Occupancy = append(i.Occupancy, uint32(count))
	if count == 0 {
		return
	}

	i.NonEmptyCells++
	i.References += count
	if count > i.MaxInCell {
		i.MaxInCell = count
	}
}
