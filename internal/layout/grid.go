package layout

import "hotel_recs/internal/domain"

const (
	GridColumns  = 2
	GridMaxCells = 6
	GridGutter   = 4.0
	GridRowH     = 55.0
)

// GridCells is the number of cells a hotel with count images uses.
func GridCells(count int) int {
	switch {
	case count <= 0:
		return 0
	case count > GridMaxCells:
		return GridMaxCells
	}
	return count
}

// GridRows is ceil(GridCells(count) / 2).
func GridRows(count int) int {
	return (GridCells(count) + GridColumns - 1) / GridColumns
}

// GridHeight is the vertical space taken by a grid of count images.
func GridHeight(count int) float64 {
	rows := GridRows(count)
	if rows == 0 {
		return 0
	}
	return float64(rows)*GridRowH + float64(rows-1)*GridGutter
}

// GridLayout places min(count, 6) cells in a 2-column grid inside area,
// row-major, left to right, top to bottom. Cell width is
// (area.W - gutter) / 2, cell height the fixed row height. A trailing
// single cell keeps its column width; its neighbour slot stays empty.
func GridLayout(count int, area domain.Box) []domain.Box {
	n := GridCells(count)
	if n == 0 {
		return nil
	}
	w := (area.W - GridGutter) / GridColumns
	cells := make([]domain.Box, 0, n)
	for i := 0; i < n; i++ {
		row, col := i/GridColumns, i%GridColumns
		cells = append(cells, domain.Box{
			X: area.X + float64(col)*(w+GridGutter),
			Y: area.Y + float64(row)*(GridRowH+GridGutter),
			W: w,
			H: GridRowH,
		})
	}
	return cells
}
