package world

import "math"

// DefaultCellSize is the grid cell edge length used when the config does
// not override it. Cells should be at least as large as a typical
// detection radius so scans touch few cells.
const DefaultCellSize = 16.0

// cellKey addresses one grid cell. Coordinates are unbounded, so cells
// live in a map rather than a fixed array.
type cellKey struct {
	cx, cy int32
}

func cellAt(x, y, cellSize float64) cellKey {
	return cellKey{
		cx: int32(math.Floor(x / cellSize)),
		cy: int32(math.Floor(y / cellSize)),
	}
}

// cellSpan returns how many cells on each side of the center cell a scan
// of the given radius has to visit.
func cellSpan(radius, cellSize float64) int32 {
	if radius <= 0 {
		return 0
	}
	return int32(math.Ceil(radius / cellSize))
}
