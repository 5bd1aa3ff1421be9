package battleship

import "fmt"

const (
	GridSize        int = 10
	ValidLowerBound int = 0
	ValidUpperBound int = GridSize - 1
)

type Orientation bool

const (
	Vertical   Orientation = false
	Horizontal Orientation = true
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

type Coordinates struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewCoordinates(row, col int) Coordinates {
	return Coordinates{Row: row, Col: col}
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Chebyshev distance of 1 or 0. Rows and cols are
// compared on the plane, so col 9 and col 0 never touch.
func (c Coordinates) isAdjacentOrEqual(other Coordinates) bool {
	return abs(c.Row-other.Row) <= 1 && abs(c.Col-other.Col) <= 1
}

func IsInBounds(row, col int) bool {
	return row >= ValidLowerBound && row <= ValidUpperBound &&
		col >= ValidLowerBound && col <= ValidUpperBound
}

// OccupiedCells returns the cells a ship of the given geometry covers,
// starting at the origin and increasing along cols when horizontal or
// along rows when vertical. Bounds are not checked here.
func OccupiedCells(row, col int, orientation Orientation, length int) []Coordinates {
	cells := make([]Coordinates, 0, length)
	for i := 0; i < length; i++ {
		if orientation == Horizontal {
			cells = append(cells, NewCoordinates(row, col+i))
		} else {
			cells = append(cells, NewCoordinates(row+i, col))
		}
	}
	return cells
}

// IsExclusionFree reports whether (row, col) is neither occupied by nor
// adjacent (diagonals included) to any of the ships.
func IsExclusionFree(row, col int, ships []*Ship) bool {
	target := NewCoordinates(row, col)
	for _, ship := range ships {
		for _, cell := range ship.Cells() {
			if cell.isAdjacentOrEqual(target) {
				return false
			}
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
