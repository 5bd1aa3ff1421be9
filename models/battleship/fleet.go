package battleship

// Lengths of the canonical fleet, longest first: one battleship,
// two cruisers, three destroyers and four submarines.
var FleetLengths = [...]int{4, 3, 3, 2, 2, 2, 1, 1, 1, 1}

const FleetSize = len(FleetLengths)

// Fleet is append-only. Ships keep their index for the
// whole game and only their hit coordinates change.
type Fleet []*Ship

// Returns a new fleet with the ship appended. Legality of the
// arrangement is the caller's responsibility (see CanPlaceShip).
func (f Fleet) PlaceShipAt(row, col int, orientation Orientation, length int) Fleet {
	return append(f, NewShip(row, col, orientation, length))
}

// Returns the ship covering (row, col) or nil.
func (f Fleet) ShipAt(row, col int) *Ship {
	for _, ship := range f {
		if ship.Occupies(row, col) {
			return ship
		}
	}
	return nil
}

func (f Fleet) Lengths() []int {
	lengths := make([]int, len(f))
	for i, ship := range f {
		lengths[i] = ship.Length()
	}
	return lengths
}

func (f Fleet) SunkenShips() int {
	sunken := 0
	for _, ship := range f {
		if ship.IsSunk() {
			sunken++
		}
	}
	return sunken
}

// CanPlaceShip reports whether adding the ship keeps the arrangement
// legal: every cell on the board and clear of other ships' exclusion zone.
func CanPlaceShip(row, col int, orientation Orientation, length int, fleet Fleet) bool {
	for _, cell := range OccupiedCells(row, col, orientation, length) {
		if !IsInBounds(cell.Row, cell.Col) {
			return false
		}
		if !IsExclusionFree(cell.Row, cell.Col, fleet) {
			return false
		}
	}
	return true
}
