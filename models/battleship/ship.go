package battleship

type ShipType uint8

const (
	ShipTypeUnknown ShipType = iota
	ShipTypeSubmarine
	ShipTypeDestroyer
	ShipTypeCruiser
	ShipTypeBattleship
)

const (
	MinShipLength = 1
	MaxShipLength = 4
)

func (st ShipType) String() string {
	switch st {
	case ShipTypeSubmarine:
		return "submarine"
	case ShipTypeDestroyer:
		return "destroyer"
	case ShipTypeCruiser:
		return "cruiser"
	case ShipTypeBattleship:
		return "battleship"
	default:
		return "unknown"
	}
}

func (st ShipType) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

func (st *ShipType) UnmarshalText(text []byte) error {
	for candidate := ShipTypeSubmarine; candidate <= ShipTypeBattleship; candidate++ {
		if candidate.String() == string(text) {
			*st = candidate
			return nil
		}
	}
	*st = ShipTypeUnknown
	return nil
}

// Ship type depends on nothing but the length.
func ShipTypeFromLength(length int) ShipType {
	if length < MinShipLength || length > MaxShipLength {
		return ShipTypeUnknown
	}
	return ShipType(length)
}

type ShipState uint8

const (
	ShipStateUnhit ShipState = iota
	ShipStatePartiallyHit
	ShipStateSunk
)

func (ss ShipState) String() string {
	switch ss {
	case ShipStateUnhit:
		return "unhit"
	case ShipStatePartiallyHit:
		return "partially hit"
	default:
		return "sunk"
	}
}

type Ship struct {
	row            int
	col            int
	orientation    Orientation
	length         int
	cells          []Coordinates
	hitCoordinates []Coordinates
}

func NewShip(row, col int, orientation Orientation, length int) *Ship {
	return &Ship{
		row:            row,
		col:            col,
		orientation:    orientation,
		length:         length,
		cells:          OccupiedCells(row, col, orientation, length),
		hitCoordinates: make([]Coordinates, 0, length),
	}
}

func (sh *Ship) Origin() Coordinates {
	return NewCoordinates(sh.row, sh.col)
}

func (sh *Ship) Orientation() Orientation {
	return sh.orientation
}

func (sh *Ship) Length() int {
	return sh.length
}

func (sh *Ship) Type() ShipType {
	return ShipTypeFromLength(sh.length)
}

// Returns a copy; the geometry of a placed ship never changes.
func (sh *Ship) Cells() []Coordinates {
	cells := make([]Coordinates, len(sh.cells))
	copy(cells, sh.cells)
	return cells
}

func (sh *Ship) Occupies(row, col int) bool {
	for _, cell := range sh.cells {
		if cell.Row == row && cell.Col == col {
			return true
		}
	}
	return false
}

func (sh *Ship) IsHitAt(row, col int) bool {
	for _, hit := range sh.hitCoordinates {
		if hit.Row == row && hit.Col == col {
			return true
		}
	}
	return false
}

// Records a hit on one of the ship's cells. Returns false when the
// cell is not part of the ship or was already hit.
func (sh *Ship) GotHit(row, col int) bool {
	if !sh.Occupies(row, col) || sh.IsHitAt(row, col) {
		return false
	}
	sh.hitCoordinates = append(sh.hitCoordinates, NewCoordinates(row, col))
	return true
}

func (sh *Ship) Hits() int {
	return len(sh.hitCoordinates)
}

func (sh *Ship) IsSunk() bool {
	return len(sh.hitCoordinates) == sh.length
}

func (sh *Ship) State() ShipState {
	switch {
	case len(sh.hitCoordinates) == 0:
		return ShipStateUnhit
	case sh.IsSunk():
		return ShipStateSunk
	default:
		return ShipStatePartiallyHit
	}
}

// Hit coordinates in the order they were hit.
func (sh *Ship) GetHitCoordinates() []Coordinates {
	hits := make([]Coordinates, len(sh.hitCoordinates))
	copy(hits, sh.hitCoordinates)
	return hits
}
