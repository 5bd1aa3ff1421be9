package battleship

import (
	"fmt"

	cerr "github.com/saeidalz13/battleships/internal/error"
)

type ShotResult uint8

const (
	ShotMiss ShotResult = iota
	ShotHit
	ShotSunk
	ShotAlreadyHit
)

func (sr ShotResult) String() string {
	switch sr {
	case ShotHit:
		return "hit"
	case ShotSunk:
		return "sunk"
	case ShotAlreadyHit:
		return "already_hit"
	default:
		return "miss"
	}
}

func (sr ShotResult) MarshalText() ([]byte, error) {
	return []byte(sr.String()), nil
}

func (sr *ShotResult) UnmarshalText(text []byte) error {
	for candidate := ShotMiss; candidate <= ShotAlreadyHit; candidate++ {
		if candidate.String() == string(text) {
			*sr = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown shot result: %s", text)
}

// ShotOutcome is what a front end needs to report a single shot.
// Ship is nil on a miss.
type ShotOutcome struct {
	Coordinates Coordinates
	Result      ShotResult
	Ship        *Ship
}

func (so ShotOutcome) ShipType() ShipType {
	if so.Ship == nil {
		return ShipTypeUnknown
	}
	return so.Ship.Type()
}

// IsHit reports whether the shot lands on a ship cell that has not been
// hit yet. Repeats on a hit cell and off-board shots are both false.
func IsHit(row, col int, fleet Fleet) bool {
	for _, ship := range fleet {
		if ship.Occupies(row, col) && !ship.IsHitAt(row, col) {
			return true
		}
	}
	return false
}

// ApplyHit records the shot on the ship occupying (row, col) and returns
// that ship so the caller can check whether it sank. Hitting the same
// cell twice leaves the hit set unchanged.
func ApplyHit(row, col int, fleet Fleet) (Fleet, *Ship, error) {
	ship := fleet.ShipAt(row, col)
	if ship == nil {
		return fleet, nil, cerr.ErrNoShipAtCoordinates(row, col)
	}

	ship.GotHit(row, col)
	return fleet, ship, nil
}

func HasUnsunkShips(fleet Fleet) bool {
	for _, ship := range fleet {
		if !ship.IsSunk() {
			return true
		}
	}
	return false
}

// Resolve classifies and applies a single shot.
func Resolve(row, col int, fleet Fleet) ShotOutcome {
	outcome := ShotOutcome{Coordinates: NewCoordinates(row, col), Result: ShotMiss}

	ship := fleet.ShipAt(row, col)
	if ship == nil {
		return outcome
	}

	outcome.Ship = ship
	if !IsHit(row, col, fleet) {
		outcome.Result = ShotAlreadyHit
		return outcome
	}

	// IsHit guarantees a ship occupies the cell
	_, ship, _ = ApplyHit(row, col, fleet)
	if ship.IsSunk() {
		outcome.Result = ShotSunk
	} else {
		outcome.Result = ShotHit
	}
	return outcome
}
