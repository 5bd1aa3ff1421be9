package battleship

import (
	"math/rand"
	"sort"

	cerr "github.com/saeidalz13/battleships/internal/error"
)

const (
	defaultMaxAttemptsPerShip int = 1000

	// Zero means the placer rebuilds the fleet until it succeeds
	unlimitedRestarts int = 0
)

// Placer lays out ships at random. Each ship gets up to
// maxAttemptsPerShip uniformly sampled candidates; after that every
// legal candidate is enumerated and one is picked with the same rng.
// A ship with no legal candidate at all throws the partial fleet away
// and placement starts over, at most maxRestarts times.
type Placer struct {
	rng                *rand.Rand
	maxAttemptsPerShip int
	maxRestarts        int
}

type PlacerOption func(*Placer)

func WithMaxAttemptsPerShip(attempts int) PlacerOption {
	return func(p *Placer) {
		if attempts < 0 {
			attempts = 0
		}
		p.maxAttemptsPerShip = attempts
	}
}

func WithMaxRestarts(restarts int) PlacerOption {
	return func(p *Placer) {
		if restarts < 0 {
			restarts = unlimitedRestarts
		}
		p.maxRestarts = restarts
	}
}

func NewPlacer(rng *rand.Rand, opts ...PlacerOption) *Placer {
	placer := &Placer{
		rng:                rng,
		maxAttemptsPerShip: defaultMaxAttemptsPerShip,
		maxRestarts:        unlimitedRestarts,
	}
	for _, opt := range opts {
		opt(placer)
	}
	return placer
}

// Place builds a legal fleet for the given lengths. Lengths are placed
// longest first regardless of the order they are passed in.
func (p *Placer) Place(lengths []int) (Fleet, error) {
	ordered := make([]int, len(lengths))
	copy(ordered, lengths)
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))

	restarts := 0
	for {
		fleet, failedLength, ok := p.tryPlace(ordered)
		if ok {
			return fleet, nil
		}

		if p.maxRestarts != unlimitedRestarts && restarts >= p.maxRestarts {
			return nil, cerr.ErrShipNotPlaceable(failedLength, restarts)
		}
		restarts++
	}
}

func (p *Placer) tryPlace(lengths []int) (Fleet, int, bool) {
	fleet := make(Fleet, 0, len(lengths))

	for _, length := range lengths {
		row, col, orientation, ok := p.sample(length, fleet)
		if !ok {
			row, col, orientation, ok = p.scan(length, fleet)
		}
		if !ok {
			return nil, length, false
		}
		fleet = fleet.PlaceShipAt(row, col, orientation, length)
	}

	return fleet, 0, true
}

func (p *Placer) sample(length int, fleet Fleet) (int, int, Orientation, bool) {
	for attempt := 0; attempt < p.maxAttemptsPerShip; attempt++ {
		row := p.rng.Intn(GridSize)
		col := p.rng.Intn(GridSize)
		orientation := Orientation(p.rng.Intn(2) == 1)

		if CanPlaceShip(row, col, orientation, length, fleet) {
			return row, col, orientation, true
		}
	}
	return 0, 0, Vertical, false
}

type placementCandidate struct {
	row         int
	col         int
	orientation Orientation
}

func (p *Placer) scan(length int, fleet Fleet) (int, int, Orientation, bool) {
	candidates := make([]placementCandidate, 0, GridSize*GridSize*2)

	for row := ValidLowerBound; row <= ValidUpperBound; row++ {
		for col := ValidLowerBound; col <= ValidUpperBound; col++ {
			for _, orientation := range []Orientation{Vertical, Horizontal} {
				if CanPlaceShip(row, col, orientation, length, fleet) {
					candidates = append(candidates, placementCandidate{row: row, col: col, orientation: orientation})
				}
			}
		}
	}

	if len(candidates) == 0 {
		return 0, 0, Vertical, false
	}

	picked := candidates[p.rng.Intn(len(candidates))]
	return picked.row, picked.col, picked.orientation, true
}

// PlaceFleet returns a random legal arrangement of the canonical fleet.
func PlaceFleet(rng *rand.Rand) Fleet {
	fleet, err := NewPlacer(rng).Place(FleetLengths[:])
	if err != nil {
		// unlimited restarts never give up
		panic(err)
	}
	return fleet
}
