package battleship

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	cerr "github.com/saeidalz13/battleships/internal/error"
)

// Game is one single-player session against a randomly placed fleet.
// A rematch is a new Game; a Game is never reset.
type Game struct {
	uuid       string
	fleet      Fleet
	shots      int
	isFinished bool
	createdAt  time.Time
}

func NewGame(rng *rand.Rand) *Game {
	return newGame(uuid.NewString()[:6], PlaceFleet(rng))
}

func newGame(gameUuid string, fleet Fleet) *Game {
	return &Game{
		uuid:       gameUuid,
		fleet:      fleet,
		shots:      0,
		isFinished: !HasUnsunkShips(fleet),
		createdAt:  time.Now(),
	}
}

// Useful for tests and replays of a known layout.
func NewGameWithFleet(fleet Fleet) *Game {
	return newGame(uuid.NewString()[:6], fleet)
}

func (g *Game) Uuid() string {
	return g.uuid
}

func (g *Game) Fleet() Fleet {
	return g.fleet
}

func (g *Game) Shots() int {
	return g.shots
}

func (g *Game) IsFinished() bool {
	return g.isFinished
}

func (g *Game) CreatedAt() time.Time {
	return g.createdAt
}

// Fire counts and resolves a shot. Off-board shots and shots after the
// fleet is cleared are rejected and do not count.
func (g *Game) Fire(row, col int) (ShotOutcome, error) {
	if !IsInBounds(row, col) {
		return ShotOutcome{}, cerr.ErrXorYOutOfGridBound(row, col)
	}
	if g.isFinished {
		return ShotOutcome{}, cerr.ErrShotAfterGameOver(g.uuid)
	}

	g.shots++
	outcome := Resolve(row, col, g.fleet)

	if !HasUnsunkShips(g.fleet) {
		g.isFinished = true
	}
	return outcome, nil
}
