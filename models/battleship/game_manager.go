package battleship

import (
	"math/rand"
	"sync"
	"time"

	cerr "github.com/saeidalz13/battleships/internal/error"
)

type GameManager interface {
	CreateGame() *Game
	FetchGame(gameUuid string) (*Game, error)
	TerminateGame(gameUuid string)
	CountGames() int
}

type BattleshipGameManager struct {
	games map[string]*Game
	rng   *rand.Rand
	mu    sync.RWMutex
}

var _ GameManager = (*BattleshipGameManager)(nil)

func NewBattleshipGameManager() *BattleshipGameManager {
	return NewBattleshipGameManagerWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func NewBattleshipGameManagerWithRand(rng *rand.Rand) *BattleshipGameManager {
	return &BattleshipGameManager{
		games: make(map[string]*Game, 10),
		rng:   rng,
	}
}

func (bgm *BattleshipGameManager) CreateGame() *Game {
	bgm.mu.Lock()
	defer bgm.mu.Unlock()

	// rand.Rand is not safe for concurrent use, so placement
	// happens under the write lock
	game := NewGame(bgm.rng)
	bgm.games[game.Uuid()] = game
	return game
}

func (bgm *BattleshipGameManager) FetchGame(gameUuid string) (*Game, error) {
	bgm.mu.RLock()
	defer bgm.mu.RUnlock()

	game, prs := bgm.games[gameUuid]
	if !prs {
		return nil, cerr.ErrGameNotExists(gameUuid)
	}

	if game == nil {
		return nil, cerr.ErrGameIsNil(gameUuid)
	}

	return game, nil
}

func (bgm *BattleshipGameManager) TerminateGame(gameUuid string) {
	bgm.mu.Lock()
	delete(bgm.games, gameUuid)
	bgm.mu.Unlock()
}

func (bgm *BattleshipGameManager) CountGames() int {
	bgm.mu.RLock()
	defer bgm.mu.RUnlock()

	return len(bgm.games)
}
