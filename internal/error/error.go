package error

import (
	"errors"
	"fmt"
)

const (
	ConstErrAttackFailed = "attack operation failed"
	ConstErrReconnect    = "failed to reconnect to session"
)

var (
	ErrInvalidShot         = errors.New("no ship occupies the shot coordinates")
	ErrPlacementExhausted  = errors.New("fleet placement exhausted all attempts")
	ErrGameAlreadyFinished = errors.New("game is already finished")
)

func ErrGameNotExists(gameUuid string) error {
	return fmt.Errorf("game with this uuid does not exist, uuid: %s", gameUuid)
}

func ErrGameIsNil(gameUuid string) error {
	return fmt.Errorf("game with this uuid is nil, uuid: %s", gameUuid)
}

func ErrSessionNotFound(sessionId string) error {
	return fmt.Errorf("session with this id not found, id: %s", sessionId)
}

func ErrSessionIsNil(sessionId string) error {
	return fmt.Errorf("session with this id is nil, id: %s", sessionId)
}

func ErrGameUuidMismatch(expected, got string) error {
	return fmt.Errorf("game uuid does not belong to this session\texpected: %s\tgot: %s", expected, got)
}

func ErrSignalCodeAbsent() error {
	return fmt.Errorf("incoming message does not contain a code field")
}

func ErrNothingToResume(sessionId string) error {
	return fmt.Errorf("session has no game in progress to resume, id: %s", sessionId)
}

func ErrNoGameInSession() error {
	return fmt.Errorf("no game has been created in this session")
}

func ErrXorYOutOfGridBound(row, col int) error {
	return fmt.Errorf("incoming row or col is out of game grid bound\trow: %d\tcol: %d", row, col)
}

func ErrNoShipAtCoordinates(row, col int) error {
	return fmt.Errorf("%w\trow: %d\tcol: %d", ErrInvalidShot, row, col)
}

func ErrShipNotPlaceable(length, restarts int) error {
	return fmt.Errorf("%w\tship length: %d\trestarts: %d", ErrPlacementExhausted, length, restarts)
}

func ErrShotAfterGameOver(gameUuid string) error {
	return fmt.Errorf("%w\tuuid: %s", ErrGameAlreadyFinished, gameUuid)
}
