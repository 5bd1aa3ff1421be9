package connection

const (
	CodeSessionID uint8 = iota

	// Creates a fresh game for the session. Sent again
	// after game over to play a rematch.
	CodeCreateGame
	CodeAttack
	CodeEndGame
	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent

	// Sent on the new connection once a session is resumed
	// with the sessionID query after an abnormal closure
	CodeSessionReconnected
)

// Code is a pointer so a missing field can be
// told apart from CodeSessionID.
type Signal struct {
	Code *uint8 `json:"code"`
}
