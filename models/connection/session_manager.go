package connection

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	cerr "github.com/saeidalz13/battleships/internal/error"
)

const defaultCleanupInterval time.Duration = time.Minute * 20

type SessionManager interface {
	GenerateNewSession(conn *websocket.Conn) *Session
	ReconnectSession(session *Session, conn *websocket.Conn) error
	CleanupPeriodically()

	FindSession(sessionId string) (*Session, error)
	TerminateSession(sessionId string)
	CountSessions() int

	WriteToSessionConn(session *Session, msg interface{}) error
	ReadFromSessionConn(session *Session) (int, []byte, error)
	FetchCodeFromMsg(payload []byte) (uint8, error)
}

type BattleshipSessionManager struct {
	cleanupInterval time.Duration
	gracePeriod     time.Duration
	sessions        map[string]*Session
	mu              sync.RWMutex
}

var _ SessionManager = (*BattleshipSessionManager)(nil)

type Option func(*BattleshipSessionManager)

func WithCleanupInterval(cleanupInterval time.Duration) Option {
	return func(bsm *BattleshipSessionManager) {
		bsm.cleanupInterval = cleanupInterval
	}
}

// How long a session with a game in progress waits
// for its client after an abnormal closure.
func WithGracePeriod(gracePeriod time.Duration) Option {
	return func(bsm *BattleshipSessionManager) {
		bsm.gracePeriod = gracePeriod
	}
}

func NewBattleshipSessionManager(opts ...Option) *BattleshipSessionManager {
	initMapSize := 10
	bsm := &BattleshipSessionManager{
		sessions:        make(map[string]*Session, initMapSize),
		cleanupInterval: defaultCleanupInterval,
		gracePeriod:     gracePeriod,
	}

	for _, opt := range opts {
		opt(bsm)
	}
	return bsm
}

func (bsm *BattleshipSessionManager) GenerateNewSession(conn *websocket.Conn) *Session {
	sessionId := base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
	session := NewSession(sessionId, conn)

	bsm.mu.Lock()
	bsm.sessions[sessionId] = session
	bsm.mu.Unlock()

	return session
}

// Only a session with a game in progress can be resumed.
// The session goroutine picks up the new connection.
func (bsm *BattleshipSessionManager) ReconnectSession(session *Session, conn *websocket.Conn) error {
	if session.Game() == nil {
		return cerr.ErrNothingToResume(session.Id())
	}

	session.reconnectionAfterAbnormalClosure(conn)
	return nil
}

func (bsm *BattleshipSessionManager) FindSession(sessionId string) (*Session, error) {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()

	session, prs := bsm.sessions[sessionId]
	if !prs {
		return nil, cerr.ErrSessionNotFound(sessionId)
	}

	if session == nil {
		return nil, cerr.ErrSessionIsNil(sessionId)
	}

	return session, nil
}

func (bsm *BattleshipSessionManager) TerminateSession(sessionId string) {
	bsm.mu.Lock()
	delete(bsm.sessions, sessionId)
	bsm.mu.Unlock()

	log.Printf("session terminated: %s\n", sessionId)
}

func (bsm *BattleshipSessionManager) CountSessions() int {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()

	return len(bsm.sessions)
}

// To ensure that there is no dangling connections,
// server session manager marks the sessions older than
// the cleanup interval as stale and deletes them.
func (bsm *BattleshipSessionManager) CleanupPeriodically() {
	for {
		time.Sleep(bsm.cleanupInterval)
		bsm.cleanupStaleSessions()
	}
}

// Closing the connection ends the read loop of the
// session, which then tears down its game.
func (bsm *BattleshipSessionManager) cleanupStaleSessions() {
	assumedClosedConns := 10

	bsm.mu.Lock()
	toClose := make([]*Session, 0, assumedClosedConns)
	for ID, session := range bsm.sessions {
		if time.Since(session.CreatedAt()) > bsm.cleanupInterval {
			toClose = append(toClose, session)
			delete(bsm.sessions, ID)
		}
	}
	bsm.mu.Unlock()

	log.Println("Clean up sessions:")
	for _, session := range toClose {
		session.closeConn()
		log.Printf("removed: %s", session.Id())
	}
}

// Waits for the client to come back on a new connection. signal is the
// one handed out with the connection that failed, so a reconnection that
// lands before the failure is noticed is not missed.
func (bsm *BattleshipSessionManager) awaitReconnection(session *Session, signal <-chan bool) error {
	if session.Game() == nil {
		return NewConnErr(ConnLoopBreak).AddDesc("no game in progress; nothing to resume")
	}

	timer := time.NewTimer(bsm.gracePeriod)
	defer timer.Stop()

	log.Printf("waiting %s for session to reconnect: %s\n", bsm.gracePeriod, session.Id())
	select {
	case <-timer.C:
		return NewConnErr(ConnLoopBreak).AddDesc("grace period is over for session: " + session.Id())

	case <-signal:
		return bsm.confirmReconnection(session)
	}
}

// Tells the client on the new connection where its game stands.
func (bsm *BattleshipSessionManager) confirmReconnection(session *Session) error {
	game := session.Game()

	resp := NewMessage[RespSessionReconnected](CodeSessionReconnected)
	resp.AddPayload(RespSessionReconnected{
		SessionID:   session.Id(),
		GameUuid:    game.Uuid(),
		Shots:       game.Shots(),
		SunkenShips: game.Fleet().SunkenShips(),
	})

	log.Printf("player reconnected, session: %s\n", session.Id())
	return session.writeToConnWithRetry(resp)
}

func (bsm *BattleshipSessionManager) WriteToSessionConn(session *Session, msg interface{}) error {
	_, signal := session.connWithSignal()

	err := session.writeToConnWithRetry(msg)
	if err == nil {
		return nil
	}

	// The connection was swapped under this write
	if isSignaled(signal) {
		return bsm.confirmReconnection(session)
	}

	var connErr ConnErr
	if !errors.As(err, &connErr) {
		return NewConnErr(ConnLoopBreak).AddDesc(err.Error())
	}

	// The message is lost but the client gets the
	// game state again once it reconnects
	if connErr.Code() == ConnLoopAbnormalClosureRetry {
		return bsm.awaitReconnection(session, signal)
	}
	return connErr
}

func (bsm *BattleshipSessionManager) ReadFromSessionConn(session *Session) (int, []byte, error) {
	var retries uint8

	for {
		conn, signal := session.connWithSignal()

		messageType, payload, err := conn.ReadMessage()
		if err == nil {
			return messageType, payload, nil
		}

		// The client came back while this read was still blocked
		if isSignaled(signal) {
			if err := bsm.confirmReconnection(session); err != nil {
				return -1, []byte{}, err
			}
			retries = 0
			continue
		}

		switch session.handleReadFromConnErr(err, retries) {
		case ConnLoopContinue:
			retries++
			continue

		case ConnLoopAbnormalClosureRetry:
			if err := bsm.awaitReconnection(session, signal); err != nil {
				return -1, []byte{}, err
			}
			retries = 0

		default:
			return -1, []byte{}, err
		}
	}
}

func (bsm *BattleshipSessionManager) FetchCodeFromMsg(payload []byte) (uint8, error) {
	var signal Signal
	if err := json.Unmarshal(payload, &signal); err != nil {
		return CodeSignalAbsent, err
	}

	if signal.Code == nil {
		return CodeSignalAbsent, cerr.ErrSignalCodeAbsent()
	}
	return *signal.Code, nil
}
