package connection

import (
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	mb "github.com/saeidalz13/battleships/models/battleship"
)

const (
	maxWriteWsRetries uint8         = 2
	backOffFactor     uint8         = 2
	gracePeriod       time.Duration = time.Minute * 2
)

type ConnectionHandler interface {
	reconnectionAfterAbnormalClosure(conn *websocket.Conn)
	handleReadFromConnErr(err error, retries uint8) uint8
	writeToConnWithRetry(msg interface{}) error
	onConnErr(err error) uint8
}

// Session is one client connection. It owns at most one game at a time;
// creating another game replaces it. The connection can be swapped for a
// new one when the client comes back after an abnormal closure.
type Session struct {
	id                     string
	conn                   *websocket.Conn
	reconnectionSignalChan chan bool
	game                   *mb.Game
	createdAt              time.Time
	mu                     sync.RWMutex
}

func NewSession(id string, conn *websocket.Conn) *Session {
	return &Session{
		id:                     id,
		conn:                   conn,
		reconnectionSignalChan: make(chan bool),
		createdAt:              time.Now(),
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Conn() *websocket.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.conn
}

// The returned channel is closed once the returned
// connection has been replaced by a reconnection.
func (s *Session) connWithSignal() (*websocket.Conn, <-chan bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.conn, s.reconnectionSignalChan
}

func (s *Session) Game() *mb.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.game
}

func (s *Session) SetGame(game *mb.Game) {
	s.mu.Lock()
	s.game = game
	s.mu.Unlock()
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) closeConn() {
	if conn := s.Conn(); conn != nil {
		_ = conn.Close()
	}
}

func (s *Session) onConnErr(err error) uint8 {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Println("timeout error:", err)
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		log.Println("high server load/traffic error:", err)
		return ConnLoopRetry
	}

	// Backgrounded mobile clients and dropped networks end up here
	if websocket.IsCloseError(err, websocket.CloseAbnormalClosure) {
		log.Println("abnormal closure error:", err)
		return ConnLoopAbnormalClosureRetry
	}

	if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Println("close error:", err)
		return ConnLoopBreak
	}

	if websocket.IsCloseError(err, websocket.CloseProtocolError, websocket.CloseInternalServerErr, websocket.CloseTLSHandshake, websocket.CloseMandatoryExtension) {
		log.Println("critical error:", err)
		return ConnLoopBreak
	}

	/*
		The client is probably not ours (e.g. binary frames or invalid
		UTF-8). Breaking so invalid payloads cannot keep the loop busy.
	*/
	if websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData, websocket.CloseMessageTooBig, websocket.ClosePolicyViolation, websocket.CloseServiceRestart, websocket.CloseNoStatusReceived) {
		log.Println("non-critical error:", err)
		return ConnLoopBreak
	}

	log.Println("unexpected error:", err)
	return ConnLoopBreak
}

// Writes JSON to the connection of that session with a
// linear back-off on retryable errors.
func (s *Session) writeToConnWithRetry(msg interface{}) error {
	var retries uint8
	conn := s.Conn()

writeJsonLoop:
	for {
		err := conn.WriteJSON(msg)
		if err == nil {
			return nil
		}

		switch s.onConnErr(err) {
		case ConnLoopRetry:
			if retries < maxWriteWsRetries {
				retries++
				log.Printf("writing json failed to ws [%s]; retrying... (retry no. %d)\n", conn.RemoteAddr().String(), retries)
				time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
				continue writeJsonLoop
			}
			log.Printf("max retries reached for writing to ws [%s]:%s", conn.RemoteAddr().String(), err)
			return NewConnErr(ConnLoopBreak)

		case ConnLoopAbnormalClosureRetry:
			return NewConnErr(ConnLoopAbnormalClosureRetry).AddDesc(err.Error())

		default:
			return NewConnErr(ConnLoopBreak).AddDesc("breaking writeJsonLoop due to:" + err.Error())
		}
	}
}

// Decides what the read loop does after a failed read.
// ConnLoopContinue retries the read on the same connection.
func (s *Session) handleReadFromConnErr(err error, retries uint8) uint8 {
	remoteAddr := s.Conn().RemoteAddr().String()

	switch s.onConnErr(err) {
	case ConnLoopRetry:
		if retries < maxWriteWsRetries {
			log.Printf("failed to read from ws conn [%s]; retrying... (retry no. %d)\n", remoteAddr, retries)
			time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
			return ConnLoopContinue
		}
		return ConnLoopBreak

	case ConnLoopAbnormalClosureRetry:
		return ConnLoopAbnormalClosureRetry

	default:
		log.Printf("break ws conn loop [%s] due to: %s\n", remoteAddr, err)
		return ConnLoopBreak
	}
}

// Swaps in the new connection and wakes up whoever waits on the old one.
// The old connection is closed so a read still blocked on it returns.
func (s *Session) reconnectionAfterAbnormalClosure(conn *websocket.Conn) {
	s.mu.Lock()
	oldConn := s.conn
	s.conn = conn
	close(s.reconnectionSignalChan)
	s.reconnectionSignalChan = make(chan bool)
	s.mu.Unlock()

	if oldConn != nil {
		_ = oldConn.Close()
	}
}

var _ ConnectionHandler = (*Session)(nil)

func isSignaled(signal <-chan bool) bool {
	select {
	case <-signal:
		return true
	default:
		return false
	}
}
