package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saeidalz13/battleships/db/sqlc"
	cerr "github.com/saeidalz13/battleships/internal/error"
	mb "github.com/saeidalz13/battleships/models/battleship"
	mc "github.com/saeidalz13/battleships/models/connection"
	"github.com/sqlc-dev/pqtype"
)

const URLQuerySessionIDKeyword string = "sessionID"

var upgrader = websocket.Upgrader{
	// good average time since this is not a high-latency operation such as video streaming
	HandshakeTimeout: time.Second * 5,

	// probably more that enough but this is a good average size
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type RequestProcessor struct {
	sessionManager mc.SessionManager
	gameManager    mb.GameManager
	dbManager      *sqlc.DbManager
	ipnet          net.IPNet
}

// q may be nil, in which case no analytics are recorded.
func NewRequestProcessor(
	sessionManager mc.SessionManager,
	gameManager mb.GameManager,
	q sqlc.Querier,
) RequestProcessor {
	rp := RequestProcessor{
		sessionManager: sessionManager,
		gameManager:    gameManager,
	}
	if q != nil {
		rp.dbManager = sqlc.NewDbManager(q)
	}

	rp.ipnet = findServerIpNet()
	return rp
}

// Picks the first IPv4 address of an interface that is up and not a
// loopback. Falls back to 127.0.0.1/32 on hosts without one.
func findServerIpNet() net.IPNet {
	loopback := net.IPNet{IP: net.IPv4(127, 0, 0, 1).To4(), Mask: net.CIDRMask(32, 32)}

	ifaces, err := net.Interfaces()
	if err != nil {
		log.Println("failed to list interfaces:", err)
		return loopback
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			log.Println("failed to list interface addresses:", err)
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}

			if ip4 := ipnet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
				return net.IPNet{IP: ip4, Mask: net.CIDRMask(32, 32)}
			}
		}
	}

	log.Println("no non-loopback ipv4 address found; using loopback")
	return loopback
}

// Expose this method to use it in testing
func (rp RequestProcessor) GetIpNet() net.IPNet {
	return rp.ipnet
}

func (rp RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Println(err)
		return
	}

	sessionIdQuery := r.URL.Query().Get(URLQuerySessionIDKeyword)
	switch sessionIdQuery {
	case "":
		log.Println("a new connection established\tRemote Addr: ", conn.RemoteAddr().String())
		rp.processSessionRequests(rp.sessionManager.GenerateNewSession(conn))

	// The session goroutine of the original connection
	// keeps serving the client on this new connection
	default:
		rp.reconnectSession(sessionIdQuery, conn)
	}
}

func (rp RequestProcessor) reconnectSession(sessionId string, conn *websocket.Conn) {
	session, err := rp.sessionManager.FindSession(sessionId)
	if err == nil {
		err = rp.sessionManager.ReconnectSession(session, conn)
	}
	if err == nil {
		log.Println("connection reestablished\tRemote Addr: ", conn.RemoteAddr().String())
		return
	}

	resp := mc.NewMessage[mc.NoPayload](mc.CodeSessionReconnected)
	resp.AddError(err.Error(), cerr.ConstErrReconnect)
	if err := conn.WriteJSON(resp); err != nil {
		log.Println(err)
	}
	_ = conn.Close()
}

// Runs the analytics query with a timeout. Failures are logged
// and never end the session.
func (rp RequestProcessor) recordAnalytics(record func(ctx context.Context, analytics *sqlc.AnalyticsManager, serverIp pqtype.Inet) error) {
	if rp.dbManager == nil {
		return
	}

	err := rp.dbManager.RunWithTimeout(func(ctx context.Context) error {
		return record(ctx, rp.dbManager.Analytics, pqtype.Inet{IPNet: rp.ipnet, Valid: true})
	})
	if err != nil {
		log.Println(err)
	}
}

// Shots of a game that is dropped before the fleet is cleared
// still count towards the shots fired by this server.
func (rp RequestProcessor) endGame(game *mb.Game) {
	rp.gameManager.TerminateGame(game.Uuid())
	log.Printf("game terminated: %s\tshots: %d\tlasted: %s\n", game.Uuid(), game.Shots(), time.Since(game.CreatedAt()).Round(time.Second))

	if game.IsFinished() {
		return
	}
	rp.recordAnalytics(func(ctx context.Context, analytics *sqlc.AnalyticsManager, serverIp pqtype.Inet) error {
		return analytics.RecordAbandonedGame(ctx, serverIp, game.Shots())
	})
}

func (rp RequestProcessor) processSessionRequests(session *mc.Session) {
	sessionId := session.Id()

	defer func() {
		if game := session.Game(); game != nil {
			rp.endGame(game)
		}
		if session.Conn() != nil {
			session.Conn().Close()
		}
		rp.sessionManager.TerminateSession(sessionId)
	}()

	resp := mc.NewMessage[mc.RespSessionId](mc.CodeSessionID)
	resp.AddPayload(mc.RespSessionId{SessionID: sessionId})
	if err := rp.sessionManager.WriteToSessionConn(session, resp); err != nil {
		return
	}

sessionLoop:
	for {
		// A WebSocket frame can be one of 6 types: text=1, binary=2, ping=9, pong=10, close=8 and continuation=0
		// https://www.rfc-editor.org/rfc/rfc6455.html#section-11.8
		_, payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			break sessionLoop
		}

		code, err := rp.sessionManager.FetchCodeFromMsg(payload)
		if err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError("incoming req payload must contain 'code' field", "")
			if err = rp.sessionManager.WriteToSessionConn(session, msg); err != nil {
				break sessionLoop
			}
			continue sessionLoop
		}

		switch code {

		// Creates a new game for this session, replacing
		// the previous one if there was any
		case mc.CodeCreateGame:
			if previous := session.Game(); previous != nil {
				rp.endGame(previous)
			}
			rp.recordAnalytics(func(ctx context.Context, analytics *sqlc.AnalyticsManager, serverIp pqtype.Inet) error {
				return analytics.IncrementGamesCreatedCount(ctx, serverIp)
			})

			respMsg := NewRequest(payload).HandleCreateGame(rp.gameManager, session)
			if err := rp.sessionManager.WriteToSessionConn(session, respMsg); err != nil {
				break sessionLoop
			}

		// Resolves one shot. When the shot clears the fleet
		// an end game message follows the attack response
		case mc.CodeAttack:
			respMsg := NewRequest(payload).HandleAttack(session)
			if err := rp.sessionManager.WriteToSessionConn(session, respMsg); err != nil {
				break sessionLoop
			}

			// This means attack operation did not complete
			if respMsg.Error != nil {
				continue sessionLoop
			}

			game := session.Game()
			if !game.IsFinished() {
				continue sessionLoop
			}

			rp.recordAnalytics(func(ctx context.Context, analytics *sqlc.AnalyticsManager, serverIp pqtype.Inet) error {
				return analytics.RecordFinishedGame(ctx, serverIp, game.Shots())
			})

			respEndGame := mc.NewMessage[mc.RespEndGame](mc.CodeEndGame)
			respEndGame.AddPayload(mc.RespEndGame{Shots: game.Shots()})
			if err := rp.sessionManager.WriteToSessionConn(session, respEndGame); err != nil {
				break sessionLoop
			}

		default:
			respInvalidSignal := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
			respInvalidSignal.AddError("", "invalid code in the incoming payload")
			if err := rp.sessionManager.WriteToSessionConn(session, respInvalidSignal); err != nil {
				break sessionLoop
			}
		}
	}
}
