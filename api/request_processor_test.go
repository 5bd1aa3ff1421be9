package api

import (
	"math/rand"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/websocket"
	"github.com/saeidalz13/battleships/db/sqlc"
	mb "github.com/saeidalz13/battleships/models/battleship"
	mc "github.com/saeidalz13/battleships/models/connection"
	"github.com/sqlc-dev/pqtype"
)

var dialer = websocket.Dialer{
	HandshakeTimeout: 10 * time.Second,
}

type testServer struct {
	rp             RequestProcessor
	sessionManager *mc.BattleshipSessionManager
	gameManager    *mb.BattleshipGameManager
	wsUrl          string
}

const testGracePeriod = time.Second * 2

func newTestServer(t *testing.T, q sqlc.Querier, opts ...mc.Option) testServer {
	t.Helper()

	bsm := mc.NewBattleshipSessionManager(append([]mc.Option{mc.WithGracePeriod(testGracePeriod)}, opts...)...)
	bgm := mb.NewBattleshipGameManagerWithRand(rand.New(rand.NewSource(2024)))
	rp := NewRequestProcessor(bsm, bgm, q)

	srv := httptest.NewServer(rp)
	t.Cleanup(srv.Close)

	return testServer{
		rp:             rp,
		sessionManager: bsm,
		gameManager:    bgm,
		wsUrl:          "ws" + strings.TrimPrefix(srv.URL, "http") + "/battleship",
	}
}

func (ts testServer) dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Dials the server and consumes the session id message.
func (ts testServer) connect(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, _ := ts.connectWithSessionId(t)
	return conn
}

func (ts testServer) connectWithSessionId(t *testing.T) (*websocket.Conn, string) {
	t.Helper()

	conn := ts.dial(t, ts.wsUrl)

	var respSessionId mc.Message[mc.RespSessionId]
	if err := conn.ReadJSON(&respSessionId); err != nil {
		t.Fatal(err)
	}
	if respSessionId.Code != mc.CodeSessionID || respSessionId.Payload.SessionID == "" {
		t.Fatalf("expected a session id message, got: %+v", respSessionId)
	}
	return conn, respSessionId.Payload.SessionID
}

func (ts testServer) reconnect(t *testing.T, sessionId string) (*websocket.Conn, mc.Message[mc.RespSessionReconnected]) {
	t.Helper()

	conn := ts.dial(t, ts.wsUrl+"?"+URLQuerySessionIDKeyword+"="+sessionId)

	var resp mc.Message[mc.RespSessionReconnected]
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != mc.CodeSessionReconnected {
		t.Fatalf("expected status: %d\t got: %d", mc.CodeSessionReconnected, resp.Code)
	}
	return conn, resp
}

// Closes the tcp connection without a close frame,
// the way a backgrounded client disappears.
func dropConn(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	if err := conn.UnderlyingConn().Close(); err != nil {
		t.Fatal(err)
	}
}

func closeNormally(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second * 5)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for: %s", desc)
		}
		time.Sleep(time.Millisecond * 10)
	}
}

func createGame(t *testing.T, conn *websocket.Conn) mc.RespCreateGame {
	t.Helper()

	if err := conn.WriteJSON(mc.NewMessage[mc.NoPayload](mc.CodeCreateGame)); err != nil {
		t.Fatal(err)
	}

	var resp mc.Message[mc.RespCreateGame]
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != mc.CodeCreateGame {
		t.Fatalf("expected status: %d\t got: %d", mc.CodeCreateGame, resp.Code)
	}
	if resp.Error != nil {
		t.Fatalf("error: %s", resp.Error.ErrorDetails)
	}
	return resp.Payload
}

func attack(t *testing.T, conn *websocket.Conn, gameUuid string, row, col int) mc.Message[mc.RespAttack] {
	t.Helper()

	req := mc.NewMessage[mc.ReqAttack](mc.CodeAttack)
	req.AddPayload(mc.ReqAttack{GameUuid: gameUuid, Row: row, Col: col})
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	var resp mc.Message[mc.RespAttack]
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != mc.CodeAttack {
		t.Fatalf("expected status: %d\t got: %d", mc.CodeAttack, resp.Code)
	}
	return resp
}

func findEmptyCell(fleet mb.Fleet) mb.Coordinates {
	for row := mb.ValidLowerBound; row <= mb.ValidUpperBound; row++ {
		for col := mb.ValidLowerBound; col <= mb.ValidUpperBound; col++ {
			if fleet.ShipAt(row, col) == nil {
				return mb.NewCoordinates(row, col)
			}
		}
	}
	panic("board is full")
}

func TestInvalidCode(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.connect(t)

	tests := []struct {
		name         string
		raw          []byte
		expectedCode uint8
	}{
		{name: "random invalid code", raw: []byte(`{"code":255}`), expectedCode: mc.CodeInvalidSignal},
		{name: "server only code", raw: []byte(`{"code":0}`), expectedCode: mc.CodeInvalidSignal},
		{name: "not json", raw: []byte(`hello`), expectedCode: mc.CodeSignalAbsent},
		{name: "missing code field", raw: []byte(`{"payload":{"row":1}}`), expectedCode: mc.CodeSignalAbsent},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, test.raw); err != nil {
				t.Fatal(err)
			}

			var resp mc.Message[mc.NoPayload]
			if err := conn.ReadJSON(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != test.expectedCode {
				t.Fatalf("expected status: %d\t got: %d", test.expectedCode, resp.Code)
			}
			if resp.Error == nil {
				t.Fatal("expected an error in the response")
			}
		})
	}
}

func TestAttackErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.connect(t)

	resp := attack(t, conn, "nogame", 0, 0)
	if resp.Error == nil {
		t.Fatal("expected attack without a game to fail")
	}

	created := createGame(t, conn)

	tests := []struct {
		name     string
		gameUuid string
		row      int
		col      int
	}{
		{name: "wrong game uuid", gameUuid: "abcdef", row: 0, col: 0},
		{name: "row out of bound", gameUuid: created.GameUuid, row: 10, col: 0},
		{name: "col out of bound", gameUuid: created.GameUuid, row: 0, col: -1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := attack(t, conn, test.gameUuid, test.row, test.col)
			if resp.Error == nil {
				t.Fatal("expected an error in the response")
			}
		})
	}

	game, err := ts.gameManager.FetchGame(created.GameUuid)
	if err != nil {
		t.Fatal(err)
	}
	if game.Shots() != 0 {
		t.Fatalf("expected rejected attacks not to count, got shots: %d", game.Shots())
	}
}

func TestPlayFullGame(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ts := newTestServer(t, sqlc.New(db))
	serverIp := pqtype.Inet{IPNet: ts.rp.GetIpNet(), Valid: true}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO game_server_analytics (server_ip, games_created)")).
		WithArgs(serverIp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	conn := ts.connect(t)
	created := createGame(t, conn)
	if created.GridSize != mb.GridSize || created.FleetSize != mb.FleetSize {
		t.Fatalf("unexpected game description: %+v", created)
	}

	game, err := ts.gameManager.FetchGame(created.GameUuid)
	if err != nil {
		t.Fatal(err)
	}
	fleet := game.Fleet()

	empty := findEmptyCell(fleet)
	resp := attack(t, conn, created.GameUuid, empty.Row, empty.Col)
	if resp.Error != nil {
		t.Fatal(resp.Error.ErrorDetails)
	}
	if resp.Payload.Result != mb.ShotMiss || resp.Payload.Shots != 1 {
		t.Fatalf("expected first shot to miss, got: %+v", resp.Payload)
	}

	shots := 1
	for i, ship := range fleet {
		cells := ship.Cells()
		for j, cell := range cells {
			isLastShot := i == len(fleet)-1 && j == len(cells)-1
			if isLastShot {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO game_server_analytics (server_ip, games_finished)")).
					WithArgs(serverIp).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO game_server_analytics (server_ip, shots_fired)")).
					WithArgs(serverIp, int64(shots+1)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			}

			resp := attack(t, conn, created.GameUuid, cell.Row, cell.Col)
			shots++
			if resp.Error != nil {
				t.Fatal(resp.Error.ErrorDetails)
			}

			expected := mb.ShotHit
			if j == len(cells)-1 {
				expected = mb.ShotSunk
			}
			if resp.Payload.Result != expected {
				t.Fatalf("ship %d cell %s expected result: %s\t got: %s", i, cell, expected, resp.Payload.Result)
			}
			if resp.Payload.ShipType != ship.Type() {
				t.Fatalf("expected ship type: %s\t got: %s", ship.Type(), resp.Payload.ShipType)
			}
			if expected == mb.ShotSunk && len(resp.Payload.SunkShipCoords) != ship.Length() {
				t.Fatalf("expected %d sunk coords, got: %d", ship.Length(), len(resp.Payload.SunkShipCoords))
			}

			// a repeat on a live ship must not count as a new hit
			if j == 0 && len(cells) > 1 {
				repeat := attack(t, conn, created.GameUuid, cell.Row, cell.Col)
				shots++
				if repeat.Payload.Result != mb.ShotAlreadyHit {
					t.Fatalf("expected result: %s\t got: %s", mb.ShotAlreadyHit, repeat.Payload.Result)
				}
			}
		}
	}

	var respEndGame mc.Message[mc.RespEndGame]
	if err := conn.ReadJSON(&respEndGame); err != nil {
		t.Fatal(err)
	}
	if respEndGame.Code != mc.CodeEndGame {
		t.Fatalf("expected status: %d\t got: %d", mc.CodeEndGame, respEndGame.Code)
	}
	if respEndGame.Payload.Shots != shots {
		t.Fatalf("expected shots: %d\t got: %d", shots, respEndGame.Payload.Shots)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}

	after := attack(t, conn, created.GameUuid, empty.Row, empty.Col)
	if after.Error == nil {
		t.Fatal("expected attack after game over to fail")
	}
}

func TestRematchReplacesGame(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.connect(t)

	first := createGame(t, conn)
	second := createGame(t, conn)

	if first.GameUuid == second.GameUuid {
		t.Fatal("expected a new game uuid for the rematch")
	}
	if _, err := ts.gameManager.FetchGame(first.GameUuid); err == nil {
		t.Fatal("expected the previous game to be terminated")
	}

	resp := attack(t, conn, first.GameUuid, 0, 0)
	if resp.Error == nil {
		t.Fatal("expected attack on the replaced game to fail")
	}
}

func TestReconnectMidGame(t *testing.T) {
	ts := newTestServer(t, nil)
	conn, sessionId := ts.connectWithSessionId(t)
	created := createGame(t, conn)

	game, err := ts.gameManager.FetchGame(created.GameUuid)
	if err != nil {
		t.Fatal(err)
	}
	empty := findEmptyCell(game.Fleet())
	target := game.Fleet()[0].Cells()[0]

	if resp := attack(t, conn, created.GameUuid, empty.Row, empty.Col); resp.Error != nil {
		t.Fatal(resp.Error.ErrorDetails)
	}

	dropConn(t, conn)

	newConn, resp := ts.reconnect(t, sessionId)
	if resp.Error != nil {
		t.Fatal(resp.Error.ErrorDetails)
	}

	expected := mc.RespSessionReconnected{SessionID: sessionId, GameUuid: created.GameUuid, Shots: 1}
	if resp.Payload != expected {
		t.Fatalf("expected payload: %+v\t got: %+v", expected, resp.Payload)
	}

	respAttack := attack(t, newConn, created.GameUuid, target.Row, target.Col)
	if respAttack.Error != nil {
		t.Fatal(respAttack.Error.ErrorDetails)
	}
	if respAttack.Payload.Result == mb.ShotMiss || respAttack.Payload.Shots != 2 {
		t.Fatalf("expected a hit as shot no. 2, got: %+v", respAttack.Payload)
	}
}

func TestReconnectFails(t *testing.T) {
	ts := newTestServer(t, nil)
	_, sessionIdWithoutGame := ts.connectWithSessionId(t)

	tests := []struct {
		name      string
		sessionId string
	}{
		{name: "unknown session", sessionId: "notasession"},
		{name: "session without a game", sessionId: sessionIdWithoutGame},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, resp := ts.reconnect(t, test.sessionId)
			if resp.Error == nil {
				t.Fatal("expected an error in the response")
			}
		})
	}
}

func TestGracePeriodExpires(t *testing.T) {
	ts := newTestServer(t, nil, mc.WithGracePeriod(time.Millisecond*50))
	conn, sessionId := ts.connectWithSessionId(t)
	created := createGame(t, conn)

	dropConn(t, conn)

	waitFor(t, "session to be terminated", func() bool {
		_, err := ts.sessionManager.FindSession(sessionId)
		return err != nil
	})
	if _, err := ts.gameManager.FetchGame(created.GameUuid); err == nil {
		t.Fatal("expected the game to be terminated with its session")
	}

	_, resp := ts.reconnect(t, sessionId)
	if resp.Error == nil {
		t.Fatal("expected reconnecting after the grace period to fail")
	}
}

func TestAbandonedGameShotsAreRecorded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ts := newTestServer(t, sqlc.New(db))
	serverIp := pqtype.Inet{IPNet: ts.rp.GetIpNet(), Valid: true}

	expectGameCreated := func() {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO game_server_analytics (server_ip, games_created)")).
			WithArgs(serverIp).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	expectShotsFired := func(shots int) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO game_server_analytics (server_ip, shots_fired)")).
			WithArgs(serverIp, int64(shots)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	// One shot then a rematch
	expectGameCreated()
	conn := ts.connect(t)
	first := createGame(t, conn)

	game, err := ts.gameManager.FetchGame(first.GameUuid)
	if err != nil {
		t.Fatal(err)
	}
	empty := findEmptyCell(game.Fleet())
	attack(t, conn, first.GameUuid, empty.Row, empty.Col)

	expectShotsFired(1)
	expectGameCreated()
	second := createGame(t, conn)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}

	// Two shots then the client leaves
	game, err = ts.gameManager.FetchGame(second.GameUuid)
	if err != nil {
		t.Fatal(err)
	}
	empty = findEmptyCell(game.Fleet())
	attack(t, conn, second.GameUuid, empty.Row, empty.Col)
	attack(t, conn, second.GameUuid, empty.Row, empty.Col)

	expectShotsFired(2)
	closeNormally(t, conn)

	waitFor(t, "shots of the abandoned game to be recorded", func() bool {
		return mock.ExpectationsWereMet() == nil
	})
}
