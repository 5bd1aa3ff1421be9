package api

import (
	"encoding/json"
	"log"

	cerr "github.com/saeidalz13/battleships/internal/error"
	mb "github.com/saeidalz13/battleships/models/battleship"
	mc "github.com/saeidalz13/battleships/models/connection"
)

type RequestHandler interface {
	HandleCreateGame(gm mb.GameManager, session *mc.Session) mc.Message[mc.RespCreateGame]
	HandleAttack(session *mc.Session) mc.Message[mc.RespAttack]
}

// Every incoming valid request will have this structure
// The request then is handled in line with RequestHandler interface
type Request struct {
	payload []byte
}

var _ RequestHandler = (*Request)(nil)

func NewRequest(payload ...[]byte) Request {
	if len(payload) > 1 {
		log.Println("cannot accept more than one payload")
		return Request{}
	}

	var req Request
	if len(payload) != 0 {
		req.payload = payload[0]
	}
	return req
}

// A new game always replaces the previous one of the session,
// which is how a rematch is played.
func (r Request) HandleCreateGame(gm mb.GameManager, session *mc.Session) mc.Message[mc.RespCreateGame] {
	if previous := session.Game(); previous != nil {
		gm.TerminateGame(previous.Uuid())
	}

	game := gm.CreateGame()
	session.SetGame(game)

	resp := mc.NewMessage[mc.RespCreateGame](mc.CodeCreateGame)
	resp.AddPayload(mc.RespCreateGame{
		GameUuid:  game.Uuid(),
		GridSize:  mb.GridSize,
		FleetSize: len(game.Fleet()),
	})
	return resp
}

func (r Request) HandleAttack(session *mc.Session) mc.Message[mc.RespAttack] {
	resp := mc.NewMessage[mc.RespAttack](mc.CodeAttack)

	var reqAttack mc.Message[mc.ReqAttack]
	if err := json.Unmarshal(r.payload, &reqAttack); err != nil {
		resp.AddError(err.Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	game := session.Game()
	if game == nil {
		resp.AddError(cerr.ErrNoGameInSession().Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	if reqAttack.Payload.GameUuid != game.Uuid() {
		resp.AddError(cerr.ErrGameUuidMismatch(game.Uuid(), reqAttack.Payload.GameUuid).Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	row, col := reqAttack.Payload.Row, reqAttack.Payload.Col
	outcome, err := game.Fire(row, col)
	if err != nil {
		resp.AddError(err.Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	respAttack := mc.RespAttack{
		Row:         row,
		Col:         col,
		Result:      outcome.Result,
		ShipType:    outcome.ShipType(),
		Shots:       game.Shots(),
		SunkenShips: game.Fleet().SunkenShips(),
	}
	if outcome.Result == mb.ShotSunk {
		respAttack.SunkShipCoords = outcome.Ship.Cells()
	}

	resp.AddPayload(respAttack)
	return resp
}
