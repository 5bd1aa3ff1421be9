package connection

import (
	mb "github.com/saeidalz13/battleships/models/battleship"
)

type RespCreateGame struct {
	GameUuid  string `json:"game_uuid"`
	GridSize  int    `json:"grid_size"`
	FleetSize int    `json:"fleet_size"`
}

type RespAttack struct {
	Row         int           `json:"row"`
	Col         int           `json:"col"`
	Result      mb.ShotResult `json:"result"`
	ShipType    mb.ShipType   `json:"ship_type,omitempty"`
	Shots       int           `json:"shots"`
	SunkenShips int           `json:"sunken_ships"`

	// Only set when the shot sank a ship so the client can reveal it
	SunkShipCoords []mb.Coordinates `json:"sunk_ship_coords,omitempty"`
}

type RespSessionId struct {
	SessionID string `json:"session_id"`
}

type RespEndGame struct {
	Shots int `json:"shots"`
}

type RespErr struct {
	ErrorDetails string `json:"error_details,omitempty"`
	Message      string `json:"message,omitempty"`
}

func NewRespErr(errorDetails, message string) *RespErr {
	return &RespErr{
		ErrorDetails: errorDetails,
		Message:      message,
	}
}

type RespSessionReconnected struct {
	SessionID   string `json:"session_id"`
	GameUuid    string `json:"game_uuid"`
	Shots       int    `json:"shots"`
	SunkenShips int    `json:"sunken_ships"`
}
