package main

import (
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/saeidalz13/battleships/api"
	"github.com/saeidalz13/battleships/db"
	"github.com/saeidalz13/battleships/db/sqlc"
	"github.com/saeidalz13/battleships/internal/console"
	mb "github.com/saeidalz13/battleships/models/battleship"
	mc "github.com/saeidalz13/battleships/models/connection"
)

const (
	modeConsole = "console"
	modeServer  = "server"
)

func main() {
	if os.Getenv("STAGE") != "prod" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file loaded:", err)
		}
	}
	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = "dev"
	}
	if stage != "dev" && stage != "prod" {
		panic("stage must be either dev or prod")
	}

	mode := os.Getenv("MODE")
	if mode == "" {
		mode = modeServer
	}

	switch mode {
	case modeConsole:
		runConsole()
	case modeServer:
		runServer(stage)
	default:
		panic("mode must be either console or server")
	}
}

func runConsole() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	c := console.NewConsole(os.Stdin, os.Stdout, func() *mb.Game {
		return mb.NewGame(rng)
	})

	if err := c.Run(); err != nil {
		log.Fatalln(err)
	}
}

func runServer(stage string) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		panic(err)
	}

	// Analytics are only recorded when a database is configured
	var q sqlc.Querier
	if psqlUrl := os.Getenv("DATABASE_URL"); psqlUrl != "" {
		conn := db.MustConnectToDb(psqlUrl, db.DefaultMigrationDir)
		defer conn.Close()
		q = sqlc.New(conn)
	} else {
		log.Println("DATABASE_URL not set; analytics disabled")
	}

	bsm := mc.NewBattleshipSessionManager()
	go bsm.CleanupPeriodically()

	rp := api.NewRequestProcessor(bsm, mb.NewBattleshipGameManager(), q)

	mux := http.NewServeMux()
	mux.Handle("GET /battleship", rp)

	log.Printf("stage: %s\tlistening to port %d\n", stage, port)
	log.Fatalln(http.ListenAndServe("0.0.0.0:"+strconv.Itoa(port), mux))
}
