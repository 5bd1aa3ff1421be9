package console

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	mb "github.com/saeidalz13/battleships/models/battleship"
)

const (
	inputQuit = "quit"

	msgPrompt     = "Enter row (0-9) and column (0-9) to shoot, separated by a single space, or 'quit' to exit the game: "
	msgInvalid    = "That's not a valid input!"
	msgMiss       = "You missed!"
	msgHit        = "You have a hit!"
	msgAlreadyHit = "You've already hit that cell!"
	msgPlayAgain  = "Play again? (y/n): "
	msgSunkFormat = "You sank a %s!"
	msgOverFormat = "Game over! You required %d shots."
)

// Two single digits separated by exactly one space
var shotPattern = regexp.MustCompile(`^[0-9] [0-9]$`)

// Console is the text front end. Every game it plays comes
// from newGame, so a rematch never reuses a finished session.
type Console struct {
	in      *bufio.Scanner
	out     io.Writer
	newGame func() *mb.Game
}

func NewConsole(in io.Reader, out io.Writer, newGame func() *mb.Game) *Console {
	return &Console{
		in:      bufio.NewScanner(in),
		out:     out,
		newGame: newGame,
	}
}

// Run plays games until the player quits, declines a rematch
// or the input is exhausted.
func (c *Console) Run() error {
	for {
		game := c.newGame()

		finished, err := c.play(game)
		if err != nil || !finished {
			return err
		}

		again, err := c.askPlayAgain()
		if err != nil || !again {
			return err
		}
	}
}

// play returns true when the fleet was cleared and false when the
// player quit or input ran out.
func (c *Console) play(game *mb.Game) (bool, error) {
	for !game.IsFinished() {
		line, ok, err := c.readLine(msgPrompt)
		if err != nil || !ok {
			return false, err
		}

		if line == inputQuit {
			return false, nil
		}

		row, col, valid := parseShot(line)
		if !valid {
			if err := c.println(msgInvalid); err != nil {
				return false, err
			}
			continue
		}

		outcome, err := game.Fire(row, col)
		if err != nil {
			// parseShot only lets on-board digits through
			return false, err
		}

		if err := c.println(describe(outcome)); err != nil {
			return false, err
		}
	}

	return true, c.println(fmt.Sprintf(msgOverFormat, game.Shots()))
}

func (c *Console) askPlayAgain() (bool, error) {
	line, ok, err := c.readLine(msgPlayAgain)
	if err != nil || !ok {
		return false, err
	}
	return strings.EqualFold(line, "y"), nil
}

func (c *Console) readLine(prompt string) (string, bool, error) {
	if _, err := io.WriteString(c.out, prompt); err != nil {
		return "", false, err
	}

	if !c.in.Scan() {
		return "", false, c.in.Err()
	}
	return c.in.Text(), true, nil
}

func (c *Console) println(msg string) error {
	_, err := fmt.Fprintln(c.out, msg)
	return err
}

func parseShot(line string) (int, int, bool) {
	if !shotPattern.MatchString(line) {
		return 0, 0, false
	}

	row, _ := strconv.Atoi(line[:1])
	col, _ := strconv.Atoi(line[2:])
	return row, col, true
}

func describe(outcome mb.ShotOutcome) string {
	switch outcome.Result {
	case mb.ShotSunk:
		return fmt.Sprintf(msgSunkFormat, outcome.ShipType())
	case mb.ShotHit:
		return msgHit
	case mb.ShotAlreadyHit:
		return msgAlreadyHit
	default:
		return msgMiss
	}
}
