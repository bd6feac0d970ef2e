package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// ErrBadCell is returned when a cell argument is not "x,y" or "x y".
var ErrBadCell = errors.New("cell must be written x,y or x y")

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
}

// Parse splits a text line into a command and arguments. Commas between
// coordinates may be surrounded by spaces: "move 3 , 4" yields ["3,4"].
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	fields := strings.Fields(normalizeCommas(line))
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}

func normalizeCommas(line string) string {
	for strings.Contains(line, " ,") || strings.Contains(line, ", ") {
		line = strings.ReplaceAll(line, " ,", ",")
		line = strings.ReplaceAll(line, ", ", ",")
	}
	return line
}

// IsCell reports whether tok is written as a single "x,y" coordinate.
func IsCell(tok string) bool {
	_, err := parseCellToken(tok)
	return err == nil
}

// ParseCell reads a position from the front of args, written either as one
// "x,y" token or as two integer tokens.
//
// Postcondition: Returns the position and the unconsumed args, or an error
// wrapping ErrBadCell.
func ParseCell(args []string) (grid.Position, []string, error) {
	if len(args) == 0 {
		return grid.Position{}, nil, ErrBadCell
	}
	if p, err := parseCellToken(args[0]); err == nil {
		return p, args[1:], nil
	}
	if len(args) < 2 {
		return grid.Position{}, nil, fmt.Errorf("%q: %w", args[0], ErrBadCell)
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		return grid.Position{}, nil, fmt.Errorf("%q %q: %w", args[0], args[1], ErrBadCell)
	}
	return grid.Position{X: x, Y: y}, args[2:], nil
}

func parseCellToken(tok string) (grid.Position, error) {
	xs, ys, ok := strings.Cut(tok, ",")
	if !ok {
		return grid.Position{}, ErrBadCell
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return grid.Position{}, ErrBadCell
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return grid.Position{}, ErrBadCell
	}
	return grid.Position{X: x, Y: y}, nil
}
