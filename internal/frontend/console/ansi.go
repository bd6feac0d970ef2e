package console

import (
	"fmt"
	"regexp"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ANSI escape codes used by the console.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// palette colours text when enabled and passes it through otherwise.
type palette struct {
	enabled bool
}

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Postcondition: Returns text unchanged when colour is disabled.
func (p palette) Colorize(color, text string) string {
	if !p.enabled || text == "" {
		return text
	}
	return color + text + Reset
}

// Colorf formats and colours a string.
func (p palette) Colorf(color, format string, args ...any) string {
	return p.Colorize(color, fmt.Sprintf(format, args...))
}

var categoryColors = map[combat.Category]string{
	combat.CategoryCombatStart: Bold + BrightYellow,
	combat.CategoryInitiative:  Cyan,
	combat.CategoryAttackHit:   Yellow,
	combat.CategoryAttackMiss:  Dim,
	combat.CategoryCritical:    Bold + BrightRed,
	combat.CategorySpellHit:    Magenta,
	combat.CategoryDeath:       Red,
	combat.CategoryVictory:     Bold + BrightGreen,
	combat.CategoryDefeat:      Bold + BrightRed,
	combat.CategoryMovement:    Blue,
	combat.CategoryHeal:        Green,
}

// Entry renders a log entry in its category colour.
func (p palette) Entry(e combat.LogEntry) string {
	color, ok := categoryColors[e.Category]
	if !ok {
		return e.Text
	}
	return p.Colorize(color, e.Text)
}

var ansiSeq = regexp.MustCompile("\033\\[[0-9;]*m")

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns s with every \033[...m sequence removed.
func StripANSI(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}
