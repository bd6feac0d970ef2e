// Package command provides the console command registry, parser and the
// built-in encounter commands.
package command

// Categories for organizing commands.
const (
	CategoryCombat = "combat"
	CategoryInfo   = "info"
	CategorySystem = "system"
)

// Handler identifiers mapping commands to encounter intents.
const (
	HandlerAttack = "attack"
	HandlerCast   = "cast"
	HandlerTarget = "target"
	HandlerMove   = "move"
	HandlerMode   = "mode"
	HandlerCancel = "cancel"
	HandlerEnd    = "end"
	HandlerAuto   = "auto"
	HandlerStatus = "status"
	HandlerMap    = "map"
	HandlerHelp   = "help"
	HandlerQuit   = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument shape, e.g. "attack <action> <target>...".
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command for the help listing.
	Category string
	// Handler maps to the encounter intent that serves the command.
	Handler string
	// MinArgs is the fewest arguments the command accepts.
	MinArgs int
}

// BuiltinCommands returns every console command.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "attack", Aliases: []string{"a", "att"}, Usage: "attack <action> <target>...", Help: "Attack one or more targets with a weapon", Category: CategoryCombat, Handler: HandlerAttack, MinArgs: 2},
		{Name: "cast", Aliases: []string{"c"}, Usage: "cast <spell> <target...|x,y>", Help: "Cast a spell at targets or, for area spells, at a cell", Category: CategoryCombat, Handler: HandlerCast, MinArgs: 2},
		{Name: "target", Aliases: []string{"t"}, Usage: "target <target|x,y>...", Help: "Add targets to the pending action", Category: CategoryCombat, Handler: HandlerTarget, MinArgs: 1},
		{Name: "move", Aliases: []string{"m", "mv"}, Usage: "move <x> <y>", Help: "Move to a cell within your movement allowance", Category: CategoryCombat, Handler: HandlerMove, MinArgs: 1},
		{Name: "mode", Aliases: nil, Usage: "mode", Help: "Toggle movement mode", Category: CategoryCombat, Handler: HandlerMode},
		{Name: "cancel", Aliases: []string{"x"}, Usage: "cancel", Help: "Drop the pending action and its targets", Category: CategoryCombat, Handler: HandlerCancel},
		{Name: "end", Aliases: []string{"e", "pass"}, Usage: "end", Help: "End your turn", Category: CategoryCombat, Handler: HandlerEnd},
		{Name: "auto", Aliases: nil, Usage: "auto", Help: "Let the tactician play the rest of your turn", Category: CategoryCombat, Handler: HandlerAuto},

		{Name: "status", Aliases: []string{"s", "st"}, Usage: "status", Help: "Show combatants, turn order and your turn state", Category: CategoryInfo, Handler: HandlerStatus},
		{Name: "map", Aliases: []string{"grid"}, Usage: "map", Help: "Draw the battlefield", Category: CategoryInfo, Handler: HandlerMap},

		{Name: "help", Aliases: []string{"?", "h"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Usage: "quit", Help: "Leave the encounter", Category: CategorySystem, Handler: HandlerQuit},
	}
}
