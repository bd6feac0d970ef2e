package console

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/command"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

func findCombatant(s encounter.State, id string) *combat.Combatant {
	for _, c := range s.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (p palette) kindColor(c *combat.Combatant) string {
	switch {
	case c.IsDead():
		return Dim
	case c.Kind == combat.KindControlled:
		return BrightGreen
	case c.Kind == combat.KindAlly:
		return Green
	default:
		return BrightRed
	}
}

// RenderTurnHeader announces the controlled actor's turn.
func (p palette) RenderTurnHeader(s encounter.State) string {
	c := findCombatant(s, s.Current)
	if c == nil {
		return ""
	}
	return p.Colorf(Bold+BrightWhite, "-- Round %d: your turn, %s (%d/%d HP) --", s.Round, c.Name, c.CurrentHP, c.MaxHP)
}

// RenderHealth describes one combatant's remaining hit points.
func (p palette) RenderHealth(c *combat.Combatant) string {
	return fmt.Sprintf("  %s: %d/%d HP (%s)",
		p.Colorize(p.kindColor(c), c.Name), max(c.CurrentHP, 0), c.MaxHP,
		npc.HealthDescription(c.CurrentHP, c.MaxHP))
}

// RenderStatus formats turn order, combatants and the controlled actor's
// turn state.
func (p palette) RenderStatus(s encounter.State, controlledID string) string {
	var b strings.Builder

	b.WriteString(p.Colorf(Bold+BrightYellow, "Round %d, %s", s.Round, s.Phase))
	b.WriteString("\n")

	b.WriteString(p.Colorize(Cyan, "Initiative:"))
	for i, e := range s.Order {
		marker := " "
		if i == s.TurnIndex {
			marker = ">"
		}
		name := e.Name
		if c := findCombatant(s, e.CombatantID); c != nil {
			name = p.Colorize(p.kindColor(c), e.Name)
		}
		b.WriteString(fmt.Sprintf(" %s%s(%d)", marker, name, e.Initiative))
	}
	b.WriteString("\n")

	b.WriteString(p.Colorize(Cyan, fmt.Sprintf("  %-22s %-16s %7s %3s %-7s %s", "ID", "NAME", "HP", "AC", "POS", "CONDITIONS")))
	b.WriteString("\n")
	for _, c := range s.Combatants {
		conds := "-"
		if c.Conditions != nil {
			if ids := c.Conditions.IDs(); len(ids) > 0 {
				conds = strings.Join(ids, ",")
			}
		}
		line := fmt.Sprintf("  %-22s %-16s %7s %3d %-7s %s",
			c.ID, c.Name, fmt.Sprintf("%d/%d", max(c.CurrentHP, 0), c.MaxHP), c.AC, c.Position, conds)
		b.WriteString(p.Colorize(p.kindColor(c), line))
		b.WriteString("\n")
	}

	if me := findCombatant(s, controlledID); me != nil {
		b.WriteString(p.renderEconomy(s))
		b.WriteString(p.renderActions(me))
	}
	return b.String()
}

func (p palette) renderEconomy(s encounter.State) string {
	state := func(spent bool) string {
		if spent {
			return p.Colorize(Dim, "spent")
		}
		return p.Colorize(BrightGreen, "ready")
	}
	line := fmt.Sprintf("Action: %s  Movement: %s  Mode: %s", state(s.ActionSpent), state(s.MovementSpent), s.Mode)
	if s.PendingAction != "" {
		line += fmt.Sprintf("  Pending: %s -> [%s]", s.PendingAction, strings.Join(s.Targets, ", "))
	}
	if s.Resolving {
		line += "  (resolving)"
	}
	return line + "\n"
}

func (p palette) renderActions(me *combat.Combatant) string {
	var b strings.Builder
	b.WriteString(p.Colorize(Cyan, "Actions:"))
	b.WriteString("\n")
	for _, act := range me.Actions {
		detail := fmt.Sprintf("range %d", act.Range)
		if act.Projectiles > 1 {
			detail += fmt.Sprintf(", %d targets", act.Projectiles)
		}
		if act.AreaOfEffect {
			detail += fmt.Sprintf(", radius %d", act.AreaRadius)
		}
		switch {
		case act.Kind == action.KindAttack:
			b.WriteString(fmt.Sprintf("  attack %-16s %s (%s)\n", act.ID, act.Name, detail))
		case act.IsCantrip():
			b.WriteString(fmt.Sprintf("  cast   %-16s %s (cantrip, %s)\n", act.ID, act.Name, detail))
		default:
			b.WriteString(fmt.Sprintf("  cast   %-16s %s (level %d, %s)\n", act.ID, act.Name, act.Spell.Level, detail))
		}
	}
	if levels := me.Slots.Levels(); len(levels) > 0 {
		parts := make([]string, 0, len(levels))
		for _, lvl := range levels {
			parts = append(parts, fmt.Sprintf("L%d:%d", lvl, me.Slots.Available(lvl)))
		}
		b.WriteString(fmt.Sprintf("Spell slots: %s\n", strings.Join(parts, " ")))
	}
	return b.String()
}

// RenderMap draws the grid with one glyph per cell: @ for the controlled
// actor, A for allies, the first letter of a hostile's name, . when empty.
// The dead are not drawn.
func (p palette) RenderMap(s encounter.State) string {
	occupant := make(map[grid.Position]*combat.Combatant)
	for _, c := range s.Combatants {
		if !c.IsDead() {
			occupant[c.Position] = c
		}
	}

	var b strings.Builder
	b.WriteString("   ")
	for x := range s.Grid.Width {
		b.WriteString(fmt.Sprintf("%2d", x))
	}
	b.WriteString("\n")
	for y := range s.Grid.Height {
		b.WriteString(fmt.Sprintf("%2d ", y))
		for x := range s.Grid.Width {
			b.WriteString(" ")
			c, ok := occupant[grid.Position{X: x, Y: y}]
			if !ok {
				b.WriteString(p.Colorize(Dim, "."))
				continue
			}
			b.WriteString(p.Colorize(p.kindColor(c), glyph(c)))
		}
		b.WriteString("\n")
	}

	var legend []string
	for _, c := range s.Combatants {
		if !c.IsDead() {
			legend = append(legend, fmt.Sprintf("%s=%s", glyph(c), c.Name))
		}
	}
	sort.Strings(legend)
	b.WriteString(strings.Join(legend, "  "))
	b.WriteString("\n")
	return b.String()
}

func glyph(c *combat.Combatant) string {
	switch c.Kind {
	case combat.KindControlled:
		return "@"
	case combat.KindAlly:
		return "A"
	}
	if c.Name == "" {
		return "?"
	}
	return strings.ToLower(c.Name[:1])
}

// RenderHelp lists the commands by category.
func (p palette) RenderHelp(reg *command.Registry) string {
	var b strings.Builder
	byCat := reg.CommandsByCategory()
	for _, cat := range reg.Categories() {
		b.WriteString(p.Colorize(Bold+Cyan, strings.ToUpper(cat[:1])+cat[1:]))
		b.WriteString("\n")
		for _, cmd := range byCat[cat] {
			usage := cmd.Usage
			if len(cmd.Aliases) > 0 {
				usage += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			b.WriteString(fmt.Sprintf("  %-36s %s\n", usage, cmd.Help))
		}
	}
	return b.String()
}
