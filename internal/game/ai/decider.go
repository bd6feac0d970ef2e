// Package ai chooses what autonomous combatants do on their turn.
//
// The Heuristic decider attacks the nearest opponent it can reach. Templates
// naming an HTN domain are planned by a Planner whose method preconditions
// are Lua hooks; when a plan yields nothing usable the heuristic decides.
package ai

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Decision is what an autonomous combatant does this turn. Move, when set,
// happens before the action.
type Decision struct {
	Move      *grid.Position
	ActionID  string
	Selection combat.Selection
}

// Pass reports whether the decision does nothing.
func (d Decision) Pass() bool { return d.Move == nil && d.ActionID == "" }

// Decider picks a Decision for actorID. Deciders never mutate the view.
type Decider interface {
	Decide(view combat.View, actorID string, round, allowance int) Decision
}

// Heuristic targets the nearest living opponent: it uses the first action
// in range, otherwise steps toward that opponent and re-checks, otherwise passes.
type Heuristic struct{}

// Decide implements Decider.
func (Heuristic) Decide(view combat.View, actorID string, _ int, allowance int) Decision {
	actor, ok := view.Get(actorID)
	if !ok || actor.IsDead() {
		return Decision{}
	}
	target := nearestOpponent(view, actor)
	if target == nil {
		return Decision{}
	}
	return approachAndAct(view, actor, target, allowance, nil)
}

// approachAndAct tries to act on target from where actor stands, then from
// the best reachable cell. prefer, when non-empty, restricts the actions tried.
func approachAndAct(view combat.View, actor, target *combat.Combatant, allowance int, prefer func(action.Action) bool) Decision {
	canAct := !condition.IsRestricted(actor.Conditions, "action")
	if canAct {
		if d, ok := chooseAction(view, actor, actor.Position, target, prefer); ok {
			return d
		}
	}
	if condition.IsRestricted(actor.Conditions, "movement") || allowance <= 0 {
		return Decision{}
	}
	step, ok := stepToward(view, actor, target.Position, allowance)
	if !ok {
		return Decision{}
	}
	d := Decision{Move: &step}
	if canAct {
		if acted, ok := chooseAction(view, actor, step, target, prefer); ok {
			acted.Move = &step
			return acted
		}
	}
	return d
}

func nearestOpponent(view combat.View, actor *combat.Combatant) *combat.Combatant {
	var best *combat.Combatant
	bestDist := 0
	for _, c := range view.Living() {
		if !actor.Opposes(c) {
			continue
		}
		d := grid.Distance(actor.Position, c.Position)
		if best == nil || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// chooseAction returns the first offensive action usable from pos against
// target. Multi-target actions add further opponents nearest first.
func chooseAction(view combat.View, actor *combat.Combatant, pos grid.Position, target *combat.Combatant, prefer func(action.Action) bool) (Decision, bool) {
	shifted := *actor
	shifted.Position = pos
	for _, act := range actor.Actions {
		if act.Beneficial() || !affordable(actor, act) {
			continue
		}
		if prefer != nil && !prefer(act) {
			continue
		}
		if act.AreaOfEffect {
			if grid.Distance(pos, target.Position) <= act.Range {
				origin := target.Position
				return Decision{ActionID: act.ID, Selection: combat.Selection{Origin: &origin}}, true
			}
			continue
		}
		if !combat.CanTarget(&shifted, target, act) {
			continue
		}
		targets := []string{target.ID}
		for _, c := range opponentsByDistance(view, &shifted) {
			if len(targets) >= act.TargetCount() {
				break
			}
			if c.ID != target.ID && combat.CanTarget(&shifted, c, act) {
				targets = append(targets, c.ID)
			}
		}
		return Decision{ActionID: act.ID, Selection: combat.Selection{Targets: targets}}, true
	}
	return Decision{}, false
}

func affordable(actor *combat.Combatant, act action.Action) bool {
	if act.Kind != action.KindSpell || act.IsCantrip() {
		return true
	}
	_, ok := actor.Slots.Lowest(act.Spell.Level)
	return ok
}

func opponentsByDistance(view combat.View, actor *combat.Combatant) []*combat.Combatant {
	var out []*combat.Combatant
	for _, c := range view.Living() {
		if actor.Opposes(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return grid.Distance(actor.Position, out[i].Position) < grid.Distance(actor.Position, out[j].Position)
	})
	return out
}

// stepToward returns the free cell within allowance that is closest to
// dest, preferring shorter moves and then row-major order. It reports false
// when no reachable cell is closer than where the actor stands.
func stepToward(view combat.View, actor *combat.Combatant, dest grid.Position, allowance int) (grid.Position, bool) {
	occupied := make(map[grid.Position]bool)
	for _, c := range view.Living() {
		occupied[c.Position] = true
	}
	best := actor.Position
	bestDist := grid.Distance(actor.Position, dest)
	bestCost := 0
	found := false
	for _, cell := range view.Grid().Cells() {
		cost := grid.Distance(actor.Position, cell)
		if cost == 0 || cost > allowance || occupied[cell] {
			continue
		}
		d := grid.Distance(cell, dest)
		if d < bestDist || (found && d == bestDist && cost < bestCost) {
			best, bestDist, bestCost, found = cell, d, cost, true
		}
	}
	return best, found
}
