package encounter

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// dispatch hands the current turn to its combatant, skipping dead and
// missing entries, until someone can act or the encounter ends.
func (e *Encounter) dispatch() {
	for tries := 0; tries <= e.order.Len(); tries++ {
		if e.checkTerminal() {
			return
		}
		entry, _ := e.order.Current()
		c, ok := e.reg.Get(entry.CombatantID)
		switch {
		case !ok:
			e.deps.Logger.Error("turn entity missing from registry",
				zap.String("encounter", e.id),
				zap.String("combatant", entry.CombatantID),
				zap.Error(combat.ErrMissingEntityForTurn),
			)
		case c.IsDead():
			e.deps.Logger.Debug("skipping dead combatant", zap.String("combatant", c.ID))
		case c.IsControlled():
			e.turn = playerTurn{}
			e.setPhase(PhasePlayerTurn)
			return
		default:
			e.setPhase(PhaseExecutingTurn)
			if !e.settings.Pacing.Manual {
				key := e.currentKey()
				e.schedule(e.settings.Pacing.AutonomousDelay, func() { e.ExecuteTurn(key) })
			}
			return
		}
		e.order.Advance()
	}
	e.deps.Logger.Error("no combatant can take a turn", zap.String("encounter", e.id))
}

// checkTerminal moves to victory or defeat when one side is wiped out.
// Victory is checked first.
func (e *Encounter) checkTerminal() bool {
	if e.phase.Terminal() {
		return true
	}
	switch {
	case e.reg.AllDead(combat.KindHostile):
		e.appendLog(combat.LogEntry{Text: "Victory! Every hostile has fallen.", Category: combat.CategoryVictory})
		e.finish(PhaseVictory)
	case e.reg.AllDead(combat.KindControlled, combat.KindAlly):
		e.appendLog(combat.LogEntry{Text: "Defeat. Your party has fallen.", Category: combat.CategoryDefeat})
		e.finish(PhaseDefeat)
	default:
		return false
	}
	return true
}

func (e *Encounter) finish(p Phase) {
	e.stopTimers()
	e.turn = playerTurn{}
	e.setPhase(p)
	e.deps.Recorder.EncounterFinished(p.String())
	e.deps.Logger.Info("encounter finished",
		zap.String("encounter", e.id),
		zap.Stringer("outcome", p),
		zap.Int("round", e.order.Round()),
	)
}

// finishTurn ticks the acting combatant's conditions and moves on.
func (e *Encounter) finishTurn(id string) {
	if expired := e.reg.TickConditions(id); len(expired) > 0 {
		e.deps.Logger.Debug("conditions expired", zap.String("combatant", id), zap.Strings("conditions", expired))
	}
	e.order.Advance()
	e.dispatch()
}

// ExecuteTurn runs the autonomous turn identified by key. Stale keys, keys
// that already ran and keys outside PhaseExecutingTurn are ignored.
//
// Postcondition: Returns true iff this call executed the turn.
func (e *Encounter) ExecuteTurn(key TurnKey) bool {
	e.mu.Lock()
	defer e.unlock()
	if e.phase != PhaseExecutingTurn || key != e.currentKey() {
		return false
	}
	if _, done := e.executed[key]; done {
		return false
	}
	e.executed[key] = struct{}{}

	c, ok := e.reg.Get(key.CombatantID)
	if !ok || c.IsDead() {
		e.order.Advance()
		e.dispatch()
		return false
	}

	start := time.Now()
	allowance := e.settings.MovementAllowance
	d := e.deps.Decider.Decide(e.reg, c.ID, key.Round, allowance)
	if d.Move != nil {
		entry, err := e.reg.Move(c.ID, *d.Move, allowance)
		if err != nil {
			e.deps.Logger.Warn("autonomous move rejected", zap.String("combatant", c.ID), zap.Error(err))
		} else {
			e.appendLog(entry)
		}
	}
	if d.ActionID != "" {
		if act, ok := c.Action(d.ActionID); !ok {
			e.deps.Logger.Warn("autonomous action unknown",
				zap.String("combatant", c.ID),
				zap.String("action", d.ActionID),
			)
		} else if res, err := e.deps.Resolver.Resolve(e.reg, c.ID, act, d.Selection); err != nil {
			e.deps.Logger.Warn("autonomous action rejected",
				zap.String("combatant", c.ID),
				zap.String("action", act.ID),
				zap.Error(err),
			)
		} else {
			e.commit(res, act)
		}
	}

	e.deps.Recorder.TurnExecuted(c.Kind.String(), time.Since(start))
	if sink := e.sinks.TurnExecuted; sink != nil {
		e.emit(func() { sink(key) })
	}
	if e.checkTerminal() {
		return true
	}
	e.finishTurn(c.ID)
	return true
}

// commit applies res through the registry and forwards its events.
func (e *Encounter) commit(res combat.Result, act action.Action) {
	deaths, err := e.reg.Apply(res)
	if err != nil {
		e.deps.Logger.Error("applying resolution", zap.String("action", act.ID), zap.Error(err))
	}
	for _, entry := range res.Log {
		e.appendLog(entry)
	}
	for _, entry := range deaths {
		e.appendLog(entry)
	}
	for _, ev := range res.Damage {
		if sink := e.sinks.Damage; sink != nil {
			e.emit(func() { sink(ev) })
		}
	}
	for _, ev := range res.Healing {
		if sink := e.sinks.Healing; sink != nil {
			e.emit(func() { sink(ev) })
		}
	}
	for _, ev := range res.Statuses {
		if sink := e.sinks.Status; sink != nil {
			e.emit(func() { sink(ev) })
		}
	}
	e.deps.Recorder.ActionResolved(act.Kind.String(), outcomeLabel(res))
}

// outcomeLabel summarises a resolution for metrics.
func outcomeLabel(res combat.Result) string {
	if len(res.Rolls) == 0 {
		return combat.OutcomeAutoHit.String()
	}
	best := combat.OutcomeMiss
	for _, r := range res.Rolls {
		if r.Outcome == combat.OutcomeCritical {
			return r.Outcome.String()
		}
		if r.Outcome.Landed() {
			best = r.Outcome
		}
	}
	return best.String()
}
