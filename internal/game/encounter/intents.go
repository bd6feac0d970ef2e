package encounter

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// actor returns the controlled actor when player intents are accepted.
func (e *Encounter) actor() (*combat.Combatant, error) {
	if e.phase != PhasePlayerTurn {
		return nil, fmt.Errorf("intent during %s: %w", e.phase, combat.ErrWrongPhase)
	}
	if e.turn.resolving {
		return nil, fmt.Errorf("an action is resolving: %w", combat.ErrWrongPhase)
	}
	c, ok := e.reg.Get(e.controlledID)
	if !ok {
		return nil, fmt.Errorf("controlled actor %q: %w", e.controlledID, combat.ErrMissingEntityForTurn)
	}
	return c, nil
}

// SelectAction arms the controlled actor's action id and leaves movement mode.
//
// Postcondition: on error the turn state is unchanged. Errors wrap
// ErrActionSpent, ErrUnknownAction, ErrNoSlotAvailable or ErrNoLegalTarget.
func (e *Encounter) SelectAction(id string) error {
	e.mu.Lock()
	defer e.unlock()
	c, err := e.actor()
	if err != nil {
		return err
	}
	if e.turn.actionSpent {
		return fmt.Errorf("%s has already acted: %w", c.Name, combat.ErrActionSpent)
	}
	if condition.IsRestricted(c.Conditions, "action") {
		return fmt.Errorf("%s cannot act this turn: %w", c.Name, combat.ErrActionSpent)
	}
	act, ok := c.Action(id)
	if !ok {
		return fmt.Errorf("%q: %w", id, combat.ErrUnknownAction)
	}
	if act.Kind == action.KindSpell && !act.IsCantrip() {
		if _, ok := c.Slots.Lowest(act.Spell.Level); !ok {
			return fmt.Errorf("%s cannot cast %s: %w", c.Name, act.Name, combat.ErrNoSlotAvailable)
		}
	}
	if len(e.deps.Resolver.LegalTargets(e.reg, c, act)) == 0 {
		return fmt.Errorf("%s has no target for %s: %w", c.Name, act.Name, combat.ErrNoLegalTarget)
	}
	e.turn.mode = ModeAction
	e.turn.pending = &act
	e.turn.targets = nil
	return nil
}

// SelectTarget adds a combatant to the pending action's targets. Once the
// action has as many targets as it needs, or as many as exist, it resolves.
func (e *Encounter) SelectTarget(id string) error {
	e.mu.Lock()
	defer e.unlock()
	c, err := e.actor()
	if err != nil {
		return err
	}
	return e.addTarget(c, id)
}

func (e *Encounter) addTarget(c *combat.Combatant, id string) error {
	act := e.turn.pending
	if act == nil {
		return combat.ErrNoPendingAction
	}
	if act.AreaOfEffect {
		return fmt.Errorf("%s needs a cell, not a combatant: %w", act.Name, combat.ErrNoLegalTarget)
	}
	target, ok := e.reg.Get(id)
	if !ok || !combat.CanTarget(c, target, *act) {
		return fmt.Errorf("%s cannot target %q with %s: %w", c.Name, id, act.Name, combat.ErrNoLegalTarget)
	}
	if slices.Contains(e.turn.targets, id) {
		return fmt.Errorf("%s is already targeted: %w", target.Name, combat.ErrNoLegalTarget)
	}
	e.turn.targets = append(e.turn.targets, id)

	need := min(act.TargetCount(), len(e.deps.Resolver.LegalTargets(e.reg, c, *act)))
	if len(e.turn.targets) >= need {
		e.startResolution(combat.Selection{Targets: append([]string(nil), e.turn.targets...)})
	}
	return nil
}

// SelectCell acts on a grid cell: it moves in movement mode, centres a
// pending area action, or targets the cell's occupant.
func (e *Encounter) SelectCell(pos grid.Position) error {
	e.mu.Lock()
	defer e.unlock()
	c, err := e.actor()
	if err != nil {
		return err
	}
	switch {
	case e.turn.mode == ModeMovement:
		return e.move(c, pos)
	case e.turn.pending == nil:
		return combat.ErrNoPendingAction
	case e.turn.pending.AreaOfEffect:
		if _, err := combat.AreaTargets(e.reg, c, *e.turn.pending, pos); err != nil {
			return err
		}
		e.startResolution(combat.Selection{Origin: &pos})
		return nil
	default:
		occ, ok := e.reg.OccupantAt(pos)
		if !ok {
			return fmt.Errorf("nobody stands at %s: %w", pos, combat.ErrNoLegalTarget)
		}
		return e.addTarget(c, occ.ID)
	}
}

// CancelAction drops the pending action and its targets.
func (e *Encounter) CancelAction() error {
	e.mu.Lock()
	defer e.unlock()
	if _, err := e.actor(); err != nil {
		return err
	}
	e.clearPending()
	return nil
}

// ToggleMovementMode enters movement mode, dropping any pending action, or
// leaves it.
//
// Postcondition: Returns the new mode, or an error wrapping ErrMovementSpent.
func (e *Encounter) ToggleMovementMode() (Mode, error) {
	e.mu.Lock()
	defer e.unlock()
	c, err := e.actor()
	if err != nil {
		return e.turn.mode, err
	}
	if e.turn.mode == ModeMovement {
		e.turn.mode = ModeIdle
		return e.turn.mode, nil
	}
	if err := e.canMove(c); err != nil {
		return e.turn.mode, err
	}
	e.clearPending()
	e.turn.mode = ModeMovement
	return e.turn.mode, nil
}

// Move moves the controlled actor to pos, spending the turn's movement.
//
// Postcondition: Errors wrap ErrMovementSpent or ErrIllegalMove and leave
// the turn state unchanged.
func (e *Encounter) Move(pos grid.Position) error {
	e.mu.Lock()
	defer e.unlock()
	c, err := e.actor()
	if err != nil {
		return err
	}
	return e.move(c, pos)
}

func (e *Encounter) canMove(c *combat.Combatant) error {
	if e.turn.movementSpent {
		return fmt.Errorf("%s has already moved: %w", c.Name, combat.ErrMovementSpent)
	}
	if condition.IsRestricted(c.Conditions, "movement") {
		return fmt.Errorf("%s cannot move this turn: %w", c.Name, combat.ErrMovementSpent)
	}
	return nil
}

func (e *Encounter) move(c *combat.Combatant, pos grid.Position) error {
	if err := e.canMove(c); err != nil {
		return err
	}
	entry, err := e.reg.Move(c.ID, pos, e.settings.MovementAllowance)
	if err != nil {
		return err
	}
	e.clearPending()
	e.turn.mode = ModeIdle
	e.turn.movementSpent = true
	e.appendLog(entry)
	e.maybeAutoEnd()
	return nil
}

// EndTurn ends the controlled actor's turn.
func (e *Encounter) EndTurn() error {
	e.mu.Lock()
	defer e.unlock()
	c, err := e.actor()
	if err != nil {
		return err
	}
	e.turn = playerTurn{}
	e.finishTurn(c.ID)
	return nil
}

func (e *Encounter) clearPending() {
	e.turn.pending = nil
	e.turn.targets = nil
	if e.turn.mode == ModeAction {
		e.turn.mode = ModeIdle
	}
}

// startResolution resolves the pending action now or after the resolve delay.
func (e *Encounter) startResolution(sel combat.Selection) {
	delay := e.settings.Pacing.ResolveDelay
	if delay <= 0 {
		if err := e.resolvePending(sel); err != nil {
			e.deps.Logger.Warn("player action rejected", zap.Error(err))
		}
		return
	}
	e.turn.resolving = true
	key := e.currentKey()
	e.schedule(delay, func() { e.finishResolution(key, sel) })
}

func (e *Encounter) finishResolution(key TurnKey, sel combat.Selection) {
	e.mu.Lock()
	defer e.unlock()
	if e.phase != PhasePlayerTurn || key != e.currentKey() || !e.turn.resolving {
		return
	}
	e.turn.resolving = false
	if err := e.resolvePending(sel); err != nil {
		e.deps.Logger.Warn("player action rejected", zap.Error(err))
	}
}

// resolvePending runs the pending action through the resolver. A rejected
// action keeps the action slot and clears the chosen targets.
func (e *Encounter) resolvePending(sel combat.Selection) error {
	act := *e.turn.pending
	res, err := e.deps.Resolver.Resolve(e.reg, e.controlledID, act, sel)
	if err != nil {
		e.turn.targets = nil
		return err
	}
	e.commit(res, act)
	e.turn.actionSpent = true
	e.clearPending()
	if e.checkTerminal() {
		return nil
	}
	e.maybeAutoEnd()
	return nil
}

func (e *Encounter) maybeAutoEnd() {
	if !e.settings.Pacing.AutoEndTurn || !e.turn.actionSpent || !e.turn.movementSpent {
		return
	}
	e.turn = playerTurn{}
	e.finishTurn(e.controlledID)
}

// Suggest asks d what the controlled actor should do with what is left of
// its turn. It never changes encounter state.
func (e *Encounter) Suggest(d ai.Decider) (ai.Decision, error) {
	e.mu.Lock()
	defer e.unlock()
	c, err := e.actor()
	if err != nil {
		return ai.Decision{}, err
	}
	allowance := e.settings.MovementAllowance
	if e.canMove(c) != nil {
		allowance = 0
	}
	dec := d.Decide(e.reg, c.ID, e.order.Round(), allowance)
	if e.turn.actionSpent || condition.IsRestricted(c.Conditions, "action") {
		dec.ActionID = ""
		dec.Selection = combat.Selection{}
	}
	if allowance == 0 {
		dec.Move = nil
	}
	return dec, nil
}
