package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// View is the read-only slice of encounter state the Resolver needs.
// *Registry satisfies it.
type View interface {
	Get(id string) (*Combatant, bool)
	Living() []*Combatant
	Grid() grid.Grid
}

// Selection is the player's or planner's choice of targets for an action.
// Area actions use Origin; everything else uses Targets.
type Selection struct {
	Targets []string
	Origin  *grid.Position
}

// Resolver turns an action and a selection into a Result. It never mutates
// combatants; Registry.Apply commits the Result.
type Resolver struct {
	roller     *dice.Roller
	conditions *condition.Registry
	logger     *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: roller and logger must be non-nil. conditions may be nil, in
// which case status effects are skipped.
func NewResolver(roller *dice.Roller, conditions *condition.Registry, logger *zap.Logger) *Resolver {
	return &Resolver{roller: roller, conditions: conditions, logger: logger}
}

// relation classifies target from actor's point of view.
func relation(actor, target *Combatant) action.TargetKind {
	switch {
	case actor.ID == target.ID:
		return action.TargetSelf
	case actor.Opposes(target):
		return action.TargetEnemy
	default:
		return action.TargetAlly
	}
}

// CanTarget reports whether target is a legal individual target of act for actor.
func CanTarget(actor, target *Combatant, act action.Action) bool {
	if target.IsDead() {
		return false
	}
	if grid.Distance(actor.Position, target.Position) > act.Range {
		return false
	}
	return act.AllowsTarget(relation(actor, target))
}

// LegalTargets returns every combatant actor may target with act, in
// registry order. Area actions report the combatants they could affect
// anywhere in reach.
func (r *Resolver) LegalTargets(view View, actor *Combatant, act action.Action) []*Combatant {
	var out []*Combatant
	for _, c := range view.Living() {
		if act.AreaOfEffect {
			if affectedByArea(actor, c, act) && grid.Distance(actor.Position, c.Position) <= act.Range+act.AreaRadius {
				out = append(out, c)
			}
			continue
		}
		if CanTarget(actor, c, act) {
			out = append(out, c)
		}
	}
	return out
}

// affectedByArea applies the area team rule: harmful areas hit the opposing
// team, beneficial areas hit the caster's own team.
func affectedByArea(actor, c *Combatant, act action.Action) bool {
	if act.Beneficial() {
		return !actor.Opposes(c)
	}
	return actor.Opposes(c)
}

// Resolve rolls act from actorID against the selection.
//
// Postcondition: on error the Result is empty and nothing was rolled that
// could affect state. Errors wrap ErrMissingEntityForTurn, ErrActorDead,
// ErrNoSlotAvailable or ErrNoLegalTarget.
func (r *Resolver) Resolve(view View, actorID string, act action.Action, sel Selection) (Result, error) {
	actor, ok := view.Get(actorID)
	if !ok {
		return Result{}, fmt.Errorf("resolving %q: actor %q: %w", act.ID, actorID, ErrMissingEntityForTurn)
	}
	if actor.IsDead() {
		return Result{}, fmt.Errorf("resolving %q: %s: %w", act.ID, actor.Name, ErrActorDead)
	}
	if err := act.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{ActorID: actor.ID, ActionID: act.ID}
	if act.Kind == action.KindSpell && !act.IsCantrip() {
		lvl, ok := actor.Slots.Lowest(act.Spell.Level)
		if !ok {
			return Result{}, fmt.Errorf("%s cannot cast %s (level %d): %w", actor.Name, act.Name, act.Spell.Level, ErrNoSlotAvailable)
		}
		res.SlotLevel = lvl
	}

	targets, err := r.selectTargets(view, actor, act, sel)
	if err != nil {
		return Result{}, err
	}

	for _, t := range targets {
		r.resolveAgainst(&res, actor, t, act)
	}
	return res, nil
}

func (r *Resolver) selectTargets(view View, actor *Combatant, act action.Action, sel Selection) ([]*Combatant, error) {
	if act.AreaOfEffect {
		if sel.Origin == nil {
			return nil, fmt.Errorf("%s needs an origin cell: %w", act.Name, ErrNoLegalTarget)
		}
		return AreaTargets(view, actor, act, *sel.Origin)
	}

	if len(sel.Targets) == 0 {
		return nil, fmt.Errorf("%s needs a target: %w", act.Name, ErrNoLegalTarget)
	}
	if len(sel.Targets) > act.TargetCount() {
		return nil, fmt.Errorf("%s takes at most %d targets, got %d: %w", act.Name, act.TargetCount(), len(sel.Targets), ErrNoLegalTarget)
	}
	seen := make(map[string]bool, len(sel.Targets))
	out := make([]*Combatant, 0, len(sel.Targets))
	for _, id := range sel.Targets {
		if seen[id] {
			return nil, fmt.Errorf("%s targeted twice: %w", id, ErrNoLegalTarget)
		}
		seen[id] = true
		t, ok := view.Get(id)
		if !ok || !CanTarget(actor, t, act) {
			return nil, fmt.Errorf("%s cannot target %q with %s: %w", actor.Name, id, act.Name, ErrNoLegalTarget)
		}
		out = append(out, t)
	}
	return out, nil
}

// AreaTargets returns the combatants an area action centred on origin would
// affect.
//
// Postcondition: Returns a non-empty slice, or an error wrapping
// ErrNoLegalTarget when origin is off-grid, out of range, or covers nobody.
func AreaTargets(view View, actor *Combatant, act action.Action, origin grid.Position) ([]*Combatant, error) {
	if !view.Grid().InBounds(origin) || grid.Distance(actor.Position, origin) > act.Range {
		return nil, fmt.Errorf("origin %s is out of reach for %s: %w", origin, act.Name, ErrNoLegalTarget)
	}
	var hit []*Combatant
	for _, c := range view.Living() {
		if grid.Distance(origin, c.Position) <= act.AreaRadius && affectedByArea(actor, c, act) {
			hit = append(hit, c)
		}
	}
	if len(hit) == 0 {
		return nil, fmt.Errorf("no combatant in the area of %s at %s: %w", act.Name, origin, ErrNoLegalTarget)
	}
	return hit, nil
}

func (r *Resolver) resolveAgainst(res *Result, actor, target *Combatant, act action.Action) {
	outcome := OutcomeAutoHit
	if act.RequiresAttackRoll && !act.Beneficial() {
		natural := r.roller.D20("attack " + act.ID)
		bonus := AttackBonus(actor, act) + condition.AttackModifier(actor.Conditions)
		ac := target.AC + condition.ACModifier(target.Conditions)
		outcome = OutcomeFor(natural, natural+bonus, ac)
		res.Rolls = append(res.Rolls, AttackRoll{
			TargetID: target.ID,
			Natural:  natural,
			Bonus:    bonus,
			Total:    natural + bonus,
			AC:       ac,
			Outcome:  outcome,
		})
		if outcome == OutcomeMiss {
			res.Log = append(res.Log, LogEntry{
				Text:     fmt.Sprintf("%s misses %s with %s (%d vs AC %d).", actor.Name, target.Name, act.Name, natural+bonus, ac),
				Category: CategoryAttackMiss,
			})
			return
		}
	}

	if act.Healing != nil {
		amount := r.amount(*act.Healing)
		res.Healing = append(res.Healing, HealingEvent{TargetID: target.ID, Amount: amount})
		res.Log = append(res.Log, LogEntry{
			Text:     fmt.Sprintf("%s's %s restores %d HP to %s.", actor.Name, act.Name, amount, target.Name),
			Category: CategoryHeal,
		})
	}

	if !act.Damage.IsZero() {
		amount := r.amount(act.Damage)
		crit := outcome == OutcomeCritical
		if crit {
			amount *= 2
		}
		res.Damage = append(res.Damage, DamageEvent{TargetID: target.ID, Amount: amount, Critical: crit})
		res.Log = append(res.Log, damageEntry(actor, target, act, amount, crit))
	}

	if act.Kind == action.KindSpell && act.Spell.Effect != nil {
		r.applyEffect(res, actor, target, act)
	}
}

func (r *Resolver) applyEffect(res *Result, actor, target *Combatant, act action.Action) {
	eff := act.Spell.Effect
	if r.conditions == nil {
		return
	}
	def, ok := r.conditions.Get(eff.Condition)
	if !ok {
		r.logger.Warn("spell names unknown condition",
			zap.String("spell", act.ID),
			zap.String("condition", eff.Condition),
		)
		return
	}
	res.Statuses = append(res.Statuses, StatusEvent{
		TargetID: target.ID,
		Def:      def,
		Stacks:   eff.Stacks,
		Duration: eff.Duration,
	})
	res.Log = append(res.Log, LogEntry{
		Text:     fmt.Sprintf("%s is %s by %s's %s.", target.Name, def.Name, actor.Name, act.Name),
		Category: CategorySpellHit,
	})
}

// amount rolls ds and adds its flat bonus, flooring at zero.
func (r *Resolver) amount(ds action.DamageSpec) int {
	total := ds.Bonus
	if ds.Dice != "" {
		// Validate already parsed every expression.
		roll, _ := r.roller.RollExpr(ds.Dice)
		total += roll.Total()
	}
	return max(total, 0)
}

func damageEntry(actor, target *Combatant, act action.Action, amount int, crit bool) LogEntry {
	switch {
	case crit:
		return LogEntry{
			Text:     fmt.Sprintf("Critical hit! %s strikes %s with %s for %d damage.", actor.Name, target.Name, act.Name, amount),
			Category: CategoryCritical,
		}
	case act.Kind == action.KindSpell:
		return LogEntry{
			Text:     fmt.Sprintf("%s's %s hits %s for %d damage.", actor.Name, act.Name, target.Name, amount),
			Category: CategorySpellHit,
		}
	default:
		return LogEntry{
			Text:     fmt.Sprintf("%s hits %s with %s for %d damage.", actor.Name, target.Name, act.Name, amount),
			Category: CategoryAttackHit,
		}
	}
}
