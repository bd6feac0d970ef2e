package combat

import "github.com/cory-johannsen/skirmish/internal/game/condition"

// Outcome is the result of one attack against one target.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
	OutcomeCritical
	// OutcomeAutoHit marks actions that skip the attack roll.
	OutcomeAutoHit
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "miss"
	case OutcomeHit:
		return "hit"
	case OutcomeCritical:
		return "critical hit"
	case OutcomeAutoHit:
		return "auto hit"
	default:
		return "unknown"
	}
}

// Landed reports whether the outcome applies the action's effects.
func (o Outcome) Landed() bool { return o != OutcomeMiss }

// OutcomeFor determines the outcome of a natural d20 and total against ac.
// A natural 20 is always a critical hit.
// Postcondition: Returns one of OutcomeCritical, OutcomeHit, OutcomeMiss.
func OutcomeFor(natural, total, ac int) Outcome {
	switch {
	case natural == 20:
		return OutcomeCritical
	case total >= ac:
		return OutcomeHit
	default:
		return OutcomeMiss
	}
}

// AttackRoll records one attack roll against one target.
type AttackRoll struct {
	TargetID string
	Natural  int
	Bonus    int
	Total    int
	AC       int
	Outcome  Outcome
}

// DamageEvent reduces a target's hit points.
type DamageEvent struct {
	TargetID string
	Amount   int
	Critical bool
}

// HealingEvent restores a target's hit points.
type HealingEvent struct {
	TargetID string
	Amount   int
}

// StatusEvent applies a condition to a target.
type StatusEvent struct {
	TargetID string
	Def      *condition.ConditionDef
	Stacks   int
	Duration int
}

// Result is everything one resolution produced. It is the only channel by
// which outcomes leave the Resolver.
type Result struct {
	ActorID  string
	ActionID string
	Rolls    []AttackRoll
	Damage   []DamageEvent
	Healing  []HealingEvent
	Statuses []StatusEvent
	// SlotLevel is the spell slot consumed; 0 for attacks and cantrips.
	SlotLevel int
	Log       []LogEntry
}

// TotalDamage sums every damage event.
func (r Result) TotalDamage() int {
	total := 0
	for _, d := range r.Damage {
		total += d.Amount
	}
	return total
}
