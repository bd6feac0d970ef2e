package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Registry holds every combatant of one encounter and is the sole authority
// for id and position lookups. It is also the only writer of hit points,
// conditions and spell slots.
//
// Registry is not safe for concurrent use; the owning encounter serialises access.
type Registry struct {
	grid  grid.Grid
	byID  map[string]*Combatant
	order []*Combatant
}

// NewRegistry creates an empty Registry over g.
func NewRegistry(g grid.Grid) *Registry {
	return &Registry{grid: g, byID: make(map[string]*Combatant)}
}

// Grid returns the battlefield bounds.
func (r *Registry) Grid() grid.Grid { return r.grid }

// Add registers c.
//
// Precondition: c is non-nil.
// Postcondition: Returns an error wrapping ErrInvalidEncounterDefinition if
// the id is empty or taken, the position is off-grid, or a living combatant
// already occupies the cell.
func (r *Registry) Add(c *Combatant) error {
	if c.ID == "" {
		return fmt.Errorf("combatant %q has no id: %w", c.Name, ErrInvalidEncounterDefinition)
	}
	if _, dup := r.byID[c.ID]; dup {
		return fmt.Errorf("duplicate combatant id %q: %w", c.ID, ErrInvalidEncounterDefinition)
	}
	if !r.grid.InBounds(c.Position) {
		return fmt.Errorf("combatant %q placed off-grid at %s: %w", c.ID, c.Position, ErrInvalidEncounterDefinition)
	}
	if !c.IsDead() {
		if occ, ok := r.OccupantAt(c.Position); ok {
			return fmt.Errorf("combatant %q placed on %s occupied by %q: %w", c.ID, c.Position, occ.ID, ErrInvalidEncounterDefinition)
		}
	}
	if c.MaxHP < 1 {
		return fmt.Errorf("combatant %q must have max HP >= 1: %w", c.ID, ErrInvalidEncounterDefinition)
	}
	c.CurrentHP = clamp(c.CurrentHP, 0, c.MaxHP)
	c.Team = TeamOf(c.Kind)
	if c.Conditions == nil {
		c.Conditions = condition.NewActiveSet()
	}
	r.byID[c.ID] = c
	r.order = append(r.order, c)
	return nil
}

// Get returns the combatant with id.
func (r *Registry) Get(id string) (*Combatant, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All returns every combatant in insertion order.
func (r *Registry) All() []*Combatant {
	return append([]*Combatant(nil), r.order...)
}

// Living returns every combatant with CurrentHP > 0, in insertion order.
func (r *Registry) Living() []*Combatant {
	var out []*Combatant
	for _, c := range r.order {
		if !c.IsDead() {
			out = append(out, c)
		}
	}
	return out
}

// OfKind returns every combatant of kind k, in insertion order.
func (r *Registry) OfKind(k Kind) []*Combatant {
	var out []*Combatant
	for _, c := range r.order {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// AllDead reports whether every combatant of the given kinds is dead.
// Kinds with no members count as dead.
func (r *Registry) AllDead(kinds ...Kind) bool {
	for _, c := range r.order {
		for _, k := range kinds {
			if c.Kind == k && !c.IsDead() {
				return false
			}
		}
	}
	return true
}

// OccupantAt returns the living combatant standing on p. Dead combatants
// leave their cell free.
func (r *Registry) OccupantAt(p grid.Position) (*Combatant, bool) {
	for _, c := range r.order {
		if c.Position == p && !c.IsDead() {
			return c, true
		}
	}
	return nil, false
}

// ValidateMove checks that id may move to dest spending at most allowance.
// Diagonal steps cost the same as orthogonal ones.
//
// Postcondition: Returns nil, or an error wrapping ErrIllegalMove.
func (r *Registry) ValidateMove(id string, dest grid.Position, allowance int) error {
	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("unknown combatant %q: %w", id, ErrIllegalMove)
	}
	if c.IsDead() {
		return fmt.Errorf("%s is dead: %w", c.Name, ErrIllegalMove)
	}
	if !r.grid.InBounds(dest) {
		return fmt.Errorf("%s is off the grid: %w", dest, ErrIllegalMove)
	}
	if occ, taken := r.OccupantAt(dest); taken {
		if occ.ID == id {
			return fmt.Errorf("%s is already at %s: %w", c.Name, dest, ErrIllegalMove)
		}
		return fmt.Errorf("%s is occupied by %s: %w", dest, occ.Name, ErrIllegalMove)
	}
	if d := grid.Distance(c.Position, dest); d > allowance {
		return fmt.Errorf("%s is %d cells away, allowance %d: %w", dest, d, allowance, ErrIllegalMove)
	}
	return nil
}

// Move validates and performs a move.
//
// Postcondition: on success the combatant's Position is dest and a movement
// log entry is returned; on failure nothing changes.
func (r *Registry) Move(id string, dest grid.Position, allowance int) (LogEntry, error) {
	if err := r.ValidateMove(id, dest, allowance); err != nil {
		return LogEntry{}, err
	}
	c := r.byID[id]
	from := c.Position
	c.Position = dest
	return LogEntry{
		Text:     fmt.Sprintf("%s moves from %s to %s.", c.Name, from, dest),
		Category: CategoryMovement,
	}, nil
}

// Apply commits a resolution: damage, healing, status effects and the
// caster's spell slot. Events naming unknown combatants are ignored.
// Every status and the slot spend are checked before anything is written,
// so an error leaves the registry unchanged.
//
// Postcondition: every touched combatant satisfies 0 <= CurrentHP <= MaxHP;
// one death entry is returned per combatant that dropped to 0 HP.
func (r *Registry) Apply(res Result) ([]LogEntry, error) {
	for _, ev := range res.Statuses {
		if _, ok := r.byID[ev.TargetID]; ok && ev.Def == nil {
			return nil, fmt.Errorf("status for %q has no condition definition", ev.TargetID)
		}
	}
	if res.SlotLevel > 0 {
		actor, ok := r.byID[res.ActorID]
		if !ok {
			return nil, fmt.Errorf("slot spend for unknown actor %q: %w", res.ActorID, ErrMissingEntityForTurn)
		}
		if err := actor.Slots.Spend(res.SlotLevel); err != nil {
			return nil, err
		}
	}

	var deaths []LogEntry
	for _, ev := range res.Damage {
		c, ok := r.byID[ev.TargetID]
		if !ok || c.IsDead() {
			continue
		}
		c.CurrentHP = clamp(c.CurrentHP-ev.Amount, 0, c.MaxHP)
		if c.IsDead() {
			deaths = append(deaths, LogEntry{
				Text:     fmt.Sprintf("%s falls.", c.Name),
				Category: CategoryDeath,
			})
		}
	}
	for _, ev := range res.Healing {
		c, ok := r.byID[ev.TargetID]
		if !ok || c.IsDead() {
			continue
		}
		c.CurrentHP = clamp(c.CurrentHP+ev.Amount, 0, c.MaxHP)
	}
	for _, ev := range res.Statuses {
		c, ok := r.byID[ev.TargetID]
		if !ok || c.IsDead() {
			continue
		}
		if err := c.Conditions.Apply(ev.Def, ev.Stacks, ev.Duration); err != nil {
			return deaths, fmt.Errorf("applying %q to %q: %w", ev.Def.ID, c.ID, err)
		}
	}
	return deaths, nil
}

// TickConditions advances the status effects of id by one round and returns
// the expired condition ids.
func (r *Registry) TickConditions(id string) []string {
	c, ok := r.byID[id]
	if !ok || c.Conditions == nil {
		return nil
	}
	return c.Conditions.Tick()
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
