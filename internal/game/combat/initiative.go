package combat

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Entry is one slot in the turn order.
type Entry struct {
	CombatantID string
	Name        string
	Kind        Kind
	// Roll is the natural d20; Initiative is Roll plus the Dex modifier.
	Roll       int
	Initiative int
}

// TurnOrder is the fixed initiative sequence of an encounter. Entries are
// never re-sorted or removed; dead combatants are skipped by the caller.
type TurnOrder struct {
	entries []Entry
	index   int
	round   int
}

// NewTurnOrder wraps pre-ordered entries.
//
// Postcondition: Round() == 1 and Index() == 0, or ErrEmptyTurnOrder.
func NewTurnOrder(entries []Entry) (*TurnOrder, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTurnOrder
	}
	return &TurnOrder{entries: append([]Entry(nil), entries...), round: 1}, nil
}

// RollInitiative rolls d20 + Dex modifier for every participant, records the
// total on each combatant and returns the resulting order.
//
// Ordering is descending by total. Ties go to the controlled actor, then
// allies, then hostiles; remaining ties keep the input order. A nil
// controlled actor is allowed.
//
// Precondition: src must be non-nil.
// Postcondition: Returns ErrEmptyTurnOrder when there are no participants.
func RollInitiative(controlled *Combatant, allies, hostiles []*Combatant, src dice.Source) (*TurnOrder, error) {
	var all []*Combatant
	if controlled != nil {
		all = append(all, controlled)
	}
	all = append(all, allies...)
	all = append(all, hostiles...)
	if len(all) == 0 {
		return nil, fmt.Errorf("rolling initiative: %w", ErrEmptyTurnOrder)
	}

	entries := make([]Entry, 0, len(all))
	for _, c := range all {
		roll := dice.D20(src)
		c.Initiative = roll + c.Abilities.Mod(action.AbilityDexterity)
		entries = append(entries, Entry{
			CombatantID: c.ID,
			Name:        c.Name,
			Kind:        c.Kind,
			Roll:        roll,
			Initiative:  c.Initiative,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Initiative != entries[j].Initiative {
			return entries[i].Initiative > entries[j].Initiative
		}
		return entries[i].Kind < entries[j].Kind
	})
	return NewTurnOrder(entries)
}

// Current returns the entry whose turn it is.
func (o *TurnOrder) Current() (Entry, bool) {
	if o == nil || len(o.entries) == 0 {
		return Entry{}, false
	}
	return o.entries[o.index], true
}

// Advance moves to the next entry, wrapping to the start and incrementing
// the round counter after the last one.
//
// Postcondition: returns true iff the order wrapped.
func (o *TurnOrder) Advance() bool {
	o.index++
	if o.index >= len(o.entries) {
		o.index = 0
		o.round++
		return true
	}
	return false
}

// Index returns the position of the current entry.
func (o *TurnOrder) Index() int { return o.index }

// Round returns the full-round counter, starting at 1.
func (o *TurnOrder) Round() int { return o.round }

// Len returns the number of entries.
func (o *TurnOrder) Len() int { return len(o.entries) }

// Entries returns a copy of the ordered entries.
func (o *TurnOrder) Entries() []Entry {
	return append([]Entry(nil), o.entries...)
}
