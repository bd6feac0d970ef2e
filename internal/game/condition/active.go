package condition

import (
	"fmt"
	"sort"
)

// ActiveCondition tracks one applied condition on a combatant.
type ActiveCondition struct {
	Def               *ConditionDef
	Stacks            int
	DurationRemaining int // -1 = permanent
}

// ActiveSet tracks all conditions currently applied to one combatant.
// It is not safe for concurrent use; the owning encounter serialises access.
type ActiveSet struct {
	conditions map[string]*ActiveCondition
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{conditions: make(map[string]*ActiveCondition)}
}

// Apply adds or refreshes a condition.
// Re-applying adds stacks (capped at MaxStacks; unstackable stays at 1) and
// keeps the longer of the two durations.
//
// Precondition: def must not be nil.
// Postcondition: Has(def.ID) is true.
func (s *ActiveSet) Apply(def *ConditionDef, stacks, duration int) error {
	if def == nil {
		return fmt.Errorf("condition: Apply: def must not be nil")
	}
	if def.DurationType == DurationPermanent {
		duration = -1
	}
	if stacks < 1 {
		stacks = 1
	}

	ac, ok := s.conditions[def.ID]
	if !ok {
		ac = &ActiveCondition{Def: def, DurationRemaining: duration}
		s.conditions[def.ID] = ac
	} else if duration > ac.DurationRemaining || duration < 0 {
		ac.DurationRemaining = duration
	}

	switch {
	case def.MaxStacks == 0:
		ac.Stacks = 1
	case ac.Stacks+stacks > def.MaxStacks:
		ac.Stacks = def.MaxStacks
	default:
		ac.Stacks += stacks
	}
	return nil
}

// Remove deletes the condition with the given ID. Missing IDs are a no-op.
func (s *ActiveSet) Remove(id string) {
	delete(s.conditions, id)
}

// Tick decrements every rounds-type condition by one and removes those that
// reach zero.
//
// Postcondition: For every id in the returned slice, Has(id) is false.
func (s *ActiveSet) Tick() []string {
	var expired []string
	for id, ac := range s.conditions {
		if ac.Def.DurationType != DurationRounds || ac.DurationRemaining < 0 {
			continue
		}
		ac.DurationRemaining--
		if ac.DurationRemaining <= 0 {
			expired = append(expired, id)
			delete(s.conditions, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// Has reports whether the condition with id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.conditions[id]
	return ok
}

// Stacks returns the current stack count for condition id, or 0 if absent.
func (s *ActiveSet) Stacks(id string) int {
	if ac, ok := s.conditions[id]; ok {
		return ac.Stacks
	}
	return 0
}

// IDs returns the active condition IDs in sorted order.
func (s *ActiveSet) IDs() []string {
	ids := make([]string, 0, len(s.conditions))
	for id := range s.conditions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy. Definitions are shared.
func (s *ActiveSet) Clone() *ActiveSet {
	out := NewActiveSet()
	for id, ac := range s.conditions {
		cp := *ac
		out.conditions[id] = &cp
	}
	return out
}
