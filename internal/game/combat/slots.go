package combat

import (
	"fmt"
	"sort"
)

// SpellSlots tracks remaining spell slots per spell level.
type SpellSlots struct {
	available map[int]int
}

// NewSpellSlots builds slots from a level → count map. Non-positive levels
// and counts are ignored.
func NewSpellSlots(counts map[int]int) *SpellSlots {
	s := &SpellSlots{available: make(map[int]int, len(counts))}
	for lvl, n := range counts {
		if lvl > 0 && n > 0 {
			s.available[lvl] = n
		}
	}
	return s
}

// Available returns the slots left at exactly level.
func (s *SpellSlots) Available(level int) int {
	if s == nil {
		return 0
	}
	return s.available[level]
}

// Lowest returns the lowest level >= minLevel with a slot left.
func (s *SpellSlots) Lowest(minLevel int) (int, bool) {
	if s == nil {
		return 0, false
	}
	best := 0
	for lvl, n := range s.available {
		if lvl >= minLevel && n > 0 && (best == 0 || lvl < best) {
			best = lvl
		}
	}
	return best, best > 0
}

// Spend consumes one slot at exactly level.
//
// Postcondition: on success Available(level) decreased by one.
func (s *SpellSlots) Spend(level int) error {
	if s == nil || s.available[level] <= 0 {
		return fmt.Errorf("no level %d slot to spend: %w", level, ErrNoSlotAvailable)
	}
	s.available[level]--
	return nil
}

// Counts returns a copy of the remaining counts.
func (s *SpellSlots) Counts() map[int]int {
	out := make(map[int]int)
	if s == nil {
		return out
	}
	for lvl, n := range s.available {
		out[lvl] = n
	}
	return out
}

// Levels returns the levels that still have slots, ascending.
func (s *SpellSlots) Levels() []int {
	var out []int
	if s == nil {
		return out
	}
	for lvl, n := range s.available {
		if n > 0 {
			out = append(out, lvl)
		}
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy.
func (s *SpellSlots) Clone() *SpellSlots {
	if s == nil {
		return nil
	}
	return NewSpellSlots(s.available)
}
