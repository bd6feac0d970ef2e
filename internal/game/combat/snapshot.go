package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Snapshot is a read-only view of a controlled actor or ally supplied by
// the character store at encounter start.
type Snapshot struct {
	ID           string         `yaml:"id"`
	Name         string         `yaml:"name"`
	Level        int            `yaml:"level"`
	MaxHP        int            `yaml:"max_hp"`
	CurrentHP    int            `yaml:"current_hp"`
	AC           int            `yaml:"ac"`
	Abilities    Abilities      `yaml:"abilities"`
	Weapons      []string       `yaml:"weapons"`
	Spells       []string       `yaml:"spells"`
	SpellSlots   map[int]int    `yaml:"spell_slots"`
	SpellAbility string         `yaml:"spell_ability"`
	Position     *grid.Position `yaml:"position"`
}

// FromSnapshot builds a combatant of kind k from s, resolving its weapons
// and spells against arsenal. A snapshot with no weapons fights unarmed.
// A zero CurrentHP means full health; a negative one marks the combatant as
// already down.
//
// Postcondition: Returns an error wrapping ErrInvalidEncounterDefinition
// when the snapshot is malformed or references unknown actions.
func FromSnapshot(s Snapshot, k Kind, arsenal *action.Arsenal) (*Combatant, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("snapshot %q has no id: %w", s.Name, ErrInvalidEncounterDefinition)
	}
	if s.MaxHP < 1 {
		return nil, fmt.Errorf("snapshot %q must have max_hp >= 1: %w", s.ID, ErrInvalidEncounterDefinition)
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	hp := s.CurrentHP
	switch {
	case hp == 0:
		hp = s.MaxHP
	case hp < 0:
		hp = 0
	}

	var actions []action.Action
	if refs := append(append([]string(nil), s.Weapons...), s.Spells...); len(refs) > 0 {
		if arsenal == nil {
			return nil, fmt.Errorf("snapshot %q references actions but no arsenal is loaded: %w", s.ID, ErrInvalidEncounterDefinition)
		}
		var err error
		actions, err = arsenal.Actions(refs)
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: %w: %w", s.ID, ErrInvalidEncounterDefinition, err)
		}
	}
	if len(s.Weapons) == 0 {
		actions = append([]action.Action{action.Unarmed()}, actions...)
	}

	var slots *SpellSlots
	if len(s.SpellSlots) > 0 {
		slots = NewSpellSlots(s.SpellSlots)
	}
	c := &Combatant{
		ID:           s.ID,
		Name:         name,
		Kind:         k,
		Team:         TeamOf(k),
		Level:        max(s.Level, 1),
		MaxHP:        s.MaxHP,
		CurrentHP:    min(hp, s.MaxHP),
		AC:           s.AC,
		Abilities:    s.Abilities,
		Actions:      actions,
		Slots:        slots,
		SpellAbility: s.SpellAbility,
	}
	if s.Position != nil {
		c.Position = *s.Position
	}
	return c, nil
}
