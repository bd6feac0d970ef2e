// Package combat implements the combatant registry, initiative scheduler and
// action resolver shared by every participant in an encounter.
package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Kind distinguishes the controlled actor, its allies and hostiles.
type Kind int

const (
	KindControlled Kind = iota
	KindAlly
	KindHostile
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindControlled:
		return "controlled"
	case KindAlly:
		return "ally"
	case KindHostile:
		return "hostile"
	default:
		return "unknown"
	}
}

// Team is the side a combatant fights for.
type Team int

const (
	TeamFriendly Team = iota
	TeamHostile
)

// String returns the lower-case team name.
func (t Team) String() string {
	if t == TeamHostile {
		return "hostile"
	}
	return "friendly"
}

// TeamOf maps a Kind to its Team.
func TeamOf(k Kind) Team {
	if k == KindHostile {
		return TeamHostile
	}
	return TeamFriendly
}

// Abilities holds the six ability scores.
type Abilities struct {
	Str int `yaml:"str"`
	Dex int `yaml:"dex"`
	Con int `yaml:"con"`
	Int int `yaml:"int"`
	Wis int `yaml:"wis"`
	Cha int `yaml:"cha"`
}

// Score returns the score for an ability key ("str", "dex", ...).
// Unknown keys score 10, a zero modifier.
func (a Abilities) Score(key string) int {
	switch key {
	case action.AbilityStrength:
		return a.Str
	case action.AbilityDexterity:
		return a.Dex
	case action.AbilityConstitution:
		return a.Con
	case action.AbilityIntelligence:
		return a.Int
	case action.AbilityWisdom:
		return a.Wis
	case action.AbilityCharisma:
		return a.Cha
	default:
		return 10
	}
}

// Mod returns the modifier for an ability key.
func (a Abilities) Mod(key string) int {
	return AbilityMod(a.Score(key))
}

// Combatant is one participant in an encounter.
//
// Invariant: 0 <= CurrentHP <= MaxHP. A combatant at 0 HP is dead.
type Combatant struct {
	ID         string
	Name       string
	Kind       Kind
	Team       Team
	Level      int
	MaxHP      int
	CurrentHP  int
	AC         int
	Abilities  Abilities
	Initiative int
	Position   grid.Position
	Conditions *condition.ActiveSet
	Actions    []action.Action
	// Slots is nil for combatants that cannot cast leveled spells.
	Slots *SpellSlots
	// SpellAbility is the ability key used for spell attacks; empty means "int".
	SpellAbility string
	// TemplateID names the hostile template this combatant was spawned from.
	TemplateID string
	// AIDomain names the HTN domain driving this combatant's turns; empty uses the heuristic.
	AIDomain string
}

// IsDead reports whether the combatant has no hit points left.
// Postcondition: Returns true iff CurrentHP <= 0.
func (c *Combatant) IsDead() bool {
	return c.CurrentHP <= 0
}

// IsControlled reports whether this is the player-controlled actor.
func (c *Combatant) IsControlled() bool { return c.Kind == KindControlled }

// Action returns the capability with the given id.
func (c *Combatant) Action(id string) (action.Action, bool) {
	for _, a := range c.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return action.Action{}, false
}

// Opposes reports whether c and other are on different teams.
func (c *Combatant) Opposes(other *Combatant) bool {
	return c.Team != other.Team
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c *Combatant) Clone() *Combatant {
	cp := *c
	if c.Conditions != nil {
		cp.Conditions = c.Conditions.Clone()
	}
	if c.Slots != nil {
		cp.Slots = c.Slots.Clone()
	}
	cp.Actions = append([]action.Action(nil), c.Actions...)
	return &cp
}

// ProficiencyBonus returns the proficiency bonus for the given level.
// Formula: 2 + (level-1)/4, minimum 2.
// Postcondition: Returns >= 2.
func ProficiencyBonus(level int) int {
	if level < 1 {
		level = 1
	}
	return 2 + (level-1)/4
}

// AbilityMod computes the standard ability modifier using floor division: floor((score - 10) / 2).
// Postcondition: Returns floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// SpellAttackBonus returns the caster's spell attack bonus: spellcasting
// ability modifier plus proficiency.
func SpellAttackBonus(c *Combatant) int {
	key := c.SpellAbility
	if key == "" {
		key = action.AbilityIntelligence
	}
	return c.Abilities.Mod(key) + ProficiencyBonus(c.Level)
}

// AttackBonus returns the to-hit bonus c applies when using act, before
// status modifiers.
func AttackBonus(c *Combatant, act action.Action) int {
	switch act.Kind {
	case action.KindAttack:
		if act.Attack.FixedBonus != nil {
			return *act.Attack.FixedBonus
		}
		return c.Abilities.Mod(act.Attack.Ability) + ProficiencyBonus(c.Level)
	case action.KindSpell:
		if act.Spell.FixedBonus != nil {
			return *act.Spell.FixedBonus
		}
		return SpellAttackBonus(c)
	default:
		return 0
	}
}
