// Package action defines the closed set of things a combatant can do on its
// turn. An Action is a tagged union: Kind selects exactly one payload.
package action

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Kind discriminates the Action variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindAttack
	KindSpell
)

// String returns the lower-case variant name.
func (k Kind) String() string {
	switch k {
	case KindAttack:
		return "attack"
	case KindSpell:
		return "spell"
	default:
		return "unknown"
	}
}

// TargetKind names a class of legal spell target.
type TargetKind string

const (
	TargetSelf  TargetKind = "self"
	TargetAlly  TargetKind = "ally"
	TargetEnemy TargetKind = "enemy"
	TargetArea  TargetKind = "area"
)

// Ability score keys.
const (
	AbilityStrength     = "str"
	AbilityDexterity    = "dex"
	AbilityConstitution = "con"
	AbilityIntelligence = "int"
	AbilityWisdom       = "wis"
	AbilityCharisma     = "cha"
)

// ValidAbility reports whether key names one of the six ability scores.
func ValidAbility(key string) bool {
	switch key {
	case AbilityStrength, AbilityDexterity, AbilityConstitution,
		AbilityIntelligence, AbilityWisdom, AbilityCharisma:
		return true
	}
	return false
}

// DamageSpec is a dice expression (or fixed number) plus a flat bonus.
type DamageSpec struct {
	Dice  string `yaml:"dice"`
	Bonus int    `yaml:"bonus"`
}

// IsZero reports whether d deals nothing.
func (d DamageSpec) IsZero() bool {
	return d.Dice == "" && d.Bonus == 0
}

// String renders d as "2d6+3".
func (d DamageSpec) String() string {
	switch {
	case d.Dice == "":
		return fmt.Sprintf("%d", d.Bonus)
	case d.Bonus > 0:
		return fmt.Sprintf("%s+%d", d.Dice, d.Bonus)
	case d.Bonus < 0:
		return fmt.Sprintf("%s%d", d.Dice, d.Bonus)
	default:
		return d.Dice
	}
}

// AttackPayload carries the weapon-attack variant's data.
type AttackPayload struct {
	// Ability is the ability key whose modifier applies to the attack roll.
	Ability string
	Ranged  bool
	// FixedBonus overrides the computed attack bonus when set. Hostile
	// templates state their to-hit bonus directly.
	FixedBonus *int
}

// EffectSpec is a status effect applied to every target the action lands on.
type EffectSpec struct {
	Condition string
	Stacks    int
	Duration  int
}

// SpellPayload carries the spell variant's data.
type SpellPayload struct {
	// Level 0 is a cantrip and never consumes a slot.
	Level        int
	ValidTargets []TargetKind
	Effect       *EffectSpec
	// FixedBonus overrides the computed spell attack bonus when set.
	FixedBonus *int
}

// Action is a resolved capability of one combatant.
//
// Invariant: exactly one of Attack and Spell is non-nil, matching Kind.
type Action struct {
	Kind               Kind
	ID                 string
	Name               string
	Damage             DamageSpec
	Healing            *DamageSpec
	Range              int
	Projectiles        int
	RequiresAttackRoll bool
	AreaOfEffect       bool
	AreaRadius         int

	Attack *AttackPayload
	Spell  *SpellPayload
}

// TargetCount returns the number of distinct targets the action demands.
func (a *Action) TargetCount() int {
	if a.Projectiles < 1 {
		return 1
	}
	return a.Projectiles
}

// IsCantrip reports whether the action is a spell that needs no slot.
func (a *Action) IsCantrip() bool {
	return a.Kind == KindSpell && a.Spell != nil && a.Spell.Level == 0
}

// Beneficial reports whether the action helps its targets: it heals, or it
// is a spell restricted to self and allies.
func (a *Action) Beneficial() bool {
	if a.Healing != nil {
		return true
	}
	if a.Kind != KindSpell || a.Spell == nil {
		return false
	}
	friendly := false
	for _, t := range a.Spell.ValidTargets {
		switch t {
		case TargetEnemy:
			return false
		case TargetSelf, TargetAlly:
			friendly = true
		}
	}
	return friendly
}

// AllowsTarget reports whether a target of kind k is acceptable. Attacks
// accept enemies only; spells with no declared target kinds accept enemies.
func (a *Action) AllowsTarget(k TargetKind) bool {
	if a.Kind != KindSpell || a.Spell == nil || len(a.Spell.ValidTargets) == 0 {
		return k == TargetEnemy
	}
	for _, t := range a.Spell.ValidTargets {
		if t == k {
			return true
		}
	}
	return false
}

// Validate checks the tagged-union invariants and that every dice
// expression parses.
// Precondition: a is non-nil.
// Postcondition: returns nil iff the action can be resolved.
func (a *Action) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	switch a.Kind {
	case KindAttack:
		if a.Attack == nil || a.Spell != nil {
			errs = append(errs, errors.New("attack action must carry only an attack payload"))
		} else if !ValidAbility(a.Attack.Ability) {
			errs = append(errs, fmt.Errorf("unknown attack ability %q", a.Attack.Ability))
		}
	case KindSpell:
		if a.Spell == nil || a.Attack != nil {
			errs = append(errs, errors.New("spell action must carry only a spell payload"))
		} else if a.Spell.Level < 0 {
			errs = append(errs, errors.New("spell level must be >= 0"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown action kind %d", a.Kind))
	}
	if a.Range < 0 {
		errs = append(errs, errors.New("range must be >= 0"))
	}
	if a.AreaOfEffect && a.AreaRadius < 0 {
		errs = append(errs, errors.New("area radius must be >= 0"))
	}
	if a.Damage.Dice != "" {
		if _, err := dice.Parse(a.Damage.Dice); err != nil {
			errs = append(errs, fmt.Errorf("damage: %w", err))
		}
	}
	if a.Healing != nil && a.Healing.Dice != "" {
		if _, err := dice.Parse(a.Healing.Dice); err != nil {
			errs = append(errs, fmt.Errorf("healing: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("action %q validation failed: %w", a.ID, errors.Join(errs...))
	}
	return nil
}

// Unarmed returns the strike every combatant can fall back on.
func Unarmed() Action {
	return Action{
		Kind:               KindAttack,
		ID:                 "unarmed",
		Name:               "Unarmed Strike",
		Damage:             DamageSpec{Dice: "1d4"},
		Range:              MeleeRange,
		Projectiles:        1,
		RequiresAttackRoll: true,
		Attack:             &AttackPayload{Ability: AbilityStrength},
	}
}
