// Package npc provides hostile template definitions and spawns hostile
// combatants from encounter definitions.
package npc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// AttackDef is a natural attack declared inline on a template, with its
// to-hit bonus stated directly.
type AttackDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	AttackBonus int    `yaml:"attack_bonus"`
	DamageDice  string `yaml:"damage_dice"`
	DamageBonus int    `yaml:"damage_bonus"`
	Range       int    `yaml:"range"` // 0 = melee
	Projectiles int    `yaml:"projectiles"`
}

// ToAction converts the natural attack into an attack Action.
func (a AttackDef) ToAction() action.Action {
	bonus := a.AttackBonus
	rng := a.Range
	ranged := rng > action.MeleeRange
	if rng == 0 {
		rng = action.MeleeRange
	}
	ability := action.AbilityStrength
	if ranged {
		ability = action.AbilityDexterity
	}
	return action.Action{
		Kind:               action.KindAttack,
		ID:                 a.ID,
		Name:               a.Name,
		Damage:             action.DamageSpec{Dice: a.DamageDice, Bonus: a.DamageBonus},
		Range:              rng,
		Projectiles:        max(a.Projectiles, 1),
		RequiresAttackRoll: true,
		Attack:             &action.AttackPayload{Ability: ability, Ranged: ranged, FixedBonus: &bonus},
	}
}

// Template defines a reusable hostile archetype loaded from YAML.
type Template struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Level       int              `yaml:"level"`
	MaxHP       int              `yaml:"max_hp"`
	AC          int              `yaml:"ac"`
	Abilities   combat.Abilities `yaml:"abilities"`
	AIDomain    string           `yaml:"ai_domain"` // HTN domain ID; empty = nearest-target heuristic
	Attacks     []AttackDef      `yaml:"attacks"`
	// Weapons and Spells reference the shared weapon and spell catalogs by ID.
	Weapons      []string    `yaml:"weapons"`
	Spells       []string    `yaml:"spells"`
	SpellSlots   map[int]int `yaml:"spell_slots"`
	SpellAbility string      `yaml:"spell_ability"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, AC >= 1 and every inline attack is well formed.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("npc template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("npc template %q: max_hp must be >= 1", t.ID)
	}
	if t.AC < 1 {
		return fmt.Errorf("npc template %q: ac must be >= 1", t.ID)
	}
	if t.SpellAbility != "" && !action.ValidAbility(t.SpellAbility) {
		return fmt.Errorf("npc template %q: unknown spell_ability %q", t.ID, t.SpellAbility)
	}
	var errs []error
	for i, a := range t.Attacks {
		if a.ID == "" || a.Name == "" {
			errs = append(errs, fmt.Errorf("attack %d: id and name are required", i))
			continue
		}
		if _, err := dice.Parse(a.DamageDice); err != nil {
			errs = append(errs, fmt.Errorf("attack %q: %w", a.ID, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("npc template %q: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// LoadTemplateFromBytes parses a single hostile template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// HealthDescription returns a visible health state for current/max hit points.
//
// Postcondition: Returns a non-empty string.
func HealthDescription(current, maxHP int) string {
	if current <= 0 {
		return "dead"
	}
	pct := float64(current) / float64(maxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
