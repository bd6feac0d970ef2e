package action

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Default reach in grid cells.
const (
	MeleeRange  = 1
	RangedRange = 6
	SpellRange  = 6
)

// ErrNotFound is returned when an action id is in neither catalog.
var ErrNotFound = errors.New("action not found")

// WeaponDef defines the static properties of a weapon loaded from YAML.
type WeaponDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	DamageDice  string `yaml:"damage_dice"`
	DamageBonus int    `yaml:"damage_bonus"`
	Ranged      bool   `yaml:"ranged"`
	Finesse     bool   `yaml:"finesse"`
	Range       int    `yaml:"range"` // 0 = default for melee/ranged
	Projectiles int    `yaml:"projectiles"`
}

// Validate checks that the WeaponDef satisfies its invariants.
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (w *WeaponDef) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if w.DamageDice == "" {
		errs = append(errs, errors.New("DamageDice must not be empty"))
	}
	if w.Range < 0 || w.Projectiles < 0 {
		errs = append(errs, errors.New("range and projectiles must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}
	return nil
}

// ToAction converts the weapon into an attack Action. Ranged and finesse
// weapons use dexterity; everything else strength.
func (w *WeaponDef) ToAction() Action {
	ability := AbilityStrength
	if w.Ranged || w.Finesse {
		ability = AbilityDexterity
	}
	rng := w.Range
	if rng == 0 {
		rng = MeleeRange
		if w.Ranged {
			rng = RangedRange
		}
	}
	return Action{
		Kind:               KindAttack,
		ID:                 w.ID,
		Name:               w.Name,
		Damage:             DamageSpec{Dice: w.DamageDice, Bonus: w.DamageBonus},
		Range:              rng,
		Projectiles:        max(w.Projectiles, 1),
		RequiresAttackRoll: true,
		Attack:             &AttackPayload{Ability: ability, Ranged: w.Ranged},
	}
}

// SpellDef defines a spell loaded from YAML.
type SpellDef struct {
	ID                 string       `yaml:"id"`
	Name               string       `yaml:"name"`
	Level              int          `yaml:"level"`
	DamageDice         string       `yaml:"damage_dice"`
	DamageBonus        int          `yaml:"damage_bonus"`
	HealingDice        string       `yaml:"healing_dice"`
	HealingBonus       int          `yaml:"healing_bonus"`
	Range              int          `yaml:"range"`
	RequiresAttackRoll bool         `yaml:"requires_attack_roll"`
	AreaOfEffect       bool         `yaml:"area_of_effect"`
	AreaRadius         int          `yaml:"area_radius"`
	Projectiles        int          `yaml:"projectiles"`
	ValidTargets       []TargetKind `yaml:"valid_targets"`
	Condition          string       `yaml:"condition"`
	ConditionStacks    int          `yaml:"condition_stacks"`
	ConditionDuration  int          `yaml:"condition_duration"`
}

// Validate checks that the SpellDef satisfies its invariants.
// Precondition: s is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (s *SpellDef) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if s.Level < 0 || s.Level > 9 {
		errs = append(errs, fmt.Errorf("level %d out of range 0..9", s.Level))
	}
	if s.DamageDice == "" && s.HealingDice == "" && s.Condition == "" {
		errs = append(errs, errors.New("spell must deal damage, heal, or apply a condition"))
	}
	for _, t := range s.ValidTargets {
		switch t {
		case TargetSelf, TargetAlly, TargetEnemy, TargetArea:
		default:
			errs = append(errs, fmt.Errorf("unknown target kind %q", t))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("spell validation failed: %v", errs)
	}
	return nil
}

// ToAction converts the spell into a spell Action.
func (s *SpellDef) ToAction() Action {
	rng := s.Range
	if rng == 0 {
		rng = SpellRange
	}
	a := Action{
		Kind:               KindSpell,
		ID:                 s.ID,
		Name:               s.Name,
		Damage:             DamageSpec{Dice: s.DamageDice, Bonus: s.DamageBonus},
		Range:              rng,
		Projectiles:        max(s.Projectiles, 1),
		RequiresAttackRoll: s.RequiresAttackRoll,
		AreaOfEffect:       s.AreaOfEffect,
		AreaRadius:         s.AreaRadius,
		Spell: &SpellPayload{
			Level:        s.Level,
			ValidTargets: append([]TargetKind(nil), s.ValidTargets...),
		},
	}
	if s.HealingDice != "" {
		a.Healing = &DamageSpec{Dice: s.HealingDice, Bonus: s.HealingBonus}
	}
	if s.Condition != "" {
		a.Spell.Effect = &EffectSpec{
			Condition: s.Condition,
			Stacks:    max(s.ConditionStacks, 1),
			Duration:  s.ConditionDuration,
		}
	}
	return a
}

// LoadWeapons reads all *.yaml files from dir and returns the validated WeaponDefs.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid WeaponDefs or the first encountered error.
func LoadWeapons(dir string) ([]*WeaponDef, error) {
	var out []*WeaponDef
	err := eachYAML(dir, func(path string, data []byte) error {
		var w WeaponDef
		if err := yaml.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("cannot parse file %q: %w", path, err)
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("invalid weapon in %q: %w", path, err)
		}
		out = append(out, &w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadWeapons: %w", err)
	}
	return out, nil
}

// LoadSpells reads all *.yaml files from dir and returns the validated SpellDefs.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid SpellDefs or the first encountered error.
func LoadSpells(dir string) ([]*SpellDef, error) {
	var out []*SpellDef
	err := eachYAML(dir, func(path string, data []byte) error {
		var s SpellDef
		if err := yaml.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("cannot parse file %q: %w", path, err)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid spell in %q: %w", path, err)
		}
		out = append(out, &s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadSpells: %w", err)
	}
	return out, nil
}

func eachYAML(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read directory %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read file %q: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return err
		}
	}
	return nil
}

// Arsenal indexes weapon and spell definitions by ID.
type Arsenal struct {
	weapons map[string]*WeaponDef
	spells  map[string]*SpellDef
}

// NewArsenal builds an Arsenal. IDs must be unique across both kinds.
//
// Postcondition: returns a non-nil Arsenal or an error naming the duplicate ID.
func NewArsenal(weapons []*WeaponDef, spells []*SpellDef) (*Arsenal, error) {
	a := &Arsenal{
		weapons: make(map[string]*WeaponDef, len(weapons)),
		spells:  make(map[string]*SpellDef, len(spells)),
	}
	for _, w := range weapons {
		if _, dup := a.weapons[w.ID]; dup {
			return nil, fmt.Errorf("duplicate weapon id %q", w.ID)
		}
		a.weapons[w.ID] = w
	}
	for _, s := range spells {
		if _, dup := a.weapons[s.ID]; dup {
			return nil, fmt.Errorf("spell id %q collides with a weapon", s.ID)
		}
		if _, dup := a.spells[s.ID]; dup {
			return nil, fmt.Errorf("duplicate spell id %q", s.ID)
		}
		a.spells[s.ID] = s
	}
	return a, nil
}

// Weapon returns the WeaponDef for id.
func (a *Arsenal) Weapon(id string) (*WeaponDef, bool) {
	w, ok := a.weapons[id]
	return w, ok
}

// Spell returns the SpellDef for id.
func (a *Arsenal) Spell(id string) (*SpellDef, bool) {
	s, ok := a.spells[id]
	return s, ok
}

// Action resolves id against weapons first, then spells.
//
// Postcondition: err wraps ErrNotFound when id is unknown.
func (a *Arsenal) Action(id string) (Action, error) {
	if w, ok := a.weapons[id]; ok {
		return w.ToAction(), nil
	}
	if s, ok := a.spells[id]; ok {
		return s.ToAction(), nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// Actions resolves every id, in order.
func (a *Arsenal) Actions(ids []string) ([]Action, error) {
	out := make([]Action, 0, len(ids))
	for _, id := range ids {
		act, err := a.Action(id)
		if err != nil {
			return nil, err
		}
		out = append(out, act)
	}
	return out, nil
}

// IDs returns every known weapon and spell ID in sorted order.
func (a *Arsenal) IDs() []string {
	ids := make([]string, 0, len(a.weapons)+len(a.spells))
	for id := range a.weapons {
		ids = append(ids, id)
	}
	for id := range a.spells {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
