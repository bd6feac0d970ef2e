package combat_test

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// faces replays die faces: each Intn(n) call yields the next face, 1-based.
type faces struct {
	vals []int
	i    int
}

func (f *faces) Intn(n int) int {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return (v - 1) % n
}

func newResolver(src dice.Source, conds *condition.Registry) *combat.Resolver {
	return combat.NewResolver(dice.NewLoggedRoller(src, zap.NewNop()), conds, zap.NewNop())
}

func shortsword() action.Action {
	return action.Action{
		Kind:               action.KindAttack,
		ID:                 "shortsword",
		Name:               "Shortsword",
		Damage:             action.DamageSpec{Dice: "1d6", Bonus: 2},
		Range:              1,
		Projectiles:        1,
		RequiresAttackRoll: true,
		Attack:             &action.AttackPayload{Ability: action.AbilityStrength},
	}
}

func firebolt() action.Action {
	return action.Action{
		Kind:               action.KindSpell,
		ID:                 "firebolt",
		Name:               "Fire Bolt",
		Damage:             action.DamageSpec{Dice: "1d10"},
		Range:              6,
		Projectiles:        1,
		RequiresAttackRoll: true,
		Spell:              &action.SpellPayload{Level: 0, ValidTargets: []action.TargetKind{action.TargetEnemy}},
	}
}

func scorchingRay() action.Action {
	return action.Action{
		Kind:               action.KindSpell,
		ID:                 "scorching_ray",
		Name:               "Scorching Ray",
		Damage:             action.DamageSpec{Dice: "2d6"},
		Range:              6,
		Projectiles:        2,
		RequiresAttackRoll: false,
		Spell:              &action.SpellPayload{Level: 2, ValidTargets: []action.TargetKind{action.TargetEnemy}},
	}
}

func fireball() action.Action {
	return action.Action{
		Kind:         action.KindSpell,
		ID:           "fireball",
		Name:         "Fireball",
		Damage:       action.DamageSpec{Dice: "2d6"},
		Range:        6,
		Projectiles:  1,
		AreaOfEffect: true,
		AreaRadius:   1,
		Spell:        &action.SpellPayload{Level: 3, ValidTargets: []action.TargetKind{action.TargetArea}},
	}
}

func healingWord() action.Action {
	return action.Action{
		Kind:        action.KindSpell,
		ID:          "healing_word",
		Name:        "Healing Word",
		Healing:     &action.DamageSpec{Dice: "1d4", Bonus: 2},
		Range:       6,
		Projectiles: 1,
		Spell:       &action.SpellPayload{Level: 1, ValidTargets: []action.TargetKind{action.TargetSelf, action.TargetAlly}},
	}
}

func hero(pos grid.Position) *combat.Combatant {
	return &combat.Combatant{
		ID: "hero", Name: "Hero", Kind: combat.KindControlled, Level: 1,
		MaxHP: 20, CurrentHP: 20, AC: 14,
		Abilities:    combat.Abilities{Str: 16, Dex: 14, Con: 12, Int: 16, Wis: 10, Cha: 8},
		Position:     pos,
		Actions:      []action.Action{shortsword(), firebolt(), scorchingRay(), fireball(), healingWord()},
		Slots:        combat.NewSpellSlots(map[int]int{1: 1, 3: 1}),
		SpellAbility: action.AbilityIntelligence,
	}
}

func goblin(id string, pos grid.Position) *combat.Combatant {
	return &combat.Combatant{
		ID: id, Name: "Goblin " + id, Kind: combat.KindHostile, Level: 1,
		MaxHP: 7, CurrentHP: 7, AC: 12,
		Abilities: combat.Abilities{Str: 8, Dex: 14, Con: 10, Int: 10, Wis: 8, Cha: 8},
		Position:  pos,
		Actions:   []action.Action{shortsword()},
	}
}

func ally(id string, pos grid.Position) *combat.Combatant {
	return &combat.Combatant{
		ID: id, Name: "Ally " + id, Kind: combat.KindAlly, Level: 1,
		MaxHP: 12, CurrentHP: 12, AC: 13,
		Abilities: combat.Abilities{Str: 12, Dex: 12, Con: 12, Int: 10, Wis: 10, Cha: 10},
		Position:  pos,
		Actions:   []action.Action{shortsword()},
	}
}

func mustRegistry(cs ...*combat.Combatant) *combat.Registry {
	reg := combat.NewRegistry(grid.Grid{Width: grid.DefaultWidth, Height: grid.DefaultHeight})
	for _, c := range cs {
		if err := reg.Add(c); err != nil {
			panic(err)
		}
	}
	return reg
}
