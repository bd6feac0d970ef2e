package ai_test

import (
	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

func club() action.Action {
	return action.Action{
		Kind:               action.KindAttack,
		ID:                 "club",
		Name:               "Club",
		Damage:             action.DamageSpec{Dice: "1d4"},
		Range:              1,
		Projectiles:        1,
		RequiresAttackRoll: true,
		Attack:             &action.AttackPayload{Ability: action.AbilityStrength},
	}
}

func scorchingRay() action.Action {
	return action.Action{
		Kind:        action.KindSpell,
		ID:          "scorching_ray",
		Name:        "Scorching Ray",
		Damage:      action.DamageSpec{Dice: "2d6"},
		Range:       6,
		Projectiles: 2,
		Spell:       &action.SpellPayload{Level: 2, ValidTargets: []action.TargetKind{action.TargetEnemy}},
	}
}

func mend() action.Action {
	return action.Action{
		Kind:        action.KindSpell,
		ID:          "mend",
		Name:        "Mend",
		Healing:     &action.DamageSpec{Dice: "1d4", Bonus: 2},
		Range:       6,
		Projectiles: 1,
		Spell:       &action.SpellPayload{Level: 1, ValidTargets: []action.TargetKind{action.TargetSelf, action.TargetAlly}},
	}
}

func fighter(id string, kind combat.Kind, pos grid.Position, acts ...action.Action) *combat.Combatant {
	if len(acts) == 0 {
		acts = []action.Action{club()}
	}
	return &combat.Combatant{
		ID: id, Name: id, Kind: kind, Team: combat.TeamOf(kind), Level: 1,
		MaxHP: 10, CurrentHP: 10, AC: 12,
		Abilities: combat.Abilities{Str: 12, Dex: 12, Con: 12, Int: 12, Wis: 12, Cha: 12},
		Position:  pos,
		Actions:   acts,
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
