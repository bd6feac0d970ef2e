package npc

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// HostileGroup asks for Count hostiles of template Type.
type HostileGroup struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

// TemplateNotFoundError reports a hostile group naming an unknown template.
type TemplateNotFoundError struct {
	Type string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("hostile template %q not found", e.Type)
}

// Unwrap lets errors.Is match combat.ErrUnknownHostileType.
func (e *TemplateNotFoundError) Unwrap() error { return combat.ErrUnknownHostileType }

// InstanceID returns the combatant id of the index-th hostile of a type.
func InstanceID(templateID string, index int) string {
	return fmt.Sprintf("enemy:%s:%d", templateID, index)
}

// Spawner instantiates hostile combatants from templates.
type Spawner struct {
	catalog *Catalog
	arsenal *action.Arsenal
	logger  *zap.Logger
}

// NewSpawner creates a Spawner.
//
// Precondition: catalog and logger must be non-nil; arsenal may be nil when
// no template references shared weapons or spells.
func NewSpawner(catalog *Catalog, arsenal *action.Arsenal, logger *zap.Logger) *Spawner {
	return &Spawner{catalog: catalog, arsenal: arsenal, logger: logger}
}

// Spawn creates every hostile of groups on g. Groups naming an unknown
// template are logged as warnings and skipped. positions overrides default
// placement by combatant id; an id no group produces is logged and ignored.
// taken lists cells already claimed by the party.
//
// Postcondition: Returns at least one combatant, or an error wrapping
// combat.ErrInvalidEncounterDefinition.
func (s *Spawner) Spawn(groups []HostileGroup, g grid.Grid, positions map[string]grid.Position, taken []grid.Position) ([]*combat.Combatant, error) {
	type pending struct {
		tmpl  *Template
		index int
		count int
	}
	var (
		queue   []pending
		skipped []error
		perType = make(map[string]int)
	)
	for _, grp := range groups {
		if grp.Count < 1 {
			skipped = append(skipped, fmt.Errorf("hostile group %q: count must be >= 1", grp.Type))
			continue
		}
		tmpl, ok := s.catalog.Get(grp.Type)
		if !ok {
			err := &TemplateNotFoundError{Type: grp.Type}
			s.logger.Warn("skipping hostile group",
				zap.String("type", grp.Type),
				zap.Int("count", grp.Count),
				zap.Error(err),
			)
			skipped = append(skipped, err)
			continue
		}
		for i := 0; i < grp.Count; i++ {
			queue = append(queue, pending{tmpl: tmpl, index: perType[grp.Type], count: grp.Count})
			perType[grp.Type]++
		}
	}
	if len(queue) == 0 {
		if len(skipped) == 0 {
			return nil, fmt.Errorf("no hostiles defined: %w", combat.ErrInvalidEncounterDefinition)
		}
		return nil, fmt.Errorf("%w: %w", combat.ErrInvalidEncounterDefinition, errors.Join(skipped...))
	}

	occupied := make(map[grid.Position]bool, len(taken)+len(queue))
	for _, p := range taken {
		occupied[p] = true
	}
	spawned := make(map[string]bool, len(queue))
	for _, p := range queue {
		spawned[InstanceID(p.tmpl.ID, p.index)] = true
	}
	for id, p := range positions {
		if !spawned[id] {
			s.logger.Warn("ignoring position for unknown hostile",
				zap.String("id", id),
				zap.Stringer("position", p),
			)
			continue
		}
		occupied[p] = true
	}

	out := make([]*combat.Combatant, 0, len(queue))
	for i, p := range queue {
		c, err := s.instantiate(p.tmpl, p.index, p.count)
		if err != nil {
			return nil, fmt.Errorf("spawning %q: %w: %w", p.tmpl.ID, combat.ErrInvalidEncounterDefinition, err)
		}
		if pos, ok := positions[c.ID]; ok {
			c.Position = pos
		} else {
			pos, ok := freeCell(g, DefaultPosition(i, len(queue), g), occupied)
			if !ok {
				return nil, fmt.Errorf("no free cell for %q: %w", c.ID, combat.ErrInvalidEncounterDefinition)
			}
			c.Position = pos
			occupied[pos] = true
		}
		out = append(out, c)
	}
	s.logger.Debug("hostiles spawned", zap.Int("count", len(out)), zap.Int("skipped_groups", len(skipped)))
	return out, nil
}

func (s *Spawner) instantiate(tmpl *Template, index, count int) (*combat.Combatant, error) {
	name := tmpl.Name
	if count > 1 {
		name = fmt.Sprintf("%s %d", tmpl.Name, index+1)
	}
	var actions []action.Action
	for _, a := range tmpl.Attacks {
		actions = append(actions, a.ToAction())
	}
	if refs := append(append([]string(nil), tmpl.Weapons...), tmpl.Spells...); len(refs) > 0 {
		if s.arsenal == nil {
			return nil, fmt.Errorf("template references weapons or spells but no arsenal is loaded")
		}
		more, err := s.arsenal.Actions(refs)
		if err != nil {
			return nil, err
		}
		actions = append(actions, more...)
	}
	if len(actions) == 0 {
		actions = append(actions, action.Unarmed())
	}
	var slots *combat.SpellSlots
	if len(tmpl.SpellSlots) > 0 {
		slots = combat.NewSpellSlots(tmpl.SpellSlots)
	}
	return &combat.Combatant{
		ID:           InstanceID(tmpl.ID, index),
		Name:         name,
		Kind:         combat.KindHostile,
		Team:         combat.TeamHostile,
		Level:        tmpl.Level,
		MaxHP:        tmpl.MaxHP,
		CurrentHP:    tmpl.MaxHP,
		AC:           tmpl.AC,
		Abilities:    tmpl.Abilities,
		Actions:      actions,
		Slots:        slots,
		SpellAbility: tmpl.SpellAbility,
		TemplateID:   tmpl.ID,
		AIDomain:     tmpl.AIDomain,
	}, nil
}

// DefaultPosition places the index-th of total hostiles on the right side
// of g: a single hostile stands centred there; several fill rows from the
// second row down.
func DefaultPosition(index, total int, g grid.Grid) grid.Position {
	startX := g.Width * 6 / 10
	avail := max(g.Width-startX, 1)
	if total <= 1 {
		return grid.Position{X: startX + avail/2, Y: g.Height / 2}
	}
	perRow := min(avail, total)
	row, col := index/perRow, index%perRow
	y := min(max(row+1, 1), g.Height-2)
	return grid.Position{X: startX + col, Y: max(y, 0)}
}

// freeCell returns want if free, otherwise the nearest free in-bounds cell,
// preferring the right-hand columns.
func freeCell(g grid.Grid, want grid.Position, occupied map[grid.Position]bool) (grid.Position, bool) {
	if g.InBounds(want) && !occupied[want] {
		return want, true
	}
	for r := 1; r < max(g.Width, g.Height); r++ {
		for x := g.Width - 1; x >= 0; x-- {
			for y := 0; y < g.Height; y++ {
				p := grid.Position{X: x, Y: y}
				if grid.Distance(p, want) == r && !occupied[p] {
					return p, true
				}
			}
		}
	}
	return grid.Position{}, false
}

// EncounterDifficulty scores groups as the sum of (max HP + AC) per hostile.
// Unknown templates score nothing.
func EncounterDifficulty(groups []HostileGroup, catalog *Catalog) int {
	total := 0
	for _, grp := range groups {
		if t, ok := catalog.Get(grp.Type); ok {
			total += (t.MaxHP + t.AC) * grp.Count
		}
	}
	return total
}
