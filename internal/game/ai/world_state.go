package ai

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// CombatantState captures a combatant's state at planning time.
type CombatantState struct {
	ID         string
	Name       string
	Team       combat.Team
	HP         int
	MaxHP      int
	AC         int
	Position   grid.Position
	Conditions []string
	Dead       bool
}

// HPPercent returns current HP as a percentage of MaxHP; 0 if MaxHP == 0.
func (c *CombatantState) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP) * 100
}

// WorldState is the snapshot handed to deciders for one acting combatant.
//
// Invariant: Self must not be nil and must also appear in Combatants.
type WorldState struct {
	Self       *CombatantState
	Round      int
	Combatants []*CombatantState
}

// BuildWorldState snapshots roster from selfID's point of view.
//
// Postcondition: Returns nil if selfID is not in roster.
func BuildWorldState(roster []*combat.Combatant, selfID string, round int) *WorldState {
	ws := &WorldState{Round: round}
	for _, c := range roster {
		cs := &CombatantState{
			ID:       c.ID,
			Name:     c.Name,
			Team:     c.Team,
			HP:       c.CurrentHP,
			MaxHP:    c.MaxHP,
			AC:       c.AC,
			Position: c.Position,
			Dead:     c.IsDead(),
		}
		if c.Conditions != nil {
			cs.Conditions = c.Conditions.IDs()
		}
		ws.Combatants = append(ws.Combatants, cs)
		if c.ID == selfID {
			ws.Self = cs
		}
	}
	if ws.Self == nil {
		return nil
	}
	return ws
}

// Get returns the combatant with id.
func (ws *WorldState) Get(id string) (*CombatantState, bool) {
	for _, c := range ws.Combatants {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// EnemiesOf returns all living combatants on the other team from id,
// nearest first; ties keep roster order.
//
// Postcondition: returned slice contains no dead combatants and no teammates.
func (ws *WorldState) EnemiesOf(id string) []*CombatantState {
	self, ok := ws.Get(id)
	if !ok {
		return nil
	}
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if !c.Dead && c.Team != self.Team {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return grid.Distance(self.Position, out[i].Position) < grid.Distance(self.Position, out[j].Position)
	})
	return out
}

// AlliesOf returns all living teammates of id, excluding id itself.
func (ws *WorldState) AlliesOf(id string) []*CombatantState {
	self, ok := ws.Get(id)
	if !ok {
		return nil
	}
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if !c.Dead && c.ID != id && c.Team == self.Team {
			out = append(out, c)
		}
	}
	return out
}

// NearestEnemy returns the closest living enemy by grid distance, or nil.
func (ws *WorldState) NearestEnemy() *CombatantState {
	enemies := ws.EnemiesOf(ws.Self.ID)
	if len(enemies) == 0 {
		return nil
	}
	return enemies[0]
}

// WeakestEnemy returns the living enemy with the lowest HP percentage, or nil.
//
// Postcondition: ties are broken by distance, then roster order.
func (ws *WorldState) WeakestEnemy() *CombatantState {
	return weakest(ws.EnemiesOf(ws.Self.ID))
}

// WeakestAlly returns the living teammate (self included) with the lowest HP
// percentage, or nil.
func (ws *WorldState) WeakestAlly() *CombatantState {
	return weakest(append([]*CombatantState{ws.Self}, ws.AlliesOf(ws.Self.ID)...))
}

func weakest(cs []*CombatantState) *CombatantState {
	if len(cs) == 0 {
		return nil
	}
	w := cs[0]
	for _, c := range cs[1:] {
		if c.HPPercent() < w.HPPercent() {
			w = c
		}
	}
	return w
}

// ResolveTarget maps a target token to a combatant ID.
//
// Postcondition: "nearest_enemy", "weakest_enemy", "weakest_ally" and "self"
// are resolved to IDs; unknown tokens are returned as-is; empty string is
// returned when the token names nobody.
func (ws *WorldState) ResolveTarget(token string) string {
	var c *CombatantState
	switch token {
	case "nearest_enemy":
		c = ws.NearestEnemy()
	case "weakest_enemy":
		c = ws.WeakestEnemy()
	case "weakest_ally":
		c = ws.WeakestAlly()
	case "self":
		c = ws.Self
	default:
		return token
	}
	if c == nil {
		return ""
	}
	return c.ID
}

// scriptView adapts a WorldState to scripting.CombatView.
type scriptView struct{ ws *WorldState }

func (v scriptView) Combatant(id string) (*scripting.CombatantInfo, bool) {
	c, ok := v.ws.Get(id)
	if !ok {
		return nil, false
	}
	return &scripting.CombatantInfo{
		ID:         c.ID,
		Name:       c.Name,
		Team:       c.Team.String(),
		HP:         c.HP,
		MaxHP:      c.MaxHP,
		AC:         c.AC,
		X:          c.Position.X,
		Y:          c.Position.Y,
		Conditions: c.Conditions,
	}, true
}

func (v scriptView) Enemies(id string) []string { return ids(v.ws.EnemiesOf(id)) }
func (v scriptView) Allies(id string) []string  { return ids(v.ws.AlliesOf(id)) }

func ids(cs []*CombatantState) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}
