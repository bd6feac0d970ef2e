package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// RegisterModules registers the engine.log, engine.dice and engine.combat
// tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "combat", m.combatModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		fn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	// engine.dice.roll("2d6+1") -> {total=, dice={...}, modifier=} or nil, err
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		t := L.NewTable()
		t.RawSetString("total", lua.LNumber(res.Total()))
		t.RawSetString("modifier", lua.LNumber(res.Modifier))
		dice := L.NewTable()
		for _, d := range res.Dice {
			dice.Append(lua.LNumber(d))
		}
		t.RawSetString("dice", dice)
		L.Push(t)
		return 1
	}))
	return mod
}

func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()

	// engine.combat.get(id) -> table or nil
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		info, ok := m.lookup(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(infoTable(L, info))
		return 1
	}))

	// engine.combat.enemies(id) / allies(id) -> array of ids
	L.SetField(mod, "enemies", L.NewFunction(func(L *lua.LState) int {
		L.Push(m.idList(L, L.CheckString(1), CombatView.Enemies))
		return 1
	}))
	L.SetField(mod, "allies", L.NewFunction(func(L *lua.LState) int {
		L.Push(m.idList(L, L.CheckString(1), CombatView.Allies))
		return 1
	}))

	// engine.combat.distance(a, b) -> cells, or -1 if either is unknown
	L.SetField(mod, "distance", L.NewFunction(func(L *lua.LState) int {
		a, okA := m.lookup(L.CheckString(1))
		b, okB := m.lookup(L.CheckString(2))
		if !okA || !okB {
			L.Push(lua.LNumber(-1))
			return 1
		}
		d := grid.Distance(grid.Position{X: a.X, Y: a.Y}, grid.Position{X: b.X, Y: b.Y})
		L.Push(lua.LNumber(d))
		return 1
	}))

	// engine.combat.hp_percent(id) -> 0..100
	L.SetField(mod, "hp_percent", L.NewFunction(func(L *lua.LState) int {
		info, ok := m.lookup(L.CheckString(1))
		if !ok || info.MaxHP <= 0 {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(float64(info.HP) / float64(info.MaxHP) * 100))
		return 1
	}))
	return mod
}

func (m *Manager) lookup(id string) (*CombatantInfo, bool) {
	view := m.currentView()
	if view == nil {
		return nil, false
	}
	return view.Combatant(id)
}

func (m *Manager) idList(L *lua.LState, id string, fn func(CombatView, string) []string) *lua.LTable {
	t := L.NewTable()
	view := m.currentView()
	if view == nil {
		return t
	}
	for _, other := range fn(view, id) {
		t.Append(lua.LString(other))
	}
	return t
}

func infoTable(L *lua.LState, info *CombatantInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(info.ID))
	t.RawSetString("name", lua.LString(info.Name))
	t.RawSetString("team", lua.LString(info.Team))
	t.RawSetString("hp", lua.LNumber(info.HP))
	t.RawSetString("max_hp", lua.LNumber(info.MaxHP))
	t.RawSetString("ac", lua.LNumber(info.AC))
	t.RawSetString("x", lua.LNumber(info.X))
	t.RawSetString("y", lua.LNumber(info.Y))
	conds := L.NewTable()
	for _, c := range info.Conditions {
		conds.Append(lua.LString(c))
	}
	t.RawSetString("conditions", conds)
	return t
}
