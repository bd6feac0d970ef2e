package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int { return f.v % n }

type stubView struct {
	combatants map[string]*scripting.CombatantInfo
}

func (s stubView) Combatant(id string) (*scripting.CombatantInfo, bool) {
	c, ok := s.combatants[id]
	return c, ok
}

func (s stubView) Enemies(id string) []string {
	var out []string
	self := s.combatants[id]
	for _, key := range []string{"hero", "goblin"} {
		c := s.combatants[key]
		if self != nil && c.Team != self.Team {
			out = append(out, c.ID)
		}
	}
	return out
}

func (s stubView) Allies(string) []string { return nil }

func testView() stubView {
	return stubView{combatants: map[string]*scripting.CombatantInfo{
		"hero":   {ID: "hero", Name: "Hero", Team: "friendly", HP: 5, MaxHP: 20, AC: 14, X: 1, Y: 2},
		"goblin": {ID: "goblin", Name: "Goblin", Team: "hostile", HP: 7, MaxHP: 7, AC: 12, X: 4, Y: 3, Conditions: []string{"slowed"}},
	}}
}

func writeTempLua(t *testing.T, name, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	return dir
}

func newTestManager(t *testing.T) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	return scripting.NewManager(dice.NewLoggedRoller(fixedSrc{v: 3}, logger), logger), logs
}

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L, cancel := scripting.NewSandboxedState(0)
	defer cancel()
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
	assert.NoError(t, L.DoString(`assert(math.sqrt(4) == 2.0); assert(string.upper("a") == "A")`))
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(rt, "limit")
		L, cancel := scripting.NewSandboxedState(limit)
		defer cancel()
		defer L.Close()
		if err := L.DoString(`while true do end`); err == nil {
			rt.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}

func TestCallHook_ScopeAndGlobalFallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadGlobal(writeTempLua(t, "g.lua", `function shared() return "global" end`), 0))
	require.NoError(t, mgr.LoadScope("brute", writeTempLua(t, "b.lua", `function own() return "brute" end`), 0))

	ret, err := mgr.CallHook("brute", "own")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("brute"), ret)

	ret, err = mgr.CallHook("unknown_scope", "shared")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("global"), ret)

	ret, err = mgr.CallHook("brute", "missing")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, mgr.HasHook("brute", "own"))
	assert.False(t, mgr.HasHook("brute", "missing"))
	mgr.Close()
}

func TestCallHook_NoVM(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.CallHook("nowhere", "anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: no VM for scope").Len())
}

func TestCallHook_RuntimeErrorIsSwallowed(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadScope("s", writeTempLua(t, "e.lua", `
		function boom() error("kaboom") end
		function spin() while true do end end
		function ok() return true end
	`), 1000))
	ret, err := mgr.CallHook("s", "boom")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)

	ret, err = mgr.CallHook("s", "spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 2, logs.FilterMessage("scripting: Lua runtime error").Len())

	ret, err = mgr.CallHook("s", "ok")
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret, "budget is re-armed per call")
}

func TestCallHook_BudgetIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadScope("s", writeTempLua(t, "c.lua", `
		function count() local n = 0; for i = 1, 50 do n = n + i end; return n end
	`), 2000))
	for i := 0; i < 100; i++ {
		ret, err := mgr.CallHook("s", "count")
		require.NoError(t, err)
		require.Equal(t, lua.LNumber(1275), ret)
	}
}

func TestLoadScope_Errors(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadScope("", t.TempDir(), 0))
	assert.Error(t, mgr.LoadScope("s", filepath.Join(t.TempDir(), "missing"), 0))
	assert.Error(t, mgr.LoadScope("s", writeTempLua(t, "bad.lua", `function (`), 0))
}

func TestEngineModules_Combat(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadScope("s", writeTempLua(t, "c.lua", `
		function wounded_enemy(self)
			for _, id in ipairs(engine.combat.enemies(self)) do
				if engine.combat.hp_percent(id) < 50 then return true end
			end
			return false
		end
		function reach(a, b) return engine.combat.distance(a, b) end
		function slowed(id)
			local c = engine.combat.get(id)
			if c == nil then return "none" end
			return c.conditions[1] or "clear"
		end
	`), 0))

	release := mgr.Bind(testView())
	ret, _ := mgr.CallHook("s", "wounded_enemy", lua.LString("goblin"))
	assert.Equal(t, lua.LTrue, ret)
	ret, _ = mgr.CallHook("s", "wounded_enemy", lua.LString("hero"))
	assert.Equal(t, lua.LFalse, ret)
	ret, _ = mgr.CallHook("s", "reach", lua.LString("hero"), lua.LString("goblin"))
	assert.Equal(t, lua.LNumber(3), ret)
	ret, _ = mgr.CallHook("s", "slowed", lua.LString("goblin"))
	assert.Equal(t, lua.LString("slowed"), ret)
	release()

	ret, _ = mgr.CallHook("s", "slowed", lua.LString("goblin"))
	assert.Equal(t, lua.LString("none"), ret, "unbound view hides combatants")
}

func TestEngineModules_DiceAndLog(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadScope("s", writeTempLua(t, "d.lua", `
		function roll() local r = engine.dice.roll("2d6+1"); return r.total end
		function bad() local r, err = engine.dice.roll("nope"); return err ~= nil end
		function shout() engine.log.warn("from lua") end
	`), 0))
	ret, _ := mgr.CallHook("s", "roll")
	assert.Equal(t, lua.LNumber(9), ret)
	ret, _ = mgr.CallHook("s", "bad")
	assert.Equal(t, lua.LTrue, ret)
	_, _ = mgr.CallHook("s", "shout")
	assert.Equal(t, 1, logs.FilterMessage("from lua").Len())
}

func TestBind_Exclusive(t *testing.T) {
	mgr, _ := newTestManager(t)
	release := mgr.Bind(testView())
	var wg sync.WaitGroup
	acquired := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		r := mgr.Bind(testView())
		close(acquired)
		r()
	}()
	select {
	case <-acquired:
		t.Fatal("second Bind must wait for release")
	default:
	}
	release()
	wg.Wait()
	<-acquired
}
