package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scoped VM is found.
const globalScope = "__global__"

// CombatantInfo is a snapshot of a combatant's state passed to Lua.
type CombatantInfo struct {
	ID         string
	Name       string
	Team       string // "friendly" or "hostile"
	HP         int
	MaxHP      int
	AC         int
	X, Y       int
	Conditions []string
}

// CombatView is the read-only battlefield exposed to scripts through the
// engine.combat module.
type CombatView interface {
	Combatant(id string) (*CombatantInfo, bool)
	// Enemies returns the living opponents of id, nearest first.
	Enemies(id string) []string
	// Allies returns the living teammates of id, excluding id.
	Allies(id string) []string
}

type vm struct {
	L     *lua.LState
	limit int
	// mu serialises use of L; an LState is single-threaded.
	mu sync.Mutex
}

// Manager owns one sandboxed LState per scope (an AI domain ID) and exposes
// hook dispatch.
//
// Manager is safe for concurrent use once all Load calls complete.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// bindMu is held between Bind and its release so one view is live at a time.
	bindMu sync.Mutex
	viewMu sync.RWMutex
	view   CombatView
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		states: make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: The VM is registered; returns error on Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	if scope == "" {
		return fmt.Errorf("scripting: scope must not be empty")
	}
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM used as a CallHook fallback from any scope.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: The global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range luaFiles {
		cancel()
		cancel = armLimit(L, instLimit)
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}
	cancel()
	L.RemoveContext()

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.L.Close()
	}
	m.states[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	m.logger.Debug("scripting: scope loaded", zap.String("scope", key), zap.Int("files", len(luaFiles)))
	return nil
}

// Bind makes view visible to engine.combat until release is called. Binds
// are exclusive: a second Bind blocks until the first is released.
//
// Postcondition: release must be called exactly once.
func (m *Manager) Bind(view CombatView) (release func()) {
	m.bindMu.Lock()
	m.viewMu.Lock()
	m.view = view
	m.viewMu.Unlock()
	return func() {
		m.viewMu.Lock()
		m.view = nil
		m.viewMu.Unlock()
		m.bindMu.Unlock()
	}
}

func (m *Manager) currentView() CombatView {
	m.viewMu.RLock()
	defer m.viewMu.RUnlock()
	return m.view
}

// HasHook reports whether hook is defined in scope's VM or the global VM.
func (m *Manager) HasHook(scope, hook string) bool {
	v := m.vmFor(scope)
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.L.GetGlobal(hook) != lua.LNil
}

func (m *Manager) vmFor(scope string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.states[scope]; ok {
		return v
	}
	return m.states[globalScope]
}

// CallHook calls the named Lua global function in scope's VM. If the scope
// has no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	v := m.vmFor(scope)
	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := armLimit(v.L, v.limit)
	defer func() {
		cancel()
		v.L.RemoveContext()
	}()

	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		v.L.SetTop(0)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close shuts down every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.L.Close()
		delete(m.states, key)
	}
}
