package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// GlobalScope is the scope condition tick scripts load into. CallHook falls
// back to it when a scope has no VM of its own.
const GlobalScope = "global"

// ErrBadReturn is returned by OnTick when a tick script returns a non-number.
var ErrBadReturn = errors.New("scripting: tick hook must return a number or nil")

type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per scope and exposes hook dispatch.
//
// Manager is safe for concurrent use after all Load calls complete. Calls into
// the same scope are serialized; different scopes run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	rollMu sync.Mutex
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scopes loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order. Loading
// a scope again replaces its VM.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: returns error on read or Lua load failure, leaving any previous VM in place.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.installEngine(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, scope, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		release := withBudget(L, instLimit)
		err := L.DoFile(path)
		release()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.vms[scope]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.vms[scope] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	m.logger.Info("scripts loaded", zap.String("scope", scope), zap.Int("files", len(luaFiles)))
	return nil
}

// LoadGlobal loads scriptDir into GlobalScope.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.LoadScope(GlobalScope, scriptDir, instLimit)
}

// Scopes returns the loaded scope names, sorted.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vms))
	for k := range m.vms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) lookup(scope string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[scope]; ok {
		return v
	}
	return m.vms[GlobalScope]
}

// Call runs the named Lua global function in scope's VM, falling back to the
// global VM. A missing VM or hook yields (LNil, nil).
//
// Postcondition: Lua runtime errors, including an exhausted instruction
// budget, are returned.
func (m *Manager) Call(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	v := m.lookup(scope)
	if v == nil {
		return lua.LNil, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	release := withBudget(v.L, v.limit)
	defer release()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, fmt.Errorf("scripting: %s/%s: %w", scope, hook, err)
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// CallHook is the lenient form of Call: a missing VM is logged at Info, Lua
// runtime errors are logged at Warn, and neither is propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	if m.lookup(scope) == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	ret, err := m.Call(scope, hook, args...)
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// ScopeCaller binds a Manager to one scope. It satisfies ai.ScriptCaller.
type ScopeCaller struct {
	m     *Manager
	scope string
}

// Caller returns a ScopeCaller for scope.
func (m *Manager) Caller(scope string) ScopeCaller {
	return ScopeCaller{m: m, scope: scope}
}

// CallHook calls hook in the bound scope. See Manager.CallHook.
func (c ScopeCaller) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	return c.m.CallHook(c.scope, hook, args...)
}

// OnTick runs a condition's per-round hook in the global scope with
// (combatant, hp, max_hp, round). A number result is extra damage, negative
// numbers heal; nil means nothing happens.
//
// Postcondition: runtime errors and non-number results are returned as errors.
func (m *Manager) OnTick(hook, combatant string, hp, maxHP, round int) (int, error) {
	ret, err := m.Call(GlobalScope, hook,
		lua.LString(combatant), lua.LNumber(hp), lua.LNumber(maxHP), lua.LNumber(round))
	if err != nil {
		return 0, err
	}
	switch v := ret.(type) {
	case *lua.LNilType:
		return 0, nil
	case lua.LNumber:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: %s returned %s", ErrBadReturn, hook, ret.Type())
	}
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.vms, k)
	}
}
