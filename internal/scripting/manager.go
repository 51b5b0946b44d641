package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
)

// Manager owns one sandboxed LState and exposes hook dispatch.
//
// The LState is single-threaded; the mutex serializes hook calls. Every load
// and every hook call runs under its own instruction budget.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	cancel    func()
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger

	// Notify delivers engine.notify messages. nil = logged only.
	Notify func(msg string)
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		roller: roller,
		logger: logger,
	}
}

// LoadDirectory creates a fresh VM, registers the engine.* modules, then
// executes every *.lua file in scriptDir in lexicographic order. A
// previously loaded VM is replaced.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: On error the previous VM, if any, stays in place.
func (m *Manager) LoadDirectory(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
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
		cancel = resetBudget(L, instLimit)
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	m.closeLocked()
	m.L = L
	m.cancel = cancel
	m.instLimit = instLimit
	m.mu.Unlock()

	m.logger.Info("scripts loaded", zap.String("dir", scriptDir), zap.Int("files", len(luaFiles)))
	return nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the
// hook is not defined or no scripts are loaded. Lua runtime errors, including
// an exhausted instruction budget, are logged at Warn level and never
// propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.CallHookWith(hook, func(*lua.LState) []lua.LValue { return args })
}

// CallHookWith is CallHook with arguments built on the VM's LState while the
// VM is held. Use it for table arguments.
//
// Precondition: build must be non-nil and must not call back into the Manager.
func (m *Manager) CallHookWith(hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.L == nil {
		m.logger.Debug("scripting: no scripts loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}

	fn := m.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = resetBudget(m.L, m.instLimit)

	if err := m.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, build(m.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// Close releases the VM. CallHook after Close is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}
