package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

// Manager owns one sandboxed LState bound to an editor session. Every run
// gets a fresh instruction budget.
//
// Manager serializes all script execution, so the session sees one mutation
// at a time.
type Manager struct {
	mu      sync.Mutex
	L       *lua.LState
	cancel  context.CancelFunc
	session *mapper.Session
	logger  *zap.Logger
	limit   int
}

// NewManager creates a Manager with the map and log modules registered.
//
// Precondition: session and logger must be non-nil.
// Postcondition: Returns a non-nil Manager; the caller must call Close.
func NewManager(session *mapper.Session, logger *zap.Logger, instLimit int) *Manager {
	if session == nil {
		panic("scripting.NewManager: session must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	L, cancel := NewSandboxedState(context.Background(), instLimit)
	m := &Manager{
		L:       L,
		cancel:  cancel,
		session: session,
		logger:  logger,
		limit:   instLimit,
	}
	m.RegisterModules(L)
	return m
}

// withBudget runs fn with a fresh instruction budget tied to ctx. Running out
// of budget is reported as ErrInstructionLimit.
func (m *Manager) withBudget(ctx context.Context, fn func() error) error {
	b, cancel := newBudget(ctx, m.limit)
	defer cancel()
	m.L.SetContext(b)
	defer m.L.RemoveContext()
	if err := fn(); err != nil {
		if b.Exhausted() {
			return fmt.Errorf("%w (%d opcodes)", ErrInstructionLimit, m.limit)
		}
		return err
	}
	return nil
}

// Run executes src as a chunk named name.
//
// Postcondition: Returns nil, or an error for syntax errors, runtime errors,
// an exhausted instruction budget, or a cancelled ctx.
func (m *Manager) Run(ctx context.Context, name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.L == nil {
		return fmt.Errorf("scripting: running %q: manager is closed", name)
	}
	err := m.withBudget(ctx, func() error {
		fn, err := m.L.LoadString(src)
		if err != nil {
			return err
		}
		m.L.Push(fn)
		return m.L.PCall(0, lua.MultRet, nil)
	})
	if err != nil {
		return fmt.Errorf("scripting: running %q: %w", name, err)
	}
	m.logger.Debug("script finished", zap.String("script", name))
	return nil
}

// RunFile executes the Lua file at path.
func (m *Manager) RunFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return m.Run(ctx, filepath.Base(path), string(src))
}

// LoadDir executes every *.lua file in dir in lexicographic order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the first load or runtime error encountered.
func (m *Manager) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := m.RunFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the
// hook is not defined. Lua runtime errors are logged at Warn level and never
// propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(ctx context.Context, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.L == nil {
		return lua.LNil, nil
	}
	fn := m.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	var ret lua.LValue = lua.LNil
	err := m.withBudget(ctx, func() error {
		if err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = m.L.Get(-1)
		m.L.Pop(1)
		return nil
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// Close releases the Lua state. Later calls to CallHook return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return
	}
	m.cancel()
	m.L.Close()
	m.L = nil
}
