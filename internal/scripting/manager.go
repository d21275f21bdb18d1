package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/paradox/internal/game/geom"
	"github.com/cory-johannsen/paradox/internal/game/history"
)

// InputHook is the Lua global called once per frame to drive the live player.
const InputHook = "input"

// PlayerInfo is a snapshot of the live player passed to the input hook.
type PlayerInfo struct {
	Frame      history.Frame
	Position   geom.Vec
	Facing     geom.Vec
	PastSelves int
	// Confusion is the highest confusion among the past selves.
	Confusion float64
}

// Command is what the input hook asks of the simulation for one frame.
type Command struct {
	Move geom.Vec
	// Look is meaningful only when HasLook is set.
	Look    geom.Vec
	HasLook bool
	// Rewind asks for the live player to become a past self now.
	Rewind bool
	// Done ends the run.
	Done bool
}

type levelVM struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per level and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same level are
// serialized; different levels run concurrently.
type Manager struct {
	mu     sync.RWMutex
	levels map[string]*levelVM
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no levels loaded.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting: NewManager requires a logger")
	}
	return &Manager{
		levels: make(map[string]*levelVM),
		logger: logger,
	}
}

// LoadLevel creates a sandboxed VM for levelID, registers the engine module
// and executes the script at path. Loading a level again replaces its VM.
//
// Precondition: levelID must be non-empty.
// Postcondition: the level VM is registered; returns error on Lua load failure.
func (m *Manager) LoadLevel(levelID, path string, instLimit int) error {
	return m.load(levelID, instLimit, func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadLevelString is LoadLevel for an in-memory script.
func (m *Manager) LoadLevelString(levelID, src string, instLimit int) error {
	return m.load(levelID, instLimit, func(L *lua.LState) error { return L.DoString(src) })
}

func (m *Manager) load(levelID string, instLimit int, run func(*lua.LState) error) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, levelID)

	if err := withBudget(L, instLimit, func() error { return run(L) }); err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading script for level %q: %w", levelID, err)
	}

	m.mu.Lock()
	if old, ok := m.levels[levelID]; ok {
		old.mu.Lock()
		old.L.Close()
		old.L = nil
		old.mu.Unlock()
	}
	m.levels[levelID] = &levelVM{L: L, limit: instLimit}
	m.mu.Unlock()
	return nil
}

// Has reports whether levelID has a loaded script.
func (m *Manager) Has(levelID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.levels[levelID]
	return ok
}

func (m *Manager) vm(levelID string) *levelVM {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levels[levelID]
}

// CallHook calls the named Lua global function in levelID's VM. Returns
// (LNil, nil) if the hook is not defined or no VM exists. Lua runtime errors
// are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(levelID, hook string, args ...lua.LValue) (lua.LValue, error) {
	vm := m.vm(levelID)
	if vm == nil {
		m.logger.Info("scripting: no VM for level",
			zap.String("level_id", levelID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return m.call(vm, levelID, hook, args...), nil
}

// call runs hook with vm locked.
func (m *Manager) call(vm *levelVM, levelID, hook string, args ...lua.LValue) lua.LValue {
	if vm.L == nil {
		return lua.LNil
	}
	fn := vm.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil
	}

	err := withBudget(vm.L, vm.limit, func() error {
		return vm.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("level_id", levelID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := vm.L.Get(-1)
	vm.L.Pop(1)
	return ret
}

// Input calls the level's input hook with the frame number and a player
// table, and decodes the returned command table. A level without a script,
// without an input hook, or whose hook fails yields the zero Command.
//
// Postcondition: returns an error only when the hook returns something other
// than nil or a well-formed command table.
func (m *Manager) Input(levelID string, info PlayerInfo) (Command, error) {
	vm := m.vm(levelID)
	if vm == nil {
		return Command{}, nil
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.L == nil {
		return Command{}, nil
	}

	ret := m.call(vm, levelID, InputHook, lua.LNumber(info.Frame), playerTable(vm.L, info))
	cmd, err := toCommand(ret)
	if err != nil {
		return Command{}, fmt.Errorf("scripting: level %q frame %d: %w", levelID, info.Frame, err)
	}
	return cmd, nil
}

// Close releases every level VM.
//
// Postcondition: subsequent calls behave as if no level were loaded.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, vm := range m.levels {
		vm.mu.Lock()
		vm.L.Close()
		vm.L = nil
		vm.mu.Unlock()
		delete(m.levels, id)
	}
}

func playerTable(L *lua.LState, info PlayerInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("x", lua.LNumber(info.Position.X))
	t.RawSetString("y", lua.LNumber(info.Position.Y))
	t.RawSetString("facing_x", lua.LNumber(info.Facing.X))
	t.RawSetString("facing_y", lua.LNumber(info.Facing.Y))
	t.RawSetString("past_selves", lua.LNumber(info.PastSelves))
	t.RawSetString("confusion", lua.LNumber(info.Confusion))
	return t
}

func toCommand(v lua.LValue) (Command, error) {
	if v == lua.LNil {
		return Command{}, nil
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		return Command{}, fmt.Errorf("input hook returned %s, want table", v.Type())
	}

	var cmd Command
	var err error
	if cmd.Move, _, err = vecField(t, "move"); err != nil {
		return Command{}, err
	}
	if cmd.Look, cmd.HasLook, err = vecField(t, "look"); err != nil {
		return Command{}, err
	}
	cmd.Rewind = lua.LVAsBool(t.RawGetString("rewind"))
	cmd.Done = lua.LVAsBool(t.RawGetString("done"))
	return cmd, nil
}

// vecField decodes t[name] = {x = ..., y = ...}. Missing coordinates are 0.
func vecField(t *lua.LTable, name string) (geom.Vec, bool, error) {
	v := t.RawGetString(name)
	if v == lua.LNil {
		return geom.Vec{}, false, nil
	}
	vt, ok := v.(*lua.LTable)
	if !ok {
		return geom.Vec{}, false, fmt.Errorf("field %q is %s, want table", name, v.Type())
	}
	x, err := number(vt, "x")
	if err != nil {
		return geom.Vec{}, false, fmt.Errorf("field %q: %w", name, err)
	}
	y, err := number(vt, "y")
	if err != nil {
		return geom.Vec{}, false, fmt.Errorf("field %q: %w", name, err)
	}
	return geom.V(x, y), true, nil
}

func number(t *lua.LTable, key string) (float64, error) {
	switch v := t.RawGetString(key).(type) {
	case lua.LNumber:
		return float64(v), nil
	case *lua.LNilType:
		return 0, nil
	default:
		return 0, fmt.Errorf("%s is %s, want number", key, v.Type())
	}
}
