package scripting

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const spinScript = `
	function spin(n)
		local x = 0
		for i = 1, n do x = x + i end
		return x
	end
`

func callSpin(L *lua.LState, n int) error {
	return L.CallByParam(lua.P{Fn: L.GetGlobal("spin"), NRet: 1, Protect: true}, lua.LNumber(n))
}

func TestWithBudget_RefreshesEveryCall(t *testing.T) {
	const limit = 2000
	L := NewSandboxedState(limit)
	defer L.Close()
	require.NoError(t, withBudget(L, limit, func() error { return L.DoString(spinScript) }))

	// Each call fits the limit; together they exceed it many times over.
	for i := 0; i < 50; i++ {
		err := withBudget(L, limit, func() error { return callSpin(L, 100) })
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, lua.LNumber(5050), L.Get(-1))
		L.Pop(1)
	}
}

func TestWithBudget_ExhaustedCallDoesNotStarveNext(t *testing.T) {
	const limit = 2000
	L := NewSandboxedState(limit)
	defer L.Close()
	require.NoError(t, withBudget(L, limit, func() error { return L.DoString(spinScript) }))

	err := withBudget(L, limit, func() error { return callSpin(L, 1_000_000) })
	require.Error(t, err)

	err = withBudget(L, limit, func() error { return callSpin(L, 10) })
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(55), L.Get(-1))
}

func TestWithBudget_ZeroLimitUsesDefault(t *testing.T) {
	L := NewSandboxedState(0)
	defer L.Close()
	require.NoError(t, L.DoString(spinScript))

	// Well past a tiny budget, well inside the default one.
	assert.NoError(t, withBudget(L, 0, func() error { return callSpin(L, 1000) }))
	assert.Error(t, withBudget(L, 0, func() error { return callSpin(L, 10*DefaultInstructionLimit) }))
}

func TestResolveLimit(t *testing.T) {
	assert.Equal(t, DefaultInstructionLimit, resolveLimit(0))
	assert.Equal(t, DefaultInstructionLimit, resolveLimit(-5))
	assert.Equal(t, 1, resolveLimit(1))
	assert.Equal(t, 250_000, resolveLimit(250_000))
}

func TestPropertyResolveLimit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-1_000_000, 1_000_000).Draw(t, "limit")
		got := resolveLimit(n)
		if n > 0 && got != n {
			t.Fatalf("resolveLimit(%d) = %d, want %d", n, got, n)
		}
		if n <= 0 && got != DefaultInstructionLimit {
			t.Fatalf("resolveLimit(%d) = %d, want default", n, got)
		}
	})
}

func TestNewSandboxedState_LevelScriptsCannotEscape(t *testing.T) {
	L := NewSandboxedState(0)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "%s must not be reachable", name)
	}
	assert.NoError(t, L.DoString(`assert(math.floor(2.5) == 2 and string.rep("=", 2) == "==")`))
}
