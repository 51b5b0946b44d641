package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

func runScript(t *testing.T, luaSrc, hook string, args ...lua.LValue) (lua.LValue, *observer.ObservedLogs) {
	t.Helper()
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadDirectory(writeTempLua(t, "test.lua", luaSrc), 0))
	ret, err := mgr.CallHook(hook, args...)
	require.NoError(t, err)
	return ret, logs
}

func TestEngineLog_AllLevels(t *testing.T) {
	_, logs := runScript(t, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	for _, level := range []zapcore.Level{zap.DebugLevel, zap.InfoLevel, zap.WarnLevel, zap.ErrorLevel} {
		entries := logs.FilterLevelExact(level).FilterField(zap.String("source", "lua")).All()
		assert.NotEmpty(t, entries, "expected %s log from lua", level)
	}
}

func TestEngineDice_Roll_ReturnsTable(t *testing.T) {
	ret, _ := runScript(t, `
		function do_roll()
			local r = engine.dice.roll("1d6")
			if type(r.dice) ~= "number" then error("dice field missing") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestEngineDice_Roll_BadExpressionIsScriptError(t *testing.T) {
	ret, logs := runScript(t, `
		function do_roll()
			return engine.dice.roll("banana")
		end
	`, "do_roll")
	assert.Equal(t, lua.LNil, ret)
	assert.NotEmpty(t, logs.FilterLevelExact(zap.WarnLevel).All())
}

func TestEngineNotify_CallsCallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	var got []string
	mgr.Notify = func(msg string) { got = append(got, msg) }
	require.NoError(t, mgr.LoadDirectory(writeTempLua(t, "n.lua", `
		function announce(name) engine.notify(name .. " grits their teeth") end
	`), 0))
	_, err := mgr.CallHook("announce", lua.LString("Valeria"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Valeria grits their teeth"}, got)
}

func TestProperty_DiceRoll_TotalEqualsDicePlusModifier(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadDirectory(writeTempLua(t, "inv.lua", `
		function check_invariant(expr)
			local r = engine.dice.roll(expr)
			return r.total == r.dice + r.modifier
		end
	`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6+1", "1d4-1", "1d8!"}).Draw(rt, "expr")
		ret, err := mgr.CallHook("check_invariant", lua.LString(expr))
		if err != nil {
			rt.Fatalf("CallHook: %v", err)
		}
		if ret != lua.LTrue {
			rt.Fatalf("total must equal dice + modifier for %s", expr)
		}
	})
}
