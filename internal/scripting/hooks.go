package scripting

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/targeted-damage/internal/game/soak"
)

// HookDamageResolved is the Lua global called after a negotiation commits.
const HookDamageResolved = "on_damage_resolved"

// DamageHooks exposes committed negotiations to Lua scripts. It implements
// soak.Hooks.
type DamageHooks struct {
	mgr *Manager
}

// NewDamageHooks wraps mgr.
//
// Precondition: mgr must be non-nil.
func NewDamageHooks(mgr *Manager) *DamageHooks {
	return &DamageHooks{mgr: mgr}
}

// DamageResolved calls on_damage_resolved with a table describing r. Script
// failures never reach the caller.
func (h *DamageHooks) DamageResolved(_ context.Context, r soak.Resolution) {
	_, _ = h.mgr.CallHookWith(HookDamageResolved, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{resolutionTable(L, r)}
	})
}

func resolutionTable(L *lua.LState, r soak.Resolution) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "event_id", lua.LString(r.EventID))
	L.SetField(t, "target", lua.LString(string(r.Target)))
	L.SetField(t, "target_name", lua.LString(r.TargetName))
	L.SetField(t, "kind", lua.LString(string(r.Kind)))
	L.SetField(t, "status", lua.LString(r.Status.String()))
	L.SetField(t, "wounds", lua.LNumber(r.Wounds))
	L.SetField(t, "wounds_total", lua.LNumber(r.WoundsTotal))
	return t
}
