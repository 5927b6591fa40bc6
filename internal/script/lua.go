// Package script runs Lua programs that drive a puzzle through the same
// commands a player uses.
//
// Scripts see these globals. Peg indices are 0, 1 and 2.
//
//	select_peg(i)      move the cursor, or drop the held disk on i
//	confirm()          pick up or put back the disk under the cursor
//	move(from, to)     apply a move directly
//	reset([n])         restart, optionally with n disks
//	sleep(ms)          pause; returns early when the script is cancelled
//	state()            table {disks, moves, selected, holding, won, pegs}
//	pace_ms            the pace requested by the caller
//
// Commands return true, or false and a message when rejected. A cancelled
// script is aborted at its next command.
package script

import (
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/control"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
)

// Error wraps a Lua compile or runtime failure.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hanoi: script %q: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Run executes src on behalf of r until it returns or the task is cancelled.
func Run(r *control.Runner, name, src string, pace time.Duration) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openLibs(L)
	L.SetContext(r.Context())

	b := &bindings{r: r}
	for fname, fn := range map[string]lua.LGFunction{
		"select_peg": b.selectPeg,
		"confirm":    b.confirm,
		"move":       b.move,
		"reset":      b.reset,
		"sleep":      b.sleep,
		"state":      b.state,
	} {
		L.SetGlobal(fname, L.NewFunction(fn))
	}
	L.SetGlobal("pace_ms", lua.LNumber(pace.Milliseconds()))

	err := L.DoString(src)
	if b.cancelled || r.Context().Err() != nil {
		return control.ErrTaskCancelled
	}
	if err != nil {
		return &Error{Name: name, Err: err}
	}
	return nil
}

// Start runs src as the controller's active task.
func Start(c *control.Controller, name, src string, pace time.Duration) (*control.Task, error) {
	return c.StartTask("script:"+name, func(r *control.Runner) error {
		return Run(r, name, src, pace)
	})
}

func openLibs(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	// no filesystem access from scripts
	for _, g := range []string{"dofile", "loadfile"} {
		L.SetGlobal(g, lua.LNil)
	}
}

type bindings struct {
	r         *control.Runner
	cancelled bool
}

func (b *bindings) result(L *lua.LState, err error) int {
	if err == nil {
		L.Push(lua.LTrue)
		return 1
	}
	if errors.Is(err, control.ErrTaskCancelled) {
		b.cancelled = true
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LFalse)
	L.Push(lua.LString(err.Error()))
	return 2
}

func (b *bindings) selectPeg(L *lua.LState) int {
	return b.result(L, b.r.SelectPeg(L.CheckInt(1)))
}

func (b *bindings) confirm(L *lua.LState) int {
	return b.result(L, b.r.Confirm())
}

func (b *bindings) move(L *lua.LState) int {
	m := game.Move{From: L.CheckInt(1), To: L.CheckInt(2)}
	return b.result(L, b.r.Move(m))
}

func (b *bindings) reset(L *lua.LState) int {
	return b.result(L, b.r.Reset(L.OptInt(1, 0)))
}

func (b *bindings) sleep(L *lua.LState) int {
	ms := L.OptInt(1, 0)
	return b.result(L, b.r.Sleep(time.Duration(ms)*time.Millisecond))
}

func (b *bindings) state(L *lua.LState) int {
	snap := b.r.Snapshot()
	t := L.NewTable()
	t.RawSetString("disks", lua.LNumber(snap.DiskCount))
	t.RawSetString("moves", lua.LNumber(snap.MoveCount))
	t.RawSetString("selected", lua.LNumber(snap.SelectedPeg))
	t.RawSetString("holding", lua.LBool(snap.HasSelection))
	t.RawSetString("won", lua.LBool(snap.Won))
	pegs := L.NewTable()
	for _, ranks := range snap.Pegs {
		pt := L.NewTable()
		for _, r := range ranks {
			pt.Append(lua.LNumber(r))
		}
		pegs.Append(pt)
	}
	t.RawSetString("pegs", pegs)
	L.Push(t)
	return 1
}
