package script

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/control"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
)

func runScript(t *testing.T, c *control.Controller, src string, pace time.Duration) error {
	t.Helper()
	task, err := Start(c, "test", src, pace)
	require.NoError(t, err)
	select {
	case <-task.Done():
		return task.Err()
	case <-time.After(10 * time.Second):
		t.Fatal("script did not finish")
		return nil
	}
}

func TestIterativeBuiltinSolves(t *testing.T) {
	lib, err := NewLibrary("", nil)
	require.NoError(t, err)
	src, err := lib.Get("iterative")
	require.NoError(t, err)

	for n := game.MinDisks; n <= game.MaxDisks; n++ {
		c, err := control.New(n)
		require.NoError(t, err)
		require.NoError(t, runScript(t, c, src, 0), "n=%d", n)
		snap := c.Snapshot()
		assert.True(t, snap.Won, "n=%d", n)
		assert.Equal(t, game.MinMoves(n), snap.MoveCount, "n=%d", n)
		assert.Equal(t, n, len(snap.Pegs[game.TargetPeg]), "n=%d", n)
	}
}

func TestScriptCursorCommands(t *testing.T) {
	c, err := control.New(3)
	require.NoError(t, err)
	src := `
select_peg(0)
confirm()
local ok = select_peg(2)
assert(ok == true)
local s = state()
assert(s.moves == 1)
assert(s.selected == 2)
assert(s.pegs[3][1] == 1)
`
	require.NoError(t, runScript(t, c, src, 0))
	assert.Equal(t, 1, c.Snapshot().MoveCount)
}

func TestScriptSeesRejections(t *testing.T) {
	c, err := control.New(3)
	require.NoError(t, err)
	src := `
move(0, 2)
local ok, msg = move(0, 2)
assert(ok == false)
assert(string.find(msg, "larger_on_smaller"))
local ok2 = reset(12)
assert(ok2 == false)
reset(4)
`
	require.NoError(t, runScript(t, c, src, 0))
	snap := c.Snapshot()
	assert.Equal(t, 4, snap.DiskCount)
	assert.Equal(t, 0, snap.MoveCount)
}

func TestScriptErrorIsWrapped(t *testing.T) {
	c, err := control.New(3)
	require.NoError(t, err)
	err = runScript(t, c, `error("boom")`, 0)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "test", se.Name)
	assert.Contains(t, se.Error(), "boom")
}

func TestScriptCannotReachFilesystem(t *testing.T) {
	c, err := control.New(3)
	require.NoError(t, err)
	require.NoError(t, runScript(t, c, `assert(dofile == nil and loadfile == nil)`, 0))
}

func TestResetCancelsScript(t *testing.T) {
	c, err := control.New(5)
	require.NoError(t, err)
	started := make(chan struct{})
	c.Subscribe(func(e control.Event) {
		if e.Kind == control.EventState && e.Snapshot.MoveCount == 1 {
			select {
			case <-started:
			default:
				close(started)
			}
		}
	})
	task, err := Start(c, "slow", `
move(0, 2)
sleep(60000)
move(0, 1)
`, 0)
	require.NoError(t, err)
	<-started

	require.NoError(t, c.Reset())
	select {
	case <-task.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("script not cancelled")
	}
	assert.ErrorIs(t, task.Err(), control.ErrTaskCancelled)
	assert.Equal(t, 0, c.Snapshot().MoveCount)
}

func TestInfiniteLoopIsCancelled(t *testing.T) {
	c, err := control.New(3)
	require.NoError(t, err)
	task, err := Start(c, "spin", `while true do end`, 0)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	task.Cancel()
	select {
	case <-task.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("spinning script not cancelled")
	}
	assert.ErrorIs(t, task.Err(), control.ErrTaskCancelled)
}
