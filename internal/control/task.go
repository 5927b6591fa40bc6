package control

import (
	"context"
	"errors"
	"time"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
)

// TaskFunc is a scripted command sequence. It must issue every command
// through r so that a cancelled task can no longer touch the puzzle.
type TaskFunc func(r *Runner) error

// Task is the handle of the single scripted sequence a controller runs.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (t *Task) Name() string { return t.name }

// Done is closed when the task returns.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err is valid after Done is closed. It is ErrTaskCancelled for superseded
// tasks.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task returns.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Cancel stops the task. Commands it issues afterwards are discarded.
func (t *Task) Cancel() { t.cancel() }

// StartTask cancels any running task and runs fn in its own goroutine.
func (c *Controller) StartTask(name string, fn TaskFunc) (*Task, error) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return nil, ErrInactive
	}
	c.cancelTaskLocked()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{name: name, cancel: cancel, done: make(chan struct{})}
	c.task = t
	r := &Runner{c: c, task: t, gen: c.gen, ctx: ctx}
	c.mu.Unlock()

	c.logger.Debug("task started", "task", name)
	go func() {
		err := fn(r)
		if ctx.Err() != nil {
			err = ErrTaskCancelled
		}
		cancel()

		c.mu.Lock()
		if c.task == t {
			c.task = nil
			c.notifyLocked(Event{Kind: EventTaskDone, Snapshot: c.engine.Snapshot(), Err: err, Task: name})
		}
		c.mu.Unlock()

		c.logger.Debug("task stopped", "task", name, "err", err)
		t.err = err
		close(t.done)
	}()
	return t, nil
}

// cancelTaskLocked invalidates every Runner handed out so far.
func (c *Controller) cancelTaskLocked() {
	c.gen++
	if c.task != nil {
		c.task.cancel()
		c.task = nil
	}
}

// Runner issues commands on behalf of one task.
type Runner struct {
	c    *Controller
	task *Task
	gen  uint64
	ctx  context.Context
}

// Context is cancelled together with the task.
func (r *Runner) Context() context.Context { return r.ctx }

// Sleep waits d or until the task is cancelled.
func (r *Runner) Sleep(d time.Duration) error {
	if d <= 0 {
		return r.err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-r.ctx.Done():
		return ErrTaskCancelled
	case <-t.C:
		return nil
	}
}

func (r *Runner) SelectPeg(i int) error {
	return r.do(func() error { return r.c.selectLocked(i) })
}

func (r *Runner) Confirm() error {
	return r.do(r.c.confirmLocked)
}

func (r *Runner) Move(m game.Move) error {
	return r.do(func() error { return r.c.moveLocked(m) })
}

// Reset restarts the puzzle with n disks, or at its current size when n is 0.
func (r *Runner) Reset(n int) error {
	return r.do(func() error {
		if n == 0 {
			n = r.c.engine.DiskCount()
		}
		return r.c.resetLocked(n)
	})
}

func (r *Runner) Snapshot() game.Snapshot {
	return r.c.Snapshot()
}

func (r *Runner) do(f func() error) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.staleLocked(); err != nil {
		return err
	}
	return f()
}

func (r *Runner) staleLocked() error {
	if r.c.gen != r.gen || r.c.task != r.task || !r.c.active {
		return ErrTaskCancelled
	}
	return r.err()
}

func (r *Runner) err() error {
	if errors.Is(r.ctx.Err(), context.Canceled) {
		return ErrTaskCancelled
	}
	return nil
}
