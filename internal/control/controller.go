// Package control drives a puzzle from discrete commands and notifies the
// presentation layer of every state change.
package control

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
)

// DefaultPace is the delay between scripted moves.
const DefaultPace = 500 * time.Millisecond

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithInactiveStart makes the controller ignore commands until OnActivated.
func WithInactiveStart() Option {
	return func(c *Controller) { c.active = false }
}

// Controller serializes commands against one puzzle. All methods are safe
// for concurrent use; commands apply in the order they acquire the lock.
type Controller struct {
	mu        sync.Mutex
	engine    game.Engine
	active    bool
	listeners map[int]Listener
	nextID    int

	task *Task
	gen  uint64

	logger *slog.Logger
}

// New returns an active controller over a fresh n-disk puzzle.
func New(n int, opts ...Option) (*Controller, error) {
	s, err := game.New(n)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		engine:    s,
		active:    true,
		listeners: map[int]Listener{},
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Subscribe registers l and returns a function removing it.
func (c *Controller) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) Snapshot() game.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Snapshot()
}

func (c *Controller) LegalMoves() []game.Move {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.LegalMoves()
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SelectPeg moves the cursor to peg i, or drops the held disk on it.
func (c *Controller) SelectPeg(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrInactive
	}
	c.cancelTaskLocked()
	return c.selectLocked(i)
}

// Confirm picks up the top disk under the cursor, or cancels a pick-up.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrInactive
	}
	c.cancelTaskLocked()
	return c.confirmLocked()
}

// Reset restarts the puzzle at its current size.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTaskLocked()
	return c.resetLocked(c.engine.DiskCount())
}

// Resize restarts the puzzle with n disks. An invalid n changes nothing,
// though a running task is still cancelled.
func (c *Controller) Resize(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTaskLocked()
	return c.resetLocked(n)
}

// OnActivated is called by the presentation layer when the puzzle is shown.
func (c *Controller) OnActivated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
	c.notifyLocked(Event{Kind: EventState, Snapshot: c.engine.Snapshot()})
}

// OnDeactivated is called when the puzzle is hidden. Running tasks stop.
func (c *Controller) OnDeactivated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	c.cancelTaskLocked()
}

// AutoSolve restarts the puzzle and plays the optimal solution, one move
// per pace. Any later command cancels it.
func (c *Controller) AutoSolve(pace time.Duration) (*Task, error) {
	return c.StartTask("auto_solve", func(r *Runner) error {
		if err := r.Reset(0); err != nil {
			return err
		}
		n := r.Snapshot().DiskCount
		for m := range game.Moves(n, game.SourcePeg, game.TargetPeg, game.MiddlePeg) {
			if err := r.Sleep(pace); err != nil {
				return err
			}
			if err := r.SelectPeg(m.From); err != nil {
				return err
			}
			if err := r.Confirm(); err != nil {
				return err
			}
			if err := r.SelectPeg(m.To); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Controller) selectLocked(i int) error {
	var err error
	if c.engine.Status() == game.DiskPicked {
		err = c.dropLocked(i)
	} else {
		err = c.engine.SelectPeg(i)
	}
	if err != nil {
		return c.rejectLocked(err)
	}
	c.notifyLocked(Event{Kind: EventState, Snapshot: c.engine.Snapshot()})
	return nil
}

func (c *Controller) dropLocked(j int) error {
	wasWon := c.engine.IsFinished()
	if err := c.engine.DropOnPeg(j); err != nil {
		return err
	}
	snap := c.engine.Snapshot()
	c.logger.Debug("move", "to", j, "moves", snap.MoveCount)
	if !wasWon && snap.Won {
		c.logger.Info("puzzle solved", "disks", snap.DiskCount, "moves", snap.MoveCount, "optimal", snap.Optimal)
		c.notifyLocked(Event{Kind: EventWon, Snapshot: snap})
	}
	return nil
}

func (c *Controller) confirmLocked() error {
	if err := c.engine.PickUp(); err != nil {
		return c.rejectLocked(err)
	}
	c.notifyLocked(Event{Kind: EventState, Snapshot: c.engine.Snapshot()})
	return nil
}

func (c *Controller) moveLocked(m game.Move) error {
	wasWon := c.engine.IsFinished()
	if err := c.engine.Move(m); err != nil {
		return c.rejectLocked(err)
	}
	snap := c.engine.Snapshot()
	if !wasWon && snap.Won {
		c.notifyLocked(Event{Kind: EventWon, Snapshot: snap})
	}
	c.notifyLocked(Event{Kind: EventState, Snapshot: snap})
	return nil
}

func (c *Controller) resetLocked(n int) error {
	if err := c.engine.Reset(n); err != nil {
		return err
	}
	c.logger.Debug("puzzle reset", "disks", n)
	c.notifyLocked(Event{Kind: EventState, Snapshot: c.engine.Snapshot()})
	return nil
}

// rejectLocked reports illegal moves to listeners. Other errors pass through
// silently.
func (c *Controller) rejectLocked(err error) error {
	if errors.Is(err, game.ErrIllegalMove) {
		c.notifyLocked(Event{Kind: EventRejected, Snapshot: c.engine.Snapshot(), Err: err})
	}
	return err
}

func (c *Controller) notifyLocked(e Event) {
	for _, l := range c.listeners {
		l(e)
	}
}
