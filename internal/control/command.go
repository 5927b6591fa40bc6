package control

import (
	"fmt"
	"time"
)

type CommandKind string

const (
	CmdSelect     CommandKind = "select"
	CmdConfirm    CommandKind = "confirm"
	CmdReset      CommandKind = "reset"
	CmdAutoSolve  CommandKind = "auto_solve"
	CmdActivate   CommandKind = "activate"
	CmdDeactivate CommandKind = "deactivate"
)

// Command is a decoded input. Disks is only read by CmdReset, where zero
// keeps the current size. Pace is only read by CmdAutoSolve.
type Command struct {
	Kind  CommandKind
	Peg   int
	Disks int
	Pace  time.Duration
}

// Dispatch routes cmd to the matching controller operation.
func (c *Controller) Dispatch(cmd Command) error {
	switch cmd.Kind {
	case CmdSelect:
		return c.SelectPeg(cmd.Peg)
	case CmdConfirm:
		return c.Confirm()
	case CmdReset:
		if cmd.Disks == 0 {
			return c.Reset()
		}
		return c.Resize(cmd.Disks)
	case CmdAutoSolve:
		pace := cmd.Pace
		if pace <= 0 {
			pace = DefaultPace
		}
		_, err := c.AutoSolve(pace)
		return err
	case CmdActivate:
		c.OnActivated()
		return nil
	case CmdDeactivate:
		c.OnDeactivated()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
}
