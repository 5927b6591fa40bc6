package control

import "errors"

var (
	// ErrInactive is returned for commands sent while the puzzle view is hidden.
	ErrInactive = errors.New("hanoi: puzzle inactive")

	// ErrTaskCancelled is returned to a task whose handle was superseded by a
	// reset, a user command, deactivation or a newer task.
	ErrTaskCancelled = errors.New("hanoi: task cancelled")

	ErrUnknownCommand = errors.New("hanoi: unknown command")
)
