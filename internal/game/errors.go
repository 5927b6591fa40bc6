package game

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalMove is wrapped by every *IllegalMoveError.
	ErrIllegalMove = errors.New("hanoi: illegal move")

	// ErrEmptyPeg is returned by Peg.Pop on an empty peg. State never does this.
	ErrEmptyPeg = errors.New("hanoi: pop from empty peg")

	// ErrInvalidDiskCount is wrapped by every *ConfigError.
	ErrInvalidDiskCount = errors.New("hanoi: disk count out of range")

	ErrInvalidPeg = errors.New("hanoi: peg index out of range")

	// ErrGameWon rejects every command except reset once the puzzle is solved.
	ErrGameWon = errors.New("hanoi: puzzle already solved")

	ErrInvariant = errors.New("hanoi: invariant violated")
)

// MoveReason says why a move was rejected.
type MoveReason string

const (
	ReasonSamePeg       MoveReason = "same_peg"
	ReasonEmptySource   MoveReason = "empty_source"
	ReasonLargerOnSmall MoveReason = "larger_on_smaller"
	ReasonNothingHeld   MoveReason = "nothing_held"
)

// IllegalMoveError is the recoverable rejection of a move. The state is unchanged.
type IllegalMoveError struct {
	From, To int
	Reason   MoveReason
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("hanoi: illegal move %d->%d: %s", e.From, e.To, e.Reason)
}

func (e *IllegalMoveError) Unwrap() error {
	return ErrIllegalMove
}

// ConfigError reports a disk count outside [MinDisks, MaxDisks].
type ConfigError struct {
	DiskCount int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("hanoi: disk count %d not in [%d, %d]", e.DiskCount, MinDisks, MaxDisks)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidDiskCount
}

// ValidateDiskCount reports whether n is a playable disk count.
func ValidateDiskCount(n int) error {
	if n < MinDisks || n > MaxDisks {
		return &ConfigError{DiskCount: n}
	}
	return nil
}

func validatePeg(i int) error {
	if i < 0 || i >= NumPegs {
		return fmt.Errorf("%w: %d", ErrInvalidPeg, i)
	}
	return nil
}
