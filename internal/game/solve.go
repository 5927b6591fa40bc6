package game

import (
	"fmt"
	"iter"
)

// Moves yields the optimal sequence moving n disks from peg from to peg to
// using via as the spare. The sequence can be ranged over any number of times.
func Moves(n, from, to, via int) iter.Seq[Move] {
	return func(yield func(Move) bool) {
		hanoi(n, from, to, via, yield)
	}
}

func hanoi(n, from, to, via int, yield func(Move) bool) bool {
	if n <= 0 {
		return true
	}
	return hanoi(n-1, from, via, to, yield) &&
		yield(Move{From: from, To: to}) &&
		hanoi(n-1, via, to, from, yield)
}

// Solve returns the 2^n-1 moves of Moves as a slice. n must be a playable
// disk count and from, to and via the three distinct pegs.
func Solve(n, from, to, via int) ([]Move, error) {
	if err := ValidateDiskCount(n); err != nil {
		return nil, err
	}
	for _, p := range []int{from, to, via} {
		if err := validatePeg(p); err != nil {
			return nil, err
		}
	}
	if from == to || to == via || from == via {
		return nil, fmt.Errorf("%w: pegs %d, %d, %d are not distinct", ErrInvalidPeg, from, to, via)
	}
	out := make([]Move, 0, MinMoves(n))
	for m := range Moves(n, from, to, via) {
		out = append(out, m)
	}
	return out, nil
}
