package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveLength(t *testing.T) {
	for n := MinDisks; n <= MaxDisks; n++ {
		moves, err := Solve(n, SourcePeg, TargetPeg, MiddlePeg)
		require.NoError(t, err)
		assert.Len(t, moves, MinMoves(n), "n=%d", n)
	}
}

func TestSolveTwoDisks(t *testing.T) {
	moves, err := Solve(2, 0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []Move{{0, 1}, {0, 2}, {1, 2}}, moves)
}

func TestSolveReplayWins(t *testing.T) {
	for n := MinDisks; n <= MaxDisks; n++ {
		s, err := New(n)
		require.NoError(t, err)
		moves, err := Solve(n, SourcePeg, TargetPeg, MiddlePeg)
		require.NoError(t, err)
		for i, m := range moves {
			require.NoError(t, s.Move(m), "n=%d move %d %v", n, i, m)
			require.NoError(t, s.CheckInvariants())
		}
		assert.Equal(t, Won, s.Status(), "n=%d", n)
		assert.Equal(t, MinMoves(n), s.MoveCount())
		assert.True(t, s.Optimal())
		assert.Equal(t, n, s.Peg(TargetPeg).Size())
	}
}

func TestMovesRestartable(t *testing.T) {
	seq := Moves(4, 0, 2, 1)
	var first, second []Move
	for m := range seq {
		first = append(first, m)
	}
	for m := range seq {
		second = append(second, m)
	}
	assert.Equal(t, first, second)

	// early break stops the recursion
	count := 0
	for range seq {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestSolveRejectsDiskCount(t *testing.T) {
	for _, n := range []int{-1, 0, 1, MaxDisks + 1, 64} {
		moves, err := Solve(n, SourcePeg, TargetPeg, MiddlePeg)
		assert.ErrorIs(t, err, ErrInvalidDiskCount, "n=%d", n)
		assert.Nil(t, moves)
	}
}

func TestMovesSmallCounts(t *testing.T) {
	var got []Move
	for m := range Moves(0, 0, 2, 1) {
		got = append(got, m)
	}
	assert.Empty(t, got)
	for m := range Moves(1, 0, 2, 1) {
		got = append(got, m)
	}
	assert.Equal(t, []Move{{From: 0, To: 2}}, got)
}

func TestSolveRejectsBadPegs(t *testing.T) {
	_, err := Solve(3, 0, 0, 1)
	assert.True(t, errors.Is(err, ErrInvalidPeg))
	_, err = Solve(3, 0, 3, 1)
	assert.True(t, errors.Is(err, ErrInvalidPeg))
}
