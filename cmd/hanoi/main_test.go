package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
)

func TestPrintSolution(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSolution(&buf, 2))
	assert.Equal(t, "  1: 1 -> 2\n  2: 1 -> 3\n  3: 2 -> 3\n", buf.String())

	assert.ErrorIs(t, printSolution(&buf, 10), game.ErrInvalidDiskCount)
}

func TestPlayWinsFromTypedLines(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"", "2", // 1 -> 2
		"1", "", "3", // 1 -> 3
		"2", "", "3", // 2 -> 3
		"1", // after the win
		"q",
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, play(context.Background(), in, &out, 2, time.Millisecond))
	assert.Contains(t, out.String(), "in the minimum number of moves!")
	assert.Contains(t, out.String(), "The puzzle is solved.")
}

func TestPlayReportsRejections(t *testing.T) {
	in := strings.NewReader("\n2\n1\n\n2\nwhat\nq\n")
	var out bytes.Buffer
	require.NoError(t, play(context.Background(), in, &out, 3, time.Millisecond))
	assert.Contains(t, out.String(), "Move rejected: a larger disk cannot go on a smaller one")
	assert.Contains(t, out.String(), "unknown input")
}

func TestPlayAutoSolveWhileTyping(t *testing.T) {
	lines := []string{"a 1"}
	for range 50 {
		lines = append(lines, "zzz")
	}
	lines = append(lines, "q")
	in := strings.NewReader(strings.Join(lines, "\n"))

	var out bytes.Buffer
	require.NoError(t, play(context.Background(), in, &out, 6, time.Millisecond))
	assert.Equal(t, 50, strings.Count(out.String(), `unknown input: "zzz"`))
}
