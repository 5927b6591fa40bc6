// Package textview draws puzzle snapshots to a terminal and decodes typed
// lines into controller commands.
package textview

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/control"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
)

// diskColors cycles by rank.
var diskColors = []string{"1", "3", "2", "6", "4", "5"}

// View owns its writer. Listener output and Printf are serialized, so a
// running task never interleaves with the input loop.
type View struct {
	mu  sync.Mutex
	out *termenv.Output
}

func New(w io.Writer, opts ...termenv.OutputOption) *View {
	return &View{out: termenv.NewOutput(w, opts...)}
}

// Handle is a control.Listener redrawing the board on every state change.
func (v *View) Handle(e control.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch e.Kind {
	case control.EventState:
		v.out.ClearScreen()
		fmt.Fprint(v.out, v.Render(e.Snapshot))
	case control.EventRejected:
		fmt.Fprintf(v.out, "%s\n", v.out.String("Move rejected: "+reason(e.Err)).Foreground(v.out.Color("1")))
	case control.EventTaskDone:
		if e.Err == nil {
			fmt.Fprintf(v.out, "%s finished\n", e.Task)
		}
	}
}

// Printf writes a message line to the terminal.
func (v *View) Printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format+"\n", args...)
}

// Draw writes the board for s.
func (v *View) Draw(s game.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprint(v.out, v.Render(s))
}

// Render lays out the three pegs with the held disk lifted above its peg.
func (v *View) Render(s game.Snapshot) string {
	n := s.DiskCount
	width := 2*n + 1

	var pegs [game.NumPegs][]int
	var held [game.NumPegs]int
	for i := range s.Pegs {
		pegs[i] = s.Pegs[i]
	}
	if s.HasSelection {
		p := pegs[s.SelectedPeg]
		if len(p) > 0 {
			held[s.SelectedPeg] = p[len(p)-1]
			pegs[s.SelectedPeg] = p[:len(p)-1]
		}
	}

	var b strings.Builder
	cells := make([]string, game.NumPegs)
	for i := range cells {
		cells[i] = pad("", width)
		if held[i] > 0 {
			cells[i] = v.disk(held[i], width, true)
		}
	}
	writeRow(&b, cells)
	for row := n - 1; row >= 0; row-- {
		for i := range cells {
			if row < len(pegs[i]) {
				cells[i] = v.disk(pegs[i][row], width, false)
			} else {
				cells[i] = pad("|", width)
			}
		}
		writeRow(&b, cells)
	}
	b.WriteString(strings.Repeat("-", game.NumPegs*width+game.NumPegs-1))
	b.WriteByte('\n')
	for i := range cells {
		label := fmt.Sprintf(" %d ", i+1)
		if i == s.SelectedPeg {
			label = fmt.Sprintf("[%d]", i+1)
		}
		cells[i] = pad(label, width)
	}
	writeRow(&b, cells)

	fmt.Fprintf(&b, "Moves: %d (minimum %d)\n", s.MoveCount, s.MinMoves)
	if s.Won {
		msg := "Congratulations! You won, but not in the minimum number of moves. Try again?"
		if s.Optimal {
			msg = "Congratulations! You won in the minimum number of moves!"
		}
		b.WriteString(v.out.String(msg).Bold().String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (v *View) disk(rank, width int, held bool) string {
	bar := strings.Repeat("=", 2*rank-1)
	left := (width - len(bar)) / 2
	right := width - len(bar) - left
	st := v.out.String(bar).Foreground(v.out.Color(diskColors[(rank-1)%len(diskColors)]))
	if held {
		st = st.Reverse()
	}
	return strings.Repeat(" ", left) + st.String() + strings.Repeat(" ", right)
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
	b.WriteByte('\n')
}

func pad(s string, width int) string {
	left := (width - len(s)) / 2
	if left < 0 {
		left = 0
	}
	right := width - len(s) - left
	if right < 0 {
		right = 0
	}
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func reason(err error) string {
	var ill *game.IllegalMoveError
	if errors.As(err, &ill) {
		switch ill.Reason {
		case game.ReasonSamePeg:
			return "the disk is already on that peg"
		case game.ReasonLargerOnSmall:
			return "a larger disk cannot go on a smaller one"
		case game.ReasonEmptySource:
			return "that peg is empty"
		case game.ReasonNothingHeld:
			return "no disk is picked up"
		}
	}
	return err.Error()
}
