package textview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/control"
)

var (
	ErrQuit = errors.New("quit")

	ErrUnknownInput = errors.New("unknown input")
)

// Help lists the accepted lines.
const Help = `1, 2, 3     select a peg, or drop the held disk on it
enter, p    pick up or put back the top disk
r [n]       reset, optionally with n disks
a [ms]      auto-solve, one move every ms milliseconds
q           quit`

// ParseCommand decodes one typed line. It returns ErrQuit for q.
func ParseCommand(line string) (control.Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return control.Command{Kind: control.CmdConfirm}, nil
	}
	arg := func() (int, bool, error) {
		if len(fields) < 2 {
			return 0, false, nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q is not a number", ErrUnknownInput, fields[1])
		}
		return n, true, nil
	}

	switch fields[0] {
	case "1", "2", "3":
		return control.Command{Kind: control.CmdSelect, Peg: int(fields[0][0] - '1')}, nil
	case "p", "space", "pick":
		return control.Command{Kind: control.CmdConfirm}, nil
	case "r", "reset":
		n, _, err := arg()
		if err != nil {
			return control.Command{}, err
		}
		return control.Command{Kind: control.CmdReset, Disks: n}, nil
	case "a", "auto":
		ms, ok, err := arg()
		if err != nil {
			return control.Command{}, err
		}
		cmd := control.Command{Kind: control.CmdAutoSolve}
		if ok {
			cmd.Pace = time.Duration(ms) * time.Millisecond
		}
		return cmd, nil
	case "q", "quit", "exit":
		return control.Command{}, ErrQuit
	default:
		return control.Command{}, fmt.Errorf("%w: %q", ErrUnknownInput, line)
	}
}
