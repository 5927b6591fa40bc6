// hanoi plays Towers of Hanoi in the terminal.
//
// Controls (type a line, then enter):
//
//	1 2 3   select a peg, or drop the held disk there
//	enter   pick up or put back the top disk of the selected peg
//	r [n]   reset, optionally with n disks
//	a [ms]  auto-solve
//	q       quit
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/control"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/textview"
)

var (
	disks   int
	paceMs  int
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:          "hanoi",
		Short:        "Towers of Hanoi in the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cmd.Context(), os.Stdin, os.Stdout, disks, time.Duration(paceMs)*time.Millisecond)
		},
	}
	playCmd.Flags().IntVarP(&disks, "disks", "n", game.DefaultDisks, "Number of disks")
	playCmd.Flags().IntVar(&paceMs, "pace", int(control.DefaultPace/time.Millisecond), "Milliseconds between auto-solve moves")

	solveCmd := &cobra.Command{
		Use:   "solve <disks>",
		Short: "Print the optimal move sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("disks: %w", err)
			}
			return printSolution(cmd.OutOrStdout(), n)
		},
	}

	root.AddCommand(playCmd, solveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printSolution(w io.Writer, n int) error {
	if err := game.ValidateDiskCount(n); err != nil {
		return err
	}
	i := 0
	for m := range game.Moves(n, game.SourcePeg, game.TargetPeg, game.MiddlePeg) {
		i++
		fmt.Fprintf(w, "%3d: %d -> %d\n", i, m.From+1, m.To+1)
	}
	return nil
}

func play(ctx context.Context, in io.Reader, out io.Writer, n int, pace time.Duration) error {
	ctl, err := control.New(n, control.WithLogger(logger()))
	if err != nil {
		return err
	}
	defer ctl.OnDeactivated()

	view := textview.New(out)
	unsubscribe := ctl.Subscribe(view.Handle)
	defer unsubscribe()
	view.Draw(ctl.Snapshot())
	view.Printf("%s", textview.Help)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}
		cmd, err := textview.ParseCommand(line)
		if errors.Is(err, textview.ErrQuit) {
			return nil
		}
		if err != nil {
			view.Printf("%v", err)
			continue
		}
		if cmd.Kind == control.CmdAutoSolve && cmd.Pace == 0 {
			cmd.Pace = pace
		}
		err = ctl.Dispatch(cmd)
		switch {
		case err == nil, errors.Is(err, game.ErrIllegalMove):
			// rejections are reported through the listener
		case errors.Is(err, game.ErrGameWon):
			view.Printf("The puzzle is solved. Type r to play again.")
		default:
			view.Printf("%v", err)
		}
	}
}
