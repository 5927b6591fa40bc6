package game

import "fmt"

const (
	NumPegs = 3

	MinDisks     = 2
	MaxDisks     = 9
	DefaultDisks = 5

	SourcePeg = 0
	MiddlePeg = 1
	TargetPeg = 2
)

// Status is derived from the selection and win flags.
type Status int

const (
	Idle Status = iota
	DiskPicked
	Won
)

func (s Status) String() string {
	switch s {
	case DiskPicked:
		return "disk_picked"
	case Won:
		return "won"
	default:
		return "idle"
	}
}

// MinMoves is the optimal move count 2^n-1 for n disks.
func MinMoves(n int) int {
	if n <= 0 {
		return 0
	}
	return 1<<n - 1
}

// State is the Towers of Hanoi state machine. It is not safe for concurrent
// use; the controller serializes access.
type State struct {
	pegs      [NumPegs]Peg
	diskCount int
	moveCount int
	selected  int
	holding   bool
	won       bool
	optimal   bool
}

// New returns a puzzle with n disks stacked on the source peg.
func New(n int) (*State, error) {
	s := &State{}
	if err := s.Reset(n); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset rebuilds all pegs with n disks on the source peg. An invalid n leaves
// the state untouched.
func (s *State) Reset(n int) error {
	if err := ValidateDiskCount(n); err != nil {
		return err
	}
	for i := range s.pegs {
		s.pegs[i].clear()
	}
	for _, d := range newTower(n) {
		s.pegs[SourcePeg].Push(d)
	}
	s.diskCount = n
	s.moveCount = 0
	s.selected = SourcePeg
	s.holding = false
	s.won = false
	s.optimal = false
	return nil
}

func (s *State) DiskCount() int   { return s.diskCount }
func (s *State) MoveCount() int   { return s.moveCount }
func (s *State) SelectedPeg() int { return s.selected }
func (s *State) HasSelection() bool {
	return s.holding
}
func (s *State) IsFinished() bool { return s.won }

// Optimal reports whether the puzzle was won in MinMoves.
func (s *State) Optimal() bool { return s.won && s.optimal }

func (s *State) Status() Status {
	switch {
	case s.won:
		return Won
	case s.holding:
		return DiskPicked
	default:
		return Idle
	}
}

// Peg returns peg i for read access. i must be in [0, NumPegs).
func (s *State) Peg(i int) *Peg { return &s.pegs[i] }

// SelectPeg moves the cursor to peg i. It does not move disks.
func (s *State) SelectPeg(i int) error {
	if err := validatePeg(i); err != nil {
		return err
	}
	if s.won {
		return ErrGameWon
	}
	if s.holding {
		// the cursor is pinned to the held peg
		return nil
	}
	s.selected = i
	return nil
}

// PickUp lifts the top disk of the cursor peg, or puts it back if one is
// already held. Picking up from an empty peg does nothing.
func (s *State) PickUp() error {
	if s.won {
		return ErrGameWon
	}
	if s.holding {
		s.holding = false
		return nil
	}
	if s.pegs[s.selected].Size() == 0 {
		return nil
	}
	s.holding = true
	return nil
}

// DropOnPeg places the held disk on peg j. A rejected drop keeps the disk held.
func (s *State) DropOnPeg(j int) error {
	if err := validatePeg(j); err != nil {
		return err
	}
	if s.won {
		return ErrGameWon
	}
	if !s.holding {
		return &IllegalMoveError{From: s.selected, To: j, Reason: ReasonNothingHeld}
	}
	if err := s.apply(s.selected, j); err != nil {
		return err
	}
	s.holding = false
	s.selected = j
	return nil
}

// Move applies a legal move directly, bypassing the cursor. Any held disk is
// released first.
func (s *State) Move(m Move) error {
	if err := validatePeg(m.From); err != nil {
		return err
	}
	if err := validatePeg(m.To); err != nil {
		return err
	}
	if s.won {
		return ErrGameWon
	}
	if err := s.apply(m.From, m.To); err != nil {
		return err
	}
	s.holding = false
	s.selected = m.To
	return nil
}

// CheckMove reports whether from->to is legal without applying it.
func (s *State) CheckMove(from, to int) error {
	if err := validatePeg(from); err != nil {
		return err
	}
	if err := validatePeg(to); err != nil {
		return err
	}
	if from == to {
		return &IllegalMoveError{From: from, To: to, Reason: ReasonSamePeg}
	}
	src, ok := s.pegs[from].Peek()
	if !ok {
		return &IllegalMoveError{From: from, To: to, Reason: ReasonEmptySource}
	}
	if !s.pegs[to].Accepts(src) {
		return &IllegalMoveError{From: from, To: to, Reason: ReasonLargerOnSmall}
	}
	return nil
}

// LegalMoves lists every legal move in the current configuration.
func (s *State) LegalMoves() []Move {
	if s.won {
		return nil
	}
	var out []Move
	for from := 0; from < NumPegs; from++ {
		for to := 0; to < NumPegs; to++ {
			if s.CheckMove(from, to) == nil {
				out = append(out, Move{From: from, To: to})
			}
		}
	}
	return out
}

func (s *State) apply(from, to int) error {
	if err := s.CheckMove(from, to); err != nil {
		return err
	}
	d, err := s.pegs[from].Pop()
	if err != nil {
		return &IllegalMoveError{From: from, To: to, Reason: ReasonEmptySource}
	}
	s.pegs[to].Push(d)
	s.moveCount++
	if to != SourcePeg && s.pegs[to].Size() == s.diskCount {
		s.won = true
		s.optimal = s.moveCount == MinMoves(s.diskCount)
	}
	return nil
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		DiskCount:    s.diskCount,
		MoveCount:    s.moveCount,
		MinMoves:     MinMoves(s.diskCount),
		SelectedPeg:  s.selected,
		HasSelection: s.holding,
		Won:          s.won,
		Optimal:      s.Optimal(),
	}
	for i := range s.pegs {
		snap.Pegs[i] = s.pegs[i].Ranks()
	}
	return snap
}

// CheckInvariants verifies disk conservation and the stacking rule.
func (s *State) CheckInvariants() error {
	seen := make(map[int]bool, s.diskCount)
	for i := range s.pegs {
		if !s.pegs[i].ordered() {
			return fmt.Errorf("%w: peg %d out of order %v", ErrInvariant, i, s.pegs[i].Ranks())
		}
		for _, r := range s.pegs[i].Ranks() {
			if r < 1 || r > s.diskCount || seen[r] {
				return fmt.Errorf("%w: unexpected rank %d on peg %d", ErrInvariant, r, i)
			}
			seen[r] = true
		}
	}
	if len(seen) != s.diskCount {
		return fmt.Errorf("%w: %d disks in play, want %d", ErrInvariant, len(seen), s.diskCount)
	}
	return nil
}
