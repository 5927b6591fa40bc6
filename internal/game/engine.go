package game

// Move transfers the top disk of peg From onto peg To.
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	Pegs         [NumPegs][]int `json:"pegs"` // ranks, bottom first
	DiskCount    int            `json:"disks"`
	MoveCount    int            `json:"moves"`
	MinMoves     int            `json:"minMoves"`
	SelectedPeg  int            `json:"selected"`
	HasSelection bool           `json:"holding"`
	Won          bool           `json:"won"`
	Optimal      bool           `json:"optimal,omitempty"` // only meaningful once Won
}

// Engine is what the controller needs from a puzzle.
type Engine interface {
	DiskCount() int
	Status() Status
	SelectPeg(i int) error
	PickUp() error
	DropOnPeg(j int) error
	Move(m Move) error
	LegalMoves() []Move
	Reset(n int) error
	Snapshot() Snapshot
	IsFinished() bool
}

var _ Engine = (*State)(nil)
