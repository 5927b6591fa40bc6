package game

// Disk is a puzzle piece. Rank 1 is the smallest.
type Disk struct {
	rank int
}

func NewDisk(rank int) Disk { return Disk{rank: rank} }

func (d Disk) Rank() int { return d.rank }

// Smaller reports whether d can rest on top of o.
func (d Disk) Smaller(o Disk) bool { return d.rank < o.rank }

// newTower returns n disks ordered bottom (rank n) to top (rank 1).
func newTower(n int) []Disk {
	out := make([]Disk, 0, n)
	for r := n; r > 0; r-- {
		out = append(out, Disk{rank: r})
	}
	return out
}
