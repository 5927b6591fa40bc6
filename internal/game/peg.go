package game

// Peg is a LIFO stack of disks ordered bottom to top. It keeps ordering
// integrity only; the stacking rule is enforced by State.
type Peg struct {
	disks []Disk
}

// Peek returns the top disk without removing it.
func (p *Peg) Peek() (Disk, bool) {
	if len(p.disks) == 0 {
		return Disk{}, false
	}
	return p.disks[len(p.disks)-1], true
}

func (p *Peg) Push(d Disk) {
	p.disks = append(p.disks, d)
}

// Pop removes and returns the top disk. Popping an empty peg is a contract
// violation: it panics in debug builds and returns ErrEmptyPeg otherwise.
func (p *Peg) Pop() (Disk, error) {
	if len(p.disks) == 0 {
		contractViolation(ErrEmptyPeg)
		return Disk{}, ErrEmptyPeg
	}
	last := len(p.disks) - 1
	d := p.disks[last]
	p.disks = p.disks[:last]
	return d, nil
}

func (p *Peg) Size() int { return len(p.disks) }

// Accepts reports whether d may be placed on top of p.
func (p *Peg) Accepts(d Disk) bool {
	top, ok := p.Peek()
	return !ok || d.Smaller(top)
}

// Ranks returns the disk ranks bottom first.
func (p *Peg) Ranks() []int {
	out := make([]int, len(p.disks))
	for i, d := range p.disks {
		out[i] = d.rank
	}
	return out
}

func (p *Peg) clear() {
	p.disks = p.disks[:0]
}

// ordered reports whether ranks strictly decrease from bottom to top.
func (p *Peg) ordered() bool {
	for i := 1; i < len(p.disks); i++ {
		if !p.disks[i].Smaller(p.disks[i-1]) {
			return false
		}
	}
	return true
}
