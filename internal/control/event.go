package control

import "github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"

type EventKind string

const (
	EventState    EventKind = "state"
	EventWon      EventKind = "won"
	EventRejected EventKind = "rejected"
	EventTaskDone EventKind = "task_done"
)

// Event is delivered to listeners after every accepted or rejected command.
type Event struct {
	Kind     EventKind
	Snapshot game.Snapshot
	Err      error  // EventRejected, or a failed task
	Task     string // EventTaskDone
}

// Listener receives events in command order. Listeners run while the
// controller is locked and must not call back into it.
type Listener func(Event)
