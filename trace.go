package exm

import "time"

// Microstep records a single transition: the set of states exited, the
// transition action (if any), and the set of states entered, together with
// the full ordered action list that was folded over the context. A
// Microstep with a nil Transition represents the initial entry into the
// machine.
type Microstep struct {
	Transition *CompiledTransition
	Params     any
	Entered    []string
	Exited     []string
	Actions    []ActionFunc
}

// Macrostep records the processing of one external event to quiescence: the
// triggering event (nil for the initial macrostep), every transition taken
// while draining the internal queue, and the ordered list of Microsteps
// that produced them.
type Macrostep struct {
	Timestamp   time.Time
	Event       *Event
	Transitions []CompiledTransition
	Entered     []string
	Exited      []string
	Actions     []ActionFunc
	Microsteps  []Microstep
}

func newMacrostep(ts time.Time, evt *Event) Macrostep {
	return Macrostep{Timestamp: ts, Event: evt}
}
