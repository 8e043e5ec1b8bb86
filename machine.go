package exm

import "time"

// Machine is the running instance of a Statechart: its active configuration,
// context, pending internal queue, and macrostep history. Init, Dispatch,
// and Resume are the only ways to produce a Machine; each returns a fresh
// value and leaves the one it was called with (if any) untouched.
type Machine struct {
	Statechart     *Statechart
	Configuration  [][]string
	Running        bool
	Macrosteps     []Macrostep // newest first
	Queue          []Event
	Context        Context
	StateHistories map[string][]string
}

// Init builds a running Machine from a compiled Statechart and an initial
// Context: it enters the statechart's initial chain and drains any events
// raised by entry actions before returning.
func Init(sc *Statechart, ctx Context) (*Machine, error) {
	if sc == nil {
		return nil, invalidDefinitionError("nil statechart")
	}
	if ctx == nil {
		ctx = NewContext()
	}

	m := &Machine{
		Statechart:     sc,
		Context:        ctx,
		Macrosteps:     []Macrostep{newMacrostep(time.Now(), nil)},
		StateHistories: make(map[string][]string),
	}

	entered := sc.InitialChain("root")
	ms := Microstep{
		Entered: entered,
		Actions: sc.EntryActions(entered),
	}
	m = m.applyMicrostep(ms)
	m = m.drainInternal()
	m.Running = true
	return m, nil
}

// Resume rebuilds a Machine from a previously saved configuration and
// context, without re-running entry actions. It is the inverse of a
// persistence layer's snapshot step: configuration must be a single branch,
// leaf first, ending at "root", with every adjacent pair matching the
// compiled statechart's parent relationships (invariants 1 and 2).
func Resume(sc *Statechart, configuration [][]string, ctx Context, running bool) (*Machine, error) {
	if sc == nil {
		return nil, invalidDefinitionError("nil statechart")
	}
	if len(configuration) != 1 || len(configuration[0]) == 0 {
		return nil, invalidDefinitionError("configuration must contain exactly one non-empty branch")
	}
	branch := configuration[0]
	if branch[len(branch)-1] != "root" {
		return nil, invalidDefinitionError("branch must end at root")
	}
	for i, name := range branch {
		node, ok := sc.Node(name)
		if !ok {
			return nil, notDefinedStateError(name)
		}
		if i+1 < len(branch) && node.Parent != branch[i+1] {
			return nil, invalidDefinitionError("branch " + name + " does not match compiled parent chain")
		}
	}
	if ctx == nil {
		ctx = NewContext()
	}

	return &Machine{
		Statechart:     sc,
		Configuration:  [][]string{append([]string{}, branch...)},
		Running:        running,
		Context:        ctx,
		Macrosteps:     []Macrostep{newMacrostep(time.Now(), nil)},
		StateHistories: make(map[string][]string),
	}, nil
}

// Dispatch processes one external event to quiescence (run-to-completion)
// and returns the resulting Machine. Dispatching on a stopped machine fails
// with ErrNotRunning.
func Dispatch(m *Machine, event Event) (*Machine, error) {
	if !m.Running {
		return nil, ErrNotRunning
	}
	next := m.clone()
	next.Macrosteps = append([]Macrostep{newMacrostep(time.Now(), &event)}, next.Macrosteps...)
	next = next.doTransition(event)
	next = next.drainInternal()
	return next, nil
}

// LastMacrostep returns the most recently started or completed macrostep.
func (m *Machine) LastMacrostep() Macrostep {
	return m.Macrosteps[0]
}

// LastMicrosteps returns the microsteps of the most recent macrostep.
func (m *Machine) LastMicrosteps() []Microstep {
	return m.Macrosteps[0].Microsteps
}

// LastTransitions returns the transitions taken during the most recent
// macrostep, in execution order.
func (m *Machine) LastTransitions() []CompiledTransition {
	return m.Macrosteps[0].Transitions
}

// ActiveStates returns the currently active branch, leaf first, ending at
// "root".
func (m *Machine) ActiveStates() []string {
	if len(m.Configuration) == 0 {
		return nil
	}
	return append([]string{}, m.Configuration[0]...)
}

func (m *Machine) clone() *Machine {
	next := &Machine{
		Statechart: m.Statechart,
		Running:    m.Running,
		Context:    m.Context,
	}
	next.Configuration = make([][]string, len(m.Configuration))
	for i, branch := range m.Configuration {
		next.Configuration[i] = append([]string{}, branch...)
	}
	next.Macrosteps = append([]Macrostep{}, m.Macrosteps...)
	next.Queue = append([]Event{}, m.Queue...)
	next.StateHistories = make(map[string][]string, len(m.StateHistories))
	for k, v := range m.StateHistories {
		next.StateHistories[k] = append([]string{}, v...)
	}
	return next
}

// doTransition searches the active branch, leaf to root, for a transition
// matching evt and applies it. If no transition fires, m is returned
// unchanged: configuration, context, and running are all preserved exactly
// as they were, and the params written for guard evaluation are discarded
// rather than ever becoming observable.
func (m *Machine) doTransition(evt Event) *Machine {
	if evt.Name == doneStateRoot {
		next := m.clone()
		next.Running = false
		return next
	}

	branch := []string{}
	if len(m.Configuration) > 0 {
		branch = m.Configuration[0]
	}
	ctxWithParams := m.Context.PutParams(evt.Params)

	var found *CompiledTransition
	for _, state := range branch {
		t, ok := m.Statechart.TransitionFor(state, evt.Name)
		if !ok {
			continue
		}
		if t.Guard == nil {
			found = &t
			break
		}
		if t.Guard(ctxWithParams) {
			found = &t
			break
		}
		// Guard declined: keep walking up the branch rather than retrying
		// this state, since a state has at most one transition per event.
	}

	if found == nil {
		return m
	}

	source := ""
	if len(branch) > 0 {
		source = branch[0]
	}
	lcca, ok := m.Statechart.LCCA([]string{source, found.Target})
	if !ok {
		lcca = "root"
	}
	exiting := m.Statechart.ExitingStates(source, lcca)
	entering := m.Statechart.EnteringStates(found.Target, lcca)

	actions := append([]ActionFunc{}, m.Statechart.ExitActions(exiting)...)
	if found.Action != nil {
		actions = append(actions, found.Action)
	}
	actions = append(actions, m.Statechart.EntryActions(entering)...)

	transition := *found
	next := m.clone()
	next.Context = ctxWithParams
	next = next.applyMicrostep(Microstep{
		Transition: &transition,
		Params:     evt.Params,
		Entered:    entering,
		Exited:     exiting,
		Actions:    actions,
	})
	next.Context = next.Context.DeleteParams()
	return next
}

// applyMicrostep folds ms.Actions over the context, updates the active
// configuration, records history for any exited state that has it, appends
// ms to the head macrostep, and appends (not replaces) any events raised
// during the fold onto the interpreter queue.
func (m *Machine) applyMicrostep(ms Microstep) *Machine {
	next := m.clone()

	oldBranch := []string{}
	if len(next.Configuration) > 0 {
		oldBranch = next.Configuration[0]
	}

	leaf := ""
	if len(ms.Entered) > 0 {
		leaf = ms.Entered[len(ms.Entered)-1]
	} else if len(oldBranch) > 0 {
		leaf = oldBranch[0]
	}

	for _, name := range ms.Exited {
		if node, ok := next.Statechart.Node(name); ok && node.HasHistory {
			next.StateHistories[name] = subConfigurationBelow(oldBranch, name)
		}
	}

	branch := append([]string{leaf}, next.Statechart.Ancestors(leaf)...)
	next.Configuration = [][]string{branch}

	head := next.Macrosteps[0]
	head.Microsteps = append(append([]Microstep{}, head.Microsteps...), ms)
	head.Entered = append(append([]string{}, head.Entered...), ms.Entered...)
	head.Exited = append(append([]string{}, head.Exited...), ms.Exited...)
	head.Actions = append(append([]ActionFunc{}, head.Actions...), ms.Actions...)
	if ms.Transition != nil {
		head.Transitions = append(append([]CompiledTransition{}, head.Transitions...), *ms.Transition)
	}
	next.Macrosteps = append([]Macrostep{head}, next.Macrosteps[1:]...)

	ctx := next.Context
	for _, action := range ms.Actions {
		ctx = action(ctx)
	}

	if node, ok := next.Statechart.Node(leaf); ok && node.Kind == KindFinal {
		ctx = ctx.RaiseEvent(NewEvent(doneStateEvent(node.Parent)))
	}

	raised := ctx.queue()
	ctx = ctx.clearQueue()
	next.Context = ctx
	next.Queue = append(append([]Event{}, next.Queue...), raised...)

	return next
}

// drainInternal repeatedly pops the head of the internal queue and runs it
// through doTransition until the queue is empty or the machine stops.
func (m *Machine) drainInternal() *Machine {
	next := m
	for len(next.Queue) > 0 {
		evt := next.Queue[0]
		rest := append([]Event{}, next.Queue[1:]...)
		next = next.clone()
		next.Queue = rest
		next = next.doTransition(evt)
		if evt.Name == doneStateRoot {
			break
		}
	}
	return next
}

// subConfigurationBelow returns the prefix of branch (leaf first) strictly
// above name: the descendants of name that were active, leaf to just below
// name, excluding name itself.
func subConfigurationBelow(branch []string, name string) []string {
	for i, s := range branch {
		if s == name {
			return append([]string{}, branch[:i]...)
		}
	}
	return append([]string{}, branch...)
}
