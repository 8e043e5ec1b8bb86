package exm

import (
	"errors"
	"testing"
)

func set(key string, val any) ActionFunc {
	return func(c Context) Context { return c.Put(key, val) }
}

func raise(event string) ActionFunc {
	return func(c Context) Context { return c.RaiseEvent(NewEvent(event)) }
}

// S1 Turn on.
func TestMachine_S1_TurnOn(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{},
			"s2": &SimpleState{},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"s1", "root"}) {
		t.Fatalf("configuration = %v", got)
	}
	if !m.Running {
		t.Fatalf("want running")
	}
	if len(m.Macrosteps) != 1 {
		t.Fatalf("want 1 macrostep, got %d", len(m.Macrosteps))
	}
}

// S2 Entry that raises an internal event.
func TestMachine_S2_EntryRaisesEvent(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{
				Entry:       raise("evt"),
				Transitions: map[string]TransitionSpec{"evt": To("s2")},
			},
			"s2": &SimpleState{},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"s2", "root"}) {
		t.Fatalf("configuration = %v", got)
	}
	if len(m.Macrosteps) != 1 {
		t.Fatalf("want 1 macrostep, got %d", len(m.Macrosteps))
	}
	if got := len(m.LastMicrosteps()); got != 2 {
		t.Fatalf("want 2 microsteps, got %d", got)
	}
}

// S3 Change state.
func TestMachine_S3_ChangeState(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{
				Entry:       set("foo", 1),
				Transitions: map[string]TransitionSpec{"e1": To("s2")},
			},
			"s2": &SimpleState{
				Entry:       set("foo", 2),
				Transitions: map[string]TransitionSpec{"e2": To("s1")},
			},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext().Put("foo", 0))
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	m, err = Dispatch(m, NewEvent("e1"))
	if err != nil {
		t.Fatalf("dispatch e1: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"s2", "root"}) {
		t.Fatalf("after e1 configuration = %v", got)
	}
	if got := m.Context.Get("foo", nil); got != 2 {
		t.Fatalf("after e1 foo = %v", got)
	}

	m, err = Dispatch(m, NewEvent("e2"))
	if err != nil {
		t.Fatalf("dispatch e2: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"s1", "root"}) {
		t.Fatalf("after e2 configuration = %v", got)
	}
	if got := m.Context.Get("foo", nil); got != 1 {
		t.Fatalf("after e2 foo = %v", got)
	}

	before := m
	m, err = Dispatch(m, NewEvent("unknown"))
	if err != nil {
		t.Fatalf("dispatch unknown: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, before.ActiveStates()) {
		t.Fatalf("unknown event changed configuration: %v", got)
	}
	if got := m.Context.Get("foo", nil); got != before.Context.Get("foo", nil) {
		t.Fatalf("unknown event changed context: %v", got)
	}
}

// S4 RTC chain.
func TestMachine_S4_RTCChain(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{
				Entry:       set("foo", 1),
				Transitions: map[string]TransitionSpec{"e1": To("s2")},
			},
			"s2": &SimpleState{
				Entry:       raise("e2"),
				Transitions: map[string]TransitionSpec{"e2": To("s3")},
			},
			"s3": &SimpleState{
				Entry:       raise("e3"),
				Transitions: map[string]TransitionSpec{"e3": To("s4")},
			},
			"s4": &SimpleState{
				Entry: set("foo", 4),
			},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext().Put("foo", 0))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	m, err = Dispatch(m, NewEvent("e1"))
	if err != nil {
		t.Fatalf("dispatch e1: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"s4", "root"}) {
		t.Fatalf("configuration = %v", got)
	}
	if got := m.Context.Get("foo", nil); got != 4 {
		t.Fatalf("foo = %v", got)
	}
	micro := m.LastMicrosteps()
	if len(micro) != 3 {
		t.Fatalf("want 3 microsteps, got %d", len(micro))
	}
	transitions := m.LastTransitions()
	if len(transitions) != 3 {
		t.Fatalf("want 3 transitions, got %d", len(transitions))
	}
	names := []string{transitions[0].Name, transitions[1].Name, transitions[2].Name}
	if !equalSlices(names, []string{"e1", "e2", "e3"}) {
		t.Fatalf("transition names = %v", names)
	}
}

// S5 Exit / transition / entry ordering.
func TestMachine_S5_ActionOrdering(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{
				Entry: set("foo", 1),
				Exit:  set("bar", 1),
				Transitions: map[string]TransitionSpec{
					"e1": To("s2").WithAction(set("baz", 1)),
				},
			},
			"s2": &SimpleState{
				Entry: set("foo", 2),
				Exit:  set("bar", 2),
				Transitions: map[string]TransitionSpec{
					"e1": To("s1").WithAction(set("baz", 2)),
				},
			},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext().Put("foo", 0).Put("bar", 0).Put("baz", 0))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := m.Context.Get("foo", nil); got != 1 {
		t.Fatalf("after init foo = %v", got)
	}
	if got := m.Context.Get("bar", nil); got != 0 {
		t.Fatalf("after init bar = %v", got)
	}
	if got := m.Context.Get("baz", nil); got != 0 {
		t.Fatalf("after init baz = %v", got)
	}

	m, err = Dispatch(m, NewEvent("e1"))
	if err != nil {
		t.Fatalf("dispatch e1: %v", err)
	}
	if got := m.Context.Get("foo", nil); got != 2 {
		t.Fatalf("after e1 foo = %v", got)
	}
	if got := m.Context.Get("bar", nil); got != 1 {
		t.Fatalf("after e1 bar = %v", got)
	}
	if got := m.Context.Get("baz", nil); got != 1 {
		t.Fatalf("after e1 baz = %v", got)
	}
}

// S6 Top-level final.
func TestMachine_S6_TopLevelFinal(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{
				Entry:       set("foo", 1),
				Transitions: map[string]TransitionSpec{"e1": To("exit")},
			},
			"exit": &FinalState{Entry: set("bar", 2)},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext().Put("foo", 0))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	m, err = Dispatch(m, NewEvent("e1"))
	if err != nil {
		t.Fatalf("dispatch e1: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"exit", "root"}) {
		t.Fatalf("configuration = %v", got)
	}
	if got := m.Context.Get("foo", nil); got != 1 {
		t.Fatalf("foo = %v", got)
	}
	if got := m.Context.Get("bar", nil); got != 2 {
		t.Fatalf("bar = %v", got)
	}
	if m.Running {
		t.Fatalf("want running = false")
	}

	_, err = Dispatch(m, NewEvent("e1"))
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("want ErrNotRunning, got %v", err)
	}
}

// S7 Nested final propagates done.state.<parent>.
func TestMachine_S7_NestedFinalPropagates(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Transitions: map[string]TransitionSpec{
			"done.state.s1": To("s2"),
		},
		Substates: map[string]Definition{
			"s1": &CompositeState{
				Initial: "s11",
				Substates: map[string]Definition{
					"s11": &SimpleState{
						Transitions: map[string]TransitionSpec{"e1": To("exit")},
					},
					"exit": &FinalState{Entry: set("bar", 0)},
				},
			},
			"s2": &SimpleState{Entry: set("foo", 2)},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext().Put("foo", 11))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"s11", "s1", "root"}) {
		t.Fatalf("configuration = %v", got)
	}

	m, err = Dispatch(m, NewEvent("e1"))
	if err != nil {
		t.Fatalf("dispatch e1: %v", err)
	}
	if got := m.ActiveStates(); !equalSlices(got, []string{"s2", "root"}) {
		t.Fatalf("configuration = %v", got)
	}
	if got := m.Context.Get("foo", nil); got != 2 {
		t.Fatalf("foo = %v", got)
	}
	if got := m.Context.Get("bar", nil); got != 0 {
		t.Fatalf("bar = %v", got)
	}
	if !m.Running {
		t.Fatalf("want running = true")
	}
}

// Universal invariant: reserved context keys never leak between dispatches.
func TestMachine_ReservedKeysNeverLeakAcrossDispatch(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{Transitions: map[string]TransitionSpec{"e1": To("s2")}},
			"s2": &SimpleState{Entry: raise("noop")},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	m, err = Dispatch(m, NewEvent("e1"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := m.Context.Get(paramsKey, nil); got != nil {
		t.Fatalf("params leaked into context: %v", got)
	}
	if got := m.Context.Get(queueKey, nil); got != nil {
		t.Fatalf("queue leaked into context: %v", got)
	}
	if len(m.Queue) != 0 {
		t.Fatalf("want drained queue, got %v", m.Queue)
	}
}

// Universal invariant: an unmatched event leaves configuration and context unchanged.
func TestMachine_UnmatchedEventIsNoop(t *testing.T) {
	def := &CompositeState{
		Initial: "s1",
		Substates: map[string]Definition{
			"s1": &SimpleState{},
			"s2": &SimpleState{},
		},
	}
	sc, err := Build(def)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, err := Init(sc, NewContext().Put("k", "v"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	next, err := Dispatch(m, NewEvent("nope"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !equalSlices(next.ActiveStates(), m.ActiveStates()) {
		t.Fatalf("configuration changed on no-op dispatch")
	}
	if next.Context.Get("k", nil) != m.Context.Get("k", nil) {
		t.Fatalf("context changed on no-op dispatch")
	}
}
