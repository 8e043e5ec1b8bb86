package exm

// Builder offers a fluent alternative to constructing a Definition tree
// from literal struct values, mirroring the teacher's NewDef().State()...
// chain but generalized to nested composites: a Builder under construction
// is itself a Definition variant in progress, and Sub attaches a built child
// Definition under a parent's substates.
type Builder struct {
	kind        StateKind
	initial     string
	substates   map[string]Definition
	transitions map[string]TransitionSpec
	entry       ActionFunc
	exit        ActionFunc
	historyKind HistoryKind
}

// NewComposite starts building a composite state with the given initial
// child name.
func NewComposite(initial string) *Builder {
	return &Builder{
		kind:        KindComposite,
		initial:     initial,
		substates:   make(map[string]Definition),
		transitions: make(map[string]TransitionSpec),
	}
}

// NewSimple starts building a leaf (simple) state.
func NewSimple() *Builder {
	return &Builder{kind: KindSimple, transitions: make(map[string]TransitionSpec)}
}

// NewFinal starts building a final state.
func NewFinal() *Builder {
	return &Builder{kind: KindFinal}
}

// NewHistory builds a history pseudostate of the given kind.
func NewHistory(kind HistoryKind) *Builder {
	return &Builder{kind: historyNodeKind(kind), historyKind: kind}
}

func historyNodeKind(kind HistoryKind) StateKind {
	if kind == DeepHistory {
		return KindDeepHistory
	}
	return KindShallowHistory
}

// Sub attaches a child definition under name. Only meaningful on a
// composite builder; it is a no-op otherwise.
func (b *Builder) Sub(name string, child Definition) *Builder {
	if b.kind == KindComposite {
		b.substates[name] = child
	}
	return b
}

// On attaches a transition for event, keyed on the enclosing state.
func (b *Builder) On(event string, spec TransitionSpec) *Builder {
	if b.transitions == nil {
		b.transitions = make(map[string]TransitionSpec)
	}
	b.transitions[event] = spec
	return b
}

// OnEntry sets the entry action.
func (b *Builder) OnEntry(fn ActionFunc) *Builder {
	b.entry = fn
	return b
}

// OnExit sets the exit action.
func (b *Builder) OnExit(fn ActionFunc) *Builder {
	b.exit = fn
	return b
}

// Build renders the accumulated configuration into a concrete Definition
// value. It performs no validation itself — that is Statechart's job.
func (b *Builder) Build() Definition {
	switch b.kind {
	case KindComposite:
		return &CompositeState{
			Initial:     b.initial,
			Substates:   b.substates,
			Transitions: b.transitions,
			Entry:       b.entry,
			Exit:        b.exit,
		}
	case KindFinal:
		return &FinalState{Entry: b.entry}
	case KindShallowHistory:
		return &HistoryState{Kind: ShallowHistory}
	case KindDeepHistory:
		return &HistoryState{Kind: DeepHistory}
	default:
		return &SimpleState{
			Transitions: b.transitions,
			Entry:       b.entry,
			Exit:        b.exit,
		}
	}
}

