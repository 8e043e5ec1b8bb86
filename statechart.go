package exm

import "fmt"

// StateKind tags the variant a StateNode was compiled from.
type StateKind int

const (
	KindSimple StateKind = iota
	KindComposite
	KindFinal
	KindShallowHistory
	KindDeepHistory
)

// CompiledTransition is the normalized form of a TransitionSpec, keyed by
// the event name (Name) on the state that declared it.
type CompiledTransition struct {
	Name   string
	Target string
	Guard  GuardFunc
	Action ActionFunc
}

// StateNode is one entry of the compiled, flat statechart graph.
type StateNode struct {
	Name        string
	Kind        StateKind
	Parent      string // "" for root
	Children    map[string]struct{}
	Initial     string // "" if none (simple/final/history states)
	Transitions map[string]CompiledTransition
	Entry       ActionFunc
	Exit        ActionFunc
	HasHistory  bool
}

// Statechart is the immutable, compiled form of a Definition tree: a flat
// name -> *StateNode map plus the graph queries the interpreter needs.
type Statechart struct {
	nodes map[string]*StateNode
}

// Build compiles a Definition tree into a Statechart, or fails with
// ErrInvalidDefinition, ErrNotValidInitial, ErrNotDefinedState, or
// ErrDuplicatedState.
func Build(root Definition) (*Statechart, error) {
	if _, ok := root.(*CompositeState); !ok {
		return nil, invalidDefinitionError("root definition must be a composite state")
	}

	nodes := make(map[string]*StateNode)
	var dups []string
	if err := compileNode("root", "", root, nodes, &dups); err != nil {
		return nil, err
	}
	if len(dups) > 0 {
		return nil, duplicatedStateError(dups)
	}
	if err := validateInitials(nodes); err != nil {
		return nil, err
	}
	if err := validateTransitionTargets(nodes); err != nil {
		return nil, err
	}
	return &Statechart{nodes: nodes}, nil
}

func compileNode(name, parent string, def Definition, nodes map[string]*StateNode, dups *[]string) error {
	if _, exists := nodes[name]; exists {
		*dups = append(*dups, name)
	}

	switch d := def.(type) {
	case *CompositeState:
		if len(d.Substates) == 0 {
			return invalidDefinitionError(fmt.Sprintf("composite state %q has no substates", name))
		}
		node := &StateNode{
			Name:        name,
			Kind:        KindComposite,
			Parent:      parent,
			Children:    make(map[string]struct{}, len(d.Substates)),
			Initial:     d.Initial,
			Transitions: normalizeTransitions(d.Transitions),
			Entry:       d.Entry,
			Exit:        d.Exit,
		}
		nodes[name] = node
		for childName, childDef := range d.Substates {
			node.Children[childName] = struct{}{}
			if _, ok := childDef.(*HistoryState); ok {
				node.HasHistory = true
			}
			if err := compileNode(childName, name, childDef, nodes, dups); err != nil {
				return err
			}
		}
	case *SimpleState:
		nodes[name] = &StateNode{
			Name:        name,
			Kind:        KindSimple,
			Parent:      parent,
			Transitions: normalizeTransitions(d.Transitions),
			Entry:       d.Entry,
			Exit:        d.Exit,
		}
	case *FinalState:
		nodes[name] = &StateNode{
			Name:   name,
			Kind:   KindFinal,
			Parent: parent,
			Entry:  d.Entry,
		}
	case *HistoryState:
		kind := KindShallowHistory
		if d.Kind == DeepHistory {
			kind = KindDeepHistory
		}
		nodes[name] = &StateNode{
			Name:   name,
			Kind:   kind,
			Parent: parent,
		}
	default:
		return invalidDefinitionError(fmt.Sprintf("state %q has an unrecognized definition type", name))
	}
	return nil
}

func normalizeTransitions(specs map[string]TransitionSpec) map[string]CompiledTransition {
	out := make(map[string]CompiledTransition, len(specs))
	for event, spec := range specs {
		out[event] = CompiledTransition{
			Name:   event,
			Target: spec.Target,
			Guard:  spec.Guard,
			Action: spec.Action,
		}
	}
	return out
}

func validateInitials(nodes map[string]*StateNode) error {
	for name, node := range nodes {
		if node.Kind != KindComposite {
			continue
		}
		if node.Initial == "" {
			return invalidDefinitionError(fmt.Sprintf("composite state %q has no initial child", name))
		}
		if !isDescendant(nodes, node.Initial, name) {
			return notValidInitialError(node.Initial, name)
		}
	}
	return nil
}

func validateTransitionTargets(nodes map[string]*StateNode) error {
	for _, node := range nodes {
		for _, t := range node.Transitions {
			if _, ok := nodes[t.Target]; !ok {
				return notDefinedStateError(t.Target)
			}
		}
	}
	return nil
}

func isDescendant(nodes map[string]*StateNode, name, ancestor string) bool {
	n, ok := nodes[name]
	if !ok {
		return false
	}
	for n.Parent != "" {
		if n.Parent == ancestor {
			return true
		}
		n = nodes[n.Parent]
	}
	return false
}

// Node returns the compiled node for name, if it exists.
func (sc *Statechart) Node(name string) (*StateNode, bool) {
	n, ok := sc.nodes[name]
	return n, ok
}

// Ancestors returns name's ancestors, nearest parent first, ending at and
// including "root". Empty for the root itself.
func (sc *Statechart) Ancestors(name string) []string {
	var out []string
	n, ok := sc.nodes[name]
	if !ok {
		return out
	}
	for n.Parent != "" {
		out = append(out, n.Parent)
		n = sc.nodes[n.Parent]
	}
	return out
}

// AncestorsUntil returns Ancestors(name) truncated just before until
// (exclusive).
func (sc *Statechart) AncestorsUntil(name, until string) []string {
	var out []string
	for _, a := range sc.Ancestors(name) {
		if a == until {
			break
		}
		out = append(out, a)
	}
	return out
}

// Descendants returns the set of name's transitive children, not including
// name itself.
func (sc *Statechart) Descendants(name string) map[string]struct{} {
	out := make(map[string]struct{})
	if _, ok := sc.nodes[name]; !ok {
		return out
	}
	var walk func(string)
	walk = func(cur string) {
		node := sc.nodes[cur]
		for child := range node.Children {
			out[child] = struct{}{}
			walk(child)
		}
	}
	walk(name)
	return out
}

// InitialChain returns [name, Initial(name), Initial(Initial(name)), ...],
// stopping when a state has no Initial child. History states are leaves for
// this purpose: they are never substituted for a saved configuration.
func (sc *Statechart) InitialChain(name string) []string {
	chain := []string{name}
	cur := name
	for {
		n, ok := sc.nodes[cur]
		if !ok || n.Initial == "" {
			break
		}
		chain = append(chain, n.Initial)
		cur = n.Initial
	}
	return chain
}

// EntryActions returns the Entry functions of states, in order, skipping
// states with no Entry.
func (sc *Statechart) EntryActions(states []string) []ActionFunc {
	var out []ActionFunc
	for _, s := range states {
		if n, ok := sc.nodes[s]; ok && n.Entry != nil {
			out = append(out, n.Entry)
		}
	}
	return out
}

// ExitActions returns the Exit functions of states, in order, skipping
// states with no Exit.
func (sc *Statechart) ExitActions(states []string) []ActionFunc {
	var out []ActionFunc
	for _, s := range states {
		if n, ok := sc.nodes[s]; ok && n.Exit != nil {
			out = append(out, n.Exit)
		}
	}
	return out
}

// TransitionFor returns the transition declared on state (not inherited)
// for event, if any.
func (sc *Statechart) TransitionFor(state, event string) (CompiledTransition, bool) {
	n, ok := sc.nodes[state]
	if !ok {
		return CompiledTransition{}, false
	}
	t, ok := n.Transitions[event]
	return t, ok
}

// LCCA returns the least common compound ancestor of states, or false if
// any element of states is "root" (which has no ancestor able to contain
// it). Pair usage: LCCA([source, target]) walks source's ancestors nearest
// first and returns the first one that also has target as a descendant.
func (sc *Statechart) LCCA(states []string) (string, bool) {
	if len(states) == 0 {
		return "", false
	}
	for _, s := range states {
		if s == "root" {
			return "", false
		}
	}
	source := states[0]
	rest := states[1:]
	for _, candidate := range sc.Ancestors(source) {
		descendants := sc.Descendants(candidate)
		ok := true
		for _, other := range rest {
			if other == candidate {
				ok = false
				break
			}
			if _, isDesc := descendants[other]; !isDesc {
				ok = false
				break
			}
		}
		if ok {
			return candidate, true
		}
	}
	return "", false
}

// ExitingStates returns the states to exit when transitioning from source
// with the given lcca: source itself, then its ancestors up to (excluding)
// lcca, deepest first.
func (sc *Statechart) ExitingStates(source, lcca string) []string {
	return append([]string{source}, sc.AncestorsUntil(source, lcca)...)
}

// EnteringStates returns the states to enter when transitioning to target
// with the given lcca: target's ancestors between lcca and target,
// shallowest first, followed by target's initial chain.
func (sc *Statechart) EnteringStates(target, lcca string) []string {
	between := sc.AncestorsUntil(target, lcca)
	reversed := make([]string, len(between))
	for i, v := range between {
		reversed[len(between)-1-i] = v
	}
	return append(reversed, sc.InitialChain(target)...)
}
