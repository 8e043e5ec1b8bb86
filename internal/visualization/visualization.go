// Package visualization renders a compiled Statechart as Graphviz DOT or
// Mermaid source, optionally highlighting an active configuration.
package visualization

import (
	"sort"

	"github.com/ethan/exm"
)

// childrenOf groups every node in sc by its parent, sorted for deterministic
// output, plus the list of nodes with no parent recorded (root, by
// construction).
func childrenOf(sc *exm.Statechart, names []string) (map[string][]string, []string) {
	children := make(map[string][]string)
	var roots []string
	for _, name := range names {
		node, ok := sc.Node(name)
		if !ok {
			continue
		}
		if node.Parent == "" {
			roots = append(roots, name)
			continue
		}
		children[node.Parent] = append(children[node.Parent], name)
	}
	for parent := range children {
		sort.Strings(children[parent])
	}
	sort.Strings(roots)
	return children, roots
}

func allNames(sc *exm.Statechart, roots ...string) []string {
	seen := map[string]struct{}{}
	var walk func(string)
	var out []string
	walk = func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
		for child := range sc.Descendants(name) {
			if _, ok := seen[child]; !ok {
				seen[child] = struct{}{}
				out = append(out, child)
			}
		}
	}
	if len(roots) > 0 {
		for _, r := range roots {
			walk(r)
		}
		return out
	}
	walk("root")
	return out
}

func isActive(active map[string]struct{}, name string) bool {
	_, ok := active[name]
	return ok
}

func activeSet(configuration []string) map[string]struct{} {
	out := make(map[string]struct{}, len(configuration))
	for _, s := range configuration {
		out[s] = struct{}{}
	}
	return out
}

// allTransitions walks every node in sc and returns its outgoing
// transitions paired with their source state name.
func allTransitions(sc *exm.Statechart, names []string) []struct {
	From string
	exm.CompiledTransition
} {
	var out []struct {
		From string
		exm.CompiledTransition
	}
	for _, name := range names {
		node, ok := sc.Node(name)
		if !ok {
			continue
		}
		events := make([]string, 0, len(node.Transitions))
		for event := range node.Transitions {
			events = append(events, event)
		}
		sort.Strings(events)
		for _, event := range events {
			out = append(out, struct {
				From string
				exm.CompiledTransition
			}{From: name, CompiledTransition: node.Transitions[event]})
		}
	}
	return out
}
