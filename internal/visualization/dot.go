package visualization

import (
	"bytes"
	"fmt"

	"github.com/ethan/exm"
)

// ToDOT renders sc as a Graphviz DOT directed graph: composite states become
// clusters, transitions become labeled edges. If configuration is non-nil,
// its states are filled to mark them active.
func ToDOT(sc *exm.Statechart, configuration []string) string {
	var buf bytes.Buffer
	active := activeSet(configuration)
	names := allNames(sc)
	children, roots := childrenOf(sc, names)

	buf.WriteString("digraph statechart {\n  rankdir=LR;\n  node [shape=box, fontsize=10, style=rounded];\n  edge [fontsize=9];\n")

	var renderCluster func(name string, indent string)
	renderCluster = func(name string, indent string) {
		node, _ := sc.Node(name)
		kids := children[name]
		if len(kids) == 0 {
			style := ""
			if isActive(active, name) {
				style = ", style=\"rounded,filled\", fillcolor=lightgreen"
			}
			fmt.Fprintf(&buf, "%s\"%s\" [label=\"%s\"%s];\n", indent, name, name, style)
			return
		}

		fmt.Fprintf(&buf, "%ssubgraph cluster_%s {\n", indent, name)
		style := ""
		if isActive(active, name) {
			style = ", style=filled, fillcolor=orange"
		}
		fmt.Fprintf(&buf, "%s  label=\"%s\"%s;\n", indent, name, style)
		if node.Initial != "" {
			fmt.Fprintf(&buf, "%s  \"__init_%s\" [shape=point, label=\"\"];\n", indent, name)
			fmt.Fprintf(&buf, "%s  \"__init_%s\" -> \"%s\";\n", indent, name, node.Initial)
		}
		for _, kid := range kids {
			renderCluster(kid, indent+"  ")
		}
		fmt.Fprintf(&buf, "%s}\n", indent)
	}

	for _, r := range roots {
		for _, kid := range children[r] {
			renderCluster(kid, "  ")
		}
	}

	for _, t := range allTransitions(sc, names) {
		fmt.Fprintf(&buf, "  \"%s\" -> \"%s\" [label=\"%s\"];\n", t.From, t.Target, t.Name)
	}

	buf.WriteString("}\n")
	return buf.String()
}
