package visualization

import (
	"bytes"
	"fmt"

	"github.com/ethan/exm"
)

// ToMermaid renders sc as a Mermaid stateDiagram-v2 definition. If
// configuration is non-nil its states get a ":::active" CSS class so the
// caller's Mermaid theme can highlight them.
func ToMermaid(sc *exm.Statechart, configuration []string) string {
	var buf bytes.Buffer
	active := activeSet(configuration)
	names := allNames(sc)
	children, roots := childrenOf(sc, names)

	buf.WriteString("stateDiagram-v2\n")
	for _, r := range roots {
		if node, ok := sc.Node(r); ok && node.Initial != "" {
			fmt.Fprintf(&buf, "[*] --> %s\n", node.Initial)
		}
	}

	var render func(name, indent string)
	render = func(name, indent string) {
		node, _ := sc.Node(name)
		kids := children[name]
		class := ""
		if isActive(active, name) {
			class = ":::active"
		}
		if len(kids) == 0 {
			fmt.Fprintf(&buf, "%sstate %s%s\n", indent, name, class)
			return
		}
		fmt.Fprintf(&buf, "%sstate %s%s {\n", indent, name, class)
		if node.Initial != "" {
			fmt.Fprintf(&buf, "%s  [*] --> %s\n", indent, node.Initial)
		}
		for _, kid := range kids {
			render(kid, indent+"  ")
		}
		fmt.Fprintf(&buf, "%s}\n", indent)
	}

	for _, r := range roots {
		for _, kid := range children[r] {
			render(kid, "")
		}
	}

	for _, t := range allTransitions(sc, names) {
		fmt.Fprintf(&buf, "%s --> %s : %s\n", t.From, t.Target, t.Name)
	}

	return buf.String()
}
