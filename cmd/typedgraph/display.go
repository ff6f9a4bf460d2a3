package main

import (
	"fmt"
	"io"

	"github.com/aledsdavies/typedgraph/project"
)

// printVersionTree renders the project's version graph as a tree rooted
// at each version with no incoming changeset, walking forward edges with
// box-drawing connectors and marking heads in green.
func printVersionTree(w io.Writer, p *project.Project) {
	roots := p.Roots()
	if len(roots) == 0 {
		roots = p.Versions()
	}
	for i, root := range roots {
		printNode(w, p, root, "", i == len(roots)-1, true)
	}
}

func printNode(w io.Writer, p *project.Project, version, prefix string, last, isRoot bool) {
	connector := "├─ "
	if last {
		connector = "└─ "
	}
	if isRoot {
		connector = ""
	}
	label := version
	if p.IsHead(version) {
		label = Colorize(ColorGreen, version) + " (head)"
	}
	fmt.Fprintf(w, "%s%s%s\n", prefix, connector, label)

	children := p.Forward(version)
	childPrefix := prefix
	if !isRoot {
		if last {
			childPrefix += "   "
		} else {
			childPrefix += "│  "
		}
	}
	for i, child := range children {
		printNode(w, p, child, childPrefix, i == len(children)-1, false)
	}
}
