package graph

import (
	"fmt"
	"slices"
	"strings"
)

var (
	_ error = MissingDependencyError{}
	_ error = CircularDependencyError{}
)

// MissingDependencyError reports a declared dependency that has no binding.
type MissingDependencyError struct {
	Dependent NodeKey
	Missing   NodeKey
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("missing dependency: %s depends on unbound %s", e.Dependent, e.Missing)
}

// CircularDependencyError represents a circular dependency in the container.
// Path holds every node that was on the visiting stack when the cycle closed;
// Node is the node that was reached a second time.
type CircularDependencyError struct {
	Node NodeKey
	Path []NodeKey
}

// Cycle returns the part of Path that forms the cycle, starting at Node.
func (e CircularDependencyError) Cycle() []NodeKey {
	if i := slices.Index(e.Path, e.Node); i >= 0 {
		return e.Path[i:]
	}
	return e.Path
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	cycle := e.Cycle()
	if len(cycle) == 0 {
		b.WriteString(fmt.Sprintf("    %s\n", e.Node.String()))
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Node.String()))
	} else {
		for i, node := range cycle {
			b.WriteString(fmt.Sprintf("    %s\n", node.String()))
			if i < len(cycle)-1 {
				b.WriteString("      ↓\n")
			}
		}
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", cycle[0].String()))
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Request one side of the cycle through a Factory\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}
