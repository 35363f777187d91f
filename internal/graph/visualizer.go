package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format. Deferred edges are
// drawn dashed.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	var b strings.Builder

	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	nodeIDs := make(map[NodeKey]string, len(v.graph.order))
	for i, key := range v.graph.order {
		nodeIDs[key] = fmt.Sprintf("n%d", i)
	}

	for _, node := range v.graph.Nodes() {
		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			nodeIDs[node.Key], v.formatNodeLabel(node), v.getNodeColor(node))
	}

	for _, node := range v.graph.Nodes() {
		for _, edge := range node.Edges {
			toID, ok := nodeIDs[edge.To]
			if !ok {
				continue
			}
			if edge.Deferred {
				fmt.Fprintf(&b, "  %s -> %s [style=dashed];\n", nodeIDs[node.Key], toID)
			} else {
				fmt.Fprintf(&b, "  %s -> %s;\n", nodeIDs[node.Key], toID)
			}
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTable writes one row per node in dependency order: component, scope
// label and declared dependencies. Deferred dependencies are prefixed with
// "~".
func (v *Visualizer) WriteTable(w io.Writer) error {
	nodes, err := v.graph.TopologicalSort()
	if err != nil {
		// Fall back to insertion order
		nodes = v.graph.Nodes()
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Component", "Scope", "Dependencies"})

	for i, node := range nodes {
		deps := make([]string, len(node.Edges))
		for j, edge := range node.Edges {
			if edge.Deferred {
				deps[j] = "~" + edge.To.String()
			} else {
				deps[j] = edge.To.String()
			}
		}

		scope := node.Label
		if scope == "" {
			scope = "-"
		}

		t.AppendRow(table.Row{i + 1, node.Key.String(), scope, strings.Join(deps, "\n")})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d components", len(nodes)), "", fmt.Sprintf("%d edges", v.countEdges())})

	_, err = io.WriteString(w, t.Render()+"\n")
	return err
}

// formatNodeLabel creates a label for a node
func (v *Visualizer) formatNodeLabel(node *Node) string {
	typeStr := fmt.Sprintf("%v", node.Key.Type)

	// Simplify type string (remove package path for readability)
	parts := strings.Split(typeStr, ".")
	if len(parts) > 1 {
		typeStr = parts[len(parts)-1]
		if strings.HasPrefix(parts[0], "*") {
			typeStr = "*" + typeStr
		}
	}

	if node.Key.Key != nil {
		typeStr = fmt.Sprintf("%s\\n[%s]", typeStr, node.Key.keyLabel())
	}

	if node.Label != "" {
		return fmt.Sprintf("%s\\n(%s)", typeStr, node.Label)
	}

	return typeStr
}

// getNodeColor determines the color for a node based on its scope label
func (v *Visualizer) getNodeColor(node *Node) string {
	switch node.Label {
	case "":
		return "lightyellow"
	case "singleton":
		return "lightblue"
	case "pooled":
		return "lightgreen"
	default:
		return "white"
	}
}

// countEdges counts the total number of edges in the graph
func (v *Visualizer) countEdges() int {
	count := 0
	for _, node := range v.graph.nodes {
		count += len(node.Edges)
	}
	return count
}
