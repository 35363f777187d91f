package graph

import (
	"fmt"
	"reflect"
	"slices"
)

// NodeKey uniquely identifies a node in the graph
type NodeKey struct {
	Type reflect.Type
	Key  any // qualifier, nil for unqualified components
}

// Edge is a declared dependency of a node.
type Edge struct {
	To NodeKey

	// Deferred edges only require the target to exist. They are never
	// followed during cycle detection.
	Deferred bool
}

// Node represents a bound component in the dependency graph
type Node struct {
	Key   NodeKey
	Edges []Edge

	// Label is free-form metadata rendered by the visualizer (scope name).
	Label string
}

// DependencyGraph holds the bound components of a registry and validates
// that every declared dependency is bound and that no cycle exists through
// non-deferred edges.
//
// DependencyGraph is not safe for concurrent mutation. It is built once per
// commit and read-only afterwards.
type DependencyGraph struct {
	nodes map[NodeKey]*Node
	order []NodeKey // insertion order, keeps diagnostics deterministic
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[NodeKey]*Node),
	}
}

// AddNode adds or replaces a node. A replaced node keeps its original
// position in the iteration order.
func (g *DependencyGraph) AddNode(key NodeKey, edges []Edge, label string) {
	if _, exists := g.nodes[key]; !exists {
		g.order = append(g.order, key)
	}

	g.nodes[key] = &Node{
		Key:   key,
		Edges: slices.Clone(edges),
		Label: label,
	}
}

// Validate walks every node in insertion order and returns the first
// MissingDependencyError or CircularDependencyError found.
func (g *DependencyGraph) Validate() error {
	for _, root := range g.order {
		w := &walker{
			graph: g,
			done:  make(map[NodeKey]bool),
		}
		if err := w.visit(root); err != nil {
			return err
		}
	}

	return nil
}

// walker is the state of a single top-level walk. A fresh walker is used
// for every root so disjoint roots sharing sub-dependencies are each
// checked in full.
type walker struct {
	graph    *DependencyGraph
	visiting []NodeKey
	done     map[NodeKey]bool
}

func (w *walker) visit(key NodeKey) error {
	w.visiting = append(w.visiting, key)
	defer func() { w.visiting = w.visiting[:len(w.visiting)-1] }()

	for _, edge := range w.graph.nodes[key].Edges {
		if _, bound := w.graph.nodes[edge.To]; !bound {
			return MissingDependencyError{Dependent: key, Missing: edge.To}
		}

		if edge.Deferred {
			continue
		}

		if slices.Contains(w.visiting, edge.To) {
			return CircularDependencyError{
				Node: edge.To,
				Path: slices.Clone(w.visiting),
			}
		}

		// A node explored to completion from this root cannot reach the
		// current stack, otherwise the earlier walk would have failed.
		if w.done[edge.To] {
			continue
		}

		if err := w.visit(edge.To); err != nil {
			return err
		}
	}

	w.done[key] = true
	return nil
}

// TopologicalSort returns nodes in dependency order (dependencies first),
// following only non-deferred edges. Ties are broken by insertion order.
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	inDegrees := make(map[NodeKey]int, len(g.nodes))
	dependents := make(map[NodeKey][]NodeKey, len(g.nodes))
	for _, key := range g.order {
		for _, edge := range g.nodes[key].Edges {
			if edge.Deferred {
				continue
			}
			if _, bound := g.nodes[edge.To]; !bound {
				continue
			}
			inDegrees[key]++
			dependents[edge.To] = append(dependents[edge.To], key)
		}
	}

	// Kahn's algorithm
	queue := make([]NodeKey, 0)
	for _, key := range g.order {
		if inDegrees[key] == 0 {
			queue = append(queue, key)
		}
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.nodes[current])

		for _, dependent := range dependents[current] {
			inDegrees[dependent]--
			if inDegrees[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("circular dependency detected: graph contains %d nodes but only %d could be sorted",
			len(g.nodes), len(result))
	}

	return result, nil
}

// Nodes returns the nodes in insertion order.
func (g *DependencyGraph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, key := range g.order {
		nodes = append(nodes, g.nodes[key])
	}
	return nodes
}

// GetNode returns the node for a given key
func (g *DependencyGraph) GetNode(key NodeKey) *Node {
	return g.nodes[key]
}

// HasNode checks if a node exists in the graph
func (g *DependencyGraph) HasNode(key NodeKey) bool {
	_, exists := g.nodes[key]
	return exists
}

// Size returns the number of nodes in the graph
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// String returns a string representation of the node key
func (k NodeKey) String() string {
	if k.Key != nil {
		return fmt.Sprintf("%v[%s]", k.Type, k.keyLabel())
	}
	return fmt.Sprintf("%v", k.Type)
}

// keyLabel renders the qualifier. Qualifier values render through their
// Qualifier method when they have one.
func (k NodeKey) keyLabel() string {
	if q, ok := k.Key.(interface{ Qualifier() string }); ok {
		return q.Qualifier()
	}
	return fmt.Sprint(k.Key)
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, edges:%d}", n.Key.String(), len(n.Edges))
}
