package ioc

import (
	"errors"

	"github.com/junioryono/ioc/internal/graph"
)

// buildGraph creates the dependency graph of every binding in registration
// order. Container references become deferred edges.
func (c *Config) buildGraph() *graph.DependencyGraph {
	g := graph.NewDependencyGraph()

	for _, id := range c.order {
		b := c.bindings[id]

		deps := b.provider.Dependencies()
		edges := make([]graph.Edge, len(deps))
		for i, ref := range deps {
			edges[i] = graph.Edge{
				To:       nodeKey(ref.Identity),
				Deferred: ref.IsContainer(),
			}
		}

		g.AddNode(nodeKey(id), edges, b.scope)
	}

	return g
}

// validateGraph checks g and converts graph errors to the package's error
// types.
func validateGraph(g *graph.DependencyGraph) error {
	err := g.Validate()
	if err == nil {
		return nil
	}

	var missing graph.MissingDependencyError
	if errors.As(err, &missing) {
		return MissingDependencyError{
			Dependent: identityOf(missing.Dependent),
			Missing:   identityOf(missing.Missing),
		}
	}

	var cycle graph.CircularDependencyError
	if errors.As(err, &cycle) {
		path := make([]Identity, len(cycle.Path))
		for i, k := range cycle.Path {
			path[i] = identityOf(k)
		}
		return CyclicDependencyError{Path: path, Start: identityOf(cycle.Node)}
	}

	return err
}

func nodeKey(id Identity) graph.NodeKey {
	key := graph.NodeKey{Type: id.Type}
	if id.Qualifier != nil {
		key.Key = id.Qualifier
	}
	return key
}

func identityOf(key graph.NodeKey) Identity {
	q, _ := key.Key.(Qualifier)
	return Identity{Type: key.Type, Qualifier: q}
}
