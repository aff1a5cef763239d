package policygraph

import (
	"fmt"

	"pathproof/internal/domain"
)

/*
Policy Graph - Immutable directed multigraph of assets and policy rules

Nodes and edges live in flat arrays indexed by integers; adjacency is a
per-node list of edge indices in insertion order. The graph is built once
per analysis request and never mutated afterwards, so concurrent readers
need no locking.
*/

// Graph is the immutable policy graph. Build it with Build; the zero value
// is not usable.
type Graph struct {
	nodes     []domain.Node
	nodeIndex map[string]int
	edges     []domain.Edge
	out       [][]int // node index -> outgoing edge indices, insertion order
}

// Build validates the node and edge records and assembles the graph.
// It fails with domain.ErrInvalidGraph when a node id is duplicated, an
// edge references an unknown node, an edge carries an unknown kind or
// effect, or a condition references an unsupported operator.
func Build(nodes []domain.Node, edges []domain.Edge) (*Graph, error) {
	g := &Graph{
		nodes:     make([]domain.Node, 0, len(nodes)),
		nodeIndex: make(map[string]int, len(nodes)),
		edges:     make([]domain.Edge, 0, len(edges)),
		out:       make([][]int, 0, len(nodes)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node with empty id", domain.ErrInvalidGraph)
		}
		if _, exists := g.nodeIndex[n.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate node id %q", domain.ErrInvalidGraph, n.ID)
		}
		g.nodeIndex[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
		g.out = append(g.out, nil)
	}

	for i, e := range edges {
		srcIdx, ok := g.nodeIndex[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d (%s) references unknown source node %q",
				domain.ErrInvalidGraph, i, e.Label, e.Source)
		}
		if _, ok := g.nodeIndex[e.Target]; !ok {
			return nil, fmt.Errorf("%w: edge %d (%s) references unknown target node %q",
				domain.ErrInvalidGraph, i, e.Label, e.Target)
		}
		if e.Kind != domain.EdgeKindNetwork && e.Kind != domain.EdgeKindIAM {
			return nil, fmt.Errorf("%w: edge %d (%s) has unknown kind %q",
				domain.ErrInvalidGraph, i, e.Label, e.Kind)
		}
		if e.Effect != domain.EffectAllow && e.Effect != domain.EffectDeny {
			return nil, fmt.Errorf("%w: edge %d (%s) has unknown effect %q",
				domain.ErrInvalidGraph, i, e.Label, e.Effect)
		}
		for _, cond := range e.Conditions {
			if !domain.SupportedOperator(cond.Operator) {
				return nil, fmt.Errorf("%w: edge %d (%s) condition on key %q uses unsupported operator %q",
					domain.ErrInvalidGraph, i, e.Label, cond.Key, cond.Operator)
			}
		}

		g.edges = append(g.edges, e)
		g.out[srcIdx] = append(g.out[srcIdx], len(g.edges)-1)
	}

	return g, nil
}

// NodeExists reports whether a node id is in the graph
func (g *Graph) NodeExists(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Node returns the node record for an id
func (g *Graph) Node(id string) (domain.Node, bool) {
	idx, ok := g.nodeIndex[id]
	if !ok {
		return domain.Node{}, false
	}
	return g.nodes[idx], true
}

// Neighbors returns the outgoing edges of a node in insertion order
func (g *Graph) Neighbors(id string) []domain.Edge {
	idx, ok := g.nodeIndex[id]
	if !ok {
		return nil
	}
	edgeIdxs := g.out[idx]
	if len(edgeIdxs) == 0 {
		return nil
	}
	out := make([]domain.Edge, len(edgeIdxs))
	for i, ei := range edgeIdxs {
		out[i] = g.edges[ei]
	}
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }
