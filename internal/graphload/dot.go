package graphload

import (
	"fmt"
	"os"
	"strings"

	"github.com/awalterschulze/gographviz"

	"pathproof/internal/criticality"
	"pathproof/internal/domain"
	"pathproof/internal/policygraph"
)

// LoadDOT reads a Graphviz file describing the whole policy graph and
// builds it. Node attributes: kind, criticality. Edge attributes: kind,
// effect, label, and conditions in the ParseConditionSpec encoding.
// Missing attributes fall back to resource nodes and allowed network
// edges so small hand-written graphs stay terse.
func LoadDOT(path string) (*policygraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DOT file %s: %w", path, err)
	}

	ast, err := gographviz.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT file %s: %w", path, err)
	}

	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return nil, fmt.Errorf("failed to analyze DOT file %s: %w", path, err)
	}

	nodes := make([]domain.Node, 0, len(g.Nodes.Nodes))
	for _, n := range g.Nodes.Nodes {
		node := domain.Node{
			ID:          stripQuotes(n.Name),
			Kind:        domain.NodeKind(getAttr(n.Attrs, "kind")),
			Criticality: getAttr(n.Attrs, "criticality"),
		}
		if node.Kind == "" {
			node.Kind = domain.NodeKindResource
		}
		node.Criticality = criticality.Resolve(node)
		nodes = append(nodes, node)
	}

	edges := make([]domain.Edge, 0, len(g.Edges.Edges))
	for _, e := range g.Edges.Edges {
		conditions, err := ParseConditionSpec(getAttr(e.Attrs, "conditions"))
		if err != nil {
			return nil, fmt.Errorf("DOT edge %s->%s: %w", e.Src, e.Dst, err)
		}

		edge := domain.Edge{
			Source:     stripQuotes(e.Src),
			Target:     stripQuotes(e.Dst),
			Kind:       domain.EdgeKind(getAttr(e.Attrs, "kind")),
			Effect:     domain.Effect(getAttr(e.Attrs, "effect")),
			Conditions: conditions,
			Label:      getAttr(e.Attrs, "label"),
		}
		if edge.Kind == "" {
			edge.Kind = domain.EdgeKindNetwork
		}
		if edge.Effect == "" {
			edge.Effect = domain.EffectAllow
		}
		edges = append(edges, edge)
	}

	return policygraph.Build(nodes, edges)
}

// getAttr reads a Graphviz attribute, dropping the surrounding quotes
// the parser keeps.
func getAttr(attrs gographviz.Attrs, key string) string {
	val, ok := attrs[gographviz.Attr(key)]
	if !ok {
		return ""
	}
	return stripQuotes(strings.TrimSpace(val))
}

func stripQuotes(val string) string {
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		return val[1 : len(val)-1]
	}
	return val
}
