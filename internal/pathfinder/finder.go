package pathfinder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pathproof/internal/condition"
	"pathproof/internal/domain"
	"pathproof/internal/logging"
	"pathproof/internal/policygraph"
)

/*
Path Finder - Bounded enumeration of candidate attack paths

PURPOSE:
  Enumerate every simple path from source to target within maxDepth hops,
  depth-first with backtracking, edges visited in insertion order so the
  result order is deterministic for identical inputs.

EDGE GATING:
  Only Allow edges create connectivity; Deny edges never do. Each
  traversable Allow edge between a node pair yields its own path (parallel
  Allow rules are distinct rules). Parallel Deny edges on the pair are
  recorded after the Allow edge in the path's edge sequence so constraint
  conversion can negate them.

  With a concrete context, an Allow edge is traversable only if all its
  conditions evaluate true, and the pair is impassable when any parallel
  Deny edge's conditions all evaluate true (a condition-less Deny always
  blocks). An evaluation error makes the edge non-traversable; it never
  aborts the traversal. With no context, nothing is pruned and condition
  satisfiability is deferred to the Verifier.
*/

// Finder enumerates paths over one immutable policy graph. Results are
// cached by (source, target, maxDepth, context hash); entries are immutable
// and never invalidated within the graph's lifetime. Safe for concurrent
// use.
type Finder struct {
	graph *policygraph.Graph
	cache sync.Map // cache key -> []domain.Path
}

// New creates a Finder for the graph
func New(g *policygraph.Graph) *Finder {
	return &Finder{graph: g}
}

// Find returns every simple path from source to target within maxDepth
// hops. It fails with domain.ErrInvalidGraph when source or target is
// unknown. Depth is a hard cutoff, not an error. The returned slice is a
// shared cache entry and must not be modified.
func (f *Finder) Find(source, target string, maxDepth int, ctx domain.Context) ([]domain.Path, error) {
	if !f.graph.NodeExists(source) {
		return nil, fmt.Errorf("%w: unknown source node %q", domain.ErrInvalidGraph, source)
	}
	if !f.graph.NodeExists(target) {
		return nil, fmt.Errorf("%w: unknown target node %q", domain.ErrInvalidGraph, target)
	}

	key := cacheKey(source, target, maxDepth, ctx)
	if cached, ok := f.cache.Load(key); ok {
		return cached.([]domain.Path), nil
	}

	paths := f.enumerate(source, target, maxDepth, ctx)

	// Recomputing the same key is idempotent; first writer wins.
	actual, _ := f.cache.LoadOrStore(key, paths)
	return actual.([]domain.Path), nil
}

func (f *Finder) enumerate(source, target string, maxDepth int, ctx domain.Context) []domain.Path {
	var results []domain.Path
	if source == target || maxDepth < 1 {
		return results
	}

	targetCrit := ""
	if node, ok := f.graph.Node(target); ok {
		targetCrit = node.Criticality
	}

	visited := map[string]bool{source: true}
	nodeStack := []string{source}
	var edgeStack []domain.Edge

	var dfs func(u string, hopsLeft int)
	dfs = func(u string, hopsLeft int) {
		if hopsLeft == 0 {
			return
		}
		edges := f.graph.Neighbors(u)
		for _, e := range edges {
			if e.Effect != domain.EffectAllow {
				continue
			}
			v := e.Target
			if visited[v] {
				continue
			}

			denies := parallelDenies(edges, v)
			if ctx != nil {
				if !f.conditionsHold(e, ctx) {
					continue
				}
				if denyBlocks(denies, ctx) {
					continue
				}
			}

			hopEdges := append([]domain.Edge{e}, denies...)
			edgeStack = append(edgeStack, hopEdges...)
			nodeStack = append(nodeStack, v)

			if v == target {
				results = append(results, domain.Path{
					Nodes:             append([]string(nil), nodeStack...),
					Edges:             append([]domain.Edge(nil), edgeStack...),
					TargetCriticality: targetCrit,
				})
			} else {
				visited[v] = true
				dfs(v, hopsLeft-1)
				delete(visited, v)
			}

			nodeStack = nodeStack[:len(nodeStack)-1]
			edgeStack = edgeStack[:len(edgeStack)-len(hopEdges)]
		}
	}

	dfs(source, maxDepth)
	return results
}

// parallelDenies collects the Deny edges to v from an adjacency list,
// preserving insertion order
func parallelDenies(edges []domain.Edge, v string) []domain.Edge {
	var denies []domain.Edge
	for _, e := range edges {
		if e.Effect == domain.EffectDeny && e.Target == v {
			denies = append(denies, e)
		}
	}
	return denies
}

// conditionsHold reports whether every condition on the edge evaluates
// true under the context. Evaluation errors fail closed.
func (f *Finder) conditionsHold(e domain.Edge, ctx domain.Context) bool {
	for _, cond := range e.Conditions {
		ok, err := condition.Evaluate(cond, ctx)
		if err != nil {
			logging.LogDebug("Edge condition not evaluable, treating edge as non-traversable", map[string]interface{}{
				"source":   e.Source,
				"target":   e.Target,
				"key":      cond.Key,
				"operator": string(cond.Operator),
				"error":    err.Error(),
			})
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// denyBlocks reports whether any Deny edge's condition conjunction holds
// under the context. A Deny edge with no conditions always blocks.
func denyBlocks(denies []domain.Edge, ctx domain.Context) bool {
	for _, d := range denies {
		triggered := true
		for _, cond := range d.Conditions {
			ok, err := condition.Evaluate(cond, ctx)
			if err != nil || !ok {
				triggered = false
				break
			}
		}
		if triggered {
			return true
		}
	}
	return false
}

func cacheKey(source, target string, maxDepth int, ctx domain.Context) string {
	return fmt.Sprintf("%s|%s|%d|%s", source, target, maxDepth, contextHash(ctx))
}

// contextHash produces a stable digest of the context; nil (no pruning)
// hashes differently from an empty context (prune with no facts).
func contextHash(ctx domain.Context) string {
	if ctx == nil {
		return "nocontext"
	}
	pairs := make([]string, 0, len(ctx))
	for k, v := range ctx {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, ";")))
	return hex.EncodeToString(sum[:])
}
