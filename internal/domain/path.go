package domain

import "strings"

// Path is a simple path through the policy graph: an ordered node sequence
// (length >= 2, no repeats) plus the ordered policy edges governing each
// hop. For every hop the traversed Allow edge comes first, followed by any
// parallel Deny edges on the same node pair; the Deny edges were not
// traversed but must be carried so constraint conversion can negate them.
type Path struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`

	// TargetCriticality mirrors the criticality tier of the final node so
	// downstream scoring consumers need only the path.
	TargetCriticality string `json:"target_criticality,omitempty"`
}

// Length returns the number of nodes on the path
func (p Path) Length() int { return len(p.Nodes) }

// Hops returns the number of edges traversed
func (p Path) Hops() int { return len(p.Nodes) - 1 }

// Label renders the path as "a -> b -> c"
func (p Path) Label() string { return strings.Join(p.Nodes, " -> ") }
