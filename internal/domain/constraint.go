package domain

// ConstraintOp names the symbolic form of a constraint
type ConstraintOp string

const (
	// ConstraintEqualsAny holds when the variable equals any listed value
	ConstraintEqualsAny ConstraintOp = "EqualsAny"
	// ConstraintEqualsAnyFold is case-insensitive EqualsAny
	ConstraintEqualsAnyFold ConstraintOp = "EqualsAnyFold"
	// ConstraintLikeAny holds when the variable matches any wildcard pattern
	ConstraintLikeAny ConstraintOp = "LikeAny"
	// ConstraintInCidrAny holds when the variable is an address inside any block
	ConstraintInCidrAny ConstraintOp = "InCidrAny"
	// ConstraintNumCompare compares the variable numerically against any value
	ConstraintNumCompare ConstraintOp = "NumCompare"
	// ConstraintBoolEquals compares the variable against a boolean literal
	ConstraintBoolEquals ConstraintOp = "BoolEquals"
	// ConstraintNot negates the conjunction of its children
	ConstraintNot ConstraintOp = "Not"
	// ConstraintBindEquals pins the variable to a caller-supplied concrete value
	ConstraintBindEquals ConstraintOp = "BindEquals"
)

// Constraint is one solver-agnostic symbolic constraint. Leaf constraints
// carry a variable and literal values; ConstraintNot carries children.
type Constraint struct {
	Op         ConstraintOp `json:"op"`
	Variable   string       `json:"variable,omitempty"`
	Comparator string       `json:"comparator,omitempty"` // NumCompare only: == != > < >= <=
	Values     []Value      `json:"values,omitempty"`
	Children   []Constraint `json:"children,omitempty"`
}

// ConstraintSet is the per-path satisfiability problem: the ordered
// constraints derived from the path's edges plus any concrete bindings,
// already appended as BindEquals constraints. Consumed exactly once by the
// Verifier.
type ConstraintSet struct {
	Path        *Path             `json:"path,omitempty"`
	Constraints []Constraint      `json:"constraints"`
	Bindings    map[string]string `json:"bindings,omitempty"`
}

// Variables returns the distinct variables referenced by the set, in first
// appearance order.
func (cs ConstraintSet) Variables() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(c Constraint)
	walk = func(c Constraint) {
		if c.Variable != "" && !seen[c.Variable] {
			seen[c.Variable] = true
			out = append(out, c.Variable)
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	for _, c := range cs.Constraints {
		walk(c)
	}
	return out
}
