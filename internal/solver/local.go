package solver

import (
	"context"
	"net/netip"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"pathproof/internal/condition"
	"pathproof/internal/constraint"
	"pathproof/internal/domain"
)

/*
Local Solver - Deterministic model search over harvested candidates

The constraint set is rendered to one boolean formula, compiled once, and
evaluated against candidate models drawn from the set's own literals.
For point and interval predicates (equalities, bindings, numeric
comparisons, CIDR membership) the harvest places a candidate in every
region the predicates can carve out, so exhausting the candidates
without a satisfying assignment proves unsatisfiability. Wildcard and
case-folded predicates have no finite boundary set; a set touching them
reports Unknown on exhaustion instead of claiming a proof. Deadline
expiry or hitting the evaluation budget also reports Unknown, never a
guess.
*/

const defaultMaxEvaluations = 50000

// freshWitness is a string no sane policy literal equals; it stands in for
// "any other value" so negated equalities can be satisfied.
const freshWitness = "__unconstrained__"

// Local is a deterministic in-process Solver. The zero value is usable;
// MaxEvaluations bounds the candidate search (0 means the default).
type Local struct {
	MaxEvaluations int
}

// NewLocal creates a Local solver with default bounds
func NewLocal() *Local { return &Local{} }

// Check searches for a model of the constraint set
func (s *Local) Check(ctx context.Context, cs domain.ConstraintSet) (Result, error) {
	types, err := constraint.InferTypes(cs)
	if err != nil {
		return Result{Status: domain.StatusUnknown}, err
	}

	formula, err := constraint.Render(cs, types)
	if err != nil {
		return Result{Status: domain.StatusUnknown}, err
	}

	program, err := expr.Compile(formula)
	if err != nil {
		return Result{Status: domain.StatusUnknown}, err
	}

	variables := cs.Variables()
	candidates, covering := harvestCandidates(cs, types)

	budget := s.MaxEvaluations
	if budget <= 0 {
		budget = defaultMaxEvaluations
	}

	search := &modelSearch{
		ctx:        ctx,
		program:    program,
		variables:  variables,
		candidates: candidates,
		assignment: make(map[string]interface{}, len(variables)),
		budget:     budget,
	}

	sat, err := search.run(0)
	if err != nil {
		return Result{Status: domain.StatusUnknown}, err
	}
	if sat {
		model := make(map[string]string, len(variables))
		for name, v := range search.assignment {
			model[name] = literalString(v)
		}
		return Result{Status: domain.StatusSatisfiable, Model: model}, nil
	}
	if search.truncated {
		return Result{Status: domain.StatusUnknown}, nil
	}
	if !covering {
		// The harvest cannot enumerate every region of a wildcard or
		// case-folded predicate, so running out of candidates here is
		// not a proof.
		return Result{Status: domain.StatusUnknown}, nil
	}
	return Result{Status: domain.StatusUnsatisfiable}, nil
}

type modelSearch struct {
	ctx        context.Context
	program    *vm.Program
	variables  []string
	candidates map[string][]interface{}
	assignment map[string]interface{}
	evals      int
	budget     int
	truncated  bool
}

// run tries candidate assignments depth-first over variables[idx:]
func (m *modelSearch) run(idx int) (bool, error) {
	if idx == len(m.variables) {
		return m.evaluate()
	}
	name := m.variables[idx]
	for _, candidate := range m.candidates[name] {
		m.assignment[name] = candidate
		sat, err := m.run(idx + 1)
		if err != nil || sat {
			return sat, err
		}
		if m.truncated {
			return false, nil
		}
	}
	delete(m.assignment, name)
	return false, nil
}

func (m *modelSearch) evaluate() (bool, error) {
	if m.evals%64 == 0 {
		if err := m.ctx.Err(); err != nil {
			return false, err
		}
	}
	if m.evals >= m.budget {
		m.truncated = true
		return false, nil
	}
	m.evals++

	vars := make(map[string]interface{}, len(m.assignment))
	for k, v := range m.assignment {
		vars[k] = v
	}
	out, err := vm.Run(m.program, evalEnv(vars))
	if err != nil {
		// A runtime type error means this candidate cannot satisfy the
		// formula; keep searching.
		return false, nil
	}
	sat, ok := out.(bool)
	return ok && sat, nil
}

func evalEnv(vars map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"vars": vars,
		"like": func(s, pattern string) bool {
			matched, err := condition.MatchWildcard(pattern, s)
			return err == nil && matched
		},
		"fold": strings.EqualFold,
		"inCidr": func(s, block string) bool {
			addr, err := netip.ParseAddr(s)
			if err != nil {
				return false
			}
			prefix, err := netip.ParsePrefix(block)
			if err != nil {
				single, err := netip.ParseAddr(block)
				if err != nil {
					return false
				}
				prefix = netip.PrefixFrom(single, single.BitLen())
			}
			return prefix.Masked().Contains(addr)
		},
	}
}

func literalString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return domain.NumValue(t).String()
	case bool:
		return domain.BoolValue(t).String()
	default:
		return ""
	}
}
