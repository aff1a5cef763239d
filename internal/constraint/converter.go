package constraint

import (
	"fmt"
	"sort"

	"pathproof/internal/domain"
)

/*
Constraint Converter - Turns a candidate path into a satisfiability problem

For every edge along the path:
  - Allow edge: each condition becomes one constraint that must hold
    (conjunction across the edge's conditions, conjunction across edges).
  - Deny edge: the conjunction of the edge's conditions becomes a single
    negated constraint (the deny trigger must NOT hold for the path to be
    viable). A condition-less Deny negates the empty conjunction, leaving
    the path unconditionally unsatisfiable.

Caller-supplied bindings are appended as equality constraints over the
same variables, so the solver decides whether a candidate context is
consistent with the path's Allow/Deny structure instead of the code
pre-filtering it.
*/

// ToConstraintSet assembles the constraint set for one path. It fails with
// domain.ErrUnsupportedOperator when a condition carries an operator
// outside the supported set or a literal that cannot be coerced to the
// operator's type; a graph validated at build time never triggers this.
func ToConstraintSet(path domain.Path, bindings map[string]string) (domain.ConstraintSet, error) {
	cs := domain.ConstraintSet{Path: &path}

	for _, edge := range path.Edges {
		switch edge.Effect {
		case domain.EffectAllow:
			for _, cond := range edge.Conditions {
				c, err := FromCondition(cond)
				if err != nil {
					return domain.ConstraintSet{}, err
				}
				cs.Constraints = append(cs.Constraints, c)
			}
		case domain.EffectDeny:
			children := make([]domain.Constraint, 0, len(edge.Conditions))
			for _, cond := range edge.Conditions {
				c, err := FromCondition(cond)
				if err != nil {
					return domain.ConstraintSet{}, err
				}
				children = append(children, c)
			}
			cs.Constraints = append(cs.Constraints, domain.Constraint{
				Op:       domain.ConstraintNot,
				Children: children,
			})
		}
	}

	if len(bindings) > 0 {
		cs.Bindings = make(map[string]string, len(bindings))
		keys := make([]string, 0, len(bindings))
		for k, v := range bindings {
			cs.Bindings[k] = v
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cs.Constraints = append(cs.Constraints, domain.Constraint{
				Op:       domain.ConstraintBindEquals,
				Variable: k,
				Values:   []domain.Value{domain.StrValue(bindings[k])},
			})
		}
	}

	return cs, nil
}

// FromCondition maps one condition to its symbolic constraint
func FromCondition(cond domain.Condition) (domain.Constraint, error) {
	switch cond.Operator {
	case domain.OpStringEquals:
		return leaf(domain.ConstraintEqualsAny, cond, strValues(cond.Values)), nil
	case domain.OpStringNotEquals:
		return negated(leaf(domain.ConstraintEqualsAny, cond, strValues(cond.Values))), nil
	case domain.OpStringEqualsIgnoreCase:
		return leaf(domain.ConstraintEqualsAnyFold, cond, strValues(cond.Values)), nil

	case domain.OpStringLike, domain.OpArnLike:
		return leaf(domain.ConstraintLikeAny, cond, strValues(cond.Values)), nil
	case domain.OpStringNotLike, domain.OpArnNotLike:
		return negated(leaf(domain.ConstraintLikeAny, cond, strValues(cond.Values))), nil

	case domain.OpIPAddress:
		return leaf(domain.ConstraintInCidrAny, cond, strValues(cond.Values)), nil
	case domain.OpNotIPAddress:
		return negated(leaf(domain.ConstraintInCidrAny, cond, strValues(cond.Values))), nil

	case domain.OpNumericEquals:
		return numeric(cond, "==")
	case domain.OpNumericNotEquals:
		// Negate the equality disjunction; "!=" OR'd across values would be
		// vacuously true for two or more distinct literals.
		c, err := numeric(cond, "==")
		if err != nil {
			return domain.Constraint{}, err
		}
		return negated(c), nil
	case domain.OpNumericGreater:
		return numeric(cond, ">")
	case domain.OpNumericLess:
		return numeric(cond, "<")
	case domain.OpNumericGreaterEquals:
		return numeric(cond, ">=")
	case domain.OpNumericLessEquals:
		return numeric(cond, "<=")

	case domain.OpBool:
		values := make([]domain.Value, 0, len(cond.Values))
		for _, v := range cond.Values {
			b, ok := domain.ParseBool(v)
			if !ok {
				return domain.Constraint{}, fmt.Errorf("%w: Bool condition on key %q has non-boolean literal %q",
					domain.ErrUnsupportedOperator, cond.Key, v)
			}
			values = append(values, domain.BoolValue(b))
		}
		return leaf(domain.ConstraintBoolEquals, cond, values), nil

	default:
		return domain.Constraint{}, fmt.Errorf("%w: %q on key %q", domain.ErrUnsupportedOperator, cond.Operator, cond.Key)
	}
}

func leaf(op domain.ConstraintOp, cond domain.Condition, values []domain.Value) domain.Constraint {
	return domain.Constraint{Op: op, Variable: cond.Key, Values: values}
}

func negated(c domain.Constraint) domain.Constraint {
	return domain.Constraint{Op: domain.ConstraintNot, Children: []domain.Constraint{c}}
}

func numeric(cond domain.Condition, comparator string) (domain.Constraint, error) {
	values := make([]domain.Value, 0, len(cond.Values))
	for _, v := range cond.Values {
		n, err := domain.ParseNum(v)
		if err != nil {
			return domain.Constraint{}, fmt.Errorf("%w: numeric condition on key %q has non-numeric literal %q",
				domain.ErrUnsupportedOperator, cond.Key, v)
		}
		values = append(values, domain.NumValue(n))
	}
	return domain.Constraint{
		Op:         domain.ConstraintNumCompare,
		Variable:   cond.Key,
		Comparator: comparator,
		Values:     values,
	}, nil
}

func strValues(raw []string) []domain.Value {
	out := make([]domain.Value, len(raw))
	for i, v := range raw {
		out[i] = domain.StrValue(v)
	}
	return out
}
