package constraint

import (
	"fmt"
	"strconv"
	"strings"

	"pathproof/internal/domain"
)

// VarType is the inferred solver type of a constraint variable
type VarType int

const (
	TypeString VarType = iota
	TypeNumber
	TypeBool
)

// InferTypes determines each variable's type from the constraints that
// reference it. BindEquals constraints carry raw strings and do not vote.
// A variable used under conflicting operator families is an error; the
// caller should report the set as unprovable rather than guess.
func InferTypes(cs domain.ConstraintSet) (map[string]VarType, error) {
	types := make(map[string]VarType)
	var walk func(c domain.Constraint) error
	walk = func(c domain.Constraint) error {
		var t VarType
		switch c.Op {
		case domain.ConstraintNumCompare:
			t = TypeNumber
		case domain.ConstraintBoolEquals:
			t = TypeBool
		case domain.ConstraintEqualsAny, domain.ConstraintEqualsAnyFold,
			domain.ConstraintLikeAny, domain.ConstraintInCidrAny:
			t = TypeString
		case domain.ConstraintNot:
			for _, child := range c.Children {
				if err := walk(child); err != nil {
					return err
				}
			}
			return nil
		default:
			return nil
		}
		if existing, ok := types[c.Variable]; ok && existing != t {
			return fmt.Errorf("variable %q used under conflicting operator types", c.Variable)
		}
		types[c.Variable] = t
		return nil
	}
	for _, c := range cs.Constraints {
		if err := walk(c); err != nil {
			return nil, err
		}
	}
	return types, nil
}

// Render translates the constraint set into a single boolean formula in
// expr-lang source form over `vars["key"]` lookups and the helper
// predicates like(s, pattern), fold(a, b), and inCidr(addr, block). The
// conjunction of all constraints is the satisfiability formula the local
// solver compiles once and evaluates per candidate model.
func Render(cs domain.ConstraintSet, types map[string]VarType) (string, error) {
	if len(cs.Constraints) == 0 {
		return "true", nil
	}
	parts := make([]string, 0, len(cs.Constraints))
	for _, c := range cs.Constraints {
		rendered, err := renderConstraint(c, types)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	return strings.Join(parts, " && "), nil
}

func renderConstraint(c domain.Constraint, types map[string]VarType) (string, error) {
	switch c.Op {
	case domain.ConstraintEqualsAny:
		return renderDisjunction(c, func(v domain.Value) string {
			return varRef(c.Variable) + " == " + strconv.Quote(v.Str)
		}), nil

	case domain.ConstraintEqualsAnyFold:
		return renderDisjunction(c, func(v domain.Value) string {
			return "fold(" + varRef(c.Variable) + ", " + strconv.Quote(v.Str) + ")"
		}), nil

	case domain.ConstraintLikeAny:
		return renderDisjunction(c, func(v domain.Value) string {
			return "like(" + varRef(c.Variable) + ", " + strconv.Quote(v.Str) + ")"
		}), nil

	case domain.ConstraintInCidrAny:
		return renderDisjunction(c, func(v domain.Value) string {
			return "inCidr(" + varRef(c.Variable) + ", " + strconv.Quote(v.Str) + ")"
		}), nil

	case domain.ConstraintNumCompare:
		return renderDisjunction(c, func(v domain.Value) string {
			return varRef(c.Variable) + " " + c.Comparator + " " + formatNum(v.Num)
		}), nil

	case domain.ConstraintBoolEquals:
		return renderDisjunction(c, func(v domain.Value) string {
			return varRef(c.Variable) + " == " + strconv.FormatBool(v.Bool)
		}), nil

	case domain.ConstraintNot:
		if len(c.Children) == 0 {
			// Negation of the empty conjunction: an unconditional deny.
			return "!(true)", nil
		}
		parts := make([]string, 0, len(c.Children))
		for _, child := range c.Children {
			rendered, err := renderConstraint(child, types)
			if err != nil {
				return "", err
			}
			parts = append(parts, rendered)
		}
		return "!(" + strings.Join(parts, " && ") + ")", nil

	case domain.ConstraintBindEquals:
		return renderBinding(c, types)

	default:
		return "", fmt.Errorf("%w: constraint op %q", domain.ErrUnsupportedOperator, c.Op)
	}
}

// renderBinding coerces the bound literal to the variable's inferred type.
// A literal that cannot be coerced renders as an unsatisfiable clause: the
// binding is inconsistent with the path's constraint structure by type
// alone.
func renderBinding(c domain.Constraint, types map[string]VarType) (string, error) {
	if len(c.Values) == 0 {
		return "true", nil
	}
	raw := c.Values[0].Str
	switch types[c.Variable] {
	case TypeNumber:
		n, err := domain.ParseNum(raw)
		if err != nil {
			return "false", nil
		}
		return varRef(c.Variable) + " == " + formatNum(n), nil
	case TypeBool:
		b, ok := domain.ParseBool(raw)
		if !ok {
			return "false", nil
		}
		return varRef(c.Variable) + " == " + strconv.FormatBool(b), nil
	default:
		return varRef(c.Variable) + " == " + strconv.Quote(raw), nil
	}
}

func renderDisjunction(c domain.Constraint, term func(domain.Value) string) string {
	if len(c.Values) == 0 {
		return "false"
	}
	if len(c.Values) == 1 {
		return "(" + term(c.Values[0]) + ")"
	}
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = term(v)
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

func varRef(name string) string {
	return "vars[" + strconv.Quote(name) + "]"
}

func formatNum(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
