package condition

import (
	"fmt"
	"net/netip"
	"strings"

	"pathproof/internal/domain"
)

/*
Condition Evaluator - Gives concrete-context semantics to policy operators

PURPOSE:
  Decide whether one policy condition holds under a concrete key->value
  context. Pure function, no state.

SEMANTICS:
  - A condition with multiple values uses OR semantics across the value
    list (matching any value satisfies the positive operators; negated
    operators require matching none).
  - A missing context key evaluates to false, never an error. Policy
    conditions gate Allow edges, so an absent fact must fail closed.
  - A context value that cannot be coerced to the operator's expected type
    (non-numeric under a numeric operator, non-boolean under Bool,
    non-address under IpAddress) fails with domain.ErrInvalidContextValue.
*/

// Evaluate reports whether the condition holds under the context
func Evaluate(cond domain.Condition, ctx domain.Context) (bool, error) {
	raw, ok := ctx[cond.Key]
	if !ok {
		return false, nil
	}

	switch cond.Operator {
	case domain.OpStringEquals:
		return anyString(cond.Values, func(v string) bool { return raw == v }), nil
	case domain.OpStringNotEquals:
		return !anyString(cond.Values, func(v string) bool { return raw == v }), nil
	case domain.OpStringEqualsIgnoreCase:
		return anyString(cond.Values, func(v string) bool { return strings.EqualFold(raw, v) }), nil

	case domain.OpStringLike, domain.OpArnLike:
		matched, err := anyPattern(cond.Values, raw)
		return matched, err
	case domain.OpStringNotLike, domain.OpArnNotLike:
		matched, err := anyPattern(cond.Values, raw)
		if err != nil {
			return false, err
		}
		return !matched, nil

	case domain.OpIPAddress:
		return inAnyBlock(cond.Key, raw, cond.Values)
	case domain.OpNotIPAddress:
		matched, err := inAnyBlock(cond.Key, raw, cond.Values)
		if err != nil {
			return false, err
		}
		return !matched, nil

	case domain.OpNumericEquals:
		return compareNumeric(cond, raw, func(a, b float64) bool { return a == b })
	case domain.OpNumericNotEquals:
		matched, err := compareNumeric(cond, raw, func(a, b float64) bool { return a == b })
		if err != nil {
			return false, err
		}
		return !matched, nil
	case domain.OpNumericGreater:
		return compareNumeric(cond, raw, func(a, b float64) bool { return a > b })
	case domain.OpNumericLess:
		return compareNumeric(cond, raw, func(a, b float64) bool { return a < b })
	case domain.OpNumericGreaterEquals:
		return compareNumeric(cond, raw, func(a, b float64) bool { return a >= b })
	case domain.OpNumericLessEquals:
		return compareNumeric(cond, raw, func(a, b float64) bool { return a <= b })

	case domain.OpBool:
		return compareBool(cond, raw)

	default:
		return false, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperator, cond.Operator)
	}
}

func anyString(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}

func anyPattern(patterns []string, raw string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := MatchWildcard(pattern, raw)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// inAnyBlock reports whether the context value, parsed as an IP address,
// falls inside at least one CIDR block. Containment is longest-prefix
// address containment, not string prefix. A bare IP in the value list is
// treated as a single-address block. Unparseable blocks never match.
func inAnyBlock(key, raw string, blocks []string) (bool, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return false, fmt.Errorf("%w: key %q value %q is not an IP address", domain.ErrInvalidContextValue, key, raw)
	}
	for _, block := range blocks {
		prefix, ok := parseBlock(block)
		if !ok {
			continue
		}
		if prefix.Contains(addr) {
			return true, nil
		}
	}
	return false, nil
}

func parseBlock(block string) (netip.Prefix, bool) {
	if strings.Contains(block, "/") {
		prefix, err := netip.ParsePrefix(block)
		if err != nil {
			return netip.Prefix{}, false
		}
		return prefix.Masked(), true
	}
	addr, err := netip.ParseAddr(block)
	if err != nil {
		return netip.Prefix{}, false
	}
	return netip.PrefixFrom(addr, addr.BitLen()), true
}

// compareNumeric parses both sides as numbers; a parse failure on either
// side is an error, not false.
func compareNumeric(cond domain.Condition, raw string, cmp func(a, b float64) bool) (bool, error) {
	left, err := domain.ParseNum(raw)
	if err != nil {
		return false, fmt.Errorf("%w: key %q value %q is not numeric", domain.ErrInvalidContextValue, cond.Key, raw)
	}
	for _, v := range cond.Values {
		right, err := domain.ParseNum(v)
		if err != nil {
			return false, fmt.Errorf("%w: key %q expected value %q is not numeric", domain.ErrInvalidContextValue, cond.Key, v)
		}
		if cmp(left, right) {
			return true, nil
		}
	}
	return false, nil
}

func compareBool(cond domain.Condition, raw string) (bool, error) {
	left, ok := domain.ParseBool(raw)
	if !ok {
		return false, fmt.Errorf("%w: key %q value %q is not boolean", domain.ErrInvalidContextValue, cond.Key, raw)
	}
	for _, v := range cond.Values {
		right, ok := domain.ParseBool(v)
		if !ok {
			return false, fmt.Errorf("%w: key %q expected value %q is not boolean", domain.ErrInvalidContextValue, cond.Key, v)
		}
		if left == right {
			return true, nil
		}
	}
	return false, nil
}
