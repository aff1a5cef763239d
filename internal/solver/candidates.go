package solver

import (
	"net/netip"
	"sort"
	"strings"

	"pathproof/internal/constraint"
	"pathproof/internal/domain"
)

// harvestCandidates builds each variable's ordered candidate value list
// from the constraint set's literals, deduplicated in first-appearance
// order so the search is deterministic.
//
// The second result reports whether the candidate space is covering,
// i.e. whether every region the set's predicates can carve out contains
// at least one candidate. Point predicates (equality, bindings) are
// covered by their literals plus one fresh witness. Comparison
// predicates are covered by the numeric literals, their +/-1 neighbors
// and the midpoints between adjacent literals. CIDR predicates are
// address intervals, covered by each block's base and last address,
// their outside neighbors, and the neighbors of any address-shaped
// literal on the same variable. Wildcard and case-folded predicates
// have no finite boundary set, so a set touching them is not covering
// and exhaustion proves nothing.
func harvestCandidates(cs domain.ConstraintSet, types map[string]constraint.VarType) (map[string][]interface{}, bool) {
	h := &harvester{
		types:    types,
		values:   make(map[string][]interface{}),
		seen:     make(map[string]map[interface{}]bool),
		nums:     make(map[string][]float64),
		cidrVars: make(map[string]bool),
		covering: true,
	}
	for _, c := range cs.Constraints {
		h.walk(c)
	}

	for _, name := range cs.Variables() {
		switch types[name] {
		case constraint.TypeBool:
			h.add(name, true)
			h.add(name, false)
		case constraint.TypeNumber:
			h.add(name, float64(0))
		default:
			// One witness outside every harvested literal, so negated
			// equalities and deny triggers can be escaped.
			h.add(name, freshWitness)
		}
	}

	h.addMidpoints()
	h.addAddrNeighbors()
	return h.values, h.covering
}

type harvester struct {
	types    map[string]constraint.VarType
	values   map[string][]interface{}
	seen     map[string]map[interface{}]bool
	nums     map[string][]float64
	cidrVars map[string]bool
	covering bool
}

func (h *harvester) add(name string, v interface{}) {
	if h.seen[name] == nil {
		h.seen[name] = make(map[interface{}]bool)
	}
	if h.seen[name][v] {
		return
	}
	h.seen[name][v] = true
	h.values[name] = append(h.values[name], v)
}

func (h *harvester) addNum(name string, n float64) {
	h.add(name, n)
	h.nums[name] = append(h.nums[name], n)
}

func (h *harvester) walk(c domain.Constraint) {
	switch c.Op {
	case domain.ConstraintEqualsAny:
		for _, v := range c.Values {
			h.add(c.Variable, v.Str)
		}

	case domain.ConstraintEqualsAnyFold:
		for _, v := range c.Values {
			h.add(c.Variable, v.Str)
		}
		// Case-folded classes have no harvestable boundary literals.
		h.covering = false

	case domain.ConstraintLikeAny:
		for _, v := range c.Values {
			// The bare expansion, and one that puts a character in each
			// `*` slot to sidestep negated equalities on the bare form.
			h.add(c.Variable, expandPattern(v.Str, ""))
			h.add(c.Variable, expandPattern(v.Str, "x"))
		}
		h.covering = false

	case domain.ConstraintInCidrAny:
		for _, v := range c.Values {
			prefix, ok := parseBlock(v.Str)
			if !ok {
				continue
			}
			base := prefix.Masked().Addr()
			last := lastAddr(prefix)
			h.add(c.Variable, base.String())
			h.add(c.Variable, last.String())
			if prev := base.Prev(); prev.IsValid() {
				h.add(c.Variable, prev.String())
			}
			if next := last.Next(); next.IsValid() {
				h.add(c.Variable, next.String())
			}
		}
		h.cidrVars[c.Variable] = true

	case domain.ConstraintNumCompare:
		for _, v := range c.Values {
			h.addNum(c.Variable, v.Num)
			h.add(c.Variable, v.Num-1)
			h.add(c.Variable, v.Num+1)
		}

	case domain.ConstraintBoolEquals:
		for _, v := range c.Values {
			h.add(c.Variable, v.Bool)
		}

	case domain.ConstraintBindEquals:
		for _, v := range c.Values {
			h.addCoerced(c.Variable, v.Str)
		}

	case domain.ConstraintNot:
		for _, child := range c.Children {
			h.walk(child)
		}
	}
}

func (h *harvester) addCoerced(name, raw string) {
	switch h.types[name] {
	case constraint.TypeNumber:
		if n, err := domain.ParseNum(raw); err == nil {
			h.addNum(name, n)
		}
	case constraint.TypeBool:
		if b, ok := domain.ParseBool(raw); ok {
			h.add(name, b)
		}
	default:
		h.add(name, raw)
	}
}

// addMidpoints adds the midpoint between each pair of adjacent numeric
// literals. Literals one apart, like 10 and 11, leave a gap the +/-1
// neighbors cannot reach.
func (h *harvester) addMidpoints() {
	for name, nums := range h.nums {
		if len(nums) < 2 {
			continue
		}
		sorted := append([]float64(nil), nums...)
		sort.Float64s(sorted)
		for i := 1; i < len(sorted); i++ {
			if sorted[i] != sorted[i-1] {
				h.add(name, (sorted[i-1]+sorted[i])/2)
			}
		}
	}
}

// addAddrNeighbors adds the previous and next address of every
// address-shaped candidate on variables under CIDR predicates. An
// equality literal inside a block can pin its base or last address;
// the neighbors keep the rest of the block reachable.
func (h *harvester) addAddrNeighbors() {
	for name := range h.cidrVars {
		harvested := append([]interface{}(nil), h.values[name]...)
		for _, v := range harvested {
			s, ok := v.(string)
			if !ok {
				continue
			}
			addr, err := netip.ParseAddr(s)
			if err != nil {
				continue
			}
			if prev := addr.Prev(); prev.IsValid() {
				h.add(name, prev.String())
			}
			if next := addr.Next(); next.IsValid() {
				h.add(name, next.String())
			}
		}
	}
}

// expandPattern produces a concrete string matching a wildcard pattern:
// `*` contributes the filler, `?` contributes a single character.
func expandPattern(pattern, filler string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(filler)
		case '?':
			b.WriteString("a")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseBlock parses a CIDR block, treating a bare IP as a single-address
// prefix.
func parseBlock(block string) (netip.Prefix, bool) {
	if prefix, err := netip.ParsePrefix(block); err == nil {
		return prefix, true
	}
	if addr, err := netip.ParseAddr(block); err == nil {
		return netip.PrefixFrom(addr, addr.BitLen()), true
	}
	return netip.Prefix{}, false
}

// lastAddr returns the highest address inside the prefix
func lastAddr(p netip.Prefix) netip.Addr {
	raw := p.Masked().Addr().AsSlice()
	for i := p.Bits(); i < len(raw)*8; i++ {
		raw[i/8] |= 1 << (7 - i%8)
	}
	addr, _ := netip.AddrFromSlice(raw)
	return addr
}
