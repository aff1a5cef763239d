package domain

import (
	"strconv"
	"strings"
)

// ValueKind tags the closed Value variant
type ValueKind int

const (
	ValueStr ValueKind = iota
	ValueNum
	ValueBool
)

// Value is a tagged union for condition and binding literals. Coercion from
// the raw string form happens once, at evaluation or conversion time, never
// implicitly elsewhere.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// Str wraps a string literal
func StrValue(s string) Value { return Value{Kind: ValueStr, Str: s} }

// NumValue wraps a numeric literal
func NumValue(n float64) Value { return Value{Kind: ValueNum, Num: n} }

// BoolValue wraps a boolean literal
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// ParseNum coerces a raw literal to a number
func ParseNum(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseBool coerces a raw literal to a boolean. Accepted forms are
// "true"/"false" (any case) and "1"/"0".
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// String renders the value in its literal form
func (v Value) String() string {
	switch v.Kind {
	case ValueNum:
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}
