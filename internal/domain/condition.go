package domain

// Operator names a comparison rule applied to a context value
type Operator string

const (
	OpStringEquals           Operator = "StringEquals"
	OpStringNotEquals        Operator = "StringNotEquals"
	OpStringEqualsIgnoreCase Operator = "StringEqualsIgnoreCase"
	OpStringLike             Operator = "StringLike"
	OpStringNotLike          Operator = "StringNotLike"
	OpIPAddress              Operator = "IpAddress"
	OpNotIPAddress           Operator = "NotIpAddress"
	OpNumericEquals          Operator = "NumericEquals"
	OpNumericNotEquals       Operator = "NumericNotEquals"
	OpNumericGreater         Operator = "NumericGreaterThan"
	OpNumericLess            Operator = "NumericLessThan"
	OpNumericGreaterEquals   Operator = "NumericGreaterThanEquals"
	OpNumericLessEquals      Operator = "NumericLessThanEquals"
	OpArnLike                Operator = "ArnLike"
	OpArnNotLike             Operator = "ArnNotLike"
	OpBool                   Operator = "Bool"
)

var supportedOperators = map[Operator]bool{
	OpStringEquals:           true,
	OpStringNotEquals:        true,
	OpStringEqualsIgnoreCase: true,
	OpStringLike:             true,
	OpStringNotLike:          true,
	OpIPAddress:              true,
	OpNotIPAddress:           true,
	OpNumericEquals:          true,
	OpNumericNotEquals:       true,
	OpNumericGreater:         true,
	OpNumericLess:            true,
	OpNumericGreaterEquals:   true,
	OpNumericLessEquals:      true,
	OpArnLike:                true,
	OpArnNotLike:             true,
	OpBool:                   true,
}

// SupportedOperator reports whether op is in the supported operator set
func SupportedOperator(op Operator) bool {
	return supportedOperators[op]
}

// Condition is a single policy condition: an operator applied to a context
// key against one or more expected values. Values are loosely-typed
// literals interpreted per operator (plain string, wildcard pattern, CIDR
// block, numeric literal, boolean literal).
type Condition struct {
	Operator Operator `json:"operator"`
	Key      string   `json:"key"`
	Values   []string `json:"values"`
}
