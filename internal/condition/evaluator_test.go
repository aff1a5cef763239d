package condition

import (
	"errors"
	"testing"

	"pathproof/internal/domain"
)

/*
Condition Evaluator Tests

These tests verify the concrete-context semantics of every supported
operator: OR across the value list, fail-closed on missing keys, and
ErrInvalidContextValue on uncoercible context values.
*/

func cond(op domain.Operator, key string, values ...string) domain.Condition {
	return domain.Condition{Operator: op, Key: key, Values: values}
}

func TestEvaluate_StringOperators(t *testing.T) {
	tests := []struct {
		name string
		cond domain.Condition
		ctx  domain.Context
		want bool
	}{
		{"equals match", cond(domain.OpStringEquals, "user", "admin"), domain.Context{"user": "admin"}, true},
		{"equals mismatch", cond(domain.OpStringEquals, "user", "admin"), domain.Context{"user": "guest"}, false},
		{"equals any of list", cond(domain.OpStringEquals, "user", "admin", "ops"), domain.Context{"user": "ops"}, true},
		{"not equals", cond(domain.OpStringNotEquals, "user", "admin"), domain.Context{"user": "guest"}, true},
		{"not equals blocked by any match", cond(domain.OpStringNotEquals, "user", "admin", "guest"), domain.Context{"user": "guest"}, false},
		{"equals is case sensitive", cond(domain.OpStringEquals, "user", "Admin"), domain.Context{"user": "admin"}, false},
		{"ignore case match", cond(domain.OpStringEqualsIgnoreCase, "user", "Admin"), domain.Context{"user": "admin"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, tt.ctx)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_WildcardOperators(t *testing.T) {
	tests := []struct {
		name string
		cond domain.Condition
		ctx  domain.Context
		want bool
	}{
		// The wildcard matches string shape, not IP semantics
		{"star matches suffix", cond(domain.OpStringLike, "ip", "10.*"), domain.Context{"ip": "10.0.0.5"}, true},
		{"star rejects other prefix", cond(domain.OpStringLike, "ip", "10.*"), domain.Context{"ip": "192.0.0.5"}, false},
		{"question matches single char", cond(domain.OpStringLike, "env", "prod-?"), domain.Context{"env": "prod-1"}, true},
		{"question rejects two chars", cond(domain.OpStringLike, "env", "prod-?"), domain.Context{"env": "prod-12"}, false},
		{"literal dot is not a metachar", cond(domain.OpStringLike, "name", "a.b"), domain.Context{"name": "aXb"}, false},
		{"not like", cond(domain.OpStringNotLike, "ip", "10.*"), domain.Context{"ip": "192.0.0.5"}, true},
		{"arn like", cond(domain.OpArnLike, "arn", "arn:aws:s3:::data-*"), domain.Context{"arn": "arn:aws:s3:::data-prod"}, true},
		{"arn not like", cond(domain.OpArnNotLike, "arn", "arn:aws:s3:::data-*"), domain.Context{"arn": "arn:aws:s3:::data-prod"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, tt.ctx)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_IPOperators(t *testing.T) {
	tests := []struct {
		name string
		cond domain.Condition
		ctx  domain.Context
		want bool
	}{
		{"address inside block", cond(domain.OpIPAddress, "sourceip", "10.0.0.0/8"), domain.Context{"sourceip": "10.20.30.40"}, true},
		{"address outside block", cond(domain.OpIPAddress, "sourceip", "10.0.0.0/8"), domain.Context{"sourceip": "11.0.0.1"}, false},
		{"containment is not string prefix", cond(domain.OpIPAddress, "sourceip", "10.0.0.0/16"), domain.Context{"sourceip": "10.1.0.1"}, false},
		{"bare IP is a single-address block", cond(domain.OpIPAddress, "sourceip", "10.0.0.1"), domain.Context{"sourceip": "10.0.0.1"}, true},
		{"bare IP rejects neighbor", cond(domain.OpIPAddress, "sourceip", "10.0.0.1"), domain.Context{"sourceip": "10.0.0.2"}, false},
		{"not ip address", cond(domain.OpNotIPAddress, "sourceip", "10.0.0.0/8"), domain.Context{"sourceip": "192.168.1.1"}, true},
		{"any of several blocks", cond(domain.OpIPAddress, "sourceip", "10.0.0.0/8", "192.168.0.0/16"), domain.Context{"sourceip": "192.168.1.1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, tt.ctx)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_NumericOperators(t *testing.T) {
	tests := []struct {
		name string
		cond domain.Condition
		ctx  domain.Context
		want bool
	}{
		{"equals", cond(domain.OpNumericEquals, "port", "443"), domain.Context{"port": "443"}, true},
		{"equals compares numerically", cond(domain.OpNumericEquals, "port", "443"), domain.Context{"port": "443.0"}, true},
		{"not equals", cond(domain.OpNumericNotEquals, "port", "443"), domain.Context{"port": "80"}, true},
		{"greater", cond(domain.OpNumericGreater, "port", "1024"), domain.Context{"port": "8080"}, true},
		{"greater rejects equal", cond(domain.OpNumericGreater, "port", "1024"), domain.Context{"port": "1024"}, false},
		{"greater equals accepts equal", cond(domain.OpNumericGreaterEquals, "port", "1024"), domain.Context{"port": "1024"}, true},
		{"less", cond(domain.OpNumericLess, "port", "1024"), domain.Context{"port": "80"}, true},
		{"less equals", cond(domain.OpNumericLessEquals, "port", "1024"), domain.Context{"port": "1024"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, tt.ctx)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_BoolOperator(t *testing.T) {
	tests := []struct {
		name string
		cond domain.Condition
		ctx  domain.Context
		want bool
	}{
		{"true matches true", cond(domain.OpBool, "mfa", "true"), domain.Context{"mfa": "true"}, true},
		{"one coerces to true", cond(domain.OpBool, "mfa", "true"), domain.Context{"mfa": "1"}, true},
		{"case insensitive literal", cond(domain.OpBool, "mfa", "True"), domain.Context{"mfa": "TRUE"}, true},
		{"false rejects true", cond(domain.OpBool, "mfa", "false"), domain.Context{"mfa": "true"}, false},
		{"zero coerces to false", cond(domain.OpBool, "mfa", "false"), domain.Context{"mfa": "0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, tt.ctx)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvaluate_MissingKeyFailsClosed(t *testing.T) {
	// An absent fact must never satisfy a condition, and must not error
	for _, op := range []domain.Operator{
		domain.OpStringEquals, domain.OpStringNotEquals, domain.OpStringLike,
		domain.OpIPAddress, domain.OpNumericEquals, domain.OpBool,
	} {
		got, err := Evaluate(cond(op, "absent", "anything"), domain.Context{"other": "x"})
		if err != nil {
			t.Fatalf("Evaluate(%s) failed: %v", op, err)
		}
		if got {
			t.Errorf("Expected %s with missing key to evaluate false", op)
		}
	}
}

func TestEvaluate_InvalidContextValue(t *testing.T) {
	tests := []struct {
		name string
		cond domain.Condition
		ctx  domain.Context
	}{
		{"non-numeric under numeric", cond(domain.OpNumericEquals, "port", "443"), domain.Context{"port": "https"}},
		{"non-boolean under bool", cond(domain.OpBool, "mfa", "true"), domain.Context{"mfa": "yes"}},
		{"non-address under ip", cond(domain.OpIPAddress, "sourceip", "10.0.0.0/8"), domain.Context{"sourceip": "not-an-ip"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.cond, tt.ctx)
			if !errors.Is(err, domain.ErrInvalidContextValue) {
				t.Errorf("Expected ErrInvalidContextValue, got %v", err)
			}
		})
	}
}

func TestEvaluate_UnparseableBlockNeverMatches(t *testing.T) {
	// A malformed block in the policy is skipped, not an error; the
	// remaining blocks still apply
	c := cond(domain.OpIPAddress, "sourceip", "garbage", "10.0.0.0/8")
	got, err := Evaluate(c, domain.Context{"sourceip": "10.1.1.1"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !got {
		t.Error("Expected the valid block to still match")
	}
}

func TestEvaluate_UnsupportedOperator(t *testing.T) {
	_, err := Evaluate(cond(domain.Operator("DateEquals"), "when", "2024-01-01"), domain.Context{"when": "2024-01-01"})
	if !errors.Is(err, domain.ErrUnsupportedOperator) {
		t.Errorf("Expected ErrUnsupportedOperator, got %v", err)
	}
}

func TestMatchWildcard_CachesCompiledPatterns(t *testing.T) {
	// Same pattern twice must give the same answer; the second call hits
	// the cache
	for i := 0; i < 2; i++ {
		matched, err := MatchWildcard("a*c", "abbbc")
		if err != nil {
			t.Fatalf("MatchWildcard failed: %v", err)
		}
		if !matched {
			t.Error("Expected pattern to match")
		}
	}
}
