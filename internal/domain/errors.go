package domain

import "errors"

// Error taxonomy shared across the core packages. Wrap with
// fmt.Errorf("...: %w", err) and check with errors.Is.
var (
	// ErrInvalidGraph marks build-time graph defects: unknown node
	// references, duplicate node ids, malformed edges. Fatal, surfaced
	// immediately, never recovered locally.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrUnsupportedOperator marks a schema mismatch between input data and
	// the supported operator set. Fatal at build/convert time.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrInvalidContextValue marks an evaluation-time type mismatch: the
	// context value cannot be coerced to the operator's expected type. The
	// caller of the evaluator sees it; an in-progress traversal treats the
	// offending edge as non-traversable instead of aborting.
	ErrInvalidContextValue = errors.New("invalid context value")
)
