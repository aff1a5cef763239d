package domain

import "time"

// ProofStatus is the three-valued outcome of verifying a constraint set
type ProofStatus string

const (
	StatusSatisfiable   ProofStatus = "SATISFIABLE"
	StatusUnsatisfiable ProofStatus = "UNSATISFIABLE"
	StatusUnknown       ProofStatus = "UNKNOWN"
)

// ProofResult is the verification outcome for one path.
//
// Confidence mapping: Satisfiable derives from model completeness (1.0 for
// a full model), Unsatisfiable is always 1.0 (a proof of infeasibility is
// exact), Unknown is always 0.0 so callers treat the path as unproven
// rather than safe.
type ProofResult struct {
	Path            *Path             `json:"path,omitempty"`
	Status          ProofStatus       `json:"status"`
	Model           map[string]string `json:"model,omitempty"`
	Elapsed         time.Duration     `json:"elapsed_ns"`
	Confidence      float64           `json:"confidence"`
	ConstraintCount int               `json:"constraint_count"`
	Explanation     string            `json:"explanation,omitempty"`
	SolverError     string            `json:"solver_error,omitempty"`
}
