package solver

import (
	"context"

	"pathproof/internal/domain"
)

// Result is the three-valued outcome of one satisfiability check. Model is
// populated only for Satisfiable results and maps each assigned variable
// to its literal form.
type Result struct {
	Status domain.ProofStatus
	Model  map[string]string
}

// Solver is the satisfiability-checking capability injected into the
// Verifier. Implementations honor ctx cancellation/deadline as their only
// interruption mechanism and report failures via error; the Verifier maps
// both to Unknown. Nothing beyond this contract may be assumed about a
// backend.
type Solver interface {
	Check(ctx context.Context, cs domain.ConstraintSet) (Result, error)
}
