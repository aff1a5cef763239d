package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pathproof/internal/domain"
	"pathproof/internal/logging"
	"pathproof/internal/solver"
)

/*
Verifier - Satisfiability verification of converted paths

Wraps an injected Solver backend with per-check timeouts and maps every
outcome onto the three-valued proof model:
  - a model exists              -> SATISFIABLE, with the witness context
  - the search space is exhausted -> UNSATISFIABLE
  - timeout, cancellation, or a solver failure -> UNKNOWN

Unknown is never silently upgraded; its confidence is pinned to zero so
downstream reporting treats the path as unproven rather than safe.
*/

const (
	defaultTimeout = 10 * time.Second
	defaultWorkers = 4
)

// Verifier runs satisfiability checks against a pluggable solver backend
type Verifier struct {
	solver  solver.Solver
	timeout time.Duration
	workers int
}

// Option configures a Verifier
type Option func(*Verifier)

// WithTimeout sets the per-check solver timeout
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithWorkers sets the batch concurrency limit
func WithWorkers(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.workers = n
		}
	}
}

// New creates a Verifier around the given solver backend
func New(s solver.Solver, opts ...Option) *Verifier {
	v := &Verifier{
		solver:  s,
		timeout: defaultTimeout,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks one constraint set and reports the proof outcome. The
// solver runs under the configured timeout; expiry or backend failure
// yields an UNKNOWN result rather than an error, so a batch never stalls
// on one stubborn path.
func (v *Verifier) Verify(ctx context.Context, cs domain.ConstraintSet) domain.ProofResult {
	checkCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	res, err := v.solver.Check(checkCtx, cs)
	elapsed := time.Since(start)

	result := domain.ProofResult{
		Path:            cs.Path,
		Elapsed:         elapsed,
		ConstraintCount: len(cs.Constraints),
	}

	if err != nil {
		result.Status = domain.StatusUnknown
		result.Confidence = 0.0
		result.SolverError = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			result.Explanation = fmt.Sprintf("solver timed out after %s", v.timeout)
		} else if errors.Is(err, context.Canceled) {
			result.Explanation = "verification canceled"
		} else {
			result.Explanation = "solver backend failed"
		}
		logging.LogSolverCall(string(result.Status), result.ConstraintCount, elapsed, err)
		return result
	}

	switch res.Status {
	case domain.StatusSatisfiable:
		result.Status = domain.StatusSatisfiable
		result.Model = res.Model
		result.Confidence = modelConfidence(cs, res.Model)
		result.Explanation = "a context satisfying every edge condition exists"
	case domain.StatusUnsatisfiable:
		result.Status = domain.StatusUnsatisfiable
		result.Confidence = 1.0
		result.Explanation = "no context can satisfy the path's conditions"
	default:
		result.Status = domain.StatusUnknown
		result.Confidence = 0.0
		result.Explanation = "solver could not decide the path within its search bounds"
	}

	logging.LogSolverCall(string(result.Status), result.ConstraintCount, elapsed, nil)
	return result
}

// VerifyBatch checks constraint sets concurrently and returns results in
// input order. Each check is independent; one failure does not affect the
// others.
func (v *Verifier) VerifyBatch(ctx context.Context, sets []domain.ConstraintSet) []domain.ProofResult {
	results := make([]domain.ProofResult, len(sets))
	if len(sets) == 0 {
		return results
	}

	logging.LogOperationStart("verify_batch", map[string]interface{}{
		"paths":   len(sets),
		"workers": v.workers,
	})
	start := time.Now()

	semaphore := make(chan struct{}, v.workers)
	var wg sync.WaitGroup

	for i, cs := range sets {
		wg.Add(1)
		go func(idx int, set domain.ConstraintSet) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[idx] = v.Verify(ctx, set)
		}(i, cs)
	}

	wg.Wait()

	satisfiable := 0
	for _, r := range results {
		if r.Status == domain.StatusSatisfiable {
			satisfiable++
		}
	}
	logging.LogOperationEnd("verify_batch", time.Since(start), true, len(sets), satisfiable, nil)

	return results
}

// modelConfidence scores a satisfiable result by model completeness: the
// fraction of the set's variables the model assigns. A set with no
// variables is trivially satisfiable at full confidence.
func modelConfidence(cs domain.ConstraintSet, model map[string]string) float64 {
	variables := cs.Variables()
	if len(variables) == 0 {
		return 1.0
	}
	assigned := 0
	for _, name := range variables {
		if _, ok := model[name]; ok {
			assigned++
		}
	}
	return float64(assigned) / float64(len(variables))
}
