package verifier

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pathproof/internal/domain"
	"pathproof/internal/solver"
)

// fakeSolver scripts the backend's behavior per call
type fakeSolver struct {
	check func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error)
}

func (f *fakeSolver) Check(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
	return f.check(ctx, cs)
}

func equalsConstraint(variable, value string) domain.Constraint {
	return domain.Constraint{
		Op:       domain.ConstraintEqualsAny,
		Variable: variable,
		Values:   []domain.Value{domain.StrValue(value)},
	}
}

func TestVerify_SatisfiableResult(t *testing.T) {
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		return solver.Result{
			Status: domain.StatusSatisfiable,
			Model:  map[string]string{"user": "admin"},
		}, nil
	}}

	cs := domain.ConstraintSet{
		Path:        &domain.Path{Nodes: []string{"a", "b"}},
		Constraints: []domain.Constraint{equalsConstraint("user", "admin")},
	}

	result := New(backend).Verify(context.Background(), cs)
	if result.Status != domain.StatusSatisfiable {
		t.Fatalf("Expected SATISFIABLE, got %s", result.Status)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0 for a complete model, got %f", result.Confidence)
	}
	if result.Model["user"] != "admin" {
		t.Errorf("Expected the model to pass through, got %v", result.Model)
	}
	if result.ConstraintCount != 1 {
		t.Errorf("Expected constraint count 1, got %d", result.ConstraintCount)
	}
	if result.Path == nil || result.Path.Label() != "a -> b" {
		t.Error("Expected the result to carry its path")
	}
}

func TestVerify_PartialModelLowersConfidence(t *testing.T) {
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		return solver.Result{
			Status: domain.StatusSatisfiable,
			Model:  map[string]string{"user": "admin"},
		}, nil
	}}

	cs := domain.ConstraintSet{Constraints: []domain.Constraint{
		equalsConstraint("user", "admin"),
		equalsConstraint("zone", "dmz"),
	}}

	result := New(backend).Verify(context.Background(), cs)
	if result.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5 with one of two variables assigned, got %f", result.Confidence)
	}
}

func TestVerify_UnsatisfiableIsExact(t *testing.T) {
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		return solver.Result{Status: domain.StatusUnsatisfiable}, nil
	}}

	result := New(backend).Verify(context.Background(), domain.ConstraintSet{})
	if result.Status != domain.StatusUnsatisfiable {
		t.Fatalf("Expected UNSATISFIABLE, got %s", result.Status)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0 for a proof of infeasibility, got %f", result.Confidence)
	}
}

func TestVerify_TimeoutMapsToUnknown(t *testing.T) {
	// The backend honors the deadline and surfaces the ctx error
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		<-ctx.Done()
		return solver.Result{Status: domain.StatusUnknown}, ctx.Err()
	}}

	result := New(backend, WithTimeout(10*time.Millisecond)).Verify(context.Background(), domain.ConstraintSet{})
	if result.Status != domain.StatusUnknown {
		t.Fatalf("Expected UNKNOWN on timeout, got %s", result.Status)
	}
	if result.Confidence != 0.0 {
		t.Errorf("Expected confidence 0.0, got %f", result.Confidence)
	}
	if result.SolverError == "" {
		t.Error("Expected the solver error to be recorded")
	}
}

func TestVerify_BackendFailureMapsToUnknown(t *testing.T) {
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		return solver.Result{}, errors.New("backend exploded")
	}}

	result := New(backend).Verify(context.Background(), domain.ConstraintSet{})
	if result.Status != domain.StatusUnknown {
		t.Fatalf("Expected UNKNOWN on backend failure, got %s", result.Status)
	}
	if result.SolverError != "backend exploded" {
		t.Errorf("Expected the error message to be recorded, got %q", result.SolverError)
	}
}

func TestVerify_SolverGiveUpIsUnknown(t *testing.T) {
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		return solver.Result{Status: domain.StatusUnknown}, nil
	}}

	result := New(backend).Verify(context.Background(), domain.ConstraintSet{})
	if result.Status != domain.StatusUnknown {
		t.Fatalf("Expected UNKNOWN, got %s", result.Status)
	}
	if result.Confidence != 0.0 {
		t.Errorf("Expected confidence 0.0, got %f", result.Confidence)
	}
}

func TestVerifyBatch_PreservesInputOrder(t *testing.T) {
	// The backend keys its answer off the constraint variable so each
	// result is attributable to its input
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		variable := cs.Constraints[0].Variable
		return solver.Result{
			Status: domain.StatusSatisfiable,
			Model:  map[string]string{variable: "yes"},
		}, nil
	}}

	sets := make([]domain.ConstraintSet, 8)
	for i := range sets {
		sets[i] = domain.ConstraintSet{Constraints: []domain.Constraint{
			equalsConstraint(fmt.Sprintf("var%d", i), "yes"),
		}}
	}

	results := New(backend, WithWorkers(3)).VerifyBatch(context.Background(), sets)
	if len(results) != len(sets) {
		t.Fatalf("Expected %d results, got %d", len(sets), len(results))
	}
	for i, r := range results {
		want := fmt.Sprintf("var%d", i)
		if r.Model[want] != "yes" {
			t.Errorf("Result %d does not match input %d: %v", i, i, r.Model)
		}
	}
}

func TestVerifyBatch_FailuresAreIndependent(t *testing.T) {
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		if cs.Constraints[0].Variable == "broken" {
			return solver.Result{}, errors.New("solver failure")
		}
		return solver.Result{Status: domain.StatusUnsatisfiable}, nil
	}}

	sets := []domain.ConstraintSet{
		{Constraints: []domain.Constraint{equalsConstraint("fine", "v")}},
		{Constraints: []domain.Constraint{equalsConstraint("broken", "v")}},
		{Constraints: []domain.Constraint{equalsConstraint("fine2", "v")}},
	}

	results := New(backend).VerifyBatch(context.Background(), sets)
	if results[0].Status != domain.StatusUnsatisfiable {
		t.Errorf("Expected first result unaffected, got %s", results[0].Status)
	}
	if results[1].Status != domain.StatusUnknown {
		t.Errorf("Expected the failing set to report UNKNOWN, got %s", results[1].Status)
	}
	if results[2].Status != domain.StatusUnsatisfiable {
		t.Errorf("Expected third result unaffected, got %s", results[2].Status)
	}
}

func TestVerifyBatch_EmptyInput(t *testing.T) {
	backend := &fakeSolver{check: func(ctx context.Context, cs domain.ConstraintSet) (solver.Result, error) {
		t.Fatal("Backend must not be called for an empty batch")
		return solver.Result{}, nil
	}}

	results := New(backend).VerifyBatch(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}
