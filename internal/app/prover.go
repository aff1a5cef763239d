package app

import (
	"context"
	"fmt"
	"time"

	"pathproof/internal/constraint"
	"pathproof/internal/domain"
	"pathproof/internal/graphload"
	"pathproof/internal/logging"
	"pathproof/internal/outputter"
	"pathproof/internal/pathfinder"
	"pathproof/internal/policygraph"
	"pathproof/internal/solver"
	"pathproof/internal/verifier"
)

// Config selects the fixtures and knobs for one analysis run. Either DOT
// or the assets/rules/policies trio describes the graph; DOT wins when
// both are set.
type Config struct {
	AssetsPath   string
	RulesPath    string
	PoliciesDir  string
	DOTPath      string
	Source       string
	Target       string
	MaxDepth     int
	Context      domain.Context
	Bindings     map[string]string
	Timeout      time.Duration
	Workers      int
}

// Prover wires the policy graph, path discovery, and verification
// pipeline for one loaded graph.
type Prover struct {
	graph    *policygraph.Graph
	finder   *pathfinder.Finder
	verifier *verifier.Verifier
	config   Config
}

// NewProver loads the configured fixtures and assembles the pipeline
func NewProver(config Config) (*Prover, error) {
	var graph *policygraph.Graph
	var err error

	if config.DOTPath != "" {
		graph, err = graphload.LoadDOT(config.DOTPath)
	} else {
		graph, err = graphload.LoadGraph(config.AssetsPath, config.RulesPath, config.PoliciesDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy graph: %w", err)
	}

	logging.LogInfo("Policy graph loaded", map[string]interface{}{
		"nodes": graph.NodeCount(),
		"edges": graph.EdgeCount(),
	})

	return &Prover{
		graph:  graph,
		finder: pathfinder.New(graph),
		verifier: verifier.New(solver.NewLocal(),
			verifier.WithTimeout(config.Timeout),
			verifier.WithWorkers(config.Workers)),
		config: config,
	}, nil
}

// Graph returns the loaded policy graph
func (p *Prover) Graph() *policygraph.Graph { return p.graph }

// Analyze runs the full pipeline: discover candidate paths, convert each
// to a constraint set, and verify them concurrently.
func (p *Prover) Analyze(ctx context.Context) ([]outputter.Finding, error) {
	start := time.Now()
	logging.LogOperationStart("analyze", map[string]interface{}{
		"source": p.config.Source,
		"target": p.config.Target,
	})

	paths, err := p.finder.Find(p.config.Source, p.config.Target, p.config.MaxDepth, p.config.Context)
	if err != nil {
		return nil, fmt.Errorf("path discovery failed: %w", err)
	}

	sets := make([]domain.ConstraintSet, 0, len(paths))
	for _, path := range paths {
		cs, err := constraint.ToConstraintSet(path, p.config.Bindings)
		if err != nil {
			return nil, fmt.Errorf("constraint conversion failed for path %s: %w", path.Label(), err)
		}
		sets = append(sets, cs)
	}

	results := p.verifier.VerifyBatch(ctx, sets)

	findings := make([]outputter.Finding, len(paths))
	for i := range paths {
		findings[i] = outputter.Finding{Path: paths[i], Proof: results[i]}
	}

	logging.LogOperationEnd("analyze", time.Since(start), true, len(paths), len(findings), nil)
	return findings, nil
}
