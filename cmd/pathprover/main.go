package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pathproof/internal/app"
	"pathproof/internal/domain"
	"pathproof/internal/logging"
	"pathproof/internal/outputter"
)

type flags struct {
	assets   string
	rules    string
	policies string
	dot      string
	source   string
	target   string
	maxDepth int
	context  []string
	bind     []string
	timeout  time.Duration
	workers  int
	jsonOut  bool
	debug    bool
	watch    bool
}

func main() {
	var f flags

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "pathprover",
		Short: "Path Prover - Security Policy Exploitability Analyzer",
		Long:  "Discovers attack paths in a policy graph and proves which are exploitable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPathProver(ctx, f)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&f.assets, "assets", "", "Assets YAML fixture")
	rootCmd.Flags().StringVar(&f.rules, "rules", "", "Firewall rules CSV fixture")
	rootCmd.Flags().StringVar(&f.policies, "policies", "", "Directory of IAM policy JSON documents")
	rootCmd.Flags().StringVar(&f.dot, "dot", "", "Policy graph in Graphviz DOT format (overrides other fixtures)")
	rootCmd.Flags().StringVar(&f.source, "source", "internet", "Source node id")
	rootCmd.Flags().StringVar(&f.target, "target", "", "Target node id")
	rootCmd.Flags().IntVar(&f.maxDepth, "max-depth", 5, "Maximum path length in hops")
	rootCmd.Flags().StringArrayVar(&f.context, "context", nil, "Context binding key=value for discovery-time pruning (repeatable)")
	rootCmd.Flags().StringArrayVar(&f.bind, "bind", nil, "Variable binding key=value added to every constraint set (repeatable)")
	rootCmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Per-path solver timeout")
	rootCmd.Flags().IntVar(&f.workers, "workers", 4, "Concurrent verification workers")
	rootCmd.Flags().BoolVar(&f.jsonOut, "json", false, "Emit the report as JSON")
	rootCmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging (verbose output)")
	rootCmd.Flags().BoolVar(&f.watch, "watch", false, "Re-run the analysis when fixture files change")

	if err := rootCmd.MarkFlagRequired("target"); err != nil {
		panic(err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPathProver(ctx context.Context, f flags) error {
	// Load .env file if present (optional)
	_ = godotenv.Load()

	logging.SetLogLevel(logging.LogLevelWarn)
	if f.debug {
		logging.SetLogLevel(logging.LogLevelDebug)
	}

	config, err := buildConfig(f)
	if err != nil {
		return err
	}

	// STEP 1: Load the fixtures and build the policy graph
	prover, err := app.NewProver(config)
	if err != nil {
		return err
	}

	// STEP 2-4: Discover paths, convert to constraints, verify
	if err := analyzeAndReport(ctx, prover, f.jsonOut); err != nil {
		return err
	}

	if !f.watch {
		return nil
	}

	// Optional watch loop: rebuild and re-run on fixture change
	watcher, err := app.NewWatcher(config, func(p *app.Prover) {
		if err := analyzeAndReport(ctx, p, f.jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Watching fixtures for changes...")
	return watcher.Run(ctx)
}

func analyzeAndReport(ctx context.Context, prover *app.Prover, jsonOut bool) error {
	findings, err := prover.Analyze(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return outputter.WriteJSON(os.Stdout, findings)
	}
	fmt.Print(outputter.FormatReport(findings))
	return nil
}

func buildConfig(f flags) (app.Config, error) {
	if f.dot == "" && f.assets == "" && f.rules == "" && f.policies == "" {
		return app.Config{}, fmt.Errorf("no fixtures given: provide --dot or --assets/--rules/--policies")
	}

	contextMap, err := parsePairs(f.context, "context")
	if err != nil {
		return app.Config{}, err
	}
	bindings, err := parsePairs(f.bind, "bind")
	if err != nil {
		return app.Config{}, err
	}

	var discoveryCtx domain.Context
	if len(contextMap) > 0 {
		discoveryCtx = domain.Context(contextMap)
	}

	return app.Config{
		AssetsPath:  f.assets,
		RulesPath:   f.rules,
		PoliciesDir: f.policies,
		DOTPath:     f.dot,
		Source:      f.source,
		Target:      f.target,
		MaxDepth:    f.maxDepth,
		Context:     discoveryCtx,
		Bindings:    bindings,
		Timeout:     f.timeout,
		Workers:     f.workers,
	}, nil
}

// parsePairs converts repeated key=value flags into a map. Keys are
// lowercased to match condition keys, which are normalized at load time.
func parsePairs(pairs []string, flagName string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --%s value %q: expected key=value", flagName, pair)
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out, nil
}
