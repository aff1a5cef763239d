package graphload

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pathproof/internal/criticality"
	"pathproof/internal/domain"
	"pathproof/internal/policygraph"
)

/*
Graph Loader - Turns fixture files into policy graph records

SUPPORTED INPUTS:

1. Assets YAML: a list of {id, kind, criticality} records. An asset
   without an explicit criticality tier is classified by name.

2. Firewall rules CSV: source, destination, action[, conditions] rows.
   Action "allow"/"deny" maps to the edge effect; the optional conditions
   column uses the compact encoding parsed by ParseConditionSpec.

3. IAM policy JSON: one policy document per file in a directory. Each
   statement's Effect, Principal, Resource, and Condition map become one
   edge. Condition keys are matched case-insensitively and values may be
   a single string or a list, same as real policy documents.
*/

// AssetsFile is the top-level shape of an assets fixture
type AssetsFile struct {
	Assets []domain.Node `yaml:"assets"`
}

// LoadAssets reads the assets fixture and returns graph nodes. Assets
// without an explicit criticality are classified by name patterns.
func LoadAssets(path string) ([]domain.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets file %s: %w", path, err)
	}

	var file AssetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid YAML in assets file %s: %w", path, err)
	}

	nodes := make([]domain.Node, 0, len(file.Assets))
	for _, asset := range file.Assets {
		asset.Criticality = criticality.Resolve(asset)
		nodes = append(nodes, asset)
	}
	return nodes, nil
}

// LoadFirewallRules reads the firewall rules CSV and returns network
// edges in file order.
func LoadFirewallRules(path string) ([]domain.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open firewall rules file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV in firewall rules file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"source", "destination", "action"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("firewall rules file %s is missing column %q", path, required)
		}
	}

	edges := make([]domain.Edge, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		effect, err := parseAction(cell("action"))
		if err != nil {
			return nil, fmt.Errorf("firewall rules file %s: %w", path, err)
		}
		conditions, err := ParseConditionSpec(cell("conditions"))
		if err != nil {
			return nil, fmt.Errorf("firewall rules file %s: %w", path, err)
		}

		edges = append(edges, domain.Edge{
			Source:     cell("source"),
			Target:     cell("destination"),
			Kind:       domain.EdgeKindNetwork,
			Effect:     effect,
			Conditions: conditions,
		})
	}
	return edges, nil
}

// policyStatement is the subset of an IAM policy document the graph uses
type policyStatement struct {
	Effect    string                            `json:"Effect"`
	Principal string                            `json:"Principal"`
	Resource  string                            `json:"Resource"`
	Action    interface{}                       `json:"Action"`
	Condition map[string]map[string]interface{} `json:"Condition"`
}

// LoadIAMPolicies reads every *.json policy document in a directory and
// returns one IAM edge per document, in filename order.
func LoadIAMPolicies(dir string) ([]domain.Edge, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var edges []domain.Edge
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read IAM policy file %s: %w", path, err)
		}

		var stmt policyStatement
		if err := json.Unmarshal(data, &stmt); err != nil {
			return nil, fmt.Errorf("invalid JSON in IAM policy file %s: %w", path, err)
		}

		effect, err := parseEffect(stmt.Effect)
		if err != nil {
			return nil, fmt.Errorf("IAM policy file %s: %w", path, err)
		}

		edges = append(edges, domain.Edge{
			Source:     stmt.Principal,
			Target:     stmt.Resource,
			Kind:       domain.EdgeKindIAM,
			Effect:     effect,
			Conditions: extractConditions(stmt.Condition),
			Label:      strings.Join(normalizeToStringSlice(stmt.Action), ","),
		})
	}
	return edges, nil
}

// LoadGraph loads every fixture and builds the policy graph. Empty paths
// skip that input.
func LoadGraph(assetsPath, rulesPath, policiesDir string) (*policygraph.Graph, error) {
	var nodes []domain.Node
	var edges []domain.Edge

	if assetsPath != "" {
		loaded, err := LoadAssets(assetsPath)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, loaded...)
	}
	if rulesPath != "" {
		loaded, err := LoadFirewallRules(rulesPath)
		if err != nil {
			return nil, err
		}
		edges = append(edges, loaded...)
	}
	if policiesDir != "" {
		loaded, err := LoadIAMPolicies(policiesDir)
		if err != nil {
			return nil, err
		}
		edges = append(edges, loaded...)
	}

	return policygraph.Build(nodes, edges)
}

// extractConditions flattens a policy Condition map into condition
// records, operators and keys in sorted order so loading is
// deterministic.
func extractConditions(condition map[string]map[string]interface{}) []domain.Condition {
	if len(condition) == 0 {
		return nil
	}

	operators := make([]string, 0, len(condition))
	for op := range condition {
		operators = append(operators, op)
	}
	sort.Strings(operators)

	var out []domain.Condition
	for _, op := range operators {
		keyed := condition[op]
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			out = append(out, domain.Condition{
				Operator: domain.Operator(op),
				Key:      strings.ToLower(k),
				Values:   normalizeToStringSlice(keyed[k]),
			})
		}
	}
	return out
}

// normalizeToStringSlice converts a policy value to []string
func normalizeToStringSlice(val interface{}) []string {
	switch v := val.(type) {
	case string:
		return []string{v}
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	case []string:
		return v
	}
	return nil
}

// ParseConditionSpec parses the compact condition encoding used by CSV
// and DOT fixtures: semicolon-separated terms of the form
// "Operator:key=value|value". An empty spec means no conditions.
func ParseConditionSpec(spec string) ([]domain.Condition, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var out []domain.Condition
	for _, term := range strings.Split(spec, ";") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		opAndRest := strings.SplitN(term, ":", 2)
		if len(opAndRest) != 2 {
			return nil, fmt.Errorf("condition term %q is missing the operator separator", term)
		}
		keyAndValues := strings.SplitN(opAndRest[1], "=", 2)
		if len(keyAndValues) != 2 {
			return nil, fmt.Errorf("condition term %q is missing the key separator", term)
		}

		values := strings.Split(keyAndValues[1], "|")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}

		out = append(out, domain.Condition{
			Operator: domain.Operator(strings.TrimSpace(opAndRest[0])),
			Key:      strings.ToLower(strings.TrimSpace(keyAndValues[0])),
			Values:   values,
		})
	}
	return out, nil
}

func parseAction(action string) (domain.Effect, error) {
	switch strings.ToLower(action) {
	case "allow":
		return domain.EffectAllow, nil
	case "deny":
		return domain.EffectDeny, nil
	default:
		return "", fmt.Errorf("unknown action %q", action)
	}
}

func parseEffect(effect string) (domain.Effect, error) {
	switch effect {
	case "Allow":
		return domain.EffectAllow, nil
	case "Deny":
		return domain.EffectDeny, nil
	default:
		return "", fmt.Errorf("unknown effect %q", effect)
	}
}
