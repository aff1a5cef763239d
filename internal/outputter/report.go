package outputter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"pathproof/internal/domain"
)

// Finding pairs one discovered path with its proof outcome
type Finding struct {
	Path  domain.Path        `json:"path"`
	Proof domain.ProofResult `json:"proof"`
}

// Score ranks a finding for report ordering: longer paths mean more
// steps, a high-criticality target adds weight, and only satisfiable
// paths count at all.
func (f Finding) Score() int {
	if f.Proof.Status != domain.StatusSatisfiable {
		return 0
	}
	score := f.Path.Length()
	if f.Path.TargetCriticality == domain.CriticalityHigh {
		score += 5
	}
	return score
}

// ExplainPath produces one human-readable reason per hop
func ExplainPath(path domain.Path) []string {
	var explanation []string
	for _, edge := range path.Edges {
		switch {
		case edge.Effect == domain.EffectDeny:
			explanation = append(explanation,
				fmt.Sprintf("a deny rule from %s to %s can block this hop when its conditions hold", edge.Source, edge.Target))
		case edge.Kind == domain.EdgeKindIAM:
			explanation = append(explanation,
				fmt.Sprintf("%s has permission to access %s due to an IAM policy", edge.Source, edge.Target))
		default:
			explanation = append(explanation,
				fmt.Sprintf("%s can reach %s due to an allowed network rule", edge.Source, edge.Target))
		}
	}
	return explanation
}

// FormatFinding renders one finding as a text block
func FormatFinding(f Finding) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s\n", statusIcon(f.Proof.Status), f.Path.Label()))
	b.WriteString(fmt.Sprintf("   status: %s (confidence %.2f)  hops: %d  target criticality: %s\n",
		f.Proof.Status, f.Proof.Confidence, f.Path.Hops(), f.Path.TargetCriticality))

	for _, reason := range ExplainPath(f.Path) {
		b.WriteString(fmt.Sprintf("   - %s\n", reason))
	}

	if f.Proof.Explanation != "" {
		b.WriteString(fmt.Sprintf("   proof: %s\n", f.Proof.Explanation))
	}
	if len(f.Proof.Model) > 0 {
		b.WriteString(fmt.Sprintf("   witness context: %s\n", formatModel(f.Proof.Model)))
	}
	if f.Proof.SolverError != "" {
		b.WriteString(fmt.Sprintf("   solver error: %s\n", f.Proof.SolverError))
	}

	return b.String()
}

// FormatReport renders the full text report, exploitable paths first in
// descending score order.
func FormatReport(findings []Finding) string {
	ordered := make([]Finding, len(findings))
	copy(ordered, findings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score() > ordered[j].Score()
	})

	var b strings.Builder
	b.WriteString("Discovered attack paths:\n\n")

	if len(ordered) == 0 {
		b.WriteString("none\n")
		return b.String()
	}

	satisfiable, unknown := 0, 0
	for _, f := range ordered {
		b.WriteString(FormatFinding(f))
		b.WriteString("\n")
		switch f.Proof.Status {
		case domain.StatusSatisfiable:
			satisfiable++
		case domain.StatusUnknown:
			unknown++
		}
	}

	b.WriteString(fmt.Sprintf("Summary: %d path(s) analyzed, %d exploitable, %d unknown, %d proven safe\n",
		len(ordered), satisfiable, unknown, len(ordered)-satisfiable-unknown))

	return b.String()
}

// WriteJSON writes the findings as an indented JSON report
func WriteJSON(w io.Writer, findings []Finding) error {
	report := struct {
		Findings []Finding `json:"findings"`
	}{Findings: findings}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func statusIcon(status domain.ProofStatus) string {
	switch status {
	case domain.StatusSatisfiable:
		return "❌"
	case domain.StatusUnsatisfiable:
		return "✅"
	default:
		return "❓"
	}
}

// formatModel renders a witness model as "key=value, key=value" in
// sorted key order.
func formatModel(model map[string]string) string {
	keys := make([]string, 0, len(model))
	for k := range model {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + model[k]
	}
	return strings.Join(parts, ", ")
}
