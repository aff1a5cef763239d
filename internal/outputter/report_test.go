package outputter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"pathproof/internal/domain"
)

func sampleFinding(status domain.ProofStatus, nodes ...string) Finding {
	edges := make([]domain.Edge, 0, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		edges = append(edges, domain.Edge{
			Source: nodes[i], Target: nodes[i+1],
			Kind: domain.EdgeKindNetwork, Effect: domain.EffectAllow,
		})
	}
	return Finding{
		Path:  domain.Path{Nodes: nodes, Edges: edges},
		Proof: domain.ProofResult{Status: status, Confidence: 1.0},
	}
}

func TestExplainPath(t *testing.T) {
	path := domain.Path{
		Nodes: []string{"internet", "web", "database"},
		Edges: []domain.Edge{
			{Source: "internet", Target: "web", Kind: domain.EdgeKindNetwork, Effect: domain.EffectAllow},
			{Source: "web", Target: "database", Kind: domain.EdgeKindIAM, Effect: domain.EffectAllow},
			{Source: "web", Target: "database", Kind: domain.EdgeKindIAM, Effect: domain.EffectDeny},
		},
	}

	reasons := ExplainPath(path)
	if len(reasons) != 3 {
		t.Fatalf("Expected one reason per edge, got %d", len(reasons))
	}
	if reasons[0] != "internet can reach web due to an allowed network rule" {
		t.Errorf("Unexpected network reason: %q", reasons[0])
	}
	if reasons[1] != "web has permission to access database due to an IAM policy" {
		t.Errorf("Unexpected IAM reason: %q", reasons[1])
	}
	if !strings.Contains(reasons[2], "deny rule") {
		t.Errorf("Expected the carried deny to be explained, got %q", reasons[2])
	}
}

func TestScore(t *testing.T) {
	exploitable := sampleFinding(domain.StatusSatisfiable, "internet", "web", "database")
	exploitable.Path.TargetCriticality = domain.CriticalityHigh
	if got := exploitable.Score(); got != 8 {
		t.Errorf("Expected score 8 (3 nodes + 5 for criticality), got %d", got)
	}

	safe := sampleFinding(domain.StatusUnsatisfiable, "internet", "database")
	if got := safe.Score(); got != 0 {
		t.Errorf("Expected unexploitable paths to score 0, got %d", got)
	}
}

func TestFormatReport_OrdersByScoreAndSummarizes(t *testing.T) {
	short := sampleFinding(domain.StatusSatisfiable, "internet", "database")
	long := sampleFinding(domain.StatusSatisfiable, "internet", "web", "database")
	safe := sampleFinding(domain.StatusUnsatisfiable, "internet", "backup")
	unknown := sampleFinding(domain.StatusUnknown, "internet", "cache")

	report := FormatReport([]Finding{short, safe, long, unknown})

	longIdx := strings.Index(report, "internet -> web -> database")
	shortIdx := strings.Index(report, "internet -> database")
	if longIdx == -1 || shortIdx == -1 {
		t.Fatal("Expected both paths in the report")
	}
	if longIdx > shortIdx {
		t.Error("Expected the higher-scoring path first")
	}
	if !strings.Contains(report, "4 path(s) analyzed, 2 exploitable, 1 unknown, 1 proven safe") {
		t.Errorf("Unexpected summary line in:\n%s", report)
	}
}

func TestFormatReport_Empty(t *testing.T) {
	report := FormatReport(nil)
	if !strings.Contains(report, "none") {
		t.Errorf("Expected an explicit empty marker, got:\n%s", report)
	}
}

func TestFormatFinding_IncludesWitnessModel(t *testing.T) {
	f := sampleFinding(domain.StatusSatisfiable, "internet", "database")
	f.Proof.Model = map[string]string{"user": "admin", "sourceip": "10.0.0.1"}

	text := FormatFinding(f)
	if !strings.Contains(text, "sourceip=10.0.0.1, user=admin") {
		t.Errorf("Expected the model in sorted key order, got:\n%s", text)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []Finding{sampleFinding(domain.StatusSatisfiable, "a", "b")}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded struct {
		Findings []Finding `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if len(decoded.Findings) != 1 || decoded.Findings[0].Proof.Status != domain.StatusSatisfiable {
		t.Errorf("Unexpected decoded report: %+v", decoded)
	}
}
