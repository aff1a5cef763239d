package domain

// NodeKind represents the category of an asset node
type NodeKind string

const (
	NodeKindIdentity       NodeKind = "identity"
	NodeKindResource       NodeKind = "resource"
	NodeKindNetworkSegment NodeKind = "network-segment"
)

// EdgeKind represents the rule family an edge came from
type EdgeKind string

const (
	EdgeKindNetwork EdgeKind = "network"
	EdgeKindIAM     EdgeKind = "iam"
)

// Effect represents the outcome attached to a policy edge
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Criticality tiers assigned to nodes; empty means unclassified
const (
	CriticalityHigh   = "high"
	CriticalityNormal = "normal"
)

// LogLevel represents log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// Node is an asset, identity, or network segment in the policy graph
type Node struct {
	ID          string   `json:"id" yaml:"id"`
	Kind        NodeKind `json:"kind" yaml:"kind"`
	Criticality string   `json:"criticality,omitempty" yaml:"criticality,omitempty"`
}

// Edge is a directed policy rule between two nodes. Multiple edges between
// the same pair are permitted; each represents a distinct rule.
type Edge struct {
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Kind       EdgeKind    `json:"kind"`
	Effect     Effect      `json:"effect"`
	Conditions []Condition `json:"conditions,omitempty"`
	Label      string      `json:"label,omitempty"`
}

// Context maps condition keys to the concrete values of one traversal.
// It is supplied by the caller and never owned by the graph.
type Context map[string]string
