package criticality

import (
	_ "embed"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"pathproof/internal/domain"
)

//go:embed critical_patterns.yaml
var defaultConfigYAML []byte

// PatternConfig holds categorized name patterns for criticality detection
type PatternConfig struct {
	PositivePatterns map[string][]string `yaml:"positive_patterns"`
	NegativePatterns map[string][]string `yaml:"negative_patterns"`
}

// CompiledPatterns holds the compiled regex patterns
type CompiledPatterns struct {
	Positive *regexp.Regexp
	Negative *regexp.Regexp
}

var compiledPatterns *CompiledPatterns

func init() {
	config, err := LoadConfig("")
	if err != nil {
		panic("failed to load default criticality config: " + err.Error())
	}
	compiledPatterns = CompilePatterns(config)
}

// LoadConfig loads pattern configuration from YAML.
// If configPath is empty, uses embedded default config.
// If configPath is provided, loads from that file.
func LoadConfig(configPath string) (*PatternConfig, error) {
	var data []byte
	var err error

	if configPath == "" {
		data = defaultConfigYAML
	} else {
		data, err = os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
	}

	var config PatternConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// CompilePatterns converts the pattern config into compiled regex patterns
func CompilePatterns(config *PatternConfig) *CompiledPatterns {
	positiveWords := flattenPatterns(config.PositivePatterns)
	negativeWords := flattenPatterns(config.NegativePatterns)

	return &CompiledPatterns{
		Positive: buildWordBoundaryRegex(positiveWords),
		Negative: buildWordBoundaryRegex(negativeWords),
	}
}

// flattenPatterns extracts all patterns from categorized map into a single slice
func flattenPatterns(categories map[string][]string) []string {
	var all []string
	for _, patterns := range categories {
		all = append(all, patterns...)
	}
	return all
}

// buildWordBoundaryRegex creates a regex that matches any of the words
// with word boundaries (supports hyphen, underscore, and camelCase separators)
func buildWordBoundaryRegex(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return regexp.MustCompile(`^$`) // matches nothing
	}

	escaped := make([]string, len(words))
	for i, word := range words {
		escaped[i] = regexp.QuoteMeta(word)
	}

	pattern := `(?i)(?:\b|_)(` + strings.Join(escaped, "|") + `)(?:\b|_)`
	return regexp.MustCompile(pattern)
}

// Detect classifies an asset with no explicit tier by its name. Negative
// matches win over positive ones since exclusion is the higher-confidence
// signal.
func Detect(name string) string {
	if compiledPatterns.Negative.MatchString(name) {
		return domain.CriticalityNormal
	}
	if compiledPatterns.Positive.MatchString(name) {
		return domain.CriticalityHigh
	}
	return domain.CriticalityNormal
}

// Resolve returns the node's explicit criticality tier, falling back to
// name-based detection when the tier is unset.
func Resolve(node domain.Node) string {
	if node.Criticality != "" {
		return node.Criticality
	}
	return Detect(node.ID)
}
