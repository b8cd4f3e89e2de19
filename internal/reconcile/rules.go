package reconcile

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	apperrors "vanbiz/internal/errors"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule rewrites a target field to Canonical when the search field contains
// Pattern, compared case-insensitively.
type Rule struct {
	Pattern   string `yaml:"pattern" json:"pattern"`
	Canonical string `yaml:"canonical" json:"canonical"`
}

// RuleSet is the versioned set of name reconciliation rules.
type RuleSet struct {
	Version               int      `yaml:"version" json:"version"`
	TradeNameMappings     []Rule   `yaml:"trade_name_mappings" json:"trade_name_mappings"`
	BusinessNameMappings  []Rule   `yaml:"business_name_mappings" json:"business_name_mappings"`
	InventoryNameMappings []Rule   `yaml:"inventory_name_mappings" json:"inventory_name_mappings"`
	DirectNames           []string `yaml:"direct_names" json:"direct_names"`
}

// DefaultRuleSet returns the rules compiled into the binary.
func DefaultRuleSet() (*RuleSet, error) {
	rs, err := ParseRuleSet(defaultRules)
	if err != nil {
		return nil, fmt.Errorf("embedded rules: %w", err)
	}
	return rs, nil
}

// LoadRuleSet reads a YAML rule file. An empty path yields the default rules.
func LoadRuleSet(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRuleSet()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("read rules file %s", path), err)
	}
	rs, err := ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// ParseRuleSet decodes and validates a YAML rule document.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.UnmarshalStrict(data, &rs); err != nil {
		return nil, apperrors.NewParsingError("decode rules", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate rejects blank patterns, canonical names and direct names.
func (rs *RuleSet) Validate() error {
	groups := []struct {
		name  string
		rules []Rule
	}{
		{"trade_name_mappings", rs.TradeNameMappings},
		{"business_name_mappings", rs.BusinessNameMappings},
		{"inventory_name_mappings", rs.InventoryNameMappings},
	}
	for _, g := range groups {
		for i, r := range g.rules {
			if strings.TrimSpace(r.Pattern) == "" {
				return apperrors.NewAppValidationError(fmt.Sprintf("%s[%d]: empty pattern", g.name, i))
			}
			if strings.TrimSpace(r.Canonical) == "" {
				return apperrors.NewAppValidationError(fmt.Sprintf("%s[%d]: empty canonical name", g.name, i))
			}
		}
	}
	for i, n := range rs.DirectNames {
		if strings.TrimSpace(n) == "" {
			return apperrors.NewAppValidationError(fmt.Sprintf("direct_names[%d]: empty name", i))
		}
	}
	return nil
}

// CanonicalNames returns every canonical name the rule set can produce, in
// first-seen order.
func (rs *RuleSet) CanonicalNames() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(n string) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, group := range [][]Rule{rs.TradeNameMappings, rs.BusinessNameMappings, rs.InventoryNameMappings} {
		for _, r := range group {
			add(r.Canonical)
		}
	}
	for _, n := range rs.DirectNames {
		add(n)
	}
	return out
}
