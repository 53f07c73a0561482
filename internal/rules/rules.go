// Package rules holds the per-field comparison configuration: comparison
// kind, numeric tolerance or categorical synonym groups, and the severity
// weight used in risk scoring. A Ruleset is loaded once at process start
// and treated as read-only afterwards.
package rules

import (
	"fmt"
	"strings"

	"github.com/dshills/radverify/internal/schema"
)

// Kind selects the comparison strategy for a field.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Rule is the comparison configuration for one field key.
type Rule struct {
	Kind Kind `yaml:"kind" json:"kind"`
	// Tolerance is the inclusive maximum absolute difference for numeric
	// fields. Ignored for categorical fields.
	Tolerance float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	// Synonyms lists groups of equivalent labels for categorical fields.
	// The first label in a group is its canonical form.
	Synonyms [][]string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`
	// Weight is the severity weight (>= 0) this field contributes to the
	// risk score when it mismatches or is omitted.
	Weight float64 `yaml:"weight" json:"weight"`
}

// NormalizeLabel lowercases, trims, and collapses internal whitespace.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Canonical normalizes label and maps it through the rule's synonym groups.
// Labels outside every group canonicalize to their normalized form.
func (r Rule) Canonical(label string) string {
	norm := NormalizeLabel(label)
	for _, group := range r.Synonyms {
		for _, syn := range group {
			if NormalizeLabel(syn) == norm {
				return NormalizeLabel(group[0])
			}
		}
	}
	return norm
}

// Thresholds are the risk-score cut points. A score below Medium is low
// risk, below High is medium, and anything at or above High is high.
type Thresholds struct {
	Medium float64 `yaml:"medium" json:"medium"`
	High   float64 `yaml:"high" json:"high"`
}

// optionalRule is resolved for recognized optional fields that carry no
// explicit rule. Weight zero keeps them out of the risk score.
var optionalRule = Rule{Kind: KindCategorical, Weight: 0}

// Ruleset is the process-wide comparison configuration: one rule per
// supported field key, a set of tolerated optional keys, and the risk
// thresholds. Never mutated after construction.
type Ruleset struct {
	Fields     map[string]Rule
	Optional   map[string]bool
	Thresholds Thresholds
}

// Resolve returns the rule for key. Recognized optional keys without an
// explicit rule resolve to a zero-weight categorical rule; any other
// unruled key is a ConfigurationError.
func (rs *Ruleset) Resolve(key string) (Rule, error) {
	if r, ok := rs.Fields[key]; ok {
		return r, nil
	}
	if rs.Optional[key] {
		return optionalRule, nil
	}
	return Rule{}, &schema.ConfigurationError{Key: key}
}

// Validate checks every rule for well-formedness.
func (rs *Ruleset) Validate() error {
	for key, r := range rs.Fields {
		switch r.Kind {
		case KindNumeric:
			if r.Tolerance < 0 {
				return fmt.Errorf("rules: field %q: negative tolerance %g", key, r.Tolerance)
			}
		case KindCategorical:
			// Synonym groups are optional; an empty group is meaningless.
			for i, group := range r.Synonyms {
				if len(group) == 0 {
					return fmt.Errorf("rules: field %q: synonym group %d is empty", key, i)
				}
			}
		default:
			return fmt.Errorf("rules: field %q: unknown kind %q", key, r.Kind)
		}
		if r.Weight < 0 {
			return fmt.Errorf("rules: field %q: negative weight %g", key, r.Weight)
		}
	}
	if rs.Thresholds.Medium < 0 || rs.Thresholds.High < rs.Thresholds.Medium {
		return fmt.Errorf("rules: thresholds must satisfy 0 <= medium <= high, got %g/%g",
			rs.Thresholds.Medium, rs.Thresholds.High)
	}
	return nil
}
