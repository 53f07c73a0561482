// Package aggregate reduces an outcome sequence into counts, an agreement
// rate, and a risk level. Deterministic local logic only: identical inputs
// always produce identical results, and no wall-clock or randomness is
// involved.
package aggregate

import (
	"github.com/dshills/radverify/internal/rules"
	"github.com/dshills/radverify/internal/schema"
)

// noComparableNote is attached when no outcome could be compared at all.
const noComparableNote = "no comparable fields were found; agreement rate defaults to 0"

// Count tallies outcomes per kind.
func Count(outcomes []schema.Outcome) schema.Counts {
	var c schema.Counts
	for _, o := range outcomes {
		switch o.Kind {
		case schema.OutcomeAgreement:
			c.Agreements++
		case schema.OutcomeMismatch:
			c.Mismatches++
		case schema.OutcomeOmission:
			c.Omissions++
		case schema.OutcomeOverstatement:
			c.Overstatements++
		case schema.OutcomeUnverifiable:
			c.Unverifiable++
		}
	}
	return c
}

// AgreementRate returns Agreement / (total - Unverifiable). Unverifiable
// outcomes are excluded from the denominator because they are neither
// right nor wrong. A zero denominator yields 0.0, never NaN.
func AgreementRate(c schema.Counts) float64 {
	comparable := c.Total() - c.Unverifiable
	if comparable == 0 {
		return 0.0
	}
	return float64(c.Agreements) / float64(comparable)
}

// RiskScore sums the rule weight of every Mismatch and Omission outcome.
// Overstatements never contribute (a doctor-only finding is not evidence
// of AI error) and neither do Unverifiable outcomes (uncertain findings
// are not confidently wrong). Keys without a resolvable rule contribute
// nothing; Reconcile has already guaranteed they cannot occur.
func RiskScore(outcomes []schema.Outcome, rs *rules.Ruleset) float64 {
	score := 0.0
	for _, o := range outcomes {
		if o.Kind != schema.OutcomeMismatch && o.Kind != schema.OutcomeOmission {
			continue
		}
		rule, err := rs.Resolve(o.Key)
		if err != nil {
			continue
		}
		score += rule.Weight
	}
	return score
}

// RiskLevel buckets a risk score using t.
func RiskLevel(score float64, t rules.Thresholds) schema.RiskLevel {
	switch {
	case score < t.Medium:
		return schema.RiskLow
	case score < t.High:
		return schema.RiskMedium
	default:
		return schema.RiskHigh
	}
}

// RiskOrdinal returns the numeric ordinal for a risk level, used to compare
// severity order: low=0, medium=1, high=2. Unknown levels return -1.
// The CLI's --fail-on flag exits nonzero when RiskOrdinal(actual) >=
// RiskOrdinal(threshold).
func RiskOrdinal(level schema.RiskLevel) int {
	switch level {
	case schema.RiskLow:
		return 0
	case schema.RiskMedium:
		return 1
	case schema.RiskHigh:
		return 2
	default:
		return -1
	}
}

// Aggregate assembles the full verification result from an outcome
// sequence. The sequence is stored as given; it is never reordered.
func Aggregate(outcomes []schema.Outcome, rs *rules.Ruleset) *schema.Result {
	counts := Count(outcomes)
	score := RiskScore(outcomes, rs)

	result := &schema.Result{
		Outcomes:      outcomes,
		Counts:        counts,
		AgreementRate: AgreementRate(counts),
		RiskScore:     score,
		RiskLevel:     RiskLevel(score, rs.Thresholds),
	}
	if counts.Total()-counts.Unverifiable == 0 {
		result.Note = noComparableNote
	}
	return result
}
