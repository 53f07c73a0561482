// Package reconcile implements the reconciliation engine: the ordered
// traversal of both finding records that produces the outcome sequence.
package reconcile

import (
	"github.com/dshills/radverify/internal/match"
	"github.com/dshills/radverify/internal/rules"
	"github.com/dshills/radverify/internal/schema"
)

// Reconcile compares the AI record against the doctor record under rs and
// returns the classified outcomes.
//
// Traversal order is the ordered union of field keys: the AI record's keys
// in their original order, then doctor-only keys in their original order.
// This fixes a deterministic, reproducible outcome order independent of
// how either record was stored. Keys present in neither record are never
// visited, and keys both sides lack emit nothing.
//
// A missing rule for a non-optional key is a *schema.ConfigurationError
// and aborts the whole reconciliation with no partial result: the system
// cannot evaluate a field it claims to support. All other faults are
// classification outcomes, not errors.
func Reconcile(ai, doctor *schema.FindingRecord, rs *rules.Ruleset) ([]schema.Outcome, error) {
	keys := unionKeys(ai, doctor)

	outcomes := make([]schema.Outcome, 0, len(keys))
	for _, key := range keys {
		rule, err := rs.Resolve(key)
		if err != nil {
			return nil, err
		}

		aiVal, _ := ai.Get(key)
		doctorVal, _ := doctor.Get(key)

		out, emitted := match.Match(key, aiVal, doctorVal, rule)
		if !emitted {
			continue
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// unionKeys returns AI keys in original order followed by doctor-only keys
// in original order.
func unionKeys(ai, doctor *schema.FindingRecord) []string {
	aiKeys := ai.Keys()
	seen := make(map[string]bool, len(aiKeys))
	for _, key := range aiKeys {
		seen[key] = true
	}
	keys := aiKeys
	for _, key := range doctor.Keys() {
		if !seen[key] {
			keys = append(keys, key)
		}
	}
	return keys
}
