// Package match implements the field matcher: the pure classification of
// one field pair (AI value vs. doctor value) under that field's rule. No
// LLM calls, no I/O, no state.
package match

import (
	"fmt"
	"math"

	"github.com/dshills/radverify/internal/rules"
	"github.com/dshills/radverify/internal/schema"
)

// Match classifies the pair of values observed for key under rule. The
// second return is false when both sides are absent: a field neither party
// observed is uninformative and emits no outcome.
//
// Match never fails. Value shapes that do not fit the rule (a categorical
// value under a numeric rule, or a Value implementation this package does
// not know) downgrade the field to UNVERIFIABLE with a diagnostic note
// instead of aborting the reconciliation.
func Match(key string, ai, doctor schema.Value, rule rules.Rule) (schema.Outcome, bool) {
	if ai == nil {
		ai = schema.Absent{}
	}
	if doctor == nil {
		doctor = schema.Absent{}
	}

	_, aiAbsent := ai.(schema.Absent)
	_, doctorAbsent := doctor.(schema.Absent)

	switch {
	case aiAbsent && doctorAbsent:
		return schema.Outcome{}, false
	case doctorAbsent:
		return outcome(key, schema.OutcomeOmission, ai, doctor,
			"AI observed this field but the report does not mention it"), true
	case aiAbsent:
		return outcome(key, schema.OutcomeOverstatement, ai, doctor,
			"the report mentions this field but AI did not observe it"), true
	}

	switch rule.Kind {
	case rules.KindNumeric:
		return matchNumeric(key, ai, doctor, rule), true
	case rules.KindCategorical:
		return matchCategorical(key, ai, doctor, rule), true
	default:
		// Validate() rejects unknown kinds at load time; if one slips
		// through, the field is not confidently classifiable.
		return outcome(key, schema.OutcomeUnverifiable, ai, doctor,
			fmt.Sprintf("unknown rule kind %q", rule.Kind)), true
	}
}

func matchNumeric(key string, ai, doctor schema.Value, rule rules.Rule) schema.Outcome {
	aiM, ok := ai.(schema.Measurement)
	if !ok {
		return shapeDowngrade(key, schema.KindMeasurement, ai, doctor, ai.ValueKind())
	}
	doctorM, ok := doctor.(schema.Measurement)
	if !ok {
		return shapeDowngrade(key, schema.KindMeasurement, ai, doctor, doctor.ValueKind())
	}

	if aiM.Unit != doctorM.Unit {
		return outcome(key, schema.OutcomeMismatch, ai, doctor,
			fmt.Sprintf("units are not comparable: AI reports %s, report uses %s", aiM.Unit, doctorM.Unit))
	}

	diff := math.Abs(aiM.Magnitude - doctorM.Magnitude)
	if diff <= rule.Tolerance {
		return outcome(key, schema.OutcomeAgreement, ai, doctor,
			fmt.Sprintf("difference %.2f %s within tolerance %.2f", diff, aiM.Unit, rule.Tolerance))
	}
	return outcome(key, schema.OutcomeMismatch, ai, doctor,
		fmt.Sprintf("difference %.2f %s exceeds tolerance %.2f", diff, aiM.Unit, rule.Tolerance))
}

func matchCategorical(key string, ai, doctor schema.Value, rule rules.Rule) schema.Outcome {
	aiC, ok := ai.(schema.Categorical)
	if !ok {
		return shapeDowngrade(key, schema.KindCategorical, ai, doctor, ai.ValueKind())
	}
	doctorC, ok := doctor.(schema.Categorical)
	if !ok {
		return shapeDowngrade(key, schema.KindCategorical, ai, doctor, doctor.ValueKind())
	}

	aiLabel := rule.Canonical(aiC.Label)
	doctorLabel := rule.Canonical(doctorC.Label)
	labelsAgree := aiLabel == doctorLabel

	if labelsAgree && aiC.Polarity == doctorC.Polarity {
		return outcome(key, schema.OutcomeAgreement, ai, doctor,
			fmt.Sprintf("both describe %q with polarity %s", doctorLabel, doctorC.Polarity))
	}

	// An uncertain side is never confidently wrong, whether the
	// disagreement is in polarity or in label.
	if aiC.Polarity == schema.PolarityUncertain || doctorC.Polarity == schema.PolarityUncertain {
		return outcome(key, schema.OutcomeUnverifiable, ai, doctor,
			"one side is uncertain; the disagreement cannot be confirmed")
	}

	if labelsAgree {
		return outcome(key, schema.OutcomeMismatch, ai, doctor,
			fmt.Sprintf("opposite polarity on %q: AI %s, report %s", doctorLabel, aiC.Polarity, doctorC.Polarity))
	}
	return outcome(key, schema.OutcomeMismatch, ai, doctor,
		fmt.Sprintf("labels conflict: AI %q, report %q", aiLabel, doctorLabel))
}

// shapeDowngrade builds the UNVERIFIABLE outcome for a value/rule shape
// mismatch, carrying the ValueShapeError text as the note.
func shapeDowngrade(key string, want schema.ValueKind, ai, doctor schema.Value, got schema.ValueKind) schema.Outcome {
	err := &schema.ValueShapeError{Key: key, Want: want, Got: got}
	return outcome(key, schema.OutcomeUnverifiable, ai, doctor, err.Error())
}

func outcome(key string, kind schema.OutcomeKind, ai, doctor schema.Value, note string) schema.Outcome {
	return schema.Outcome{Key: key, Kind: kind, AI: ai, Doctor: doctor, Note: note}
}
