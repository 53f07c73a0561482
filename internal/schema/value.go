// Package schema defines the canonical data types shared by the RadVerify
// verification pipeline: finding values, finding records, outcomes, and the
// assembled verification result.
package schema

import (
	"encoding/json"
	"fmt"
)

// Unit is the measurement unit attached to a biometric value.
type Unit string

const (
	UnitMillimeter Unit = "mm"
	UnitCentimeter Unit = "cm"
	UnitWeek       Unit = "week"
	UnitDay        Unit = "day"
)

// ValidUnit reports whether u is a recognized measurement unit.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitMillimeter, UnitCentimeter, UnitWeek, UnitDay:
		return true
	}
	return false
}

// Polarity states how a categorical finding asserts its label: present,
// explicitly absent, or indeterminate.
type Polarity string

const (
	PolarityAffirmed  Polarity = "affirmed"
	PolarityNegated   Polarity = "negated"
	PolarityUncertain Polarity = "uncertain"
)

// ValidPolarity reports whether p is a recognized polarity.
func ValidPolarity(p Polarity) bool {
	switch p {
	case PolarityAffirmed, PolarityNegated, PolarityUncertain:
		return true
	}
	return false
}

// ValueKind discriminates the Value variants.
type ValueKind string

const (
	KindMeasurement ValueKind = "measurement"
	KindCategorical ValueKind = "categorical"
	KindAbsent      ValueKind = "absent"
)

// Value is one party's observation for a single field. Exactly three
// implementations exist: Measurement, Categorical, and Absent. Comparison
// sites switch on the concrete type; an unknown implementation is a
// programming error and classifies as unverifiable rather than panicking.
type Value interface {
	ValueKind() ValueKind
}

// Measurement is a numeric biometric observation.
type Measurement struct {
	Magnitude float64 `json:"value"`
	Unit      Unit    `json:"unit"`
}

// ValueKind implements Value.
func (Measurement) ValueKind() ValueKind { return KindMeasurement }

func (m Measurement) String() string {
	return fmt.Sprintf("%g %s", m.Magnitude, m.Unit)
}

// Categorical is a labelled anatomical assessment with polarity.
type Categorical struct {
	Label    string   `json:"label"`
	Polarity Polarity `json:"polarity"`
}

// ValueKind implements Value.
func (Categorical) ValueKind() ValueKind { return KindCategorical }

func (c Categorical) String() string {
	return fmt.Sprintf("%s (%s)", c.Label, c.Polarity)
}

// Absent marks a field not observed at all. It is never stored in a
// FindingRecord; it exists so that outcomes can carry the missing side
// explicitly.
type Absent struct{}

// ValueKind implements Value.
func (Absent) ValueKind() ValueKind { return KindAbsent }

func (Absent) String() string { return "absent" }

// valueEnvelope is the wire form of a Value. Measurements and categoricals
// are tagged objects; Absent serializes as JSON null.
type valueEnvelope struct {
	Type     ValueKind `json:"type"`
	Value    *float64  `json:"value,omitempty"`
	Unit     Unit      `json:"unit,omitempty"`
	Label    string    `json:"label,omitempty"`
	Polarity Polarity  `json:"polarity,omitempty"`
}

// MarshalValue encodes v in the tagged wire form.
func MarshalValue(v Value) ([]byte, error) {
	switch t := v.(type) {
	case Measurement:
		mag := t.Magnitude
		return json.Marshal(valueEnvelope{Type: KindMeasurement, Value: &mag, Unit: t.Unit})
	case Categorical:
		return json.Marshal(valueEnvelope{Type: KindCategorical, Label: t.Label, Polarity: t.Polarity})
	case Absent:
		return []byte("null"), nil
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("schema: cannot marshal value of kind %q", v.ValueKind())
	}
}

// UnmarshalValue decodes the tagged wire form. JSON null decodes to Absent.
func UnmarshalValue(data []byte) (Value, error) {
	var env valueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("schema: unmarshal value: %w", err)
	}
	switch env.Type {
	case KindMeasurement:
		if env.Value == nil {
			return nil, fmt.Errorf("schema: measurement value requires a numeric %q field", "value")
		}
		if !ValidUnit(env.Unit) {
			return nil, fmt.Errorf("schema: unknown unit %q", env.Unit)
		}
		return Measurement{Magnitude: *env.Value, Unit: env.Unit}, nil
	case KindCategorical:
		if env.Label == "" {
			return nil, fmt.Errorf("schema: categorical value requires a %q field", "label")
		}
		if !ValidPolarity(env.Polarity) {
			return nil, fmt.Errorf("schema: unknown polarity %q", env.Polarity)
		}
		return Categorical{Label: env.Label, Polarity: env.Polarity}, nil
	case KindAbsent, "":
		// "" covers JSON null, which unmarshals into the zero envelope.
		return Absent{}, nil
	default:
		return nil, fmt.Errorf("schema: unknown value kind %q", env.Type)
	}
}
