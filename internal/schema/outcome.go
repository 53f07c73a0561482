package schema

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind classifies one field comparison.
type OutcomeKind string

const (
	OutcomeAgreement     OutcomeKind = "AGREEMENT"
	OutcomeMismatch      OutcomeKind = "MISMATCH"
	OutcomeOmission      OutcomeKind = "OMISSION"
	OutcomeOverstatement OutcomeKind = "OVERSTATEMENT"
	OutcomeUnverifiable  OutcomeKind = "UNVERIFIABLE"
)

// ValidOutcomeKind reports whether k is a recognized outcome kind.
func ValidOutcomeKind(k OutcomeKind) bool {
	switch k {
	case OutcomeAgreement, OutcomeMismatch, OutcomeOmission,
		OutcomeOverstatement, OutcomeUnverifiable:
		return true
	}
	return false
}

// RiskLevel is the coarse severity bucket derived from weighted
// mismatch/omission findings.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Outcome is the classified result of comparing one field across the two
// records. AI and Doctor carry the original values, or Absent for the
// missing side.
type Outcome struct {
	Key    string      `json:"key"`
	Kind   OutcomeKind `json:"kind"`
	AI     Value       `json:"ai_value"`
	Doctor Value       `json:"doctor_value"`
	Note   string      `json:"note,omitempty"`
}

// outcomeEnvelope is the wire form of an Outcome; the Value fields need the
// tagged codec from value.go.
type outcomeEnvelope struct {
	Key    string          `json:"key"`
	Kind   OutcomeKind     `json:"kind"`
	AI     json.RawMessage `json:"ai_value"`
	Doctor json.RawMessage `json:"doctor_value"`
	Note   string          `json:"note,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (o Outcome) MarshalJSON() ([]byte, error) {
	ai, err := MarshalValue(o.AI)
	if err != nil {
		return nil, fmt.Errorf("schema: outcome %q: %w", o.Key, err)
	}
	doctor, err := MarshalValue(o.Doctor)
	if err != nil {
		return nil, fmt.Errorf("schema: outcome %q: %w", o.Key, err)
	}
	return json.Marshal(outcomeEnvelope{
		Key:    o.Key,
		Kind:   o.Kind,
		AI:     ai,
		Doctor: doctor,
		Note:   o.Note,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var env outcomeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("schema: unmarshal outcome: %w", err)
	}
	ai, err := UnmarshalValue(env.AI)
	if err != nil {
		return fmt.Errorf("schema: outcome %q ai_value: %w", env.Key, err)
	}
	doctor, err := UnmarshalValue(env.Doctor)
	if err != nil {
		return fmt.Errorf("schema: outcome %q doctor_value: %w", env.Key, err)
	}
	o.Key = env.Key
	o.Kind = env.Kind
	o.AI = ai
	o.Doctor = doctor
	o.Note = env.Note
	return nil
}

// Counts is the tally of outcomes per kind.
type Counts struct {
	Agreements     int `json:"agreements"`
	Mismatches     int `json:"mismatches"`
	Omissions      int `json:"omissions"`
	Overstatements int `json:"overstatements"`
	Unverifiable   int `json:"unverifiable"`
}

// Total returns the number of tallied outcomes.
func (c Counts) Total() int {
	return c.Agreements + c.Mismatches + c.Omissions + c.Overstatements + c.Unverifiable
}

// Result is the immutable output bundle of one verification call. Outcomes
// preserve reconciliation traversal order and are never reordered
// downstream.
type Result struct {
	Outcomes      []Outcome `json:"outcomes"`
	Counts        Counts    `json:"counts"`
	AgreementRate float64   `json:"agreement_rate"`
	RiskScore     float64   `json:"risk_score"`
	RiskLevel     RiskLevel `json:"risk_level"`
	Note          string    `json:"note,omitempty"`
}
