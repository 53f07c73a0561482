package reconcile

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/radverify/internal/rules"
	"github.com/dshills/radverify/internal/schema"
)

func testRuleset() *rules.Ruleset {
	return &rules.Ruleset{
		Fields: map[string]rules.Rule{
			"BPD":   {Kind: rules.KindNumeric, Tolerance: 2.0, Weight: 2.0},
			"FL":    {Kind: rules.KindNumeric, Tolerance: 2.0, Weight: 2.0},
			"heart": {Kind: rules.KindCategorical, Weight: 2.0},
			"spine": {Kind: rules.KindCategorical, Weight: 2.0},
			"brain": {Kind: rules.KindCategorical, Weight: 2.0},
		},
		Optional:   map[string]bool{"image_quality": true},
		Thresholds: rules.Thresholds{Medium: 1.0, High: 3.0},
	}
}

func record(t *testing.T, pairs ...any) *schema.FindingRecord {
	t.Helper()
	r := schema.NewFindingRecord()
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i].(string)
		if err := r.Set(key, pairs[i+1].(schema.Value)); err != nil {
			t.Fatalf("Set(%q): %v", key, err)
		}
	}
	return r
}

func mm(v float64) schema.Measurement {
	return schema.Measurement{Magnitude: v, Unit: schema.UnitMillimeter}
}

func affirmed(label string) schema.Categorical {
	return schema.Categorical{Label: label, Polarity: schema.PolarityAffirmed}
}

func TestReconcile_TraversalOrder(t *testing.T) {
	ai := record(t, "heart", affirmed("normal"), "BPD", mm(47))
	doctor := record(t, "spine", affirmed("normal"), "BPD", mm(47), "brain", affirmed("normal"))

	outcomes, err := Reconcile(ai, doctor, testRuleset())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	// AI keys in original order, then doctor-only keys in original order.
	want := []string{"heart", "BPD", "spine", "brain"}
	var got []string
	for _, o := range outcomes {
		got = append(got, o.Key)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("outcome keys = %v, want %v", got, want)
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	ai := record(t, "BPD", mm(47), "heart", affirmed("normal"), "FL", mm(33))
	doctor := record(t, "FL", mm(36), "spine", affirmed("normal"))
	rs := testRuleset()

	first, err := Reconcile(ai, doctor, rs)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	second, err := Reconcile(ai, doctor, rs)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Reconcile differs:\n first %+v\nsecond %+v", first, second)
	}
}

func TestReconcile_PresenceDirection(t *testing.T) {
	ai := record(t, "heart", affirmed("four-chamber normal"))
	doctor := record(t, "spine", affirmed("normal"))

	outcomes, err := Reconcile(ai, doctor, testRuleset())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcome count = %d, want 2", len(outcomes))
	}
	// One-sided presence is always classified by direction, never as a
	// value conflict.
	if outcomes[0].Key != "heart" || outcomes[0].Kind != schema.OutcomeOmission {
		t.Errorf("outcomes[0] = %s/%s, want heart/OMISSION", outcomes[0].Key, outcomes[0].Kind)
	}
	if outcomes[1].Key != "spine" || outcomes[1].Kind != schema.OutcomeOverstatement {
		t.Errorf("outcomes[1] = %s/%s, want spine/OVERSTATEMENT", outcomes[1].Key, outcomes[1].Kind)
	}
}

func TestReconcile_MissingRuleIsFatal(t *testing.T) {
	ai := record(t, "BPD", mm(47), "cervix", affirmed("normal"))
	doctor := record(t, "BPD", mm(47))

	outcomes, err := Reconcile(ai, doctor, testRuleset())
	if err == nil {
		t.Fatal("Reconcile with unruled key succeeded, want ConfigurationError")
	}
	var confErr *schema.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("error type = %T, want *schema.ConfigurationError", err)
	}
	if outcomes != nil {
		t.Error("partial outcomes returned alongside a configuration error")
	}
}

func TestReconcile_OptionalKeyTolerated(t *testing.T) {
	ai := record(t, "BPD", mm(47), "image_quality", affirmed("good"))
	doctor := record(t, "BPD", mm(47))

	outcomes, err := Reconcile(ai, doctor, testRuleset())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcome count = %d, want 2", len(outcomes))
	}
	if outcomes[1].Key != "image_quality" || outcomes[1].Kind != schema.OutcomeOmission {
		t.Errorf("outcomes[1] = %s/%s, want image_quality/OMISSION", outcomes[1].Key, outcomes[1].Kind)
	}
}

func TestReconcile_EmptyRecords(t *testing.T) {
	outcomes, err := Reconcile(schema.NewFindingRecord(), schema.NewFindingRecord(), testRuleset())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("outcome count = %d, want 0", len(outcomes))
	}
}
