package aggregate

import (
	"reflect"
	"testing"

	"github.com/dshills/radverify/internal/rules"
	"github.com/dshills/radverify/internal/schema"
)

func testRuleset() *rules.Ruleset {
	return &rules.Ruleset{
		Fields: map[string]rules.Rule{
			"BPD":   {Kind: rules.KindNumeric, Tolerance: 2.0, Weight: 2.0},
			"HC":    {Kind: rules.KindNumeric, Tolerance: 5.0, Weight: 1.5},
			"heart": {Kind: rules.KindCategorical, Weight: 2.0},
			"spine": {Kind: rules.KindCategorical, Weight: 1.5},
			"brain": {Kind: rules.KindCategorical, Weight: 2.0},
			"face":  {Kind: rules.KindCategorical, Weight: 1.0},
		},
		Thresholds: rules.Thresholds{Medium: 1.0, High: 3.0},
	}
}

func outcome(key string, kind schema.OutcomeKind) schema.Outcome {
	return schema.Outcome{Key: key, Kind: kind, AI: schema.Absent{}, Doctor: schema.Absent{}}
}

func TestCount(t *testing.T) {
	outcomes := []schema.Outcome{
		outcome("BPD", schema.OutcomeAgreement),
		outcome("HC", schema.OutcomeMismatch),
		outcome("heart", schema.OutcomeOmission),
		outcome("spine", schema.OutcomeOverstatement),
		outcome("brain", schema.OutcomeUnverifiable),
		outcome("face", schema.OutcomeAgreement),
	}
	got := Count(outcomes)
	want := schema.Counts{Agreements: 2, Mismatches: 1, Omissions: 1, Overstatements: 1, Unverifiable: 1}
	if got != want {
		t.Errorf("Count = %+v, want %+v", got, want)
	}
}

func TestAgreementRate(t *testing.T) {
	cases := []struct {
		name string
		c    schema.Counts
		want float64
	}{
		{"all agree", schema.Counts{Agreements: 4}, 1.0},
		{"none agree", schema.Counts{Mismatches: 3}, 0.0},
		{"half", schema.Counts{Agreements: 2, Mismatches: 2}, 0.5},
		{"unverifiable excluded", schema.Counts{Agreements: 3, Unverifiable: 1}, 1.0},
		{"empty", schema.Counts{}, 0.0},
		{"only unverifiable", schema.Counts{Unverifiable: 2}, 0.0},
	}
	for _, c := range cases {
		got := AgreementRate(c.c)
		if got != c.want {
			t.Errorf("%s: AgreementRate = %g, want %g", c.name, got, c.want)
		}
		if got < 0 || got > 1 {
			t.Errorf("%s: AgreementRate %g out of [0,1]", c.name, got)
		}
	}
}

func TestRiskScore_OnlyMismatchAndOmissionContribute(t *testing.T) {
	outcomes := []schema.Outcome{
		outcome("BPD", schema.OutcomeMismatch),       // weight 2.0
		outcome("spine", schema.OutcomeOmission),     // weight 1.5
		outcome("heart", schema.OutcomeAgreement),    // ignored
		outcome("face", schema.OutcomeOverstatement), // never contributes
		outcome("brain", schema.OutcomeUnverifiable), // never contributes
	}
	if got := RiskScore(outcomes, testRuleset()); got != 3.5 {
		t.Errorf("RiskScore = %g, want 3.5", got)
	}
}

func TestRiskLevel(t *testing.T) {
	thresholds := rules.Thresholds{Medium: 1.0, High: 3.0}
	cases := []struct {
		score float64
		want  schema.RiskLevel
	}{
		{0.0, schema.RiskLow},
		{0.99, schema.RiskLow},
		{1.0, schema.RiskMedium},
		{2.99, schema.RiskMedium},
		{3.0, schema.RiskHigh},
		{10.0, schema.RiskHigh},
	}
	for _, c := range cases {
		if got := RiskLevel(c.score, thresholds); got != c.want {
			t.Errorf("RiskLevel(%g) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestRiskOrdinal(t *testing.T) {
	levels := []schema.RiskLevel{schema.RiskLow, schema.RiskMedium, schema.RiskHigh}
	for i := 1; i < len(levels); i++ {
		if RiskOrdinal(levels[i-1]) >= RiskOrdinal(levels[i]) {
			t.Errorf("RiskOrdinal(%s) >= RiskOrdinal(%s): not strictly ascending", levels[i-1], levels[i])
		}
	}
	if got := RiskOrdinal(schema.RiskLevel("unknown")); got != -1 {
		t.Errorf("RiskOrdinal(unknown) = %d, want -1", got)
	}
}

func TestAggregate_ScenarioA(t *testing.T) {
	// One agreement: full agreement rate, low risk.
	result := Aggregate([]schema.Outcome{outcome("BPD", schema.OutcomeAgreement)}, testRuleset())
	if result.AgreementRate != 1.0 {
		t.Errorf("AgreementRate = %g, want 1.0", result.AgreementRate)
	}
	if result.RiskLevel != schema.RiskLow {
		t.Errorf("RiskLevel = %s, want low", result.RiskLevel)
	}
	if result.Note != "" {
		t.Errorf("unexpected note %q", result.Note)
	}
}

func TestAggregate_ScenarioF(t *testing.T) {
	// 6 agreements, 1 mismatch (weight 2.0), 1 omission (weight 1.5):
	// rate 6/8 = 0.75, score 3.5, high risk.
	outcomes := []schema.Outcome{
		outcome("heart", schema.OutcomeAgreement),
		outcome("face", schema.OutcomeAgreement),
		outcome("brain", schema.OutcomeAgreement),
		outcome("HC", schema.OutcomeAgreement),
		outcome("FLX", schema.OutcomeAgreement),
		outcome("ACX", schema.OutcomeAgreement),
		outcome("BPD", schema.OutcomeMismatch),
		outcome("spine", schema.OutcomeOmission),
	}
	result := Aggregate(outcomes, testRuleset())
	if result.AgreementRate != 0.75 {
		t.Errorf("AgreementRate = %g, want 0.75", result.AgreementRate)
	}
	if result.RiskScore != 3.5 {
		t.Errorf("RiskScore = %g, want 3.5", result.RiskScore)
	}
	if result.RiskLevel != schema.RiskHigh {
		t.Errorf("RiskLevel = %s, want high", result.RiskLevel)
	}
}

func TestAggregate_NoComparableFields(t *testing.T) {
	outcomes := []schema.Outcome{outcome("brain", schema.OutcomeUnverifiable)}
	result := Aggregate(outcomes, testRuleset())
	if result.AgreementRate != 0.0 {
		t.Errorf("AgreementRate = %g, want 0.0", result.AgreementRate)
	}
	if result.Note == "" {
		t.Error("missing note for zero comparable fields")
	}
}

func TestAggregate_EmptyOutcomes(t *testing.T) {
	result := Aggregate(nil, testRuleset())
	if result.AgreementRate != 0.0 {
		t.Errorf("AgreementRate = %g, want 0.0", result.AgreementRate)
	}
	if result.Note == "" {
		t.Error("missing note for zero comparable fields")
	}
	if result.RiskLevel != schema.RiskLow {
		t.Errorf("RiskLevel = %s, want low", result.RiskLevel)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	outcomes := []schema.Outcome{
		outcome("BPD", schema.OutcomeMismatch),
		outcome("heart", schema.OutcomeAgreement),
		outcome("brain", schema.OutcomeUnverifiable),
	}
	rs := testRuleset()
	first := Aggregate(outcomes, rs)
	second := Aggregate(outcomes, rs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Aggregate differs:\n first %+v\nsecond %+v", first, second)
	}
}

func TestAggregate_PreservesOutcomeOrder(t *testing.T) {
	outcomes := []schema.Outcome{
		outcome("heart", schema.OutcomeAgreement),
		outcome("BPD", schema.OutcomeMismatch),
		outcome("spine", schema.OutcomeOmission),
	}
	result := Aggregate(outcomes, testRuleset())
	for i := range outcomes {
		if result.Outcomes[i].Key != outcomes[i].Key {
			t.Errorf("outcome %d key = %s, want %s", i, result.Outcomes[i].Key, outcomes[i].Key)
		}
	}
}
