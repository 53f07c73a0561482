//go:build integration

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/radverify/internal/schema"
)

func runVerify(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose := false
	cmd := newVerifyCmd(&verbose)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVerify_JSONOutput(t *testing.T) {
	out, err := runVerify(t,
		"--ai", "../../testdata/ai_findings.json",
		"--report", "../../testdata/report.txt",
		"--format", "json",
	)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}

	var result schema.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Counts.Agreements != 4 {
		t.Errorf("agreements = %d, want 4: %+v", result.Counts.Agreements, result.Outcomes)
	}
	if result.RiskLevel != schema.RiskLow {
		t.Errorf("risk level = %s, want low", result.RiskLevel)
	}
	if result.AgreementRate != 1.0 {
		t.Errorf("agreement rate = %g, want 1.0", result.AgreementRate)
	}
}

func TestVerify_MarkdownOutput(t *testing.T) {
	out, err := runVerify(t,
		"--ai", "../../testdata/ai_findings.json",
		"--report", "../../testdata/report.txt",
		"--format", "markdown",
	)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "## RadVerify Report") {
		t.Errorf("markdown output missing report header:\n%s", out)
	}
	if !strings.Contains(out, "| BPD |") {
		t.Errorf("markdown output missing BPD row:\n%s", out)
	}
}

func TestVerify_CustomRules(t *testing.T) {
	out, err := runVerify(t,
		"--ai", "../../testdata/ai_findings.json",
		"--report", "../../testdata/report.txt",
		"--rules", "../../testdata/rules.yaml",
		"--format", "json",
	)
	if err != nil {
		t.Fatalf("verify with custom rules: %v\n%s", err, out)
	}
	var result schema.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Counts.Total() != 4 {
		t.Errorf("total outcomes = %d, want 4", result.Counts.Total())
	}
}

func TestVerify_MissingAIFile(t *testing.T) {
	_, err := runVerify(t,
		"--ai", "../../testdata/does_not_exist.json",
		"--report", "../../testdata/report.txt",
	)
	if err == nil {
		t.Fatal("verify with missing findings file succeeded, want error")
	}
}

func TestVerify_UnknownFormat(t *testing.T) {
	_, err := runVerify(t,
		"--ai", "../../testdata/ai_findings.json",
		"--report", "../../testdata/report.txt",
		"--format", "xml",
	)
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("verify error = %v, want unknown format error naming xml", err)
	}
}
