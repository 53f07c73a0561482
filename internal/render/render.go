// Package render produces output from an assembled schema.Result.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/radverify/internal/schema"
)

// RenderJSON produces a pretty-printed JSON representation of the result.
// The output round-trips through json.Unmarshal back to an equal Result.
func RenderJSON(result *schema.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("render: nil result")
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of the
// result, suitable for terminal output or inclusion in a review ticket.
// Every field key present in the result will appear in the output.
func RenderMarkdown(result *schema.Result) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder

	// Summary section.
	sb.WriteString("## RadVerify Report\n\n")
	fmt.Fprintf(&sb, "**Risk level:** %s  \n", result.RiskLevel)
	fmt.Fprintf(&sb, "**Agreement rate:** %.1f%%  \n", result.AgreementRate*100)
	fmt.Fprintf(&sb, "**Risk score:** %.1f  \n", result.RiskScore)
	fmt.Fprintf(&sb, "**Agreements:** %d | **Mismatches:** %d | **Omissions:** %d | **Overstatements:** %d | **Unverifiable:** %d\n\n",
		result.Counts.Agreements, result.Counts.Mismatches, result.Counts.Omissions,
		result.Counts.Overstatements, result.Counts.Unverifiable)
	if result.Note != "" {
		fmt.Fprintf(&sb, "> %s\n\n", mdEscape(result.Note))
	}

	// Field-by-field table.
	if len(result.Outcomes) > 0 {
		sb.WriteString("## Findings\n\n")
		sb.WriteString("| Field | Outcome | AI | Report | Note |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, o := range result.Outcomes {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				mdEscape(o.Key), o.Kind, valueCell(o.AI), valueCell(o.Doctor), mdEscape(o.Note))
		}
		sb.WriteString("\n")
	}

	// Discrepancy detail.
	discrepancies := false
	for _, o := range result.Outcomes {
		if o.Kind == schema.OutcomeAgreement {
			continue
		}
		if !discrepancies {
			sb.WriteString("## Discrepancies\n\n")
			discrepancies = true
		}
		fmt.Fprintf(&sb, "<details>\n<summary><strong>%s</strong> [%s]</summary>\n\n",
			mdEscape(o.Key), o.Kind)
		fmt.Fprintf(&sb, "%s\n\n", Explain(o))
		if o.Note != "" {
			fmt.Fprintf(&sb, "**Detail:** %s\n\n", mdEscape(o.Note))
		}
		sb.WriteString("</details>\n\n")
	}

	return sb.String()
}

// Explain returns a concise reviewer-facing sentence for one outcome.
func Explain(o schema.Outcome) string {
	switch o.Kind {
	case schema.OutcomeAgreement:
		return "The AI findings and the report describe this field consistently."
	case schema.OutcomeMismatch:
		return "The AI findings and the report conflict on this field. " +
			"Manual review is recommended to resolve the discrepancy."
	case schema.OutcomeOmission:
		return "AI observed this field, but the report never references it. " +
			"Consider amending the report if the AI observation is clinically relevant."
	case schema.OutcomeOverstatement:
		return "The report documents this field, yet AI could not confirm it. " +
			"Verify whether the textual mention was intentional or a potential oversight."
	case schema.OutcomeUnverifiable:
		return "This field could not be confidently classified. " +
			"No definitive mismatch identified, but the context warrants a quick look."
	default:
		return fmt.Sprintf("Unrecognized outcome kind %q.", o.Kind)
	}
}

// valueCell formats a Value for a Markdown table cell.
func valueCell(v schema.Value) string {
	switch t := v.(type) {
	case schema.Measurement:
		return mdEscape(t.String())
	case schema.Categorical:
		return mdEscape(t.String())
	default:
		return "—"
	}
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
