// Package llm handles LLM provider communication for report extraction:
// prompt construction, response validation, and the single repair attempt.
// It is the LLM-backed alternative to the lexical parser in
// internal/textparse and produces the same finding-record contract.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/radverify/internal/profile"
	"github.com/dshills/radverify/internal/schema"
)

// ErrInvalidModelOutput is returned when both the initial and repair LLM
// responses fail validation.
var ErrInvalidModelOutput = errors.New("llm: invalid model output after repair attempt")

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures an Extract call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Debug       bool
}

// ValidationError records a single validation failure on an LLM response.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Extract builds a prompt from the report text and exam profile, calls the
// LLM, validates the response against the finding-record schema, and
// performs one repair attempt if validation fails.
func Extract(ctx context.Context, reportText string, prof profile.Profile, opts Options) (*schema.FindingRecord, error) {
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("llm: create provider: %w", err)
	}

	sysPrompt := buildSystemPrompt(prof)
	userPrompt := buildUserPrompt(reportText)

	if opts.Debug {
		fmt.Fprintf(os.Stderr, "=== DEBUG: system prompt ===\n%s\n", sysPrompt)
		fmt.Fprintf(os.Stderr, "=== DEBUG: user prompt ===\n%s\n", userPrompt)
	}

	raw, err := provider.Complete(ctx, sysPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("llm: complete: %w", err)
	}

	record, validationErrs := ValidateResponse(raw)
	if record != nil {
		return record, nil
	}

	// One repair attempt: include the original prompt and the invalid response
	// so the LLM has full context.
	repairPrompt := buildRepairPrompt(userPrompt, raw, validationErrs)
	raw2, err := provider.Complete(ctx, sysPrompt, repairPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("llm: repair complete: %w", err)
	}

	record2, _ := ValidateResponse(raw2)
	if record2 != nil {
		return record2, nil
	}

	return nil, ErrInvalidModelOutput
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line (no closing fence required).
// Used to strip orphaned opening fences from truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes leading/trailing markdown code fences that LLMs
// sometimes wrap around JSON output (e.g., "```json\n...\n```").
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Handle truncated fenced responses: strip the opening fence line only.
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// invalidJSONEscapeRe matches a backslash followed by any character that is
// not a valid JSON string escape character. LLMs sometimes emit stray
// backslashes inside JSON strings; this converts them to double-escaped
// sequences the JSON parser accepts.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

func fixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

// ValidateResponse parses and validates the raw LLM response into a finding
// record. Leading/trailing markdown fences are stripped before parsing.
// The record codec enforces the tagged value shapes, unit and polarity
// enums; this adds domain sanity checks on top. Returns a nil record with
// the collected errors when the response cannot be used.
func ValidateResponse(raw string) (*schema.FindingRecord, []ValidationError) {
	var errs []ValidationError

	raw = stripMarkdownFences(raw)

	record := schema.NewFindingRecord()
	if err := json.Unmarshal([]byte(raw), record); err != nil {
		fixed := fixInvalidJSONEscapes(raw)
		record = schema.NewFindingRecord()
		if err2 := json.Unmarshal([]byte(fixed), record); err2 != nil {
			errs = append(errs, ValidationError{Field: "json_parse", Message: err.Error()})
			return nil, errs
		}
	}

	for _, key := range record.Keys() {
		value, _ := record.Get(key)
		m, ok := value.(schema.Measurement)
		if !ok {
			continue
		}
		if m.Magnitude <= 0 {
			errs = append(errs, ValidationError{
				Field:   key,
				Message: fmt.Sprintf("non-positive magnitude %g", m.Magnitude),
			})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return record, nil
}

// buildSystemPrompt assembles the LLM system prompt.
func buildSystemPrompt(prof profile.Profile) string {
	var sb strings.Builder

	sb.WriteString("You are RadVerify, a radiology report extraction engine.\n\n")

	sb.WriteString("Output ONLY valid JSON conforming to the schema below. " +
		"No prose, no markdown, no explanation outside the JSON.\n\n")

	sb.WriteString("Extract only findings the report text states. " +
		"Never invent measurements or assessments. " +
		"If the report does not mention a field, omit the field entirely.\n\n")

	if prof.StrictUncertainty {
		sb.WriteString("Mark any hedged or queried phrasing as \"uncertain\" polarity. " +
			"Do not guess whether a hedged finding is affirmed or negated.\n\n")
	}

	if prof.SystemPromptAddendum != "" {
		sb.WriteString(prof.SystemPromptAddendum)
		sb.WriteString("\n\n")
	}

	sb.WriteString(outputSchema)

	return sb.String()
}

// outputSchema is the JSON schema fragment shown to the LLM.
const outputSchema = `Output schema (JSON only): an object keyed by field name.
Each value is one of:
  {"type": "measurement", "value": 47.0, "unit": "mm|cm|week|day"}
  {"type": "categorical", "label": "normal", "polarity": "affirmed|negated|uncertain"}
Example:
{
  "BPD": {"type": "measurement", "value": 47.0, "unit": "mm"},
  "heart": {"type": "categorical", "label": "four-chamber normal", "polarity": "affirmed"},
  "spine": {"type": "categorical", "label": "abnormality", "polarity": "negated"}
}
`

// buildUserPrompt assembles the LLM user prompt.
func buildUserPrompt(reportText string) string {
	var sb strings.Builder
	sb.WriteString("REPORT TEXT:\n")
	sb.WriteString(reportText)
	sb.WriteString("\n\nProduce the JSON finding record now.")
	return sb.String()
}

// buildRepairPrompt constructs the repair message. It includes the original
// user prompt and the previous invalid response so the LLM has full context.
func buildRepairPrompt(originalUserPrompt, previousResponse string, errs []ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	sb.WriteString("\nPlease output only the corrected JSON conforming to the schema. Do not repeat the error.")
	return sb.String()
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider implements Provider using the Anthropic SDK.
// anthropic.Client is a value type; the SDK's NewClient returns it by value.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(model string) (Provider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		// "text" is the only content type that carries assistant text output.
		// The SDK does not expose a typed constant for content block types in
		// this version.
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic: response contained no text content blocks")
	}
	return strings.Join(parts, ""), nil
}
