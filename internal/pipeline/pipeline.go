// Package pipeline wires one verification call end to end: parse the
// free-text report into a finding record, reconcile it against the AI
// record, and aggregate the outcomes. Each stage is traced to the logger
// and to an ordered note list returned with the result.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/radverify/internal/aggregate"
	"github.com/dshills/radverify/internal/llm"
	"github.com/dshills/radverify/internal/profile"
	"github.com/dshills/radverify/internal/reconcile"
	"github.com/dshills/radverify/internal/rules"
	"github.com/dshills/radverify/internal/schema"
	"github.com/dshills/radverify/internal/textparse"
)

// ParserKind selects the report-extraction strategy.
type ParserKind string

const (
	// ParserLexical uses the keyword/regex parser in internal/textparse.
	ParserLexical ParserKind = "lexical"
	// ParserLLM uses the LLM extractor in internal/llm.
	ParserLLM ParserKind = "llm"
)

// Options configures a Pipeline. Rules is required; the zero Logger
// discards all output.
type Options struct {
	Rules   *rules.Ruleset
	Parser  ParserKind
	Profile profile.Profile
	LLM     llm.Options
	Logger  zerolog.Logger
}

// Pipeline runs verifications against a fixed, read-only configuration.
// Safe for concurrent use: it holds no mutable state across calls.
type Pipeline struct {
	opts Options
}

// New returns a Pipeline for opts. An unset parser defaults to lexical.
func New(opts Options) (*Pipeline, error) {
	if opts.Rules == nil {
		return nil, fmt.Errorf("pipeline: rules are required")
	}
	switch opts.Parser {
	case ParserLexical, ParserLLM:
	case "":
		opts.Parser = ParserLexical
	default:
		return nil, fmt.Errorf("pipeline: unknown parser %q", opts.Parser)
	}
	return &Pipeline{opts: opts}, nil
}

// trace collects ordered stage notes while mirroring them to the logger.
type trace struct {
	logger zerolog.Logger
	notes  []string
}

func (t *trace) add(stage, message string) {
	t.notes = append(t.notes, fmt.Sprintf("%s: %s", stage, message))
	t.logger.Info().Str("stage", stage).Msg(message)
}

// Verify reconciles the AI finding record against the report text and
// returns the verification result together with the ordered processing
// notes. A *schema.ConfigurationError aborts the call with no partial
// result.
func (p *Pipeline) Verify(ctx context.Context, ai *schema.FindingRecord, reportText string) (*schema.Result, []string, error) {
	t := &trace{logger: p.opts.Logger}

	t.add("input", fmt.Sprintf("AI record carries %d fields", ai.Len()))

	doctor, err := p.parseReport(ctx, reportText)
	if err != nil {
		return nil, t.notes, err
	}
	t.add("parse", fmt.Sprintf("report yielded %d fields via %s parser", doctor.Len(), p.opts.Parser))

	outcomes, err := reconcile.Reconcile(ai, doctor, p.opts.Rules)
	if err != nil {
		return nil, t.notes, err
	}
	t.add("reconcile", fmt.Sprintf("classified %d outcomes", len(outcomes)))

	result := aggregate.Aggregate(outcomes, p.opts.Rules)
	t.add("aggregate", fmt.Sprintf("agreement rate %.3f, risk level %s", result.AgreementRate, result.RiskLevel))

	return result, t.notes, nil
}

func (p *Pipeline) parseReport(ctx context.Context, reportText string) (*schema.FindingRecord, error) {
	switch p.opts.Parser {
	case ParserLLM:
		record, err := llm.Extract(ctx, reportText, p.opts.Profile, p.opts.LLM)
		if err != nil {
			return nil, fmt.Errorf("pipeline: extract report: %w", err)
		}
		return record, nil
	default:
		record, err := textparse.ParseReport(reportText)
		if err != nil {
			return nil, fmt.Errorf("pipeline: parse report: %w", err)
		}
		return record, nil
	}
}
