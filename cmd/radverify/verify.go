package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/radverify/internal/aggregate"
	"github.com/dshills/radverify/internal/llm"
	"github.com/dshills/radverify/internal/pipeline"
	"github.com/dshills/radverify/internal/profile"
	"github.com/dshills/radverify/internal/render"
	"github.com/dshills/radverify/internal/rules"
	"github.com/dshills/radverify/internal/schema"
)

func newVerifyCmd(verbose *bool) *cobra.Command {
	var (
		aiPath      string
		reportPath  string
		rulesPath   string
		parserName  string
		profileName string
		provider    string
		model       string
		maxTokens   int
		temperature float64
		format      string
		failOn      string
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reconcile an AI finding record with a free-text report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleset, err := loadRules(rulesPath)
			if err != nil {
				return err
			}

			prof, err := profile.Load(profileName)
			if err != nil {
				return err
			}

			ai, err := readFindings(aiPath)
			if err != nil {
				return err
			}
			reportText, err := os.ReadFile(reportPath)
			if err != nil {
				return fmt.Errorf("read report %s: %w", reportPath, err)
			}

			p, err := pipeline.New(pipeline.Options{
				Rules:   ruleset,
				Parser:  pipeline.ParserKind(parserName),
				Profile: prof,
				LLM: llm.Options{
					Provider:    provider,
					Model:       model,
					MaxTokens:   maxTokens,
					Temperature: temperature,
					Debug:       debug,
				},
				Logger: newLogger(*verbose),
			})
			if err != nil {
				return err
			}

			result, _, err := p.Verify(cmd.Context(), ai, string(reportText))
			if err != nil {
				return err
			}

			switch format {
			case "json":
				b, err := render.RenderJSON(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			case "markdown":
				fmt.Fprint(cmd.OutOrStdout(), render.RenderMarkdown(result))
			default:
				return fmt.Errorf("unknown format %q (available: json, markdown)", format)
			}

			if failOn != "" {
				threshold := aggregate.RiskOrdinal(schema.RiskLevel(failOn))
				if threshold < 0 {
					return fmt.Errorf("unknown --fail-on level %q (available: low, medium, high)", failOn)
				}
				if aggregate.RiskOrdinal(result.RiskLevel) >= threshold {
					os.Exit(2)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&aiPath, "ai", "", "path to the AI finding record JSON (required)")
	cmd.Flags().StringVar(&reportPath, "report", "", "path to the free-text report (required)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a ruleset YAML; built-in defaults when omitted")
	cmd.Flags().StringVar(&parserName, "parser", string(pipeline.ParserLexical), "report parser: lexical or llm")
	cmd.Flags().StringVar(&profileName, "profile", "fetal-anatomy", "exam profile for LLM extraction")
	cmd.Flags().StringVar(&provider, "provider", "anthropic", "LLM provider: anthropic, openai, or google")
	cmd.Flags().StringVar(&model, "model", "claude-sonnet-4-20250514", "LLM model name")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 4096, "LLM max output tokens")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.0, "LLM sampling temperature")
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: json or markdown")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "exit 2 when the risk level reaches this threshold")
	cmd.Flags().BoolVar(&debug, "debug", false, "print LLM prompts to stderr")
	_ = cmd.MarkFlagRequired("ai")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

// loadRules loads the ruleset file or falls back to the built-in defaults.
func loadRules(path string) (*rules.Ruleset, error) {
	if path == "" {
		return rules.Defaults(), nil
	}
	return rules.Load(path)
}

// readFindings decodes an AI finding record from a JSON file.
func readFindings(path string) (*schema.FindingRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("--ai is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read AI findings %s: %w", path, err)
	}
	record := schema.NewFindingRecord()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("parse AI findings %s: %w", path, err)
	}
	return record, nil
}
