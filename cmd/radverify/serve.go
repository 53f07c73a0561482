package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/radverify/internal/llm"
	"github.com/dshills/radverify/internal/pipeline"
	"github.com/dshills/radverify/internal/profile"
	"github.com/dshills/radverify/internal/server"
)

func newServeCmd(verbose *bool) *cobra.Command {
	var (
		listen      string
		rulesPath   string
		parserName  string
		profileName string
		provider    string
		model       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the verification API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleset, err := loadRules(rulesPath)
			if err != nil {
				return err
			}
			prof, err := profile.Load(profileName)
			if err != nil {
				return err
			}

			logger := newLogger(*verbose)
			p, err := pipeline.New(pipeline.Options{
				Rules:   ruleset,
				Parser:  pipeline.ParserKind(parserName),
				Profile: prof,
				LLM:     llm.Options{Provider: provider, Model: model, MaxTokens: 4096},
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			srv := &server.Server{
				Addr:     listen,
				Logger:   logger,
				Pipeline: p,
			}
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8000", "listen address")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a ruleset YAML; built-in defaults when omitted")
	cmd.Flags().StringVar(&parserName, "parser", string(pipeline.ParserLexical), "report parser: lexical or llm")
	cmd.Flags().StringVar(&profileName, "profile", "fetal-anatomy", "exam profile for LLM extraction")
	cmd.Flags().StringVar(&provider, "provider", "anthropic", "LLM provider: anthropic, openai, or google")
	cmd.Flags().StringVar(&model, "model", "claude-sonnet-4-20250514", "LLM model name")

	return cmd
}
