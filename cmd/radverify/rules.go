package main

import (
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective ruleset as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleset, err := loadRules(rulesPath)
			if err != nil {
				return err
			}

			optional := make([]string, 0, len(ruleset.Optional))
			for key := range ruleset.Optional {
				optional = append(optional, key)
			}
			sort.Strings(optional)

			out := map[string]any{
				"fields":     ruleset.Fields,
				"optional":   optional,
				"thresholds": ruleset.Thresholds,
			}
			b, err := yaml.Marshal(out)
			if err != nil {
				return fmt.Errorf("marshal ruleset: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a ruleset YAML; built-in defaults when omitted")
	return cmd
}
