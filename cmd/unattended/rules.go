package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	rulesFlags overrides
	rulesYAML  bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective prompt table",
	Long: `rules prints the prompts that would be answered, in match priority order.
Placeholders without a value are shown unexpanded. With --yaml the whole
effective configuration is printed instead, ready to be edited and passed
back with --config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rulesFlags.apply(cmd, &cfg)

		if rulesYAML {
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		table := cfg.Rules
		if len(cfg.MissingVars()) == 0 {
			if table, err = cfg.Table(); err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "#\tMATCH\tRESPONSE\tREPEAT\n")
		for i, r := range table {
			fmt.Fprintf(w, "%d\t%q\t%q\t%v\n", i+1, r.Match, r.Response, r.Repeat)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "policy: %s\n", cfg.Policy)
		return nil
	},
}

func init() {
	rulesFlags.register(rulesCmd)
	rulesCmd.Flags().BoolVar(&rulesYAML, "yaml", false, "Print the effective configuration as YAML")
	rootCmd.AddCommand(rulesCmd)
}
